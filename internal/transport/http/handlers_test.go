package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"campuspulse/internal/config"
	"campuspulse/internal/diagnostics"
	apierrors "campuspulse/internal/errors"
	"campuspulse/internal/forecast"
	"campuspulse/internal/middleware"
	"campuspulse/internal/query"
	"campuspulse/internal/services"
	"campuspulse/pkg/contracts/domain"
)

// MockAnalyticsService is a mock implementation of AnalyticsService
type MockAnalyticsService struct {
	mock.Mock
}

func (m *MockAnalyticsService) Forecast(ctx context.Context, field, method string, horizon int) (*services.ForecastReport, error) {
	args := m.Called(field, method, horizon)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ForecastReport), args.Error(1)
}

func (m *MockAnalyticsService) MovingAverage(ctx context.Context, field string, window int) (forecast.MovingAverageResult, error) {
	args := m.Called(field, window)
	return args.Get(0).(forecast.MovingAverageResult), args.Error(1)
}

func (m *MockAnalyticsService) Growth(ctx context.Context, field string) (diagnostics.Growth, error) {
	args := m.Called(field)
	return args.Get(0).(diagnostics.Growth), args.Error(1)
}

func (m *MockAnalyticsService) Seasonal(ctx context.Context, field string) (diagnostics.Seasonal, error) {
	args := m.Called(field)
	return args.Get(0).(diagnostics.Seasonal), args.Error(1)
}

func (m *MockAnalyticsService) Anomalies(ctx context.Context, field string, z float64) (diagnostics.Anomalies, error) {
	args := m.Called(field, z)
	return args.Get(0).(diagnostics.Anomalies), args.Error(1)
}

func (m *MockAnalyticsService) Correlation(ctx context.Context, a, b string) (diagnostics.Correlation, error) {
	args := m.Called(a, b)
	return args.Get(0).(diagnostics.Correlation), args.Error(1)
}

func (m *MockAnalyticsService) Query(ctx context.Context, text string) query.Answer {
	args := m.Called(text)
	return args.Get(0).(query.Answer)
}

func (m *MockAnalyticsService) Summary(ctx context.Context) (*services.SummaryReport, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SummaryReport), args.Error(1)
}

// MockDatasetService is a mock implementation of DatasetService
type MockDatasetService struct {
	mock.Mock
}

func (m *MockDatasetService) Upload(ctx context.Context, name string, r io.Reader) (*domain.Dataset, error) {
	args := m.Called(name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Dataset), args.Error(1)
}

func (m *MockDatasetService) Current() (*domain.Dataset, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Dataset), args.Error(1)
}

func (m *MockDatasetService) MaxBytes() int64 {
	return int64(m.Called().Int(0))
}

const sampleCSV = "Year,Month,Total Students,Offered,Total Paid (₹)\n" +
	"2024,Jan,40,8,\"1,000\"\n" +
	"2024,Feb,50,10,1500\n" +
	"2024,Mar,45,9,1200\n" +
	"TOTAL,,135,27,3700\n"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testErrorHandler() *apierrors.ErrorHandler {
	return apierrors.NewErrorHandler(testLogger(), false)
}

func serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func multipartUpload(t *testing.T, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(uploadFormField, filename)
	require.NoError(t, err)
	_, err = io.WriteString(fw, content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func newRealDatasetRouter(t *testing.T, maxBytes int64) (http.Handler, *services.DatasetService) {
	t.Helper()
	datasets := services.NewDatasetService(config.UploadConfig{MaxBytes: maxBytes}, nil, testLogger())
	analytics := services.NewAnalyticsService(datasets, config.Default().Analytics, nil, testLogger())
	h := NewDatasetHandler(datasets, analytics, testLogger(), testErrorHandler())
	return h.Routes(), datasets
}

func TestDatasetHandler_UploadFlow(t *testing.T) {
	router, datasets := newRealDatasetRouter(t, 1<<20)

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, apierrors.CodeNoDataset, decodeBody(t, rec)["error_code"])

	rec = serve(router, multipartUpload(t, "intake.csv", sampleCSV))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, "success", body["status"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "intake.csv", data["dataset"].(map[string]interface{})["source"])
	assert.EqualValues(t, 3, data["summary"].(map[string]interface{})["records"])

	ds, err := datasets.Current()
	require.NoError(t, err)
	assert.Equal(t, 3, ds.Series.Len())

	rec = serve(router, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	records := decodeBody(t, rec)["data"].(map[string]interface{})
	assert.EqualValues(t, 3, records["count"])
	first := records["records"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "Jan", first["month"])
	assert.EqualValues(t, 1000, first["total_paid"])

	rec = serve(router, httptest.NewRequest(http.MethodGet, "/summary", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decodeBody(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, ds.ID, summary["dataset_id"])

	rec = serve(router, httptest.NewRequest(http.MethodGet, "/export.csv", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ds.ID)
	assert.Contains(t, rec.Body.String(), "2024,Feb,50,0,0,0,10,0,0,0,1500.00,0.00")
}

func TestDatasetHandler_FailedUploadKeepsPrevious(t *testing.T) {
	router, datasets := newRealDatasetRouter(t, 1<<20)

	rec := serve(router, multipartUpload(t, "intake.csv", sampleCSV))
	require.Equal(t, http.StatusCreated, rec.Code)
	before, err := datasets.Current()
	require.NoError(t, err)

	rec = serve(router, multipartUpload(t, "bad.csv", "Name,Age\nbob,3\n"))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, apierrors.CodeNoData, decodeBody(t, rec)["error_code"])

	after, err := datasets.Current()
	require.NoError(t, err)
	assert.Equal(t, before.ID, after.ID)
}

func TestDatasetHandler_UploadErrors(t *testing.T) {
	t.Run("too large", func(t *testing.T) {
		router, _ := newRealDatasetRouter(t, 32)
		rec := serve(router, multipartUpload(t, "intake.csv", sampleCSV))
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})

	t.Run("far too large", func(t *testing.T) {
		router, _ := newRealDatasetRouter(t, 32)
		rec := serve(router, multipartUpload(t, "intake.csv", strings.Repeat("x", 2*multipartOverhead)))
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})

	t.Run("missing file", func(t *testing.T) {
		router, _ := newRealDatasetRouter(t, 1<<20)
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		require.NoError(t, mw.WriteField("note", "no file"))
		require.NoError(t, mw.Close())
		req := httptest.NewRequest(http.MethodPost, "/", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())

		rec := serve(router, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unsupported format", func(t *testing.T) {
		router, _ := newRealDatasetRouter(t, 1<<20)
		rec := serve(router, multipartUpload(t, "intake.ods", sampleCSV))
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, apierrors.CodeDecode, decodeBody(t, rec)["error_code"])
	})
}

func TestDatasetHandler_WithMocks(t *testing.T) {
	datasets := new(MockDatasetService)
	analytics := new(MockAnalyticsService)
	datasets.On("MaxBytes").Return(1 << 20)
	datasets.On("Upload", "intake.csv").Return(nil, fmt.Errorf("read: %w", context.DeadlineExceeded))
	analytics.On("Summary").Return(nil, services.ErrNoDataset)

	router := NewDatasetHandler(datasets, analytics, testLogger(), testErrorHandler()).Routes()

	rec := serve(router, multipartUpload(t, "intake.csv", sampleCSV))
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)

	rec = serve(router, httptest.NewRequest(http.MethodGet, "/summary", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	datasets.AssertExpectations(t)
	analytics.AssertExpectations(t)
}

func TestAnalyticsHandler_Routes(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		setup          func(m *MockAnalyticsService)
		expectedStatus int
		check          func(t *testing.T, body map[string]interface{})
	}{
		{
			name: "forecast defaults",
			path: "/forecast/total_students",
			setup: func(m *MockAnalyticsService) {
				m.On("Forecast", "total_students", "", 0).Return(&services.ForecastReport{
					Field:    domain.FieldTotalStudents,
					Horizon:  3,
					Forecast: forecast.Forecast{Method: forecast.MethodEnsemble, Status: forecast.StatusOK, Values: []float64{1, 2, 3}},
				}, nil)
			},
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]interface{}) {
				data := body["data"].(map[string]interface{})
				assert.Equal(t, "ensemble", data["method"])
				assert.Len(t, data["values"], 3)
			},
		},
		{
			name: "forecast with method and horizon",
			path: "/forecast/total_paid?method=linear&horizon=6",
			setup: func(m *MockAnalyticsService) {
				m.On("Forecast", "total_paid", "linear", 6).Return(&services.ForecastReport{
					Field:    domain.FieldTotalPaid,
					Horizon:  6,
					Forecast: forecast.Forecast{Method: forecast.MethodLinear, Status: forecast.StatusInsufficientData},
				}, nil)
			},
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "insufficient_data", body["data"].(map[string]interface{})["status"])
			},
		},
		{
			name:           "forecast horizon out of range",
			path:           "/forecast/total_paid?horizon=25",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "forecast unknown method",
			path:           "/forecast/total_paid?method=arima",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "forecast unknown field",
			path: "/forecast/height",
			setup: func(m *MockAnalyticsService) {
				m.On("Forecast", "height", "", 0).Return(nil, fmt.Errorf("%w: %q", services.ErrUnknownField, "height"))
			},
			expectedStatus: http.StatusBadRequest,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, apierrors.TypeUnknownField, body["type"])
				assert.Contains(t, body["allowed"], "total_students")
			},
		},
		{
			name: "moving average",
			path: "/moving-average/offered?window=2",
			setup: func(m *MockAnalyticsService) {
				m.On("MovingAverage", "offered", 2).Return(forecast.MovingAverageResult{Status: forecast.StatusOK, Window: 2}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "moving average bad window",
			path:           "/moving-average/offered?window=abc",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "growth",
			path: "/growth/total_students",
			setup: func(m *MockAnalyticsService) {
				m.On("Growth", "total_students").Return(diagnostics.Growth{Status: forecast.StatusOK}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "seasonal",
			path: "/seasonal/total_students",
			setup: func(m *MockAnalyticsService) {
				m.On("Seasonal", "total_students").Return(diagnostics.Seasonal{Status: forecast.StatusInsufficientData}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "anomalies",
			path: "/anomalies/total_paid?z=1.5",
			setup: func(m *MockAnalyticsService) {
				m.On("Anomalies", "total_paid", 1.5).Return(diagnostics.Anomalies{Status: forecast.StatusOK, Threshold: 1.5, Items: []diagnostics.Anomaly{}}, nil)
			},
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.EqualValues(t, 1.5, body["data"].(map[string]interface{})["threshold"])
			},
		},
		{
			name: "correlation",
			path: "/correlation?a=total_students&b=total_paid",
			setup: func(m *MockAnalyticsService) {
				m.On("Correlation", "total_students", "total_paid").Return(diagnostics.Correlation{
					Status: forecast.StatusOK, A: domain.FieldTotalStudents, B: domain.FieldTotalPaid, R: 0.9, Strength: "strong", Direction: "positive",
				}, nil)
			},
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "strong", body["data"].(map[string]interface{})["strength"])
			},
		},
		{
			name:           "correlation missing field",
			path:           "/correlation?a=total_students",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := new(MockAnalyticsService)
			if tt.setup != nil {
				tt.setup(m)
			}
			router := NewAnalyticsHandler(m, testLogger(), testErrorHandler()).Routes()

			rec := serve(router, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.expectedStatus, rec.Code, rec.Body.String())
			if tt.check != nil {
				tt.check(t, decodeBody(t, rec))
			}
			m.AssertExpectations(t)
		})
	}
}

func TestQueryHandler_Ask(t *testing.T) {
	m := new(MockAnalyticsService)
	m.On("Query", "predict students for next 6 months").Return(query.Answer{
		Request: query.Request{Intent: query.IntentPrediction, Field: domain.FieldTotalStudents, Horizon: 6},
		Report:  "Forecast for Total Students",
	})

	router := NewQueryHandler(m, middleware.NewValidator(testLogger()), testLogger(), testErrorHandler()).Routes()

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"text":"predict students for next 6 months"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := serve(router, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, "prediction", body["intent"])
	assert.Equal(t, "total_students", body["field"])
	assert.EqualValues(t, 6, body["horizon"])
	assert.Equal(t, "Forecast for Total Students", body["report"])
	m.AssertExpectations(t)
}

func TestQueryHandler_Rejects(t *testing.T) {
	tests := []struct {
		name           string
		contentType    string
		body           string
		expectedStatus int
	}{
		{"empty text", "application/json", `{"text":""}`, http.StatusBadRequest},
		{"too long", "application/json", `{"text":"` + strings.Repeat("a", 501) + `"}`, http.StatusBadRequest},
		{"unknown property", "application/json", `{"text":"hi","lang":"en"}`, http.StatusBadRequest},
		{"wrong content type", "text/plain", `{"text":"hi"}`, http.StatusUnsupportedMediaType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := new(MockAnalyticsService)
			router := NewQueryHandler(m, middleware.NewValidator(testLogger()), testLogger(), testErrorHandler()).Routes()

			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			rec := serve(router, req)

			assert.Equal(t, tt.expectedStatus, rec.Code, rec.Body.String())
			m.AssertNotCalled(t, "Query", mock.Anything)
		})
	}
}

type notReadyHealth struct {
	services.HealthStatus
}

func (n notReadyHealth) HealthCheck(context.Context) services.HealthStatus    { return n.HealthStatus }
func (n notReadyHealth) ReadinessCheck(context.Context) services.HealthStatus { return n.HealthStatus }
func (n notReadyHealth) LivenessCheck(context.Context) services.HealthStatus  { return n.HealthStatus }
func (n notReadyHealth) Version() map[string]interface{}                      { return nil }

func TestHealthHandler(t *testing.T) {
	datasets := services.NewDatasetService(config.UploadConfig{}, nil, testLogger())
	h := NewHealthHandler(services.NewHealthService("v1.0.0-test", datasets, nil, testLogger()), testLogger())

	r := chi.NewRouter()
	r.Mount("/healthz", h.Routes())
	r.Get("/version", h.Version)

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])

	rec = serve(r, httptest.NewRequest(http.MethodGet, "/healthz/ready", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "ready", body["status"])
	assert.Contains(t, body["services"], "dataset")

	rec = serve(r, httptest.NewRequest(http.MethodGet, "/healthz/live", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotNil(t, decodeBody(t, rec)["runtime"])

	rec = serve(r, httptest.NewRequest(http.MethodGet, "/version", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "v1.0.0-test", decodeBody(t, rec)["version"])

	notReady := NewHealthHandler(notReadyHealth{services.HealthStatus{Status: "not_ready"}}, testLogger())
	rec = serve(http.HandlerFunc(notReady.ReadinessCheck), httptest.NewRequest(http.MethodGet, "/healthz/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
