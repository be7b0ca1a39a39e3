package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"campuspulse/internal/config"
	"campuspulse/internal/forecast"
	"campuspulse/internal/infrastructure"
	"campuspulse/internal/query"
	"campuspulse/pkg/contracts/domain"
)

type staticSource struct {
	ds *domain.Dataset
}

func (s staticSource) Current() (*domain.Dataset, error) {
	if s.ds == nil {
		return nil, ErrNoDataset
	}
	return s.ds, nil
}

func (s staticSource) Series() domain.TimeSeries {
	if s.ds == nil {
		return nil
	}
	return s.ds.Series
}

func monthlySeries(values ...int) domain.TimeSeries {
	ts := make(domain.TimeSeries, len(values))
	for i, v := range values {
		ts[i] = domain.MonthlyRecord{
			Year:          []string{"2023", "2024"}[i/12],
			Month:         domain.Months[i%12],
			TotalStudents: v,
			Offered:       v / 5,
			TotalPaid:     float64(v) * 2500,
		}
	}
	return ts
}

func newAnalytics(ts domain.TimeSeries) *AnalyticsService {
	src := staticSource{}
	if ts != nil {
		src.ds = &domain.Dataset{ID: "ds-1", Source: "intake.xlsx", Series: ts}
	}
	return NewAnalyticsService(src, config.Default().Analytics, nil, quietLogger())
}

func TestAnalyticsService_Forecast(t *testing.T) {
	svc := newAnalytics(monthlySeries(10, 20, 30, 40))
	ctx := context.Background()

	rep, err := svc.Forecast(ctx, "total-students", "", 0)
	require.NoError(t, err)
	assert.Equal(t, domain.FieldTotalStudents, rep.Field)
	assert.Equal(t, 3, rep.Horizon, "configured default horizon")
	assert.Equal(t, forecast.MethodEnsemble, rep.Method)
	assert.Len(t, rep.Values, 3)
	assert.Len(t, rep.Models, 3)

	rep, err = svc.Forecast(ctx, "total_students", "linear", 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{50, 60}, rep.Values)
	assert.Empty(t, rep.Models)

	rep, err = svc.Forecast(ctx, "total_students", "exponential", 1)
	require.NoError(t, err)
	assert.Equal(t, forecast.MethodExponential, rep.Method)

	_, err = svc.Forecast(ctx, "salary", "", 3)
	assert.ErrorIs(t, err, ErrUnknownField)
	_, err = svc.Forecast(ctx, "total_students", "arima", 3)
	assert.ErrorIs(t, err, ErrUnknownMethod)
	_, err = svc.Forecast(ctx, "total_students", "", query.MaxHorizon+1)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Forecast(ctx, "total_students", "", -1)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAnalyticsService_ConfiguredTuningReachesEveryPath(t *testing.T) {
	cfg := config.Default().Analytics
	cfg.Alpha = 0.9
	cfg.ZThreshold = 3.5
	cfg.Window = 2
	cfg.DefaultHorizon = 5
	ts := monthlySeries(10, 100, 10, 100, 10, 100)
	svc := NewAnalyticsService(staticSource{ds: &domain.Dataset{ID: "ds-1", Series: ts}}, cfg, nil, quietLogger())
	ctx := context.Background()

	exp, err := svc.Forecast(ctx, "total_students", "exponential", 1)
	require.NoError(t, err)
	require.Len(t, exp.Values, 1)
	assert.InDelta(t, 91.8181, exp.Values[0], 1e-9)

	ens, err := svc.Forecast(ctx, "total_students", "", 1)
	require.NoError(t, err)
	require.Len(t, ens.Models, 3)
	assert.Equal(t, forecast.MethodExponential, ens.Models[2].Method)
	assert.Equal(t, exp.Values, ens.Models[2].Values)

	answer := svc.Query(ctx, "predict students")
	assert.Equal(t, 5, answer.Horizon)
	assert.Contains(t, answer.Report, "exponential 91.8")

	spiky := monthlySeries(10, 10, 10, 10, 10, 10, 10, 10, 10, 40)
	spikySvc := NewAnalyticsService(staticSource{ds: &domain.Dataset{ID: "ds-2", Series: spiky}}, cfg, nil, quietLogger())
	a, err := spikySvc.Anomalies(ctx, "total_students", 0)
	require.NoError(t, err)
	assert.Empty(t, a.Items)
	assert.Contains(t, spikySvc.Query(ctx, "any outliers?").Report, "No anomalies in Total Students (z > 3.5")

	assert.Contains(t, svc.Overview(ctx), "Latest 2-month moving average of students: 55.0")
}

func TestAnalyticsService_EmptySeriesIsNotAnError(t *testing.T) {
	svc := newAnalytics(nil)
	ctx := context.Background()

	rep, err := svc.Forecast(ctx, "total_students", "linear", 3)
	require.NoError(t, err)
	assert.Equal(t, forecast.StatusInsufficientData, rep.Status)

	g, err := svc.Growth(ctx, "offered")
	require.NoError(t, err)
	assert.Equal(t, forecast.StatusInsufficientData, g.Status)

	a, err := svc.Anomalies(ctx, "total_paid", 0)
	require.NoError(t, err)
	assert.Empty(t, a.Items)

	answer := svc.Query(ctx, "predict students")
	assert.Equal(t, query.IntentPrediction, answer.Intent)
	assert.Contains(t, answer.Report, "Not enough data")

	_, err = svc.Summary(ctx)
	assert.ErrorIs(t, err, ErrNoDataset)
}

func TestAnalyticsService_Diagnostics(t *testing.T) {
	svc := newAnalytics(monthlySeries(50, 52, 51, 49, 50, 51, 500, 50, 52, 51, 49, 50))
	ctx := context.Background()

	ma, err := svc.MovingAverage(ctx, "total_students", 0)
	require.NoError(t, err)
	assert.Equal(t, 3, ma.Window)
	assert.Len(t, ma.Values, 10)
	_, err = svc.MovingAverage(ctx, "total_students", -2)
	assert.ErrorIs(t, err, ErrInvalidInput)

	s, err := svc.Seasonal(ctx, "total_students")
	require.NoError(t, err)
	peak, ok := s.PeakMonth()
	require.True(t, ok)
	assert.Equal(t, "Jul", peak.Month)

	a, err := svc.Anomalies(ctx, "total_students", 0)
	require.NoError(t, err)
	assert.Equal(t, 2.0, a.Threshold)
	require.Len(t, a.Items, 1)
	assert.Equal(t, "2023-Jul", a.Items[0].Key)
	_, err = svc.Anomalies(ctx, "total_students", -1)
	assert.ErrorIs(t, err, ErrInvalidInput)

	c, err := svc.Correlation(ctx, "total_students", "total_paid")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, c.R, 1e-9)
	_, err = svc.Correlation(ctx, "total_students", "nope")
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestAnalyticsService_Summary(t *testing.T) {
	svc := newAnalytics(monthlySeries(10, 20, 30, 40, 50, 60, 70, 80, 90, 100, 110, 120, 130))
	rep, err := svc.Summary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "ds-1", rep.DatasetID)
	assert.Equal(t, 13, rep.Summary.Records)
	require.Len(t, rep.YearTotals, 2)
	assert.Equal(t, 130.0, rep.YearTotals[1].Total)
	require.Len(t, rep.Monthly, 12)
	assert.Equal(t, 130.0, rep.Monthly[0].ByYear["2024"])
}

func TestAnalyticsService_QueryRecordsIntentMetric(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metrics, err := infrastructure.CreateBusinessMetrics(mp.Meter("test"))
	require.NoError(t, err)

	src := staticSource{ds: &domain.Dataset{ID: "ds-1", Series: monthlySeries(10, 20, 30, 40)}}
	svc := NewAnalyticsService(src, config.Default().Analytics, metrics, quietLogger())

	answer := svc.Query(context.Background(), "forecast revenue for 2 months")
	assert.Equal(t, domain.FieldTotalPaid, answer.Field)
	assert.Equal(t, 2, answer.Horizon)
	svc.Query(context.Background(), "overview")

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	var points int
	for _, m := range rm.ScopeMetrics[0].Metrics {
		if m.Name == "queries_total" {
			points = len(m.Data.(metricdata.Sum[int64]).DataPoints)
		}
	}
	assert.Equal(t, 2, points, "one series per intent")
}
