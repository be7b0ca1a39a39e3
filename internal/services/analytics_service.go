package services

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"campuspulse/internal/config"
	"campuspulse/internal/dataprocessing"
	"campuspulse/internal/diagnostics"
	"campuspulse/internal/forecast"
	"campuspulse/internal/infrastructure"
	"campuspulse/internal/query"
	"campuspulse/pkg/contracts/domain"
)

// SeriesSource provides the working series
type SeriesSource interface {
	Current() (*domain.Dataset, error)
	Series() domain.TimeSeries
}

// ForecastReport is a forecast for one field with the parameters used
type ForecastReport struct {
	Field   domain.Field `json:"field"`
	Horizon int          `json:"horizon"`
	forecast.Forecast
	Models []forecast.Forecast `json:"models,omitempty"`
}

// SummaryReport combines the headline figures with per-year and per-month views
type SummaryReport struct {
	DatasetID  string                     `json:"dataset_id"`
	Summary    dataprocessing.Summary     `json:"summary"`
	YearTotals []dataprocessing.YearTotal `json:"year_totals"`
	Monthly    []dataprocessing.MonthRow  `json:"monthly"`
}

// AnalyticsService runs forecasts, diagnostics and free-text queries over the
// working series. Analytics on an empty series return insufficient-data results
// rather than errors.
type AnalyticsService struct {
	source  SeriesSource
	cfg     config.AnalyticsConfig
	fopts   forecast.Options
	router  *query.Router
	tracer  trace.Tracer
	metrics *infrastructure.BusinessMetrics
	logger  *slog.Logger
}

// NewAnalyticsService creates an analytics service. metrics may be nil.
func NewAnalyticsService(source SeriesSource, cfg config.AnalyticsConfig, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *AnalyticsService {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "analytics_service"))

	fopts := forecast.Options{Alpha: cfg.Alpha}
	return &AnalyticsService{
		source: source,
		cfg:    cfg,
		fopts:  fopts,
		router: query.NewRouter(logger, query.Options{
			Forecast:       fopts,
			ZThreshold:     cfg.ZThreshold,
			Window:         cfg.Window,
			DefaultHorizon: cfg.DefaultHorizon,
		}),
		tracer:  otel.Tracer(infrastructure.MeterName),
		metrics: metrics,
		logger:  logger,
	}
}

// Forecast predicts the next horizon months of a field. An empty method means
// the ensemble; a zero horizon means the configured default.
func (a *AnalyticsService) Forecast(ctx context.Context, fieldName, methodName string, horizon int) (*ForecastReport, error) {
	field, err := parseField(fieldName)
	if err != nil {
		return nil, err
	}

	method := forecast.MethodEnsemble
	if methodName != "" {
		m, ok := forecast.ParseMethod(methodName)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, methodName)
		}
		method = m
	}

	if horizon == 0 {
		horizon = a.cfg.DefaultHorizon
	}
	if horizon < 1 || horizon > query.MaxHorizon {
		return nil, fmt.Errorf("%w: horizon must be between 1 and %d", ErrInvalidInput, query.MaxHorizon)
	}

	ts := a.source.Series()
	report := &ForecastReport{Field: field, Horizon: horizon}
	switch method {
	case forecast.MethodEnsemble:
		e := forecast.EnsemblePrediction(ts, field, horizon, a.fopts)
		report.Forecast = e.Forecast
		report.Models = e.Models
	default:
		report.Forecast = forecast.Predict(ts, field, method, horizon, a.fopts)
	}

	a.logger.DebugContext(ctx, "Forecast computed",
		slog.String("field", string(field)),
		slog.String("method", string(method)),
		slog.Int("horizon", horizon),
		slog.String("status", string(report.Status)))
	return report, nil
}

// MovingAverage computes the trailing mean of a field. A zero window means the configured default.
func (a *AnalyticsService) MovingAverage(ctx context.Context, fieldName string, window int) (forecast.MovingAverageResult, error) {
	field, err := parseField(fieldName)
	if err != nil {
		return forecast.MovingAverageResult{}, err
	}
	if window == 0 {
		window = a.cfg.Window
	}
	if window < 1 {
		return forecast.MovingAverageResult{}, fmt.Errorf("%w: window must be positive", ErrInvalidInput)
	}
	return forecast.MovingAverage(a.source.Series(), field, window), nil
}

// Growth runs period-over-period growth analysis on a field
func (a *AnalyticsService) Growth(ctx context.Context, fieldName string) (diagnostics.Growth, error) {
	field, err := parseField(fieldName)
	if err != nil {
		return diagnostics.Growth{}, err
	}
	return diagnostics.GrowthAnalysis(a.source.Series(), field), nil
}

// Seasonal computes the year-agnostic monthly pattern of a field
func (a *AnalyticsService) Seasonal(ctx context.Context, fieldName string) (diagnostics.Seasonal, error) {
	field, err := parseField(fieldName)
	if err != nil {
		return diagnostics.Seasonal{}, err
	}
	return diagnostics.SeasonalPattern(a.source.Series(), field), nil
}

// Anomalies flags z-score outliers of a field. A zero threshold means the configured default.
func (a *AnalyticsService) Anomalies(ctx context.Context, fieldName string, z float64) (diagnostics.Anomalies, error) {
	field, err := parseField(fieldName)
	if err != nil {
		return diagnostics.Anomalies{}, err
	}
	if z == 0 {
		z = a.cfg.ZThreshold
	}
	if z < 0 {
		return diagnostics.Anomalies{}, fmt.Errorf("%w: z threshold must be positive", ErrInvalidInput)
	}
	return diagnostics.DetectAnomalies(a.source.Series(), field, z), nil
}

// Correlation computes the Pearson coefficient between two fields
func (a *AnalyticsService) Correlation(ctx context.Context, fieldA, fieldB string) (diagnostics.Correlation, error) {
	fa, err := parseField(fieldA)
	if err != nil {
		return diagnostics.Correlation{}, err
	}
	fb, err := parseField(fieldB)
	if err != nil {
		return diagnostics.Correlation{}, err
	}
	return diagnostics.FieldCorrelation(a.source.Series(), fa, fb), nil
}

// Query routes a free-text question to a plain-text report
func (a *AnalyticsService) Query(ctx context.Context, text string) query.Answer {
	ctx, span := a.tracer.Start(ctx, "query.route")
	defer span.End()

	answer := a.router.Answer(text, a.source.Series())
	span.SetAttributes(
		attribute.String("query.intent", string(answer.Intent)),
		attribute.String("query.field", string(answer.Field)),
	)
	infrastructure.RecordQueryMetrics(ctx, a.metrics, string(answer.Intent))

	a.logger.InfoContext(ctx, "Query routed",
		slog.String("intent", string(answer.Intent)),
		slog.String("field", string(answer.Field)),
		slog.Int("horizon", answer.Horizon))
	return answer
}

// Overview renders the plain-text summary report of the working series.
func (a *AnalyticsService) Overview(ctx context.Context) string {
	return a.router.Overview(a.source.Series())
}

// Summary reports headline figures for the working dataset, with per-year
// totals and the year-by-month grid of student intake.
func (a *AnalyticsService) Summary(ctx context.Context) (*SummaryReport, error) {
	ds, err := a.source.Current()
	if err != nil {
		return nil, err
	}
	return &SummaryReport{
		DatasetID:  ds.ID,
		Summary:    dataprocessing.Summarize(ds.Series),
		YearTotals: dataprocessing.YearTotals(ds.Series, domain.FieldTotalStudents),
		Monthly:    dataprocessing.YearMonthMatrix(ds.Series, domain.FieldTotalStudents),
	}, nil
}

func parseField(name string) (domain.Field, error) {
	f, err := domain.ParseField(name)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return f, nil
}
