package http

import (
	"context"
	"io"

	"campuspulse/internal/diagnostics"
	"campuspulse/internal/forecast"
	"campuspulse/internal/query"
	"campuspulse/internal/services"
	"campuspulse/pkg/contracts/domain"
)

// DatasetService defines the dataset operations the handlers need
type DatasetService interface {
	Upload(ctx context.Context, name string, r io.Reader) (*domain.Dataset, error)
	Current() (*domain.Dataset, error)
	MaxBytes() int64
}

// AnalyticsService defines the analytics operations the handlers need
type AnalyticsService interface {
	Forecast(ctx context.Context, field, method string, horizon int) (*services.ForecastReport, error)
	MovingAverage(ctx context.Context, field string, window int) (forecast.MovingAverageResult, error)
	Growth(ctx context.Context, field string) (diagnostics.Growth, error)
	Seasonal(ctx context.Context, field string) (diagnostics.Seasonal, error)
	Anomalies(ctx context.Context, field string, z float64) (diagnostics.Anomalies, error)
	Correlation(ctx context.Context, a, b string) (diagnostics.Correlation, error)
	Query(ctx context.Context, text string) query.Answer
	Summary(ctx context.Context) (*services.SummaryReport, error)
}

// HealthService defines the health checks exposed over HTTP
type HealthService interface {
	HealthCheck(ctx context.Context) services.HealthStatus
	ReadinessCheck(ctx context.Context) services.HealthStatus
	LivenessCheck(ctx context.Context) services.HealthStatus
	Version() map[string]interface{}
}
