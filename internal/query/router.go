package query

import (
	"log/slog"

	"campuspulse/internal/diagnostics"
	"campuspulse/internal/forecast"
	"campuspulse/pkg/contracts/domain"
)

// Answer is a routed question with its plain-text report.
type Answer struct {
	Request
	Report string `json:"report"`
}

// Options tunes the reports a Router renders. Zero fields keep the package defaults.
type Options struct {
	Forecast       forecast.Options
	ZThreshold     float64
	Window         int
	DefaultHorizon int // used when the question names no horizon
}

func (o Options) withDefaults() Options {
	if o.ZThreshold <= 0 {
		o.ZThreshold = diagnostics.DefaultZThreshold
	}
	if o.Window < 1 {
		o.Window = forecast.DefaultWindow
	}
	if o.DefaultHorizon < 1 || o.DefaultHorizon > MaxHorizon {
		o.DefaultHorizon = DefaultHorizon
	}
	return o
}

// Router answers free-text questions against a TimeSeries.
type Router struct {
	logger *slog.Logger
	opts   Options
}

// NewRouter creates a router; a nil logger falls back to the default.
func NewRouter(logger *slog.Logger, opts Options) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		logger: logger.With(slog.String("component", "query_router")),
		opts:   opts.withDefaults(),
	}
}

// Route classifies text and renders the matching report with default options.
func Route(text string, ts domain.TimeSeries) string {
	opts := Options{}.withDefaults()
	return answer(classify(text, opts.DefaultHorizon), ts, opts).Report
}

// Overview renders the dataset summary report with default options.
func Overview(ts domain.TimeSeries) string {
	return summaryReport(ts, forecast.DefaultWindow)
}

// Answer classifies text and renders the matching report with its request.
func (r *Router) Answer(text string, ts domain.TimeSeries) Answer {
	req := classify(text, r.opts.DefaultHorizon)
	r.logger.Debug("query classified",
		slog.String("intent", string(req.Intent)),
		slog.String("field", string(req.Field)),
		slog.Int("horizon", req.Horizon),
		slog.Int("records", len(ts)))
	return answer(req, ts, r.opts)
}

// Overview renders the dataset summary report.
func (r *Router) Overview(ts domain.TimeSeries) string {
	return summaryReport(ts, r.opts.Window)
}

func answer(req Request, ts domain.TimeSeries, opts Options) Answer {
	a := Answer{Request: req}
	switch req.Intent {
	case IntentPrediction:
		a.Report = predictionReport(ts, req.Field, req.Horizon, opts.Forecast)
	case IntentGrowth:
		a.Report = growthReport(ts, req.Field)
	case IntentAnomaly:
		a.Report = anomalyReport(ts, req.Field, opts.ZThreshold)
	case IntentSeasonal:
		a.Report = seasonalReport(ts, req.Field)
	case IntentCorrelation:
		a.Report = correlationReport(ts, req.Pair)
	case IntentSummary:
		a.Report = summaryReport(ts, opts.Window)
	default:
		a.Report = capabilities
	}
	return a
}
