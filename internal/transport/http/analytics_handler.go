package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "campuspulse/internal/errors"
	"campuspulse/internal/forecast"
	"campuspulse/internal/middleware"
	"campuspulse/internal/query"
)

// Query parameter bounds
const (
	maxWindow = 24
	maxZ      = 10.0
)

var forecastMethods = []string{
	string(forecast.MethodLinear),
	string(forecast.MethodPolynomial),
	string(forecast.MethodExponential),
	string(forecast.MethodEnsemble),
}

// AnalyticsHandler exposes forecasts and diagnostics over the working series.
// Results carry a status field instead of failing when data is insufficient.
type AnalyticsHandler struct {
	service      AnalyticsService
	params       *middleware.QueryParamValidator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(service AnalyticsService, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *AnalyticsHandler {
	return &AnalyticsHandler{
		service:      service,
		params:       middleware.NewQueryParamValidator(errorHandler),
		logger:       logger.With(slog.String("component", "analytics_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the analytics routes
func (h *AnalyticsHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/forecast/{field}", h.GetForecast)
	r.Get("/moving-average/{field}", h.GetMovingAverage)
	r.Get("/growth/{field}", h.GetGrowth)
	r.Get("/seasonal/{field}", h.GetSeasonal)
	r.Get("/anomalies/{field}", h.GetAnomalies)
	r.Get("/correlation", h.GetCorrelation)

	return r
}

// GetForecast handles GET /api/v1/analytics/forecast/{field}?horizon=&method=
func (h *AnalyticsHandler) GetForecast(w http.ResponseWriter, r *http.Request) {
	horizon, ok := h.params.ValidateInt(w, r, "horizon", 1, query.MaxHorizon, 0)
	if !ok {
		return
	}
	method, ok := h.params.ValidateEnum(w, r, "method", forecastMethods, "")
	if !ok {
		return
	}

	report, err := h.service.Forecast(r.Context(), chi.URLParam(r, "field"), method, horizon)
	h.respond(w, r, report, err)
}

// GetMovingAverage handles GET /api/v1/analytics/moving-average/{field}?window=
func (h *AnalyticsHandler) GetMovingAverage(w http.ResponseWriter, r *http.Request) {
	window, ok := h.params.ValidateInt(w, r, "window", 1, maxWindow, 0)
	if !ok {
		return
	}

	res, err := h.service.MovingAverage(r.Context(), chi.URLParam(r, "field"), window)
	h.respond(w, r, res, err)
}

// GetGrowth handles GET /api/v1/analytics/growth/{field}
func (h *AnalyticsHandler) GetGrowth(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.Growth(r.Context(), chi.URLParam(r, "field"))
	h.respond(w, r, res, err)
}

// GetSeasonal handles GET /api/v1/analytics/seasonal/{field}
func (h *AnalyticsHandler) GetSeasonal(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.Seasonal(r.Context(), chi.URLParam(r, "field"))
	h.respond(w, r, res, err)
}

// GetAnomalies handles GET /api/v1/analytics/anomalies/{field}?z=
func (h *AnalyticsHandler) GetAnomalies(w http.ResponseWriter, r *http.Request) {
	z, ok := h.params.ValidateFloat(w, r, "z", 0.1, maxZ, 0)
	if !ok {
		return
	}

	res, err := h.service.Anomalies(r.Context(), chi.URLParam(r, "field"), z)
	h.respond(w, r, res, err)
}

// GetCorrelation handles GET /api/v1/analytics/correlation?a=&b=
func (h *AnalyticsHandler) GetCorrelation(w http.ResponseWriter, r *http.Request) {
	a, b := r.URL.Query().Get("a"), r.URL.Query().Get("b")
	if a == "" || b == "" {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("a,b", "both a and b fields are required"))
		return
	}

	res, err := h.service.Correlation(r.Context(), a, b)
	h.respond(w, r, res, err)
}

func (h *AnalyticsHandler) respond(w http.ResponseWriter, r *http.Request, data interface{}, err error) {
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   data,
	})
}
