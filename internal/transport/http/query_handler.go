package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "campuspulse/internal/errors"
	"campuspulse/internal/middleware"
)

// QueryRequest is a free-text question
type QueryRequest struct {
	Text string `json:"text" validate:"required,max=500"`
}

// QueryHandler answers free-text questions about the working series
type QueryHandler struct {
	service      AnalyticsService
	validator    *middleware.Validator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewQueryHandler creates a new query handler
func NewQueryHandler(service AnalyticsService, validator *middleware.Validator, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *QueryHandler {
	return &QueryHandler{
		service:      service,
		validator:    validator,
		logger:       logger.With(slog.String("component", "query_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the query routes
func (h *QueryHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Use(middleware.ContentTypeValidator(h.errorHandler, "application/json"))
	r.Post("/", h.Ask)

	return r
}

// Ask handles POST /api/v1/query
func (h *QueryHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := h.validator.DecodeJSON(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	answer := h.service.Query(r.Context(), req.Text)

	h.logger.DebugContext(r.Context(), "query answered",
		slog.String("intent", string(answer.Intent)),
		slog.String("request_id", middleware.GetRequestID(r.Context())),
	)

	render.JSON(w, r, answer)
}
