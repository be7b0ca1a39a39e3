package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"runtime/debug"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"campuspulse/internal/dataprocessing"
	"campuspulse/internal/services"
	"campuspulse/pkg/contracts/domain"
)

// Common error types following RFC 7807
const (
	TypeValidation       = "/errors/validation"
	TypeNotFound         = "/errors/not-found"
	TypeRateLimit        = "/errors/rate-limit"
	TypeInternal         = "/errors/internal"
	TypeServiceDown      = "/errors/service-unavailable"
	TypeTimeout          = "/errors/timeout"
	TypePayloadTooLarge  = "/errors/payload-too-large"
	TypeMethodNotAllowed = "/errors/method-not-allowed"
	TypeUpstream         = "/errors/upstream"
)

// Domain-specific error types
const (
	TypeNoDataset       = "/errors/dataset/not-loaded"
	TypeDatasetDecode   = "/errors/dataset/decode"
	TypeDatasetNoData   = "/errors/dataset/no-data"
	TypeUnknownField    = "/errors/analytics/unknown-field"
	TypeUnknownMethod   = "/errors/analytics/unknown-method"
	TypeInvalidArgument = "/errors/analytics/invalid-argument"
)

// ErrorHandler provides centralized error handling
type ErrorHandler struct {
	logger       *slog.Logger
	includeStack bool
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *slog.Logger, includeStack bool) *ErrorHandler {
	return &ErrorHandler{
		logger:       logger.With(slog.String("component", "error_handler")),
		includeStack: includeStack,
	}
}

// HandleError converts any error to RFC 7807 format and responds
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	reqID := middleware.GetReqID(r.Context())
	problem := h.ErrorToProblem(err, r)

	level := slog.LevelWarn
	if problem.Status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.Log(r.Context(), level, "request failed",
		slog.String("error", err.Error()),
		slog.Int("status", problem.Status),
		slog.String("request_id", reqID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)

	problem.WithExtension("trace_id", reqID)
	if h.includeStack && problem.Status >= http.StatusInternalServerError {
		problem.WithExtension("stack", getStackTrace())
	}

	render.Render(w, r, problem)
}

// ErrorToProblem converts an error to RFC 7807 Problem Details. Service and
// ingestion errors are matched with errors.Is/As so wrapping is preserved.
func (h *ErrorHandler) ErrorToProblem(err error, r *http.Request) *ProblemDetails {
	path := r.URL.Path

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewProblemDetails(
			http.StatusGatewayTimeout,
			TypeTimeout,
			"Request Timeout",
			"The request took too long to process and was cancelled",
			path,
		)
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return h.apiErrorToProblem(apiErr, r)
	}

	var ingestErr *dataprocessing.IngestError
	if errors.As(err, &ingestErr) {
		return ingestProblem(ingestErr, path)
	}

	switch {
	case errors.Is(err, services.ErrNoDataset):
		return NewProblemDetails(
			http.StatusNotFound,
			TypeNoDataset,
			"No Dataset Loaded",
			"Upload a spreadsheet before requesting this resource",
			path,
		).WithExtension("error_code", CodeNoDataset)

	case errors.Is(err, services.ErrUploadTooLarge):
		return NewProblemDetails(
			http.StatusRequestEntityTooLarge,
			TypePayloadTooLarge,
			"Payload Too Large",
			"The uploaded file exceeds the maximum allowed size",
			path,
		).WithExtension("error_code", CodePayloadTooLarge)

	case errors.Is(err, services.ErrUnknownField):
		return badRequest(TypeUnknownField, "Unknown Field", err, path).
			WithExtension("allowed", fieldNames())

	case errors.Is(err, services.ErrUnknownMethod):
		return badRequest(TypeUnknownMethod, "Unknown Forecast Method", err, path)

	case errors.Is(err, services.ErrInvalidInput):
		return badRequest(TypeInvalidArgument, "Invalid Argument", err, path)
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErrorToProblem(appErr, path)
	}

	return NewProblemDetails(
		http.StatusInternalServerError,
		TypeInternal,
		"Internal Server Error",
		"An unexpected error occurred while processing your request",
		path,
	)
}

func badRequest(problemType, title string, err error, path string) *ProblemDetails {
	return NewProblemDetails(http.StatusBadRequest, problemType, title, err.Error(), path).
		WithExtension("error_code", CodeInvalidRequest)
}

func fieldNames() []string {
	names := make([]string, len(domain.Fields))
	for i, f := range domain.Fields {
		names[i] = string(f)
	}
	return names
}

func ingestProblem(e *dataprocessing.IngestError, path string) *ProblemDetails {
	if e.Kind == dataprocessing.KindDecode {
		return NewProblemDetails(
			http.StatusUnprocessableEntity,
			TypeDatasetDecode,
			"Spreadsheet Could Not Be Decoded",
			e.Error(),
			path,
		).WithExtension("error_code", CodeDecode)
	}
	return NewProblemDetails(
		http.StatusUnprocessableEntity,
		TypeDatasetNoData,
		"No Data Found",
		"No sheet contained a header row with a Total Students column and at least one usable record",
		path,
	).WithExtension("error_code", CodeNoData).
		WithExtension("sheets", e.Sheets)
}

func appErrorToProblem(e *AppError, path string) *ProblemDetails {
	status, problemType := http.StatusInternalServerError, TypeInternal
	switch e.Type {
	case ErrTypeValidation:
		status, problemType = http.StatusBadRequest, TypeValidation
	case ErrTypeNotFound:
		status, problemType = http.StatusNotFound, TypeNotFound
	case ErrTypeNetwork, ErrTypeUpstream:
		status, problemType = http.StatusBadGateway, TypeUpstream
	}

	detail := e.Message
	if status >= http.StatusInternalServerError && status != http.StatusBadGateway {
		detail = "An unexpected error occurred while processing your request"
	}
	problem := NewProblemDetails(status, problemType, http.StatusText(status), detail, path).
		WithExtension("error_code", string(e.Type))
	for k, v := range e.Context {
		problem.WithExtension(k, v)
	}
	return problem
}

// apiErrorToProblem converts APIError to ProblemDetails
func (h *ErrorHandler) apiErrorToProblem(apiErr *APIError, r *http.Request) *ProblemDetails {
	problemType := TypeInternal
	switch apiErr.ErrorCode {
	case CodeValidationFailed, CodeInvalidRequest:
		problemType = TypeValidation
	case CodeNotFound:
		problemType = TypeNotFound
	case CodeNoDataset:
		problemType = TypeNoDataset
	case CodePayloadTooLarge:
		problemType = TypePayloadTooLarge
	case CodeRateLimited:
		problemType = TypeRateLimit
	case CodeUnavailable:
		problemType = TypeServiceDown
	}

	problem := NewProblemDetails(
		apiErr.StatusCode,
		problemType,
		http.StatusText(apiErr.StatusCode),
		apiErr.Message,
		r.URL.Path,
	).WithExtension("error_code", apiErr.ErrorCode)

	if apiErr.Details != nil {
		problem.WithExtension("details", apiErr.Details)
	}
	return problem
}

// HandlePanic recovers from panics and returns RFC 7807 error
func (h *ErrorHandler) HandlePanic(w http.ResponseWriter, r *http.Request, recovered interface{}) {
	reqID := middleware.GetReqID(r.Context())

	h.logger.ErrorContext(r.Context(), "panic recovered",
		slog.Any("panic", recovered),
		slog.String("request_id", reqID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("stack", string(debug.Stack())),
	)

	problem := NewProblemDetails(
		http.StatusInternalServerError,
		TypeInternal,
		"Internal Server Error",
		"An unexpected error occurred",
		r.URL.Path,
	).WithExtension("trace_id", reqID)

	if h.includeStack {
		problem.WithExtension("panic", fmt.Sprintf("%v", recovered))
		problem.WithExtension("stack", getStackTrace())
	}

	render.Render(w, r, problem)
}

// NotFound returns a standard 404 error
func (h *ErrorHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	problem := NewProblemDetails(
		http.StatusNotFound,
		TypeNotFound,
		"Not Found",
		"The requested resource was not found",
		r.URL.Path,
	).WithExtension("trace_id", middleware.GetReqID(r.Context()))

	render.Render(w, r, problem)
}

// MethodNotAllowed returns a standard 405 error
func (h *ErrorHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	problem := NewProblemDetails(
		http.StatusMethodNotAllowed,
		TypeMethodNotAllowed,
		"Method Not Allowed",
		fmt.Sprintf("Method %s is not allowed for this endpoint", r.Method),
		r.URL.Path,
	).WithExtension("trace_id", middleware.GetReqID(r.Context()))

	render.Render(w, r, problem)
}

// getStackTrace returns the current stack trace
func getStackTrace() string {
	buf := make([]byte, 1024*8)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}
