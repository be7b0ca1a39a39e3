package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"campuspulse/internal/dataprocessing"
	apierrors "campuspulse/internal/errors"
	"campuspulse/internal/exporter"
	"campuspulse/internal/services"
	"campuspulse/pkg/contracts/domain"
)

// multipartOverhead is the allowance for multipart boundaries and part headers
// on top of the file size limit.
const multipartOverhead = 64 << 10

// uploadFormField is the multipart field carrying the spreadsheet.
const uploadFormField = "file"

// UploadResponse describes the dataset produced by an upload
type UploadResponse struct {
	Dataset *domain.Dataset        `json:"dataset"`
	Summary dataprocessing.Summary `json:"summary"`
}

// RecordsResponse lists the working series
type RecordsResponse struct {
	Dataset *domain.Dataset   `json:"dataset"`
	Records domain.TimeSeries `json:"records"`
	Count   int               `json:"count"`
}

// DatasetHandler handles dataset upload, listing and export
type DatasetHandler struct {
	datasets     DatasetService
	analytics    AnalyticsService
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDatasetHandler creates a new dataset handler
func NewDatasetHandler(datasets DatasetService, analytics AnalyticsService, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DatasetHandler {
	return &DatasetHandler{
		datasets:     datasets,
		analytics:    analytics,
		logger:       logger.With(slog.String("component", "dataset_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the dataset routes
func (h *DatasetHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Upload)
	r.With(render.SetContentType(render.ContentTypeJSON)).Get("/", h.GetRecords)
	r.With(render.SetContentType(render.ContentTypeJSON)).Get("/summary", h.GetSummary)
	r.Get("/export.csv", h.ExportCSV)

	return r
}

// Upload handles POST /api/v1/dataset with a multipart "file" field
func (h *DatasetHandler) Upload(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())
	limit := h.datasets.MaxBytes()
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)

	file, header, err := r.FormFile(uploadFormField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			h.errorHandler.HandleError(w, r, fmt.Errorf("%w: %d bytes allowed", services.ErrUploadTooLarge, limit))
		case errors.Is(err, http.ErrMissingFile):
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation(uploadFormField, "a spreadsheet file is required"))
		default:
			h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		}
		return
	}
	defer file.Close()

	h.logger.InfoContext(r.Context(), "dataset upload received",
		slog.String("request_id", reqID),
		slog.String("filename", header.Filename),
		slog.Int64("size", header.Size),
	)

	ds, err := h.datasets.Upload(r.Context(), header.Filename, file)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data": UploadResponse{
			Dataset: ds,
			Summary: dataprocessing.Summarize(ds.Series),
		},
	})
}

// GetRecords handles GET /api/v1/dataset
func (h *DatasetHandler) GetRecords(w http.ResponseWriter, r *http.Request) {
	ds, err := h.datasets.Current()
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	records := ds.Series
	if records == nil {
		records = domain.TimeSeries{}
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data": RecordsResponse{
			Dataset: ds,
			Records: records,
			Count:   records.Len(),
		},
	})
}

// GetSummary handles GET /api/v1/dataset/summary
func (h *DatasetHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	report, err := h.analytics.Summary(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   report,
	})
}

// ExportCSV handles GET /api/v1/dataset/export.csv
func (h *DatasetHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	ds, err := h.datasets.Current()
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="campuspulse-%s.csv"`, ds.ID))
	w.WriteHeader(http.StatusOK)

	if err := exporter.WriteSeries(w, ds.Series); err != nil {
		// Headers are already sent; the truncated body is all the client gets.
		h.logger.ErrorContext(r.Context(), "failed to stream export",
			slog.String("dataset_id", ds.ID),
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
	}
}
