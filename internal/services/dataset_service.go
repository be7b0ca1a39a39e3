package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"campuspulse/internal/config"
	"campuspulse/internal/dataprocessing"
	"campuspulse/internal/infrastructure"
	"campuspulse/pkg/contracts/domain"
)

// DatasetListener is notified after the working dataset has been replaced.
// Errors are logged and never fail the upload.
type DatasetListener interface {
	OnDatasetReplaced(ctx context.Context, event domain.DatasetEvent) error
}

// DatasetListenerFunc adapts a function to DatasetListener
type DatasetListenerFunc func(ctx context.Context, event domain.DatasetEvent) error

// OnDatasetReplaced calls f
func (f DatasetListenerFunc) OnDatasetReplaced(ctx context.Context, event domain.DatasetEvent) error {
	return f(ctx, event)
}

// DatasetService owns the working TimeSeries. Replacement is a single atomic
// pointer swap, so readers see either the previous or the new dataset, never a
// mix. Concurrent uploads are last-write-wins.
type DatasetService struct {
	current  atomic.Pointer[domain.Dataset]
	maxBytes int64
	parser   *dataprocessing.Parser
	tracer   trace.Tracer
	metrics  *infrastructure.BusinessMetrics
	logger   *slog.Logger
	now      func() time.Time

	mu        sync.RWMutex
	listeners []DatasetListener
}

// NewDatasetService creates a dataset service. metrics may be nil.
func NewDatasetService(cfg config.UploadConfig, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *DatasetService {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "dataset_service"))

	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = config.Default().Upload.MaxBytes
	}

	return &DatasetService{
		maxBytes: maxBytes,
		parser:   dataprocessing.NewParser(logger),
		tracer:   otel.Tracer(infrastructure.MeterName),
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// AddListener registers a listener for dataset replacement events
func (s *DatasetService) AddListener(l DatasetListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// MaxBytes returns the upload size limit
func (s *DatasetService) MaxBytes() int64 {
	return s.maxBytes
}

// Upload reads a spreadsheet body, decodes and parses it, and on success
// replaces the working dataset. On failure the previous dataset stays in place.
func (s *DatasetService) Upload(ctx context.Context, name string, r io.Reader) (*domain.Dataset, error) {
	ctx, span := s.tracer.Start(ctx, "dataset.upload", trace.WithAttributes(attribute.String("source", name)))
	defer span.End()
	start := time.Now()

	ds, err := s.upload(ctx, name, r)
	s.finish(ctx, name, ds, start, err)
	return ds, err
}

func (s *DatasetService) upload(ctx context.Context, name string, r io.Reader) (*domain.Dataset, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes allowed", ErrUploadTooLarge, s.maxBytes)
	}
	sheets, err := dataprocessing.DecodeWorkbook(name, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return s.commit(ctx, name, sheets)
}

// LoadSheets parses already materialized sheets, such as those fetched from
// Google Sheets, and replaces the working dataset on success.
func (s *DatasetService) LoadSheets(ctx context.Context, source string, sheets []dataprocessing.Sheet) (*domain.Dataset, error) {
	ctx, span := s.tracer.Start(ctx, "dataset.upload", trace.WithAttributes(attribute.String("source", source)))
	defer span.End()
	start := time.Now()

	ds, err := s.commit(ctx, source, sheets)
	s.finish(ctx, source, ds, start, err)
	return ds, err
}

func (s *DatasetService) commit(ctx context.Context, source string, sheets []dataprocessing.Sheet) (*domain.Dataset, error) {
	_, span := s.tracer.Start(ctx, "dataset.parse", trace.WithAttributes(attribute.Int("sheets", len(sheets))))
	res, err := s.parser.Parse(sheets)
	span.End()
	if err != nil {
		return nil, err
	}

	ds := &domain.Dataset{
		ID:         uuid.New().String(),
		Source:     source,
		Sheet:      res.Sheet,
		UploadedAt: s.now().UTC(),
		Series:     res.Series,
	}
	s.current.Store(ds)
	s.notify(ctx, ds)
	return ds, nil
}

func (s *DatasetService) finish(ctx context.Context, source string, ds *domain.Dataset, start time.Time, err error) {
	records := 0
	if ds != nil {
		records = ds.Series.Len()
	}
	infrastructure.RecordUploadMetrics(ctx, s.metrics, source, records, time.Since(start), err)

	if err != nil {
		infrastructure.RecordError(ctx, err)
		s.logger.WarnContext(ctx, "Dataset upload failed",
			slog.String("source", source),
			slog.String("error", err.Error()))
		return
	}

	s.logger.InfoContext(ctx, "Dataset replaced",
		slog.String("dataset_id", ds.ID),
		slog.String("source", source),
		slog.String("sheet", ds.Sheet),
		slog.Int("records", records),
		slog.Duration("duration", time.Since(start)))
}

func (s *DatasetService) notify(ctx context.Context, ds *domain.Dataset) {
	s.mu.RLock()
	listeners := append([]DatasetListener(nil), s.listeners...)
	s.mu.RUnlock()

	event := domain.NewDatasetEvent(ds)
	for _, l := range listeners {
		if err := l.OnDatasetReplaced(ctx, event); err != nil {
			s.logger.WarnContext(ctx, "Dataset listener failed",
				slog.String("dataset_id", ds.ID),
				slog.String("error", err.Error()))
		}
	}
}

// Current returns the working dataset or ErrNoDataset
func (s *DatasetService) Current() (*domain.Dataset, error) {
	ds := s.current.Load()
	if ds == nil {
		return nil, ErrNoDataset
	}
	return ds, nil
}

// Series returns the working series, or nil before the first upload
func (s *DatasetService) Series() domain.TimeSeries {
	if ds := s.current.Load(); ds != nil {
		return ds.Series
	}
	return nil
}
