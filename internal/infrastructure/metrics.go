package infrastructure

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

// BusinessMetrics are the instruments recorded by the HTTP middleware and
// the dataset and analytics services.
type BusinessMetrics struct {
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter

	UploadsTotal   metric.Int64Counter     // by outcome
	UploadRecords  metric.Int64Histogram   // records per accepted upload
	UploadDuration metric.Float64Histogram // decode + parse, seconds

	QueriesTotal metric.Int64Counter // by intent
}

// instruments collects the first creation error so CreateBusinessMetrics
// reads as a flat list
type instruments struct {
	meter metric.Meter
	errs  []error
}

func (in *instruments) counter(name, desc string) metric.Int64Counter {
	c, err := in.meter.Int64Counter(name, metric.WithDescription(desc))
	in.errs = append(in.errs, err)
	return c
}

func (in *instruments) upDown(name, desc string) metric.Int64UpDownCounter {
	c, err := in.meter.Int64UpDownCounter(name, metric.WithDescription(desc))
	in.errs = append(in.errs, err)
	return c
}

func (in *instruments) seconds(name, desc string) metric.Float64Histogram {
	h, err := in.meter.Float64Histogram(name, metric.WithDescription(desc), metric.WithUnit("s"))
	in.errs = append(in.errs, err)
	return h
}

func (in *instruments) sizes(name, desc string) metric.Int64Histogram {
	h, err := in.meter.Int64Histogram(name, metric.WithDescription(desc))
	in.errs = append(in.errs, err)
	return h
}

// CreateBusinessMetrics registers the application instruments on meter
func CreateBusinessMetrics(meter metric.Meter) (*BusinessMetrics, error) {
	in := &instruments{meter: meter}
	m := &BusinessMetrics{
		HTTPRequestsTotal:   in.counter("http_requests_total", "Total number of HTTP requests"),
		HTTPRequestDuration: in.seconds("http_request_duration_seconds", "HTTP request duration in seconds"),
		HTTPActiveRequests:  in.upDown("http_active_requests", "Number of in-flight HTTP requests"),

		UploadsTotal:   in.counter("uploads_total", "Total number of dataset uploads by outcome"),
		UploadRecords:  in.sizes("upload_records", "Number of monthly records accepted per upload"),
		UploadDuration: in.seconds("upload_duration_seconds", "Time to decode and parse an upload"),

		QueriesTotal: in.counter("queries_total", "Total number of routed free-text queries by intent"),
	}
	if err := errors.Join(in.errs...); err != nil {
		return nil, err
	}
	return m, nil
}

// NoopBusinessMetrics returns instruments that record nothing
func NoopBusinessMetrics() *BusinessMetrics {
	m, _ := CreateBusinessMetrics(noop.NewMeterProvider().Meter(MeterName))
	return m
}

// RecordUploadMetrics records the outcome of one dataset upload. A nil
// metrics is a no-op.
func RecordUploadMetrics(ctx context.Context, metrics *BusinessMetrics, source string, records int, duration time.Duration, err error) {
	if metrics == nil {
		return
	}

	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))

	metrics.UploadsTotal.Add(ctx, 1, attrs)
	metrics.UploadDuration.Record(ctx, duration.Seconds(), attrs)
	if err == nil {
		metrics.UploadRecords.Record(ctx, int64(records))
	}

	trace.SpanFromContext(ctx).AddEvent("dataset.upload", trace.WithAttributes(
		attribute.String("source", source),
		attribute.String("outcome", outcome),
		attribute.Int("records", records),
	))
}

// RecordQueryMetrics counts one routed query
func RecordQueryMetrics(ctx context.Context, metrics *BusinessMetrics, intent string) {
	if metrics == nil {
		return
	}
	metrics.QueriesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("intent", intent)))
}
