// Package app wires CampusPulse together and runs it.
//
// NewApplication builds every component from a *config.Config: OpenTelemetry
// providers, the dataset, analytics and health services, the WebSocket hub
// and, when enabled, the AMQP event publisher. The hub and publisher are
// registered as dataset listeners, so a successful upload reaches live
// dashboards and the message broker.
//
// # Routing
//
// /ws is registered behind RequestID and RealIP only, since the remaining
// middleware wraps the ResponseWriter and would break the upgrade. Every
// other route runs through OTel, StructuredLogger, Recoverer, security
// headers, CORS and the per-client rate limiter:
//
//	/healthz, /healthz/ready, /healthz/live
//	/api/v1/dataset          upload, records, summary, export.csv
//	/api/v1/analytics        forecast, moving-average, growth, seasonal, anomalies, correlation
//	/api/v1/query            free-text questions
//	/api/v1/client-logs      browser log forwarding
//	/metrics                 Prometheus scrape endpoint
//
// # Usage
//
//	a, err := app.NewApplication(cfg, logger)
//	if err != nil {
//	    return err
//	}
//	return a.Run(ctx)
//
// Run returns when ctx is cancelled, after draining the HTTP server and
// flushing telemetry.
package app
