// Package http implements the HTTP handlers of the campuspulse API.
// Handlers are a thin layer between chi routing and the service layer: they
// parse and validate the request, call a service, and render the result.
//
// # Routes
//
// Each handler exposes a Routes method that returns a chi.Router mounted
// under /api/v1 by the application:
//
//	/dataset      DatasetHandler    upload, records, summary, CSV export
//	/analytics    AnalyticsHandler  forecasts and diagnostics per field
//	/query        QueryHandler      free-text questions
//	/client-logs  ClientLogHandler  browser log forwarding
//
// Health endpoints are registered individually under /healthz.
//
// # Responses
//
// Successful responses use the envelope
//
//	{"status": "success", "data": ...}
//
// except /query, which returns the routed answer directly. Analytics that
// cannot be computed on the current data answer 200 with a status of
// insufficient_data or degenerate rather than an error.
//
// # Errors
//
// All errors are written by errors.ErrorHandler as RFC 7807 problem details,
// with an error_code extension for the domain failures clients branch on:
//
//	{
//	    "type": "/errors/dataset/not-loaded",
//	    "title": "No Dataset Loaded",
//	    "status": 404,
//	    "error_code": "NO_DATASET",
//	    "instance": "/api/v1/dataset/summary"
//	}
//
// # Testing
//
// Handlers are tested with httptest against testify mocks of the service
// interfaces in interfaces.go, and against the real services where the
// end-to-end upload path matters.
package http
