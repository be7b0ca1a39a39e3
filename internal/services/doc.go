// Package services implements the business logic layer of CampusPulse. It sits
// between the HTTP handlers and the pure analytics packages.
//
// # Available Services
//
//	- DatasetService: owns the working TimeSeries, replaced atomically per upload
//	- AnalyticsService: forecasts, diagnostics, summaries and free-text queries
//	- HealthService: liveness, readiness and version information
//
// # Dataset Lifecycle
//
// An upload is read once in full, decoded and parsed. Only a successful parse
// swaps the working dataset; a failed one leaves the previous dataset in place.
// Registered DatasetListeners (the websocket hub and the AMQP publisher) are
// then told about the replacement:
//
//	datasets := services.NewDatasetService(cfg.Upload, metrics, logger)
//	datasets.AddListener(hub)
//	ds, err := datasets.Upload(ctx, "records.xlsx", file)
//
// # Error Handling
//
// Ingestion failures surface as *dataprocessing.IngestError. Service sentinels
// (ErrNoDataset, ErrUnknownField, ErrUploadTooLarge, ...) are wrapped with
// context and mapped to HTTP statuses by the errors package. Analytics on an
// empty or short series are not errors; their results carry a Status.
package services
