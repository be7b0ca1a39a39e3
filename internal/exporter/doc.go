// Package exporter writes the normalized time series back out as CSV.
//
// The header row uses the same labels the parser recognizes, so an export can
// be uploaded again and yields the same series:
//
//	var buf bytes.Buffer
//	_ = exporter.WriteSeries(&buf, ds.Series)
//
// CSVWriter.ExportSeries writes to a file, replacing it atomically.
package exporter
