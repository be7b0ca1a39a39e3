// Package diagnostics describes the shape of a monthly field series: period
// growth, year-agnostic seasonality, pairwise correlation and z-score anomalies.
//
// Like the forecast package, every function is pure and returns a result with a
// Status rather than an error when the series is too short or degenerate.
package diagnostics
