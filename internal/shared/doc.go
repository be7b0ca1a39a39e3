// Package shared holds helpers used by more than one layer of campuspulse.
//
// The testutil subpackage provides a buffered slog handler so tests can
// assert on structured log output:
//
//	logger, logs := testutil.NewTestLogger(t)
//	svc := services.NewDatasetService(cfg, nil, logger)
//	...
//	testutil.AssertLogContains(t, logs, slog.LevelInfo, "dataset replaced")
//
// Nothing here may import another internal package.
package shared
