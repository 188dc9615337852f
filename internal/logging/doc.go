// Package logging assembles the slog loggers used by the converter and its
// batch runner.
//
// It owns the console and JSON handlers, level and output plumbing, and the
// context helpers that tag log lines with the batch run id and the chart
// being converted. A no-op logger is provided for tests and for library
// callers that do not pass one in.
//
// Per-run log files are written through RunLog and pruned with
// PruneRunLogs.
package logging
