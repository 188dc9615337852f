package logging

import (
	"context"
	"log/slog"
	"strings"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID identifies the batch run a log line belongs to.
	FieldRunID = "run_id"
	// FieldChartID identifies the chart being converted (e.g. 0781_mxm).
	FieldChartID = "chart_id"
	// FieldEventType is the machine readable name of what happened.
	FieldEventType = "event_type"
	// FieldErrorKind carries the error classification (format, internal, io).
	FieldErrorKind = "error_kind"
	// FieldErrorHint tells the operator what to look at next.
	FieldErrorHint = "error_hint"
	// FieldImpact describes what the failure means for the output.
	FieldImpact = "impact"
)

type contextKey int

const (
	runIDKey contextKey = iota
	chartIDKey
)

// WithRunID returns a context carrying the batch run id.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey, strings.TrimSpace(id))
}

// RunIDFromContext returns the batch run id stored by WithRunID.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(runIDKey).(string)
	return id, ok && id != ""
}

// WithChartID returns a context carrying the id of the chart being converted.
func WithChartID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, chartIDKey, strings.TrimSpace(id))
}

// ChartIDFromContext returns the chart id stored by WithChartID.
func ChartIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(chartIDKey).(string)
	return id, ok && id != ""
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 2)
	if id, ok := RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if id, ok := ChartIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldChartID, id))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
