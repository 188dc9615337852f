package logging

import (
	"context"
	"log/slog"
	"slices"
	"time"
)

// Typed attribute constructors, so callers import one logging package.

func Int(key string, v int) slog.Attr { return slog.Int(key, v) }
func Int64(key string, v int64) slog.Attr { return slog.Int64(key, v) }
func String(key, v string) slog.Attr { return slog.String(key, v) }
func Duration(key string, v time.Duration) slog.Attr { return slog.Duration(key, v) }

// Error attaches err under the "error" key.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

func attrsToArgs(attrs []slog.Attr) []any {
	args := make([]any, len(attrs))
	for i, a := range attrs {
		args[i] = a
	}
	return args
}

// NewNop returns a logger that discards everything.
func NewNop() *slog.Logger {
	return slog.New(NoopHandler{})
}

// NewComponentLogger tags logger with a component name. A nil logger yields
// a no-op logger.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(String(FieldComponent, component))
}

const defaultHint = "check logs for details"

// WarnWithContext logs a warning tagged with an event type. A generic hint and
// impact are added when the caller did not supply them.
func WarnWithContext(logger *slog.Logger, msg, eventType string, attrs ...slog.Attr) {
	logTagged(logger, slog.LevelWarn, msg, eventType, attrs, "conversion completed with warnings")
}

// ErrorWithContext logs an error tagged with an event type and a hint.
func ErrorWithContext(logger *slog.Logger, msg, eventType string, attrs ...slog.Attr) {
	logTagged(logger, slog.LevelError, msg, eventType, attrs, "")
}

func logTagged(logger *slog.Logger, level slog.Level, msg, eventType string, attrs []slog.Attr, impact string) {
	if logger == nil {
		return
	}
	has := func(key string) bool {
		return slices.ContainsFunc(attrs, func(a slog.Attr) bool { return a.Key == key })
	}
	attrs = append(attrs, String(FieldEventType, eventType))
	if !has(FieldErrorHint) {
		attrs = append(attrs, String(FieldErrorHint, defaultHint))
	}
	if impact != "" && !has(FieldImpact) {
		attrs = append(attrs, String(FieldImpact, impact))
	}
	logger.LogAttrs(context.Background(), level, msg, attrs...)
}

// NoopHandler drops every record.
type NoopHandler struct{}

func (NoopHandler) Enabled(context.Context, slog.Level) bool { return false }
func (NoopHandler) Handle(context.Context, slog.Record) error { return nil }
func (h NoopHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h NoopHandler) WithGroup(string) slog.Handler { return h }
