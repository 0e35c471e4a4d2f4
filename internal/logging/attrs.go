package logging

import (
	"context"
	"log/slog"
	"time"
)

type Attr = slog.Attr

func Bool(key string, value bool) Attr              { return slog.Bool(key, value) }
func Duration(key string, value time.Duration) Attr { return slog.Duration(key, value) }
func Float64(key string, value float64) Attr        { return slog.Float64(key, value) }
func Int(key string, value int) Attr                { return slog.Int(key, value) }
func Int64(key string, value int64) Attr            { return slog.Int64(key, value) }
func Uint64(key string, value uint64) Attr          { return slog.Uint64(key, value) }
func String(key string, value string) Attr          { return slog.String(key, value) }

// Error renders err under the "error" key; nil becomes "<nil>" so the key
// is never missing from a failure line.
func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

// WarnWithContext logs a warning with event_type, error_hint and impact
// fields, filling in generic values for any the caller did not pass.
func WarnWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	emit(logger, slog.LevelWarn, msg, attrs, []Attr{
		String(FieldEventType, eventType),
		String(FieldErrorHint, "check logs for details"),
		String(FieldImpact, "operation continued with warnings"),
	})
}

// ErrorWithContext logs an error with event_type and error_hint fields.
func ErrorWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	emit(logger, slog.LevelError, msg, attrs, []Attr{
		String(FieldEventType, eventType),
		String(FieldErrorHint, "check logs for details"),
	})
}

func emit(logger *slog.Logger, level slog.Level, msg string, attrs, defaults []Attr) {
	if logger == nil {
		return
	}
	have := make(map[string]bool, len(attrs))
	for _, a := range attrs {
		have[a.Key] = true
	}
	for _, d := range defaults {
		if !have[d.Key] {
			attrs = append(attrs, d)
		}
	}
	logger.LogAttrs(context.Background(), level, msg, attrs...)
}

func NewNop() *slog.Logger {
	return slog.New(NoopHandler{})
}

// NoopHandler discards all log output.
type NoopHandler struct{}

func (NoopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (NoopHandler) Handle(context.Context, slog.Record) error { return nil }
func (NoopHandler) WithAttrs([]slog.Attr) slog.Handler        { return NoopHandler{} }
func (NoopHandler) WithGroup(string) slog.Handler             { return NoopHandler{} }
