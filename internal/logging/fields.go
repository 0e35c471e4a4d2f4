package logging

import (
	"context"
	"log/slog"

	"narrator/internal/services"
)

// Structured logging keys shared across packages.
const (
	FieldComponent = "component"
	FieldEntry     = "entry"
	FieldStage     = "stage"
	FieldRunID     = "run_id"
	FieldEventType = "event_type"
	FieldErrorHint = "error_hint"
	FieldImpact    = "impact"
	FieldSegment   = "segment"
	FieldProgress  = "progress"
)

// WithContext returns logger extended with the entry, stage and run id
// carried by ctx.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	scope := services.ScopeFrom(ctx)
	var args []any
	for _, f := range []struct{ key, value string }{
		{FieldEntry, scope.Entry},
		{FieldStage, scope.Stage},
		{FieldRunID, scope.RunID},
	} {
		if f.value != "" {
			args = append(args, slog.String(f.key, f.value))
		}
	}
	if len(args) == 0 {
		return logger
	}
	return logger.With(args...)
}

// NewComponentLogger tags logger with a component name. A nil logger yields
// a no-op logger.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(slog.String(FieldComponent, component))
}
