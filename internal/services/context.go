package services

import "context"

// Scope identifies the unit of work a context belongs to. Zero fields are
// omitted from log output.
type Scope struct {
	Entry string
	Stage string
	RunID string
}

type scopeKey struct{}

// ScopeFrom returns the scope carried by ctx, or the zero Scope.
func ScopeFrom(ctx context.Context) Scope {
	if ctx == nil {
		return Scope{}
	}
	s, _ := ctx.Value(scopeKey{}).(Scope)
	return s
}

func withScope(ctx context.Context, mutate func(*Scope)) context.Context {
	s := ScopeFrom(ctx)
	before := s
	mutate(&s)
	if s == before {
		return ctx
	}
	return context.WithValue(ctx, scopeKey{}, s)
}

// WithEntryKey tags ctx with the playlist entry being worked on.
func WithEntryKey(ctx context.Context, key string) context.Context {
	if key == "" {
		return ctx
	}
	return withScope(ctx, func(s *Scope) { s.Entry = key })
}

func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return withScope(ctx, func(s *Scope) { s.Stage = stage })
}

// WithRunID tags ctx with the identifier of a single generation run so its
// log lines can be grouped.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return withScope(ctx, func(s *Scope) { s.RunID = id })
}
