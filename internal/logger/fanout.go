package logger

import (
	"context"
	"errors"
	"log/slog"
)

// fanoutHandler delivers each record to every sink. It exists so stdout JSON
// logs and the Better Stack shipper can share one slog.Logger; nil sinks are
// tolerated so callers can pass optionally-configured handlers directly.
type fanoutHandler struct {
	sinks []slog.Handler
}

func newFanoutHandler(sinks ...slog.Handler) *fanoutHandler {
	return &fanoutHandler{sinks: sinks}
}

func (f *fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, s := range f.sinks {
		if s != nil && s.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle clones the record per sink, as slog.Handler requires, and keeps
// delivering after a sink error so one failing shipper cannot silence the rest.
func (f *fanoutHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, s := range f.sinks {
		if s == nil || !s.Enabled(ctx, r.Level) {
			continue
		}
		if err := s.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return f.derive(func(s slog.Handler) slog.Handler { return s.WithAttrs(attrs) })
}

func (f *fanoutHandler) WithGroup(name string) slog.Handler {
	return f.derive(func(s slog.Handler) slog.Handler { return s.WithGroup(name) })
}

func (f *fanoutHandler) derive(apply func(slog.Handler) slog.Handler) *fanoutHandler {
	next := make([]slog.Handler, len(f.sinks))
	for i, s := range f.sinks {
		if s != nil {
			next[i] = apply(s)
		}
	}
	return &fanoutHandler{sinks: next}
}
