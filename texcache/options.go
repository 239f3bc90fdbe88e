package texcache

import (
	"context"
	"log/slog"
)

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the cache logger. A nil logger disables logging.
func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) { c.SetLogger(l) }
}

// nopHandler silently discards all log records.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }
