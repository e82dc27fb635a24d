package reqctx

import (
	"context"
	"log/slog"
)

// LogHandler wraps a slog.Handler and stamps any owner/tenant/user ids found
// on the record's context onto the record. This is how the ids reach every
// downstream log line without being threaded through call signatures.
type LogHandler struct {
	inner slog.Handler
}

// NewLogHandler wraps inner with request-id enrichment.
func NewLogHandler(inner slog.Handler) *LogHandler {
	return &LogHandler{inner: inner}
}

func (h *LogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *LogHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := Owner(ctx); id != "" {
		r.AddAttrs(slog.String("owner_id", id))
	}
	if id := Tenant(ctx); id != "" {
		r.AddAttrs(slog.String("tenant_id", id))
	}
	if id := User(ctx); id != "" {
		r.AddAttrs(slog.String("user_id", id))
	}
	return h.inner.Handle(ctx, r)
}

func (h *LogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &LogHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *LogHandler) WithGroup(name string) slog.Handler {
	return &LogHandler{inner: h.inner.WithGroup(name)}
}
