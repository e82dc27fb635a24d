// Package reqctx carries the three request-scoped identifiers (owner, tenant,
// user) on a context.Context. The ingress controller sets the owner from the
// URL, the platform adapter sets tenant and user from the verified payload,
// and everything running inside that request's task can read them without
// explicit parameter threading. Values live on the context, never in process
// globals, so concurrent requests cannot observe each other.
package reqctx

import "context"

type ctxKey int

const (
	ownerKey ctxKey = iota
	tenantKey
	userKey
)

// WithOwner returns a context carrying the owner id (from the URL path or
// static configuration).
func WithOwner(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ownerKey, id)
}

// WithTenant returns a context carrying the authoritative tenant id extracted
// from the verified payload.
func WithTenant(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, tenantKey, id)
}

// WithUser returns a context carrying the resolved user id (message sender or
// status recipient). Absent for system-level error webhooks.
func WithUser(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userKey, id)
}

// Owner returns the owner id, or "" if unset.
func Owner(ctx context.Context) string { return value(ctx, ownerKey) }

// Tenant returns the tenant id, or "" if unset.
func Tenant(ctx context.Context) string { return value(ctx, tenantKey) }

// User returns the user id, or "" if unset.
func User(ctx context.Context) string { return value(ctx, userKey) }

func value(ctx context.Context, key ctxKey) string {
	if ctx == nil {
		return ""
	}
	if s, ok := ctx.Value(key).(string); ok {
		return s
	}
	return ""
}
