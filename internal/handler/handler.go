// Package handler defines the application-facing hook surface. A Prototype
// holds the shared dependencies configured at startup; every dispatched
// webhook gets its own shallow clone bound to the event's tenant and user,
// so concurrent hook invocations never share mutable per-event state.
package handler

import (
	"context"

	"warelay/internal/cache"
	"warelay/internal/model"
	"warelay/internal/outbound"
	"warelay/internal/session"
)

// Handler receives normalized webhooks. Implementations embed Base and
// override only the hooks they care about.
type Handler interface {
	OnMessage(ctx context.Context, iso *Isolated, wh *model.IncomingMessageWebhook) error
	OnStatus(ctx context.Context, iso *Isolated, wh *model.StatusWebhook) error
	OnError(ctx context.Context, iso *Isolated, wh *model.ErrorWebhook) error
}

// Base is a no-op Handler.
type Base struct{}

func (Base) OnMessage(context.Context, *Isolated, *model.IncomingMessageWebhook) error {
	return nil
}
func (Base) OnStatus(context.Context, *Isolated, *model.StatusWebhook) error { return nil }
func (Base) OnError(context.Context, *Isolated, *model.ErrorWebhook) error   { return nil }

// Prototype is the startup-time template for per-event clones.
type Prototype struct {
	Outbound     outbound.Client
	Cache        cache.Factory
	Sessions     session.Factory
	ReadSessions session.Factory
	Handler      Handler
}

// WithContext clones the prototype for one event. The clone shares the
// long-lived dependencies (clients, stores) and carries its own identity.
func (p *Prototype) WithContext(tenantID, userID string) *Isolated {
	return &Isolated{
		tenantID:     tenantID,
		userID:       userID,
		outbound:     p.Outbound,
		cache:        p.Cache,
		sessions:     p.Sessions,
		readSessions: p.ReadSessions,
	}
}

// Isolated is the per-event view handed to hooks.
type Isolated struct {
	tenantID string
	userID   string

	outbound     outbound.Client
	cache        cache.Factory
	sessions     session.Factory
	readSessions session.Factory
}

func (i *Isolated) TenantID() string { return i.tenantID }
func (i *Isolated) UserID() string   { return i.userID }

// Outbound returns the messaging client, nil when the deployment is
// receive-only.
func (i *Isolated) Outbound() outbound.Client { return i.outbound }

// UserCache is scoped to this event's tenant and user.
func (i *Isolated) UserCache() cache.Cache {
	if i.cache == nil {
		return nil
	}
	return i.cache.UserCache(i.tenantID, i.userID)
}

// StateCache is scoped to this event's tenant.
func (i *Isolated) StateCache() cache.Cache {
	if i.cache == nil {
		return nil
	}
	return i.cache.StateCache(i.tenantID)
}

// TableCache is a named shared cache, unscoped by identity.
func (i *Isolated) TableCache(name string) cache.Cache {
	if i.cache == nil {
		return nil
	}
	return i.cache.TableCache(name)
}

// Session returns the writable session for this tenant and user.
func (i *Isolated) Session() *session.Scoped {
	if i.sessions == nil {
		return nil
	}
	return i.sessions(i.tenantID, i.userID)
}

// ReadSession returns a read-only session view, useful for status and
// error hooks that must not mutate conversation state.
func (i *Isolated) ReadSession() *session.Scoped {
	if i.readSessions == nil {
		return nil
	}
	return i.readSessions(i.tenantID, i.userID)
}

// MissingDependencies names the capabilities this clone cannot serve.
// Identity and the outbound client are hard requirements for dispatch;
// cache and session factories degrade to nil returns.
func (i *Isolated) MissingDependencies() []string {
	var missing []string
	if i.tenantID == "" {
		missing = append(missing, "tenant_id")
	}
	if i.outbound == nil {
		missing = append(missing, "outbound")
	}
	if i.cache == nil {
		missing = append(missing, "cache")
	}
	if i.sessions == nil {
		missing = append(missing, "sessions")
	}
	return missing
}
