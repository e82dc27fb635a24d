// Package platform defines the adapter contract for mapping raw vendor
// webhook payloads into the canonical model, and a registry that selects the
// adapter for a platform slug.
package platform

import (
	"fmt"
	"strings"

	"warelay/internal/model"
)

// Adapter is a stateless transform from one raw vendor JSON document into
// exactly one canonical webhook. Implementations must never return (nil, nil):
// a well-formed payload matching no known classification yields a synthetic
// ErrorWebhook instead of an error.
type Adapter interface {
	// Name is the platform slug used in webhook URLs (e.g. "whatsapp").
	Name() string

	// Normalize builds the canonical webhook. ownerID is the owner hint
	// extracted from the URL; the authoritative tenant id always comes from
	// the verified payload.
	Normalize(raw []byte, ownerID string) (model.Webhook, error)
}

// Registry maps platform slugs to their adapters. It is populated once at
// startup and read-only afterwards, so no locking is needed.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry creates an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{
		adapters: make(map[string]Adapter),
	}
}

// Add registers an adapter under its name.
func (r *Registry) Add(a Adapter) error {
	name := normalize(a.Name())
	if name == "" {
		return fmt.Errorf("adapter name is empty")
	}
	if _, exists := r.adapters[name]; exists {
		return fmt.Errorf("adapter %q already registered", name)
	}
	r.adapters[name] = a
	return nil
}

// Get retrieves the adapter for a platform slug.
func (r *Registry) Get(name string) (Adapter, bool) {
	a, ok := r.adapters[normalize(name)]
	return a, ok
}

// Names returns the registered platform slugs.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	return names
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
