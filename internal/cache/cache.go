// Package cache provides the pluggable cache capability handed to isolated
// handlers. A Factory namespaces one backing store into per-user, per-tenant,
// and named-table caches so handler code never builds raw keys.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented KV store with per-entry TTL. Implementations must
// be safe for concurrent use.
type Cache interface {
	// Get returns the value and true on a hit. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key. ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key; deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// Factory builds namespaced cache views over one backend.
type Factory interface {
	// UserCache scopes keys to one end user of one tenant.
	UserCache(tenantID, userID string) Cache

	// StateCache scopes keys to one tenant's conversation state.
	StateCache(tenantID string) Cache

	// TableCache scopes keys to a named lookup table shared by all tenants.
	TableCache(name string) Cache
}

// NewFactory wraps a backend in the standard namespacing scheme.
func NewFactory(backend Cache) Factory {
	return &factory{backend: backend}
}

type factory struct {
	backend Cache
}

func (f *factory) UserCache(tenantID, userID string) Cache {
	return &namespaced{backend: f.backend, prefix: "user:" + tenantID + ":" + userID + ":"}
}

func (f *factory) StateCache(tenantID string) Cache {
	return &namespaced{backend: f.backend, prefix: "state:" + tenantID + ":"}
}

func (f *factory) TableCache(name string) Cache {
	return &namespaced{backend: f.backend, prefix: "table:" + name + ":"}
}

type namespaced struct {
	backend Cache
	prefix  string
}

func (n *namespaced) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return n.backend.Get(ctx, n.prefix+key)
}

func (n *namespaced) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return n.backend.Set(ctx, n.prefix+key, value, ttl)
}

func (n *namespaced) Delete(ctx context.Context, key string) error {
	return n.backend.Delete(ctx, n.prefix+key)
}
