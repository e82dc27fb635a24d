package session

import (
	"context"
	"encoding/json"
)

// Scoped is one (tenant, user) view over the store, handed to an isolated
// handler so user code never sees foreign sessions. Read-only views reject
// writes.
type Scoped struct {
	store    *Store
	tenantID string
	userID   string
	readOnly bool
}

// Factory produces scoped sessions for one request. The dispatcher builds a
// write factory and a read factory per event and binds them into the clone.
type Factory func(tenantID, userID string) *Scoped

// WriteFactory returns a factory producing read-write sessions.
func WriteFactory(store *Store) Factory {
	return func(tenantID, userID string) *Scoped {
		return &Scoped{store: store, tenantID: tenantID, userID: userID}
	}
}

// ReadFactory returns a factory producing read-only sessions.
func ReadFactory(store *Store) Factory {
	return func(tenantID, userID string) *Scoped {
		return &Scoped{store: store, tenantID: tenantID, userID: userID, readOnly: true}
	}
}

// Get returns the session blob.
func (s *Scoped) Get(ctx context.Context) (json.RawMessage, error) {
	return s.store.Get(ctx, s.tenantID, s.userID)
}

// Merge shallow-merges updates into the session.
func (s *Scoped) Merge(ctx context.Context, updates json.RawMessage) (json.RawMessage, error) {
	if s.readOnly {
		return nil, errReadOnly
	}
	return s.store.ShallowMerge(ctx, s.tenantID, s.userID, updates)
}

// Clear removes the session.
func (s *Scoped) Clear(ctx context.Context) error {
	if s.readOnly {
		return errReadOnly
	}
	return s.store.Delete(ctx, s.tenantID, s.userID)
}
