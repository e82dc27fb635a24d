// Package session is the relational session manager collaborator: one JSON
// conversation-state blob per (tenant, user), stored in sqlite with
// shallow-merge update semantics.
package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"time"
)

const DefaultMaxSessionBytes = 1 << 20 // 1 MiB

// Store persists conversation sessions.
type Store struct {
	db       *sql.DB
	maxBytes int
}

// NewStore wraps an opened database (see journal.OpenSQLite for bootstrap).
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:       db,
		maxBytes: DefaultMaxSessionBytes,
	}
}

// Get returns the full session blob for a (tenant, user), or {} if missing.
func (s *Store) Get(ctx context.Context, tenantID, userID string) (json.RawMessage, error) {
	if tenantID == "" || userID == "" {
		return nil, fmt.Errorf("tenant and user ids are required")
	}

	var raw string
	err := s.db.QueryRowContext(ctx,
		"SELECT state FROM sessions WHERE tenant_id = ? AND user_id = ?;",
		tenantID, userID,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return json.RawMessage(`{}`), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	if !json.Valid([]byte(raw)) {
		return nil, fmt.Errorf("stored session is invalid JSON for tenant=%q user=%q", tenantID, userID)
	}
	return json.RawMessage(raw), nil
}

// ShallowMerge applies updates as a shallow merge (top-level keys replaced).
// The merged session is persisted and returned.
func (s *Store) ShallowMerge(ctx context.Context, tenantID, userID string, updates json.RawMessage) (json.RawMessage, error) {
	if tenantID == "" || userID == "" {
		return nil, fmt.Errorf("tenant and user ids are required")
	}

	upd, err := decodeObjectOrEmpty(updates)
	if err != nil {
		return nil, fmt.Errorf("decode session updates: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var curRaw string
	err = tx.QueryRowContext(ctx,
		"SELECT state FROM sessions WHERE tenant_id = ? AND user_id = ?;",
		tenantID, userID,
	).Scan(&curRaw)
	if errors.Is(err, sql.ErrNoRows) {
		curRaw = "{}"
	} else if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}

	cur, err := decodeObjectOrEmpty(json.RawMessage(curRaw))
	if err != nil {
		return nil, fmt.Errorf("decode stored session: %w", err)
	}

	maps.Copy(cur, upd)

	merged, err := json.Marshal(cur)
	if err != nil {
		return nil, fmt.Errorf("marshal merged session: %w", err)
	}
	if len(merged) > s.maxBytes {
		return nil, fmt.Errorf("session exceeds max size (%d bytes)", s.maxBytes)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = tx.ExecContext(ctx, `
INSERT INTO sessions(tenant_id, user_id, state, updated_at)
VALUES(?, ?, ?, ?)
ON CONFLICT(tenant_id, user_id) DO UPDATE SET
  state = excluded.state,
  updated_at = excluded.updated_at;
`, tenantID, userID, string(merged), now)
	if err != nil {
		return nil, fmt.Errorf("upsert session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return json.RawMessage(merged), nil
}

// Delete removes a session; deleting a missing session is not an error.
func (s *Store) Delete(ctx context.Context, tenantID, userID string) error {
	if tenantID == "" || userID == "" {
		return fmt.Errorf("tenant and user ids are required")
	}
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM sessions WHERE tenant_id = ? AND user_id = ?;",
		tenantID, userID,
	)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func decodeObjectOrEmpty(b json.RawMessage) (map[string]json.RawMessage, error) {
	if len(b) == 0 {
		return map[string]json.RawMessage{}, nil
	}
	if !json.Valid(b) {
		return nil, fmt.Errorf("invalid JSON")
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	if m == nil {
		m = map[string]json.RawMessage{}
	}
	return m, nil
}
