package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// OpenSQLite opens (and creates if needed) the SQLite database at path and
// ensures required tables exist.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}
	if err := validateSQLiteFilesystem(path); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// Basic health check + apply a few safe pragmas.
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(pctx, "PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign_keys: %w", err)
	}
	if _, err := db.ExecContext(pctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy_timeout: %w", err)
	}
	if err := BootstrapSQLite(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// BootstrapSQLite creates tables/indexes if missing.
func BootstrapSQLite(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS webhook_events (
  id            TEXT PRIMARY KEY,
  platform      TEXT NOT NULL,
  owner_id      TEXT NOT NULL,
  tenant_id     TEXT,
  kind          TEXT,
  payload_hash  TEXT NOT NULL,
  status        TEXT NOT NULL,
  accepted_at   TEXT NOT NULL,
  completed_at  TEXT,
  duration_ms   INTEGER,
  action        TEXT,
  error_code    INTEGER,
  last_error    TEXT
);`,
		`CREATE INDEX IF NOT EXISTS idx_webhook_events_hash
  ON webhook_events(payload_hash, accepted_at);`,
		`CREATE INDEX IF NOT EXISTS idx_webhook_events_tenant
  ON webhook_events(tenant_id, accepted_at);`,
		`CREATE TABLE IF NOT EXISTS sessions (
  tenant_id  TEXT NOT NULL,
  user_id    TEXT NOT NULL,
  state      JSON NOT NULL DEFAULT '{}',
  updated_at TEXT NOT NULL,
  PRIMARY KEY (tenant_id, user_id)
);`,
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("bootstrap sqlite: %w", err)
		}
	}
	return nil
}
