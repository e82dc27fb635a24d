// Package journal records every accepted webhook event and its processing
// outcome in sqlite. Nothing from an async task reaches the HTTP caller, so
// the journal (with the logs and the event stream) is where failures become
// operator-visible.
package journal

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"
)

type Status string

const (
	StatusAccepted   Status = "accepted"
	StatusProcessing Status = "processing"
	StatusDone       Status = "done"
	StatusFailed     Status = "failed"
)

// Journal persists event records.
type Journal struct {
	db *sql.DB
}

// New wraps an opened database (see storage.OpenSQLite).
func New(db *sql.DB) *Journal {
	return &Journal{db: db}
}

// PayloadHash returns the BLAKE3 hex digest of the raw body. Redeliveries of
// the same vendor payload share a hash, which is how duplicates surface.
func PayloadHash(body []byte) string {
	sum := blake3.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// AcceptRequest describes one inbound event at the accept point.
type AcceptRequest struct {
	Platform    string
	OwnerID     string
	PayloadHash string
}

// Accept inserts the event in accepted state and returns its id.
func (j *Journal) Accept(ctx context.Context, req AcceptRequest) (string, error) {
	if req.Platform == "" {
		return "", fmt.Errorf("platform is empty")
	}
	if req.PayloadHash == "" {
		return "", fmt.Errorf("payload hash is empty")
	}

	id := uuid.NewString()
	now := time.Now().UTC().Format(time.RFC3339Nano)

	_, err := j.db.ExecContext(ctx, `
INSERT INTO webhook_events(id, platform, owner_id, payload_hash, status, accepted_at)
VALUES(?, ?, ?, ?, ?, ?);
`, id, req.Platform, req.OwnerID, req.PayloadHash, StatusAccepted, now)
	if err != nil {
		return "", fmt.Errorf("journal accept: %w", err)
	}
	return id, nil
}

// Begin marks the event as processing once its async task starts.
func (j *Journal) Begin(ctx context.Context, eventID string) error {
	if eventID == "" {
		return fmt.Errorf("event id is empty")
	}
	_, err := j.db.ExecContext(ctx, `
UPDATE webhook_events SET status = ? WHERE id = ?;
`, StatusProcessing, eventID)
	if err != nil {
		return fmt.Errorf("journal begin: %w", err)
	}
	return nil
}

// Outcome is the terminal record for one event.
type Outcome struct {
	TenantID  string
	Kind      string
	Success   bool
	Action    string
	Duration  time.Duration
	ErrorCode int
	LastError string
}

// Complete marks the event terminal.
func (j *Journal) Complete(ctx context.Context, eventID string, out Outcome) error {
	if eventID == "" {
		return fmt.Errorf("event id is empty")
	}

	status := StatusDone
	if !out.Success {
		status = StatusFailed
	}

	var lastErr *string
	if out.LastError != "" {
		lastErr = &out.LastError
	}
	var errCode *int
	if out.ErrorCode != 0 {
		errCode = &out.ErrorCode
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := j.db.ExecContext(ctx, `
UPDATE webhook_events
SET tenant_id = ?, kind = ?, status = ?, completed_at = ?, duration_ms = ?,
    action = ?, error_code = ?, last_error = ?
WHERE id = ?;
`, out.TenantID, out.Kind, status, now, out.Duration.Milliseconds(),
		out.Action, errCode, lastErr, eventID)
	if err != nil {
		return fmt.Errorf("journal complete: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("journal complete: event %q not found", eventID)
	}
	return nil
}

// RecentDeliveries counts events with this payload hash accepted inside the
// window. A count above one means the vendor redelivered; the pipeline logs
// it but still processes (at-most-once, not exactly-once).
func (j *Journal) RecentDeliveries(ctx context.Context, payloadHash string, window time.Duration) (int, error) {
	since := time.Now().UTC().Add(-window).Format(time.RFC3339Nano)
	var count int
	err := j.db.QueryRowContext(ctx, `
SELECT COUNT(*) FROM webhook_events WHERE payload_hash = ? AND accepted_at >= ?;
`, payloadHash, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("journal dedupe lookup: %w", err)
	}
	return count, nil
}

// KindCount is one row of the stats surface.
type KindCount struct {
	Kind   string
	Status Status
	Count  int
}

// CountsSince aggregates events by kind and terminal status inside a window.
func (j *Journal) CountsSince(ctx context.Context, since time.Time) ([]KindCount, error) {
	rows, err := j.db.QueryContext(ctx, `
SELECT COALESCE(kind, ''), status, COUNT(*)
FROM webhook_events
WHERE accepted_at >= ?
GROUP BY kind, status
ORDER BY kind, status;
`, since.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("journal counts: %w", err)
	}
	defer rows.Close()

	var out []KindCount
	for rows.Next() {
		var kc KindCount
		var status string
		if err := rows.Scan(&kc.Kind, &status, &kc.Count); err != nil {
			return nil, fmt.Errorf("scan counts: %w", err)
		}
		kc.Status = Status(status)
		out = append(out, kc)
	}
	return out, rows.Err()
}
