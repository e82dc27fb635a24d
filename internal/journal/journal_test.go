package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"warelay/internal/storage"
)

func testJournal(t *testing.T) *Journal {
	t.Helper()
	db, err := storage.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "warelay.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db)
}

func TestAcceptCompleteLifecycle(t *testing.T) {
	j := testJournal(t)
	ctx := context.Background()

	hash := PayloadHash([]byte(`{"object":"whatsapp_business_account"}`))
	id, err := j.Accept(ctx, AcceptRequest{
		Platform:    "whatsapp",
		OwnerID:     "owner-1",
		PayloadHash: hash,
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	require.NoError(t, j.Begin(ctx, id))

	err = j.Complete(ctx, id, Outcome{
		TenantID: "1234567890",
		Kind:     "message",
		Success:  true,
		Action:   "replied",
		Duration: 42 * time.Millisecond,
	})
	require.NoError(t, err)

	counts, err := j.CountsSince(ctx, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	require.Len(t, counts, 1)
	require.Equal(t, "message", counts[0].Kind)
	require.Equal(t, StatusDone, counts[0].Status)
	require.Equal(t, 1, counts[0].Count)
}

func TestCompleteFailedRecordsError(t *testing.T) {
	j := testJournal(t)
	ctx := context.Background()

	id, err := j.Accept(ctx, AcceptRequest{
		Platform:    "whatsapp",
		PayloadHash: PayloadHash([]byte("x")),
	})
	require.NoError(t, err)

	err = j.Complete(ctx, id, Outcome{
		TenantID:  "1234567890",
		Kind:      "status",
		Success:   false,
		ErrorCode: 131026,
		LastError: "message undeliverable",
	})
	require.NoError(t, err)

	counts, err := j.CountsSince(ctx, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	require.Len(t, counts, 1)
	require.Equal(t, StatusFailed, counts[0].Status)
}

func TestCompleteUnknownEvent(t *testing.T) {
	j := testJournal(t)
	err := j.Complete(context.Background(), "no-such-id", Outcome{Success: true})
	require.Error(t, err)
}

func TestAcceptRejectsEmptyFields(t *testing.T) {
	j := testJournal(t)
	ctx := context.Background()

	_, err := j.Accept(ctx, AcceptRequest{PayloadHash: "abc"})
	require.Error(t, err)

	_, err = j.Accept(ctx, AcceptRequest{Platform: "whatsapp"})
	require.Error(t, err)
}

func TestRecentDeliveries(t *testing.T) {
	j := testJournal(t)
	ctx := context.Background()

	body := []byte(`{"entry":[]}`)
	hash := PayloadHash(body)

	count, err := j.RecentDeliveries(ctx, hash, time.Minute)
	require.NoError(t, err)
	require.Zero(t, count)

	_, err = j.Accept(ctx, AcceptRequest{Platform: "whatsapp", PayloadHash: hash})
	require.NoError(t, err)
	_, err = j.Accept(ctx, AcceptRequest{Platform: "whatsapp", PayloadHash: hash})
	require.NoError(t, err)

	count, err = j.RecentDeliveries(ctx, hash, time.Minute)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	// Same payload bytes always produce the same hash.
	require.Equal(t, hash, PayloadHash([]byte(`{"entry":[]}`)))
}
