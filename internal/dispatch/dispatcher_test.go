package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"warelay/internal/cache"
	"warelay/internal/events"
	"warelay/internal/handler"
	"warelay/internal/model"
	"warelay/internal/outbound"
	"warelay/internal/reqctx"
)

// nopOutbound satisfies the outbound client capability without network I/O.
type nopOutbound struct{}

func (nopOutbound) SendText(context.Context, string, string) (string, error) { return "wamid.out", nil }
func (nopOutbound) SendMedia(context.Context, string, string, string, string) (string, error) {
	return "wamid.out", nil
}
func (nopOutbound) SendButtons(context.Context, string, string, []outbound.Button) (string, error) {
	return "wamid.out", nil
}
func (nopOutbound) MarkRead(context.Context, string) error { return nil }

// recordingHandler captures hook invocations and the identity they ran under.
type recordingHandler struct {
	handler.Base

	mu          sync.Mutex
	messages    []string // tenant ids seen by OnMessage
	statuses    int
	statusUsers []string // user ids seen by OnStatus
	errs        int

	messageErr error
	panicMsg   string
}

func (h *recordingHandler) OnMessage(_ context.Context, iso *handler.Isolated, _ *model.IncomingMessageWebhook) error {
	if h.panicMsg != "" {
		panic(h.panicMsg)
	}
	h.mu.Lock()
	h.messages = append(h.messages, iso.TenantID())
	h.mu.Unlock()
	return h.messageErr
}

func (h *recordingHandler) OnStatus(_ context.Context, iso *handler.Isolated, _ *model.StatusWebhook) error {
	h.mu.Lock()
	h.statuses++
	h.statusUsers = append(h.statusUsers, iso.UserID())
	h.mu.Unlock()
	return nil
}

func (h *recordingHandler) OnError(_ context.Context, _ *handler.Isolated, _ *model.ErrorWebhook) error {
	h.mu.Lock()
	h.errs++
	h.mu.Unlock()
	return nil
}

func testDispatcher(h handler.Handler, hub *events.Hub) *Dispatcher {
	proto := &handler.Prototype{
		Outbound: nopOutbound{},
		Cache:    cache.NewFactory(cache.NewMemory()),
		Handler:  h,
	}
	return New(proto, EscalationConfig{}, hub)
}

func messageWebhook(tenant string) *model.IncomingMessageWebhook {
	return &model.IncomingMessageWebhook{
		WebhookID: "wh-1",
		Tenant:    model.TenantBase{PlatformTenantID: tenant},
		User:      model.UserBase{PhoneNumber: "+15550000"},
		Message: model.Message{
			ID:   "wamid.1",
			Type: model.MessageText,
			Text: &model.TextContent{Body: "hello"},
		},
		Timestamp: time.Now().UTC(),
	}
}

func TestDispatchMessageInvokesHookWithIdentity(t *testing.T) {
	h := &recordingHandler{}
	d := testDispatcher(h, nil)

	res := d.Dispatch(context.Background(), messageWebhook("T1"))
	require.True(t, res.Success)
	require.Equal(t, "message.handled", res.Action)
	require.NoError(t, res.Err)
	require.Equal(t, []string{"T1"}, h.messages)
}

func TestDispatchAbortsWithoutOutbound(t *testing.T) {
	h := &recordingHandler{}
	d := New(&handler.Prototype{
		Cache:   cache.NewFactory(cache.NewMemory()),
		Handler: h,
	}, EscalationConfig{}, nil)

	res := d.Dispatch(context.Background(), messageWebhook("T1"))
	require.False(t, res.Success)
	require.Equal(t, "dependencies.missing", res.Action)
	require.ErrorContains(t, res.Err, "outbound")
	require.Empty(t, h.messages, "hook must not run when preconditions fail")
}

func TestDispatchHookErrorBecomesFailedResult(t *testing.T) {
	h := &recordingHandler{messageErr: errors.New("downstream unavailable")}
	d := testDispatcher(h, nil)

	res := d.Dispatch(context.Background(), messageWebhook("T1"))
	require.False(t, res.Success)
	require.ErrorContains(t, res.Err, "downstream unavailable")
}

func TestDispatchPanicIsCaptured(t *testing.T) {
	h := &recordingHandler{panicMsg: "boom"}
	d := testDispatcher(h, nil)

	res := d.Dispatch(context.Background(), messageWebhook("T1"))
	require.False(t, res.Success)
	require.ErrorContains(t, res.Err, "boom")
	require.NotZero(t, res.Duration)
}

func TestDispatchStatusUpdatesStats(t *testing.T) {
	h := &recordingHandler{}
	d := testDispatcher(h, nil)

	wh := &model.StatusWebhook{
		Tenant:      model.TenantBase{PlatformTenantID: "T1"},
		MessageID:   "wamid.9",
		Status:      model.StatusDelivered,
		RecipientID: "15550000",
		Timestamp:   time.Now().UTC(),
	}

	res := d.Dispatch(context.Background(), wh)
	require.True(t, res.Success)
	require.Equal(t, "status.recorded", res.Action)
	require.Equal(t, 1, h.statuses)
	require.Equal(t, []string{"15550000"}, h.statusUsers, "clone binds the status recipient as its user")

	statuses, _ := d.Stats().Snapshot()
	require.Equal(t, 1, statuses[model.StatusDelivered])
}

func TestDispatchLogsCarryContextIdentity(t *testing.T) {
	h := &recordingHandler{}
	d := testDispatcher(h, nil)

	var buf bytes.Buffer
	d.logger = slog.New(reqctx.NewLogHandler(slog.NewJSONHandler(&buf, nil)))

	ctx := reqctx.WithOwner(context.Background(), "owner-9")
	ctx = reqctx.WithTenant(ctx, "T1")
	ctx = reqctx.WithUser(ctx, "15550000")

	wh := &model.StatusWebhook{
		Tenant:      model.TenantBase{PlatformTenantID: "T1"},
		MessageID:   "wamid.9",
		Status:      model.StatusDelivered,
		RecipientID: "15550000",
		Timestamp:   time.Now().UTC(),
	}
	res := d.Dispatch(ctx, wh)
	require.True(t, res.Success)

	var record map[string]any
	dec := json.NewDecoder(&buf)
	found := false
	for dec.More() {
		require.NoError(t, dec.Decode(&record))
		if record["msg"] == "delivery status" {
			found = true
			break
		}
	}
	require.True(t, found, "expected a delivery status record")
	require.Equal(t, "owner-9", record["owner_id"])
	require.Equal(t, "T1", record["tenant_id"])
	require.Equal(t, "15550000", record["user_id"])
}

func TestDispatchErrorEscalates(t *testing.T) {
	h := &recordingHandler{}
	hub := events.NewHub(16)
	d := testDispatcher(h, hub)

	at := time.Now().UTC()
	wh := func(code int) *model.ErrorWebhook {
		return &model.ErrorWebhook{
			Tenant:    model.TenantBase{PlatformTenantID: "T1"},
			Errors:    []model.ErrorDetail{model.NewErrorDetail(code, "err", "")},
			Level:     model.LevelAccount,
			Timestamp: at,
		}
	}

	res := d.Dispatch(context.Background(), wh(131031))
	require.True(t, res.Success)
	require.False(t, res.Escalated)

	res = d.Dispatch(context.Background(), wh(131056))
	require.True(t, res.Escalated, "second critical code inside window escalates")
	require.Equal(t, 2, h.errs)

	snap := hub.SnapshotSince(0)
	require.Len(t, snap, 2)
	require.Equal(t, events.KindDispatched, snap[0].Kind)
	require.Equal(t, events.KindEscalation, snap[1].Kind)

	_, errCodes := d.Stats().Snapshot()
	require.Equal(t, 1, errCodes[131031])
	require.Equal(t, 1, errCodes[131056])
}

func TestDispatchPublishesFailures(t *testing.T) {
	h := &recordingHandler{messageErr: errors.New("nope")}
	hub := events.NewHub(16)
	d := testDispatcher(h, hub)

	d.Dispatch(context.Background(), messageWebhook("T1"))

	snap := hub.SnapshotSince(0)
	require.Len(t, snap, 1)
	require.Equal(t, events.KindFailed, snap[0].Kind)
}
