// Package dispatch routes canonical webhooks to handler hooks. Default
// cross-cutting behavior (logging, status statistics, escalation) runs before
// any user code and cannot be skipped, so observability survives handler
// failures. User panics and errors are captured into the Result; by the time
// a dispatch runs, the HTTP response has already been sent.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"warelay/internal/events"
	"warelay/internal/handler"
	"warelay/internal/log"
	"warelay/internal/model"
)

// Result is the structured outcome of one dispatch.
type Result struct {
	Success   bool
	Action    string
	Escalated bool
	Duration  time.Duration
	Err       error
}

// Dispatcher binds the handler prototype to the default pipeline behavior.
type Dispatcher struct {
	proto      *handler.Prototype
	escalation *Escalation
	stats      *Stats
	hub        *events.Hub
	logger     *slog.Logger
}

// New creates a Dispatcher. hub may be nil when no event feed is wanted.
func New(proto *handler.Prototype, esc EscalationConfig, hub *events.Hub) *Dispatcher {
	return &Dispatcher{
		proto:      proto,
		escalation: NewEscalation(esc),
		stats:      NewStats(),
		hub:        hub,
		logger:     log.WithComponent("dispatch"),
	}
}

// Stats exposes the per-process status and error counters.
func (d *Dispatcher) Stats() *Stats { return d.stats }

// Dispatch routes one canonical webhook. It never panics and never returns an
// error to the caller; failures live inside the Result.
func (d *Dispatcher) Dispatch(ctx context.Context, wh model.Webhook) (res Result) {
	start := time.Now()
	tenantID, userID := identity(wh)

	// Context-aware calls let the log handler stamp the request's owner,
	// tenant, and user ids onto every record.
	logger := d.logger.With("kind", string(wh.Kind()))

	defer func() {
		if r := recover(); r != nil {
			logger.ErrorContext(ctx, "handler panicked",
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()))
			res = Result{Err: fmt.Errorf("handler panic: %v", r)}
		}
		res.Duration = time.Since(start)
		d.publish(wh, res)
	}()

	iso := d.proto.WithContext(tenantID, userID)
	if missing := iso.MissingDependencies(); len(missing) > 0 {
		logger.WarnContext(ctx, "dispatching with missing dependencies", "missing", missing)
		if iso.TenantID() == "" || iso.Outbound() == nil {
			// Identity and the outbound client are hard preconditions;
			// the event is dropped rather than retried.
			return Result{Action: "dependencies.missing", Err: fmt.Errorf("missing dependencies: %v", missing)}
		}
	}

	switch w := wh.(type) {
	case *model.IncomingMessageWebhook:
		return d.dispatchMessage(ctx, logger, iso, w)
	case *model.StatusWebhook:
		return d.dispatchStatus(ctx, logger, iso, w)
	case *model.ErrorWebhook:
		return d.dispatchError(ctx, logger, iso, w)
	default:
		logger.ErrorContext(ctx, "unknown webhook variant")
		return Result{Err: fmt.Errorf("unknown webhook kind %q", wh.Kind())}
	}
}

func (d *Dispatcher) dispatchMessage(ctx context.Context, logger *slog.Logger, iso *handler.Isolated, w *model.IncomingMessageWebhook) Result {
	// Default logging runs before the hook so the message is on record even
	// when user code fails.
	logger.InfoContext(ctx, "incoming message",
		"webhook_id", w.WebhookID,
		"message_type", string(w.Message.Type),
		"message_id", w.Message.ID)

	if err := d.proto.Handler.OnMessage(ctx, iso, w); err != nil {
		logger.ErrorContext(ctx, "message hook failed", "error", err)
		return Result{Action: "message.handled", Err: err}
	}
	return Result{Success: true, Action: "message.handled"}
}

func (d *Dispatcher) dispatchStatus(ctx context.Context, logger *slog.Logger, iso *handler.Isolated, w *model.StatusWebhook) Result {
	d.stats.RecordStatus(w.Status)

	if pe := w.PrimaryError(); w.IsFailedStatus() && pe != nil {
		logger.WarnContext(ctx, "delivery failed",
			"message_id", w.MessageID,
			"recipient_id", w.RecipientID,
			"error_code", pe.Code,
			"error_title", pe.Title,
			"retryable", pe.Retryable)
	} else {
		logger.InfoContext(ctx, "delivery status",
			"message_id", w.MessageID,
			"recipient_id", w.RecipientID,
			"status", string(w.Status))
	}

	if err := d.proto.Handler.OnStatus(ctx, iso, w); err != nil {
		logger.ErrorContext(ctx, "status hook failed", "error", err)
		return Result{Action: "status.recorded", Err: err}
	}
	return Result{Success: true, Action: "status.recorded"}
}

func (d *Dispatcher) dispatchError(ctx context.Context, logger *slog.Logger, iso *handler.Isolated, w *model.ErrorWebhook) Result {
	escalated := false
	for _, detail := range w.Errors {
		d.stats.RecordError(detail.Code)
		if d.escalation.Observe(w.Timestamp, detail.Code) {
			escalated = true
		}
	}

	attrs := []any{
		"level", string(w.Level),
		"error_count", len(w.Errors),
	}
	if pe := primaryDetail(w); pe != nil {
		attrs = append(attrs, "error_code", pe.Code, "error_title", pe.Title)
	}
	if escalated {
		logger.ErrorContext(ctx, "platform error escalated", attrs...)
	} else {
		logger.WarnContext(ctx, "platform error", attrs...)
	}

	if err := d.proto.Handler.OnError(ctx, iso, w); err != nil {
		logger.ErrorContext(ctx, "error hook failed", "error", err)
		return Result{Action: "error.recorded", Escalated: escalated, Err: err}
	}
	return Result{Success: true, Action: "error.recorded", Escalated: escalated}
}

func (d *Dispatcher) publish(wh model.Webhook, res Result) {
	if d.hub == nil {
		return
	}

	tenantID, _ := identity(wh)
	data := map[string]any{
		"kind":        string(wh.Kind()),
		"tenant_id":   tenantID,
		"action":      res.Action,
		"duration_ms": res.Duration.Milliseconds(),
	}
	if res.Err != nil {
		data["error"] = res.Err.Error()
	}

	switch {
	case res.Escalated:
		d.hub.Publish(events.KindEscalation, data)
	case res.Success:
		d.hub.Publish(events.KindDispatched, data)
	default:
		d.hub.Publish(events.KindFailed, data)
	}
}

// identity extracts the tenant and user ids the clone binds to. Messages use
// the sender, statuses the recipient; error webhooks have no user.
func identity(wh model.Webhook) (tenantID, userID string) {
	switch w := wh.(type) {
	case *model.IncomingMessageWebhook:
		return w.Tenant.PlatformTenantID, w.User.DerivedID()
	case *model.StatusWebhook:
		return w.Tenant.PlatformTenantID, w.RecipientID
	case *model.ErrorWebhook:
		return w.Tenant.PlatformTenantID, ""
	default:
		return "", ""
	}
}

func primaryDetail(w *model.ErrorWebhook) *model.ErrorDetail {
	if len(w.Errors) == 0 {
		return nil
	}
	return &w.Errors[0]
}
