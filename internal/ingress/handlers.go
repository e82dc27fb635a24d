package ingress

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"warelay/internal/events"
	"warelay/internal/journal"
	"warelay/internal/model"
	"warelay/internal/platform"
	"warelay/internal/reqctx"
	"warelay/internal/signature"
)

const signatureHeader = "X-Hub-Signature-256"

// handleVerify answers the vendor's subscription challenge on the
// platform-scoped verify path.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	s.verifyChallenge(w, r, chi.URLParam(r, "platform"))
}

// handleChallenge answers the same challenge on the tenant-scoped receive
// path; the vendor sends its verification GET to the exact URL it will deliver to.
func (s *Server) handleChallenge(w http.ResponseWriter, r *http.Request) {
	s.verifyChallenge(w, r, chi.URLParam(r, "platform"))
}

func (s *Server) verifyChallenge(w http.ResponseWriter, r *http.Request, platformName string) {
	if _, ok := s.opts.Registry.Get(platformName); !ok {
		s.respondError(w, http.StatusBadRequest, "unknown platform")
		return
	}

	q := r.URL.Query()
	mode := q.Get("hub.mode")
	token := q.Get("hub.verify_token")
	challenge := q.Get("hub.challenge")

	if mode != "subscribe" || token == "" || token != s.opts.VerifyToken {
		s.logger.WarnContext(r.Context(), "verification challenge rejected",
			"platform", platformName, "mode", mode)
		s.respondError(w, http.StatusForbidden, "forbidden")
		return
	}

	// The challenge echoes back raw, not JSON-wrapped.
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, challenge)
}

// handleAccept authenticates one delivery and schedules processing. The
// vendor retries slow endpoints, so nothing past signature and shape checks
// happens on this path.
func (s *Server) handleAccept(w http.ResponseWriter, r *http.Request) {
	platformName := chi.URLParam(r, "platform")
	ownerID := chi.URLParam(r, "tenantID")

	adapter, ok := s.opts.Registry.Get(platformName)
	if !ok {
		s.respondError(w, http.StatusBadRequest, "unknown platform")
		return
	}

	limit := s.opts.Config.MaxBodyBytes
	body, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to read request body")
		return
	}
	if int64(len(body)) > limit {
		s.respondError(w, http.StatusRequestEntityTooLarge, "payload too large")
		return
	}

	if !signature.Verify(body, r.Header.Get(signatureHeader), s.opts.AppSecret) {
		s.respondError(w, http.StatusForbidden, "forbidden")
		return
	}

	// Shape is checked only far enough to reject garbage before accepting;
	// real decoding happens in the async task.
	if !json.Valid(body) {
		s.respondError(w, http.StatusBadRequest, "body is not valid JSON")
		return
	}

	eventID, err := s.opts.Journal.Accept(r.Context(), journal.AcceptRequest{
		Platform:    platformName,
		OwnerID:     ownerID,
		PayloadHash: journal.PayloadHash(body),
	})
	if err != nil {
		s.logger.ErrorContext(r.Context(), "failed to journal accepted event", "error", err)
		s.respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if s.opts.Hub != nil {
		s.opts.Hub.Publish(events.KindAccepted, map[string]any{
			"event_id": eventID,
			"platform": platformName,
			"owner_id": ownerID,
		})
	}

	// Detached task: the response does not wait for it, and its failures
	// surface through logs, the journal, and the event feed only.
	s.tasks.Add(1)
	go func() {
		defer s.tasks.Done()
		s.process(eventID, adapter, ownerID, body)
	}()

	s.respondJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// process normalizes and dispatches one accepted delivery. It owns its
// context: the HTTP request's context died when the 202 went out.
func (s *Server) process(eventID string, adapter platform.Adapter, ownerID string, body []byte) {
	start := time.Now()
	ctx := reqctx.WithOwner(context.Background(), ownerID)
	logger := s.logger.With("event_id", eventID, "platform", adapter.Name())

	defer func() {
		if r := recover(); r != nil {
			logger.ErrorContext(ctx, "processing task panicked", "panic", r)
			s.complete(ctx, eventID, journal.Outcome{
				Duration:  time.Since(start),
				LastError: "processing panic",
			})
		}
	}()

	if err := s.opts.Journal.Begin(ctx, eventID); err != nil {
		logger.WarnContext(ctx, "failed to mark event processing", "error", err)
	}

	if s.opts.Config.DedupeWindow > 0 {
		hash := journal.PayloadHash(body)
		// Accept already journaled this delivery, so more than one row for
		// the hash means the vendor redelivered.
		n, err := s.opts.Journal.RecentDeliveries(ctx, hash, s.opts.Config.DedupeWindow)
		if err == nil && n > 1 {
			logger.WarnContext(ctx, "duplicate delivery detected", "payload_hash", hash, "deliveries", n)
		}
	}

	wh, err := adapter.Normalize(body, ownerID)
	if err != nil {
		logger.ErrorContext(ctx, "normalization failed", "error", err)
		s.complete(ctx, eventID, journal.Outcome{
			Duration:  time.Since(start),
			LastError: err.Error(),
		})
		return
	}

	tenantID, userID := webhookIdentity(wh)
	ctx = reqctx.WithTenant(ctx, tenantID)
	if userID != "" {
		ctx = reqctx.WithUser(ctx, userID)
	}

	res := s.opts.Dispatcher.Dispatch(ctx, wh)

	out := journal.Outcome{
		TenantID: tenantID,
		Kind:     string(wh.Kind()),
		Success:  res.Success,
		Action:   res.Action,
		Duration: res.Duration,
	}
	if res.Err != nil {
		out.LastError = res.Err.Error()
	}
	if code := webhookErrorCode(wh); code != 0 {
		out.ErrorCode = code
	}
	s.complete(ctx, eventID, out)

	logger.InfoContext(ctx, "event processed",
		"kind", string(wh.Kind()),
		"success", res.Success,
		"duration_ms", res.Duration.Milliseconds())
}

func (s *Server) complete(ctx context.Context, eventID string, out journal.Outcome) {
	if err := s.opts.Journal.Complete(ctx, eventID, out); err != nil {
		s.logger.ErrorContext(ctx, "failed to journal outcome", "event_id", eventID, "error", err)
	}
}

// webhookIdentity mirrors the dispatcher's binding rules for context stamping.
func webhookIdentity(wh model.Webhook) (tenantID, userID string) {
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

// webhookErrorCode picks the code recorded in the journal, when one exists.
func webhookErrorCode(wh model.Webhook) int {
	switch w := wh.(type) {
	case *model.StatusWebhook:
		if pe := w.PrimaryError(); pe != nil {
			return pe.Code
		}
	case *model.ErrorWebhook:
		if len(w.Errors) > 0 {
			return w.Errors[0].Code
		}
	}
	return 0
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
