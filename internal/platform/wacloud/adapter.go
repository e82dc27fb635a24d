// Package wacloud normalizes WhatsApp Cloud API webhook payloads into the
// canonical model. The adapter is stateless: one raw document in, exactly one
// canonical webhook out.
package wacloud

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"warelay/internal/model"
)

// PlatformName is the URL slug this adapter registers under.
const PlatformName = "whatsapp"

// Adapter transforms WhatsApp Cloud API payloads into canonical webhooks.
type Adapter struct{}

// New returns the WhatsApp Cloud adapter.
func New() *Adapter { return &Adapter{} }

// Name implements platform.Adapter.
func (a *Adapter) Name() string { return PlatformName }

// Normalize decodes the vendor envelope and classifies it as containing
// messages, statuses, or errors; first match wins. A well-formed envelope
// matching none of the three yields a synthetic ErrorWebhook (level webhook)
// so every call produces exactly one canonical result. Only a structurally
// invalid document returns an error.
func (a *Adapter) Normalize(raw []byte, ownerID string) (model.Webhook, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Object == "" || len(env.Entry) == 0 {
		return nil, fmt.Errorf("envelope missing object or entry")
	}

	for _, ent := range env.Entry {
		for _, chg := range ent.Changes {
			val := chg.Value
			tenant := buildTenant(ent, val, ownerID)

			switch {
			case len(val.Messages) > 0:
				return buildMessageWebhook(tenant, val), nil
			case len(val.Statuses) > 0:
				return buildStatusWebhook(tenant, val.Statuses[0])
			case len(val.Errors) > 0:
				return buildErrorWebhook(tenant, chg.Field, val.Errors), nil
			}
		}
	}

	// NormalizationGap: nothing recognizable. Emit a webhook-level error so
	// the pipeline still gets one canonical result.
	return &model.ErrorWebhook{
		Tenant: model.TenantBase{PlatformTenantID: firstEntryID(env, ownerID)},
		Level:  model.LevelWebhook,
		Errors: []model.ErrorDetail{
			model.NewErrorDetail(0, "unknown webhook type", "payload contains no messages, statuses, or errors"),
		},
		Timestamp: time.Now().UTC(),
	}, nil
}

// buildTenant extracts the tenant from envelope metadata. The URL owner id is
// only a fallback hint for payloads that omit the entry id.
func buildTenant(ent entry, val value, ownerID string) model.TenantBase {
	tenantID := ent.ID
	if tenantID == "" {
		tenantID = ownerID
	}
	return model.TenantBase{
		BusinessPhoneNumberID: val.Metadata.PhoneNumberID,
		DisplayPhoneNumber:    val.Metadata.DisplayPhoneNumber,
		PlatformTenantID:      tenantID,
	}
}

func buildMessageWebhook(tenant model.TenantBase, val value) *model.IncomingMessageWebhook {
	msg := val.Messages[0]

	user := model.UserBase{
		PlatformUserID: msg.From,
		PhoneNumber:    msg.From,
	}
	// The contacts block carries the business scoped id and the display name
	// when the platform provides them.
	if len(val.Contacts) > 0 {
		user.BusinessScopedUserID = val.Contacts[0].WaID
		user.Username = val.Contacts[0].Profile.Name
	}

	w := &model.IncomingMessageWebhook{
		WebhookID: messageWebhookID(msg),
		Tenant:    tenant,
		User:      user,
		Message:   buildMessage(msg),
		Timestamp: parseTimestamp(msg.Timestamp),
	}

	// Optional contexts attach only when present in the raw payload.
	if msg.Context != nil {
		if msg.Context.Forwarded || msg.Context.FrequentlyForwarded {
			w.ForwardContext = &model.ForwardContext{
				Forwarded:           msg.Context.Forwarded || msg.Context.FrequentlyForwarded,
				FrequentlyForwarded: msg.Context.FrequentlyForwarded,
			}
		}
		if msg.Context.ID != "" {
			w.BusinessContext = &model.BusinessContext{
				MessageID: msg.Context.ID,
				From:      msg.Context.From,
			}
		}
	}
	if msg.Referral != nil {
		w.AdReferral = &model.AdReferral{
			SourceURL:  msg.Referral.SourceURL,
			SourceID:   msg.Referral.SourceID,
			SourceType: msg.Referral.SourceType,
			Headline:   msg.Referral.Headline,
			Body:       msg.Referral.Body,
			MediaType:  msg.Referral.MediaType,
		}
	}
	return w
}

func buildStatusWebhook(tenant model.TenantBase, st status) (model.Webhook, error) {
	ds, ok := model.CanonicalDeliveryStatus(st.Status)
	if !ok {
		return nil, fmt.Errorf("status webhook: unknown delivery status %q", st.Status)
	}
	w := &model.StatusWebhook{
		Tenant:      tenant,
		MessageID:   st.ID,
		Status:      ds,
		RecipientID: st.RecipientID,
		Timestamp:   parseTimestamp(st.Timestamp),
	}
	if st.Conversation != nil {
		w.Conversation = &model.Conversation{
			ID:         st.Conversation.ID,
			OriginType: st.Conversation.Origin.Type,
			ExpiresAt:  parseTimestamp(st.Conversation.ExpirationTimestamp),
		}
	}
	if st.Pricing != nil {
		w.Pricing = &model.Pricing{
			Billable:     st.Pricing.Billable,
			PricingModel: st.Pricing.PricingModel,
			Category:     st.Pricing.Category,
		}
	}
	for _, e := range st.Errors {
		w.Errors = append(w.Errors, buildErrorDetail(e))
	}

	// The vendor occasionally reports a failure without error details; keep
	// the pairing invariant intact by synthesizing one.
	if w.Status == model.StatusFailed && len(w.Errors) == 0 {
		w.Errors = append(w.Errors, model.NewErrorDetail(0, "unknown failure", "failed status delivered without error details"))
	}
	if err := w.Validate(); err != nil {
		return nil, fmt.Errorf("status webhook: %w", err)
	}
	return w, nil
}

func buildErrorWebhook(tenant model.TenantBase, field string, errs []apiError) *model.ErrorWebhook {
	details := make([]model.ErrorDetail, 0, len(errs))
	for _, e := range errs {
		details = append(details, buildErrorDetail(e))
	}
	return &model.ErrorWebhook{
		Tenant:    tenant,
		Errors:    details,
		Level:     errorLevel(field),
		Timestamp: time.Now().UTC(),
	}
}

func buildErrorDetail(e apiError) model.ErrorDetail {
	d := model.NewErrorDetail(e.Code, e.Title, e.Message)
	d.DocumentationURL = e.Href
	if e.ErrorData != nil {
		d.Details = e.ErrorData.Details
	}
	return d
}

// errorLevel classifies value-level errors by the change field that carried
// them.
func errorLevel(field string) model.ErrorLevel {
	switch {
	case strings.Contains(field, "account"):
		return model.LevelAccount
	case field == "messages":
		return model.LevelApp
	default:
		return model.LevelSystem
	}
}

func firstEntryID(env envelope, ownerID string) string {
	for _, ent := range env.Entry {
		if ent.ID != "" {
			return ent.ID
		}
	}
	return ownerID
}

func messageWebhookID(msg message) string {
	if msg.ID != "" {
		return msg.ID
	}
	return uuid.NewString()
}

// parseTimestamp decodes the vendor's unix-seconds string. Absent or invalid
// values fall back to normalization time.
func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Now().UTC()
	}
	secs, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Now().UTC()
	}
	return time.Unix(secs, 0).UTC()
}
