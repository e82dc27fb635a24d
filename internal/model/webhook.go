package model

import (
	"fmt"
	"time"
)

// Kind discriminates the canonical webhook variants.
type Kind string

const (
	KindMessage Kind = "message"
	KindStatus  Kind = "status"
	KindError   Kind = "error"
)

// Webhook is the canonical, platform-agnostic representation of one inbound
// event. Exactly one variant is produced per delivered event. Values are
// immutable after construction and live only for the duration of one
// processing task.
type Webhook interface {
	Kind() Kind
}

// IncomingMessageWebhook is one message sent by an end user to a tenant.
type IncomingMessageWebhook struct {
	WebhookID       string
	Tenant          TenantBase
	User            UserBase
	Message         Message
	BusinessContext *BusinessContext
	ForwardContext  *ForwardContext
	AdReferral      *AdReferral
	Timestamp       time.Time
}

func (*IncomingMessageWebhook) Kind() Kind { return KindMessage }

// StatusWebhook is a delivery receipt for a previously sent message.
type StatusWebhook struct {
	Tenant       TenantBase
	MessageID    string
	Status       DeliveryStatus
	RecipientID  string
	Conversation *Conversation
	Pricing      *Pricing
	Errors       []ErrorDetail
	Timestamp    time.Time
}

func (*StatusWebhook) Kind() Kind { return KindStatus }

// IsFailedStatus reports whether this receipt represents a delivery failure.
func (w *StatusWebhook) IsFailedStatus() bool { return w.Status == StatusFailed }

// PrimaryError returns the first error detail, or nil when none exist.
func (w *StatusWebhook) PrimaryError() *ErrorDetail {
	if len(w.Errors) == 0 {
		return nil
	}
	return &w.Errors[0]
}

// Validate enforces the status/error pairing invariant: the status must come
// from the closed delivery set, a failed status must carry at least one error
// detail, and any other status must carry none.
func (w *StatusWebhook) Validate() error {
	if _, ok := CanonicalDeliveryStatus(string(w.Status)); !ok {
		return fmt.Errorf("%w: %q", errUnknownDeliveryStatus, w.Status)
	}
	if w.Status == StatusFailed && len(w.Errors) == 0 {
		return errFailedWithoutErrors
	}
	if w.Status != StatusFailed && len(w.Errors) > 0 {
		return errNonFailedWithErrors
	}
	return nil
}

// ErrorWebhook carries platform-level errors that are not tied to a single
// message delivery.
type ErrorWebhook struct {
	Tenant    TenantBase
	Errors    []ErrorDetail
	Level     ErrorLevel
	Timestamp time.Time
}

func (*ErrorWebhook) Kind() Kind { return KindError }

// Validate enforces that an error webhook names at least one error.
func (w *ErrorWebhook) Validate() error {
	if len(w.Errors) == 0 {
		return errErrorWebhookEmpty
	}
	return nil
}

// DeliveryStatus is the lifecycle state reported by a status webhook.
type DeliveryStatus string

const (
	StatusSent      DeliveryStatus = "sent"
	StatusDelivered DeliveryStatus = "delivered"
	StatusRead      DeliveryStatus = "read"
	StatusFailed    DeliveryStatus = "failed"
)

// CanonicalDeliveryStatus maps a vendor status string onto the closed
// delivery set. ok is false for anything outside it.
func CanonicalDeliveryStatus(s string) (DeliveryStatus, bool) {
	switch st := DeliveryStatus(s); st {
	case StatusSent, StatusDelivered, StatusRead, StatusFailed:
		return st, true
	default:
		return "", false
	}
}

// ErrorLevel classifies where an error webhook originated.
type ErrorLevel string

const (
	LevelSystem  ErrorLevel = "system"
	LevelApp     ErrorLevel = "app"
	LevelAccount ErrorLevel = "account"
	LevelWebhook ErrorLevel = "webhook"
)

// Conversation describes the billing conversation a status belongs to.
type Conversation struct {
	ID         string
	OriginType string
	ExpiresAt  time.Time
}

// Pricing describes billing attributes attached to a status webhook.
type Pricing struct {
	Billable     bool
	PricingModel string
	Category     string
}

// BusinessContext links a message to the business-initiated message it
// replies to (e.g. a button on an outbound template).
type BusinessContext struct {
	MessageID string
	From      string
}

// ForwardContext marks a message that was forwarded by the sender.
type ForwardContext struct {
	Forwarded           bool
	FrequentlyForwarded bool
}

// AdReferral describes the click-to-WhatsApp ad that led the user to message
// the business.
type AdReferral struct {
	SourceURL  string
	SourceID   string
	SourceType string
	Headline   string
	Body       string
	MediaType  string
}
