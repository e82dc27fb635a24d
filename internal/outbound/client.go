// Package outbound implements the messaging client handed to isolated
// handlers. One Graph API client exists per tenant phone number; all clients
// share a single process-wide http.Client whose connection pool is safe for
// concurrent use.
package outbound

import "context"

// Button is one quick-reply button on an interactive message.
type Button struct {
	ID    string
	Title string
}

// Client is the capability an isolated handler uses to talk back to the
// platform. Implementations must be safe for concurrent use.
type Client interface {
	// SendText sends a plain text message and returns the platform message id.
	SendText(ctx context.Context, to, body string) (string, error)

	// SendMedia sends a previously uploaded media object by id.
	SendMedia(ctx context.Context, to, mediaType, mediaID, caption string) (string, error)

	// SendButtons sends an interactive quick-reply message (max 3 buttons).
	SendButtons(ctx context.Context, to, body string, buttons []Button) (string, error)

	// MarkRead marks an inbound message as read.
	MarkRead(ctx context.Context, messageID string) error
}
