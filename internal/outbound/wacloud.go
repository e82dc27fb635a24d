package outbound

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"warelay/internal/log"
)

const defaultBaseURL = "https://graph.facebook.com/v19.0"

// maxButtons is the platform limit on quick-reply buttons per message.
const maxButtons = 3

// WACloudClient sends messages through the WhatsApp Cloud (Graph) API on
// behalf of one tenant phone number.
type WACloudClient struct {
	baseURL       string
	phoneNumberID string
	token         string
	httpClient    *http.Client
}

// NewWACloudClient builds a client for one tenant phone number. httpClient is
// the shared process-wide client; pass nil to use a private 30s-timeout one.
func NewWACloudClient(phoneNumberID, token string, httpClient *http.Client) *WACloudClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &WACloudClient{
		baseURL:       defaultBaseURL,
		phoneNumberID: phoneNumberID,
		token:         token,
		httpClient:    httpClient,
	}
}

// SetBaseURL overrides the Graph API endpoint, e.g. for a proxy or a test
// server. Call before handing the client to the prototype.
func (c *WACloudClient) SetBaseURL(u string) {
	c.baseURL = u
}

type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

// SendText implements Client.
func (c *WACloudClient) SendText(ctx context.Context, to, body string) (string, error) {
	payload := map[string]any{
		"messaging_product": "whatsapp",
		"recipient_type":    "individual",
		"to":                to,
		"type":              "text",
		"text":              map[string]string{"body": body},
	}
	return c.post(ctx, payload)
}

// SendMedia implements Client. mediaType is one of image, audio, video,
// document, sticker.
func (c *WACloudClient) SendMedia(ctx context.Context, to, mediaType, mediaID, caption string) (string, error) {
	media := map[string]string{"id": mediaID}
	if caption != "" {
		media["caption"] = caption
	}
	payload := map[string]any{
		"messaging_product": "whatsapp",
		"recipient_type":    "individual",
		"to":                to,
		"type":              mediaType,
		mediaType:           media,
	}
	return c.post(ctx, payload)
}

// SendButtons implements Client.
func (c *WACloudClient) SendButtons(ctx context.Context, to, body string, buttons []Button) (string, error) {
	if len(buttons) > maxButtons {
		buttons = buttons[:maxButtons]
	}
	actions := make([]map[string]any, 0, len(buttons))
	for _, b := range buttons {
		actions = append(actions, map[string]any{
			"type":  "reply",
			"reply": map[string]string{"id": b.ID, "title": b.Title},
		})
	}
	payload := map[string]any{
		"messaging_product": "whatsapp",
		"recipient_type":    "individual",
		"to":                to,
		"type":              "interactive",
		"interactive": map[string]any{
			"type":   "button",
			"body":   map[string]string{"text": body},
			"action": map[string]any{"buttons": actions},
		},
	}
	return c.post(ctx, payload)
}

// MarkRead implements Client.
func (c *WACloudClient) MarkRead(ctx context.Context, messageID string) error {
	payload := map[string]any{
		"messaging_product": "whatsapp",
		"status":            "read",
		"message_id":        messageID,
	}
	_, err := c.post(ctx, payload)
	return err
}

func (c *WACloudClient) post(ctx context.Context, payload any) (string, error) {
	url := fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneNumberID)

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if resp.StatusCode != http.StatusOK {
		log.WithComponent("outbound").WarnContext(ctx, "graph api call failed",
			"status", resp.StatusCode,
			"phone_number_id", c.phoneNumberID,
		)
		return "", fmt.Errorf("graph api status %d: %s", resp.StatusCode, string(body))
	}

	var parsed sendResponse
	if err := json.Unmarshal(body, &parsed); err != nil || len(parsed.Messages) == 0 {
		return "", nil
	}
	return parsed.Messages[0].ID, nil
}
