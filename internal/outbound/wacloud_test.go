package outbound

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	path    string
	auth    string
	payload map[string]any
}

func newGraphStub(t *testing.T, status int, respBody string) (*WACloudClient, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.path = r.URL.Path
		captured.auth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &captured.payload)
		w.WriteHeader(status)
		io.WriteString(w, respBody)
	}))
	t.Cleanup(ts.Close)

	c := NewWACloudClient("1064545", "tok-123", ts.Client())
	c.SetBaseURL(ts.URL)
	return c, captured
}

const okResponse = `{"messages":[{"id":"wamid.REPLY1"}]}`

func TestSendText(t *testing.T) {
	c, captured := newGraphStub(t, http.StatusOK, okResponse)

	id, err := c.SendText(context.Background(), "15550000", "hello back")
	require.NoError(t, err)
	require.Equal(t, "wamid.REPLY1", id)

	require.Equal(t, "/1064545/messages", captured.path)
	require.Equal(t, "Bearer tok-123", captured.auth)
	require.Equal(t, "text", captured.payload["type"])
	require.Equal(t, "15550000", captured.payload["to"])
}

func TestSendMediaWithCaption(t *testing.T) {
	c, captured := newGraphStub(t, http.StatusOK, okResponse)

	_, err := c.SendMedia(context.Background(), "15550000", "image", "media-9", "look")
	require.NoError(t, err)

	require.Equal(t, "image", captured.payload["type"])
	img := captured.payload["image"].(map[string]any)
	require.Equal(t, "media-9", img["id"])
	require.Equal(t, "look", img["caption"])
}

func TestSendButtonsCapsAtThree(t *testing.T) {
	c, captured := newGraphStub(t, http.StatusOK, okResponse)

	buttons := []Button{
		{ID: "a", Title: "A"}, {ID: "b", Title: "B"},
		{ID: "c", Title: "C"}, {ID: "d", Title: "D"},
	}
	_, err := c.SendButtons(context.Background(), "15550000", "pick one", buttons)
	require.NoError(t, err)

	interactive := captured.payload["interactive"].(map[string]any)
	action := interactive["action"].(map[string]any)
	require.Len(t, action["buttons"], 3)
}

func TestMarkRead(t *testing.T) {
	c, captured := newGraphStub(t, http.StatusOK, `{}`)

	require.NoError(t, c.MarkRead(context.Background(), "wamid.IN1"))
	require.Equal(t, "read", captured.payload["status"])
	require.Equal(t, "wamid.IN1", captured.payload["message_id"])
}

func TestAPIErrorSurfaces(t *testing.T) {
	c, _ := newGraphStub(t, http.StatusTooManyRequests, `{"error":{"code":429}}`)

	_, err := c.SendText(context.Background(), "15550000", "hi")
	require.Error(t, err)
	require.Contains(t, err.Error(), "429")
}
