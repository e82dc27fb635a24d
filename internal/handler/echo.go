package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"warelay/internal/model"
)

// Echo is the default handler shipped with the server: it records the last
// message per conversation in the session store and, when an outbound client
// is configured, replies to text messages with the same body. Deployments
// replace it by wiring their own Handler into the prototype.
type Echo struct {
	Base
	logger *slog.Logger
}

func NewEcho(logger *slog.Logger) *Echo {
	if logger == nil {
		logger = slog.Default()
	}
	return &Echo{logger: logger}
}

func (e *Echo) OnMessage(ctx context.Context, iso *Isolated, wh *model.IncomingMessageWebhook) error {
	if sess := iso.Session(); sess != nil {
		update := map[string]string{
			"last_message_id":   wh.Message.ID,
			"last_message_type": string(wh.Message.Type),
		}
		if raw, err := json.Marshal(update); err == nil {
			if _, err := sess.Merge(ctx, raw); err != nil {
				e.logger.WarnContext(ctx, "failed to update session", "error", err)
			}
		}
	}

	if wh.Message.Type != model.MessageText || wh.Message.Text == nil || iso.Outbound() == nil {
		return nil
	}

	id, err := iso.Outbound().SendText(ctx, wh.User.PhoneNumber, wh.Message.Text.Body)
	if err != nil {
		return fmt.Errorf("echo reply: %w", err)
	}
	e.logger.InfoContext(ctx, "echoed message", "reply_id", id)
	return nil
}
