package tools

import (
	"context"
	"errors"
	"strings"

	"github.com/bnema/agentdeck/internal/domain"
	"github.com/bnema/agentdeck/internal/ports"
)

type connectorTool struct {
	sender ports.ConnectorSender
}

func (t *connectorTool) Name() string { return domain.ToolConnectorSend }

func (t *connectorTool) Description() string {
	return "Send a message to a connected chat channel. Pass text and optionally channel and connector."
}

func (t *connectorTool) Invoke(ctx context.Context, args map[string]string) (string, error) {
	msg := ports.ConnectorMessage{
		ConnectorID: strings.TrimSpace(args["connector"]),
		ChannelID:   strings.TrimSpace(firstArg(args, "channel", "channel_id")),
		Text:        strings.TrimSpace(firstArg(args, "text", "message", "task")),
	}
	if msg.Text == "" {
		return "", errors.New("connector message needs text")
	}
	if err := t.sender.Send(ctx, msg); err != nil {
		return "", err
	}
	return "sent", nil
}
