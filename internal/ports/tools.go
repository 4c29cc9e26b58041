package ports

import (
	"context"

	"github.com/bnema/agentdeck/internal/domain"
)

type ToolHandle interface {
	Name() string
	Description() string
	Invoke(ctx context.Context, args map[string]string) (string, error)
}

// ToolSet is an owned resource scope. Close must always be called.
type ToolSet interface {
	Tools() []ToolHandle
	Lookup(name string) (ToolHandle, bool)
	Close() error
}

type ToolSetRequest struct {
	Cwd     string
	Enabled []string
	Session domain.Session
	Agent   domain.Agent
	Emit    EmitFunc
}

type ToolSetBuilder interface {
	Build(ctx context.Context, req ToolSetRequest) (ToolSet, error)
}

type ConnectorMessage struct {
	ConnectorID string
	ChannelID   string
	Text        string
}

// ConnectorSender delivers outbound messages best-effort.
type ConnectorSender interface {
	Send(ctx context.Context, msg ConnectorMessage) error
}
