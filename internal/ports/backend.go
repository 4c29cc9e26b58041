package ports

import (
	"context"

	"github.com/bnema/agentdeck/internal/domain"
)

// EmitFunc receives live stream events. Implementations must not block for long.
type EmitFunc func(domain.StreamEvent)

type BackendRequest struct {
	Session      domain.Session
	Message      string
	ImagePath    string
	APIKey       string
	SystemPrompt string
	History      []domain.Message
	ResumeToken  string
	// Tools is nil on the raw chat path.
	Tools ToolSet
}

type Backend interface {
	ID() domain.BackendID
	Invoke(ctx context.Context, req BackendRequest, emit EmitFunc) (string, error)
}

type BackendRouter interface {
	ForProvider(provider domain.Provider) (Backend, error)
	Delegate(id domain.BackendID) (Backend, error)
}
