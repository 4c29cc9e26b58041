package application

import (
	"github.com/bnema/agentdeck/internal/domain"
	"github.com/bnema/agentdeck/internal/ports"
)

type SaveAgentCommand struct {
	ID                   domain.AgentID
	Name                 string
	Provider             domain.Provider
	Model                string
	SystemPrompt         *string
	HeartbeatAckMaxChars *int
}

type CreateSessionCommand struct {
	ID      domain.SessionID
	Name    string
	AgentID domain.AgentID
	Tools   []string
	Cwd     string
}

// TurnRequest is one inbound message for one session.
type TurnRequest struct {
	SessionID domain.SessionID
	Message   string
	ImagePath string
	Source    domain.RunSource
	// Internal runs never persist the inbound message and skip the forced tool layer.
	// Heartbeat runs are always internal.
	Internal bool
	OnEvent  ports.EmitFunc
}
