package application

import (
	"time"

	"github.com/bnema/agentdeck/internal/domain"
)

// TurnResult is what Orchestrator.Run always returns, success or not.
type TurnResult struct {
	Text string
	// Persisted reports whether an assistant message was appended to the transcript.
	Persisted      bool
	ToolEvents     []domain.ToolEvent
	Error          string
	Err            error
	Routing        *domain.RoutingDecision
	Classification domain.HeartbeatClassification
}

func (r TurnResult) Failed() bool {
	return r.Error != ""
}

type SpendSummary struct {
	Day       time.Time
	Spent     float64
	Cap       float64
	Tokens    domain.TokenUsage
	Records   int
	ByAgent   map[domain.AgentID]float64
	Exhausted bool
}
