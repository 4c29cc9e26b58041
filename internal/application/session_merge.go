package application

import (
	"strings"
	"time"

	"github.com/bnema/agentdeck/internal/domain"
)

// AgentBinding is the agent-owned part of a session that is re-synced on every turn.
type AgentBinding struct {
	Provider     domain.Provider
	Model        string
	CredentialID string
}

// SessionPatch is everything a turn writes back. Zero fields leave the stored value alone.
type SessionPatch struct {
	// ResumeTokens holds the tokens observed during the run, already normalized.
	// An empty value clears the stored token for that backend.
	ResumeTokens    map[domain.BackendID]string
	Messages        []domain.Message
	AutoMemoryAt    time.Time
	LastActiveAt    time.Time
	LastHeartbeatAt time.Time
	Binding         *AgentBinding
}

func (p SessionPatch) IsEmpty() bool {
	return len(p.ResumeTokens) == 0 && len(p.Messages) == 0 && p.AutoMemoryAt.IsZero() &&
		p.LastActiveAt.IsZero() && p.LastHeartbeatAt.IsZero() && p.Binding == nil
}

// NormalizeResumeToken trims a token. ok is false for empty or whitespace-only tokens.
func NormalizeResumeToken(token string) (string, bool) {
	trimmed := strings.TrimSpace(token)
	return trimmed, trimmed != ""
}

// MergeSessionPatch applies patch to a freshly loaded session. Tokens are last writer
// wins, messages are appended unless an entry with the same ID is already there, and
// timestamps only move forward.
func MergeSessionPatch(fresh domain.Session, patch SessionPatch) domain.Session {
	merged := fresh.Clone()

	for backend, raw := range patch.ResumeTokens {
		token, ok := NormalizeResumeToken(raw)
		if !ok {
			delete(merged.ResumeTokens, backend)
			continue
		}
		if merged.ResumeTokens == nil {
			merged.ResumeTokens = domain.ResumeTokens{}
		}
		merged.ResumeTokens[backend] = token
	}

	existing := make(map[string]struct{}, len(merged.Messages))
	for _, msg := range merged.Messages {
		if msg.ID != "" {
			existing[msg.ID] = struct{}{}
		}
	}
	for _, msg := range patch.Messages {
		if _, dup := existing[msg.ID]; dup && msg.ID != "" {
			continue
		}
		merged.Messages = append(merged.Messages, msg)
	}

	if patch.Binding != nil {
		merged.Provider = patch.Binding.Provider
		if patch.Binding.Model != "" {
			merged.Model = patch.Binding.Model
		}
		merged.CredentialID = patch.Binding.CredentialID
	}

	merged.LastActiveAt = later(merged.LastActiveAt, patch.LastActiveAt)

	if !patch.AutoMemoryAt.IsZero() || !patch.LastHeartbeatAt.IsZero() {
		if merged.MainLoop == nil {
			merged.MainLoop = &domain.MainLoopState{Status: domain.MissionStatusIdle}
		}
		merged.MainLoop.LastAutoMemoryAt = later(merged.MainLoop.LastAutoMemoryAt, patch.AutoMemoryAt)
		merged.MainLoop.LastHeartbeatAt = later(merged.MainLoop.LastHeartbeatAt, patch.LastHeartbeatAt)
	}

	return merged
}

func later(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}
