package domain

import (
	"strings"
	"time"
)

type SessionID string

// MainSessionID is the session that carries the autonomous mission loop.
const MainSessionID SessionID = "main"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type MessageKind string

const (
	MessageKindChat      MessageKind = "chat"
	MessageKindHeartbeat MessageKind = "heartbeat"
	MessageKindSystem    MessageKind = "system"
)

type Message struct {
	ID         string
	Role       Role
	Text       string
	Time       time.Time
	ImagePath  string
	ToolEvents []ToolEvent
	Kind       MessageKind
}

// ToolEvent is one tool invocation observed during a run. Output stays nil
// until a matching result arrives.
type ToolEvent struct {
	Name   string
	Input  string
	Output *string
	Error  bool
}

type MissionStatus string

const (
	MissionStatusIdle    MissionStatus = "idle"
	MissionStatusOK      MissionStatus = "ok"
	MissionStatusWorking MissionStatus = "working"
	MissionStatusBlocked MissionStatus = "blocked"
)

type MainLoopState struct {
	Status           MissionStatus
	UpdatedAt        time.Time
	LastHeartbeatAt  time.Time
	LastAutoMemoryAt time.Time
}

// ResumeTokens holds one opaque resume token per backend. A missing key means null.
type ResumeTokens map[BackendID]string

type Session struct {
	ID           SessionID
	Name         string
	AgentID      AgentID
	Provider     Provider
	Model        string
	CredentialID string
	Cwd          string
	Messages     []Message
	ResumeTokens ResumeTokens
	Tools        []string
	MainLoop     *MainLoopState
	CreatedAt    time.Time
	LastActiveAt time.Time
}

func (s Session) IsMain() bool {
	return s.ID == MainSessionID
}

func (s Session) HasTool(name string) bool {
	for _, tool := range s.Tools {
		if strings.EqualFold(strings.TrimSpace(tool), name) {
			return true
		}
	}
	return false
}

func (s Session) MissionStatus() MissionStatus {
	if s.MainLoop == nil {
		return ""
	}
	return s.MainLoop.Status
}

func (s Session) LastAutoMemoryAt() time.Time {
	if s.MainLoop == nil {
		return time.Time{}
	}
	return s.MainLoop.LastAutoMemoryAt
}

// LastAssistantOfKind returns the most recent assistant message with the given kind.
func (s Session) LastAssistantOfKind(kind MessageKind) (Message, bool) {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		msg := s.Messages[i]
		if msg.Role == RoleAssistant && msg.Kind == kind {
			return msg, true
		}
	}
	return Message{}, false
}

// Clone returns a deep copy so a working copy can be mutated without touching the snapshot.
func (s Session) Clone() Session {
	out := s
	if s.Messages != nil {
		out.Messages = make([]Message, len(s.Messages))
		for i, msg := range s.Messages {
			if msg.ToolEvents != nil {
				msg.ToolEvents = append([]ToolEvent(nil), msg.ToolEvents...)
			}
			out.Messages[i] = msg
		}
	}
	if s.ResumeTokens != nil {
		out.ResumeTokens = make(ResumeTokens, len(s.ResumeTokens))
		for k, v := range s.ResumeTokens {
			out.ResumeTokens[k] = v
		}
	}
	if s.Tools != nil {
		out.Tools = append([]string(nil), s.Tools...)
	}
	if s.MainLoop != nil {
		loop := *s.MainLoop
		out.MainLoop = &loop
	}
	return out
}

// History returns at most limit trailing messages. limit <= 0 means all.
func (s Session) History(limit int) []Message {
	if limit <= 0 || len(s.Messages) <= limit {
		return append([]Message(nil), s.Messages...)
	}
	return append([]Message(nil), s.Messages[len(s.Messages)-limit:]...)
}
