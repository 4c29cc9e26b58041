package domain

import "time"

type EventType string

const (
	EventDelta       EventType = "delta"
	EventToolCall    EventType = "tool_call"
	EventToolResult  EventType = "tool_result"
	EventResumeToken EventType = "resume_token"
	EventWarning     EventType = "warning"
	EventError       EventType = "err"
	EventDone        EventType = "done"
)

type FailureKind string

const (
	FailurePolicyBlocked          FailureKind = "policy_blocked"
	FailureBudgetExceeded         FailureKind = "budget_exceeded"
	FailureBackend                FailureKind = "backend_failure"
	FailureToolInvocation         FailureKind = "tool_invocation_failure"
	FailurePromisedToolNotInvoked FailureKind = "promised_tool_not_invoked"
)

type StreamEvent struct {
	Type      EventType   `json:"type"`
	SessionID SessionID   `json:"sessionId,omitempty"`
	Text      string      `json:"text,omitempty"`
	Tool      string      `json:"tool,omitempty"`
	Input     string      `json:"input,omitempty"`
	Output    string      `json:"output,omitempty"`
	IsError   bool        `json:"isError,omitempty"`
	Backend   BackendID   `json:"backend,omitempty"`
	Token     string      `json:"token,omitempty"`
	Failure   FailureKind `json:"failure,omitempty"`
	Tools     []string    `json:"tools,omitempty"`
	Time      time.Time   `json:"time"`
}
