package domain

import (
	"strings"
	"time"
)

// BackendID names an execution backend. CLI backends double as delegates.
type BackendID string

const (
	BackendClaude   BackendID = "claude"
	BackendCodex    BackendID = "codex"
	BackendOpenCode BackendID = "opencode"
)

// CanonicalDelegateOrder is used when no delegate order is configured.
var CanonicalDelegateOrder = []BackendID{BackendClaude, BackendCodex, BackendOpenCode}

var delegateTools = map[BackendID]string{
	BackendClaude:   ToolDelegateClaude,
	BackendCodex:    ToolDelegateCodex,
	BackendOpenCode: ToolDelegateOpenCode,
}

// DelegateTool returns the tool name that invokes the delegate.
func DelegateTool(id BackendID) (string, bool) {
	name, ok := delegateTools[id]
	return name, ok
}

// DelegateForTool is the inverse of DelegateTool.
func DelegateForTool(tool string) (BackendID, bool) {
	for id, name := range delegateTools {
		if name == tool {
			return id, true
		}
	}
	return "", false
}

// ParseDelegate maps loose configuration values ("claude-cli", "Codex") onto a delegate.
func ParseDelegate(raw string) (BackendID, bool) {
	value := strings.ToLower(strings.TrimSpace(raw))
	value = strings.TrimSuffix(value, "-cli")
	value = strings.TrimSuffix(value, "_cli")
	switch BackendID(value) {
	case BackendClaude, BackendCodex, BackendOpenCode:
		return BackendID(value), true
	}
	if id, ok := DelegateForTool(strings.ToLower(strings.TrimSpace(raw))); ok {
		return id, true
	}
	return "", false
}

type HealthOutcome struct {
	Success bool
	Reason  string
	At      time.Time
}

type DelegateHealthEntry struct {
	Backend  BackendID
	Outcomes []HealthOutcome
}

type HealthSnapshot struct {
	Entries    []DelegateHealthEntry
	CapturedAt time.Time
}

// IsStale reports whether the snapshot is older than maxAge. A zero capture time is always stale.
func (s HealthSnapshot) IsStale(now time.Time, maxAge time.Duration) bool {
	if s.CapturedAt.IsZero() {
		return true
	}

	if maxAge <= 0 {
		return false
	}

	return now.Sub(s.CapturedAt) > maxAge
}
