package domain

import (
	"fmt"
	"time"
)

type PolicyMode string

const (
	PolicyModePermissive PolicyMode = "permissive"
	PolicyModeBalanced   PolicyMode = "balanced"
	PolicyModeStrict     PolicyMode = "strict"
)

func (m PolicyMode) Valid() bool {
	switch m {
	case PolicyModePermissive, PolicyModeBalanced, PolicyModeStrict:
		return true
	default:
		return false
	}
}

const (
	DefaultHistoryLimit   = 40
	// AutoMemoryMinInterval is the minimum gap between two auto-journaled notes for a session.
	AutoMemoryMinInterval = 45 * time.Minute
)

// Settings are the global runtime settings shared by every session.
type Settings struct {
	PolicyMode           PolicyMode
	BlockedTools         []string
	BlockedCategories    []ToolCategory
	AllowedTools         []string
	DailySpendCapUSD     float64
	DelegateOrder        []string
	HeartbeatAckMaxChars int
	HistoryLimit         int
	CostPer1KTokens      map[Provider]float64
	HeartbeatInterval    time.Duration
	AutoMemoryEnabled    bool
}

func DefaultSettings() Settings {
	return Settings{
		PolicyMode:           PolicyModeBalanced,
		HeartbeatAckMaxChars: DefaultHeartbeatAckMaxChars,
		HistoryLimit:         DefaultHistoryLimit,
		AutoMemoryEnabled:    true,
	}
}

// ApplyDefaults fills zero values. PolicyMode "" becomes balanced.
func (s *Settings) ApplyDefaults() {
	if s.PolicyMode == "" {
		s.PolicyMode = PolicyModeBalanced
	}
	if s.HeartbeatAckMaxChars <= 0 {
		s.HeartbeatAckMaxChars = DefaultHeartbeatAckMaxChars
	}
	if s.HistoryLimit <= 0 {
		s.HistoryLimit = DefaultHistoryLimit
	}
}

func (s Settings) Validate() error {
	if !s.PolicyMode.Valid() {
		return fmt.Errorf("unsupported capability policy mode %q", s.PolicyMode)
	}
	if s.DailySpendCapUSD < 0 {
		return fmt.Errorf("daily spend cap must not be negative")
	}
	return nil
}

// SpendCapEnabled reports whether the daily spend circuit breaker is armed.
func (s Settings) SpendCapEnabled() bool {
	return s.DailySpendCapUSD > 0
}
