package turn

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bnema/agentdeck/internal/application"
	"github.com/bnema/agentdeck/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestRenderTurnWithToolsAndWarnings(t *testing.T) {
	output, err := RenderTurn(application.TurnResult{
		Text:      "Fixed the failing test.",
		Persisted: true,
		ToolEvents: []domain.ToolEvent{
			{Name: "shell", Input: `{"cmd":"go test"}`, Output: strPtr("ok  \n  pkg")},
			{Name: "web_fetch", Output: strPtr("timeout"), Error: true},
			{Name: "memory"},
		},
		Routing: &domain.RoutingDecision{
			Intent:             domain.IntentCoding,
			Confidence:         0.8,
			PreferredDelegates: []domain.BackendID{domain.BackendClaude, domain.BackendCodex},
		},
	}, RenderOptions{
		ShowRouting: true,
		Warnings: []domain.StreamEvent{
			{Type: domain.EventWarning, Text: "Tool call skipped: browser is disabled", Failure: domain.FailurePolicyBlocked},
		},
	})

	require.NoError(t, err)
	assert.Contains(t, output, "intent: coding (0.80)")
	assert.Contains(t, output, "delegates: claude,codex")
	assert.Contains(t, output, "Fixed the failing test.")
	assert.Contains(t, output, "tools: 3")
	assert.Contains(t, output, "shell ok pkg")
	assert.Contains(t, output, "web_fetch timeout")
	assert.Contains(t, output, "memory (no result)")
	assert.Contains(t, output, "[policy_blocked] Tool call skipped: browser is disabled")
}

func TestRenderTurnFailure(t *testing.T) {
	output, err := RenderTurn(application.TurnResult{
		Error: "daily budget exhausted",
		Err:   domain.ErrBudgetExceeded,
	}, RenderOptions{})

	require.NoError(t, err)
	assert.Contains(t, output, "error: daily budget exhausted")
	assert.NotContains(t, output, "tools:")
}

func TestRenderTurnEmptyReplyAndHeartbeat(t *testing.T) {
	output, err := RenderTurn(application.TurnResult{Classification: domain.HeartbeatSuppress}, RenderOptions{})

	require.NoError(t, err)
	assert.Contains(t, output, "(no reply)")
	assert.Contains(t, output, "heartbeat: suppress")
}

func TestRenderTurnOmitText(t *testing.T) {
	output, err := RenderTurn(application.TurnResult{
		Text:       "already streamed",
		ToolEvents: []domain.ToolEvent{{Name: "memory", Output: strPtr("saved")}},
	}, RenderOptions{OmitText: true})

	require.NoError(t, err)
	assert.NotContains(t, output, "already streamed")
	assert.NotContains(t, output, "(no reply)")
	assert.Contains(t, output, "memory saved")
}

func TestRenderTurnTruncatesToolOutput(t *testing.T) {
	output, err := RenderTurn(application.TurnResult{
		Text:       "done",
		ToolEvents: []domain.ToolEvent{{Name: "shell", Output: strPtr(strings.Repeat("x", 50))}},
	}, RenderOptions{MaxOutput: 10})

	require.NoError(t, err)
	assert.Contains(t, output, "shell xxxxxxxxxx...")
	assert.NotContains(t, output, strings.Repeat("x", 11))
}

func TestRenderSpend(t *testing.T) {
	tests := []struct {
		name     string
		summary  application.SpendSummary
		contains []string
		excludes []string
	}{
		{
			name: "capped",
			summary: application.SpendSummary{
				Day:     time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC),
				Spent:   0.5,
				Cap:     2,
				Records: 3,
				Tokens:  domain.TokenUsage{InputTokens: 1200, OutputTokens: 300},
				ByAgent: map[domain.AgentID]float64{"builder": 0.4, "": 0.1},
			},
			contains: []string{"day: 2026-02-14  records: 3", "$0.5000 of $2.00", "tokens: 1200 in / 300 out", "builder: $0.4000", "(none): $0.1000", "[=================="},
			excludes: []string{"exhausted"},
		},
		{
			name:     "exhausted",
			summary:  application.SpendSummary{Spent: 3, Cap: 2, Exhausted: true},
			contains: []string{"[exhausted]", "[------------------------]"},
		},
		{
			name:     "uncapped",
			summary:  application.SpendSummary{Spent: 0.25},
			contains: []string{"$0.2500 (no cap)"},
			excludes: []string{"["},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := RenderSpend(tt.summary)
			require.NoError(t, err)
			for _, want := range tt.contains {
				assert.Contains(t, output, want)
			}
			for _, unwanted := range tt.excludes {
				assert.NotContains(t, output, unwanted)
			}
		})
	}
}

func TestRenderDelegates(t *testing.T) {
	output, err := RenderDelegates([]application.DelegateScore{
		{Backend: domain.BackendCodex, Score: 1.5, Successes: 2},
		{Backend: domain.BackendClaude, Score: -2, Successes: 1, Failures: 1, LastError: errors.New("exit status 1").Error()},
	})

	require.NoError(t, err)
	assert.Contains(t, output, "delegates: 2")
	assert.Contains(t, output, "2 ok / 0 failed")
	assert.Contains(t, output, "score +1.50")
	assert.Contains(t, output, "score -2.00")
	assert.Contains(t, output, "last error: exit status 1")
	assert.Less(t, strings.Index(output, "codex"), strings.Index(output, "claude"))
}

func TestRenderDelegatesEmpty(t *testing.T) {
	output, err := RenderDelegates(nil)

	require.NoError(t, err)
	assert.Contains(t, output, "No delegate outcomes recorded.")
}

func TestRenderProgressBarBounds(t *testing.T) {
	s := newStyles()

	assert.Equal(t, "", renderProgressBar(50, 0, s))
	assert.Contains(t, renderProgressBar(-10, 4, s), "====")
	assert.Contains(t, renderProgressBar(150, 4, s), "----")
}
