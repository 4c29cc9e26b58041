package application

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bnema/agentdeck/internal/domain"
	"github.com/bnema/agentdeck/internal/logger"
	"github.com/bnema/agentdeck/internal/ports"
	"github.com/bnema/agentdeck/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var turnTime = time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)

type harness struct {
	sessions *inMemorySessionRepo
	agents   *inMemoryAgentRepo
	memory   *inMemoryMemoryStore
	backend  *fakeBackend
	builder  *fakeToolBuilder
	events   *eventRecorder
	health   *DelegateHealth
	clock    *steppingClock
	orch     *Orchestrator
}

type harnessOptions struct {
	settings domain.Settings
	agents   []domain.Agent
	usage    ports.UsageLedger
	tools    []*fakeTool
}

func newHarness(session domain.Session, backend *fakeBackend, opts harnessOptions) *harness {
	if session.Provider == "" {
		session.Provider = domain.ProviderOpenAI
	}
	if backend.id == "" {
		backend.id = domain.BackendID(domain.ProviderOpenAI)
	}
	settings := opts.settings
	if settings.PolicyMode == "" {
		settings = domain.DefaultSettings()
	}

	h := &harness{
		sessions: newSessionRepo(session),
		agents:   &inMemoryAgentRepo{agents: opts.agents},
		memory:   &inMemoryMemoryStore{},
		backend:  backend,
		builder:  newToolBuilder(opts.tools...),
		events:   &eventRecorder{},
		clock:    &steppingClock{now: turnTime},
	}
	h.health = NewDelegateHealth(h.clock)
	h.orch = NewOrchestrator(OrchestratorDeps{
		Sessions: h.sessions,
		Agents:   h.agents,
		Settings: staticSettingsRepo{settings: settings},
		Usage:    opts.usage,
		Memory:   h.memory,
		Backends: fakeBackendRouter{backends: map[domain.Provider]ports.Backend{session.Provider: backend}},
		Tools:    h.builder,
		Health:   h.health,
		Clock:    h.clock,
		Logger:   logger.Discard(),
	})
	return h
}

func (h *harness) run(ctx context.Context, req TurnRequest) TurnResult {
	if req.SessionID == "" {
		req.SessionID = "work"
	}
	req.OnEvent = h.events.emit
	return h.orch.Run(ctx, req)
}

func TestOrchestratorRoutesCodingRequest(t *testing.T) {
	h := newHarness(
		domain.Session{ID: "work", Tools: []string{"memory", "shell", "files"}},
		&fakeBackend{text: "Sure, starting on it."},
		harnessOptions{},
	)

	result := h.run(context.Background(), TurnRequest{Message: "Build a calculator app and remember the path"})

	require.Empty(t, result.Error)
	require.NotNil(t, result.Routing)
	assert.Equal(t, domain.IntentCoding, result.Routing.Intent)
	assert.True(t, result.Persisted)

	stored := h.sessions.get("work")
	require.Len(t, stored.Messages, 2)
	assert.Equal(t, domain.RoleUser, stored.Messages[0].Role)
	assert.Equal(t, "Sure, starting on it.", stored.Messages[1].Text)
	assert.Equal(t, turnTime, stored.LastActiveAt)
	assert.Len(t, h.events.ofType(domain.EventDone), 1)
}

func TestOrchestratorSuppressesHeartbeatAck(t *testing.T) {
	session := domain.Session{
		ID: "work",
		Messages: []domain.Message{
			{ID: "hb-1", Role: domain.RoleAssistant, Text: "Deploy finished.", Kind: domain.MessageKindHeartbeat},
		},
	}
	h := newHarness(session, &fakeBackend{text: "HEARTBEAT_OK"}, harnessOptions{})

	result := h.run(context.Background(), TurnRequest{Source: domain.SourceHeartbeat})

	assert.False(t, result.Persisted)
	assert.Equal(t, domain.HeartbeatSuppress, result.Classification)
	assert.Empty(t, result.Text)

	stored := h.sessions.get("work")
	assert.Len(t, stored.Messages, 1)
	assert.True(t, stored.LastActiveAt.IsZero(), "heartbeat runs do not count as activity")
	assert.Equal(t, DefaultHeartbeatPrompt, h.backend.requests[0].Message)
}

func TestOrchestratorHeartbeatDedupesRepeatedReport(t *testing.T) {
	report := "HEARTBEAT_OK " + strings.Repeat("The nightly build is still failing on the lint step. ", 8)
	h := newHarness(domain.Session{ID: "work"}, &fakeBackend{text: report}, harnessOptions{})

	first := h.run(context.Background(), TurnRequest{Source: domain.SourceHeartbeat})
	require.True(t, first.Persisted)
	assert.Equal(t, domain.HeartbeatStrip, first.Classification)
	assert.NotContains(t, first.Text, domain.HeartbeatSentinel)

	second := h.run(context.Background(), TurnRequest{Source: domain.SourceHeartbeat})
	assert.False(t, second.Persisted)

	stored := h.sessions.get("work")
	require.Len(t, stored.Messages, 1)
	assert.Equal(t, domain.MessageKindHeartbeat, stored.Messages[0].Kind)
}

func TestOrchestratorBackendFailureWithoutDelegates(t *testing.T) {
	h := newHarness(domain.Session{ID: "work"}, &fakeBackend{err: errors.New("boom")}, harnessOptions{})

	result := h.run(context.Background(), TurnRequest{Message: "hello there"})

	assert.Equal(t, "boom", result.Error)
	assert.Equal(t, "Error: boom", result.Text)
	assert.True(t, result.Persisted)

	stored := h.sessions.get("work")
	require.Len(t, stored.Messages, 2)
	assert.Equal(t, "Error: boom", stored.Messages[1].Text)

	errs := h.events.ofType(domain.EventError)
	require.Len(t, errs, 1)
	assert.Equal(t, domain.FailureBackend, errs[0].Failure)
	assert.Less(t, h.health.Score(domain.BackendID(domain.ProviderOpenAI)), 0.0)
}

func TestOrchestratorInternalFailurePersistsNothing(t *testing.T) {
	h := newHarness(domain.Session{ID: "work"}, &fakeBackend{err: errors.New("boom")}, harnessOptions{})

	result := h.run(context.Background(), TurnRequest{Message: "sync", Source: domain.SourceSystem, Internal: true})

	assert.Equal(t, "Error: boom", result.Text)
	assert.False(t, result.Persisted)
	assert.Empty(t, h.sessions.get("work").Messages)
}

func TestOrchestratorSpendCapShortCircuits(t *testing.T) {
	ledger := mocks.NewMockUsageLedger(t)
	ledger.EXPECT().DailyCost(mockAnyContext(), mock.Anything, mock.Anything).Return(2.5, nil)

	settings := domain.DefaultSettings()
	settings.DailySpendCapUSD = 2
	h := newHarness(domain.Session{ID: "work"}, &fakeBackend{text: "unused"}, harnessOptions{settings: settings, usage: ledger})

	result := h.run(context.Background(), TurnRequest{Message: "hello there"})

	require.ErrorIs(t, result.Err, domain.ErrBudgetExceeded)
	assert.NotEmpty(t, result.Error)
	assert.True(t, result.Persisted)
	assert.Zero(t, h.backend.calls())

	errs := h.events.ofType(domain.EventError)
	require.Len(t, errs, 1)
	assert.Equal(t, domain.FailureBudgetExceeded, errs[0].Failure)
}

func TestOrchestratorSpendGuardFailsOpen(t *testing.T) {
	settings := domain.DefaultSettings()
	settings.DailySpendCapUSD = 0.01
	h := newHarness(domain.Session{ID: "work"}, &fakeBackend{text: "still here"}, harnessOptions{settings: settings, usage: failingUsageLedger{}})

	result := h.run(context.Background(), TurnRequest{Message: "hello there"})

	require.Empty(t, result.Error)
	assert.Equal(t, 1, h.backend.calls())
	assert.Equal(t, "still here", result.Text)
}

func TestOrchestratorRecordsUsage(t *testing.T) {
	ledger := mocks.NewMockUsageLedger(t)
	ledger.EXPECT().DailyCost(mockAnyContext(), mock.Anything, mock.Anything).Return(0.0, nil)
	ledger.EXPECT().Record(mockAnyContext(), mock.MatchedBy(func(record domain.UsageRecord) bool {
		return record.SessionID == "work" && record.Provider == domain.ProviderOpenAI &&
			record.Usage.OutputTokens == 2 && record.EstimatedCost > 0
	})).Return(nil)

	settings := domain.DefaultSettings()
	settings.DailySpendCapUSD = 10
	h := newHarness(domain.Session{ID: "work"}, &fakeBackend{text: "12345678"}, harnessOptions{settings: settings, usage: ledger})

	result := h.run(context.Background(), TurnRequest{Message: "hello there"})
	require.Empty(t, result.Error)
}

func TestOrchestratorPolicyBlockedToolIsNeverForced(t *testing.T) {
	tests := []struct {
		name     string
		tools    []string
		settings func(*domain.Settings)
	}{
		{
			name:     "blocked session tool",
			tools:    []string{"shell", "web_fetch"},
			settings: func(s *domain.Settings) { s.BlockedTools = []string{"shell"} },
		},
		{
			name:     "named but not enabled",
			tools:    []string{"web_fetch"},
			settings: func(s *domain.Settings) { s.BlockedCategories = []domain.ToolCategory{domain.CategoryExecution} },
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			settings := domain.DefaultSettings()
			tc.settings(&settings)
			shell := &fakeTool{name: "shell", out: "ran"}

			h := newHarness(
				domain.Session{ID: "work", Tools: tc.tools},
				&fakeBackend{text: "Running shell(command=\"rm -rf build\") now, then the shell tool again."},
				harnessOptions{settings: settings, tools: []*fakeTool{shell, {name: "web_fetch"}}},
			)

			result := h.run(context.Background(), TurnRequest{Message: "clean the workspace"})

			assert.Zero(t, shell.calls())
			assert.Equal(t, 1, h.events.warningsNaming("shell", domain.FailurePolicyBlocked))
			assert.NotContains(t, result.Text, "were not run")
		})
	}
}

func TestOrchestratorFailoverFollowsHealthRanking(t *testing.T) {
	log := &callLog{}
	claude := &fakeTool{name: domain.ToolDelegateClaude, err: errors.New("claude unavailable"), log: log}
	codex := &fakeTool{name: domain.ToolDelegateCodex, err: errors.New("codex crashed"), log: log}
	opencode := &fakeTool{name: domain.ToolDelegateOpenCode, out: "patched by opencode", log: log}

	settings := domain.DefaultSettings()
	settings.DelegateOrder = []string{"claude", "codex", "opencode"}

	h := newHarness(
		domain.Session{ID: "work", Tools: []string{domain.ToolDelegateClaude, domain.ToolDelegateCodex, domain.ToolDelegateOpenCode}},
		&fakeBackend{err: errors.New("rate limited")},
		harnessOptions{settings: settings, tools: []*fakeTool{claude, codex, opencode}},
	)
	h.health.MarkSuccess(domain.BackendCodex)
	h.health.MarkSuccess(domain.BackendCodex)
	h.health.MarkSuccess(domain.BackendClaude)
	h.health.MarkFailure(domain.BackendOpenCode, "timeout")

	result := h.run(context.Background(), TurnRequest{Message: "Build a calculator app"})

	assert.Equal(t, []string{domain.ToolDelegateCodex, domain.ToolDelegateClaude, domain.ToolDelegateOpenCode}, log.list())
	assert.Empty(t, result.Error)
	assert.Equal(t, "patched by opencode", result.Text)
	assert.Equal(t, "Build a calculator app", opencode.args[0]["task"])
	require.Len(t, result.ToolEvents, 3)
	assert.True(t, result.ToolEvents[0].Error)
	assert.False(t, result.ToolEvents[2].Error)
	assert.Equal(t, 2, h.events.warningsNaming(domain.ToolDelegateClaude, domain.FailureToolInvocation)+
		h.events.warningsNaming(domain.ToolDelegateCodex, domain.FailureToolInvocation))
}

func TestOrchestratorAutoDelegatesCodingWork(t *testing.T) {
	codex := &fakeTool{name: domain.ToolDelegateCodex, out: "calculator written to ./calc"}
	h := newHarness(
		domain.Session{ID: "work", Tools: []string{"shell", domain.ToolDelegateCodex}},
		&fakeBackend{text: "Plan ready."},
		harnessOptions{tools: []*fakeTool{codex, {name: "shell"}}},
	)

	result := h.run(context.Background(), TurnRequest{Message: "Build a calculator app"})

	require.Equal(t, 1, codex.calls())
	assert.Equal(t, "Build a calculator app", codex.args[0]["task"])
	assert.Equal(t, "Plan ready.\n\ncalculator written to ./calc", result.Text)
	assert.Greater(t, h.health.Score(domain.BackendCodex), 0.0)
}

func TestOrchestratorAutoDelegatesCodingWorkFromCLISession(t *testing.T) {
	claude := &fakeTool{name: domain.ToolDelegateClaude, out: "claude again"}
	codex := &fakeTool{name: domain.ToolDelegateCodex, out: "calculator written to ./calc"}
	h := newHarness(
		domain.Session{ID: "work", Provider: domain.ProviderClaudeCLI, Tools: []string{domain.ToolDelegateClaude, domain.ToolDelegateCodex}},
		&fakeBackend{id: domain.BackendClaude, text: "Plan ready."},
		harnessOptions{tools: []*fakeTool{claude, codex}},
	)

	result := h.run(context.Background(), TurnRequest{Message: "Build a calculator app"})

	assert.Zero(t, claude.calls())
	require.Equal(t, 1, codex.calls())
	assert.Equal(t, "Build a calculator app", codex.args[0]["task"])
	assert.Equal(t, "Plan ready.\n\ncalculator written to ./calc", result.Text)
	require.Len(t, h.backend.requests, 1)
	assert.Nil(t, h.backend.requests[0].Tools)
}

func TestOrchestratorForcesNamedToolCall(t *testing.T) {
	fetch := &fakeTool{name: domain.ToolWebFetch, out: "<html>example</html>"}
	h := newHarness(
		domain.Session{ID: "work", Tools: []string{domain.ToolWebFetch}},
		&fakeBackend{text: `Let me use web_fetch(url="https://example.com/docs") to read it.`},
		harnessOptions{tools: []*fakeTool{fetch}},
	)

	result := h.run(context.Background(), TurnRequest{Message: "read the docs for me"})

	require.Equal(t, 1, fetch.calls())
	assert.Equal(t, "https://example.com/docs", fetch.args[0]["url"])
	require.Len(t, result.ToolEvents, 1)
	require.NotNil(t, result.ToolEvents[0].Output)
	assert.Equal(t, "<html>example</html>", *result.ToolEvents[0].Output)

	stored := h.sessions.get("work")
	require.Len(t, stored.Messages, 2)
	assert.Len(t, stored.Messages[1].ToolEvents, 1)
}

func TestOrchestratorDoesNotForceToolsAlreadyCalled(t *testing.T) {
	shell := &fakeTool{name: "shell"}
	backend := &fakeBackend{
		text: "I ran shell(command=\"ls\") and found two files.",
		events: []domain.StreamEvent{
			{Type: domain.EventToolCall, Tool: "shell", Input: `{"command":"ls"}`},
			{Type: domain.EventToolResult, Tool: "shell", Output: "a.go\nb.go"},
			{Type: domain.EventDone},
		},
	}
	h := newHarness(domain.Session{ID: "work", Tools: []string{"shell"}}, backend, harnessOptions{tools: []*fakeTool{shell}})

	result := h.run(context.Background(), TurnRequest{Message: "list the files"})

	assert.Zero(t, shell.calls())
	require.Len(t, result.ToolEvents, 1)
	assert.Equal(t, "a.go\nb.go", *result.ToolEvents[0].Output)
	assert.Len(t, h.events.ofType(domain.EventDone), 1, "backend done events are replaced by the turn's own")
	assert.NotNil(t, backend.requests[0].Tools)
}

func TestOrchestratorReportsUnfulfilledToolPromise(t *testing.T) {
	h := newHarness(domain.Session{ID: "work"}, &fakeBackend{text: "I checked web_search for you."}, harnessOptions{})

	result := h.run(context.Background(), TurnRequest{Message: "hello there"})

	assert.True(t, strings.HasSuffix(result.Text, "Note: these requested tools were not run: web_search."))
	assert.Equal(t, 1, h.events.warningsNaming(domain.ToolWebSearch, domain.FailurePromisedToolNotInvoked))
	assert.Equal(t, result.Text, h.sessions.get("work").Messages[1].Text)
}

func TestOrchestratorAutoRoutesBrowsing(t *testing.T) {
	fetch := &fakeTool{name: domain.ToolWebFetch, out: "page body"}
	h := newHarness(
		domain.Session{ID: "work", Tools: []string{domain.ToolWebFetch}},
		&fakeBackend{text: "I can't open links directly."},
		harnessOptions{tools: []*fakeTool{fetch}},
	)

	result := h.run(context.Background(), TurnRequest{Message: "visit https://example.com/pricing."})

	require.Equal(t, 1, fetch.calls())
	assert.Equal(t, "https://example.com/pricing", fetch.args[0]["url"])
	assert.Contains(t, result.Text, "page body")
}

func TestOrchestratorAutoRoutesURLOnlyResearch(t *testing.T) {
	fetch := &fakeTool{name: domain.ToolWebFetch, out: "article body"}
	h := newHarness(
		domain.Session{ID: "work", Tools: []string{domain.ToolWebFetch}},
		&fakeBackend{text: "Sounds interesting."},
		harnessOptions{tools: []*fakeTool{fetch}},
	)

	result := h.run(context.Background(), TurnRequest{Message: "thoughts on https://example.org/post?id=1"})

	require.NotNil(t, result.Routing)
	assert.Equal(t, domain.IntentResearch, result.Routing.Intent)
	assert.InDelta(t, urlOnlyConfidence, result.Routing.Confidence, 1e-9)
	require.Equal(t, 1, fetch.calls())
	assert.Equal(t, "https://example.org/post?id=1", fetch.args[0]["url"])
	assert.Equal(t, "Sounds interesting.\n\narticle body", result.Text)
}

func TestOrchestratorSkipsPostRoutingForInternalRuns(t *testing.T) {
	fetch := &fakeTool{name: domain.ToolWebFetch}
	h := newHarness(
		domain.Session{ID: "work", Tools: []string{domain.ToolWebFetch}},
		&fakeBackend{text: `use web_fetch(url="https://example.com")`},
		harnessOptions{tools: []*fakeTool{fetch}},
	)

	result := h.run(context.Background(), TurnRequest{Message: "check", Source: domain.SourceFollowup, Internal: true})

	assert.Zero(t, fetch.calls())
	assert.True(t, result.Persisted)
	stored := h.sessions.get("work")
	require.Len(t, stored.Messages, 1)
	assert.True(t, stored.LastActiveAt.IsZero())
}

func TestOrchestratorCancelSessionKeepsResumeTokens(t *testing.T) {
	started := make(chan struct{})
	backend := &fakeBackend{invokeFn: func(ctx context.Context, _ ports.BackendRequest, emit ports.EmitFunc) (string, error) {
		emit(domain.StreamEvent{Type: domain.EventResumeToken, Backend: "openai", Token: " thread-42 "})
		close(started)
		<-ctx.Done()
		return "", ctx.Err()
	}}
	h := newHarness(domain.Session{ID: "work"}, backend, harnessOptions{})

	done := make(chan TurnResult, 1)
	go func() {
		done <- h.run(context.Background(), TurnRequest{Message: "long task"})
	}()

	<-started
	assert.Equal(t, []domain.SessionID{"work"}, h.orch.ActiveRuns())
	require.True(t, h.orch.CancelSession("work"))
	result := <-done

	require.ErrorIs(t, result.Err, domain.ErrTurnCancelled)
	assert.Equal(t, "turn cancelled", result.Error)
	assert.False(t, result.Persisted)

	stored := h.sessions.get("work")
	assert.Empty(t, stored.Messages)
	assert.Equal(t, "thread-42", stored.ResumeTokens["openai"])
	assert.Empty(t, h.orch.ActiveRuns())
	assert.Zero(t, h.health.Score("openai"), "cancellation is not a backend failure")
}

func TestOrchestratorCallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	backend := &fakeBackend{invokeFn: func(context.Context, ports.BackendRequest, ports.EmitFunc) (string, error) {
		cancel()
		return "partial", nil
	}}
	fetch := &fakeTool{name: domain.ToolWebFetch}
	h := newHarness(domain.Session{ID: "work", Tools: []string{domain.ToolWebFetch}}, backend, harnessOptions{tools: []*fakeTool{fetch}})

	result := h.run(ctx, TurnRequest{Message: `fetch https://example.com`})

	require.ErrorIs(t, result.Err, domain.ErrTurnCancelled)
	assert.Zero(t, fetch.calls())
	assert.Empty(t, h.sessions.get("work").Messages)
}

func TestOrchestratorRejectsConcurrentTurnOnSameSession(t *testing.T) {
	started := make(chan struct{})
	backend := &fakeBackend{invokeFn: func(ctx context.Context, _ ports.BackendRequest, _ ports.EmitFunc) (string, error) {
		close(started)
		<-ctx.Done()
		return "", ctx.Err()
	}}
	h := newHarness(domain.Session{ID: "work"}, backend, harnessOptions{})

	done := make(chan TurnResult, 1)
	go func() {
		done <- h.run(context.Background(), TurnRequest{Message: "first"})
	}()
	<-started

	second := h.run(context.Background(), TurnRequest{Message: "second"})
	require.ErrorIs(t, second.Err, domain.ErrRunInProgress)
	assert.False(t, second.Persisted)

	h.orch.CancelSession("work")
	<-done
	assert.Equal(t, 1, backend.calls())
}

func TestOrchestratorMergesConcurrentWriter(t *testing.T) {
	var h *harness
	backend := &fakeBackend{invokeFn: func(_ context.Context, _ ports.BackendRequest, emit ports.EmitFunc) (string, error) {
		h.sessions.mutate("work", func(s *domain.Session) {
			s.Messages = append(s.Messages, domain.Message{ID: "other", Role: domain.RoleAssistant, Text: "from a connector"})
			s.ResumeTokens = domain.ResumeTokens{domain.BackendCodex: "codex-7"}
		})
		emit(domain.StreamEvent{Type: domain.EventResumeToken, Backend: "openai", Token: "resp-1"})
		return "done here", nil
	}}
	h = newHarness(domain.Session{ID: "work"}, backend, harnessOptions{})

	result := h.run(context.Background(), TurnRequest{Message: "hello there"})
	require.Empty(t, result.Error)

	stored := h.sessions.get("work")
	require.Len(t, stored.Messages, 3)
	assert.Equal(t, "from a connector", stored.Messages[0].Text)
	assert.Equal(t, "done here", stored.Messages[2].Text)
	assert.Equal(t, domain.ResumeTokens{domain.BackendCodex: "codex-7", "openai": "resp-1"}, stored.ResumeTokens)
}

func TestOrchestratorQuietHeartbeatOnMainSkipsTools(t *testing.T) {
	session := domain.Session{
		ID:       domain.MainSessionID,
		Tools:    []string{"shell", "memory"},
		MainLoop: &domain.MainLoopState{Status: domain.MissionStatusOK},
	}
	settings := domain.DefaultSettings()
	settings.BlockedTools = []string{"shell"}
	h := newHarness(session, &fakeBackend{text: "HEARTBEAT_OK"}, harnessOptions{settings: settings, tools: []*fakeTool{{name: "memory"}}})

	result := h.run(context.Background(), TurnRequest{SessionID: domain.MainSessionID, Source: domain.SourceHeartbeat})

	assert.False(t, result.Persisted)
	assert.Empty(t, h.builder.reqs)
	assert.Nil(t, h.backend.requests[0].Tools)
	assert.Empty(t, h.events.ofType(domain.EventWarning))

	stored := h.sessions.get(domain.MainSessionID)
	assert.Equal(t, turnTime, stored.MainLoop.LastHeartbeatAt)
	assert.True(t, stored.LastActiveAt.IsZero())
}

func TestOrchestratorResyncsAgentAndJournals(t *testing.T) {
	agent := domain.Agent{ID: "builder", Name: "Builder", Provider: domain.ProviderOpenAI, Model: "gpt-4.1", SystemPrompt: "Be brief."}
	session := domain.Session{ID: "work", AgentID: "builder", Model: "gpt-4o-mini", Tools: []string{"memory"}}
	h := newHarness(session, &fakeBackend{text: longResponse}, harnessOptions{
		agents: []domain.Agent{agent},
		tools:  []*fakeTool{{name: "memory"}},
	})

	result := h.run(context.Background(), TurnRequest{Message: "Build a calculator app and remember the path"})
	require.Empty(t, result.Error)

	assert.Equal(t, "Be brief.", h.backend.requests[0].SystemPrompt)
	assert.Equal(t, "gpt-4.1", h.backend.requests[0].Session.Model)
	assert.Equal(t, 1, h.memory.count())

	stored := h.sessions.get("work")
	assert.Equal(t, "gpt-4.1", stored.Model)
	assert.Equal(t, turnTime, stored.LastAutoMemoryAt())

	h.clock.advance(time.Minute)
	h.run(context.Background(), TurnRequest{Message: "Build a calculator app and remember the path"})
	assert.Equal(t, 1, h.memory.count(), "second note inside the interval is skipped")
}

func TestOrchestratorUnknownSession(t *testing.T) {
	h := newHarness(domain.Session{ID: "work"}, &fakeBackend{}, harnessOptions{})

	result := h.run(context.Background(), TurnRequest{SessionID: "ghost", Message: "hi"})

	require.ErrorIs(t, result.Err, domain.ErrSessionNotFound)
	assert.False(t, result.Persisted)
	assert.Zero(t, h.backend.calls())
}
