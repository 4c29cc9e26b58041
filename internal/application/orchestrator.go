package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bnema/agentdeck/internal/domain"
	"github.com/bnema/agentdeck/internal/logger"
	"github.com/bnema/agentdeck/internal/ports"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type OrchestratorDeps struct {
	Sessions    ports.SessionRepository
	Agents      ports.AgentRepository
	Settings    ports.SettingsRepository
	Usage       ports.UsageLedger
	Memory      ports.MemoryStore
	Credentials ports.CredentialStore
	Backends    ports.BackendRouter
	Tools       ports.ToolSetBuilder
	Connector   ports.ConnectorSender
	Health      *DelegateHealth
	Registry    *RunRegistry
	Clock       ports.Clock
	Logger      *log.Logger
}

// Orchestrator runs one turn per call. Turns on different sessions are independent;
// a second turn on a busy session is rejected with domain.ErrRunInProgress.
type Orchestrator struct {
	sessions    ports.SessionRepository
	agents      ports.AgentRepository
	settings    ports.SettingsRepository
	usage       ports.UsageLedger
	credentials ports.CredentialStore
	backends    ports.BackendRouter
	tools       ports.ToolSetBuilder
	connector   ports.ConnectorSender
	health      *DelegateHealth
	registry    *RunRegistry
	router      *CapabilityRouter
	gate        *MemoryGate
	guard       *SpendGuard
	clock       ports.Clock
	log         *log.Logger
}

func NewOrchestrator(deps OrchestratorDeps) *Orchestrator {
	clock := deps.Clock
	if clock == nil {
		clock = ports.SystemClock{}
	}
	health := deps.Health
	if health == nil {
		health = NewDelegateHealth(clock)
	}
	registry := deps.Registry
	if registry == nil {
		registry = NewRunRegistry()
	}
	l := logger.OrDefault(deps.Logger)

	return &Orchestrator{
		sessions:    deps.Sessions,
		agents:      deps.Agents,
		settings:    deps.Settings,
		usage:       deps.Usage,
		credentials: deps.Credentials,
		backends:    deps.Backends,
		tools:       deps.Tools,
		connector:   deps.Connector,
		health:      health,
		registry:    registry,
		router:      NewCapabilityRouter(),
		gate:        NewMemoryGate(deps.Memory, clock),
		guard:       NewSpendGuard(deps.Usage, l),
		clock:       clock,
		log:         l,
	}
}

func (o *Orchestrator) Health() *DelegateHealth {
	return o.health
}

// CancelSession aborts the active run for id, if any.
func (o *Orchestrator) CancelSession(id domain.SessionID) bool {
	return o.registry.Cancel(id)
}

func (o *Orchestrator) ActiveRuns() []domain.SessionID {
	return o.registry.Active()
}

// Run executes one turn. It never returns a Go error: failures are carried on the
// result and on the event stream.
func (o *Orchestrator) Run(ctx context.Context, req TurnRequest) TurnResult {
	if req.Source == "" {
		req.Source = domain.SourceChat
	}
	if req.Source == domain.SourceHeartbeat {
		req.Internal = true
		if strings.TrimSpace(req.Message) == "" {
			req.Message = DefaultHeartbeatPrompt
		}
	}

	t := &turn{
		o:      o,
		req:    req,
		tokens: map[domain.BackendID]string{},
		warned: map[string]struct{}{},
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	release, err := o.registry.Register(req.SessionID, cancel)
	if err != nil {
		return t.fail(err)
	}
	defer release()

	return t.run(runCtx)
}

type turn struct {
	o   *Orchestrator
	req TurnRequest

	session  domain.Session
	agent    domain.Agent
	hasAgent bool
	settings domain.Settings
	spent    float64
	policy   domain.ToolPolicy
	tools    ports.ToolSet

	mu         sync.Mutex
	toolEvents []domain.ToolEvent
	tokens     map[domain.BackendID]string
	warned     map[string]struct{}
}

func (t *turn) run(ctx context.Context) TurnResult {
	// Persistence must happen even after the run scope is cancelled.
	persistCtx := context.WithoutCancel(ctx)

	if err := t.init(ctx); err != nil {
		return t.fail(err)
	}

	if err := t.o.guard.Evaluate(t.settings, t.spent); err != nil {
		return t.budgetExceeded(persistCtx, err)
	}

	t.resolvePolicy()
	defer t.closeTools()
	t.buildTools(ctx)

	text, backendID, invokeErr := t.invoke(ctx)
	if ctx.Err() != nil {
		return t.cancelled(persistCtx)
	}
	if invokeErr != nil {
		t.o.log.Warn("backend invocation failed", "session", t.req.SessionID, "backend", backendID, "err", invokeErr)
		t.emit(domain.StreamEvent{
			Type:    domain.EventError,
			Text:    invokeErr.Error(),
			Backend: backendID,
			Failure: domain.FailureBackend,
		})
	}

	decision := t.o.router.Classify(t.req.Message, t.policy.Enabled, t.settings)
	if t.postRoutingEligible() {
		text, invokeErr = t.postRoute(ctx, text, invokeErr, backendID, decision)
		if ctx.Err() != nil {
			return t.cancelled(persistCtx)
		}
	}

	return t.finish(persistCtx, text, invokeErr, decision)
}

func (t *turn) init(ctx context.Context) error {
	session, err := t.o.sessions.GetByID(ctx, t.req.SessionID)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	t.session = session

	g, gctx := errgroup.WithContext(ctx)
	if session.AgentID != "" && t.o.agents != nil {
		g.Go(func() error {
			agent, err := t.o.agents.GetByID(gctx, session.AgentID)
			if err != nil {
				if errors.Is(err, domain.ErrAgentNotFound) {
					t.o.log.Warn("session agent is missing, using session binding", "session", session.ID, "agent", session.AgentID)
					return nil
				}
				return fmt.Errorf("load agent: %w", err)
			}
			t.agent, t.hasAgent = agent, true
			return nil
		})
	}
	g.Go(func() error {
		t.settings = domain.DefaultSettings()
		if t.o.settings == nil {
			return nil
		}
		settings, err := t.o.settings.Load(gctx)
		if err != nil {
			t.o.log.Warn("settings unavailable, using defaults", "err", err)
			return nil
		}
		settings.ApplyDefaults()
		t.settings = settings
		return nil
	})
	g.Go(func() error {
		t.spent = t.o.guard.Spent(gctx, t.o.clock.Now())
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	if t.hasAgent {
		t.session.Provider = t.agent.Provider
		if t.agent.Model != "" {
			t.session.Model = t.agent.Model
		}
		t.session.CredentialID = t.agent.CredentialID
	}

	return nil
}

func (t *turn) resolvePolicy() {
	t.policy = ResolveToolPolicy(t.session.Tools, t.settings)

	if t.heartbeatStatusOnly() {
		t.policy.Enabled = []string{}
		return
	}

	if len(t.policy.Blocked) == 0 {
		return
	}

	parts := make([]string, 0, len(t.policy.Blocked))
	for _, blocked := range t.policy.Blocked {
		parts = append(parts, blocked.Reason)
		t.warned[blocked.Tool] = struct{}{}
	}
	t.emit(domain.StreamEvent{
		Type:    domain.EventWarning,
		Text:    "Tools blocked for this run: " + strings.Join(parts, "; "),
		Tools:   t.policy.BlockedNames(),
		Failure: domain.FailurePolicyBlocked,
	})
}

// heartbeatStatusOnly is a heartbeat on the main session with nothing in flight.
func (t *turn) heartbeatStatusOnly() bool {
	if t.req.Source != domain.SourceHeartbeat || !t.session.IsMain() {
		return false
	}
	status := t.session.MissionStatus()
	return status == domain.MissionStatusOK || status == domain.MissionStatusIdle
}

func (t *turn) buildTools(ctx context.Context) {
	if len(t.policy.Enabled) == 0 || t.o.tools == nil {
		return
	}

	tools, err := t.o.tools.Build(ctx, ports.ToolSetRequest{
		Cwd:     t.session.Cwd,
		Enabled: t.policy.Enabled,
		Session: t.session,
		Agent:   t.agent,
		Emit:    t.emit,
	})
	if err != nil {
		t.o.log.Warn("tool set unavailable", "session", t.req.SessionID, "err", err)
		t.emit(domain.StreamEvent{
			Type:    domain.EventWarning,
			Text:    fmt.Sprintf("Tools unavailable for this run: %v", err),
			Failure: domain.FailureToolInvocation,
		})
		return
	}
	t.tools = tools
}

func (t *turn) closeTools() {
	if t.tools == nil {
		return
	}
	if err := t.tools.Close(); err != nil {
		t.o.log.Warn("close tool set", "session", t.req.SessionID, "err", err)
	}
}

func (t *turn) invoke(ctx context.Context) (string, domain.BackendID, error) {
	backendID := t.session.Provider.Backend()
	if t.o.backends == nil {
		return "", backendID, domain.ErrBackendUnavailable
	}

	backend, err := t.o.backends.ForProvider(t.session.Provider)
	if err != nil {
		return "", backendID, fmt.Errorf("select backend: %w", err)
	}
	backendID = backend.ID()

	apiKey, err := ResolveAPIKey(ctx, t.o.credentials, t.session.Provider, t.session.CredentialID)
	if err != nil {
		return "", backendID, err
	}

	req := ports.BackendRequest{
		Session:      t.session,
		Message:      t.req.Message,
		ImagePath:    t.req.ImagePath,
		APIKey:       apiKey,
		SystemPrompt: t.agent.SystemPrompt,
		History:      t.session.History(t.settings.HistoryLimit),
		ResumeToken:  t.session.ResumeTokens[backendID],
	}
	if t.tools != nil && !t.session.Provider.IsCLI() {
		req.Tools = t.tools
	}

	t.o.log.Debug("invoking backend", "session", t.req.SessionID, "backend", backendID, "tools", len(t.policy.Enabled))
	text, err := backend.Invoke(ctx, req, t.observe)
	t.recordUsage(ctx, req, text)

	if err != nil {
		if ctx.Err() == nil {
			t.o.health.MarkFailure(backendID, err.Error())
		}
		return text, backendID, err
	}

	t.o.health.MarkSuccess(backendID)
	return text, backendID, nil
}

func (t *turn) recordUsage(ctx context.Context, req ports.BackendRequest, output string) {
	if t.o.usage == nil || ctx.Err() != nil {
		return
	}

	input := domain.EstimateTokens(req.SystemPrompt) + domain.EstimateTokens(req.Message)
	for _, msg := range req.History {
		input += domain.EstimateTokens(msg.Text)
	}
	usage := domain.TokenUsage{InputTokens: input, OutputTokens: domain.EstimateTokens(output)}

	record := domain.UsageRecord{
		ID:            uuid.NewString(),
		SessionID:     t.session.ID,
		AgentID:       t.session.AgentID,
		Provider:      t.session.Provider,
		Model:         t.session.Model,
		Usage:         usage,
		EstimatedCost: domain.EstimateCost(t.session.Provider, usage, t.settings.CostPer1KTokens),
		CreatedAt:     t.o.clock.Now(),
	}
	if err := t.o.usage.Record(ctx, record); err != nil {
		t.o.log.Warn("record usage", "session", t.session.ID, "err", err)
	}
}

func (t *turn) finish(ctx context.Context, text string, invokeErr error, decision domain.RoutingDecision) TurnResult {
	final := text
	result := TurnResult{Routing: &decision}
	if invokeErr != nil {
		final = "Error: " + invokeErr.Error()
		result.Error = invokeErr.Error()
		result.Err = invokeErr
	}
	result.Text = final

	now := t.o.clock.Now()
	kind := domain.MessageKindChat
	persistText := final

	switch {
	case t.req.Source == domain.SourceHeartbeat:
		kind = domain.MessageKindHeartbeat
		if invokeErr != nil {
			persistText = ""
			break
		}
		class, out := ClassifyHeartbeat(text, t.ackMaxChars())
		result.Classification = class
		result.Text = out
		persistText = out
	case t.req.Internal && invokeErr != nil:
		persistText = ""
	}

	patch := SessionPatch{
		ResumeTokens: t.observedTokens(),
		Binding:      t.binding(),
	}
	if !t.req.Internal {
		patch.Messages = append(patch.Messages, t.userMessage(now))
	}
	if t.req.Source.TouchesActivity() {
		patch.LastActiveAt = now
	}
	if t.req.Source == domain.SourceHeartbeat && t.session.IsMain() {
		patch.LastHeartbeatAt = now
	}

	fresh, err := t.o.sessions.GetByID(ctx, t.req.SessionID)
	if err != nil {
		return t.persistFailed(result, fmt.Errorf("reload session: %w", err))
	}

	if kind == domain.MessageKindHeartbeat && strings.TrimSpace(persistText) != "" {
		if last, ok := fresh.LastAssistantOfKind(domain.MessageKindHeartbeat); ok && strings.TrimSpace(last.Text) == strings.TrimSpace(persistText) {
			t.o.log.Debug("heartbeat response unchanged, not persisting", "session", t.req.SessionID)
			persistText = ""
		}
	}

	if invokeErr == nil && t.settings.AutoMemoryEnabled &&
		t.o.gate.ShouldJournal(fresh, t.req.Source, t.req.Internal, t.req.Message, final, now) {
		_, journaled, err := t.o.gate.Journal(ctx, fresh, t.req.Message, final)
		if err != nil {
			t.o.log.Warn("auto memory journal failed", "session", t.req.SessionID, "err", err)
		} else if journaled {
			patch.AutoMemoryAt = now
		}
	}

	assistantAdded := false
	if strings.TrimSpace(persistText) != "" {
		patch.Messages = append(patch.Messages, domain.Message{
			ID:         uuid.NewString(),
			Role:       domain.RoleAssistant,
			Text:       persistText,
			Time:       now,
			ToolEvents: t.toolEventsSnapshot(),
			Kind:       kind,
		})
		assistantAdded = true
	}

	if err := t.o.sessions.Save(ctx, MergeSessionPatch(fresh, patch)); err != nil {
		return t.persistFailed(result, fmt.Errorf("save session: %w", err))
	}

	result.Persisted = assistantAdded
	result.ToolEvents = t.toolEventsSnapshot()
	t.emit(domain.StreamEvent{Type: domain.EventDone, Text: result.Text})

	return result
}

func (t *turn) budgetExceeded(ctx context.Context, err error) TurnResult {
	t.o.log.Warn("daily spend cap reached, skipping turn", "session", t.req.SessionID, "spent", t.spent, "cap", t.settings.DailySpendCapUSD)
	t.emit(domain.StreamEvent{Type: domain.EventError, Text: err.Error(), Failure: domain.FailureBudgetExceeded})

	result := TurnResult{Text: "Error: " + err.Error(), Error: err.Error(), Err: err}
	if t.req.Internal {
		t.emit(domain.StreamEvent{Type: domain.EventDone, Text: result.Text})
		return result
	}

	now := t.o.clock.Now()
	fresh, loadErr := t.o.sessions.GetByID(ctx, t.req.SessionID)
	if loadErr != nil {
		return t.persistFailed(result, fmt.Errorf("reload session: %w", loadErr))
	}
	merged := MergeSessionPatch(fresh, SessionPatch{
		Messages: []domain.Message{
			t.userMessage(now),
			{ID: uuid.NewString(), Role: domain.RoleAssistant, Text: result.Text, Time: now, Kind: domain.MessageKindChat},
		},
		LastActiveAt: now,
	})
	if saveErr := t.o.sessions.Save(ctx, merged); saveErr != nil {
		return t.persistFailed(result, fmt.Errorf("save session: %w", saveErr))
	}

	result.Persisted = true
	t.emit(domain.StreamEvent{Type: domain.EventDone, Text: result.Text})
	return result
}

// cancelled ends an aborted turn. Nothing is appended to the transcript, but
// resume tokens seen before the abort are kept so the backend stays resumable.
func (t *turn) cancelled(ctx context.Context) TurnResult {
	t.o.log.Info("turn cancelled", "session", t.req.SessionID)
	result := TurnResult{
		Error:      domain.ErrTurnCancelled.Error(),
		Err:        domain.ErrTurnCancelled,
		ToolEvents: t.toolEventsSnapshot(),
	}

	if tokens := t.observedTokens(); len(tokens) > 0 {
		fresh, err := t.o.sessions.GetByID(ctx, t.req.SessionID)
		if err == nil {
			err = t.o.sessions.Save(ctx, MergeSessionPatch(fresh, SessionPatch{ResumeTokens: tokens}))
		}
		if err != nil {
			t.o.log.Warn("keep resume tokens after cancel", "session", t.req.SessionID, "err", err)
		}
	}

	t.emit(domain.StreamEvent{Type: domain.EventError, Text: result.Error})
	return result
}

func (t *turn) fail(err error) TurnResult {
	t.o.log.Warn("turn failed", "session", t.req.SessionID, "err", err)
	t.emit(domain.StreamEvent{Type: domain.EventError, Text: err.Error()})
	return TurnResult{Text: "Error: " + err.Error(), Error: err.Error(), Err: err}
}

func (t *turn) persistFailed(result TurnResult, err error) TurnResult {
	t.o.log.Error("persist turn", "session", t.req.SessionID, "err", err)
	t.emit(domain.StreamEvent{Type: domain.EventError, Text: err.Error()})
	result.Persisted = false
	result.ToolEvents = t.toolEventsSnapshot()
	if result.Err == nil {
		result.Err = err
		result.Error = err.Error()
	} else {
		result.Err = errors.Join(result.Err, err)
	}
	return result
}

func (t *turn) ackMaxChars() int {
	if t.hasAgent && t.agent.HeartbeatAckMaxChars > 0 {
		return t.agent.HeartbeatAckMaxChars
	}
	return t.settings.HeartbeatAckMaxChars
}

func (t *turn) binding() *AgentBinding {
	if !t.hasAgent {
		return nil
	}
	return &AgentBinding{
		Provider:     t.session.Provider,
		Model:        t.session.Model,
		CredentialID: t.session.CredentialID,
	}
}

func (t *turn) userMessage(now time.Time) domain.Message {
	return domain.Message{
		ID:        uuid.NewString(),
		Role:      domain.RoleUser,
		Text:      t.req.Message,
		Time:      now,
		ImagePath: t.req.ImagePath,
		Kind:      domain.MessageKindChat,
	}
}

func (t *turn) emit(ev domain.StreamEvent) {
	if t.req.OnEvent == nil {
		return
	}
	ev.SessionID = t.req.SessionID
	if ev.Time.IsZero() {
		ev.Time = t.o.clock.Now()
	}
	t.req.OnEvent(ev)
}

// observe is handed to backends. Tool calls and results build the run's ToolEvents;
// backend err/done events are replaced by the turn's own.
func (t *turn) observe(ev domain.StreamEvent) {
	t.mu.Lock()
	switch ev.Type {
	case domain.EventToolCall:
		t.toolEvents = append(t.toolEvents, domain.ToolEvent{Name: domain.NormalizeToolName(ev.Tool), Input: ev.Input})
	case domain.EventToolResult:
		t.matchResultLocked(domain.NormalizeToolName(ev.Tool), ev.Output, ev.IsError)
	case domain.EventResumeToken:
		if ev.Backend != "" {
			t.tokens[ev.Backend] = ev.Token
		}
	}
	t.mu.Unlock()

	if ev.Type == domain.EventError || ev.Type == domain.EventDone {
		return
	}
	t.emit(ev)
}

// matchResultLocked pairs an output with the most recent unmatched call of the same tool.
func (t *turn) matchResultLocked(name, output string, isError bool) {
	for i := len(t.toolEvents) - 1; i >= 0; i-- {
		event := &t.toolEvents[i]
		if event.Name != name || event.Output != nil {
			continue
		}
		out := output
		event.Output = &out
		event.Error = isError
		return
	}
}

func (t *turn) toolEventsSnapshot() []domain.ToolEvent {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.toolEvents) == 0 {
		return nil
	}
	return append([]domain.ToolEvent(nil), t.toolEvents...)
}

func (t *turn) observedTokens() map[domain.BackendID]string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.tokens) == 0 {
		return nil
	}
	out := make(map[domain.BackendID]string, len(t.tokens))
	for backend, token := range t.tokens {
		out[backend] = token
	}
	return out
}
