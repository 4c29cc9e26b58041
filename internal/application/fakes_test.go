package application

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/bnema/agentdeck/internal/domain"
	"github.com/bnema/agentdeck/internal/ports"
	"github.com/stretchr/testify/mock"
)

func mockAnyContext() interface{} {
	return mock.Anything
}

type fixedClock struct {
	now time.Time
}

func (f fixedClock) Now() time.Time {
	return f.now
}

type inMemorySessionRepo struct {
	mu       sync.Mutex
	sessions map[domain.SessionID]domain.Session
	saves    int
}

func newSessionRepo(sessions ...domain.Session) *inMemorySessionRepo {
	repo := &inMemorySessionRepo{sessions: map[domain.SessionID]domain.Session{}}
	for _, session := range sessions {
		repo.sessions[session.ID] = session.Clone()
	}
	return repo
}

func (r *inMemorySessionRepo) GetByID(_ context.Context, id domain.SessionID) (domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[id]
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return session.Clone(), nil
}

func (r *inMemorySessionRepo) List(_ context.Context) ([]domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.Session, 0, len(r.sessions))
	for _, session := range r.sessions {
		out = append(out, session.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *inMemorySessionRepo) Save(_ context.Context, session domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.saves++
	r.sessions[session.ID] = session.Clone()
	return nil
}

func (r *inMemorySessionRepo) Delete(_ context.Context, id domain.SessionID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return domain.ErrSessionNotFound
	}
	delete(r.sessions, id)
	return nil
}

func (r *inMemorySessionRepo) get(id domain.SessionID) domain.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[id].Clone()
}

// mutate changes the stored session directly, like a concurrent writer would.
func (r *inMemorySessionRepo) mutate(id domain.SessionID, fn func(*domain.Session)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session := r.sessions[id]
	fn(&session)
	r.sessions[id] = session
}

type inMemoryAgentRepo struct {
	agents []domain.Agent
}

func (r *inMemoryAgentRepo) GetByID(_ context.Context, id domain.AgentID) (domain.Agent, error) {
	for _, agent := range r.agents {
		if agent.ID == id {
			return agent, nil
		}
	}
	return domain.Agent{}, domain.ErrAgentNotFound
}

func (r *inMemoryAgentRepo) List(_ context.Context) ([]domain.Agent, error) {
	return append([]domain.Agent(nil), r.agents...), nil
}

func (r *inMemoryAgentRepo) Save(_ context.Context, agent domain.Agent) error {
	for i := range r.agents {
		if r.agents[i].ID == agent.ID {
			r.agents[i] = agent
			return nil
		}
	}
	r.agents = append(r.agents, agent)
	return nil
}

func (r *inMemoryAgentRepo) Delete(_ context.Context, id domain.AgentID) error {
	for i := range r.agents {
		if r.agents[i].ID == id {
			r.agents = append(r.agents[:i], r.agents[i+1:]...)
			return nil
		}
	}
	return domain.ErrAgentNotFound
}

type staticSettingsRepo struct {
	settings domain.Settings
	err      error
}

func (r staticSettingsRepo) Load(_ context.Context) (domain.Settings, error) {
	return r.settings, r.err
}

func (r staticSettingsRepo) Save(_ context.Context, _ domain.Settings) error {
	return nil
}

type inMemoryMemoryStore struct {
	mu      sync.Mutex
	entries []domain.MemoryEntry
}

func (s *inMemoryMemoryStore) Add(_ context.Context, entry domain.MemoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *inMemoryMemoryStore) LatestBySessionCategory(_ context.Context, sessionID domain.SessionID, category string) (domain.MemoryEntry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].SessionID == sessionID && s.entries[i].Category == category {
			return s.entries[i], true, nil
		}
	}
	return domain.MemoryEntry{}, false, nil
}

func (s *inMemoryMemoryStore) Search(_ context.Context, _ domain.AgentID, _ string, _ int) ([]domain.MemoryEntry, error) {
	return nil, nil
}

func (s *inMemoryMemoryStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

type fakeBackend struct {
	id       domain.BackendID
	text     string
	err      error
	events   []domain.StreamEvent
	invokeFn func(ctx context.Context, req ports.BackendRequest, emit ports.EmitFunc) (string, error)

	mu       sync.Mutex
	requests []ports.BackendRequest
}

func (b *fakeBackend) ID() domain.BackendID {
	return b.id
}

func (b *fakeBackend) Invoke(ctx context.Context, req ports.BackendRequest, emit ports.EmitFunc) (string, error) {
	b.mu.Lock()
	b.requests = append(b.requests, req)
	b.mu.Unlock()

	if b.invokeFn != nil {
		return b.invokeFn(ctx, req, emit)
	}
	for _, ev := range b.events {
		emit(ev)
	}
	return b.text, b.err
}

func (b *fakeBackend) calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.requests)
}

type fakeBackendRouter struct {
	backends map[domain.Provider]ports.Backend
}

func (r fakeBackendRouter) ForProvider(provider domain.Provider) (ports.Backend, error) {
	backend, ok := r.backends[provider]
	if !ok {
		return nil, domain.ErrBackendUnavailable
	}
	return backend, nil
}

func (r fakeBackendRouter) Delegate(id domain.BackendID) (ports.Backend, error) {
	for _, backend := range r.backends {
		if backend.ID() == id {
			return backend, nil
		}
	}
	return nil, domain.ErrBackendUnavailable
}

type callLog struct {
	mu    sync.Mutex
	names []string
}

func (l *callLog) add(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.names = append(l.names, name)
}

func (l *callLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.names...)
}

type fakeTool struct {
	name string
	out  string
	err  error
	log  *callLog

	mu   sync.Mutex
	args []map[string]string
}

func (t *fakeTool) Name() string        { return t.name }
func (t *fakeTool) Description() string { return "fake " + t.name }

func (t *fakeTool) Invoke(_ context.Context, args map[string]string) (string, error) {
	t.mu.Lock()
	t.args = append(t.args, args)
	t.mu.Unlock()
	if t.log != nil {
		t.log.add(t.name)
	}
	return t.out, t.err
}

func (t *fakeTool) calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.args)
}

type fakeToolSet struct {
	tools  map[string]*fakeTool
	closed bool
}

func (s *fakeToolSet) Tools() []ports.ToolHandle {
	out := make([]ports.ToolHandle, 0, len(s.tools))
	for _, tool := range s.tools {
		out = append(out, tool)
	}
	return out
}

func (s *fakeToolSet) Lookup(name string) (ports.ToolHandle, bool) {
	tool, ok := s.tools[name]
	if !ok {
		return nil, false
	}
	return tool, true
}

func (s *fakeToolSet) Close() error {
	s.closed = true
	return nil
}

// fakeToolBuilder hands out the subset of its pool that the request enables.
type fakeToolBuilder struct {
	pool  map[string]*fakeTool
	built []*fakeToolSet
	reqs  []ports.ToolSetRequest
}

func newToolBuilder(tools ...*fakeTool) *fakeToolBuilder {
	pool := make(map[string]*fakeTool, len(tools))
	for _, tool := range tools {
		pool[tool.name] = tool
	}
	return &fakeToolBuilder{pool: pool}
}

func (b *fakeToolBuilder) Build(_ context.Context, req ports.ToolSetRequest) (ports.ToolSet, error) {
	b.reqs = append(b.reqs, req)
	set := &fakeToolSet{tools: map[string]*fakeTool{}}
	for _, name := range req.Enabled {
		if tool, ok := b.pool[name]; ok {
			set.tools[name] = tool
		}
	}
	b.built = append(b.built, set)
	return set, nil
}

type eventRecorder struct {
	mu     sync.Mutex
	events []domain.StreamEvent
}

func (r *eventRecorder) emit(ev domain.StreamEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *eventRecorder) ofType(t domain.EventType) []domain.StreamEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.StreamEvent, 0)
	for _, ev := range r.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

func (r *eventRecorder) warningsNaming(tool string, kind domain.FailureKind) int {
	count := 0
	for _, ev := range r.ofType(domain.EventWarning) {
		if ev.Failure != kind {
			continue
		}
		for _, name := range ev.Tools {
			if name == tool {
				count++
				break
			}
		}
	}
	return count
}

type failingUsageLedger struct{}

func (failingUsageLedger) Record(context.Context, domain.UsageRecord) error {
	return errors.New("ledger offline")
}

func (failingUsageLedger) DailyCost(context.Context, time.Time, time.Time) (float64, error) {
	return 0, errors.New("ledger offline")
}

func (failingUsageLedger) List(context.Context, time.Time) ([]domain.UsageRecord, error) {
	return nil, errors.New("ledger offline")
}
