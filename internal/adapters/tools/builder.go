package tools

import (
	"context"
	"sort"
	"sync"

	"github.com/bnema/agentdeck/internal/domain"
	"github.com/bnema/agentdeck/internal/logger"
	"github.com/bnema/agentdeck/internal/ports"
	"github.com/charmbracelet/log"
)

// Builder assembles the tools this process can run. Enabled tools it has no
// implementation for are skipped; the orchestrator treats them as unavailable.
type Builder struct {
	memory    ports.MemoryStore
	backends  ports.BackendRouter
	connector ports.ConnectorSender
	clock     ports.Clock
	log       *log.Logger
}

var _ ports.ToolSetBuilder = (*Builder)(nil)

func NewBuilder(memory ports.MemoryStore, backends ports.BackendRouter, connector ports.ConnectorSender, clock ports.Clock, l *log.Logger) *Builder {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &Builder{memory: memory, backends: backends, connector: connector, clock: clock, log: logger.OrDefault(l)}
}

func (b *Builder) Build(ctx context.Context, req ports.ToolSetRequest) (ports.ToolSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	emit := req.Emit
	if emit == nil {
		emit = func(domain.StreamEvent) {}
	}

	scope, cancel := context.WithCancel(context.Background())
	set := &toolSet{handles: map[string]ports.ToolHandle{}, scope: scope, cancel: cancel}

	for _, name := range domain.NormalizeToolList(req.Enabled) {
		var handle ports.ToolHandle
		switch {
		case name == domain.ToolMemory && b.memory != nil:
			handle = &memoryTool{store: b.memory, session: req.Session, agent: req.Agent, clock: b.clock}
		case name == domain.ToolConnectorSend && b.connector != nil:
			handle = &connectorTool{sender: b.connector}
		case domain.IsDelegateTool(name) && b.backends != nil:
			id, _ := domain.DelegateForTool(name)
			backend, err := b.backends.Delegate(id)
			if err != nil {
				b.log.Debug("delegate not wired", "delegate", id, "err", err)
				continue
			}
			handle = &delegateTool{name: name, id: id, backend: backend, cwd: req.Cwd, emit: emit}
		default:
			continue
		}
		set.handles[name] = scoped{ToolHandle: handle, set: set}
	}

	b.log.Debug("tool set built", "session", req.Session.ID, "tools", len(set.handles))
	return set, nil
}

type toolSet struct {
	handles map[string]ports.ToolHandle

	scope  context.Context
	cancel context.CancelFunc
	once   sync.Once
}

func (s *toolSet) Tools() []ports.ToolHandle {
	names := make([]string, 0, len(s.handles))
	for name := range s.handles {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]ports.ToolHandle, 0, len(names))
	for _, name := range names {
		out = append(out, s.handles[name])
	}
	return out
}

func (s *toolSet) Lookup(name string) (ports.ToolHandle, bool) {
	handle, ok := s.handles[domain.NormalizeToolName(name)]
	return handle, ok
}

// Close aborts in-flight calls. Handles fail with domain.ErrToolUnavailable afterwards.
func (s *toolSet) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// scoped ties a handle to its set's lifetime.
type scoped struct {
	ports.ToolHandle
	set *toolSet
}

func (h scoped) Invoke(ctx context.Context, args map[string]string) (string, error) {
	if h.set.scope.Err() != nil {
		return "", domain.ErrToolUnavailable
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(h.set.scope, cancel)
	defer stop()

	return h.ToolHandle.Invoke(ctx, args)
}
