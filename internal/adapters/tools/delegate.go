package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/agentdeck/internal/domain"
	"github.com/bnema/agentdeck/internal/ports"
)

// delegateTool hands a task to a CLI coding agent and returns its final answer.
// The agent's stream is forwarded live, tagged with the delegate's backend id.
type delegateTool struct {
	name    string
	id      domain.BackendID
	backend ports.Backend
	cwd     string
	emit    ports.EmitFunc
}

func (t *delegateTool) Name() string { return t.name }

func (t *delegateTool) Description() string {
	return fmt.Sprintf("Delegate a coding task to the %s agent. Pass task with a complete description of the work.", t.id)
}

func (t *delegateTool) Invoke(ctx context.Context, args map[string]string) (string, error) {
	task := strings.TrimSpace(firstArg(args, "task", "prompt", "message"))
	if task == "" {
		return "", errors.New("delegate needs a task")
	}

	cwd := t.cwd
	if dir := strings.TrimSpace(args["cwd"]); dir != "" {
		cwd = dir
	}

	out, err := t.backend.Invoke(ctx, ports.BackendRequest{
		Session: domain.Session{Cwd: cwd},
		Message: task,
	}, func(ev domain.StreamEvent) {
		if ev.Type == domain.EventResumeToken {
			return
		}
		if ev.Backend == "" {
			ev.Backend = t.id
		}
		t.emit(ev)
	})
	if err != nil {
		return "", fmt.Errorf("delegate %s: %w", t.id, err)
	}
	if strings.TrimSpace(out) == "" {
		return "", fmt.Errorf("delegate %s returned no output", t.id)
	}
	return out, nil
}
