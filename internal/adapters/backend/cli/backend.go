package cli

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/bnema/agentdeck/internal/domain"
	"github.com/bnema/agentdeck/internal/logger"
	"github.com/bnema/agentdeck/internal/ports"
	"github.com/charmbracelet/log"
)

const maxLineBytes = 4 << 20

// lineResult is what a dialect extracts from one JSON line of agent output.
type lineResult struct {
	events []domain.StreamEvent
	// final replaces the accumulated answer when set.
	final    string
	hasFinal bool
	failure  string
}

type dialect interface {
	binary() string
	args(req ports.BackendRequest) []string
	// parser returns a line parser for one invocation.
	parser() func(line []byte) lineResult
}

// Backend runs a local coding agent as a subprocess and reads its JSON-lines stream.
type Backend struct {
	id      domain.BackendID
	path    string
	dialect dialect
	log     *log.Logger
}

var _ ports.Backend = (*Backend)(nil)

// New returns the backend for a CLI delegate. path overrides the binary looked up on PATH.
func New(id domain.BackendID, path string, l *log.Logger) (*Backend, error) {
	var d dialect
	switch id {
	case domain.BackendClaude:
		d = claudeDialect{}
	case domain.BackendCodex:
		d = codexDialect{}
	case domain.BackendOpenCode:
		d = opencodeDialect{}
	default:
		return nil, fmt.Errorf("unsupported cli backend %q", id)
	}

	if strings.TrimSpace(path) == "" {
		path = d.binary()
	}
	return &Backend{id: id, path: path, dialect: d, log: logger.OrDefault(l)}, nil
}

func (b *Backend) ID() domain.BackendID {
	return b.id
}

// Invoke streams the agent's output. The returned text is the agent's final answer;
// a non-zero exit or an error line in the stream fails the call.
func (b *Backend) Invoke(ctx context.Context, req ports.BackendRequest, emit ports.EmitFunc) (string, error) {
	if emit == nil {
		emit = func(domain.StreamEvent) {}
	}

	cmd := exec.CommandContext(ctx, b.path, b.dialect.args(req)...)
	cmd.Dir = req.Session.Cwd
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("open %s stdout: %w", b.id, err)
	}
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("start %s: %w", b.id, err)
	}
	b.log.Debug("cli backend started", "backend", b.id, "pid", cmd.Process.Pid, "resume", req.ResumeToken != "")

	var (
		answer   strings.Builder
		final    string
		hasFinal bool
		failure  string
	)
	parse := b.dialect.parser()
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		result := parse(line)
		for _, ev := range result.events {
			if ev.Type == domain.EventResumeToken {
				ev.Backend = b.id
			}
			if ev.Type == domain.EventDelta {
				answer.WriteString(ev.Text)
			}
			emit(ev)
		}
		if result.hasFinal {
			final, hasFinal = result.final, true
		}
		if result.failure != "" {
			failure = result.failure
		}
	}
	scanErr := scanner.Err()
	waitErr := cmd.Wait()

	if ctx.Err() != nil {
		return answer.String(), ctx.Err()
	}

	text := answer.String()
	if hasFinal {
		text = final
	}

	switch {
	case failure != "":
		return text, fmt.Errorf("%s: %s", b.id, failure)
	case waitErr != nil:
		return text, fmt.Errorf("%s exited: %w%s", b.id, waitErr, stderrSuffix(stderr.String()))
	case scanErr != nil:
		return text, fmt.Errorf("read %s output: %w", b.id, scanErr)
	}

	return strings.TrimSpace(text), nil
}

func stderrSuffix(stderr string) string {
	stderr = strings.TrimSpace(stderr)
	if stderr == "" {
		return ""
	}
	lines := strings.Split(stderr, "\n")
	return ": " + lines[len(lines)-1]
}

// Available reports whether the backend binary can be found.
func (b *Backend) Available() bool {
	_, err := exec.LookPath(b.path)
	return err == nil
}

// prompt prefixes the system prompt on fresh conversations. Resumed ones already carry it.
func prompt(req ports.BackendRequest) string {
	if req.ResumeToken != "" || strings.TrimSpace(req.SystemPrompt) == "" {
		return req.Message
	}
	return strings.TrimSpace(req.SystemPrompt) + "\n\n" + req.Message
}
