package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bnema/agentdeck/internal/domain"
	"github.com/bnema/agentdeck/internal/logger"
	"github.com/bnema/agentdeck/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAgent writes an executable that records its arguments and prints output.
func fakeAgent(t *testing.T, output string, exitCode int) (path string, argsFile string) {
	t.Helper()

	dir := t.TempDir()
	path = filepath.Join(dir, "agent")
	argsFile = filepath.Join(dir, "args")
	script := "#!/bin/sh\n" +
		"printf '%s\\n' \"$@\" > '" + argsFile + "'\n" +
		"pwd >> '" + argsFile + "'\n" +
		"cat <<'JSONL'\n" + output + "\nJSONL\n" +
		"echo 'agent stderr line' >&2\n" +
		"exit " + string(rune('0'+exitCode)) + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o700))
	return path, argsFile
}

type collected struct {
	events []domain.StreamEvent
}

func (c *collected) emit(ev domain.StreamEvent) {
	c.events = append(c.events, ev)
}

func (c *collected) ofType(kind domain.EventType) []domain.StreamEvent {
	out := make([]domain.StreamEvent, 0)
	for _, ev := range c.events {
		if ev.Type == kind {
			out = append(out, ev)
		}
	}
	return out
}

func TestClaudeBackendStreamsEventsAndResumeToken(t *testing.T) {
	t.Parallel()

	output := strings.Join([]string{
		`{"type":"system","subtype":"init","session_id":"sess-42"}`,
		`{"type":"assistant","message":{"content":[{"type":"text","text":"Looking. "},{"type":"tool_use","id":"tu_1","name":"Bash","input":{"command":"ls"}}]}}`,
		`{"type":"user","message":{"content":[{"type":"tool_result","tool_use_id":"tu_1","content":[{"type":"text","text":"a.go"}]}]}}`,
		`not json at all`,
		`{"type":"result","subtype":"success","result":"Found a.go.","session_id":"sess-42"}`,
	}, "\n")
	path, argsFile := fakeAgent(t, output, 0)
	cwd := t.TempDir()

	backend, err := New(domain.BackendClaude, path, logger.Discard())
	require.NoError(t, err)

	var got collected
	text, err := backend.Invoke(context.Background(), ports.BackendRequest{
		Session:      domain.Session{Cwd: cwd},
		Message:      "list files",
		SystemPrompt: "Be brief.",
		ResumeToken:  "sess-41",
	}, got.emit)
	require.NoError(t, err)
	assert.Equal(t, "Found a.go.", text)

	tokens := got.ofType(domain.EventResumeToken)
	require.NotEmpty(t, tokens)
	assert.Equal(t, "sess-42", tokens[0].Token)
	assert.Equal(t, domain.BackendClaude, tokens[0].Backend)

	calls := got.ofType(domain.EventToolCall)
	require.Len(t, calls, 1)
	assert.Equal(t, "Bash", calls[0].Tool)
	assert.JSONEq(t, `{"command":"ls"}`, calls[0].Input)

	results := got.ofType(domain.EventToolResult)
	require.Len(t, results, 1)
	assert.Equal(t, "Bash", results[0].Tool)
	assert.Equal(t, "a.go", results[0].Output)

	args, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(args)), "\n")
	assert.Equal(t, []string{"-p", "--output-format", "stream-json", "--verbose", "--resume", "sess-41", "list files"}, lines[:len(lines)-1])
	resolvedCwd, err := filepath.EvalSymlinks(cwd)
	require.NoError(t, err)
	assert.Equal(t, resolvedCwd, lines[len(lines)-1])
}

func TestCodexBackendParsesThreadAndCommands(t *testing.T) {
	t.Parallel()

	output := strings.Join([]string{
		`{"type":"thread.started","thread_id":"th-9"}`,
		`{"type":"item.started","item":{"type":"command_execution","command":"go test ./..."}}`,
		`{"type":"item.completed","item":{"type":"command_execution","command":"go test ./...","aggregated_output":"FAIL","exit_code":1}}`,
		`{"type":"item.completed","item":{"type":"agent_message","text":"Tests fail in pkg/a."}}`,
		`{"type":"turn.completed"}`,
	}, "\n")
	path, argsFile := fakeAgent(t, output, 0)

	backend, err := New(domain.BackendCodex, path, nil)
	require.NoError(t, err)

	var got collected
	text, err := backend.Invoke(context.Background(), ports.BackendRequest{Message: "run tests", SystemPrompt: "Be brief."}, got.emit)
	require.NoError(t, err)
	assert.Equal(t, "Tests fail in pkg/a.", text)

	results := got.ofType(domain.EventToolResult)
	require.Len(t, results, 1)
	assert.Equal(t, domain.ToolShell, results[0].Tool)
	assert.True(t, results[0].IsError)
	assert.Equal(t, "th-9", got.ofType(domain.EventResumeToken)[0].Token)

	args, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	assert.Contains(t, string(args), "Be brief.\n\nrun tests", "fresh conversations carry the system prompt")
}

func TestCodexBackendTurnFailure(t *testing.T) {
	t.Parallel()

	path, _ := fakeAgent(t, `{"type":"turn.failed","error":{"message":"rate limited"}}`, 0)
	backend, err := New(domain.BackendCodex, path, nil)
	require.NoError(t, err)

	_, err = backend.Invoke(context.Background(), ports.BackendRequest{Message: "hi"}, nil)
	require.Error(t, err)
	assert.ErrorContains(t, err, "rate limited")
}

func TestOpenCodeBackendParsesParts(t *testing.T) {
	t.Parallel()

	output := strings.Join([]string{
		`{"type":"step_start","sessionID":"ses_1"}`,
		`{"type":"tool_use","sessionID":"ses_1","part":{"tool":"read","state":{"status":"completed","input":{"path":"go.mod"},"output":"module x"}}}`,
		`{"type":"text","sessionID":"ses_1","part":{"text":"It is module x."}}`,
	}, "\n")
	path, _ := fakeAgent(t, output, 0)

	backend, err := New(domain.BackendOpenCode, path, nil)
	require.NoError(t, err)

	var got collected
	text, err := backend.Invoke(context.Background(), ports.BackendRequest{Message: "which module"}, got.emit)
	require.NoError(t, err)
	assert.Equal(t, "It is module x.", text)
	assert.Len(t, got.ofType(domain.EventToolCall), 1)
	assert.Equal(t, "ses_1", got.ofType(domain.EventResumeToken)[0].Token)
}

func TestBackendNonZeroExit(t *testing.T) {
	t.Parallel()

	path, _ := fakeAgent(t, `{"type":"text","part":{"text":"partial"}}`, 3)
	backend, err := New(domain.BackendOpenCode, path, nil)
	require.NoError(t, err)

	text, err := backend.Invoke(context.Background(), ports.BackendRequest{Message: "hi"}, nil)
	require.Error(t, err)
	assert.ErrorContains(t, err, "exit status 3")
	assert.ErrorContains(t, err, "agent stderr line")
	assert.Equal(t, "partial", text)
}

func TestBackendMissingBinary(t *testing.T) {
	t.Parallel()

	backend, err := New(domain.BackendClaude, filepath.Join(t.TempDir(), "nope"), nil)
	require.NoError(t, err)
	assert.False(t, backend.Available())

	_, err = backend.Invoke(context.Background(), ports.BackendRequest{Message: "hi"}, nil)
	assert.ErrorContains(t, err, "start claude")
}

func TestBackendCancellation(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "agent")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\nexec sleep 30\n"), 0o700))

	backend, err := New(domain.BackendCodex, path, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err = backend.Invoke(ctx, ports.BackendRequest{Message: "hi"}, nil)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewRejectsHostedBackends(t *testing.T) {
	t.Parallel()

	_, err := New(domain.BackendID("openai"), "", nil)
	assert.Error(t, err)

	backend, err := New(domain.BackendOpenCode, "", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.BackendOpenCode, backend.ID())
}
