package application

import (
	"testing"

	"github.com/bnema/agentdeck/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstURL(t *testing.T) {
	assert.Equal(t, "https://example.com/a?b=1", FirstURL("see https://example.com/a?b=1, then http://other.dev"))
	assert.Equal(t, "http://x.io/path", FirstURL("(http://x.io/path)"))
	assert.Empty(t, FirstURL("no links here"))
}

func TestMentionedTools(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want []string
	}{
		{name: "call syntax", text: `Running shell(command="ls -la") now`, want: []string{"shell"}},
		{name: "backticks", text: "I used `files` and then `memory`.", want: []string{"files", "memory"}},
		{name: "tool suffix", text: "Let me use the browser tool for that", want: []string{"browser"}},
		{name: "plain prose is not a mention", text: "The shell of the turtle and the files on my desk", want: []string{}},
		{name: "underscore names match bare", text: "Handing off to delegate_to_codex_cli with the task", want: []string{"delegate_to_codex_cli"}},
		{name: "order of appearance and dedupe", text: "web_search first, then `shell`, then web_search again", want: []string{"web_search", "shell"}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, MentionedTools(tc.text, domain.KnownTools))
		})
	}
}

func TestExtractToolCallRequestsParsesCallArguments(t *testing.T) {
	text := `I'll fetch it: web_fetch(url="https://example.com/docs", format=text)` + "\n" +
		`Then delegate_to_claude_code "Add a --verbose flag to the CLI" priority=high`

	requests := ExtractToolCallRequests(text, domain.KnownTools)
	require.Len(t, requests, 2)

	assert.Equal(t, "web_fetch", requests[0].Tool)
	assert.Equal(t, "https://example.com/docs", requests[0].Arg("url"))
	assert.Equal(t, "text", requests[0].Arg("format"))
	assert.Empty(t, requests[0].Task)

	assert.Equal(t, "delegate_to_claude_code", requests[1].Tool)
	assert.Equal(t, "Add a --verbose flag to the CLI", requests[1].Task)
	assert.Equal(t, "high", requests[1].Arg("priority"))
}

func TestExtractToolCallRequestsExplicitTaskWins(t *testing.T) {
	requests := ExtractToolCallRequests(`delegate_to_codex_cli(task='write tests', note="later today")`, domain.KnownTools)
	require.Len(t, requests, 1)
	assert.Equal(t, "write tests", requests[0].Task)
	assert.Equal(t, "later today", requests[0].Arg("note"))
}

func TestExtractToolCallRequestsNestedParens(t *testing.T) {
	requests := ExtractToolCallRequests(`shell(command="echo (hi)", cwd=/tmp) and more`, domain.KnownTools)
	require.Len(t, requests, 1)
	assert.Equal(t, "echo (hi)", requests[0].Arg("command"))
	assert.Equal(t, "/tmp", requests[0].Arg("cwd"))
}
