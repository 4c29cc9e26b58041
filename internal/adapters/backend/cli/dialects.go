package cli

import (
	"encoding/json"
	"strings"

	"github.com/bnema/agentdeck/internal/domain"
	"github.com/bnema/agentdeck/internal/ports"
)

// claudeDialect drives `claude -p --output-format stream-json`.
type claudeDialect struct{}

func (claudeDialect) binary() string { return "claude" }

func (claudeDialect) args(req ports.BackendRequest) []string {
	args := []string{"-p", "--output-format", "stream-json", "--verbose"}
	if req.ResumeToken != "" {
		args = append(args, "--resume", req.ResumeToken)
	}
	return append(args, prompt(req))
}

type claudeLine struct {
	Type      string `json:"type"`
	Subtype   string `json:"subtype"`
	SessionID string `json:"session_id"`
	Result    string `json:"result"`
	IsError   bool   `json:"is_error"`
	Message   struct {
		Content []struct {
			Type      string          `json:"type"`
			ID        string          `json:"id"`
			Text      string          `json:"text"`
			Name      string          `json:"name"`
			Input     json.RawMessage `json:"input"`
			ToolUseID string          `json:"tool_use_id"`
			Content   json.RawMessage `json:"content"`
			IsError   bool            `json:"is_error"`
		} `json:"content"`
	} `json:"message"`
}

// The stream reports tool results by tool_use id, so the parser remembers the
// name behind each id.
func (claudeDialect) parser() func([]byte) lineResult {
	names := make(map[string]string)
	return func(line []byte) lineResult {
		return parseClaudeLine(line, names)
	}
}

func parseClaudeLine(line []byte, names map[string]string) lineResult {
	var msg claudeLine
	if err := json.Unmarshal(line, &msg); err != nil {
		return lineResult{}
	}

	var out lineResult
	if msg.SessionID != "" && (msg.Type == "system" || msg.Type == "result") {
		out.events = append(out.events, domain.StreamEvent{Type: domain.EventResumeToken, Token: msg.SessionID})
	}

	switch msg.Type {
	case "assistant":
		for _, block := range msg.Message.Content {
			switch block.Type {
			case "text":
				out.events = append(out.events, domain.StreamEvent{Type: domain.EventDelta, Text: block.Text})
			case "tool_use":
				names[block.ID] = block.Name
				out.events = append(out.events, domain.StreamEvent{Type: domain.EventToolCall, Tool: block.Name, Input: string(block.Input)})
			}
		}
	case "user":
		for _, block := range msg.Message.Content {
			if block.Type == "tool_result" {
				out.events = append(out.events, domain.StreamEvent{
					Type:    domain.EventToolResult,
					Tool:    firstNonEmpty(names[block.ToolUseID], block.ToolUseID),
					Output:  rawText(block.Content),
					IsError: block.IsError,
				})
			}
		}
	case "result":
		if msg.IsError || strings.HasPrefix(msg.Subtype, "error") {
			out.failure = firstNonEmpty(msg.Result, msg.Subtype)
			break
		}
		out.final, out.hasFinal = msg.Result, true
	}

	return out
}

// codexDialect drives `codex exec --json`.
type codexDialect struct{}

func (codexDialect) binary() string { return "codex" }

func (codexDialect) args(req ports.BackendRequest) []string {
	args := []string{"exec", "--json", "--skip-git-repo-check"}
	if req.ResumeToken != "" {
		args = append(args, "resume", req.ResumeToken)
	}
	return append(args, prompt(req))
}

type codexLine struct {
	Type     string `json:"type"`
	ThreadID string `json:"thread_id"`
	Message  string `json:"message"`
	Error    struct {
		Message string `json:"message"`
	} `json:"error"`
	Item struct {
		Type             string `json:"type"`
		Text             string `json:"text"`
		Command          string `json:"command"`
		AggregatedOutput string `json:"aggregated_output"`
		ExitCode         *int   `json:"exit_code"`
	} `json:"item"`
}

func (codexDialect) parser() func([]byte) lineResult {
	return parseCodexLine
}

func parseCodexLine(line []byte) lineResult {
	var msg codexLine
	if err := json.Unmarshal(line, &msg); err != nil {
		return lineResult{}
	}

	var out lineResult
	switch msg.Type {
	case "thread.started":
		if msg.ThreadID != "" {
			out.events = append(out.events, domain.StreamEvent{Type: domain.EventResumeToken, Token: msg.ThreadID})
		}
	case "item.started":
		if msg.Item.Type == "command_execution" {
			out.events = append(out.events, domain.StreamEvent{Type: domain.EventToolCall, Tool: domain.ToolShell, Input: msg.Item.Command})
		}
	case "item.completed":
		switch msg.Item.Type {
		case "agent_message":
			out.events = append(out.events, domain.StreamEvent{Type: domain.EventDelta, Text: msg.Item.Text})
			out.final, out.hasFinal = msg.Item.Text, true
		case "command_execution":
			failed := msg.Item.ExitCode != nil && *msg.Item.ExitCode != 0
			out.events = append(out.events, domain.StreamEvent{Type: domain.EventToolResult, Tool: domain.ToolShell, Output: msg.Item.AggregatedOutput, IsError: failed})
		}
	case "turn.failed", "error":
		out.failure = firstNonEmpty(msg.Error.Message, msg.Message, msg.Type)
	}

	return out
}

// opencodeDialect drives `opencode run --format json`.
type opencodeDialect struct{}

func (opencodeDialect) binary() string { return "opencode" }

func (opencodeDialect) args(req ports.BackendRequest) []string {
	args := []string{"run", "--format", "json"}
	if req.ResumeToken != "" {
		args = append(args, "--session", req.ResumeToken)
	}
	return append(args, prompt(req))
}

type opencodeLine struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionID"`
	Part      struct {
		Text  string `json:"text"`
		Tool  string `json:"tool"`
		State struct {
			Status string          `json:"status"`
			Input  json.RawMessage `json:"input"`
			Output string          `json:"output"`
			Error  string          `json:"error"`
		} `json:"state"`
	} `json:"part"`
	Error struct {
		Data struct {
			Message string `json:"message"`
		} `json:"data"`
		Name string `json:"name"`
	} `json:"error"`
}

func (opencodeDialect) parser() func([]byte) lineResult {
	return parseOpenCodeLine
}

func parseOpenCodeLine(line []byte) lineResult {
	var msg opencodeLine
	if err := json.Unmarshal(line, &msg); err != nil {
		return lineResult{}
	}

	var out lineResult
	if msg.SessionID != "" && msg.Type == "step_start" {
		out.events = append(out.events, domain.StreamEvent{Type: domain.EventResumeToken, Token: msg.SessionID})
	}

	switch msg.Type {
	case "text":
		out.events = append(out.events, domain.StreamEvent{Type: domain.EventDelta, Text: msg.Part.Text})
	case "tool_use":
		out.events = append(out.events,
			domain.StreamEvent{Type: domain.EventToolCall, Tool: msg.Part.Tool, Input: string(msg.Part.State.Input)},
			domain.StreamEvent{
				Type:    domain.EventToolResult,
				Tool:    msg.Part.Tool,
				Output:  firstNonEmpty(msg.Part.State.Output, msg.Part.State.Error),
				IsError: msg.Part.State.Status == "error",
			},
		)
	case "error":
		out.failure = firstNonEmpty(msg.Error.Data.Message, msg.Error.Name, "opencode error")
	}

	return out
}

// rawText flattens a tool_result content field, which is either a string or a list of text blocks.
func rawText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}

	var blocks []struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &blocks); err == nil {
		parts := make([]string, 0, len(blocks))
		for _, block := range blocks {
			parts = append(parts, block.Text)
		}
		return strings.Join(parts, "\n")
	}

	return string(raw)
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
