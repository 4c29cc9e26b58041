package anthropic

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/bnema/agentdeck/internal/domain"
	"github.com/bnema/agentdeck/internal/logger"
	"github.com/bnema/agentdeck/internal/ports"
	"github.com/charmbracelet/log"
)

const (
	defaultModel         = "claude-sonnet-4-20250514"
	defaultMaxTokens     = 4096
	defaultMaxToolRounds = 8
)

var errMissingAPIKey = errors.New("missing api key")

type Config struct {
	BaseURL        string
	DefaultModel   string
	MaxTokens      int64
	MaxToolRounds  int
	RequestOptions []option.RequestOption
}

// Backend calls the Anthropic Messages API and answers tool_use blocks from the
// request's tool set.
type Backend struct {
	cfg Config
	log *log.Logger
}

var _ ports.Backend = (*Backend)(nil)

func New(cfg Config, l *log.Logger) *Backend {
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = defaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.MaxToolRounds <= 0 {
		cfg.MaxToolRounds = defaultMaxToolRounds
	}
	return &Backend{cfg: cfg, log: logger.OrDefault(l)}
}

func (b *Backend) ID() domain.BackendID {
	return domain.ProviderAnthropic.Backend()
}

func (b *Backend) Invoke(ctx context.Context, req ports.BackendRequest, emit ports.EmitFunc) (string, error) {
	if emit == nil {
		emit = func(domain.StreamEvent) {}
	}
	if req.APIKey == "" {
		return "", fmt.Errorf("anthropic: %w", errMissingAPIKey)
	}

	opts := []option.RequestOption{option.WithAPIKey(req.APIKey)}
	if b.cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(b.cfg.BaseURL))
	}
	client := anthropic.NewClient(append(opts, b.cfg.RequestOptions...)...)

	messages, err := buildMessages(req)
	if err != nil {
		return "", err
	}

	model := b.cfg.DefaultModel
	if strings.TrimSpace(req.Session.Model) != "" {
		model = req.Session.Model
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: b.cfg.MaxTokens,
		Messages:  messages,
	}
	if prompt := strings.TrimSpace(req.SystemPrompt); prompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: prompt}}
	}

	handles := map[string]ports.ToolHandle{}
	if req.Tools != nil {
		for _, handle := range req.Tools.Tools() {
			handles[handle.Name()] = handle
			params.Tools = append(params.Tools, anthropic.ToolUnionParam{OfTool: toolParam(handle)})
		}
	}

	var answer strings.Builder
	for round := 0; round < b.cfg.MaxToolRounds; round++ {
		message, err := client.Messages.New(ctx, params)
		if err != nil {
			return answer.String(), fmt.Errorf("anthropic messages: %w", err)
		}

		results := make([]anthropic.ContentBlockParamUnion, 0)
		for _, block := range message.Content {
			switch block.Type {
			case "text":
				if block.Text == "" {
					continue
				}
				emit(domain.StreamEvent{Type: domain.EventDelta, Text: block.Text})
				answer.WriteString(block.Text)
			case "tool_use":
				output, isError := b.runTool(ctx, handles, block.Name, block.Input, emit)
				results = append(results, anthropic.NewToolResultBlock(block.ID, output, isError))
			}
		}
		if len(results) == 0 {
			return strings.TrimSpace(answer.String()), nil
		}

		params.Messages = append(params.Messages, message.ToParam(), anthropic.NewUserMessage(results...))
		if err := ctx.Err(); err != nil {
			return answer.String(), err
		}
	}

	b.log.Warn("tool loop round limit reached", "provider", domain.ProviderAnthropic, "rounds", b.cfg.MaxToolRounds)
	return strings.TrimSpace(answer.String()), nil
}

func (b *Backend) runTool(ctx context.Context, handles map[string]ports.ToolHandle, name string, input json.RawMessage, emit ports.EmitFunc) (string, bool) {
	emit(domain.StreamEvent{Type: domain.EventToolCall, Tool: name, Input: string(input)})

	fail := func(output string) (string, bool) {
		emit(domain.StreamEvent{Type: domain.EventToolResult, Tool: name, Output: output, IsError: true})
		return output, true
	}

	handle, ok := handles[name]
	if !ok {
		return fail(fmt.Sprintf("tool %q is not available", name))
	}

	args := map[string]string{}
	var decoded map[string]any
	if len(input) > 0 {
		if err := json.Unmarshal(input, &decoded); err != nil {
			return fail("invalid arguments: " + err.Error())
		}
	}
	for key, value := range decoded {
		if s, ok := value.(string); ok {
			args[key] = s
			continue
		}
		if value != nil {
			encoded, _ := json.Marshal(value)
			args[key] = string(encoded)
		}
	}

	output, err := handle.Invoke(ctx, args)
	if err != nil {
		b.log.Debug("tool call failed", "tool", name, "err", err)
		return fail("error: " + err.Error())
	}

	emit(domain.StreamEvent{Type: domain.EventToolResult, Tool: name, Output: output})
	return output, false
}

func toolParam(handle ports.ToolHandle) *anthropic.ToolParam {
	return &anthropic.ToolParam{
		Name:        handle.Name(),
		Description: anthropic.String(handle.Description()),
		InputSchema: anthropic.ToolInputSchemaParam{
			Properties: map[string]any{},
		},
	}
}

// buildMessages keeps roles alternating: consecutive history entries of one role are merged.
func buildMessages(req ports.BackendRequest) ([]anthropic.MessageParam, error) {
	type turn struct {
		role domain.Role
		text string
	}
	turns := make([]turn, 0, len(req.History)+1)
	for _, msg := range req.History {
		if msg.Role != domain.RoleUser && msg.Role != domain.RoleAssistant {
			continue
		}
		if strings.TrimSpace(msg.Text) == "" {
			continue
		}
		if n := len(turns); n > 0 && turns[n-1].role == msg.Role {
			turns[n-1].text += "\n\n" + msg.Text
			continue
		}
		turns = append(turns, turn{role: msg.Role, text: msg.Text})
	}
	// The API requires the first message to come from the user.
	for len(turns) > 0 && turns[0].role != domain.RoleUser {
		turns = turns[1:]
	}

	messages := make([]anthropic.MessageParam, 0, len(turns)+1)
	for _, t := range turns {
		if t.role == domain.RoleUser {
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(t.text)))
		} else {
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(t.text)))
		}
	}

	blocks := []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(req.Message)}
	if req.ImagePath != "" {
		data, err := os.ReadFile(req.ImagePath)
		if err != nil {
			return nil, fmt.Errorf("read image: %w", err)
		}
		blocks = append(blocks, anthropic.NewImageBlockBase64(http.DetectContentType(data), base64.StdEncoding.EncodeToString(data)))
	}

	if n := len(messages); n > 0 && turns[n-1].role == domain.RoleUser {
		// Merge into the trailing user turn instead of sending two in a row.
		messages[n-1] = anthropic.NewUserMessage(append([]anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(turns[n-1].text)}, blocks...)...)
		return messages, nil
	}
	return append(messages, anthropic.NewUserMessage(blocks...)), nil
}
