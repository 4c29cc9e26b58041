package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/bnema/agentdeck/internal/domain"
	"github.com/bnema/agentdeck/internal/logger"
	"github.com/bnema/agentdeck/internal/ports"
	"github.com/charmbracelet/log"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const defaultMaxToolRounds = 8

var errMissingAPIKey = errors.New("missing api key")

type Config struct {
	Provider      domain.Provider
	BaseURL       string
	DefaultModel  string
	MaxToolRounds int
	// RequestOptions are appended to every client, after the key and base URL.
	RequestOptions []option.RequestOption
}

// Backend talks to an OpenAI-compatible Chat Completions endpoint over streaming
// requests. When the request carries a tool set it runs the function-calling loop itself.
type Backend struct {
	cfg Config
	log *log.Logger
}

var _ ports.Backend = (*Backend)(nil)

func New(cfg Config, l *log.Logger) *Backend {
	if cfg.Provider == "" {
		cfg.Provider = domain.ProviderOpenAI
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL(cfg.Provider)
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = defaultModel(cfg.Provider)
	}
	if cfg.MaxToolRounds <= 0 {
		cfg.MaxToolRounds = defaultMaxToolRounds
	}
	return &Backend{cfg: cfg, log: logger.OrDefault(l)}
}

func (b *Backend) ID() domain.BackendID {
	return b.cfg.Provider.Backend()
}

func (b *Backend) Invoke(ctx context.Context, req ports.BackendRequest, emit ports.EmitFunc) (string, error) {
	if emit == nil {
		emit = func(domain.StreamEvent) {}
	}
	if req.APIKey == "" && b.cfg.Provider != domain.ProviderOllama {
		return "", fmt.Errorf("%s: %w", b.cfg.Provider, errMissingAPIKey)
	}

	client := b.client(req.APIKey)
	messages, err := buildMessages(req)
	if err != nil {
		return "", err
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(b.model(req.Session)),
		Messages: messages,
	}
	handles := map[string]ports.ToolHandle{}
	if req.Tools != nil {
		for _, handle := range req.Tools.Tools() {
			handles[handle.Name()] = handle
			params.Tools = append(params.Tools, toolParam(handle))
		}
	}

	var answer strings.Builder
	for round := 0; round < b.cfg.MaxToolRounds; round++ {
		message, err := b.streamRound(ctx, client, params, &answer, emit)
		if err != nil {
			return answer.String(), err
		}
		if len(message.ToolCalls) == 0 {
			return strings.TrimSpace(answer.String()), nil
		}

		params.Messages = append(params.Messages, message.ToParam())
		for _, call := range message.ToolCalls {
			output := b.runTool(ctx, handles, call.Function.Name, call.Function.Arguments, emit)
			params.Messages = append(params.Messages, openai.ToolMessage(output, call.ID))
		}
		if err := ctx.Err(); err != nil {
			return answer.String(), err
		}
	}

	b.log.Warn("tool loop round limit reached", "provider", b.cfg.Provider, "rounds", b.cfg.MaxToolRounds)
	return strings.TrimSpace(answer.String()), nil
}

// streamRound streams one completion, emitting content deltas as they arrive and
// appending them to answer. Text from separate rounds is split by a blank line.
func (b *Backend) streamRound(ctx context.Context, client openai.Client, params openai.ChatCompletionNewParams, answer *strings.Builder, emit ports.EmitFunc) (openai.ChatCompletionMessage, error) {
	stream := client.Chat.Completions.NewStreaming(ctx, params)
	defer stream.Close()

	acc := openai.ChatCompletionAccumulator{}
	started := false
	for stream.Next() {
		chunk := stream.Current()
		acc.AddChunk(chunk)
		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
			continue
		}

		delta := chunk.Choices[0].Delta.Content
		if !started && answer.Len() > 0 {
			delta = "\n\n" + delta
		}
		started = true
		answer.WriteString(delta)
		emit(domain.StreamEvent{Type: domain.EventDelta, Text: delta})
	}
	if err := stream.Err(); err != nil {
		return openai.ChatCompletionMessage{}, fmt.Errorf("%s chat completion: %w", b.cfg.Provider, err)
	}
	if len(acc.Choices) == 0 {
		return openai.ChatCompletionMessage{}, fmt.Errorf("%s chat completion: no choices returned", b.cfg.Provider)
	}
	return acc.Choices[0].Message, nil
}

// runTool never fails the turn: errors go back to the model as the tool output.
func (b *Backend) runTool(ctx context.Context, handles map[string]ports.ToolHandle, name, rawArgs string, emit ports.EmitFunc) string {
	emit(domain.StreamEvent{Type: domain.EventToolCall, Tool: name, Input: rawArgs})

	handle, ok := handles[name]
	if !ok {
		output := fmt.Sprintf("tool %q is not available", name)
		emit(domain.StreamEvent{Type: domain.EventToolResult, Tool: name, Output: output, IsError: true})
		return output
	}

	args, err := decodeArgs(rawArgs)
	if err != nil {
		output := "invalid arguments: " + err.Error()
		emit(domain.StreamEvent{Type: domain.EventToolResult, Tool: name, Output: output, IsError: true})
		return output
	}

	output, err := handle.Invoke(ctx, args)
	if err != nil {
		b.log.Debug("tool call failed", "tool", name, "err", err)
		output = "error: " + err.Error()
		emit(domain.StreamEvent{Type: domain.EventToolResult, Tool: name, Output: output, IsError: true})
		return output
	}

	emit(domain.StreamEvent{Type: domain.EventToolResult, Tool: name, Output: output})
	return output
}

func (b *Backend) client(apiKey string) openai.Client {
	opts := []option.RequestOption{option.WithBaseURL(b.cfg.BaseURL)}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	} else {
		opts = append(opts, option.WithAPIKey("ollama"))
	}
	opts = append(opts, b.cfg.RequestOptions...)
	return openai.NewClient(opts...)
}

func (b *Backend) model(session domain.Session) string {
	if strings.TrimSpace(session.Model) != "" {
		return session.Model
	}
	return b.cfg.DefaultModel
}

func buildMessages(req ports.BackendRequest) ([]openai.ChatCompletionMessageParamUnion, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.History)+2)
	if prompt := strings.TrimSpace(req.SystemPrompt); prompt != "" {
		messages = append(messages, openai.SystemMessage(prompt))
	}
	for _, msg := range req.History {
		switch msg.Role {
		case domain.RoleUser:
			messages = append(messages, openai.UserMessage(msg.Text))
		case domain.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(msg.Text))
		}
	}

	if req.ImagePath == "" {
		return append(messages, openai.UserMessage(req.Message)), nil
	}

	dataURL, err := imageDataURL(req.ImagePath)
	if err != nil {
		return nil, err
	}
	return append(messages, openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
		openai.TextContentPart(req.Message),
		openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: dataURL}),
	})), nil
}

func imageDataURL(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	return "data:" + http.DetectContentType(data) + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// toolParam describes a handle as a function taking string-valued keyword arguments.
func toolParam(handle ports.ToolHandle) openai.ChatCompletionToolParam {
	return openai.ChatCompletionToolParam{
		Function: openai.FunctionDefinitionParam{
			Name:        handle.Name(),
			Description: openai.String(handle.Description()),
			Parameters: openai.FunctionParameters{
				"type":                 "object",
				"properties":           map[string]any{},
				"additionalProperties": map[string]any{"type": "string"},
			},
		},
	}
}

func decodeArgs(raw string) (map[string]string, error) {
	args := map[string]string{}
	if strings.TrimSpace(raw) == "" {
		return args, nil
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, err
	}
	for key, value := range decoded {
		switch v := value.(type) {
		case string:
			args[key] = v
		case nil:
		default:
			encoded, err := json.Marshal(v)
			if err != nil {
				return nil, err
			}
			args[key] = string(encoded)
		}
	}
	return args, nil
}

func defaultBaseURL(provider domain.Provider) string {
	switch provider {
	case domain.ProviderOpenRouter:
		return "https://openrouter.ai/api/v1/"
	case domain.ProviderOllama:
		return "http://localhost:11434/v1/"
	default:
		return "https://api.openai.com/v1/"
	}
}

func defaultModel(provider domain.Provider) string {
	switch provider {
	case domain.ProviderOpenRouter:
		return "openai/gpt-4o-mini"
	case domain.ProviderOllama:
		return "llama3.1"
	default:
		return string(openai.ChatModelGPT4oMini)
	}
}
