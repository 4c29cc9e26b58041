package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/bnema/agentdeck/internal/domain"
	"github.com/bnema/agentdeck/internal/logger"
	"github.com/bnema/agentdeck/internal/ports"
	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatServer struct {
	t         *testing.T
	responses []string

	mu       sync.Mutex
	requests []map[string]any
	auth     []string
}

func (s *chatServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	require.NoError(s.t, err)
	assert.True(s.t, strings.HasSuffix(r.URL.Path, "/chat/completions"), r.URL.Path)

	var decoded map[string]any
	require.NoError(s.t, json.Unmarshal(body, &decoded))

	s.mu.Lock()
	index := len(s.requests)
	s.requests = append(s.requests, decoded)
	s.auth = append(s.auth, r.Header.Get("Authorization"))
	s.mu.Unlock()

	if index >= len(s.responses) {
		http.Error(w, `{"error":{"message":"unexpected request"}}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	_, _ = io.WriteString(w, s.responses[index])
}

// chunks renders deltas as a chat.completion.chunk event stream.
func chunks(deltas ...string) string {
	var b strings.Builder
	for _, delta := range deltas {
		b.WriteString(`data: {"id":"c1","object":"chat.completion.chunk","created":0,"model":"gpt-4o-mini","choices":[{"index":0,"delta":` + delta + `,"finish_reason":null}]}`)
		b.WriteString("\n\n")
	}
	b.WriteString("data: [DONE]\n\n")
	return b.String()
}

func newTestBackend(t *testing.T, provider domain.Provider, server *httptest.Server) *Backend {
	t.Helper()
	return New(Config{
		Provider:       provider,
		BaseURL:        server.URL + "/v1/",
		RequestOptions: []option.RequestOption{option.WithMaxRetries(0)},
	}, logger.Discard())
}

type stubTool struct {
	name string
	out  string
	err  error

	mu   sync.Mutex
	args []map[string]string
}

func (s *stubTool) Name() string        { return s.name }
func (s *stubTool) Description() string { return "stub " + s.name }
func (s *stubTool) Invoke(_ context.Context, args map[string]string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.args = append(s.args, args)
	return s.out, s.err
}

type stubToolSet struct {
	tools []ports.ToolHandle
}

func (s stubToolSet) Tools() []ports.ToolHandle { return s.tools }
func (s stubToolSet) Lookup(name string) (ports.ToolHandle, bool) {
	for _, tool := range s.tools {
		if tool.Name() == name {
			return tool, true
		}
	}
	return nil, false
}
func (s stubToolSet) Close() error { return nil }

func TestBackendPlainChat(t *testing.T) {
	t.Parallel()

	handler := &chatServer{t: t, responses: []string{chunks(`{"role":"assistant","content":"Hello "}`, `{"content":"there."}`)}}
	server := httptest.NewServer(handler)
	defer server.Close()

	backend := newTestBackend(t, domain.ProviderOpenAI, server)

	var events []domain.StreamEvent
	text, err := backend.Invoke(context.Background(), ports.BackendRequest{
		Session:      domain.Session{Model: "gpt-4.1"},
		APIKey:       "sk-test",
		SystemPrompt: "Be kind.",
		History: []domain.Message{
			{Role: domain.RoleUser, Text: "earlier question"},
			{Role: domain.RoleAssistant, Text: "earlier answer"},
		},
		Message: "hi",
	}, func(ev domain.StreamEvent) { events = append(events, ev) })
	require.NoError(t, err)
	assert.Equal(t, "Hello there.", text)
	require.Len(t, events, 2)
	assert.Equal(t, domain.EventDelta, events[0].Type)
	assert.Equal(t, "Hello ", events[0].Text)
	assert.Equal(t, "there.", events[1].Text)

	require.Len(t, handler.requests, 1)
	assert.Equal(t, "Bearer sk-test", handler.auth[0])
	assert.Equal(t, "gpt-4.1", handler.requests[0]["model"])
	assert.Equal(t, true, handler.requests[0]["stream"])
	messages := handler.requests[0]["messages"].([]any)
	require.Len(t, messages, 4)
	assert.Equal(t, "system", messages[0].(map[string]any)["role"])
	assert.Equal(t, "hi", messages[3].(map[string]any)["content"])
	assert.NotContains(t, handler.requests[0], "tools")
	assert.Equal(t, domain.BackendID("openai"), backend.ID())
}

func TestBackendRunsFunctionToolLoop(t *testing.T) {
	t.Parallel()

	handler := &chatServer{t: t, responses: []string{
		chunks(
			`{"role":"assistant","tool_calls":[{"index":0,"id":"call_1","type":"function","function":{"name":"memory","arguments":"{\"query\":"}}]}`,
			`{"tool_calls":[{"index":0,"function":{"arguments":"\"deploy\",\"limit\":3}"}}]}`,
			`{"tool_calls":[{"index":1,"id":"call_2","type":"function","function":{"name":"shell","arguments":"{}"}}]}`,
		),
		chunks(`{"role":"assistant","content":"Deploys happen on Mondays."}`),
	}}
	server := httptest.NewServer(handler)
	defer server.Close()

	memory := &stubTool{name: "memory", out: "deploy on mondays"}
	backend := newTestBackend(t, domain.ProviderOpenRouter, server)

	var events []domain.StreamEvent
	text, err := backend.Invoke(context.Background(), ports.BackendRequest{
		APIKey:  "or-key",
		Message: "when do we deploy?",
		Tools:   stubToolSet{tools: []ports.ToolHandle{memory}},
	}, func(ev domain.StreamEvent) { events = append(events, ev) })
	require.NoError(t, err)
	assert.Equal(t, "Deploys happen on Mondays.", text)

	require.Len(t, memory.args, 1)
	assert.Equal(t, map[string]string{"query": "deploy", "limit": "3"}, memory.args[0])

	types := make([]domain.EventType, 0, len(events))
	for _, ev := range events {
		types = append(types, ev.Type)
	}
	assert.Equal(t, []domain.EventType{
		domain.EventToolCall, domain.EventToolResult,
		domain.EventToolCall, domain.EventToolResult,
		domain.EventDelta,
	}, types)
	assert.True(t, events[3].IsError, "unknown tools are reported back as errors")

	require.Len(t, handler.requests, 2)
	assert.Equal(t, "openai/gpt-4o-mini", handler.requests[0]["model"])
	assert.Len(t, handler.requests[0]["tools"], 1)
	second := handler.requests[1]["messages"].([]any)
	last := second[len(second)-1].(map[string]any)
	assert.Equal(t, "tool", last["role"])
	assert.Equal(t, "call_2", last["tool_call_id"])
}

func TestBackendSeparatesTextFromEachRound(t *testing.T) {
	t.Parallel()

	handler := &chatServer{t: t, responses: []string{
		chunks(
			`{"role":"assistant","content":"Checking memory."}`,
			`{"tool_calls":[{"index":0,"id":"call_1","type":"function","function":{"name":"memory","arguments":"{}"}}]}`,
		),
		chunks(`{"role":"assistant","content":"Found it."}`),
	}}
	server := httptest.NewServer(handler)
	defer server.Close()

	var deltas []string
	text, err := newTestBackend(t, domain.ProviderOpenAI, server).Invoke(context.Background(), ports.BackendRequest{
		APIKey:  "sk-test",
		Message: "what did I save?",
		Tools:   stubToolSet{tools: []ports.ToolHandle{&stubTool{name: "memory", out: "notes"}}},
	}, func(ev domain.StreamEvent) {
		if ev.Type == domain.EventDelta {
			deltas = append(deltas, ev.Text)
		}
	})
	require.NoError(t, err)
	assert.Equal(t, "Checking memory.\n\nFound it.", text)
	assert.Equal(t, []string{"Checking memory.", "\n\nFound it."}, deltas)
}

func TestBackendToolErrorIsFedBack(t *testing.T) {
	t.Parallel()

	handler := &chatServer{t: t, responses: []string{
		chunks(`{"role":"assistant","content":null,"tool_calls":[{"index":0,"id":"call_1","type":"function","function":{"name":"memory","arguments":"{}"}}]}`),
		chunks(`{"role":"assistant","content":"Memory is down."}`),
	}}
	server := httptest.NewServer(handler)
	defer server.Close()

	memory := &stubTool{name: "memory", err: errors.New("store offline")}
	text, err := newTestBackend(t, domain.ProviderOpenAI, server).Invoke(context.Background(), ports.BackendRequest{
		APIKey:  "sk-test",
		Message: "recall",
		Tools:   stubToolSet{tools: []ports.ToolHandle{memory}},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Memory is down.", text)

	second := handler.requests[1]["messages"].([]any)
	assert.Equal(t, "error: store offline", second[len(second)-1].(map[string]any)["content"])
}

func TestBackendRequiresAPIKeyExceptOllama(t *testing.T) {
	t.Parallel()

	_, err := New(Config{Provider: domain.ProviderOpenAI}, nil).Invoke(context.Background(), ports.BackendRequest{Message: "hi"}, nil)
	require.ErrorIs(t, err, errMissingAPIKey)

	handler := &chatServer{t: t, responses: []string{chunks(`{"role":"assistant","content":"local"}`)}}
	server := httptest.NewServer(handler)
	defer server.Close()

	text, err := newTestBackend(t, domain.ProviderOllama, server).Invoke(context.Background(), ports.BackendRequest{Message: "hi"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "local", text)
	assert.Equal(t, "llama3.1", handler.requests[0]["model"])
}

func TestBackendServerError(t *testing.T) {
	t.Parallel()

	handler := &chatServer{t: t}
	server := httptest.NewServer(handler)
	defer server.Close()

	_, err := newTestBackend(t, domain.ProviderOpenAI, server).Invoke(context.Background(), ports.BackendRequest{APIKey: "sk", Message: "hi"}, nil)
	require.Error(t, err)
	assert.ErrorContains(t, err, "openai chat completion")
}

func TestDecodeArgs(t *testing.T) {
	t.Parallel()

	args, err := decodeArgs(`{"url":"https://example.com","depth":2,"flags":["a"],"skip":null}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"url": "https://example.com", "depth": "2", "flags": `["a"]`}, args)

	_, err = decodeArgs(`{not json`)
	assert.Error(t, err)
}
