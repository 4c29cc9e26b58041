package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/bnema/agentdeck/internal/domain"
	"github.com/bnema/agentdeck/internal/logger"
	"github.com/bnema/agentdeck/internal/ports"
	"github.com/charmbracelet/log"
	"google.golang.org/genai"
)

const defaultModel = "gemini-2.0-flash"

var errMissingAPIKey = errors.New("missing api key")

type Config struct {
	BaseURL      string
	DefaultModel string
}

// Backend is the raw chat path for Gemini. Tools are left to post-routing.
type Backend struct {
	cfg Config
	log *log.Logger
}

var _ ports.Backend = (*Backend)(nil)

func New(cfg Config, l *log.Logger) *Backend {
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = defaultModel
	}
	return &Backend{cfg: cfg, log: logger.OrDefault(l)}
}

func (b *Backend) ID() domain.BackendID {
	return domain.ProviderGemini.Backend()
}

func (b *Backend) Invoke(ctx context.Context, req ports.BackendRequest, emit ports.EmitFunc) (string, error) {
	if emit == nil {
		emit = func(domain.StreamEvent) {}
	}
	if req.APIKey == "" {
		return "", fmt.Errorf("gemini: %w", errMissingAPIKey)
	}

	clientConfig := &genai.ClientConfig{APIKey: req.APIKey, Backend: genai.BackendGeminiAPI}
	if b.cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: b.cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return "", fmt.Errorf("create gemini client: %w", err)
	}

	contents, err := buildContents(req)
	if err != nil {
		return "", err
	}

	config := &genai.GenerateContentConfig{}
	if prompt := strings.TrimSpace(req.SystemPrompt); prompt != "" {
		config.SystemInstruction = genai.NewContentFromText(prompt, genai.RoleUser)
	}

	model := b.cfg.DefaultModel
	if strings.TrimSpace(req.Session.Model) != "" {
		model = req.Session.Model
	}

	result, err := client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	var text strings.Builder
	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.Text == "" || part.Thought {
				continue
			}
			emit(domain.StreamEvent{Type: domain.EventDelta, Text: part.Text})
			text.WriteString(part.Text)
		}
	}
	b.log.Debug("gemini response", "model", model, "chars", text.Len())

	return strings.TrimSpace(text.String()), nil
}

func buildContents(req ports.BackendRequest) ([]*genai.Content, error) {
	contents := make([]*genai.Content, 0, len(req.History)+1)
	for _, msg := range req.History {
		var role string
		switch msg.Role {
		case domain.RoleUser:
			role = "user"
		case domain.RoleAssistant:
			role = "model"
		default:
			continue
		}
		contents = append(contents, &genai.Content{Role: role, Parts: []*genai.Part{{Text: msg.Text}}})
	}

	parts := []*genai.Part{{Text: req.Message}}
	if req.ImagePath != "" {
		data, err := os.ReadFile(req.ImagePath)
		if err != nil {
			return nil, fmt.Errorf("read image: %w", err)
		}
		parts = append(parts, &genai.Part{InlineData: &genai.Blob{Data: data, MIMEType: http.DetectContentType(data)}})
	}

	return append(contents, &genai.Content{Role: "user", Parts: parts}), nil
}
