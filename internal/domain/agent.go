package domain

import (
	"fmt"
	"strings"
	"time"
)

type AgentID string
type Provider string

const (
	ProviderOpenAI      Provider = "openai"
	ProviderOpenRouter  Provider = "openrouter"
	ProviderOllama      Provider = "ollama"
	ProviderAnthropic   Provider = "anthropic"
	ProviderGemini      Provider = "gemini"
	ProviderClaudeCLI   Provider = "claude-cli"
	ProviderCodexCLI    Provider = "codex-cli"
	ProviderOpenCodeCLI Provider = "opencode-cli"
)

// IsCLI reports whether the provider runs as a local agent subprocess.
func (p Provider) IsCLI() bool {
	switch p {
	case ProviderClaudeCLI, ProviderCodexCLI, ProviderOpenCodeCLI:
		return true
	default:
		return false
	}
}

// Backend maps a provider to the backend key used for health and resume tokens.
func (p Provider) Backend() BackendID {
	switch p {
	case ProviderClaudeCLI:
		return BackendClaude
	case ProviderCodexCLI:
		return BackendCodex
	case ProviderOpenCodeCLI:
		return BackendOpenCode
	default:
		return BackendID(p)
	}
}

func (p Provider) Known() bool {
	switch p {
	case ProviderOpenAI, ProviderOpenRouter, ProviderOllama, ProviderAnthropic, ProviderGemini,
		ProviderClaudeCLI, ProviderCodexCLI, ProviderOpenCodeCLI:
		return true
	default:
		return false
	}
}

type Agent struct {
	ID                   AgentID
	Name                 string
	Provider             Provider
	Model                string
	CredentialID         string
	SystemPrompt         string
	HeartbeatAckMaxChars int
	UpdatedAt            time.Time
}

func (a Agent) Validate() error {
	if strings.TrimSpace(string(a.ID)) == "" {
		return fmt.Errorf("id is required")
	}
	if strings.TrimSpace(a.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if strings.TrimSpace(string(a.Provider)) == "" {
		return fmt.Errorf("provider is required")
	}
	if !a.Provider.Known() {
		return fmt.Errorf("unsupported provider %q", a.Provider)
	}

	return nil
}

// AckMaxChars returns the heartbeat acknowledgment threshold, falling back to the default.
func (a Agent) AckMaxChars() int {
	if a.HeartbeatAckMaxChars > 0 {
		return a.HeartbeatAckMaxChars
	}
	return DefaultHeartbeatAckMaxChars
}
