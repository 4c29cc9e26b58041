package router

import (
	"fmt"

	anthropicbackend "github.com/bnema/agentdeck/internal/adapters/backend/anthropic"
	"github.com/bnema/agentdeck/internal/adapters/backend/cli"
	geminibackend "github.com/bnema/agentdeck/internal/adapters/backend/gemini"
	openaibackend "github.com/bnema/agentdeck/internal/adapters/backend/openai"
	"github.com/bnema/agentdeck/internal/domain"
	"github.com/bnema/agentdeck/internal/logger"
	"github.com/bnema/agentdeck/internal/ports"
	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
)

// Config keys, all optional.
const (
	keyBaseURLFormat = "backends.%s.base_url"
	keyModelFormat   = "backends.%s.model"
	keyPathFormat    = "backends.%s.path"
)

// Router maps providers to chat backends and delegate ids to CLI backends.
type Router struct {
	providers map[domain.Provider]ports.Backend
	delegates map[domain.BackendID]ports.Backend
}

var _ ports.BackendRouter = (*Router)(nil)

func New(providers map[domain.Provider]ports.Backend, delegates map[domain.BackendID]ports.Backend) *Router {
	return &Router{providers: providers, delegates: delegates}
}

// FromConfig builds every known backend, reading base URLs, default models and
// binary paths from cfg.
func FromConfig(cfg *viper.Viper, l *log.Logger) (*Router, error) {
	l = logger.OrDefault(l)
	get := func(format string, name string) string {
		if cfg == nil {
			return ""
		}
		return cfg.GetString(fmt.Sprintf(format, name))
	}

	providers := map[domain.Provider]ports.Backend{}
	for _, provider := range []domain.Provider{domain.ProviderOpenAI, domain.ProviderOpenRouter, domain.ProviderOllama} {
		providers[provider] = openaibackend.New(openaibackend.Config{
			Provider:     provider,
			BaseURL:      get(keyBaseURLFormat, string(provider)),
			DefaultModel: get(keyModelFormat, string(provider)),
		}, l)
	}
	providers[domain.ProviderAnthropic] = anthropicbackend.New(anthropicbackend.Config{
		BaseURL:      get(keyBaseURLFormat, string(domain.ProviderAnthropic)),
		DefaultModel: get(keyModelFormat, string(domain.ProviderAnthropic)),
	}, l)
	providers[domain.ProviderGemini] = geminibackend.New(geminibackend.Config{
		BaseURL:      get(keyBaseURLFormat, string(domain.ProviderGemini)),
		DefaultModel: get(keyModelFormat, string(domain.ProviderGemini)),
	}, l)

	delegates := map[domain.BackendID]ports.Backend{}
	for _, id := range domain.CanonicalDelegateOrder {
		backend, err := cli.New(id, get(keyPathFormat, string(id)), l)
		if err != nil {
			return nil, err
		}
		delegates[id] = backend
	}
	providers[domain.ProviderClaudeCLI] = delegates[domain.BackendClaude]
	providers[domain.ProviderCodexCLI] = delegates[domain.BackendCodex]
	providers[domain.ProviderOpenCodeCLI] = delegates[domain.BackendOpenCode]

	return New(providers, delegates), nil
}

func (r *Router) ForProvider(provider domain.Provider) (ports.Backend, error) {
	backend, ok := r.providers[provider]
	if !ok || backend == nil {
		return nil, fmt.Errorf("provider %q: %w", provider, domain.ErrBackendUnavailable)
	}
	return backend, nil
}

func (r *Router) Delegate(id domain.BackendID) (ports.Backend, error) {
	backend, ok := r.delegates[id]
	if !ok || backend == nil {
		return nil, fmt.Errorf("delegate %q: %w", id, domain.ErrBackendUnavailable)
	}
	return backend, nil
}
