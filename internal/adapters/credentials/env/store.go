package env

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/bnema/agentdeck/internal/domain"
	"github.com/bnema/agentdeck/internal/ports"
)

// ErrReadOnly is returned by Put and Delete.
var ErrReadOnly = errors.New("environment credential store is read-only")

// providerVars lists the variables consulted for "<provider>://default/api_key", in order.
var providerVars = map[domain.Provider][]string{
	domain.ProviderOpenAI:     {"OPENAI_API_KEY"},
	domain.ProviderOpenRouter: {"OPENROUTER_API_KEY"},
	domain.ProviderOllama:     {"OLLAMA_API_KEY"},
	domain.ProviderAnthropic:  {"ANTHROPIC_API_KEY"},
	domain.ProviderGemini:     {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
}

// Store resolves provider default keys from environment variables, so keys in a
// .env file work without a stored credential.
type Store struct {
	lookup func(string) (string, bool)
}

var _ ports.CredentialStore = (*Store)(nil)

func NewStore() *Store {
	return &Store{lookup: os.LookupEnv}
}

// NewStoreWithLookup replaces os.LookupEnv.
func NewStoreWithLookup(lookup func(string) (string, bool)) *Store {
	return &Store{lookup: lookup}
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	for _, name := range VariablesFor(key) {
		if value, ok := s.lookup(name); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value), nil
		}
	}

	return "", fmt.Errorf("credential %q: %w", key, domain.ErrCredentialNotFound)
}

func (s *Store) Put(context.Context, string, string) error {
	return ErrReadOnly
}

func (s *Store) Delete(context.Context, string) error {
	return ErrReadOnly
}

// VariablesFor returns the environment variables backing key. Only provider
// default keys have any.
func VariablesFor(key string) []string {
	provider, rest, ok := strings.Cut(strings.TrimSpace(key), "://")
	if !ok || rest != "default/api_key" {
		return nil
	}
	return providerVars[domain.Provider(provider)]
}
