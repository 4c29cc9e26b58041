package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bnema/agentdeck/internal/domain"
	"github.com/bnema/agentdeck/internal/ports"
)

type AgentService struct {
	agents ports.AgentRepository
	store  ports.CredentialStore
	clock  ports.Clock
}

func NewAgentService(agents ports.AgentRepository, store ports.CredentialStore, clock ports.Clock) *AgentService {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &AgentService{
		agents: agents,
		store:  store,
		clock:  clock,
	}
}

func (s *AgentService) SaveAgent(ctx context.Context, cmd SaveAgentCommand) (domain.Agent, error) {
	agent, err := s.agents.GetByID(ctx, cmd.ID)
	if err != nil {
		if !errors.Is(err, domain.ErrAgentNotFound) {
			return domain.Agent{}, fmt.Errorf("get agent by id: %w", err)
		}
		agent = domain.Agent{ID: cmd.ID, Name: fmt.Sprintf("Agent %s", cmd.ID)}
	}

	if cmd.Name != "" {
		agent.Name = cmd.Name
	}
	if cmd.Provider != "" {
		agent.Provider = domain.Provider(strings.ToLower(string(cmd.Provider)))
	}
	if cmd.Model != "" {
		agent.Model = cmd.Model
	}
	if cmd.SystemPrompt != nil {
		agent.SystemPrompt = *cmd.SystemPrompt
	}
	if cmd.HeartbeatAckMaxChars != nil {
		agent.HeartbeatAckMaxChars = *cmd.HeartbeatAckMaxChars
	}
	agent.UpdatedAt = s.clock.Now()

	if err := agent.Validate(); err != nil {
		return domain.Agent{}, fmt.Errorf("validate agent: %w", err)
	}

	if err := s.agents.Save(ctx, agent); err != nil {
		return domain.Agent{}, fmt.Errorf("save agent: %w", err)
	}

	return agent, nil
}

func (s *AgentService) GetAgent(ctx context.Context, id domain.AgentID) (domain.Agent, error) {
	agent, err := s.agents.GetByID(ctx, id)
	if err != nil {
		return domain.Agent{}, fmt.Errorf("get agent by id: %w", err)
	}
	return agent, nil
}

func (s *AgentService) ListAgents(ctx context.Context) ([]domain.Agent, error) {
	agents, err := s.agents.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	return agents, nil
}

// DeleteAgent removes the agent and then its credential. A credential delete
// failure is reported but the agent stays deleted.
func (s *AgentService) DeleteAgent(ctx context.Context, id domain.AgentID) error {
	agent, err := s.agents.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get agent by id: %w", err)
	}

	if err := s.agents.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete agent: %w", err)
	}

	if agent.CredentialID != "" {
		if err := s.store.Delete(ctx, agent.CredentialID); err != nil && !errors.Is(err, domain.ErrCredentialNotFound) {
			return fmt.Errorf("delete agent credential: %w", err)
		}
	}

	return nil
}

// SetCredential stores apiKey under a fresh reference, points the agent at it and
// deletes the superseded entry. Any failure rolls the earlier steps back.
func (s *AgentService) SetCredential(ctx context.Context, id domain.AgentID, apiKey string) (string, error) {
	if strings.TrimSpace(apiKey) == "" {
		return "", fmt.Errorf("api key is required")
	}

	agent, err := s.agents.GetByID(ctx, id)
	if err != nil {
		return "", fmt.Errorf("get agent by id: %w", err)
	}
	originalAgent := agent
	previousRef := agent.CredentialID

	ref := CredentialRef(agent, s.clock.Now())
	if err := s.store.Put(ctx, ref, apiKey); err != nil {
		return "", fmt.Errorf("store credential: %w", err)
	}

	agent.CredentialID = ref
	agent.UpdatedAt = s.clock.Now()

	if err := s.agents.Save(ctx, agent); err != nil {
		if rollbackErr := s.store.Delete(ctx, ref); rollbackErr != nil {
			return "", fmt.Errorf("save agent credential and rollback stored credential: %w", errors.Join(err, rollbackErr))
		}

		return "", fmt.Errorf("save agent credential: %w", err)
	}

	if previousRef == "" || previousRef == ref {
		return ref, nil
	}

	if err := s.store.Delete(ctx, previousRef); err != nil {
		if errors.Is(err, domain.ErrCredentialNotFound) {
			return ref, nil
		}

		var rollbackErr error
		if restoreErr := s.agents.Save(ctx, originalAgent); restoreErr != nil {
			rollbackErr = errors.Join(rollbackErr, restoreErr)
		}
		if newRefDeleteErr := s.store.Delete(ctx, ref); newRefDeleteErr != nil {
			rollbackErr = errors.Join(rollbackErr, newRefDeleteErr)
		}
		if rollbackErr != nil {
			return "", fmt.Errorf("delete previous credential and rollback credential update: %w", errors.Join(err, rollbackErr))
		}
		return "", fmt.Errorf("delete previous credential: %w", err)
	}

	return ref, nil
}

func (s *AgentService) RemoveCredential(ctx context.Context, id domain.AgentID) error {
	agent, err := s.agents.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get agent by id: %w", err)
	}
	originalAgent := agent

	if agent.CredentialID == "" {
		return nil
	}

	agent.CredentialID = ""
	agent.UpdatedAt = s.clock.Now()
	if err := s.agents.Save(ctx, agent); err != nil {
		return fmt.Errorf("save agent credential: %w", err)
	}

	if err := s.store.Delete(ctx, originalAgent.CredentialID); err != nil && !errors.Is(err, domain.ErrCredentialNotFound) {
		if restoreErr := s.agents.Save(ctx, originalAgent); restoreErr != nil {
			return fmt.Errorf("delete credential and restore agent: %w", errors.Join(err, restoreErr))
		}
		return fmt.Errorf("delete credential: %w", err)
	}

	return nil
}

func (s *AgentService) ResolveAPIKey(ctx context.Context, agent domain.Agent) (string, error) {
	return ResolveAPIKey(ctx, s.store, agent.Provider, agent.CredentialID)
}

// CredentialRef names a stored API key, e.g. openai://builder/api_key@20260214T120000Z.
func CredentialRef(agent domain.Agent, now time.Time) string {
	return fmt.Sprintf("%s://%s/api_key@%s", agent.Provider, agent.ID, now.UTC().Format("20060102T150405Z"))
}

// ProviderCredentialKey is the fallback key looked up when a session has no credential of its own.
func ProviderCredentialKey(provider domain.Provider) string {
	return fmt.Sprintf("%s://default/api_key", provider)
}

// ResolveAPIKey loads the session credential, then the provider default. Providers
// that need no key resolve to "".
func ResolveAPIKey(ctx context.Context, store ports.CredentialStore, provider domain.Provider, credentialID string) (string, error) {
	if store == nil {
		return "", nil
	}

	if credentialID != "" {
		value, err := store.Get(ctx, credentialID)
		if err == nil {
			return value, nil
		}
		if !errors.Is(err, domain.ErrCredentialNotFound) {
			return "", fmt.Errorf("load credential %s: %w", credentialID, err)
		}
	}

	if provider == "" || provider.IsCLI() {
		return "", nil
	}

	value, err := store.Get(ctx, ProviderCredentialKey(provider))
	if err != nil {
		if errors.Is(err, domain.ErrCredentialNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("load %s credential: %w", provider, err)
	}

	return value, nil
}
