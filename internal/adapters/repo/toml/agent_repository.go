package toml

import (
	"context"
	"sync"

	"github.com/bnema/agentdeck/internal/domain"
	"github.com/bnema/agentdeck/internal/ports"
	"github.com/spf13/viper"
)

const agentsFileName = "agents.toml"

type AgentRepository struct {
	path string
	mu   *sync.RWMutex
}

var _ ports.AgentRepository = (*AgentRepository)(nil)

func NewAgentRepository(cfg *viper.Viper) (*AgentRepository, error) {
	path, err := resolvePath(cfg, AgentsPathKey, agentsFileName)
	if err != nil {
		return nil, err
	}

	return &AgentRepository{path: path, mu: lockForPath(path)}, nil
}

func (r *AgentRepository) Save(ctx context.Context, agent domain.Agent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}

	encoded := toAgentSchema(agent)
	updated := false
	for i := range file.Agents {
		if file.Agents[i].ID == encoded.ID {
			file.Agents[i] = encoded
			updated = true
			break
		}
	}
	if !updated {
		file.Agents = append(file.Agents, encoded)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	return writeTOMLFile(r.path, file)
}

func (r *AgentRepository) GetByID(ctx context.Context, id domain.AgentID) (domain.Agent, error) {
	if err := ctx.Err(); err != nil {
		return domain.Agent{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return domain.Agent{}, err
	}

	for _, entry := range file.Agents {
		if entry.ID == string(id) {
			return fromAgentSchema(entry), nil
		}
	}

	return domain.Agent{}, domain.ErrAgentNotFound
}

func (r *AgentRepository) List(ctx context.Context) ([]domain.Agent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return nil, err
	}

	agents := make([]domain.Agent, 0, len(file.Agents))
	for _, entry := range file.Agents {
		agents = append(agents, fromAgentSchema(entry))
	}

	return agents, nil
}

func (r *AgentRepository) Delete(ctx context.Context, id domain.AgentID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}

	kept := file.Agents[:0]
	removed := false
	for _, entry := range file.Agents {
		if entry.ID == string(id) {
			removed = true
			continue
		}
		kept = append(kept, entry)
	}
	if !removed {
		return domain.ErrAgentNotFound
	}
	file.Agents = kept

	return writeTOMLFile(r.path, file)
}

func (r *AgentRepository) readSchema() (agentsFileSchema, error) {
	var file agentsFileSchema
	if _, err := readTOMLFile(r.path, "agents", &file); err != nil {
		return agentsFileSchema{}, err
	}
	if err := validateVersion("agents", file.Version); err != nil {
		return agentsFileSchema{}, err
	}
	applyVersionDefault(&file.Version)

	return file, nil
}

func toAgentSchema(agent domain.Agent) agentSchema {
	return agentSchema{
		ID:                   string(agent.ID),
		Name:                 agent.Name,
		Provider:             string(agent.Provider),
		Model:                agent.Model,
		CredentialID:         agent.CredentialID,
		SystemPrompt:         agent.SystemPrompt,
		HeartbeatAckMaxChars: agent.HeartbeatAckMaxChars,
		UpdatedAt:            formatTime(agent.UpdatedAt),
	}
}

func fromAgentSchema(schema agentSchema) domain.Agent {
	return domain.Agent{
		ID:                   domain.AgentID(schema.ID),
		Name:                 schema.Name,
		Provider:             domain.Provider(schema.Provider),
		Model:                schema.Model,
		CredentialID:         schema.CredentialID,
		SystemPrompt:         schema.SystemPrompt,
		HeartbeatAckMaxChars: schema.HeartbeatAckMaxChars,
		UpdatedAt:            parseTime(schema.UpdatedAt),
	}
}
