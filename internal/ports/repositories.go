package ports

import (
	"context"

	"github.com/bnema/agentdeck/internal/domain"
)

type SessionRepository interface {
	GetByID(ctx context.Context, id domain.SessionID) (domain.Session, error)
	List(ctx context.Context) ([]domain.Session, error)
	Save(ctx context.Context, session domain.Session) error
	Delete(ctx context.Context, id domain.SessionID) error
}

type AgentRepository interface {
	GetByID(ctx context.Context, id domain.AgentID) (domain.Agent, error)
	List(ctx context.Context) ([]domain.Agent, error)
	Save(ctx context.Context, agent domain.Agent) error
	Delete(ctx context.Context, id domain.AgentID) error
}

type SettingsRepository interface {
	Load(ctx context.Context) (domain.Settings, error)
	Save(ctx context.Context, settings domain.Settings) error
}

type HealthSnapshotRepository interface {
	Load(ctx context.Context) (domain.HealthSnapshot, error)
	Save(ctx context.Context, snapshot domain.HealthSnapshot) error
}
