package ports

import (
	"context"
	"time"

	"github.com/bnema/agentdeck/internal/domain"
)

// CredentialStore holds API keys by reference. Get returns domain.ErrCredentialNotFound for unknown keys.
type CredentialStore interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
}

type MemoryStore interface {
	Add(ctx context.Context, entry domain.MemoryEntry) error
	// LatestBySessionCategory returns ok=false when the session has no note in that category.
	LatestBySessionCategory(ctx context.Context, sessionID domain.SessionID, category string) (domain.MemoryEntry, bool, error)
	Search(ctx context.Context, agentID domain.AgentID, query string, limit int) ([]domain.MemoryEntry, error)
}

type UsageLedger interface {
	Record(ctx context.Context, record domain.UsageRecord) error
	// DailyCost sums estimated cost over [from, to).
	DailyCost(ctx context.Context, from, to time.Time) (float64, error)
	List(ctx context.Context, since time.Time) ([]domain.UsageRecord, error)
}
