package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/bnema/agentdeck/internal/domain"
	"github.com/bnema/agentdeck/internal/ports"
	"github.com/google/uuid"
)

type UsageLedger struct {
	db *DB
}

var _ ports.UsageLedger = (*UsageLedger)(nil)

func NewUsageLedger(db *DB) *UsageLedger {
	return &UsageLedger{db: db}
}

func (l *UsageLedger) Record(ctx context.Context, record domain.UsageRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}

	_, err := l.db.db.ExecContext(ctx,
		`INSERT INTO usage (id, session_id, agent_id, provider, model, input_tokens, output_tokens, estimated_cost, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID, string(record.SessionID), string(record.AgentID), string(record.Provider), record.Model,
		record.Usage.InputTokens, record.Usage.OutputTokens, record.EstimatedCost, toUnix(record.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert usage: %w", err)
	}
	return nil
}

func (l *UsageLedger) DailyCost(ctx context.Context, from, to time.Time) (float64, error) {
	var total float64
	err := l.db.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(estimated_cost), 0) FROM usage WHERE created_at >= ? AND created_at < ?`,
		toUnix(from), toUnix(to),
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum usage: %w", err)
	}
	return total, nil
}

// List returns records created at or after since, oldest first.
func (l *UsageLedger) List(ctx context.Context, since time.Time) ([]domain.UsageRecord, error) {
	rows, err := l.db.db.QueryContext(ctx,
		`SELECT id, session_id, agent_id, provider, model, input_tokens, output_tokens, estimated_cost, created_at
		 FROM usage WHERE created_at >= ? ORDER BY created_at, rowid`,
		toUnix(since),
	)
	if err != nil {
		return nil, fmt.Errorf("list usage: %w", err)
	}
	defer rows.Close()

	records := make([]domain.UsageRecord, 0)
	for rows.Next() {
		var (
			record                       domain.UsageRecord
			sessionID, agentID, provider string
			createdAt                    int64
		)
		if err := rows.Scan(&record.ID, &sessionID, &agentID, &provider, &record.Model,
			&record.Usage.InputTokens, &record.Usage.OutputTokens, &record.EstimatedCost, &createdAt); err != nil {
			return nil, fmt.Errorf("scan usage: %w", err)
		}
		record.SessionID = domain.SessionID(sessionID)
		record.AgentID = domain.AgentID(agentID)
		record.Provider = domain.Provider(provider)
		record.CreatedAt = fromUnix(createdAt)
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list usage: %w", err)
	}

	return records, nil
}
