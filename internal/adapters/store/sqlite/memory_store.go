package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/agentdeck/internal/domain"
	"github.com/bnema/agentdeck/internal/ports"
	"github.com/google/uuid"
)

const defaultSearchLimit = 20

type MemoryStore struct {
	db *DB
}

var _ ports.MemoryStore = (*MemoryStore)(nil)

func NewMemoryStore(db *DB) *MemoryStore {
	return &MemoryStore{db: db}
}

// Add stores entry, assigning an id when it has none.
func (s *MemoryStore) Add(ctx context.Context, entry domain.MemoryEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	_, err := s.db.db.ExecContext(ctx,
		`INSERT INTO memories (id, session_id, agent_id, category, title, content, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, string(entry.SessionID), string(entry.AgentID), entry.Category, entry.Title, entry.Content, toUnix(entry.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert memory: %w", err)
	}
	return nil
}

func (s *MemoryStore) LatestBySessionCategory(ctx context.Context, sessionID domain.SessionID, category string) (domain.MemoryEntry, bool, error) {
	row := s.db.db.QueryRowContext(ctx,
		`SELECT id, session_id, agent_id, category, title, content, created_at FROM memories
		 WHERE session_id = ? AND category = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`,
		string(sessionID), category,
	)

	entry, err := scanMemory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.MemoryEntry{}, false, nil
	}
	if err != nil {
		return domain.MemoryEntry{}, false, fmt.Errorf("query latest memory: %w", err)
	}
	return entry, true, nil
}

// Search matches query words against title and content, newest first. An empty
// agentID searches every agent.
func (s *MemoryStore) Search(ctx context.Context, agentID domain.AgentID, query string, limit int) ([]domain.MemoryEntry, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	clauses := make([]string, 0)
	args := make([]any, 0)
	if agentID != "" {
		clauses = append(clauses, "agent_id = ?")
		args = append(args, string(agentID))
	}
	for _, word := range strings.Fields(query) {
		pattern := "%" + escapeLike(strings.ToLower(word)) + "%"
		clauses = append(clauses, `(lower(title) LIKE ? ESCAPE '\' OR lower(content) LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}

	stmt := `SELECT id, session_id, agent_id, category, title, content, created_at FROM memories`
	if len(clauses) > 0 {
		stmt += " WHERE " + strings.Join(clauses, " AND ")
	}
	stmt += " ORDER BY created_at DESC, rowid DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("search memories: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.MemoryEntry, 0)
	for rows.Next() {
		entry, err := scanMemory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan memory: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search memories: %w", err)
	}

	return entries, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMemory(row scanner) (domain.MemoryEntry, error) {
	var (
		entry              domain.MemoryEntry
		sessionID, agentID string
		createdAt          int64
	)
	if err := row.Scan(&entry.ID, &sessionID, &agentID, &entry.Category, &entry.Title, &entry.Content, &createdAt); err != nil {
		return domain.MemoryEntry{}, err
	}
	entry.SessionID = domain.SessionID(sessionID)
	entry.AgentID = domain.AgentID(agentID)
	entry.CreatedAt = fromUnix(createdAt)
	return entry, nil
}

func escapeLike(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(s)
}
