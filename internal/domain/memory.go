package domain

import "time"

const MemoryCategoryAutoJournal = "auto_journal"

type MemoryEntry struct {
	ID        string
	SessionID SessionID
	AgentID   AgentID
	Category  string
	Title     string
	Content   string
	CreatedAt time.Time
}

// SameNote reports whether two entries carry identical title and content.
func (m MemoryEntry) SameNote(other MemoryEntry) bool {
	return m.Title == other.Title && m.Content == other.Content
}
