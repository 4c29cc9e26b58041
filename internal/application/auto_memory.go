package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bnema/agentdeck/internal/domain"
	"github.com/bnema/agentdeck/internal/ports"
	"github.com/google/uuid"
)

const (
	minJournalResponseChars = 40
	noteTitleChars          = 60
	noteUserChars           = 280
	noteAssistantChars      = 600
)

var ackPhrases = map[string]struct{}{
	"ok": {}, "okay": {}, "k": {}, "kk": {}, "thanks": {}, "thank you": {}, "thx": {}, "ty": {},
	"cool": {}, "nice": {}, "great": {}, "got it": {}, "sure": {}, "yes": {}, "no": {}, "yep": {},
	"nope": {}, "sounds good": {}, "perfect": {}, "done": {}, "lgtm": {}, "👍": {},
}

// MemoryGate decides whether a finished turn is worth an automatic journal note.
type MemoryGate struct {
	store       ports.MemoryStore
	clock       ports.Clock
	minInterval time.Duration
}

func NewMemoryGate(store ports.MemoryStore, clock ports.Clock) *MemoryGate {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &MemoryGate{store: store, clock: clock, minInterval: domain.AutoMemoryMinInterval}
}

func (g *MemoryGate) ShouldJournal(session domain.Session, source domain.RunSource, internal bool, userText, responseText string, now time.Time) bool {
	if g.store == nil || internal {
		return false
	}
	if source != domain.SourceChat && source != domain.SourceConnector {
		return false
	}
	if session.AgentID == "" || !session.HasTool(domain.ToolMemory) {
		return false
	}
	if isAcknowledgement(userText) {
		return false
	}
	if len([]rune(strings.TrimSpace(responseText))) < minJournalResponseChars {
		return false
	}

	last := session.LastAutoMemoryAt()
	if !last.IsZero() && now.Sub(last) < g.minInterval {
		return false
	}

	return true
}

// Journal stores a compact note for the turn. It returns false without writing when
// the latest auto note for the session is identical.
func (g *MemoryGate) Journal(ctx context.Context, session domain.Session, userText, responseText string) (domain.MemoryEntry, bool, error) {
	entry := domain.MemoryEntry{
		ID:        uuid.NewString(),
		SessionID: session.ID,
		AgentID:   session.AgentID,
		Category:  domain.MemoryCategoryAutoJournal,
		Title:     "Auto note: " + excerpt(userText, noteTitleChars),
		Content: fmt.Sprintf("User: %s\nAssistant: %s",
			excerpt(userText, noteUserChars), excerpt(responseText, noteAssistantChars)),
		CreatedAt: g.clock.Now(),
	}

	latest, ok, err := g.store.LatestBySessionCategory(ctx, session.ID, domain.MemoryCategoryAutoJournal)
	if err != nil {
		return domain.MemoryEntry{}, false, fmt.Errorf("load latest auto note: %w", err)
	}
	if ok && latest.SameNote(entry) {
		return latest, false, nil
	}

	if err := g.store.Add(ctx, entry); err != nil {
		return domain.MemoryEntry{}, false, fmt.Errorf("add auto note: %w", err)
	}

	return entry, true, nil
}

func isAcknowledgement(text string) bool {
	normalized := strings.ToLower(strings.TrimSpace(text))
	normalized = strings.Trim(normalized, ".!?,~ ")
	if normalized == "" {
		return true
	}
	_, ok := ackPhrases[normalized]
	return ok
}

// excerpt collapses whitespace and truncates to max runes with an ellipsis.
func excerpt(text string, max int) string {
	collapsed := strings.Join(strings.Fields(text), " ")
	runes := []rune(collapsed)
	if len(runes) <= max {
		return collapsed
	}
	return strings.TrimSpace(string(runes[:max-1])) + "…"
}
