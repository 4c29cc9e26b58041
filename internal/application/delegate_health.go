package application

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/bnema/agentdeck/internal/domain"
	"github.com/bnema/agentdeck/internal/ports"
)

const (
	healthWindow   = 10
	healthHalfLife = 15 * time.Minute
	failureWeight  = 2.0
)

// DelegateHealth keeps a rolling, advisory score per backend. It only reorders
// candidates and never removes one.
type DelegateHealth struct {
	mu       sync.Mutex
	outcomes map[domain.BackendID][]domain.HealthOutcome
	clock    ports.Clock
}

type DelegateScore struct {
	Backend   domain.BackendID
	Score     float64
	Successes int
	Failures  int
	LastError string
}

func NewDelegateHealth(clock ports.Clock) *DelegateHealth {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &DelegateHealth{
		outcomes: map[domain.BackendID][]domain.HealthOutcome{},
		clock:    clock,
	}
}

func (h *DelegateHealth) MarkSuccess(id domain.BackendID) {
	h.record(id, domain.HealthOutcome{Success: true, At: h.clock.Now()})
}

func (h *DelegateHealth) MarkFailure(id domain.BackendID, reason string) {
	h.record(id, domain.HealthOutcome{Success: false, Reason: reason, At: h.clock.Now()})
}

func (h *DelegateHealth) record(id domain.BackendID, outcome domain.HealthOutcome) {
	if id == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	outcomes := append(h.outcomes[id], outcome)
	if len(outcomes) > healthWindow {
		outcomes = outcomes[len(outcomes)-healthWindow:]
	}
	h.outcomes[id] = outcomes
}

// Score decays each outcome with a fixed half-life. Failures weigh double.
func (h *DelegateHealth) Score(id domain.BackendID) float64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	return scoreOutcomes(h.outcomes[id], h.clock.Now())
}

func scoreOutcomes(outcomes []domain.HealthOutcome, now time.Time) float64 {
	score := 0.0
	for _, outcome := range outcomes {
		age := now.Sub(outcome.At)
		if age < 0 {
			age = 0
		}
		weight := math.Pow(0.5, float64(age)/float64(healthHalfLife))
		if outcome.Success {
			score += weight
		} else {
			score -= failureWeight * weight
		}
	}
	return score
}

// Rank returns candidates ordered by score, highest first. Ties keep input order.
func (h *DelegateHealth) Rank(candidates []domain.BackendID) []domain.BackendID {
	h.mu.Lock()
	now := h.clock.Now()
	scores := make(map[domain.BackendID]float64, len(candidates))
	for _, id := range candidates {
		scores[id] = scoreOutcomes(h.outcomes[id], now)
	}
	h.mu.Unlock()

	ranked := append([]domain.BackendID(nil), candidates...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return scores[ranked[i]] > scores[ranked[j]]
	})

	return ranked
}

// Scores reports every backend seen so far, ranked.
func (h *DelegateHealth) Scores() []DelegateScore {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.clock.Now()
	out := make([]DelegateScore, 0, len(h.outcomes))
	for id, outcomes := range h.outcomes {
		entry := DelegateScore{Backend: id, Score: scoreOutcomes(outcomes, now)}
		for _, outcome := range outcomes {
			if outcome.Success {
				entry.Successes++
				continue
			}
			entry.Failures++
			entry.LastError = outcome.Reason
		}
		out = append(out, entry)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score == out[j].Score {
			return out[i].Backend < out[j].Backend
		}
		return out[i].Score > out[j].Score
	})

	return out
}

func (h *DelegateHealth) Snapshot() domain.HealthSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()

	snapshot := domain.HealthSnapshot{
		Entries:    make([]domain.DelegateHealthEntry, 0, len(h.outcomes)),
		CapturedAt: h.clock.Now(),
	}
	for id, outcomes := range h.outcomes {
		snapshot.Entries = append(snapshot.Entries, domain.DelegateHealthEntry{
			Backend:  id,
			Outcomes: append([]domain.HealthOutcome(nil), outcomes...),
		})
	}
	sort.Slice(snapshot.Entries, func(i, j int) bool {
		return snapshot.Entries[i].Backend < snapshot.Entries[j].Backend
	})

	return snapshot
}

// Restore replaces the table with a snapshot. Outcomes beyond the window are dropped.
func (h *DelegateHealth) Restore(snapshot domain.HealthSnapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.outcomes = make(map[domain.BackendID][]domain.HealthOutcome, len(snapshot.Entries))
	for _, entry := range snapshot.Entries {
		outcomes := append([]domain.HealthOutcome(nil), entry.Outcomes...)
		if len(outcomes) > healthWindow {
			outcomes = outcomes[len(outcomes)-healthWindow:]
		}
		h.outcomes[entry.Backend] = outcomes
	}
}
