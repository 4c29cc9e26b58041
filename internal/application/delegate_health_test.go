package application

import (
	"sync"
	"testing"
	"time"

	"github.com/bnema/agentdeck/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type steppingClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *steppingClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestDelegateHealthRankPrefersHealthyWithoutRemoving(t *testing.T) {
	clock := &steppingClock{now: time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)}
	health := NewDelegateHealth(clock)

	health.MarkSuccess(domain.BackendCodex)
	health.MarkSuccess(domain.BackendCodex)
	health.MarkSuccess(domain.BackendClaude)
	health.MarkFailure(domain.BackendOpenCode, "exit status 1")

	ranked := health.Rank([]domain.BackendID{domain.BackendOpenCode, domain.BackendClaude, domain.BackendCodex})

	assert.Equal(t, []domain.BackendID{domain.BackendCodex, domain.BackendClaude, domain.BackendOpenCode}, ranked)
}

func TestDelegateHealthRankIsStableForTies(t *testing.T) {
	health := NewDelegateHealth(fixedClock{now: time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)})

	input := []domain.BackendID{domain.BackendOpenCode, domain.BackendCodex, domain.BackendClaude}
	assert.Equal(t, input, health.Rank(input))
}

func TestDelegateHealthFailuresDecay(t *testing.T) {
	clock := &steppingClock{now: time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)}
	health := NewDelegateHealth(clock)

	health.MarkFailure(domain.BackendClaude, "timeout")
	fresh := health.Score(domain.BackendClaude)

	clock.advance(healthHalfLife)
	decayed := health.Score(domain.BackendClaude)

	assert.InDelta(t, -2.0, fresh, 1e-9)
	assert.InDelta(t, -1.0, decayed, 1e-9)
}

func TestDelegateHealthKeepsRollingWindow(t *testing.T) {
	health := NewDelegateHealth(fixedClock{now: time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)})

	for i := 0; i < healthWindow+5; i++ {
		health.MarkSuccess(domain.BackendCodex)
	}

	snapshot := health.Snapshot()
	require.Len(t, snapshot.Entries, 1)
	assert.Len(t, snapshot.Entries[0].Outcomes, healthWindow)
}

func TestDelegateHealthSnapshotRestoreRoundTrip(t *testing.T) {
	now := time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)
	source := NewDelegateHealth(fixedClock{now: now})
	source.MarkFailure(domain.BackendClaude, "rate limited")
	source.MarkSuccess(domain.BackendCodex)

	restored := NewDelegateHealth(fixedClock{now: now})
	restored.Restore(source.Snapshot())

	assert.Equal(t, source.Scores(), restored.Scores())
	scores := restored.Scores()
	require.Len(t, scores, 2)
	assert.Equal(t, domain.BackendCodex, scores[0].Backend)
	assert.Equal(t, "rate limited", scores[1].LastError)
	assert.Equal(t, 1, scores[1].Failures)
}

func TestDelegateHealthConcurrentUpdates(t *testing.T) {
	health := NewDelegateHealth(nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				health.MarkSuccess(domain.BackendClaude)
			} else {
				health.MarkFailure(domain.BackendCodex, "boom")
			}
			_ = health.Rank(domain.CanonicalDelegateOrder)
		}(i)
	}
	wg.Wait()

	assert.Len(t, health.Rank(domain.CanonicalDelegateOrder), 3)
}
