package application

import (
	"context"
	"sort"
	"sync"

	"github.com/bnema/agentdeck/internal/domain"
)

type activeRun struct {
	cancel context.CancelFunc
}

// RunRegistry tracks the cancel handle of the run currently active for each session.
type RunRegistry struct {
	mu   sync.Mutex
	runs map[domain.SessionID]*activeRun
}

func NewRunRegistry() *RunRegistry {
	return &RunRegistry{runs: map[domain.SessionID]*activeRun{}}
}

// Register claims the session for one run. The returned release must be called
// when the run ends; it only removes this run's own entry.
func (r *RunRegistry) Register(id domain.SessionID, cancel context.CancelFunc) (func(), error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, busy := r.runs[id]; busy {
		return nil, domain.ErrRunInProgress
	}

	run := &activeRun{cancel: cancel}
	r.runs[id] = run

	var once sync.Once
	release := func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			if r.runs[id] == run {
				delete(r.runs, id)
			}
		})
	}

	return release, nil
}

// Cancel aborts the active run for id. It reports whether a run was found.
func (r *RunRegistry) Cancel(id domain.SessionID) bool {
	r.mu.Lock()
	run, ok := r.runs[id]
	r.mu.Unlock()

	if !ok {
		return false
	}
	run.cancel()
	return true
}

func (r *RunRegistry) Active() []domain.SessionID {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]domain.SessionID, 0, len(r.runs))
	for id := range r.runs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return ids
}
