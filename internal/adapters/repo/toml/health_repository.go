package toml

import (
	"context"
	"sort"
	"sync"

	"github.com/bnema/agentdeck/internal/domain"
	"github.com/bnema/agentdeck/internal/ports"
	"github.com/spf13/viper"
)

const healthFileName = "delegate_health.toml"

// HealthSnapshotRepository persists the advisory delegate ranking between CLI runs.
type HealthSnapshotRepository struct {
	path string
	mu   *sync.RWMutex
}

var _ ports.HealthSnapshotRepository = (*HealthSnapshotRepository)(nil)

func NewHealthSnapshotRepository(cfg *viper.Viper) (*HealthSnapshotRepository, error) {
	path, err := resolvePath(cfg, HealthPathKey, healthFileName)
	if err != nil {
		return nil, err
	}

	return &HealthSnapshotRepository{path: path, mu: lockForPath(path)}, nil
}

func (r *HealthSnapshotRepository) Load(ctx context.Context) (domain.HealthSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return domain.HealthSnapshot{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var file healthFileSchema
	if _, err := readTOMLFile(r.path, "delegate health", &file); err != nil {
		return domain.HealthSnapshot{}, err
	}
	if err := validateVersion("delegate health", file.Version); err != nil {
		return domain.HealthSnapshot{}, err
	}

	snapshot := domain.HealthSnapshot{CapturedAt: parseTime(file.CapturedAt)}
	for _, entry := range file.Entries {
		decoded := domain.DelegateHealthEntry{Backend: domain.BackendID(entry.Backend)}
		for _, outcome := range entry.Outcomes {
			decoded.Outcomes = append(decoded.Outcomes, domain.HealthOutcome{
				Success: outcome.Success,
				Reason:  outcome.Reason,
				At:      parseTime(outcome.At),
			})
		}
		snapshot.Entries = append(snapshot.Entries, decoded)
	}

	return snapshot, nil
}

func (r *HealthSnapshotRepository) Save(ctx context.Context, snapshot domain.HealthSnapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file := healthFileSchema{CapturedAt: formatTime(snapshot.CapturedAt), Entries: []healthEntrySchema{}}
	applyVersionDefault(&file.Version)

	entries := append([]domain.DelegateHealthEntry(nil), snapshot.Entries...)
	sort.Slice(entries, func(i, j int) bool { return entries[i].Backend < entries[j].Backend })
	for _, entry := range entries {
		encoded := healthEntrySchema{Backend: string(entry.Backend), Outcomes: []healthOutcomeSchema{}}
		for _, outcome := range entry.Outcomes {
			encoded.Outcomes = append(encoded.Outcomes, healthOutcomeSchema{
				Success: outcome.Success,
				Reason:  outcome.Reason,
				At:      formatTime(outcome.At),
			})
		}
		file.Entries = append(file.Entries, encoded)
	}

	return writeTOMLFile(r.path, file)
}
