package toml

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/bnema/agentdeck/internal/domain"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthSnapshotRepositoryRoundTrip(t *testing.T) {
	t.Parallel()

	config := viper.New()
	config.Set(HealthPathKey, filepath.Join(t.TempDir(), "health.toml"))
	repo, err := NewHealthSnapshotRepository(config)
	require.NoError(t, err)

	empty, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, empty.IsStale(time.Now(), time.Hour))

	now := time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)
	snapshot := domain.HealthSnapshot{
		CapturedAt: now,
		Entries: []domain.DelegateHealthEntry{
			{Backend: domain.BackendCodex, Outcomes: []domain.HealthOutcome{{Success: true, At: now}}},
			{Backend: domain.BackendClaude, Outcomes: []domain.HealthOutcome{{Reason: "exit status 1", At: now.Add(-time.Minute)}}},
		},
	}
	require.NoError(t, repo.Save(context.Background(), snapshot))

	got, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, now, got.CapturedAt)
	require.Len(t, got.Entries, 2)
	assert.Equal(t, domain.BackendClaude, got.Entries[0].Backend)
	assert.Equal(t, "exit status 1", got.Entries[0].Outcomes[0].Reason)
	assert.True(t, got.Entries[1].Outcomes[0].Success)
}
