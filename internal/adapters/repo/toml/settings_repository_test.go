package toml

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bnema/agentdeck/internal/domain"
	"github.com/bnema/agentdeck/internal/logger"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSettingsRepo(t *testing.T, path string) *SettingsRepository {
	t.Helper()

	config := viper.New()
	config.Set(SettingsPathKey, path)
	repo, err := NewSettingsRepository(config, logger.Discard())
	require.NoError(t, err)
	return repo
}

func TestSettingsRepositoryMissingFileUsesDefaults(t *testing.T) {
	t.Parallel()

	repo := newTestSettingsRepo(t, filepath.Join(t.TempDir(), "settings.toml"))

	settings, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSettings(), settings)
}

func TestSettingsRepositoryDecodesFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.toml")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join([]string{
		`capability_policy_mode = "strict"`,
		`capability_blocked_tools = ["Shell"]`,
		`capability_blocked_categories = ["outbound"]`,
		`capability_allowed_tools = ["memory", "web_fetch"]`,
		`daily_spend_cap_usd = 2.5`,
		`delegate_order = ["codex", "claude"]`,
		`heartbeat_interval = "30m"`,
		``,
		`[cost_per_1k_tokens]`,
		`openai = 0.01`,
		``,
	}, "\n")), 0o600))

	settings, err := newTestSettingsRepo(t, path).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.PolicyModeStrict, settings.PolicyMode)
	assert.Equal(t, []string{"shell"}, settings.BlockedTools)
	assert.Equal(t, []domain.ToolCategory{domain.CategoryOutbound}, settings.BlockedCategories)
	assert.Equal(t, []string{"memory", "web_fetch"}, settings.AllowedTools)
	assert.Equal(t, 2.5, settings.DailySpendCapUSD)
	assert.Equal(t, []string{"codex", "claude"}, settings.DelegateOrder)
	assert.Equal(t, 30*time.Minute, settings.HeartbeatInterval)
	assert.Equal(t, domain.DefaultHeartbeatAckMaxChars, settings.HeartbeatAckMaxChars)
	assert.Equal(t, domain.DefaultHistoryLimit, settings.HistoryLimit)
	assert.True(t, settings.AutoMemoryEnabled, "absent flag keeps auto memory on")
	assert.Equal(t, 0.01, settings.CostPer1KTokens[domain.ProviderOpenAI])
}

func TestSettingsRepositorySaveRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.toml")
	repo := newTestSettingsRepo(t, path)

	settings := domain.DefaultSettings()
	settings.BlockedTools = []string{"browser"}
	settings.AutoMemoryEnabled = false
	settings.HeartbeatInterval = 15 * time.Minute
	require.NoError(t, repo.Save(context.Background(), settings))

	got, err := newTestSettingsRepo(t, path).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"browser"}, got.BlockedTools)
	assert.False(t, got.AutoMemoryEnabled)
	assert.Equal(t, 15*time.Minute, got.HeartbeatInterval)

	settings.PolicyMode = "chaotic"
	assert.Error(t, repo.Save(context.Background(), settings))
}

func TestSettingsRepositoryLoadReturnsCopies(t *testing.T) {
	t.Parallel()

	repo := newTestSettingsRepo(t, filepath.Join(t.TempDir(), "settings.toml"))
	settings := domain.DefaultSettings()
	settings.BlockedTools = []string{"shell"}
	require.NoError(t, repo.Save(context.Background(), settings))

	first, err := repo.Load(context.Background())
	require.NoError(t, err)
	first.BlockedTools[0] = "mutated"

	second, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"shell"}, second.BlockedTools)
}

func TestSettingsRepositoryWatchReloadsExternalEdits(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.toml")
	repo := newTestSettingsRepo(t, path)

	settings, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Empty(t, settings.BlockedTools)

	ctx, cancel := context.WithCancel(context.Background())
	changes := make(chan domain.Settings, 4)
	done := make(chan error, 1)
	go func() {
		done <- repo.Watch(ctx, func(s domain.Settings) {
			select {
			case changes <- s:
			default:
			}
		})
	}()

	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("capability_blocked_tools = [\"shell\"]\n"), 0o600)
		select {
		case changed := <-changes:
			return len(changed.BlockedTools) == 1
		case <-time.After(50 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 100*time.Millisecond)

	reloaded, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"shell"}, reloaded.BlockedTools)

	cancel()
	require.NoError(t, <-done)
}
