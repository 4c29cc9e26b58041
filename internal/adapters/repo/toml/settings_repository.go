package toml

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bnema/agentdeck/internal/domain"
	"github.com/bnema/agentdeck/internal/logger"
	"github.com/bnema/agentdeck/internal/ports"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

const settingsFileName = "settings.toml"

// SettingsRepository caches the decoded settings file. The cache is dropped on
// every Save and, while Watch runs, on every change made on disk.
type SettingsRepository struct {
	path string
	mu   *sync.RWMutex
	log  *log.Logger

	cacheMu sync.Mutex
	cached  *domain.Settings
}

var _ ports.SettingsRepository = (*SettingsRepository)(nil)

func NewSettingsRepository(cfg *viper.Viper, l *log.Logger) (*SettingsRepository, error) {
	path, err := resolvePath(cfg, SettingsPathKey, settingsFileName)
	if err != nil {
		return nil, err
	}

	return &SettingsRepository{path: path, mu: lockForPath(path), log: logger.OrDefault(l)}, nil
}

func (r *SettingsRepository) Path() string {
	return r.path
}

// Load returns the stored settings, or domain.DefaultSettings when no file exists.
func (r *SettingsRepository) Load(ctx context.Context) (domain.Settings, error) {
	if err := ctx.Err(); err != nil {
		return domain.Settings{}, err
	}

	r.cacheMu.Lock()
	if r.cached != nil {
		settings := cloneSettings(*r.cached)
		r.cacheMu.Unlock()
		return settings, nil
	}
	r.cacheMu.Unlock()

	r.mu.RLock()
	var file settingsFileSchema
	found, err := readTOMLFile(r.path, "settings", &file)
	r.mu.RUnlock()
	if err != nil {
		return domain.Settings{}, err
	}
	if err := validateVersion("settings", file.Version); err != nil {
		return domain.Settings{}, err
	}

	settings := domain.DefaultSettings()
	if found {
		settings, err = fromSettingsSchema(file)
		if err != nil {
			return domain.Settings{}, err
		}
	}

	r.store(settings)
	return cloneSettings(settings), nil
}

func (r *SettingsRepository) Save(ctx context.Context, settings domain.Settings) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	settings.ApplyDefaults()
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("validate settings: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file := toSettingsSchema(settings)
	applyVersionDefault(&file.Version)
	if err := writeTOMLFile(r.path, file); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	r.store(settings)
	return nil
}

// Watch drops the cache whenever the settings file is created, written, renamed
// or removed, then calls onChange with the reloaded settings. It blocks until ctx
// is done.
func (r *SettingsRepository) Watch(ctx context.Context, onChange func(domain.Settings)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create settings watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, dataDirMode); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}
	// The directory is watched because saves replace the file through a rename.
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch settings directory: %w", err)
	}
	r.log.Debug("watching settings", "path", r.path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != r.path {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}

			r.invalidate()
			settings, err := r.Load(ctx)
			if err != nil {
				r.log.Warn("reload settings", "path", r.path, "err", err)
				continue
			}
			r.log.Info("settings reloaded", "path", r.path, "policy", settings.PolicyMode)
			if onChange != nil {
				onChange(settings)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.log.Warn("settings watcher error", "err", err)
		}
	}
}

func (r *SettingsRepository) store(settings domain.Settings) {
	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()

	cached := cloneSettings(settings)
	r.cached = &cached
}

func (r *SettingsRepository) invalidate() {
	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()

	r.cached = nil
}

func cloneSettings(settings domain.Settings) domain.Settings {
	out := settings
	out.BlockedTools = append([]string(nil), settings.BlockedTools...)
	out.BlockedCategories = append([]domain.ToolCategory(nil), settings.BlockedCategories...)
	out.AllowedTools = append([]string(nil), settings.AllowedTools...)
	out.DelegateOrder = append([]string(nil), settings.DelegateOrder...)
	if settings.CostPer1KTokens != nil {
		out.CostPer1KTokens = make(map[domain.Provider]float64, len(settings.CostPer1KTokens))
		for provider, cost := range settings.CostPer1KTokens {
			out.CostPer1KTokens[provider] = cost
		}
	}
	return out
}

func toSettingsSchema(settings domain.Settings) settingsFileSchema {
	categories := make([]string, 0, len(settings.BlockedCategories))
	for _, category := range settings.BlockedCategories {
		categories = append(categories, string(category))
	}

	var costs map[string]float64
	if len(settings.CostPer1KTokens) > 0 {
		costs = make(map[string]float64, len(settings.CostPer1KTokens))
		for provider, cost := range settings.CostPer1KTokens {
			costs[string(provider)] = cost
		}
	}

	autoMemory := settings.AutoMemoryEnabled
	schema := settingsFileSchema{
		CapabilityPolicyMode:        string(settings.PolicyMode),
		CapabilityBlockedTools:      nonNil(settings.BlockedTools),
		CapabilityBlockedCategories: categories,
		CapabilityAllowedTools:      nonNil(settings.AllowedTools),
		DailySpendCapUSD:            settings.DailySpendCapUSD,
		DelegateOrder:               nonNil(settings.DelegateOrder),
		HeartbeatAckMaxChars:        settings.HeartbeatAckMaxChars,
		HistoryLimit:                settings.HistoryLimit,
		AutoMemoryEnabled:           &autoMemory,
		CostPer1KTokens:             costs,
	}
	if settings.HeartbeatInterval > 0 {
		schema.HeartbeatInterval = settings.HeartbeatInterval.String()
	}

	return schema
}

func fromSettingsSchema(schema settingsFileSchema) (domain.Settings, error) {
	settings := domain.Settings{
		PolicyMode:           domain.PolicyMode(schema.CapabilityPolicyMode),
		BlockedTools:         domain.NormalizeToolList(schema.CapabilityBlockedTools),
		AllowedTools:         domain.NormalizeToolList(schema.CapabilityAllowedTools),
		DailySpendCapUSD:     schema.DailySpendCapUSD,
		DelegateOrder:        schema.DelegateOrder,
		HeartbeatAckMaxChars: schema.HeartbeatAckMaxChars,
		HistoryLimit:         schema.HistoryLimit,
		AutoMemoryEnabled:    true,
	}
	for _, category := range schema.CapabilityBlockedCategories {
		settings.BlockedCategories = append(settings.BlockedCategories, domain.ToolCategory(category))
	}
	if schema.AutoMemoryEnabled != nil {
		settings.AutoMemoryEnabled = *schema.AutoMemoryEnabled
	}
	if len(schema.CostPer1KTokens) > 0 {
		settings.CostPer1KTokens = make(map[domain.Provider]float64, len(schema.CostPer1KTokens))
		for provider, cost := range schema.CostPer1KTokens {
			settings.CostPer1KTokens[domain.Provider(provider)] = cost
		}
	}
	if schema.HeartbeatInterval != "" {
		interval, err := time.ParseDuration(schema.HeartbeatInterval)
		if err != nil {
			return domain.Settings{}, fmt.Errorf("decode settings heartbeat_interval: %w", err)
		}
		settings.HeartbeatInterval = interval
	}

	settings.ApplyDefaults()
	return settings, nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
