package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tomlrepo "github.com/bnema/agentdeck/internal/adapters/repo/toml"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	envPrefix = "DECK"

	keyConfigFile     = "config"
	keyDataDir        = "data.dir"
	keyStorePath      = "store.path"
	keyCredentialsDir = "credentials.dir"
	keyLogLevel       = "log.level"
	keyLogFile        = "log.file"
	keyServeAddr      = "serve.addr"
	keyWebhookURL     = "connector.webhook_url"

	defaultServeAddr = "127.0.0.1:7411"
)

// loadConfig layers defaults, ~/.agentdeck/config.toml and DECK_* variables.
// .env files in the working directory and the data directory are loaded first
// so provider API keys can live there.
func loadConfig() (*viper.Viper, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	loadDotEnv(".env")

	cfg := viper.New()
	cfg.SetEnvPrefix(envPrefix)
	cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cfg.AutomaticEnv()

	cfg.SetDefault(keyDataDir, filepath.Join(homeDir, ".agentdeck"))
	dataDir := cfg.GetString(keyDataDir)
	loadDotEnv(filepath.Join(dataDir, ".env"))

	cfg.SetDefault(tomlrepo.SessionsPathKey, filepath.Join(dataDir, "sessions"))
	cfg.SetDefault(tomlrepo.AgentsPathKey, filepath.Join(dataDir, "agents.toml"))
	cfg.SetDefault(tomlrepo.SettingsPathKey, filepath.Join(dataDir, "settings.toml"))
	cfg.SetDefault(tomlrepo.HealthPathKey, filepath.Join(dataDir, "health.toml"))
	cfg.SetDefault(keyStorePath, filepath.Join(dataDir, "deck.db"))
	cfg.SetDefault(keyCredentialsDir, filepath.Join(dataDir, "credentials"))
	cfg.SetDefault(keyServeAddr, defaultServeAddr)

	configFile := cfg.GetString(keyConfigFile)
	if configFile == "" {
		configFile = filepath.Join(dataDir, "config.toml")
	}
	if _, err := os.Stat(configFile); err == nil {
		cfg.SetConfigFile(configFile)
		if err := cfg.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("stat config %s: %w", configFile, err)
	}

	return cfg, nil
}

// loadDotEnv never overrides variables that are already set.
func loadDotEnv(path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	_ = godotenv.Load(path)
}
