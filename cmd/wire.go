package cmd

import (
	"context"
	"fmt"
	"sync"

	"github.com/bnema/agentdeck/internal/adapters/backend/router"
	"github.com/bnema/agentdeck/internal/adapters/connector/webhook"
	chainstore "github.com/bnema/agentdeck/internal/adapters/credentials/chain"
	turnrender "github.com/bnema/agentdeck/internal/adapters/render/turn"
	tomlrepo "github.com/bnema/agentdeck/internal/adapters/repo/toml"
	"github.com/bnema/agentdeck/internal/adapters/store/sqlite"
	"github.com/bnema/agentdeck/internal/adapters/tools"
	"github.com/bnema/agentdeck/internal/application"
	"github.com/bnema/agentdeck/internal/ports"
	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
)

type app struct {
	cfg   *viper.Viper
	log   *log.Logger
	clock ports.Clock

	sessions    *tomlrepo.SessionRepository
	agents      *tomlrepo.AgentRepository
	settings    *tomlrepo.SettingsRepository
	healthRepo  *tomlrepo.HealthSnapshotRepository
	credentials ports.CredentialStore
	backends    ports.BackendRouter
	connector   ports.ConnectorSender

	sessionService *application.SessionService
	agentService   *application.AgentService
	router         *application.CapabilityRouter

	renderTurn      func(application.TurnResult, turnrender.RenderOptions) (string, error)
	renderSpend     func(application.SpendSummary) (string, error)
	renderDelegates func([]application.DelegateScore) (string, error)

	dbOnce sync.Once
	db     *sqlite.DB
	dbErr  error
}

// wire builds everything that is cheap to construct. The SQLite store and the
// orchestrator are opened on first use.
func (a *app) wire(cfg *viper.Viper, l *log.Logger) error {
	sessions, err := tomlrepo.NewSessionRepository(cfg)
	if err != nil {
		return fmt.Errorf("wire session repository: %w", err)
	}
	agents, err := tomlrepo.NewAgentRepository(cfg)
	if err != nil {
		return fmt.Errorf("wire agent repository: %w", err)
	}
	settings, err := tomlrepo.NewSettingsRepository(cfg, l)
	if err != nil {
		return fmt.Errorf("wire settings repository: %w", err)
	}
	healthRepo, err := tomlrepo.NewHealthSnapshotRepository(cfg)
	if err != nil {
		return fmt.Errorf("wire health repository: %w", err)
	}

	credentials, err := chainstore.NewFileWithEnvFallback(cfg.GetString(keyCredentialsDir))
	if err != nil {
		return fmt.Errorf("wire credential store chain: %w", err)
	}

	backends, err := router.FromConfig(cfg, l)
	if err != nil {
		return fmt.Errorf("wire backends: %w", err)
	}

	var connector ports.ConnectorSender
	if url := cfg.GetString(keyWebhookURL); url != "" {
		connector = webhook.NewSender(url, nil)
	}

	clock := ports.SystemClock{}
	a.cfg = cfg
	a.log = l
	a.clock = clock
	a.sessions = sessions
	a.agents = agents
	a.settings = settings
	a.healthRepo = healthRepo
	a.credentials = credentials
	a.backends = backends
	a.connector = connector
	a.sessionService = application.NewSessionService(sessions, agents, clock)
	a.agentService = application.NewAgentService(agents, credentials, clock)
	a.router = application.NewCapabilityRouter()
	a.renderTurn = turnrender.RenderTurn
	a.renderSpend = turnrender.RenderSpend
	a.renderDelegates = turnrender.RenderDelegates

	return nil
}

func (a *app) database(ctx context.Context) (*sqlite.DB, error) {
	a.dbOnce.Do(func() {
		a.db, a.dbErr = sqlite.Open(ctx, a.cfg.GetString(keyStorePath))
	})
	if a.dbErr != nil {
		return nil, fmt.Errorf("open store: %w", a.dbErr)
	}
	return a.db, nil
}

// engine builds an orchestrator whose delegate health starts from the saved snapshot.
func (a *app) engine(ctx context.Context) (*application.Orchestrator, error) {
	db, err := a.database(ctx)
	if err != nil {
		return nil, err
	}
	memory := sqlite.NewMemoryStore(db)

	health, err := a.loadHealth(ctx)
	if err != nil {
		return nil, err
	}

	return application.NewOrchestrator(application.OrchestratorDeps{
		Sessions:    a.sessions,
		Agents:      a.agents,
		Settings:    a.settings,
		Usage:       sqlite.NewUsageLedger(db),
		Memory:      memory,
		Credentials: a.credentials,
		Backends:    a.backends,
		Tools:       tools.NewBuilder(memory, a.backends, a.connector, a.clock, a.log),
		Connector:   a.connector,
		Health:      health,
		Clock:       a.clock,
		Logger:      a.log,
	}), nil
}

func (a *app) spendGuard(ctx context.Context) (*application.SpendGuard, error) {
	db, err := a.database(ctx)
	if err != nil {
		return nil, err
	}
	return application.NewSpendGuard(sqlite.NewUsageLedger(db), a.log), nil
}

func (a *app) loadHealth(ctx context.Context) (*application.DelegateHealth, error) {
	health := application.NewDelegateHealth(a.clock)
	snapshot, err := a.healthRepo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load delegate health: %w", err)
	}
	health.Restore(snapshot)
	return health, nil
}

func (a *app) saveHealth(ctx context.Context, health *application.DelegateHealth) error {
	if err := a.healthRepo.Save(ctx, health.Snapshot()); err != nil {
		return fmt.Errorf("save delegate health: %w", err)
	}
	return nil
}

func (a *app) close() error {
	if a == nil || a.db == nil {
		return nil
	}
	return a.db.Close()
}
