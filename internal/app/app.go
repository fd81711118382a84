// Package app wires configuration, storage, clients, and services into the
// shared core used by cmd/carteira-server.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bobmcallan/carteira/internal/clients/yahoo"
	"github.com/bobmcallan/carteira/internal/common"
	"github.com/bobmcallan/carteira/internal/interfaces"
	"github.com/bobmcallan/carteira/internal/services/alert"
	"github.com/bobmcallan/carteira/internal/services/projection"
	"github.com/bobmcallan/carteira/internal/services/risk"
	"github.com/bobmcallan/carteira/internal/services/valuation"
	"github.com/bobmcallan/carteira/internal/storage/sqlite"
)

// App holds all initialized services and the storage layer.
type App struct {
	Config      *common.Config
	Logger      *common.Logger
	Store       interfaces.AssetStore
	Quotes      interfaces.QuoteClient
	Valuation   interfaces.ValuationService
	Risk        interfaces.RiskService
	Projection  interfaces.ProjectionService
	Alerts      interfaces.AlertService
	StartupTime time.Time

	schedulerCancel context.CancelFunc
}

// logNotifier routes engine advisories and triggered alerts to the log.
type logNotifier struct {
	logger *common.Logger
}

func (n *logNotifier) Notify(message string) {
	n.logger.Info().Str("channel", "advisory").Msg(message)
}

func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp loads configuration and initializes storage, the quote client, and
// every service. configPath may be empty; resolution then falls back to
// CARTEIRA_CONFIG, the binary directory, and config/carteira.toml.
func NewApp(configPath string) (*App, error) {
	if configPath == "" {
		configPath = os.Getenv("CARTEIRA_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(getBinaryDir(), "carteira.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/carteira.toml"
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := common.NewLogger(config.Logging.Level)

	if dir := filepath.Dir(config.Storage.Path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
	}

	store, err := sqlite.NewStore(config.Storage.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	quotes := yahoo.NewClient(
		yahoo.WithBaseURL(config.Clients.Yahoo.BaseURL),
		yahoo.WithSuffix(config.Clients.Yahoo.Suffix),
		yahoo.WithRateLimit(config.Clients.Yahoo.RateLimit),
		yahoo.WithTimeout(config.Clients.Yahoo.GetTimeout()),
		yahoo.WithLogger(logger),
	)

	notifier := &logNotifier{logger: logger}

	a := &App{
		Config:      config,
		Logger:      logger,
		Store:       store,
		Quotes:      quotes,
		Valuation:   valuation.NewService(store, quotes, logger),
		Risk:        risk.NewService(store, quotes, notifier, logger),
		Projection:  projection.NewService(store, logger),
		Alerts:      alert.NewService(store, quotes, notifier, logger),
		StartupTime: time.Now(),
	}

	logger.Info().
		Str("version", common.GetFullVersion()).
		Str("environment", config.Environment).
		Str("db", config.Storage.Path).
		Msg("application initialized")
	return a, nil
}

// StartScheduler launches the background refresh loop when enabled.
func (a *App) StartScheduler(ctx context.Context) {
	if !a.Config.Scheduler.Enabled {
		a.Logger.Info().Msg("scheduler disabled")
		return
	}
	ctx, a.schedulerCancel = context.WithCancel(ctx)
	go runScheduler(ctx, a.Valuation, a.Alerts, a.Logger, a.Config.Scheduler.GetInterval())
}

// Close stops the scheduler and releases storage.
func (a *App) Close() error {
	if a.schedulerCancel != nil {
		a.schedulerCancel()
	}
	return a.Store.Close()
}
