// Package app wires configuration, the stub rule set, the fixture loader and
// the stub HTTP server together and owns their lifecycle.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"weathercontract/config"
	"weathercontract/internal/fixtures"
	"weathercontract/internal/server"
	"weathercontract/internal/stub"
)

// App represents the stub application with all its dependencies.
type App struct {
	config   *config.Config
	registry *stub.Registry
	loader   *fixtures.Loader
	server   *server.Server
	logger   *slog.Logger

	shutdownMu sync.Mutex
	shutdown   bool
}

// Config holds the configuration options for creating an App.
type Config struct {
	AppConfig *config.Config
	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// ExtraRules are registered after the rule file, in order.
	ExtraRules []stub.Rule
}

// New loads and registers every stub rule, checks that each referenced
// fixture exists, and builds the server. Any failure here is a setup error:
// nothing is served until the whole rule set is valid.
func New(cfg Config) (*App, error) {
	if cfg.AppConfig == nil {
		return nil, fmt.Errorf("app config is required")
	}
	appCfg := cfg.AppConfig
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	rules, err := stub.LoadRuleSet(appCfg.Stub.RulesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load stub rules: %w", err)
	}
	rules = append(rules, cfg.ExtraRules...)

	registry := stub.NewRegistry()
	if err := registry.RegisterAll(rules); err != nil {
		return nil, fmt.Errorf("failed to register stub rules: %w", err)
	}
	registry.Seal()

	loader := fixtures.NewLoader(appCfg.Stub.FixturesDir)
	if err := loader.Verify(registry.Fixtures()...); err != nil {
		return nil, fmt.Errorf("failed to verify fixtures: %w", err)
	}

	srv := server.New(registry, loader, &server.Config{
		MetricsEnabled:  appCfg.Metrics.Enabled,
		MetricsEndpoint: appCfg.Metrics.Endpoint,
		Logger:          logger,
	})

	logger.Info("stub rules loaded",
		"rules", registry.Len(),
		"fixtures", len(registry.Fixtures()),
		"rules_file", appCfg.Stub.RulesFile,
		"fixtures_dir", appCfg.Stub.FixturesDir,
	)

	return &App{
		config:   appCfg,
		registry: registry,
		loader:   loader,
		server:   srv,
		logger:   logger,
	}, nil
}

// Registry returns the sealed stub registry.
func (a *App) Registry() *stub.Registry {
	return a.registry
}

// Fixtures returns the fixture loader.
func (a *App) Fixtures() *fixtures.Loader {
	return a.loader
}

// Server returns the stub server.
func (a *App) Server() *server.Server {
	return a.server
}

// Start binds the configured host and port and serves in the background.
func (a *App) Start() error {
	if a.config.Metrics.Enabled {
		a.logger.Info("prometheus metrics enabled", "endpoint", a.config.Metrics.Endpoint)
	}
	return a.server.Start(a.config.StubAddr())
}

// URL returns the base URL of the running stub.
func (a *App) URL() string {
	return a.server.URL()
}

// Shutdown stops the server. It is safe to call more than once.
func (a *App) Shutdown(ctx context.Context) error {
	a.shutdownMu.Lock()
	if a.shutdown {
		a.shutdownMu.Unlock()
		return nil
	}
	a.shutdown = true
	a.shutdownMu.Unlock()

	if err := a.server.Shutdown(ctx); err != nil {
		a.logger.Error("server shutdown error", "error", err)
		return fmt.Errorf("server shutdown: %w", err)
	}
	a.logger.Info("stub server stopped")
	return nil
}
