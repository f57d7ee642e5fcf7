// Package app wires configuration, services, and handlers into one
// application instance.
package app

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/aestimo/internal/common"
	"github.com/ternarybob/aestimo/internal/handlers"
	"github.com/ternarybob/aestimo/internal/marketdata"
	"github.com/ternarybob/aestimo/internal/services/agent"
	"github.com/ternarybob/aestimo/internal/services/baseline"
	"github.com/ternarybob/aestimo/internal/services/llm"
	"github.com/ternarybob/aestimo/internal/services/tools"
)

// App holds all initialized services and handlers.
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	Gateway      *marketdata.Gateway
	Catalog      *tools.Catalog
	Factory      *llm.Factory
	Orchestrator *agent.Orchestrator
	Baseline     *baseline.Analyzer

	AnalysisHandler *handlers.AnalysisHandler
	CacheHandler    *handlers.CacheHandler
	APIHandler      *handlers.APIHandler

	scheduler *cron.Cron
}

// New builds the application from config. Services wire bottom-up:
// gateway, tool catalogue, decision clients, then the orchestrator.
func New(cfg *common.Config) (*App, error) {
	logger := common.GetLogger()

	common.SetDefaultExchange(cfg.MarketData.DefaultExchange)

	gateway := marketdata.NewGatewayFromConfig(cfg.MarketData, logger)
	catalog := tools.NewCatalog(gateway, logger)
	factory := llm.NewFactory(&cfg.Gemini, &cfg.Claude, &cfg.LLM, logger)
	analyzer := baseline.NewAnalyzer(gateway, logger)
	orchestrator := agent.NewOrchestrator(factory, catalog, analyzer, &cfg.Agent, logger)

	a := &App{
		Config:       cfg,
		Logger:       logger,
		Gateway:      gateway,
		Catalog:      catalog,
		Factory:      factory,
		Orchestrator: orchestrator,
		Baseline:     analyzer,

		AnalysisHandler: handlers.NewAnalysisHandler(orchestrator, analyzer, logger),
		CacheHandler:    handlers.NewCacheHandler(gateway, logger),
		APIHandler:      handlers.NewAPIHandler(catalog, factory, gateway, logger),
	}

	if err := a.startScheduler(); err != nil {
		return nil, err
	}

	logger.Info().
		Str("version", common.GetVersion()).
		Bool("gemini", cfg.Gemini.APIKey != "").
		Bool("claude", cfg.Claude.APIKey != "").
		Msg("Application initialized")

	return a, nil
}

// startScheduler runs background maintenance jobs. Currently just the
// periodic purge of expired cache entries.
func (a *App) startScheduler() error {
	spec := a.Config.Scheduler.CacheSweep
	if spec == "" {
		return nil
	}

	a.scheduler = cron.New()
	_, err := a.scheduler.AddFunc(spec, func() {
		if removed := a.Gateway.SweepCache(); removed > 0 {
			a.Logger.Debug().
				Int("removed", removed).
				Msg("Swept expired cache entries")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid cache sweep schedule %q: %w", spec, err)
	}

	a.scheduler.Start()
	return nil
}

// Close stops background jobs.
func (a *App) Close() {
	if a.scheduler != nil {
		ctx := a.scheduler.Stop()
		<-ctx.Done()
	}
	a.Logger.Info().Msg("Application stopped")
}
