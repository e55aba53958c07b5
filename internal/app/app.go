// Package app wires configuration, clients and services into one container.
package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/hsi-mcp/internal/common"
	"github.com/ternarybob/hsi-mcp/internal/httpclient"
	"github.com/ternarybob/hsi-mcp/internal/interfaces"
	"github.com/ternarybob/hsi-mcp/internal/services/cache"
	"github.com/ternarybob/hsi-mcp/internal/services/llm"
	"github.com/ternarybob/hsi-mcp/internal/services/lookup"
	"github.com/ternarybob/hsi-mcp/internal/services/market"
	"github.com/ternarybob/hsi-mcp/internal/services/scheduler"
	"github.com/ternarybob/hsi-mcp/internal/services/summary"
	"github.com/ternarybob/hsi-mcp/internal/storage/badger"
)

// App holds the initialized services
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	Fetcher   interfaces.PageFetcher
	Generator interfaces.TextGenerator // nil when no AI provider is configured
	Lookup    interfaces.SymbolLookupService
	Summary   interfaces.SummaryService
	Market    interfaces.MarketService
	Cache     interfaces.ResponseCache // nil when caching is disabled
	Scheduler interfaces.SchedulerService
}

// New initializes all services from config
func New(ctx context.Context, config *common.Config, logger arbor.ILogger) (*App, error) {
	a := &App{
		Config: config,
		Logger: logger,
	}

	if err := a.initServices(ctx); err != nil {
		a.Close()
		return nil, err
	}

	logger.Info().
		Bool("ai", a.Generator != nil).
		Bool("cache", a.Cache != nil).
		Msg("Application initialized")
	return a, nil
}

func (a *App) initServices(ctx context.Context) error {
	a.Fetcher = httpclient.NewClientFromConfig(a.Config.Scraper, a.Logger)

	generator, err := llm.NewGenerator(ctx, a.Config, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize AI provider: %w", err)
	}
	a.Generator = generator

	a.Lookup = lookup.NewService(a.Generator, a.Logger)
	a.Summary = summary.NewService(a.Generator, a.Logger)
	a.Market = market.NewService(a.Config.Scraper, a.Fetcher, a.Lookup, a.Summary, a.Logger)

	if a.Config.Cache.Enabled {
		db, err := badger.NewBadgerDB(a.Logger, a.Config.Cache.Path)
		if err != nil {
			return fmt.Errorf("failed to initialize cache: %w", err)
		}
		a.Cache = cache.NewService(
			db,
			common.ParseDuration(a.Config.Cache.TTL, cache.DefaultTTL),
			a.Config.Cache.MaxItems,
			a.Logger,
		)
	}

	a.Scheduler = scheduler.NewService(a.Logger)
	return nil
}

// Close stops background jobs and releases the cache store
func (a *App) Close() {
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close cache")
		}
	}
}
