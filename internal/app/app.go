// Package app wires the application components together in dependency order
// and owns their lifecycle.
package app

import (
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/inveniodev/invenio/internal/common"
	"github.com/inveniodev/invenio/internal/interfaces"
	"github.com/inveniodev/invenio/internal/orchestrator"
	"github.com/inveniodev/invenio/internal/provenance"
	"github.com/inveniodev/invenio/internal/providers"
	"github.com/inveniodev/invenio/internal/querybuilder"
	"github.com/inveniodev/invenio/internal/resilience"
	"github.com/inveniodev/invenio/internal/scope"
	"github.com/inveniodev/invenio/internal/services/events"
	"github.com/inveniodev/invenio/internal/services/scheduler"
	"github.com/inveniodev/invenio/internal/storage"
)

// App holds all application components and dependencies
type App struct {
	Config     *common.Config
	Logger     arbor.ILogger
	Vocabulary *common.Vocabulary

	EventService interfaces.EventService
	EventStore   interfaces.EventStore
	Stats        *events.StatsAggregator

	Breakers     *resilience.BreakerRegistry
	Orchestrator *orchestrator.Orchestrator
	Scheduler    *scheduler.Service
}

// New builds the application in dependency order: vocabulary, event bus,
// storage, providers, orchestrator, scheduler.
func New(config *common.Config, logger arbor.ILogger) (*App, error) {
	vocab, err := common.LoadVocabulary(config.Vocabulary.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to load vocabulary: %w", err)
	}

	eventService := events.NewService(logger)
	if err := events.SubscribeLoggerToAllEvents(eventService, logger); err != nil {
		return nil, err
	}
	stats := events.NewStatsAggregator(100, logger)
	if err := stats.Subscribe(eventService); err != nil {
		return nil, err
	}

	store, err := storage.NewEventStore(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to open event store: %w", err)
	}

	registry := resilience.NewBreakerRegistry(logger)
	providerList := buildProviders(config, store, registry, eventService, logger)
	if len(providerList) == 0 {
		store.Close()
		return nil, fmt.Errorf("no search providers enabled")
	}

	from, to, err := config.Scope.Window()
	if err != nil {
		store.Close()
		return nil, err
	}

	filter := scope.New(scope.Config{
		CountryCode:      config.Scope.CountryCode,
		Cities:           vocab.CitiesFor(config.Scope.CountryCode),
		Locale:           config.Search.Locale,
		DateFrom:         from,
		DateTo:           to,
		AllowUndated:     config.Scope.AllowUndated,
		AllowGlobalLists: config.Scope.AllowGlobalLists,
	}, logger)

	orchConfig := orchestrator.Config{
		Augment:           config.Search.Augment,
		Locale:            config.Search.Locale,
		City:              config.Search.City,
		Country:           config.Scope.CountryCode,
		MinResultsTierA:   config.Search.MinResultsTierA,
		MinKeepAfterPrior: config.Search.MinKeepAfterPrior,
		MinFinalResults:   config.Search.MinFinalResults,
		PerProviderLimit:  config.Search.PerProviderLimit,
		RunDeadline:       config.Search.RunDeadlineDuration(),
	}
	if from != nil {
		orchConfig.DateFrom = *from
	}
	if to != nil {
		orchConfig.DateTo = *to
	}

	orch := orchestrator.New(
		orchConfig,
		querybuilder.New(vocab, logger),
		provenance.NewGuard(vocab.Denylist),
		providerList,
		filter,
		store,
		eventService,
		logger,
	)

	sched := scheduler.NewService(orch, logger)
	for _, search := range config.Scheduler.Searches {
		if err := sched.RegisterSearch(search); err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to register scheduled search %q: %w", search.Name, err)
		}
	}

	logger.Info().
		Int("provider_count", len(providerList)).
		Str("country", config.Scope.CountryCode).
		Bool("augment", config.Search.Augment).
		Msg("Application initialized")

	return &App{
		Config:       config,
		Logger:       logger,
		Vocabulary:   vocab,
		EventService: eventService,
		EventStore:   store,
		Stats:        stats,
		Breakers:     registry,
		Orchestrator: orch,
		Scheduler:    sched,
	}, nil
}

// buildProviders assembles the enabled provider adapters in priority order,
// each wrapped with its resilience policy.
func buildProviders(
	config *common.Config,
	store interfaces.EventStore,
	registry *resilience.BreakerRegistry,
	eventService interfaces.EventService,
	logger arbor.ILogger,
) []interfaces.SearchProvider {
	var list []interfaces.SearchProvider

	if config.Providers.WebSearch.Enabled {
		inner := providers.NewWebSearch(&config.Providers.WebSearch, logger)
		list = append(list, providers.Wrap(inner, config.Providers.WebSearch.ProviderPolicy, registry, eventService, logger))
	}
	if config.Providers.Structured.Enabled && config.Providers.Structured.BaseURL != "" {
		inner := providers.NewStructured(&config.Providers.Structured, logger)
		list = append(list, providers.Wrap(inner, config.Providers.Structured.ProviderPolicy, registry, eventService, logger))
	}
	if config.Providers.LocalDB.Enabled {
		// The local store is last resort and needs no retry or breaker.
		list = append(list, providers.NewLocalDB(store, logger))
	}

	return list
}

// Close releases the application resources.
func (a *App) Close() {
	if a.Scheduler != nil && a.Scheduler.IsRunning() {
		if err := a.Scheduler.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to stop scheduler")
		}
	}
	if a.EventService != nil {
		if err := a.EventService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close event service")
		}
	}
	if a.EventStore != nil {
		if err := a.EventStore.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close event store")
		}
	}
	a.Logger.Info().Msg("Application closed")
}
