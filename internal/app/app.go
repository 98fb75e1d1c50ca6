// Package app assembles stores, the price accessor chain and the event
// publisher from configuration. Both binaries share it.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"threshold-lab/internal/calendar"
	"threshold-lab/internal/config"
	"threshold-lab/internal/domain"
	"threshold-lab/internal/events"
	"threshold-lab/internal/marketdata"
	"threshold-lab/internal/observability"
	"threshold-lab/internal/pipeline"
	"threshold-lab/internal/reporting"
	"threshold-lab/internal/storage"
	chstore "threshold-lab/internal/storage/clickhouse"
	"threshold-lab/internal/storage/memory"
	pgstore "threshold-lab/internal/storage/postgres"
)

// Storage backends.
const (
	BackendMemory = "memory"
	BackendSQL    = "sql"
)

// Price providers.
const (
	ProviderStore = "store"
	ProviderHTTP  = "http"
)

// App holds every long-lived component of a process.
type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	Metrics  *observability.Metrics
	Study    domain.StudyConfig
	Calendar calendar.Calendar

	Stores    Stores
	Accessor  marketdata.Accessor
	Publisher events.Publisher

	// Checks probe the external backends, keyed by component name.
	Checks map[string]func(ctx context.Context) error

	closers []func() error
}

// Stores holds all storage implementations.
type Stores struct {
	Bars       storage.PriceBarStore
	Runs       storage.RunStore
	Ledger     storage.TradeLedgerStore
	Thresholds storage.ThresholdStatStore
	Equity     storage.EquityCurveStore
}

// New connects the configured backends. The caller must Close the App.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, metrics *observability.Metrics) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	study, err := cfg.Study.Domain()
	if err != nil {
		return nil, err
	}
	cal, err := cfg.Calendar()
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:   cfg,
		Logger:   logger,
		Metrics:  metrics,
		Study:    study,
		Calendar: cal,
		Checks:   make(map[string]func(ctx context.Context) error),
	}

	if err := a.openStores(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	if err := a.buildAccessor(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	a.buildPublisher()

	logger.Info("application ready",
		zap.String("storage", cfg.Storage.Backend),
		zap.String("provider", cfg.Provider.Kind),
		zap.Bool("cache", cfg.Provider.Cache.Enabled),
		zap.Bool("events", cfg.Events.Enabled))
	return a, nil
}

func (a *App) openStores(ctx context.Context) error {
	cfg := a.Config.Storage
	switch cfg.Backend {
	case BackendMemory, "":
		a.Stores = Stores{
			Bars:       memory.NewPriceBarStore(),
			Runs:       memory.NewRunStore(),
			Ledger:     memory.NewTradeLedgerStore(),
			Thresholds: memory.NewThresholdStatStore(),
			Equity:     memory.NewEquityCurveStore(),
		}
		return nil

	case BackendSQL:
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN, cfg.MaxConns)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, func() error { pool.Close(); return nil })
		a.Checks["postgres"] = pool.Check

		conn, err := chstore.NewConn(ctx, cfg.ClickHouseDSN)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, conn.Close)
		a.Checks["clickhouse"] = conn.Check

		a.Stores = Stores{
			Bars:       chstore.NewPriceBarStore(conn),
			Runs:       pgstore.NewRunStore(pool),
			Ledger:     pgstore.NewTradeLedgerStore(pool),
			Thresholds: pgstore.NewThresholdStatStore(pool),
			Equity:     chstore.NewEquityCurveStore(conn),
		}
		return nil

	default:
		return fmt.Errorf("%w: unknown storage backend %q", config.ErrInvalidConfig, cfg.Backend)
	}
}

// buildAccessor composes source -> retry -> cache.
func (a *App) buildAccessor(ctx context.Context) error {
	cfg := a.Config.Provider

	var source marketdata.Accessor
	switch cfg.Kind {
	case ProviderStore, "":
		source = marketdata.NewStoreAccessor(a.Stores.Bars)
	case ProviderHTTP:
		opts := []marketdata.HTTPOption{
			marketdata.WithTimeout(cfg.Timeout),
			marketdata.WithRateLimit(cfg.RateLimit, cfg.Burst),
			marketdata.WithLogger(a.Logger),
			marketdata.WithMetrics(a.Metrics),
		}
		if cfg.APIKey != "" {
			opts = append(opts, marketdata.WithAPIKey(cfg.APIKey))
		}
		source = marketdata.NewHTTPAccessor(cfg.BaseURL, opts...)
	default:
		return fmt.Errorf("%w: unknown provider %q", config.ErrInvalidConfig, cfg.Kind)
	}

	accessor := marketdata.Accessor(marketdata.NewRetryAccessor(source, int(cfg.MaxRetries), cfg.InitialWait, cfg.MaxWait, a.Logger))

	if cfg.Cache.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.Addr,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
		a.closers = append(a.closers, client.Close)
		a.Checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		if err := client.Ping(ctx).Err(); err != nil {
			// Cache misses fall through, so an unreachable cache is not fatal.
			a.Logger.Warn("price cache unreachable", zap.String("addr", cfg.Cache.Addr), zap.Error(err))
		}
		accessor = marketdata.NewCachedAccessor(accessor, client, cfg.Cache.TTL, a.Logger, a.Metrics)
	}

	a.Accessor = accessor
	return nil
}

func (a *App) buildPublisher() {
	if !a.Config.Events.Enabled {
		a.Publisher = events.NopPublisher{}
		return
	}
	p := events.NewKafkaPublisher(a.Config.Events.Brokers, a.Config.Events.Topic, a.Logger)
	a.closers = append(a.closers, p.Close)
	a.Publisher = p
}

// NewRunner returns a runner for study wired to the App's components.
func (a *App) NewRunner(study domain.StudyConfig) *pipeline.Runner {
	return pipeline.NewRunner(pipeline.RunnerOptions{
		Accessor:       a.Accessor,
		Calendar:       a.Calendar,
		Study:          study,
		Workers:        a.Config.Scan.Workers,
		RunStore:       a.Stores.Runs,
		LedgerStore:    a.Stores.Ledger,
		ThresholdStore: a.Stores.Thresholds,
		EquityStore:    a.Stores.Equity,
		Publisher:      a.Publisher,
		Logger:         a.Logger,
		Metrics:        a.Metrics,
	})
}

// Generator returns a report generator reading persisted runs.
func (a *App) Generator() *reporting.Generator {
	return reporting.NewGenerator(a.Stores.Runs, a.Stores.Ledger, a.Stores.Thresholds, a.Stores.Equity)
}

// Close releases connections in reverse order of opening.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
