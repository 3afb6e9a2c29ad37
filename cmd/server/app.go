package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	httpAdapter "github.com/iho/ledgerly/internal/adapter/http"
	"github.com/iho/ledgerly/internal/adapter/http/dto"
	"github.com/iho/ledgerly/internal/adapter/http/handler"
	"github.com/iho/ledgerly/internal/adapter/http/middleware"
	"github.com/iho/ledgerly/internal/adapter/importer"
	memoryRepo "github.com/iho/ledgerly/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/ledgerly/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/ledgerly/internal/adapter/repository/redis"
	"github.com/iho/ledgerly/internal/infrastructure/config"
	"github.com/iho/ledgerly/internal/infrastructure/eventpublisher"
	"github.com/iho/ledgerly/internal/infrastructure/metrics"
	"github.com/iho/ledgerly/internal/infrastructure/postgres"
	"github.com/iho/ledgerly/internal/infrastructure/redis"
	"github.com/iho/ledgerly/internal/usecase"
)

const limiterIdleTimeout = time.Hour

// app is the wired service: an HTTP handler plus background workers.
type app struct {
	handler     http.Handler
	outbox      *eventpublisher.EventPublisher
	rateLimiter *middleware.RateLimiter
	closers     []func()
	logger      zerolog.Logger
}

// storage is the set of ports one storage driver provides.
type storage struct {
	txManager usecase.TransactionManager
	entries   usecase.EntryRepository
	outbox    usecase.OutboxRepository
	retrier   usecase.Retrier
	pinger    handler.Pinger
}

func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger, reg *prometheus.Registry) (*app, error) {
	a := &app{logger: logger}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	idGen := postgresRepo.NewULIDGenerator()

	store, err := a.openStorage(ctx, cfg, idGen)
	if err != nil {
		a.close()
		return nil, err
	}

	m := metrics.NewWithRegistry(reg)

	ledgerCfg := usecase.LedgerConfig{
		Retrier:           store.retrier,
		Metrics:           m,
		Location:          loc,
		DailyExpenseLimit: cfg.DailyExpenseLimit,
		PageSize:          cfg.PageSize,
		TxTimeout:         cfg.DatabaseTimeout,
	}

	var source usecase.ImportSource
	if cfg.ImportSourceURL != "" {
		source = importer.NewHTTPSource(cfg.ImportSourceURL, cfg.ImportTimeout, logger)
	}

	ledgerUC := usecase.NewLedgerUseCase(store.txManager, store.entries, store.outbox, idGen, ledgerCfg)
	importUC := usecase.NewImportUseCase(store.txManager, store.entries, store.outbox, idGen, source, ledgerCfg)

	checks := []handler.HealthCheck{{Name: cfg.StorageDriver, Pinger: store.pinger}}

	var idempotency usecase.IdempotencyStore
	if cfg.RedisURL != "" {
		client, err := redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			a.close()
			return nil, err
		}
		a.onClose(func() { client.Close() })
		logger.Info().Msg("connected to redis")

		idempotency = redisRepo.NewIdempotencyStore(client)
		checks = append(checks, handler.HealthCheck{Name: "redis", Pinger: redis.NewPinger(client)})
	} else {
		idempotency = memoryRepo.NewIdempotencyStore()
	}

	publisher, err := a.openPublisher(cfg)
	if err != nil {
		a.close()
		return nil, err
	}

	a.outbox = eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: store.outbox,
		Publisher:  publisher,
		Observer:   m,
		Logger:     logger.With().Str("component", "outbox").Logger(),
		BatchSize:  cfg.OutboxBatchSize,
		Interval:   cfg.OutboxInterval,
	})

	a.rateLimiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).OnLimited(m.ObserveRateLimited)

	formatter := dto.NewFormatter(cfg.DisplayCurrency)

	a.handler = httpAdapter.NewRouter(httpAdapter.RouterConfig{
		EntryHandler:     handler.NewEntryHandler(ledgerUC, formatter),
		ImportHandler:    handler.NewImportHandler(importUC, formatter),
		BalanceHandler:   handler.NewBalanceHandler(ledgerUC, formatter),
		LedgerHandler:    handler.NewLedgerHandler(ledgerUC),
		HealthHandler:    handler.NewHealthHandler(checks...),
		IdempotencyStore: idempotency,
		IdempotencyTTL:   cfg.IdempotencyTTL,
		RateLimiter:      a.rateLimiter,
		Logger:           logger,
		MetricsHandler: promhttp.HandlerFor(
			prometheus.Gatherers{prometheus.DefaultGatherer, reg},
			promhttp.HandlerOpts{},
		),
	})

	return a, nil
}

func (a *app) openStorage(ctx context.Context, cfg *config.Config, idGen usecase.IDGenerator) (*storage, error) {
	if cfg.StorageDriver == config.StorageDriverMemory {
		a.logger.Warn().Msg("using in-memory storage; entries are lost on restart")

		store := memoryRepo.NewStore()
		return &storage{
			txManager: memoryRepo.NewTxManager(store),
			entries:   memoryRepo.NewEntryRepository(store, idGen),
			outbox:    memoryRepo.NewOutboxRepository(store),
			pinger:    store,
		}, nil
	}

	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, a.logger); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	a.onClose(pool.Close)
	a.logger.Info().Msg("connected to postgres")

	return &storage{
		txManager: postgresRepo.NewTxManager(pool),
		entries:   postgresRepo.NewEntryRepository(pool, idGen),
		outbox:    postgresRepo.NewOutboxRepository(pool),
		retrier:   postgresRepo.NewRetrier(a.logger),
		pinger:    pool,
	}, nil
}

func (a *app) openPublisher(cfg *config.Config) (eventpublisher.Publisher, error) {
	if cfg.AMQPURL == "" {
		return eventpublisher.NewLogPublisher(a.logger.With().Str("component", "events").Logger()), nil
	}

	pub, err := eventpublisher.DialAMQP(cfg.AMQPURL, cfg.AMQPExchange, a.logger)
	if err != nil {
		return nil, err
	}
	a.onClose(func() { pub.Close() })

	return pub, nil
}

// runWorkers starts the outbox relay and the rate limiter janitor. They stop when
// ctx is cancelled.
func (a *app) runWorkers(ctx context.Context) {
	go func() {
		if err := a.outbox.Start(ctx); err != nil && ctx.Err() == nil {
			a.logger.Error().Err(err).Msg("outbox publisher stopped")
		}
	}()

	go func() {
		ticker := time.NewTicker(limiterIdleTimeout)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed := a.rateLimiter.CleanupLimiters(limiterIdleTimeout)
				a.logger.Debug().Int("removed", removed).Msg("rate limiters cleaned up")
			}
		}
	}()
}

func (a *app) onClose(fn func()) {
	a.closers = append(a.closers, fn)
}

// close releases resources in reverse order of acquisition.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
