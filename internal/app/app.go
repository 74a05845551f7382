// Package app wires configuration into concrete stores, collaborators and
// the engine. Every binary builds its runtime through it.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Akondltd/radbot/internal/config"
	"github.com/Akondltd/radbot/internal/engine"
	"github.com/Akondltd/radbot/internal/execution"
	"github.com/Akondltd/radbot/internal/feed"
	"github.com/Akondltd/radbot/internal/logger"
	"github.com/Akondltd/radbot/internal/observability"
	"github.com/Akondltd/radbot/internal/publish"
	"github.com/Akondltd/radbot/internal/quote"
	"github.com/Akondltd/radbot/internal/storage"
	chstore "github.com/Akondltd/radbot/internal/storage/clickhouse"
	"github.com/Akondltd/radbot/internal/storage/memory"
	"github.com/Akondltd/radbot/internal/storage/migrations"
	pgstore "github.com/Akondltd/radbot/internal/storage/postgres"
	redisstore "github.com/Akondltd/radbot/internal/storage/redis"
)

// Stores holds the storage backends selected by configuration.
type Stores struct {
	Trades  storage.TradeStateStore
	Results storage.OptimizationResultStore
	Candles storage.CandleStore

	closers []func()
}

// Close releases backend connections in reverse order of opening.
func (s *Stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// OpenStores opens the memory or SQL backends. With Migrate set, the SQL
// schemas are applied first.
func OpenStores(ctx context.Context, cfg config.StorageConfig, log *logger.Logger) (*Stores, error) {
	if cfg.Backend == "memory" {
		log.Info("using in-memory storage")
		return &Stores{
			Trades:  memory.NewTradeStateStore(),
			Results: memory.NewOptimizationResultStore(),
			Candles: memory.NewCandleStore(),
		}, nil
	}

	s := &Stores{}

	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN,
		pgstore.WithMaxConns(cfg.PostgresMaxConns),
		pgstore.WithConnectTimeout(10*time.Second))
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	s.closers = append(s.closers, pool.Close)

	if cfg.Migrate {
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			s.Close()
			return nil, fmt.Errorf("postgres migrations: %w", err)
		}
	}

	var conn *chstore.Conn
	if cfg.Migrate {
		conn, err = migrations.RunClickhouseMigrations(ctx, cfg.ClickHouseDSN, cfg.ClickHouseDatabase)
	} else {
		conn, err = chstore.NewConnWithDatabase(ctx, cfg.ClickHouseDSN, cfg.ClickHouseDatabase)
	}
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("connect to clickhouse: %w", err)
	}
	s.closers = append(s.closers, func() { conn.Close() })

	s.Trades = pgstore.NewTradeStateStore(pool)
	s.Results = pgstore.NewOptimizationResultStore(pool)
	s.Candles = chstore.NewCandleStore(conn)

	log.Info("using sql storage", logger.Bool("migrated", cfg.Migrate), logger.String("clickhouse_db", cfg.ClickHouseDatabase))
	return s, nil
}

// NewLocker returns the Redis lock when enabled, otherwise an in-process one.
func NewLocker(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) (engine.Locker, func(), error) {
	if !cfg.Enabled {
		return engine.NewKeyedLocker(), func() {}, nil
	}
	l, err := redisstore.NewTradeLocker(ctx, redisstore.Config{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		TTL:      cfg.LockTTL,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connect to redis: %w", err)
	}
	l.OnLost(func(key string, err error) {
		log.Warn("trade lock expired before release", logger.String("trade_id", key), logger.Error(err))
	})
	return l, func() { l.Close() }, nil
}

// NewPublisher returns the Kafka publisher when enabled, otherwise a log publisher.
func NewPublisher(cfg config.KafkaConfig, log *logger.Logger) (engine.EventPublisher, func(), error) {
	if !cfg.Enabled {
		return publish.NewLogPublisher(log), func() {}, nil
	}
	p, err := publish.NewKafkaPublisher(publish.KafkaConfig{
		Brokers:      cfg.Brokers,
		Topic:        cfg.Topic,
		RequiredAcks: cfg.RequiredAcks,
		BatchTimeout: cfg.BatchTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("kafka publisher: %w", err)
	}
	return p, func() { p.Close() }, nil
}

// NewImpactEstimator returns the HTTP quote client when a URL is set,
// otherwise a static estimate.
func NewImpactEstimator(cfg config.QuoteConfig) engine.ImpactEstimator {
	if cfg.URL == "" {
		return quote.Static{Pct: cfg.StaticPct}
	}
	return quote.NewHTTPClient(cfg.URL, quote.WithTimeout(cfg.Timeout), quote.WithMaxRetries(cfg.MaxRetries))
}

// Runtime is a fully wired engine with everything it holds open.
type Runtime struct {
	Config *config.Config
	Log    *logger.Logger
	Stores *Stores
	Engine *engine.Engine

	closers []func()
}

// Close releases every resource in reverse order.
func (r *Runtime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
	r.closers = nil
	r.Stores.Close()
}

// Build opens stores and collaborators and constructs the engine.
func Build(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Runtime, error) {
	stores, err := OpenStores(ctx, cfg.Storage, log)
	if err != nil {
		return nil, err
	}
	rt := &Runtime{Config: cfg, Log: log, Stores: stores}

	locker, closeLocker, err := NewLocker(ctx, cfg.Redis, log)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.closers = append(rt.closers, closeLocker)

	publisher, closePublisher, err := NewPublisher(cfg.Kafka, log)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.closers = append(rt.closers, closePublisher)

	executor, err := execution.NewPaperExecutor(cfg.Execution.FeePct, log)
	if err != nil {
		rt.Close()
		return nil, err
	}

	eng, err := engine.New(engine.Deps{
		Trades:    stores.Trades,
		Results:   stores.Results,
		Candles:   feed.NewStoreSource(stores.Candles),
		Impact:    NewImpactEstimator(cfg.Quote),
		Executor:  executor,
		Publisher: publisher,
		Locker:    locker,
		Logger:    log,
	}, cfg.EngineConfig())
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.Engine = eng
	return rt, nil
}

// SeedTrades creates every configured trade that is not stored yet.
func (r *Runtime) SeedTrades(ctx context.Context) (int, error) {
	created := 0
	for _, tc := range r.Config.Trades {
		state, err := tc.ToState()
		if err != nil {
			return created, err
		}
		err = r.Engine.CreateTrade(ctx, state)
		switch {
		case err == nil:
			created++
		case errors.Is(err, storage.ErrDuplicateKey):
			r.Log.Debug("trade already stored", logger.String("trade_id", tc.ID))
		default:
			return created, err
		}
	}
	return created, nil
}

// ServeMetrics serves /health and the Prometheus handler until ctx is done.
func ServeMetrics(ctx context.Context, cfg config.MetricsConfig, log *logger.Logger) {
	if !cfg.Enabled {
		return
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle(cfg.Path, observability.Handler())

	srv := &http.Server{Addr: cfg.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info("metrics server listening", logger.String("addr", cfg.Addr), logger.String("path", cfg.Path))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("metrics server failed", logger.Error(err))
	}
}
