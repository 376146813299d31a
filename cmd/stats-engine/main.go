package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/yosoku/stats-engine/internal/config"
	"github.com/yosoku/stats-engine/internal/handlers"
	"github.com/yosoku/stats-engine/internal/logic"
	"github.com/yosoku/stats-engine/internal/store"
	"github.com/yosoku/stats-engine/internal/trigger"
	"github.com/yosoku/stats-engine/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	var logger *zap.Logger
	if cfg.IsDevelopment() {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	if err := run(cfg, logger); err != nil {
		sugar.Fatalw("stats-engine failed", "error", err)
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	sugar := logger.Sugar()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Initialize store ---
	var st store.Store
	var cleanup []func()
	defer func() {
		for i := len(cleanup) - 1; i >= 0; i-- {
			cleanup[i]()
		}
	}()
	checks := map[string]handlers.Pinger{}

	if cfg.PostgresURL != "" {
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		cleanup = append(cleanup, pool.Close)
		pg := store.NewPostgresStore(pool)
		if err := pg.Migrate(ctx, cfg.NotifyChannel); err != nil {
			return fmt.Errorf("postgres migrate: %w", err)
		}
		checks["postgres"] = pg
		st = pg
		sugar.Infow("Connected to PostgreSQL")
	} else {
		sugar.Warnw("POSTGRES_URL not set, using in-memory store (data will not persist)")
		st = store.NewMemoryStore()
	}

	// Redis read-through cache for the read side
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		rdb := redis.NewClient(opt)
		cleanup = append(cleanup, func() { rdb.Close() })
		checks["redis"] = handlers.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
		st = store.NewCachedStore(st, rdb, cfg.SummaryCacheTTL)
		sugar.Infow("Redis cache enabled", "ttl", cfg.SummaryCacheTTL)
	}

	// Optional ClickHouse settlement archive
	var ch driver.Conn
	if cfg.ClickHouseURL != "" {
		opts, err := clickhouse.ParseDSN(cfg.ClickHouseURL)
		if err != nil {
			return fmt.Errorf("invalid CLICKHOUSE_URL: %w", err)
		}
		ch, err = clickhouse.Open(opts)
		if err != nil {
			return fmt.Errorf("clickhouse: %w", err)
		}
		cleanup = append(cleanup, func() { ch.Close() })
		if err := ch.Exec(ctx, logic.SettlementArchiveSchema); err != nil {
			return fmt.Errorf("clickhouse schema: %w", err)
		}
		checks["clickhouse"] = handlers.PingFunc(ch.Ping)
		sugar.Infow("Settlement archive enabled")
	}

	// --- Services ---
	userStats := logic.NewUserStatsService(st, logger, cfg.RecomputeConcurrency)
	teamStats := logic.NewTeamStatsService(st, logger)
	ranking := logic.NewRankingService(st, st, st, logger, logic.RankingConfig{
		LeaderboardMinPosts: cfg.LeaderboardMinPosts,
		MonthlyMinPosts:     cfg.MonthlyMinPosts,
		Limit:               cfg.LeaderboardLimit,
	})
	var history logic.HistoryService
	if ch != nil {
		history = logic.NewHistoryService(ch)
	}

	pool := worker.NewPool(worker.PoolConfig{
		WorkerCount:   cfg.WorkerCount,
		QueueSize:     cfg.QueueSize,
		BatchSize:     cfg.BatchSize,
		FlushInterval: cfg.FlushInterval,
		Stats:         userStats,
		ClickHouse:    ch,
		Logger:        logger,
	})
	// Not tied to the signal context so Stop can drain the queue.
	pool.Start(context.Background())

	// Trend marking needs Redis or the in-memory store.
	var trend store.TrendMarker
	if tm, ok := st.(store.TrendMarker); ok {
		trend = tm
	}

	finalizer := logic.NewFinalizer(logic.FinalizerDeps{
		Games:      st,
		Tickets:    st,
		Teams:      st,
		Trend:      trend,
		TeamStats:  teamStats,
		UserStats:  userStats,
		Dispatcher: pool,
		Logger:     logger,
	})

	// Database trigger delivery; without Postgres the API emits writes itself
	if cfg.PostgresURL != "" {
		listener := trigger.NewListener(cfg.PostgresURL, cfg.NotifyChannel, finalizer, logger)
		go func() {
			if err := listener.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				sugar.Errorw("Game write listener stopped", "error", err)
			}
		}()
	}

	jobs, err := worker.Jobs(cfg.Schedule, userStats, ranking)
	if err != nil {
		return fmt.Errorf("schedule: %w", err)
	}
	scheduler, err := worker.NewScheduler(jobs, logger)
	if err != nil {
		return fmt.Errorf("schedule: %w", err)
	}
	scheduler.Start(ctx)

	h := handlers.New(handlers.Config{
		Store:            st,
		Queue:            pool,
		Checks:           checks,
		Logger:           logger,
		EmitWrites:       cfg.PostgresURL == "",
		JobRatePerMinute: cfg.JobRatePerMinute,
		Finalizer:        finalizer,
		UserStats:        userStats,
		Ranking:          ranking,
		History:          history,
	})

	// --- HTTP router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(2 * time.Minute))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Authorization"},
		MaxAge:         300,
	}))

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Handle("/metrics", promhttp.Handler())
	r.Mount("/api/v1", h.Routes())

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 3 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		sugar.Infow("stats-engine listening", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
	}

	// Graceful shutdown: stop intake, then drain the queue.
	sugar.Infow("Shutting down stats-engine")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		sugar.Errorw("HTTP shutdown error", "error", err)
	}
	scheduler.Stop()
	pool.Stop()
	sugar.Infow("stats-engine stopped")
	return nil
}
