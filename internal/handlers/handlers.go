package handlers

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/yosoku/stats-engine/internal/logic"
	"github.com/yosoku/stats-engine/internal/store"
)

// MaxBodySize limits the size of request bodies to 1MB
const MaxBodySize = 1048576

// StatsQueue is the read side of the stats worker pool.
type StatsQueue interface {
	QueueDepth() int
}

// Pinger is a dependency checked by the readiness endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type Config struct {
	Store  store.Store
	Queue  StatsQueue
	Checks map[string]Pinger
	Logger *zap.Logger
	// EmitWrites runs game upserts through the finalizer in-process. Set it
	// when no database trigger delivers writes (the in-memory store).
	EmitWrites bool
	// JobRatePerMinute limits the on-demand job endpoints; 0 disables them.
	JobRatePerMinute int
	// Services
	Finalizer logic.FinalizerService
	UserStats logic.UserStatsService
	Ranking   logic.RankingService
	History   logic.HistoryService
}

type Handler struct {
	store      store.Store
	queue      StatsQueue
	checks     map[string]Pinger
	logger     *zap.SugaredLogger
	validator  *validator.Validate
	emitWrites bool
	jobLimiter *rate.Limiter
	now        func() time.Time
	finalizer  logic.FinalizerService
	userStats  logic.UserStatsService
	ranking    logic.RankingService
	history    logic.HistoryService
}

func New(cfg Config) *Handler {
	limiter := rate.NewLimiter(0, 0)
	if cfg.JobRatePerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.JobRatePerMinute)), cfg.JobRatePerMinute)
	}
	return &Handler{
		store:      cfg.Store,
		queue:      cfg.Queue,
		checks:     cfg.Checks,
		logger:     cfg.Logger.Sugar(),
		validator:  validator.New(),
		emitWrites: cfg.EmitWrites,
		jobLimiter: limiter,
		now:        time.Now,
		finalizer:  cfg.Finalizer,
		userStats:  cfg.UserStats,
		ranking:    cfg.Ranking,
		history:    cfg.History,
	}
}
