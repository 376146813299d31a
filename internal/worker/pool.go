// Package worker runs the buffered stats pool and the periodic jobs.
// The pool decouples game finalization from per-user stats writes:
// - Load shedding when the queue is full (the caller applies inline)
// - Batch inserts of applied settlements into the ClickHouse archive
// - Graceful shutdown with flush guarantees

package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/yosoku/stats-engine/internal/logic"
	"github.com/yosoku/stats-engine/internal/models"
)

// Prometheus metrics
var (
	tasksEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stats_engine_tasks_enqueued_total",
		Help: "Total number of stats tasks accepted by the pool",
	})

	tasksProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stats_engine_tasks_processed_total",
		Help: "Total number of stats tasks applied by workers",
	})

	tasksFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stats_engine_tasks_failed_total",
		Help: "Total number of stats tasks that failed to apply",
	})

	tasksLoadShed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stats_engine_tasks_load_shed_total",
		Help: "Total number of stats tasks refused because the queue was full",
	})

	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stats_engine_worker_queue_depth",
		Help: "Current depth of the stats queue",
	})

	archiveFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stats_engine_archive_failed_total",
		Help: "Total number of settlement records that failed to archive",
	})

	batchInsertDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "stats_engine_archive_batch_duration_seconds",
		Help:    "Duration of settlement archive batch inserts",
		Buckets: prometheus.DefBuckets,
	})
)

const insertSettlementsSQL = `
	INSERT INTO ticket_settlements (
		id, uid, ticket_id, game_id, league, date_key,
		settlement, payout, used_odds, brier, precision, settled_at
	)
`

// Job is one queued stats application.
type Job struct {
	Task      models.StatsTask
	Timestamp time.Time
}

// PoolConfig configures the worker pool
type PoolConfig struct {
	WorkerCount   int
	QueueSize     int
	BatchSize     int
	FlushInterval time.Duration
	Stats         logic.UserStatsService
	// ClickHouse is optional; without it nothing is archived.
	ClickHouse driver.Conn
	Logger     *zap.Logger
}

// Pool applies stats tasks on a fixed set of workers.
type Pool struct {
	config   PoolConfig
	jobQueue chan Job
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	logger   *zap.SugaredLogger
	mu       sync.RWMutex
	stopped  bool
}

// NewPool creates a new worker pool
func NewPool(cfg PoolConfig) *Pool {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 10000
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = time.Second
	}

	return &Pool{
		config:   cfg,
		jobQueue: make(chan Job, cfg.QueueSize),
		logger:   cfg.Logger.Sugar(),
	}
}

// Start launches the worker goroutines
func (p *Pool) Start(ctx context.Context) {
	p.ctx, p.cancel = context.WithCancel(ctx)

	for i := 0; i < p.config.WorkerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	go p.reportQueueDepth()

	p.logger.Infow("Worker pool started",
		"workers", p.config.WorkerCount,
		"queueSize", p.config.QueueSize,
		"batchSize", p.config.BatchSize,
		"archive", p.config.ClickHouse != nil,
	)
}

// Stop drains the queue, flushes pending archive batches and waits for the
// workers to exit.
func (p *Pool) Stop() {
	p.logger.Info("Stopping worker pool...")

	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.jobQueue)
	p.mu.Unlock()

	p.wg.Wait()
	if p.cancel != nil {
		p.cancel()
	}
	p.logger.Info("Worker pool stopped")
}

// Enqueue hands a task to the workers without blocking. It returns false when
// the queue is full or the pool is stopped; the caller then applies the task
// itself.
func (p *Pool) Enqueue(task models.StatsTask) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return false
	}

	select {
	case p.jobQueue <- Job{Task: task, Timestamp: time.Now()}:
		tasksEnqueued.Inc()
		return true
	default:
		p.logger.Warnw("Stats queue full, shedding task", "uid", task.UID, "ticket", task.TicketID)
		tasksLoadShed.Inc()
		return false
	}
}

// QueueDepth returns current queue size
func (p *Pool) QueueDepth() int {
	return len(p.jobQueue)
}

// worker applies tasks as they arrive and archives the applied ones in batches.
func (p *Pool) worker(id int) {
	defer p.wg.Done()

	p.logger.Debugw("Worker started", "worker", id)

	batch := make([]models.SettlementRecord, 0, p.config.BatchSize)
	ticker := time.NewTicker(p.config.FlushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		start := time.Now()
		if err := p.archiveBatch(context.Background(), batch); err != nil {
			p.logger.Errorw("Settlement archive failed",
				"worker", id,
				"batchSize", len(batch),
				"error", err,
			)
			archiveFailed.Add(float64(len(batch)))
		} else {
			p.logger.Debugw("Settlements archived", "worker", id, "batchSize", len(batch), "duration", time.Since(start))
		}
		batchInsertDuration.Observe(time.Since(start).Seconds())
		batch = batch[:0]
	}

	for {
		select {
		case job, ok := <-p.jobQueue:
			if !ok {
				flush()
				return
			}
			if rec, ok := p.process(job); ok && p.config.ClickHouse != nil {
				batch = append(batch, rec)
				if len(batch) >= p.config.BatchSize {
					flush()
				}
			}

		case <-ticker.C:
			flush()
		}
	}
}

// process applies one task. It returns the archive record when the task was
// applied for the first time.
func (p *Pool) process(job Job) (models.SettlementRecord, bool) {
	ctx := p.ctx
	if ctx == nil || ctx.Err() != nil {
		// Draining after shutdown still writes what was accepted.
		ctx = context.Background()
	}
	applied, err := p.config.Stats.ApplyPostToUserStats(ctx, job.Task)
	if err != nil {
		tasksFailed.Inc()
		p.logger.Errorw("Stats application failed",
			"uid", job.Task.UID,
			"ticket", job.Task.TicketID,
			"game", job.Task.GameID,
			"queued", time.Since(job.Timestamp),
			"error", err,
		)
		return models.SettlementRecord{}, false
	}
	tasksProcessed.Inc()
	if !applied {
		return models.SettlementRecord{}, false
	}
	return models.NewSettlementRecord(ArchiveID(job.Task.TicketID).String(), job.Task), true
}

// archiveBatch writes applied settlements to ClickHouse.
func (p *Pool) archiveBatch(ctx context.Context, batch []models.SettlementRecord) error {
	chBatch, err := p.config.ClickHouse.PrepareBatch(ctx, insertSettlementsSQL)
	if err != nil {
		return fmt.Errorf("prepare archive batch: %w", err)
	}
	for _, r := range batch {
		err := chBatch.Append(
			r.ID,
			r.UID,
			r.TicketID,
			r.GameID,
			r.League,
			r.DateKey,
			r.Settlement,
			r.Payout,
			r.UsedOdds,
			r.Brier,
			r.Precision,
			r.SettledAt,
		)
		if err != nil {
			p.logger.Warnw("Failed to append settlement to batch", "ticket", r.TicketID, "error", err)
			continue
		}
	}
	if err := chBatch.Send(); err != nil {
		return fmt.Errorf("send archive batch: %w", err)
	}
	return nil
}

func (p *Pool) reportQueueDepth() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			queueDepth.Set(float64(len(p.jobQueue)))
		case <-p.ctx.Done():
			return
		}
	}
}

// ArchiveID is the archive row id of a ticket. It is stable so a replayed
// settlement replaces the earlier row.
func ArchiveID(ticketID string) uuid.UUID {
	if id, err := uuid.Parse(ticketID); err == nil {
		return id
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("ticket:"+ticketID))
}
