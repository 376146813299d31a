package logic

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yosoku/stats-engine/internal/models"
	"github.com/yosoku/stats-engine/internal/scoring"
	"github.com/yosoku/stats-engine/internal/settlement"
	"github.com/yosoku/stats-engine/internal/store"
)

type userStatsService struct {
	stats       store.StatsRepo
	logger      *zap.SugaredLogger
	now         func() time.Time
	concurrency int
}

// NewUserStatsService creates the per-user aggregator. concurrency bounds the
// nightly sweep.
func NewUserStatsService(stats store.StatsRepo, logger *zap.Logger, concurrency int) UserStatsService {
	if concurrency <= 0 {
		concurrency = 8
	}
	return &userStatsService{
		stats:       stats,
		logger:      logger.Sugar(),
		now:         time.Now,
		concurrency: concurrency,
	}
}

// BuildStatsTask derives the stats application for a settled ticket. Scoring
// sums are filled here; posts, hits, units and odds follow the settlement tag
// when the task is applied.
func BuildStatsTask(t models.Ticket, g models.Game, res settlement.GameResult, market models.MarketSnapshot, upsetGame bool) models.StatsTask {
	league := g.League
	if !league.Known() && t.League != "" {
		league = models.NormalizeLeague(t.League)
	}
	task := models.StatsTask{
		UID:        t.AuthorID,
		TicketID:   t.ID,
		GameID:     g.ID,
		DateKey:    models.DateKey(t.CreatedAt),
		League:     league,
		Settlement: t.Settlement,
		Payout:     t.ResultUnit,
		UsedOdds:   t.UsedOdds,
	}
	if t.SettledAt != nil {
		task.SettledAt = *t.SettledAt
	}

	side := TicketSide(t, res)
	if side == models.SideNone {
		return task
	}
	pick := t.Pick
	pick.Winner = side
	r := scoring.CalcPostResult(scoring.PostInput{
		Sport:        league.Sport(),
		Pick:         pick,
		Confidence:   t.Confidence,
		HomeScore:    g.HomeScore,
		AwayScore:    g.AwayScore,
		HadUpsetGame: upsetGame,
	})
	task.Delta = models.BucketStats{
		BrierSum:         r.Brier,
		CalibrationSum:   r.CalibrationError,
		CalibrationCount: 1,
	}
	if pick.HasScore() {
		task.Delta.PrecisionSum = r.ScorePrecision
		task.Delta.ScoreErrorSum = r.ScoreError
	}
	if upsetGame {
		task.Delta.UpsetOpportunities = 1
		if r.UpsetHit {
			task.Delta.UpsetHits = 1
		}
	}
	if market.MajoritySide != models.SideNone && side == market.MajoritySide {
		task.Delta.MajorityPicks = 1
	}
	return task
}

// settlementDelta applies the settlement rules to a task's scoring sums. Void
// tickets only contribute their units.
func settlementDelta(task models.StatsTask) models.BucketStats {
	if task.Settlement != models.OutcomeHit && task.Settlement != models.OutcomeMiss {
		return models.BucketStats{Units: task.Payout}
	}
	d := task.Delta
	d.Posts = 1
	d.Hits = 0
	d.Units = task.Payout
	d.OddsSum, d.OddsCount = 0, 0
	if task.Settlement == models.OutcomeHit {
		d.Hits = 1
		if task.UsedOdds > 0 {
			d.OddsSum, d.OddsCount = task.UsedOdds, 1
		}
	}
	return d
}

// ApplyPostToUserStats folds a settled ticket into its daily bucket at most
// once, then rebuilds the user's windows. A failed rebuild leaves the windows
// stale until the nightly sweep and is not an error.
func (s *userStatsService) ApplyPostToUserStats(ctx context.Context, task models.StatsTask) (bool, error) {
	if task.UID == "" || task.TicketID == "" || task.DateKey == "" {
		return false, fmt.Errorf("incomplete stats task for ticket %q", task.TicketID)
	}
	task.Delta = settlementDelta(task)

	applied, err := s.stats.ApplyDaily(ctx, task)
	if err != nil {
		statsApplied.WithLabelValues("error").Inc()
		return false, fmt.Errorf("apply daily stats: %w", err)
	}
	if !applied {
		statsApplied.WithLabelValues("duplicate").Inc()
		s.logger.Debugw("Stats already applied", "uid", task.UID, "ticket", task.TicketID)
		return false, nil
	}
	statsApplied.WithLabelValues("applied").Inc()

	if _, err := s.RebuildWindows(ctx, task.UID, s.now()); err != nil {
		s.logger.Warnw("Window rebuild failed; summary stale until nightly recompute",
			"uid", task.UID, "ticket", task.TicketID, "error", err)
	}
	return true, nil
}

// RebuildWindows recomputes the 7d, 30d and all-time windows from daily
// buckets and writes them to the summary. Streak fields are left alone.
func (s *userStatsService) RebuildWindows(ctx context.Context, uid string, now time.Time) (map[string]models.WindowStats, error) {
	dates := models.LastNDateKeys(now, 30)
	keys := make([]string, len(dates))
	for i, d := range dates {
		keys[i] = models.DailyKey(uid, d)
	}
	recent, err := s.stats.ListDailyByKeys(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("load recent buckets of %s: %w", uid, err)
	}
	all, err := s.stats.ListDailyByUser(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("load buckets of %s: %w", uid, err)
	}

	cutoff7 := dates[len(dates)-7]
	var last7 []models.DailyBucket
	for _, b := range recent {
		if b.Date >= cutoff7 {
			last7 = append(last7, b)
		}
	}

	windows := map[string]models.WindowStats{
		models.Window7d:  AggregateWindow(last7),
		models.Window30d: AggregateWindow(recent),
		models.WindowAll: AggregateWindow(all),
	}
	if err := s.stats.PutWindows(ctx, uid, windows, now); err != nil {
		return nil, fmt.Errorf("write windows of %s: %w", uid, err)
	}
	return windows, nil
}

// AggregateWindow sums daily buckets into a window and derives its ratios.
func AggregateWindow(buckets []models.DailyBucket) models.WindowStats {
	var w models.WindowStats
	for _, b := range buckets {
		w.BucketStats.Add(b.All)
		w.Days++
		for league, sub := range b.Leagues {
			if sub == nil {
				continue
			}
			if w.Leagues == nil {
				w.Leagues = make(map[models.League]models.BucketStats)
			}
			acc := w.Leagues[league]
			acc.Add(*sub)
			w.Leagues[league] = acc
		}
	}
	w.Finalize()
	return w
}

// RecomputeAllUsersDaily rebuilds the windows of every user that has daily
// buckets. Individual failures are logged and do not stop the sweep.
func (s *userStatsService) RecomputeAllUsersDaily(ctx context.Context, now time.Time) (int, error) {
	start := time.Now()
	defer func() { jobDuration.WithLabelValues("recompute_all").Observe(time.Since(start).Seconds()) }()

	uids, err := s.stats.ListUIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}

	var (
		mu      sync.Mutex
		rebuilt int
		errs    []error
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(s.concurrency)
	for _, uid := range uids {
		eg.Go(func() error {
			_, err := s.RebuildWindows(egCtx, uid, now)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				s.logger.Errorw("Window recompute failed", "uid", uid, "error", err)
				return nil
			}
			rebuilt++
			return nil
		})
	}
	_ = eg.Wait()

	s.logger.Infow("Nightly window recompute finished", "users", len(uids), "rebuilt", rebuilt, "failed", len(errs))
	return rebuilt, errors.Join(errs...)
}
