package logic

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/yosoku/stats-engine/internal/models"
	"github.com/yosoku/stats-engine/internal/store"
)

// Leaderboard metrics.
const (
	MetricWinRate = "win_rate"
	MetricUnits   = "units"
	MetricBrier   = "brier"
)

// WindowMetrics are the metrics ranked for every summary window.
var WindowMetrics = []string{MetricWinRate, MetricUnits, MetricBrier}

// Calendar periods.
const (
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
)

// RankingConfig tunes the periodic rebuilds.
type RankingConfig struct {
	LeaderboardMinPosts int64
	MonthlyMinPosts     int64
	// Limit caps the stored entries per board; 0 keeps everyone.
	Limit int
}

type rankingService struct {
	stats   store.StatsRepo
	tickets store.TicketRepo
	boards  store.LeaderboardRepo
	logger  *zap.SugaredLogger
	cfg     RankingConfig
	now     func() time.Time
}

// NewRankingService creates the leaderboard and monthly rebuilder.
func NewRankingService(stats store.StatsRepo, tickets store.TicketRepo, boards store.LeaderboardRepo, logger *zap.Logger, cfg RankingConfig) RankingService {
	return &rankingService{
		stats:   stats,
		tickets: tickets,
		boards:  boards,
		logger:  logger.Sugar(),
		cfg:     cfg,
		now:     time.Now,
	}
}

func metricValue(metric string, w models.WindowStats) float64 {
	switch metric {
	case MetricUnits:
		return w.Units
	case MetricBrier:
		return w.AvgBrier
	}
	return w.WinRate
}

func lowerIsBetter(metric string) bool {
	return metric == MetricBrier
}

// BuildLeaderboard ranks users on one metric. Users under minPosts are left
// out. Ties share a rank and the next rank skips (1, 2, 2, 4).
func BuildLeaderboard(id, kind, period, metric string, minPosts int64, users map[string]models.WindowStats, limit int, builtAt time.Time) models.Leaderboard {
	lb := models.Leaderboard{
		ID:       id,
		Kind:     kind,
		Period:   period,
		Metric:   metric,
		MinPosts: minPosts,
		BuiltAt:  builtAt,
		Entries:  []models.LeaderboardEntry{},
	}
	for uid, w := range users {
		if w.Posts < minPosts || w.Posts == 0 {
			continue
		}
		lb.Entries = append(lb.Entries, models.LeaderboardEntry{
			UID:     uid,
			Value:   metricValue(metric, w),
			Posts:   w.Posts,
			Hits:    w.Hits,
			Units:   w.Units,
			WinRate: w.WinRate,
		})
	}
	lb.Population = len(lb.Entries)

	lower := lowerIsBetter(metric)
	sort.Slice(lb.Entries, func(i, j int) bool {
		a, b := lb.Entries[i], lb.Entries[j]
		if a.Value != b.Value {
			if lower {
				return a.Value < b.Value
			}
			return a.Value > b.Value
		}
		if a.Posts != b.Posts {
			return a.Posts > b.Posts
		}
		return a.UID < b.UID
	})
	for i := range lb.Entries {
		if i > 0 && lb.Entries[i].Value == lb.Entries[i-1].Value {
			lb.Entries[i].Rank = lb.Entries[i-1].Rank
		} else {
			lb.Entries[i].Rank = i + 1
		}
	}
	if limit > 0 && len(lb.Entries) > limit {
		lb.Entries = lb.Entries[:limit]
	}
	return lb
}

// aggregateByUser groups buckets per user into one window each.
func aggregateByUser(buckets []models.DailyBucket) map[string]models.WindowStats {
	grouped := make(map[string][]models.DailyBucket)
	for _, b := range buckets {
		grouped[b.UID] = append(grouped[b.UID], b)
	}
	out := make(map[string]models.WindowStats, len(grouped))
	for uid, bs := range grouped {
		out[uid] = AggregateWindow(bs)
	}
	return out
}

// RebuildWindowLeaderboards writes {window}_{metric} boards for every summary
// window and metric, computed from daily buckets.
func (s *rankingService) RebuildWindowLeaderboards(ctx context.Context, now time.Time) (int, error) {
	start := time.Now()
	defer func() { jobDuration.WithLabelValues("window_leaderboards").Observe(time.Since(start).Seconds()) }()

	today := models.DateKey(now)
	all, err := s.stats.ListDailyBetween(ctx, "0000-01-01", today)
	if err != nil {
		return 0, fmt.Errorf("load daily buckets: %w", err)
	}
	from7 := models.LastNDateKeys(now, 7)[0]
	from30 := models.LastNDateKeys(now, 30)[0]

	var last7, last30 []models.DailyBucket
	for _, b := range all {
		if b.Date >= from30 {
			last30 = append(last30, b)
		}
		if b.Date >= from7 {
			last7 = append(last7, b)
		}
	}
	byWindow := map[string]map[string]models.WindowStats{
		models.Window7d:  aggregateByUser(last7),
		models.Window30d: aggregateByUser(last30),
		models.WindowAll: aggregateByUser(all),
	}

	written := 0
	for _, window := range models.Windows {
		for _, metric := range WindowMetrics {
			id := window + "_" + metric
			lb := BuildLeaderboard(id, models.BoardWindow, window, metric, s.cfg.LeaderboardMinPosts, byWindow[window], s.cfg.Limit, now)
			if err := s.boards.PutLeaderboard(ctx, lb); err != nil {
				return written, fmt.Errorf("write leaderboard %s: %w", id, err)
			}
			written++
		}
	}
	s.logger.Infow("Window leaderboards rebuilt", "boards", written, "users", len(byWindow[models.WindowAll]))
	return written, nil
}

// CalendarPeriod resolves the period before ref: the previous ISO week
// (Monday to Sunday, JST) or the previous calendar month. It returns the
// board key and the inclusive date range.
func CalendarPeriod(period string, ref time.Time) (key string, from, to time.Time, err error) {
	switch period {
	case PeriodWeekly:
		from, to = models.PreviousISOWeek(ref)
		year, week := from.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week), from, to, nil
	case PeriodMonthly:
		from, to = models.MonthRange(models.PreviousMonth(ref))
		return models.MonthKey(from), from, to, nil
	}
	return "", time.Time{}, time.Time{}, fmt.Errorf("unknown calendar period %q", period)
}

// RebuildCalendar writes the weekly or monthly calendar board for the period
// before ref, ranked by units.
func (s *rankingService) RebuildCalendar(ctx context.Context, period string, ref time.Time) (*models.Leaderboard, error) {
	start := time.Now()
	defer func() { jobDuration.WithLabelValues("calendar_" + period).Observe(time.Since(start).Seconds()) }()

	key, from, to, err := CalendarPeriod(period, ref)
	if err != nil {
		return nil, err
	}
	buckets, err := s.stats.ListDailyBetween(ctx, models.DateKey(from), models.DateKey(to))
	if err != nil {
		return nil, fmt.Errorf("load daily buckets for %s: %w", key, err)
	}

	id := period + "_" + key
	lb := BuildLeaderboard(id, models.BoardCalendar, key, MetricUnits, s.cfg.LeaderboardMinPosts, aggregateByUser(buckets), s.cfg.Limit, s.now())
	if err := s.boards.PutLeaderboard(ctx, lb); err != nil {
		return nil, fmt.Errorf("write leaderboard %s: %w", id, err)
	}
	s.logger.Infow("Calendar leaderboard rebuilt", "board", id, "population", lb.Population)
	return &lb, nil
}
