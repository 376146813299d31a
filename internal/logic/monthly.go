package logic

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/yosoku/stats-engine/internal/models"
	"github.com/yosoku/stats-engine/internal/scoring"
)

// Monthly metric names, aligned with the radar axes.
const (
	metricWinRate    = models.AxisWinRate
	metricAccuracy   = models.AxisAccuracy
	metricPrecision  = models.AxisPrecision
	metricUpsetRate  = models.AxisUpset
	metricMaxStreak  = models.AxisStreak
	metricConformity = models.AxisConformity
)

// Percentile is the tie-aware percentile rank of v in population:
// (count below + count equal / 2) / total × 100.
func Percentile(population []float64, v float64) float64 {
	if len(population) == 0 {
		return 0
	}
	var below, equal int
	for _, p := range population {
		switch {
		case p < v:
			below++
		case p == v:
			equal++
		}
	}
	return (float64(below) + float64(equal)/2) / float64(len(population)) * 100
}

func clamp10(v float64) float64 {
	return math.Max(0, math.Min(10, v))
}

// MonthlyMetrics derives the raw monthly metrics from a user's totals.
func MonthlyMetrics(totals models.BucketStats, maxStreak int) map[string]float64 {
	w := models.WindowStats{BucketStats: totals}
	w.Finalize()
	m := map[string]float64{
		metricWinRate:    w.WinRate,
		metricAccuracy:   0,
		metricPrecision:  w.AvgPrec,
		metricUpsetRate:  w.UpsetRate,
		metricMaxStreak:  float64(maxStreak),
		metricConformity: 0,
	}
	if totals.CalibrationCount > 0 {
		m[metricAccuracy] = 1 - w.AvgBrier
	}
	if totals.Posts > 0 {
		m[metricConformity] = float64(totals.MajorityPicks) / float64(totals.Posts)
	}
	return m
}

// Radar maps the monthly metrics onto 0-10 axes.
func Radar(metrics map[string]float64) map[string]float64 {
	return map[string]float64{
		models.AxisWinRate:    clamp10(metrics[metricWinRate] * 10),
		models.AxisAccuracy:   clamp10(metrics[metricAccuracy] * 10),
		models.AxisPrecision:  clamp10(metrics[metricPrecision] / scoring.MaxPrecision * 10),
		models.AxisUpset:      clamp10(metrics[metricUpsetRate] * 10),
		models.AxisStreak:     clamp10(metrics[metricMaxStreak]),
		models.AxisConformity: clamp10(metrics[metricConformity] * 10),
	}
}

// maxWinStreaks returns each author's longest run of hit tickets, in creation
// order. Misses end a run; voids are skipped.
func maxWinStreaks(tickets []models.Ticket) map[string]int {
	sort.SliceStable(tickets, func(i, j int) bool { return tickets[i].CreatedAt.Before(tickets[j].CreatedAt) })
	current := make(map[string]int)
	best := make(map[string]int)
	for _, t := range tickets {
		switch t.Settlement {
		case models.OutcomeHit:
			current[t.AuthorID]++
			if current[t.AuthorID] > best[t.AuthorID] {
				best[t.AuthorID] = current[t.AuthorID]
			}
		case models.OutcomeMiss:
			current[t.AuthorID] = 0
		}
	}
	return best
}

// RebuildMonthly classifies every user active in the calendar month
// containing month, writes the per-user snapshots and the month's win-rate
// board. Users under the minimum post count are not ranked.
func (s *rankingService) RebuildMonthly(ctx context.Context, month time.Time) (int, error) {
	start := time.Now()
	defer func() { jobDuration.WithLabelValues("monthly").Observe(time.Since(start).Seconds()) }()

	first, last := models.MonthRange(month)
	monthKey := models.MonthKey(first)

	buckets, err := s.stats.ListDailyBetween(ctx, models.DateKey(first), models.DateKey(last))
	if err != nil {
		return 0, fmt.Errorf("load daily buckets for %s: %w", monthKey, err)
	}
	tickets, err := s.tickets.ListSettledTickets(ctx, first, last.AddDate(0, 0, 1))
	if err != nil {
		return 0, fmt.Errorf("load settled tickets for %s: %w", monthKey, err)
	}
	streaks := maxWinStreaks(tickets)

	totals := make(map[string]*models.MonthlyUserStats)
	for _, b := range buckets {
		st, ok := totals[b.UID]
		if !ok {
			st = &models.MonthlyUserStats{
				Key:         models.MonthlyKey(b.UID, monthKey),
				UID:         b.UID,
				Month:       monthKey,
				LeaguePosts: make(map[models.League]int64),
			}
			totals[b.UID] = st
		}
		st.Totals.Add(b.All)
		for league, sub := range b.Leagues {
			if sub != nil {
				st.LeaguePosts[league] += sub.Posts
			}
		}
	}

	var eligible []*models.MonthlyUserStats
	for _, st := range totals {
		if st.Totals.Posts == 0 || st.Totals.Posts < s.cfg.MonthlyMinPosts {
			continue
		}
		st.MaxStreak = streaks[st.UID]
		st.Metrics = MonthlyMetrics(st.Totals, st.MaxStreak)
		eligible = append(eligible, st)
	}
	sort.Slice(eligible, func(i, j int) bool { return eligible[i].UID < eligible[j].UID })

	population := make(map[string][]float64, len(models.RadarAxes))
	for _, st := range eligible {
		for _, axis := range models.RadarAxes {
			population[axis] = append(population[axis], st.Metrics[axis])
		}
	}

	builtAt := s.now()
	out := make([]models.MonthlyUserStats, 0, len(eligible))
	windows := make(map[string]models.WindowStats, len(eligible))
	for _, st := range eligible {
		st.Percentiles = make(map[string]float64, len(models.RadarAxes))
		for _, axis := range models.RadarAxes {
			st.Percentiles[axis] = Percentile(population[axis], st.Metrics[axis])
		}
		st.Radar = Radar(st.Metrics)
		st.Levels = Levels(st.Radar, st.Metrics[metricUpsetRate])
		st.AnalysisType = Classify(st.Levels).ID
		st.BuiltAt = builtAt
		out = append(out, *st)

		w := models.WindowStats{BucketStats: st.Totals}
		w.Finalize()
		windows[st.UID] = w
	}

	if err := s.stats.PutMonthly(ctx, out); err != nil {
		return 0, fmt.Errorf("write monthly stats for %s: %w", monthKey, err)
	}
	id := models.BoardMonthly + "_" + monthKey + "_" + MetricWinRate
	lb := BuildLeaderboard(id, models.BoardMonthly, monthKey, MetricWinRate, s.cfg.MonthlyMinPosts, windows, s.cfg.Limit, builtAt)
	if err := s.boards.PutLeaderboard(ctx, lb); err != nil {
		return len(out), fmt.Errorf("write leaderboard %s: %w", id, err)
	}

	s.logger.Infow("Monthly classification rebuilt", "month", monthKey, "users", len(out), "active", len(totals))
	return len(out), nil
}
