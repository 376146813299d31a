package logic

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/yosoku/stats-engine/internal/models"
	"github.com/yosoku/stats-engine/internal/store"
)

func TestPercentile(t *testing.T) {
	pop := []float64{1, 2, 2, 3}
	tests := []struct {
		v, want float64
	}{
		{1, 12.5},
		{2, 50},
		{3, 87.5},
		{0, 0},
		{4, 100},
	}
	for _, tt := range tests {
		if got := Percentile(pop, tt.v); got != tt.want {
			t.Errorf("Percentile(%v) = %v, want %v", tt.v, got, tt.want)
		}
	}
	if got := Percentile(nil, 1); got != 0 {
		t.Errorf("empty population = %v", got)
	}
}

func TestMonthlyMetricsAndRadar(t *testing.T) {
	totals := models.BucketStats{Posts: 10, Hits: 6, BrierSum: 2, PrecisionSum: 75, CalibrationCount: 10, UpsetOpportunities: 4, UpsetHits: 1, MajorityPicks: 7}
	m := MonthlyMetrics(totals, 4)
	want := map[string]float64{
		models.AxisWinRate:    0.6,
		models.AxisAccuracy:   0.8,
		models.AxisPrecision:  7.5,
		models.AxisUpset:      0.25,
		models.AxisStreak:     4,
		models.AxisConformity: 0.7,
	}
	for k, v := range want {
		if math.Abs(m[k]-v) > 1e-9 {
			t.Errorf("metric %s = %v, want %v", k, m[k], v)
		}
	}

	r := Radar(m)
	if math.Abs(r[models.AxisPrecision]-5) > 1e-9 || math.Abs(r[models.AxisWinRate]-6) > 1e-9 {
		t.Errorf("radar = %v", r)
	}
	if got := Radar(map[string]float64{models.AxisStreak: 14})[models.AxisStreak]; got != 10 {
		t.Errorf("streak axis not clamped: %v", got)
	}
}

func TestMaxWinStreaks(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, models.JST)
	at := func(h int) time.Time { return base.Add(time.Duration(h) * time.Hour) }
	tickets := []models.Ticket{
		{AuthorID: "u1", CreatedAt: at(5), Settlement: models.OutcomeHit},
		{AuthorID: "u1", CreatedAt: at(1), Settlement: models.OutcomeHit},
		{AuthorID: "u1", CreatedAt: at(2), Settlement: models.OutcomeVoid},
		{AuthorID: "u1", CreatedAt: at(3), Settlement: models.OutcomeHit},
		{AuthorID: "u1", CreatedAt: at(4), Settlement: models.OutcomeMiss},
		{AuthorID: "u2", CreatedAt: at(1), Settlement: models.OutcomeMiss},
	}
	got := maxWinStreaks(tickets)
	if got["u1"] != 2 || got["u2"] != 0 {
		t.Errorf("streaks = %v", got)
	}
}

func seedSettledTicket(t *testing.T, ms *store.MemoryStore, uid, id string, created time.Time, outcome models.Outcome) {
	t.Helper()
	ctx := context.Background()
	settledAt := created.Add(3 * time.Hour)
	payout := -1.0
	if outcome == models.OutcomeHit {
		payout = 0.8
	}
	tk := models.Ticket{
		ID: id, AuthorID: uid, GameID: "g-" + id, CreatedAt: created, Confidence: 60,
		Settlement: outcome, ResultUnit: payout, SettledAt: &settledAt,
	}
	if err := ms.UpsertTicket(ctx, tk); err != nil {
		t.Fatal(err)
	}
	task := models.StatsTask{
		UID: uid, TicketID: id, DateKey: models.DateKey(created), League: models.LeagueNBA,
		Settlement: outcome, Payout: payout, UsedOdds: 1.8,
		Delta: models.BucketStats{BrierSum: 0.16, CalibrationSum: 0.4, CalibrationCount: 1},
	}
	task.Delta = settlementDelta(task)
	if _, err := ms.ApplyDaily(ctx, task); err != nil {
		t.Fatal(err)
	}
}

func TestRebuildMonthly(t *testing.T) {
	ctx := context.Background()
	ms := store.NewMemoryStore()
	may := func(day, hour int) time.Time { return time.Date(2024, 5, day, hour, 0, 0, 0, models.JST) }

	// u1: hit hit hit miss, plus an April hit outside the month.
	seedSettledTicket(t, ms, "u1", "a1", may(2, 10), models.OutcomeHit)
	seedSettledTicket(t, ms, "u1", "a2", may(3, 10), models.OutcomeHit)
	seedSettledTicket(t, ms, "u1", "a3", may(4, 10), models.OutcomeHit)
	seedSettledTicket(t, ms, "u1", "a4", may(31, 23), models.OutcomeMiss)
	seedSettledTicket(t, ms, "u1", "a0", time.Date(2024, 4, 30, 10, 0, 0, 0, models.JST), models.OutcomeHit)
	// u2: one hit in three.
	seedSettledTicket(t, ms, "u2", "b1", may(5, 10), models.OutcomeMiss)
	seedSettledTicket(t, ms, "u2", "b2", may(6, 10), models.OutcomeHit)
	seedSettledTicket(t, ms, "u2", "b3", may(7, 10), models.OutcomeMiss)
	// u3: under the minimum.
	seedSettledTicket(t, ms, "u3", "c1", may(8, 10), models.OutcomeHit)
	seedSettledTicket(t, ms, "u3", "c2", may(9, 10), models.OutcomeHit)

	svc := NewRankingService(ms, ms, ms, zap.NewNop(), RankingConfig{MonthlyMinPosts: 3, LeaderboardMinPosts: 1}).(*rankingService)
	builtAt := time.Date(2024, 6, 1, 4, 0, 0, 0, models.JST)
	svc.now = func() time.Time { return builtAt }

	n, err := svc.RebuildMonthly(ctx, may(15, 0))
	if err != nil {
		t.Fatalf("RebuildMonthly: %v", err)
	}
	if n != 2 {
		t.Errorf("classified %d users, want 2", n)
	}

	u1, err := ms.GetMonthly(ctx, models.MonthlyKey("u1", "2024-05"))
	if err != nil {
		t.Fatalf("u1 monthly: %v", err)
	}
	if u1.Totals.Posts != 4 || u1.MaxStreak != 3 {
		t.Errorf("u1 totals = %+v, max streak %d", u1.Totals, u1.MaxStreak)
	}
	if u1.Metrics[models.AxisWinRate] != 0.75 || u1.Percentiles[models.AxisWinRate] != 75 {
		t.Errorf("u1 win rate %v, percentile %v", u1.Metrics[models.AxisWinRate], u1.Percentiles[models.AxisWinRate])
	}
	if u1.LeaguePosts[models.LeagueNBA] != 4 {
		t.Errorf("u1 league posts = %v", u1.LeaguePosts)
	}
	if u1.AnalysisType == "" || u1.AnalysisType != Classify(u1.Levels).ID || !u1.BuiltAt.Equal(builtAt) {
		t.Errorf("u1 classification = %s/%s at %v", u1.Levels, u1.AnalysisType, u1.BuiltAt)
	}

	u2, _ := ms.GetMonthly(ctx, models.MonthlyKey("u2", "2024-05"))
	if u2 == nil || u2.Percentiles[models.AxisWinRate] != 25 {
		t.Errorf("u2 monthly = %+v", u2)
	}
	if _, err := ms.GetMonthly(ctx, models.MonthlyKey("u3", "2024-05")); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("u3 monthly err = %v, want not found", err)
	}

	lb, err := ms.GetLeaderboard(ctx, "monthly_2024-05_win_rate")
	if err != nil {
		t.Fatalf("monthly board: %v", err)
	}
	if len(lb.Entries) != 2 || lb.Entries[0].UID != "u1" || lb.Entries[1].Rank != 2 || lb.MinPosts != 3 {
		t.Errorf("board = %+v", lb)
	}
}
