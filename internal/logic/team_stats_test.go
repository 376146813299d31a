package logic

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/yosoku/stats-engine/internal/models"
	"github.com/yosoku/stats-engine/internal/store"
)

func TestRankTier(t *testing.T) {
	tests := []struct {
		rank, want int
	}{
		{0, 0}, {-1, 0}, {1, 1}, {6, 1}, {7, 2}, {12, 2}, {13, 3}, {24, 4}, {25, 5}, {40, 5},
	}
	for _, tt := range tests {
		if got := RankTier(tt.rank); got != tt.want {
			t.Errorf("RankTier(%d) = %d, want %d", tt.rank, got, tt.want)
		}
	}
}

func TestTierRelation(t *testing.T) {
	tests := []struct {
		rank, opp int
		want      string
		ok        bool
	}{
		{1, 2, TierSame, true},
		{6, 8, TierSame, true}, // across a cutoff but inside the cushion
		{7, 12, TierSame, true},
		{5, 8, TierLower, true},
		{8, 5, TierHigher, true},
		{1, 20, TierMuchLower, true},
		{20, 1, TierMuchHigher, true},
		{0, 5, "", false},
		{5, 0, "", false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_vs_%d", tt.rank, tt.opp), func(t *testing.T) {
			got, ok := TierRelation(tt.rank, tt.opp)
			if got != tt.want || ok != tt.ok {
				t.Errorf("TierRelation(%d, %d) = %q, %v; want %q, %v", tt.rank, tt.opp, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestTeamCounterDelta(t *testing.T) {
	strong := &models.TeamContext{TeamID: "h", Wins: 20, Rank: 1, Conference: "East"}
	weak := &models.TeamContext{TeamID: "a", Wins: 8, Rank: 20, Conference: "West"}

	t.Run("home win in a close basketball game", func(t *testing.T) {
		g := models.Game{ID: "g1", League: models.LeagueBJ, HomeScore: 80, AwayScore: 77}
		d := TeamCounterDelta(g, true, strong, weak, false)
		want := map[string]int64{
			"games": 1, "wins": 1, "losses": 0, "draws": 0,
			"home_games": 1, "home_wins": 1, "away_games": 0, "away_wins": 0,
			"close_games": 1, "close_wins": 1,
			"vs_lower_games": 1, "vs_lower_wins": 1, "vs_higher_games": 0,
			"conf_games": 0, "nonconf_games": 1, "nonconf_wins": 1,
			"tier_much_lower_games": 1, "tier_much_lower_wins": 1, "tier_same_games": 0,
		}
		for k, v := range want {
			if d[k] != v {
				t.Errorf("%s = %d, want %d", k, d[k], v)
			}
		}
	})

	t.Run("away side of the same game", func(t *testing.T) {
		g := models.Game{ID: "g1", League: models.LeagueBJ, HomeScore: 80, AwayScore: 77}
		d := TeamCounterDelta(g, false, weak, strong, true)
		if d["losses"] != 1 || d["away_games"] != 1 || d["vs_higher_games"] != 1 || d["vs_higher_wins"] != 0 {
			t.Errorf("delta = %v", d)
		}
		if d["b2b_games"] != 1 || d["b2b_wins"] != 0 || d["tier_much_higher_games"] != 1 {
			t.Errorf("delta = %v", d)
		}
	})

	t.Run("football draw is close", func(t *testing.T) {
		g := models.Game{ID: "g2", League: models.LeagueJ1, HomeScore: 1, AwayScore: 1}
		d := TeamCounterDelta(g, true, nil, nil, false)
		if d["draws"] != 1 || d["wins"] != 0 || d["losses"] != 0 || d["close_games"] != 1 {
			t.Errorf("delta = %v", d)
		}
	})

	t.Run("football two goal margin is not close", func(t *testing.T) {
		g := models.Game{ID: "g3", League: models.LeagueJ1, HomeScore: 3, AwayScore: 1}
		if d := TeamCounterDelta(g, true, nil, nil, false); d["close_games"] != 0 {
			t.Errorf("close_games = %d", d["close_games"])
		}
	})

	t.Run("missing context omits splits", func(t *testing.T) {
		g := models.Game{ID: "g1", League: models.LeagueBJ, HomeScore: 90, AwayScore: 70}
		d := TeamCounterDelta(g, true, strong, nil, false)
		for _, k := range []string{"vs_higher_games", "conf_games", "tier_same_games"} {
			if _, ok := d[k]; ok {
				t.Errorf("unexpected key %s", k)
			}
		}
		noRank := &models.TeamContext{TeamID: "a", Wins: 3}
		d = TeamCounterDelta(g, true, strong, noRank, false)
		if _, ok := d["vs_lower_games"]; !ok {
			t.Error("vs_lower_games missing")
		}
		if _, ok := d["conf_games"]; ok {
			t.Error("conf_games present without conferences")
		}
		if _, ok := d["tier_same_games"]; ok {
			t.Error("tier keys present without ranks")
		}
	})

	t.Run("every value is 0 or 1", func(t *testing.T) {
		g := models.Game{ID: "g1", League: models.LeagueNBA, HomeScore: 100, AwayScore: 120}
		for k, v := range TeamCounterDelta(g, false, weak, strong, true) {
			if v != 0 && v != 1 {
				t.Errorf("%s = %d", k, v)
			}
		}
	})
}

func entryAt(id string, at time.Time, result models.Outcome) models.TeamGameEntry {
	return models.TeamGameEntry{GameID: id, PlayedAt: at, Result: result}
}

func TestApplyGameToStreak(t *testing.T) {
	base := time.Date(2024, 5, 1, 19, 0, 0, 0, models.JST)

	t.Run("signed streak", func(t *testing.T) {
		var ts models.TeamStats
		results := []models.Outcome{models.OutcomeHit, models.OutcomeHit, models.OutcomeMiss, models.OutcomeVoid, models.OutcomeMiss}
		for i, r := range results {
			ApplyGameToStreak(&ts, entryAt(fmt.Sprintf("g%d", i), base.AddDate(0, 0, i*3), r))
		}
		if ts.CurrentStreak != -2 {
			t.Errorf("streak = %d, want -2", ts.CurrentStreak)
		}
	})

	t.Run("duplicate game is a no-op", func(t *testing.T) {
		var ts models.TeamStats
		ApplyGameToStreak(&ts, entryAt("g1", base, models.OutcomeHit))
		changed, _ := ApplyGameToStreak(&ts, entryAt("g1", base, models.OutcomeHit))
		if changed || ts.CurrentStreak != 1 || len(ts.LastGames) != 1 {
			t.Errorf("changed=%v streak=%d games=%d", changed, ts.CurrentStreak, len(ts.LastGames))
		}
	})

	t.Run("ring buffer keeps the latest ten", func(t *testing.T) {
		var ts models.TeamStats
		for i := 0; i < 13; i++ {
			ApplyGameToStreak(&ts, entryAt(fmt.Sprintf("g%02d", i), base.AddDate(0, 0, i*2), models.OutcomeHit))
		}
		if len(ts.LastGames) != models.MaxLastGames {
			t.Fatalf("len = %d", len(ts.LastGames))
		}
		if ts.LastGames[0].GameID != "g03" || ts.LastGames[9].GameID != "g12" {
			t.Errorf("buffer = %s..%s", ts.LastGames[0].GameID, ts.LastGames[9].GameID)
		}
	})

	t.Run("back to back", func(t *testing.T) {
		var ts models.TeamStats
		_, b2b := ApplyGameToStreak(&ts, entryAt("g1", base, models.OutcomeHit))
		if b2b {
			t.Error("first game flagged back-to-back")
		}
		_, b2b = ApplyGameToStreak(&ts, entryAt("g2", base.Add(20*time.Hour), models.OutcomeHit))
		if !b2b || !ts.BackToBack {
			t.Error("game 20h later not flagged back-to-back")
		}
		_, b2b = ApplyGameToStreak(&ts, entryAt("g3", base.Add(72*time.Hour), models.OutcomeHit))
		if b2b {
			t.Error("game 52h later flagged back-to-back")
		}
	})

	t.Run("does not alias the previous slice", func(t *testing.T) {
		ts := models.TeamStats{LastGames: make([]models.TeamGameEntry, 0, 5)}
		ApplyGameToStreak(&ts, entryAt("g1", base, models.OutcomeHit))
		before := ts.LastGames
		ApplyGameToStreak(&ts, entryAt("g0", base.Add(-48*time.Hour), models.OutcomeMiss))
		if before[0].GameID != "g1" {
			t.Errorf("previous buffer mutated: %v", before)
		}
		if ts.LastGames[0].GameID != "g0" {
			t.Errorf("buffer not ordered by time: %v", ts.LastGames)
		}
	})
}

func TestUpdateTeamsForGame_Idempotent(t *testing.T) {
	ctx := context.Background()
	ms := store.NewMemoryStore()
	for _, ts := range []models.TeamStats{
		{TeamID: "h", Wins: 20, Rank: 1, Conference: "East"},
		{TeamID: "a", Wins: 8, Rank: 10, Conference: "East"},
	} {
		if err := ms.UpsertTeam(ctx, ts); err != nil {
			t.Fatal(err)
		}
	}
	svc := NewTeamStatsService(ms, zap.NewNop())
	g := models.Game{
		ID: "g1", League: models.LeagueNBA, HomeTeamID: "h", AwayTeamID: "a",
		HomeScore: 101, AwayScore: 99, Final: true,
		StartAt: time.Date(2024, 5, 1, 19, 0, 0, 0, models.JST),
	}
	home := &models.TeamContext{TeamID: "h", Wins: 20, Rank: 1, Conference: "East"}
	away := &models.TeamContext{TeamID: "a", Wins: 8, Rank: 10, Conference: "East"}

	for i := 0; i < 2; i++ {
		if err := svc.UpdateTeamsForGame(ctx, g, home, away); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}

	h, _ := ms.GetTeam(ctx, "h")
	a, _ := ms.GetTeam(ctx, "a")
	if h.Counters["games"] != 1 || h.Counters["wins"] != 1 || h.Counters["conf_wins"] != 1 || h.Counters["tier_lower_wins"] != 1 {
		t.Errorf("home counters = %v", h.Counters)
	}
	if a.Counters["losses"] != 1 || a.Counters["away_games"] != 1 || a.Counters["close_games"] != 1 {
		t.Errorf("away counters = %v", a.Counters)
	}
	if h.CurrentStreak != 1 || a.CurrentStreak != -1 || len(h.LastGames) != 1 || len(a.LastGames) != 1 {
		t.Errorf("streaks = %d/%d, buffers = %d/%d", h.CurrentStreak, a.CurrentStreak, len(h.LastGames), len(a.LastGames))
	}
	if h.Rank != 1 || h.Conference != "East" {
		t.Errorf("team context overwritten: %+v", h)
	}
}

// flakyTeamRepo fails UpdateTeamStreak for one team while failing is set.
type flakyTeamRepo struct {
	*store.MemoryStore
	team    string
	failing bool
}

func (r *flakyTeamRepo) UpdateTeamStreak(ctx context.Context, teamID string, fn func(*models.TeamStats) bool) error {
	if r.failing && teamID == r.team {
		return errors.New("transaction aborted")
	}
	return r.MemoryStore.UpdateTeamStreak(ctx, teamID, fn)
}

func TestUpdateTeamsForGame_StreakFailureSkipsCounters(t *testing.T) {
	ctx := context.Background()
	ms := store.NewMemoryStore()
	prev := models.TeamGameEntry{
		GameID: "g0", OpponentID: "x", Result: models.OutcomeHit, Home: true,
		PlayedAt: time.Date(2024, 4, 30, 19, 0, 0, 0, models.JST),
	}
	for _, ts := range []models.TeamStats{
		{TeamID: "h", Wins: 20, LastGames: []models.TeamGameEntry{prev}, CurrentStreak: 1},
		{TeamID: "a", Wins: 8},
	} {
		if err := ms.UpsertTeam(ctx, ts); err != nil {
			t.Fatal(err)
		}
	}
	repo := &flakyTeamRepo{MemoryStore: ms, team: "h", failing: true}
	svc := NewTeamStatsService(repo, zap.NewNop())
	g := models.Game{
		ID: "g1", League: models.LeagueNBA, HomeTeamID: "h", AwayTeamID: "a",
		HomeScore: 101, AwayScore: 99, Final: true,
		StartAt: time.Date(2024, 5, 1, 19, 0, 0, 0, models.JST),
	}

	if err := svc.UpdateTeamsForGame(ctx, g, nil, nil); err == nil {
		t.Fatal("expected the streak failure to be reported")
	}
	h, _ := ms.GetTeam(ctx, "h")
	if len(h.Counters) != 0 {
		t.Fatalf("counters written without a streak update: %v", h.Counters)
	}
	a, _ := ms.GetTeam(ctx, "a")
	if a.Counters["games"] != 1 {
		t.Errorf("other side counters = %v", a.Counters)
	}

	repo.failing = false
	if err := svc.UpdateTeamsForGame(ctx, g, nil, nil); err != nil {
		t.Fatalf("retry: %v", err)
	}
	h, _ = ms.GetTeam(ctx, "h")
	if h.Counters["games"] != 1 || h.Counters["b2b_games"] != 1 || h.Counters["b2b_wins"] != 1 {
		t.Errorf("home counters after retry = %v, want back-to-back counted", h.Counters)
	}
	if !h.BackToBack || h.CurrentStreak != 2 {
		t.Errorf("home streak = %+v", h)
	}
	a, _ = ms.GetTeam(ctx, "a")
	if a.Counters["games"] != 1 {
		t.Errorf("other side counted twice: %v", a.Counters)
	}
}
