package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/yosoku/stats-engine/internal/models"
)

// newTestCachedStore connects to REDIS_URL and skips when it is unset or
// unreachable.
func newTestCachedStore(t *testing.T) (*CachedStore, *MemoryStore, *redis.Client) {
	t.Helper()
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		t.Fatalf("parse REDIS_URL: %v", err)
	}
	rdb := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		t.Skipf("redis unreachable: %v", err)
	}
	t.Cleanup(func() { _ = rdb.Close() })

	primary := NewMemoryStore()
	return NewCachedStore(primary, rdb, time.Minute), primary, rdb
}

func TestCachedStore_SummaryInvalidation(t *testing.T) {
	s, primary, rdb := newTestCachedStore(t)
	ctx := context.Background()
	uid := "u_" + uuid.NewString()
	t.Cleanup(func() { rdb.Del(context.Background(), summaryKey(uid)) })
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, models.JST)

	if err := s.PutWindows(ctx, uid, map[string]models.WindowStats{models.Window7d: {Days: 7}}, at); err != nil {
		t.Fatal(err)
	}
	if sum, err := s.GetSummary(ctx, uid); err != nil || sum.Windows[models.Window7d].Days != 7 {
		t.Fatalf("first read = %+v, %v", sum, err)
	}

	// A write that bypasses the cache is not visible until the key expires.
	_ = primary.PutWindows(ctx, uid, map[string]models.WindowStats{models.Window7d: {Days: 3}}, at)
	if sum, _ := s.GetSummary(ctx, uid); sum.Windows[models.Window7d].Days != 7 {
		t.Errorf("read through cache = %+v, want the cached copy", sum.Windows)
	}

	if err := s.PutWindows(ctx, uid, map[string]models.WindowStats{models.Window7d: {Days: 5}}, at); err != nil {
		t.Fatal(err)
	}
	if sum, _ := s.GetSummary(ctx, uid); sum.Windows[models.Window7d].Days != 5 {
		t.Errorf("after PutWindows = %+v, want fresh windows", sum.Windows)
	}

	// ApplyDaily drops the summary only when the ticket is new.
	task := models.StatsTask{UID: uid, TicketID: "t1", DateKey: "2024-05-01", League: models.LeagueNBA,
		Settlement: models.OutcomeHit, Delta: models.BucketStats{Posts: 1, Hits: 1}}
	if applied, err := s.ApplyDaily(ctx, task); err != nil || !applied {
		t.Fatalf("ApplyDaily = %v, %v", applied, err)
	}
	if n, _ := rdb.Exists(ctx, summaryKey(uid)).Result(); n != 0 {
		t.Error("summary still cached after ApplyDaily")
	}
}

func TestCachedStore_MonthlyAndLeaderboardInvalidation(t *testing.T) {
	s, primary, rdb := newTestCachedStore(t)
	ctx := context.Background()
	id := uuid.NewString()
	key := models.MonthlyKey("u_"+id, "2024-05")
	board := "monthly_2024-05_win_rate_" + id
	t.Cleanup(func() { rdb.Del(context.Background(), monthlyKey(key), leaderboardKey(board)) })

	_ = s.PutMonthly(ctx, []models.MonthlyUserStats{{Key: key, MaxStreak: 2}})
	_ = s.PutLeaderboard(ctx, models.Leaderboard{ID: board, Population: 10})
	if _, err := s.GetMonthly(ctx, key); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetLeaderboard(ctx, board); err != nil {
		t.Fatal(err)
	}

	_ = primary.PutMonthly(ctx, []models.MonthlyUserStats{{Key: key, MaxStreak: 9}})
	_ = primary.PutLeaderboard(ctx, models.Leaderboard{ID: board, Population: 99})
	if st, _ := s.GetMonthly(ctx, key); st.MaxStreak != 2 {
		t.Errorf("monthly read = %d, want cached 2", st.MaxStreak)
	}
	if lb, _ := s.GetLeaderboard(ctx, board); lb.Population != 10 {
		t.Errorf("leaderboard read = %d, want cached 10", lb.Population)
	}

	_ = s.PutMonthly(ctx, []models.MonthlyUserStats{{Key: key, MaxStreak: 4}})
	_ = s.PutLeaderboard(ctx, models.Leaderboard{ID: board, Population: 12})
	if st, _ := s.GetMonthly(ctx, key); st.MaxStreak != 4 {
		t.Errorf("monthly after put = %d, want 4", st.MaxStreak)
	}
	if lb, _ := s.GetLeaderboard(ctx, board); lb.Population != 12 {
		t.Errorf("leaderboard after put = %d, want 12", lb.Population)
	}
}

func TestCachedStore_MissIsNotCached(t *testing.T) {
	s, _, rdb := newTestCachedStore(t)
	ctx := context.Background()
	uid := "u_" + uuid.NewString()

	if _, err := s.GetSummary(ctx, uid); err != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if n, _ := rdb.Exists(ctx, summaryKey(uid)).Result(); n != 0 {
		t.Error("a missing summary was cached")
	}
}

func TestCachedStore_MarkTrendDirty(t *testing.T) {
	s, _, rdb := newTestCachedStore(t)
	ctx := context.Background()
	game := "g_" + uuid.NewString()
	t.Cleanup(func() { rdb.SRem(context.Background(), TrendDirtyKey, game) })

	for i := 0; i < 2; i++ {
		if err := s.MarkTrendDirty(ctx, game); err != nil {
			t.Fatal(err)
		}
	}
	ok, err := rdb.SIsMember(ctx, TrendDirtyKey, game).Result()
	if err != nil || !ok {
		t.Errorf("game not in %s: %v", TrendDirtyKey, err)
	}
}
