package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yosoku/stats-engine/internal/models"
)

// TrendDirtyKey is the Redis set of games awaiting a trend rebuild.
const TrendDirtyKey = "trend:dirty_games"

// CachedStore wraps a primary Store with a Redis read-through cache for the
// summary, monthly and leaderboard documents. Writes go to the primary and
// invalidate the cached copy.
type CachedStore struct {
	Store
	rdb *redis.Client
	ttl time.Duration
}

// NewCachedStore creates a cached wrapper around a primary store.
func NewCachedStore(primary Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{Store: primary, rdb: rdb, ttl: ttl}
}

func summaryKey(uid string) string    { return "stats:summary:" + uid }
func monthlyKey(key string) string    { return "stats:monthly:" + key }
func leaderboardKey(id string) string { return "stats:leaderboard:" + id }

// --- Write-through (write to primary, invalidate cache) ---

func (s *CachedStore) ApplyDaily(ctx context.Context, task models.StatsTask) (bool, error) {
	applied, err := s.Store.ApplyDaily(ctx, task)
	if err != nil {
		return false, err
	}
	if applied {
		s.rdb.Del(ctx, summaryKey(task.UID))
	}
	return applied, nil
}

func (s *CachedStore) PutWindows(ctx context.Context, uid string, windows map[string]models.WindowStats, at time.Time) error {
	if err := s.Store.PutWindows(ctx, uid, windows, at); err != nil {
		return err
	}
	s.rdb.Del(ctx, summaryKey(uid))
	return nil
}

func (s *CachedStore) PutMonthly(ctx context.Context, stats []models.MonthlyUserStats) error {
	if err := s.Store.PutMonthly(ctx, stats); err != nil {
		return err
	}
	if len(stats) == 0 {
		return nil
	}
	keys := make([]string, len(stats))
	for i, st := range stats {
		keys[i] = monthlyKey(st.Key)
	}
	s.rdb.Del(ctx, keys...)
	return nil
}

func (s *CachedStore) PutLeaderboard(ctx context.Context, lb models.Leaderboard) error {
	if err := s.Store.PutLeaderboard(ctx, lb); err != nil {
		return err
	}
	s.rdb.Del(ctx, leaderboardKey(lb.ID))
	return nil
}

// --- Read-through (check cache first) ---

func (s *CachedStore) GetSummary(ctx context.Context, uid string) (*models.UserSummary, error) {
	var sum models.UserSummary
	if s.cached(ctx, summaryKey(uid), &sum) {
		return &sum, nil
	}
	out, err := s.Store.GetSummary(ctx, uid)
	if err != nil {
		return nil, err
	}
	s.put(ctx, summaryKey(uid), out)
	return out, nil
}

func (s *CachedStore) GetMonthly(ctx context.Context, key string) (*models.MonthlyUserStats, error) {
	var st models.MonthlyUserStats
	if s.cached(ctx, monthlyKey(key), &st) {
		return &st, nil
	}
	out, err := s.Store.GetMonthly(ctx, key)
	if err != nil {
		return nil, err
	}
	s.put(ctx, monthlyKey(key), out)
	return out, nil
}

func (s *CachedStore) GetLeaderboard(ctx context.Context, id string) (*models.Leaderboard, error) {
	var lb models.Leaderboard
	if s.cached(ctx, leaderboardKey(id), &lb) {
		return &lb, nil
	}
	out, err := s.Store.GetLeaderboard(ctx, id)
	if err != nil {
		return nil, err
	}
	s.put(ctx, leaderboardKey(id), out)
	return out, nil
}

// MarkTrendDirty adds the game to the trend rebuild set.
func (s *CachedStore) MarkTrendDirty(ctx context.Context, gameID string) error {
	return s.rdb.SAdd(ctx, TrendDirtyKey, gameID).Err()
}

// --- Cache helpers ---

func (s *CachedStore) cached(ctx context.Context, key string, dst any) bool {
	data, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dst) == nil
}

func (s *CachedStore) put(ctx context.Context, key string, v any) {
	if data, err := json.Marshal(v); err == nil {
		s.rdb.Set(ctx, key, data, s.ttl)
	}
}
