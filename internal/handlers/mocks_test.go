package handlers

import (
	"context"
	"time"

	"github.com/yosoku/stats-engine/internal/logic"
	"github.com/yosoku/stats-engine/internal/models"
)

// MockFinalizer
type MockFinalizer struct {
	HandleGameWriteFunc func(ctx context.Context, w models.GameWrite) (*logic.FinalizeReport, error)
	ReplayGameFunc      func(ctx context.Context, gameID string) (*logic.FinalizeReport, error)
}

func (m *MockFinalizer) HandleGameWrite(ctx context.Context, w models.GameWrite) (*logic.FinalizeReport, error) {
	if m.HandleGameWriteFunc != nil {
		return m.HandleGameWriteFunc(ctx, w)
	}
	return &logic.FinalizeReport{GameID: w.After.ID}, nil
}

func (m *MockFinalizer) ReplayGame(ctx context.Context, gameID string) (*logic.FinalizeReport, error) {
	if m.ReplayGameFunc != nil {
		return m.ReplayGameFunc(ctx, gameID)
	}
	return &logic.FinalizeReport{GameID: gameID}, nil
}

// MockUserStats
type MockUserStats struct {
	RecomputeFunc func(ctx context.Context, now time.Time) (int, error)
}

func (m *MockUserStats) ApplyPostToUserStats(ctx context.Context, task models.StatsTask) (bool, error) {
	return true, nil
}

func (m *MockUserStats) RebuildWindows(ctx context.Context, uid string, now time.Time) (map[string]models.WindowStats, error) {
	return nil, nil
}

func (m *MockUserStats) RecomputeAllUsersDaily(ctx context.Context, now time.Time) (int, error) {
	if m.RecomputeFunc != nil {
		return m.RecomputeFunc(ctx, now)
	}
	return 0, nil
}

// MockRanking
type MockRanking struct {
	RebuildMonthlyFunc  func(ctx context.Context, month time.Time) (int, error)
	RebuildWindowsFunc  func(ctx context.Context, now time.Time) (int, error)
	RebuildCalendarFunc func(ctx context.Context, period string, ref time.Time) (*models.Leaderboard, error)
}

func (m *MockRanking) RebuildMonthly(ctx context.Context, month time.Time) (int, error) {
	if m.RebuildMonthlyFunc != nil {
		return m.RebuildMonthlyFunc(ctx, month)
	}
	return 0, nil
}

func (m *MockRanking) RebuildWindowLeaderboards(ctx context.Context, now time.Time) (int, error) {
	if m.RebuildWindowsFunc != nil {
		return m.RebuildWindowsFunc(ctx, now)
	}
	return 0, nil
}

func (m *MockRanking) RebuildCalendar(ctx context.Context, period string, ref time.Time) (*models.Leaderboard, error) {
	if m.RebuildCalendarFunc != nil {
		return m.RebuildCalendarFunc(ctx, period, ref)
	}
	return &models.Leaderboard{ID: period, Entries: []models.LeaderboardEntry{}}, nil
}

// MockHistory
type MockHistory struct {
	GetUserHistoryFunc func(ctx context.Context, uid string, limit int) ([]models.SettlementRecord, error)
}

func (m *MockHistory) GetUserHistory(ctx context.Context, uid string, limit int) ([]models.SettlementRecord, error) {
	if m.GetUserHistoryFunc != nil {
		return m.GetUserHistoryFunc(ctx, uid, limit)
	}
	return nil, nil
}

// MockQueue
type MockQueue struct {
	Depth int
}

func (m *MockQueue) QueueDepth() int { return m.Depth }
