package logic

import (
	"context"
	"time"

	"github.com/yosoku/stats-engine/internal/models"
)

// Dispatcher hands per-user stats tasks to the background workers.
// Enqueue returns false when the task could not be queued.
type Dispatcher interface {
	Enqueue(task models.StatsTask) bool
}

// FinalizerService reacts to game writes.
type FinalizerService interface {
	HandleGameWrite(ctx context.Context, w models.GameWrite) (*FinalizeReport, error)
	ReplayGame(ctx context.Context, gameID string) (*FinalizeReport, error)
}

// UserStatsService maintains daily buckets and window summaries.
type UserStatsService interface {
	ApplyPostToUserStats(ctx context.Context, task models.StatsTask) (bool, error)
	RebuildWindows(ctx context.Context, uid string, now time.Time) (map[string]models.WindowStats, error)
	RecomputeAllUsersDaily(ctx context.Context, now time.Time) (int, error)
}

// TeamStatsService maintains team counters and streaks.
type TeamStatsService interface {
	UpdateTeamsForGame(ctx context.Context, g models.Game, home, away *models.TeamContext) error
}

// RankingService rebuilds leaderboards and monthly classifications.
type RankingService interface {
	RebuildMonthly(ctx context.Context, month time.Time) (int, error)
	RebuildWindowLeaderboards(ctx context.Context, now time.Time) (int, error)
	RebuildCalendar(ctx context.Context, period string, ref time.Time) (*models.Leaderboard, error)
}

// HistoryService reads the settlement archive.
type HistoryService interface {
	GetUserHistory(ctx context.Context, uid string, limit int) ([]models.SettlementRecord, error)
}
