// Package store defines the repositories the engine reads and writes.
// PostgreSQL is the source of truth, Redis fronts the hot read paths, and the
// in-memory implementation backs tests and local development.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/yosoku/stats-engine/internal/models"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("not found")

// GameRepo reads games and writes the engine-owned derived fields.
type GameRepo interface {
	GetGame(ctx context.Context, id string) (*models.Game, error)
	UpdateGameDerived(ctx context.Context, id string, d models.GameDerived) error
}

// TicketRepo reads tickets and commits settlements.
type TicketRepo interface {
	GetTicket(ctx context.Context, id string) (*models.Ticket, error)

	// ListTicketsByGame returns tickets linked by either foreign-key shape
	// (game_id or the legacy match_id).
	ListTicketsByGame(ctx context.Context, gameID string) ([]models.Ticket, error)

	// CommitSettlements writes every settlement atomically. Tickets that are
	// already settled are left untouched.
	CommitSettlements(ctx context.Context, gameID string, settlements []models.TicketSettlement) error

	// ListSettledTickets returns settled tickets created in [from, to).
	ListSettledTickets(ctx context.Context, from, to time.Time) ([]models.Ticket, error)
}

// TeamRepo reads team context and writes team statistics.
type TeamRepo interface {
	GetTeam(ctx context.Context, id string) (*models.TeamStats, error)

	// IncrementTeamCounters adds delta to the team's counters once per
	// (game, team). It returns false when the game was already counted.
	IncrementTeamCounters(ctx context.Context, gameID, teamID string, delta map[string]int64) (bool, error)

	// UpdateTeamStreak runs fn on the team document inside a transaction and
	// persists it when fn returns true.
	UpdateTeamStreak(ctx context.Context, teamID string, fn func(*models.TeamStats) bool) error
}

// StatsRepo holds daily buckets, summaries and monthly snapshots.
type StatsRepo interface {
	// ApplyDaily folds a settled ticket into its daily bucket and advances
	// the user's streak in one transaction. It returns false when the
	// ticket's marker already exists.
	ApplyDaily(ctx context.Context, task models.StatsTask) (bool, error)

	ListDailyByKeys(ctx context.Context, keys []string) ([]models.DailyBucket, error)
	ListDailyByUser(ctx context.Context, uid string) ([]models.DailyBucket, error)
	// ListDailyBetween returns every user's buckets with fromDate <= date <= toDate.
	ListDailyBetween(ctx context.Context, fromDate, toDate string) ([]models.DailyBucket, error)
	ListUIDs(ctx context.Context) ([]string, error)

	GetSummary(ctx context.Context, uid string) (*models.UserSummary, error)
	// PutWindows replaces the derived windows; streak fields are untouched.
	PutWindows(ctx context.Context, uid string, windows map[string]models.WindowStats, at time.Time) error

	PutMonthly(ctx context.Context, stats []models.MonthlyUserStats) error
	GetMonthly(ctx context.Context, key string) (*models.MonthlyUserStats, error)
}

// LeaderboardRepo stores ranking snapshots.
type LeaderboardRepo interface {
	PutLeaderboard(ctx context.Context, lb models.Leaderboard) error
	GetLeaderboard(ctx context.Context, id string) (*models.Leaderboard, error)
}

// TrendMarker flags games whose trend ranking needs a rebuild.
type TrendMarker interface {
	MarkTrendDirty(ctx context.Context, gameID string) error
}

// IngestRepo accepts source records from the score feed and clients.
// Feed writes never overwrite engine-owned fields.
type IngestRepo interface {
	UpsertGame(ctx context.Context, g models.Game) error
	UpsertTicket(ctx context.Context, t models.Ticket) error
	UpsertTeam(ctx context.Context, t models.TeamStats) error
}

// Store is the full persistence surface.
type Store interface {
	IngestRepo
	GameRepo
	TicketRepo
	TeamRepo
	StatsRepo
	LeaderboardRepo
}
