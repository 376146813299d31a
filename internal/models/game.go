package models

import "time"

// Game is a scheduled or finished game. Scores, final flag and ranks come from
// the score feed; Market, Upset, Resolved* and FinalizedAt are written back by
// the engine.
type Game struct {
	ID           string    `json:"id" validate:"required"`
	League       League    `json:"league"`
	HomeTeamID   string    `json:"home_team_id"`
	AwayTeamID   string    `json:"away_team_id"`
	HomeTeamName string    `json:"home_team_name,omitempty"`
	AwayTeamName string    `json:"away_team_name,omitempty"`
	HomeScore    int       `json:"home_score"`
	AwayScore    int       `json:"away_score"`
	Final        bool      `json:"final"`
	HomeRank     int       `json:"home_rank,omitempty"`
	AwayRank     int       `json:"away_rank,omitempty"`
	StartAt      time.Time `json:"start_at"`

	Market       *MarketSnapshot `json:"market,omitempty"`
	Upset        *UpsetInfo      `json:"upset,omitempty"`
	ResolvedHome *int            `json:"resolved_home,omitempty"`
	ResolvedAway *int            `json:"resolved_away,omitempty"`
	FinalizedAt  *time.Time      `json:"finalized_at,omitempty"`
}

// Winner returns the actual result side of the game.
func (g *Game) Winner() Side {
	return ResultSide(g.HomeScore, g.AwayScore)
}

// Margin is the absolute point/goal difference.
func (g *Game) Margin() int {
	d := g.HomeScore - g.AwayScore
	if d < 0 {
		return -d
	}
	return d
}

// GameWrite is one write to a game record as delivered by the trigger
// infrastructure. Before is nil when the record was created.
type GameWrite struct {
	Before *Game `json:"before,omitempty"`
	After  *Game `json:"after" validate:"required"`
}

// MarketSnapshot is the majority pick among all tickets linked to a game.
type MarketSnapshot struct {
	HomeCount     int     `json:"home_count"`
	AwayCount     int     `json:"away_count"`
	DrawCount     int     `json:"draw_count"`
	Total         int     `json:"total"`
	MajoritySide  Side    `json:"majority_side"`
	MajorityCount int     `json:"majority_count"`
	MajorityRatio float64 `json:"majority_ratio"`
}

// UpsetInfo is the upset metadata written back on finalization.
type UpsetInfo struct {
	IsUpset      bool `json:"is_upset"`
	Winner       Side `json:"winner"`
	MajoritySide Side `json:"majority_side"`
	WinDiff      int  `json:"win_diff"`
}

// GameDerived is the set of engine-owned fields written back to a game.
type GameDerived struct {
	Market       MarketSnapshot
	Upset        UpsetInfo
	ResolvedHome int
	ResolvedAway int
	FinalizedAt  *time.Time
}
