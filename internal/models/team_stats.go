package models

import "time"

// MaxLastGames caps the per-team ring buffer.
const MaxLastGames = 10

// TeamStats is the per-team document: context read by the finalizer plus
// counters and streak state written by the team stats updater.
type TeamStats struct {
	TeamID     string `json:"team_id"`
	Name       string `json:"name"`
	ShortName  string `json:"short_name,omitempty"`
	Conference string `json:"conference,omitempty"`
	Rank       int    `json:"rank,omitempty"`
	Wins       int    `json:"wins"`

	Counters      map[string]int64 `json:"counters,omitempty"`
	LastGames     []TeamGameEntry  `json:"last_games,omitempty"`
	CurrentStreak int              `json:"current_streak"`
	BackToBack    bool             `json:"back_to_back"`
}

// TeamGameEntry is one element of the last-games ring buffer.
type TeamGameEntry struct {
	GameID     string    `json:"game_id"`
	OpponentID string    `json:"opponent_id"`
	PlayedAt   time.Time `json:"played_at"`
	Result     Outcome   `json:"result"` // hit = win, miss = loss, void = draw
	Home       bool      `json:"home"`
	BackToBack bool      `json:"back_to_back"`
}

// TeamContext is the subset of team data the finalizer needs.
type TeamContext struct {
	TeamID     string
	Name       string
	ShortName  string
	Conference string
	Rank       int
	Wins       int
}

// Context extracts the finalizer's view of a team document.
func (t *TeamStats) Context() TeamContext {
	return TeamContext{
		TeamID:     t.TeamID,
		Name:       t.Name,
		ShortName:  t.ShortName,
		Conference: t.Conference,
		Rank:       t.Rank,
		Wins:       t.Wins,
	}
}
