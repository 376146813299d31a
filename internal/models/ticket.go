package models

import "time"

// LegKind orders the legs of a ticket.
type LegKind string

const (
	LegMain      LegKind = "main"
	LegSecondary LegKind = "secondary"
	LegTertiary  LegKind = "tertiary"
)

// Outcome is the judged result of a single leg or a whole ticket.
type Outcome string

const (
	OutcomeHit  Outcome = "hit"
	OutcomeMiss Outcome = "miss"
	OutcomeVoid Outcome = "void"
)

// Leg is one selectable outcome within a ticket.
type Leg struct {
	Kind     LegKind `json:"kind"`
	OptionID string  `json:"option_id,omitempty"`
	Label    string  `json:"label,omitempty"`
	Odds     float64 `json:"odds"`
	Pct      float64 `json:"pct"`
	Outcome  Outcome `json:"outcome,omitempty"`
}

// Pick is the winner pick (and optional exact score) a ticket carries.
type Pick struct {
	Winner    Side `json:"winner"`
	ScoreHome *int `json:"score_home,omitempty"`
	ScoreAway *int `json:"score_away,omitempty"`
}

// HasScore reports whether an exact score was predicted.
func (p Pick) HasScore() bool {
	return p.ScoreHome != nil && p.ScoreAway != nil
}

// Ticket is a user's multi-leg prediction for one game.
type Ticket struct {
	ID            string    `json:"id" validate:"required"`
	AuthorID      string    `json:"author_id" validate:"required"`
	GameID        string    `json:"game_id,omitempty" validate:"required_without=LegacyGameRef"`
	LegacyGameRef string    `json:"match_id,omitempty"`
	League        string    `json:"league,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	Confidence    int       `json:"confidence" validate:"gte=0,lte=100"`
	Pick          Pick      `json:"pick"`
	Legs          []Leg     `json:"legs" validate:"max=3"`

	Settlement Outcome    `json:"settlement,omitempty"`
	ResultUnit float64    `json:"result_units"`
	UsedOdds   float64    `json:"used_odds,omitempty"`
	SettledAt  *time.Time `json:"settled_at,omitempty"`
}

// ClampConfidence keeps a confidence value in 1..99.
func ClampConfidence(c int) int {
	if c < 1 {
		return 1
	}
	if c > 99 {
		return 99
	}
	return c
}

// TicketSettlement is the write-back for one ticket in the settlement batch.
type TicketSettlement struct {
	TicketID   string
	Legs       []Leg
	Settlement Outcome
	ResultUnit float64
	UsedOdds   float64
	SettledAt  time.Time
}
