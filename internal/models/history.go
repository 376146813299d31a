package models

import "time"

// SettlementRecord is one archived stats application, kept for per-user
// history queries.
type SettlementRecord struct {
	ID         string    `json:"id" ch:"id"`
	UID        string    `json:"uid" ch:"uid"`
	TicketID   string    `json:"ticket_id" ch:"ticket_id"`
	GameID     string    `json:"game_id" ch:"game_id"`
	League     string    `json:"league" ch:"league"`
	DateKey    string    `json:"date_key" ch:"date_key"`
	Settlement string    `json:"settlement" ch:"settlement"`
	Payout     float64   `json:"payout" ch:"payout"`
	UsedOdds   float64   `json:"used_odds" ch:"used_odds"`
	Brier      float64   `json:"brier" ch:"brier"`
	Precision  float64   `json:"precision" ch:"precision"`
	SettledAt  time.Time `json:"settled_at" ch:"settled_at"`
}

// NewSettlementRecord flattens a stats task for the archive. id must be
// stable per ticket so replays collapse in the archive.
func NewSettlementRecord(id string, task StatsTask) SettlementRecord {
	return SettlementRecord{
		ID:         id,
		UID:        task.UID,
		TicketID:   task.TicketID,
		GameID:     task.GameID,
		League:     string(task.League),
		DateKey:    task.DateKey,
		Settlement: string(task.Settlement),
		Payout:     task.Payout,
		UsedOdds:   task.UsedOdds,
		Brier:      task.Delta.BrierSum,
		Precision:  task.Delta.PrecisionSum,
		SettledAt:  task.SettledAt,
	}
}
