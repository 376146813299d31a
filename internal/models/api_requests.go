package models

// TeamRequest is the body of PUT /teams/{id}.
type TeamRequest struct {
	Name       string `json:"name" validate:"required"`
	ShortName  string `json:"short_name"`
	Conference string `json:"conference"`
	Rank       int    `json:"rank" validate:"gte=0"`
	Wins       int    `json:"wins" validate:"gte=0"`
}

// TicketBatchRequest is the body of POST /tickets.
type TicketBatchRequest struct {
	Tickets []Ticket `json:"tickets" validate:"required,min=1,max=500,dive"`
}

// TicketBatchResponse reports how many tickets were stored.
type TicketBatchResponse struct {
	Stored int `json:"stored"`
}

// JobResponse reports an on-demand job run.
type JobResponse struct {
	Job        string `json:"job"`
	Count      int    `json:"count"`
	BoardID    string `json:"board_id,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

// HistoryResponse wraps a user's archived settlements.
type HistoryResponse struct {
	UID     string             `json:"uid"`
	Entries []SettlementRecord `json:"entries"`
}
