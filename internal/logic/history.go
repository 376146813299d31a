package logic

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/yosoku/stats-engine/internal/models"
)

// SettlementArchiveSchema creates the ClickHouse archive table. ReplacingMergeTree
// collapses replays of the same ticket, which share an id.
const SettlementArchiveSchema = `
CREATE TABLE IF NOT EXISTS ticket_settlements (
	id         UUID,
	uid        String,
	ticket_id  String,
	game_id    String,
	league     LowCardinality(String),
	date_key   String,
	settlement LowCardinality(String),
	payout     Float64,
	used_odds  Float64,
	brier      Float64,
	precision  Float64,
	settled_at DateTime64(3)
) ENGINE = ReplacingMergeTree
ORDER BY (uid, settled_at, id)`

const defaultHistoryLimit = 50

type historyService struct {
	ch driver.Conn
}

// NewHistoryService creates the settlement history reader.
func NewHistoryService(ch driver.Conn) HistoryService {
	return &historyService{ch: ch}
}

// GetUserHistory returns a user's most recent settlements, newest first.
func (s *historyService) GetUserHistory(ctx context.Context, uid string, limit int) ([]models.SettlementRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = defaultHistoryLimit
	}

	query := `
		SELECT
			toString(id), uid, ticket_id, game_id, league, date_key, settlement,
			payout, used_odds, brier, precision, settled_at
		FROM ticket_settlements FINAL
		WHERE uid = ?
		ORDER BY settled_at DESC
		LIMIT ?
	`
	rows, err := s.ch.Query(ctx, query, uid, limit)
	if err != nil {
		return nil, fmt.Errorf("history query failed: %w", err)
	}
	defer rows.Close()

	var out []models.SettlementRecord
	for rows.Next() {
		var r models.SettlementRecord
		if err := rows.Scan(&r.ID, &r.UID, &r.TicketID, &r.GameID, &r.League, &r.DateKey, &r.Settlement,
			&r.Payout, &r.UsedOdds, &r.Brier, &r.Precision, &r.SettledAt); err != nil {
			return nil, fmt.Errorf("history scan failed: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
