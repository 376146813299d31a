package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yosoku/stats-engine/internal/models"
)

// maxTxAttempts bounds retries of serialization failures and deadlocks.
const maxTxAttempts = 5

// PostgresStore implements Store on PostgreSQL. Nested documents (legs,
// buckets, windows, leaderboards) are stored as JSONB.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the tables and the game-write notify trigger.
func (s *PostgresStore) Migrate(ctx context.Context, notifyChannel string) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := s.pool.Exec(ctx, notifyStatement(notifyChannel)); err != nil {
		return fmt.Errorf("create notify trigger: %w", err)
	}
	return nil
}

// Ping checks connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && (pgErr.Code == "40001" || pgErr.Code == "40P01")
}

// inTx runs fn in a serializable transaction, retrying on contention.
func (s *PostgresStore) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{IsoLevel: pgx.Serializable}, fn)
		if err == nil || !isRetryable(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt*20) * time.Millisecond):
		}
	}
	return fmt.Errorf("transaction failed after %d attempts: %w", maxTxAttempts, err)
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// ---------------------------------------------------------------------------
// Games
// ---------------------------------------------------------------------------

const gameColumns = `id, league, home_team_id, away_team_id, home_team_name, away_team_name,
	home_score, away_score, final, home_rank, away_rank, start_at,
	market, upset, resolved_home, resolved_away, finalized_at`

func (s *PostgresStore) UpsertGame(ctx context.Context, g models.Game) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO games (id, league, home_team_id, away_team_id, home_team_name, away_team_name,
		                    home_score, away_score, final, home_rank, away_rank, start_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (id) DO UPDATE SET
		     league = EXCLUDED.league,
		     home_team_id = EXCLUDED.home_team_id,
		     away_team_id = EXCLUDED.away_team_id,
		     home_team_name = EXCLUDED.home_team_name,
		     away_team_name = EXCLUDED.away_team_name,
		     home_score = EXCLUDED.home_score,
		     away_score = EXCLUDED.away_score,
		     final = EXCLUDED.final,
		     home_rank = EXCLUDED.home_rank,
		     away_rank = EXCLUDED.away_rank,
		     start_at = EXCLUDED.start_at`,
		g.ID, string(g.League), g.HomeTeamID, g.AwayTeamID, g.HomeTeamName, g.AwayTeamName,
		g.HomeScore, g.AwayScore, g.Final, g.HomeRank, g.AwayRank, g.StartAt,
	)
	if err != nil {
		return fmt.Errorf("upsert game %s: %w", g.ID, err)
	}
	return nil
}

func (s *PostgresStore) GetGame(ctx context.Context, id string) (*models.Game, error) {
	var (
		g             models.Game
		league        string
		market, upset []byte
	)
	err := s.pool.QueryRow(ctx, `SELECT `+gameColumns+` FROM games WHERE id = $1`, id).
		Scan(&g.ID, &league, &g.HomeTeamID, &g.AwayTeamID, &g.HomeTeamName, &g.AwayTeamName,
			&g.HomeScore, &g.AwayScore, &g.Final, &g.HomeRank, &g.AwayRank, &g.StartAt,
			&market, &upset, &g.ResolvedHome, &g.ResolvedAway, &g.FinalizedAt)
	if err != nil {
		return nil, fmt.Errorf("get game %s: %w", id, notFound(err))
	}
	g.League = models.NormalizeLeague(league)
	if len(market) > 0 {
		g.Market = &models.MarketSnapshot{}
		if err := json.Unmarshal(market, g.Market); err != nil {
			return nil, fmt.Errorf("decode market for game %s: %w", id, err)
		}
	}
	if len(upset) > 0 {
		g.Upset = &models.UpsetInfo{}
		if err := json.Unmarshal(upset, g.Upset); err != nil {
			return nil, fmt.Errorf("decode upset for game %s: %w", id, err)
		}
	}
	return &g, nil
}

func (s *PostgresStore) UpdateGameDerived(ctx context.Context, id string, d models.GameDerived) error {
	market, err := json.Marshal(d.Market)
	if err != nil {
		return err
	}
	upset, err := json.Marshal(d.Upset)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE games
		 SET market = $2::JSONB, upset = $3::JSONB,
		     resolved_home = $4, resolved_away = $5,
		     finalized_at = COALESCE(finalized_at, $6)
		 WHERE id = $1`,
		id, market, upset, d.ResolvedHome, d.ResolvedAway, d.FinalizedAt,
	)
	if err != nil {
		return fmt.Errorf("update derived fields of game %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ---------------------------------------------------------------------------
// Tickets
// ---------------------------------------------------------------------------

const ticketColumns = `id, author_id, game_id, match_id, league, created_at, confidence,
	pick, legs, settlement, result_units, used_odds, settled_at`

func scanTicket(row pgx.Row) (models.Ticket, error) {
	var (
		t          models.Ticket
		pick, legs []byte
		settlement string
	)
	if err := row.Scan(&t.ID, &t.AuthorID, &t.GameID, &t.LegacyGameRef, &t.League, &t.CreatedAt,
		&t.Confidence, &pick, &legs, &settlement, &t.ResultUnit, &t.UsedOdds, &t.SettledAt); err != nil {
		return t, err
	}
	t.Settlement = models.Outcome(settlement)
	if len(pick) > 0 {
		if err := json.Unmarshal(pick, &t.Pick); err != nil {
			return t, fmt.Errorf("decode pick of ticket %s: %w", t.ID, err)
		}
	}
	if len(legs) > 0 {
		if err := json.Unmarshal(legs, &t.Legs); err != nil {
			return t, fmt.Errorf("decode legs of ticket %s: %w", t.ID, err)
		}
	}
	return t, nil
}

func collectTickets(rows pgx.Rows) ([]models.Ticket, error) {
	defer rows.Close()
	var out []models.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpsertTicket(ctx context.Context, t models.Ticket) error {
	pick, err := json.Marshal(t.Pick)
	if err != nil {
		return err
	}
	legs, err := json.Marshal(t.Legs)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO posts (id, author_id, game_id, match_id, league, created_at, confidence, pick, legs)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8::JSONB, $9::JSONB)
		 ON CONFLICT (id) DO UPDATE SET
		     confidence = EXCLUDED.confidence,
		     pick = EXCLUDED.pick,
		     legs = EXCLUDED.legs
		 WHERE posts.settled_at IS NULL`,
		t.ID, t.AuthorID, t.GameID, t.LegacyGameRef, t.League, t.CreatedAt, t.Confidence, pick, legs,
	)
	if err != nil {
		return fmt.Errorf("upsert ticket %s: %w", t.ID, err)
	}
	return nil
}

func (s *PostgresStore) GetTicket(ctx context.Context, id string) (*models.Ticket, error) {
	t, err := scanTicket(s.pool.QueryRow(ctx, `SELECT `+ticketColumns+` FROM posts WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get ticket %s: %w", id, notFound(err))
	}
	return &t, nil
}

func (s *PostgresStore) ListTicketsByGame(ctx context.Context, gameID string) ([]models.Ticket, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+ticketColumns+` FROM posts
		 WHERE game_id = $1 OR (game_id = '' AND match_id = $1)
		 ORDER BY id`, gameID)
	if err != nil {
		return nil, fmt.Errorf("list tickets of game %s: %w", gameID, err)
	}
	return collectTickets(rows)
}

func (s *PostgresStore) CommitSettlements(ctx context.Context, gameID string, settlements []models.TicketSettlement) error {
	if len(settlements) == 0 {
		return nil
	}
	legs := make([][]byte, len(settlements))
	for i, st := range settlements {
		doc, err := json.Marshal(st.Legs)
		if err != nil {
			return fmt.Errorf("encode legs of ticket %s: %w", st.TicketID, err)
		}
		legs[i] = doc
	}
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for i, st := range settlements {
			batch.Queue(
				`UPDATE posts
				 SET legs = $2::JSONB, settlement = $3, result_units = $4, used_odds = $5, settled_at = $6
				 WHERE id = $1 AND settled_at IS NULL`,
				st.TicketID, legs[i], string(st.Settlement), st.ResultUnit, st.UsedOdds, st.SettledAt,
			)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return fmt.Errorf("commit settlements of game %s: %w", gameID, err)
	}
	return nil
}

func (s *PostgresStore) ListSettledTickets(ctx context.Context, from, to time.Time) ([]models.Ticket, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+ticketColumns+` FROM posts
		 WHERE settled_at IS NOT NULL AND created_at >= $1 AND created_at < $2
		 ORDER BY created_at, id`, from, to)
	if err != nil {
		return nil, fmt.Errorf("list settled tickets: %w", err)
	}
	return collectTickets(rows)
}

// ---------------------------------------------------------------------------
// Teams
// ---------------------------------------------------------------------------

func (s *PostgresStore) UpsertTeam(ctx context.Context, t models.TeamStats) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO teams (team_id, name, short_name, conference, rank, wins)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (team_id) DO UPDATE SET
		     name = EXCLUDED.name,
		     short_name = EXCLUDED.short_name,
		     conference = EXCLUDED.conference,
		     rank = EXCLUDED.rank,
		     wins = EXCLUDED.wins`,
		t.TeamID, t.Name, t.ShortName, t.Conference, t.Rank, t.Wins,
	)
	if err != nil {
		return fmt.Errorf("upsert team %s: %w", t.TeamID, err)
	}
	return nil
}

type queryer interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func loadTeam(ctx context.Context, q queryer, id string, forUpdate bool) (*models.TeamStats, error) {
	sql := `SELECT team_id, name, short_name, conference, rank, wins, last_games, current_streak, back_to_back
	        FROM teams WHERE team_id = $1`
	if forUpdate {
		sql += ` FOR UPDATE`
	}
	var (
		t    models.TeamStats
		last []byte
	)
	err := q.QueryRow(ctx, sql, id).Scan(&t.TeamID, &t.Name, &t.ShortName, &t.Conference,
		&t.Rank, &t.Wins, &last, &t.CurrentStreak, &t.BackToBack)
	if err != nil {
		return nil, notFound(err)
	}
	if len(last) > 0 {
		if err := json.Unmarshal(last, &t.LastGames); err != nil {
			return nil, fmt.Errorf("decode last games of team %s: %w", id, err)
		}
	}
	return &t, nil
}

func (s *PostgresStore) GetTeam(ctx context.Context, id string) (*models.TeamStats, error) {
	t, err := loadTeam(ctx, s.pool, id, false)
	if err != nil {
		return nil, fmt.Errorf("get team %s: %w", id, err)
	}
	rows, err := s.pool.Query(ctx, `SELECT counter, value FROM team_counters WHERE team_id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get counters of team %s: %w", id, err)
	}
	defer rows.Close()
	t.Counters = make(map[string]int64)
	for rows.Next() {
		var (
			name  string
			value int64
		)
		if err := rows.Scan(&name, &value); err != nil {
			return nil, err
		}
		t.Counters[name] = value
	}
	return t, rows.Err()
}

func (s *PostgresStore) IncrementTeamCounters(ctx context.Context, gameID, teamID string, delta map[string]int64) (bool, error) {
	var applied bool
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		applied = false
		tag, err := tx.Exec(ctx,
			`INSERT INTO team_counter_applied (game_id, team_id) VALUES ($1, $2)
			 ON CONFLICT DO NOTHING`, gameID, teamID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return nil
		}
		batch := &pgx.Batch{}
		for name, v := range delta {
			batch.Queue(
				`INSERT INTO team_counters (team_id, counter, value) VALUES ($1, $2, $3)
				 ON CONFLICT (team_id, counter) DO UPDATE SET value = team_counters.value + EXCLUDED.value`,
				teamID, name, v)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return err
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("increment counters of team %s for game %s: %w", teamID, gameID, err)
	}
	return applied, nil
}

func (s *PostgresStore) UpdateTeamStreak(ctx context.Context, teamID string, fn func(*models.TeamStats) bool) error {
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		t, err := loadTeam(ctx, tx, teamID, true)
		if errors.Is(err, ErrNotFound) {
			t = &models.TeamStats{TeamID: teamID}
		} else if err != nil {
			return err
		}
		if !fn(t) {
			return nil
		}
		last, err := json.Marshal(t.LastGames)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO teams (team_id, last_games, current_streak, back_to_back)
			 VALUES ($1, $2::JSONB, $3, $4)
			 ON CONFLICT (team_id) DO UPDATE SET
			     last_games = EXCLUDED.last_games,
			     current_streak = EXCLUDED.current_streak,
			     back_to_back = EXCLUDED.back_to_back`,
			teamID, last, t.CurrentStreak, t.BackToBack)
		return err
	})
	if err != nil {
		return fmt.Errorf("update streak of team %s: %w", teamID, err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// User stats
// ---------------------------------------------------------------------------

func (s *PostgresStore) ApplyDaily(ctx context.Context, task models.StatsTask) (bool, error) {
	key := models.DailyKey(task.UID, task.DateKey)
	var applied bool
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		applied = false
		tag, err := tx.Exec(ctx,
			`INSERT INTO user_stats_v2_applied_posts (daily_key, post_id, applied_at) VALUES ($1, $2, $3)
			 ON CONFLICT DO NOTHING`, key, task.TicketID, task.SettledAt)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return nil
		}

		bucket := models.DailyBucket{Key: key, UID: task.UID, Date: task.DateKey}
		var doc []byte
		err = tx.QueryRow(ctx, `SELECT doc FROM user_stats_v2_daily WHERE key = $1 FOR UPDATE`, key).Scan(&doc)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
		case err != nil:
			return err
		default:
			if err := json.Unmarshal(doc, &bucket); err != nil {
				return fmt.Errorf("decode daily bucket %s: %w", key, err)
			}
		}
		bucket.Apply(task.League, task.Delta)
		if doc, err = json.Marshal(bucket); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO user_stats_v2_daily (key, uid, date, doc) VALUES ($1, $2, $3, $4::JSONB)
			 ON CONFLICT (key) DO UPDATE SET doc = EXCLUDED.doc`,
			key, task.UID, task.DateKey, doc); err != nil {
			return err
		}

		var current, best int
		err = tx.QueryRow(ctx,
			`SELECT current_streak, max_streak FROM user_stats_v2 WHERE uid = $1 FOR UPDATE`, task.UID).
			Scan(&current, &best)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return err
		}
		current = models.ApplyStreak(current, task.Settlement)
		if current > best {
			best = current
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO user_stats_v2 (uid, current_streak, max_streak) VALUES ($1, $2, $3)
			 ON CONFLICT (uid) DO UPDATE SET current_streak = EXCLUDED.current_streak, max_streak = EXCLUDED.max_streak`,
			task.UID, current, best); err != nil {
			return err
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("apply ticket %s to %s: %w", task.TicketID, key, err)
	}
	return applied, nil
}

func collectBuckets(rows pgx.Rows) ([]models.DailyBucket, error) {
	defer rows.Close()
	var out []models.DailyBucket
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var b models.DailyBucket
		if err := json.Unmarshal(doc, &b); err != nil {
			return nil, fmt.Errorf("decode daily bucket: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ListDailyByKeys(ctx context.Context, keys []string) ([]models.DailyBucket, error) {
	rows, err := s.pool.Query(ctx, `SELECT doc FROM user_stats_v2_daily WHERE key = ANY($1) ORDER BY date`, keys)
	if err != nil {
		return nil, fmt.Errorf("list daily buckets by key: %w", err)
	}
	return collectBuckets(rows)
}

func (s *PostgresStore) ListDailyByUser(ctx context.Context, uid string) ([]models.DailyBucket, error) {
	rows, err := s.pool.Query(ctx, `SELECT doc FROM user_stats_v2_daily WHERE uid = $1 ORDER BY date`, uid)
	if err != nil {
		return nil, fmt.Errorf("list daily buckets of %s: %w", uid, err)
	}
	return collectBuckets(rows)
}

func (s *PostgresStore) ListDailyBetween(ctx context.Context, fromDate, toDate string) ([]models.DailyBucket, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT doc FROM user_stats_v2_daily WHERE date BETWEEN $1 AND $2 ORDER BY date, uid`, fromDate, toDate)
	if err != nil {
		return nil, fmt.Errorf("list daily buckets %s..%s: %w", fromDate, toDate, err)
	}
	return collectBuckets(rows)
}

func (s *PostgresStore) ListUIDs(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT uid FROM user_stats_v2_daily ORDER BY uid`)
	if err != nil {
		return nil, fmt.Errorf("list uids: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var uid string
		if err := rows.Scan(&uid); err != nil {
			return nil, err
		}
		out = append(out, uid)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetSummary(ctx context.Context, uid string) (*models.UserSummary, error) {
	var (
		sum     models.UserSummary
		windows []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT uid, windows, current_streak, max_streak, updated_at FROM user_stats_v2 WHERE uid = $1`, uid).
		Scan(&sum.UID, &windows, &sum.CurrentStreak, &sum.MaxStreak, &sum.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get summary of %s: %w", uid, notFound(err))
	}
	if len(windows) > 0 {
		if err := json.Unmarshal(windows, &sum.Windows); err != nil {
			return nil, fmt.Errorf("decode windows of %s: %w", uid, err)
		}
	}
	return &sum, nil
}

func (s *PostgresStore) PutWindows(ctx context.Context, uid string, windows map[string]models.WindowStats, at time.Time) error {
	doc, err := json.Marshal(windows)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO user_stats_v2 (uid, windows, updated_at) VALUES ($1, $2::JSONB, $3)
		 ON CONFLICT (uid) DO UPDATE SET windows = EXCLUDED.windows, updated_at = EXCLUDED.updated_at`,
		uid, doc, at)
	if err != nil {
		return fmt.Errorf("put windows of %s: %w", uid, err)
	}
	return nil
}

func (s *PostgresStore) PutMonthly(ctx context.Context, stats []models.MonthlyUserStats) error {
	batch := &pgx.Batch{}
	for _, st := range stats {
		doc, err := json.Marshal(st)
		if err != nil {
			return err
		}
		batch.Queue(
			`INSERT INTO user_stats_v2_monthly (key, uid, month, doc) VALUES ($1, $2, $3, $4::JSONB)
			 ON CONFLICT (key) DO UPDATE SET doc = EXCLUDED.doc`,
			st.Key, st.UID, st.Month, doc)
	}
	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("put monthly stats: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetMonthly(ctx context.Context, key string) (*models.MonthlyUserStats, error) {
	var doc []byte
	if err := s.pool.QueryRow(ctx, `SELECT doc FROM user_stats_v2_monthly WHERE key = $1`, key).Scan(&doc); err != nil {
		return nil, fmt.Errorf("get monthly stats %s: %w", key, notFound(err))
	}
	var st models.MonthlyUserStats
	if err := json.Unmarshal(doc, &st); err != nil {
		return nil, fmt.Errorf("decode monthly stats %s: %w", key, err)
	}
	return &st, nil
}

// ---------------------------------------------------------------------------
// Leaderboards
// ---------------------------------------------------------------------------

func leaderboardTable(kind string) string {
	if kind == models.BoardCalendar {
		return "leaderboards_calendar"
	}
	return "leaderboards_v2"
}

func (s *PostgresStore) PutLeaderboard(ctx context.Context, lb models.Leaderboard) error {
	doc, err := json.Marshal(lb)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO `+leaderboardTable(lb.Kind)+` (id, kind, doc, built_at) VALUES ($1, $2, $3::JSONB, $4)
		 ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc, built_at = EXCLUDED.built_at`,
		lb.ID, lb.Kind, doc, lb.BuiltAt)
	if err != nil {
		return fmt.Errorf("put leaderboard %s: %w", lb.ID, err)
	}
	return nil
}

func (s *PostgresStore) GetLeaderboard(ctx context.Context, id string) (*models.Leaderboard, error) {
	var doc []byte
	err := s.pool.QueryRow(ctx,
		`SELECT doc FROM leaderboards_v2 WHERE id = $1
		 UNION ALL
		 SELECT doc FROM leaderboards_calendar WHERE id = $1
		 LIMIT 1`, id).Scan(&doc)
	if err != nil {
		return nil, fmt.Errorf("get leaderboard %s: %w", id, notFound(err))
	}
	var lb models.Leaderboard
	if err := json.Unmarshal(doc, &lb); err != nil {
		return nil, fmt.Errorf("decode leaderboard %s: %w", id, err)
	}
	return &lb, nil
}
