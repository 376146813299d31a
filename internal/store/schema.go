package store

import (
	"fmt"
	"strings"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS games (
	id             TEXT PRIMARY KEY,
	league         TEXT NOT NULL DEFAULT '',
	home_team_id   TEXT NOT NULL DEFAULT '',
	away_team_id   TEXT NOT NULL DEFAULT '',
	home_team_name TEXT NOT NULL DEFAULT '',
	away_team_name TEXT NOT NULL DEFAULT '',
	home_score     INTEGER NOT NULL DEFAULT 0,
	away_score     INTEGER NOT NULL DEFAULT 0,
	final          BOOLEAN NOT NULL DEFAULT FALSE,
	home_rank      INTEGER NOT NULL DEFAULT 0,
	away_rank      INTEGER NOT NULL DEFAULT 0,
	start_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	market         JSONB,
	upset          JSONB,
	resolved_home  INTEGER,
	resolved_away  INTEGER,
	finalized_at   TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS posts (
	id           TEXT PRIMARY KEY,
	author_id    TEXT NOT NULL,
	game_id      TEXT NOT NULL DEFAULT '',
	match_id     TEXT NOT NULL DEFAULT '',
	league       TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMPTZ NOT NULL,
	confidence   INTEGER NOT NULL DEFAULT 50,
	pick         JSONB NOT NULL DEFAULT '{}',
	legs         JSONB NOT NULL DEFAULT '[]',
	settlement   TEXT NOT NULL DEFAULT '',
	result_units DOUBLE PRECISION NOT NULL DEFAULT 0,
	used_odds    DOUBLE PRECISION NOT NULL DEFAULT 0,
	settled_at   TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS posts_game_id_idx ON posts (game_id);
CREATE INDEX IF NOT EXISTS posts_match_id_idx ON posts (match_id);
CREATE INDEX IF NOT EXISTS posts_created_at_idx ON posts (created_at) WHERE settled_at IS NOT NULL;

CREATE TABLE IF NOT EXISTS teams (
	team_id        TEXT PRIMARY KEY,
	name           TEXT NOT NULL DEFAULT '',
	short_name     TEXT NOT NULL DEFAULT '',
	conference     TEXT NOT NULL DEFAULT '',
	rank           INTEGER NOT NULL DEFAULT 0,
	wins           INTEGER NOT NULL DEFAULT 0,
	last_games     JSONB NOT NULL DEFAULT '[]',
	current_streak INTEGER NOT NULL DEFAULT 0,
	back_to_back   BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS team_counters (
	team_id TEXT NOT NULL,
	counter TEXT NOT NULL,
	value   BIGINT NOT NULL DEFAULT 0,
	PRIMARY KEY (team_id, counter)
);

CREATE TABLE IF NOT EXISTS team_counter_applied (
	game_id    TEXT NOT NULL,
	team_id    TEXT NOT NULL,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (game_id, team_id)
);

CREATE TABLE IF NOT EXISTS user_stats_v2_daily (
	key  TEXT PRIMARY KEY,
	uid  TEXT NOT NULL,
	date TEXT NOT NULL,
	doc  JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS user_stats_v2_daily_uid_idx ON user_stats_v2_daily (uid);
CREATE INDEX IF NOT EXISTS user_stats_v2_daily_date_idx ON user_stats_v2_daily (date);

CREATE TABLE IF NOT EXISTS user_stats_v2_applied_posts (
	daily_key  TEXT NOT NULL,
	post_id    TEXT NOT NULL,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (daily_key, post_id)
);

CREATE TABLE IF NOT EXISTS user_stats_v2 (
	uid            TEXT PRIMARY KEY,
	windows        JSONB NOT NULL DEFAULT '{}',
	current_streak INTEGER NOT NULL DEFAULT 0,
	max_streak     INTEGER NOT NULL DEFAULT 0,
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS user_stats_v2_monthly (
	key   TEXT PRIMARY KEY,
	uid   TEXT NOT NULL,
	month TEXT NOT NULL,
	doc   JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS leaderboards_v2 (
	id       TEXT PRIMARY KEY,
	kind     TEXT NOT NULL,
	doc      JSONB NOT NULL,
	built_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS leaderboards_calendar (
	id       TEXT PRIMARY KEY,
	kind     TEXT NOT NULL,
	doc      JSONB NOT NULL,
	built_at TIMESTAMPTZ NOT NULL
);
`

// notifySQL publishes every game write as {"before": ..., "after": ...} on
// the given channel.
const notifySQL = `
CREATE OR REPLACE FUNCTION notify_game_write() RETURNS trigger AS $$
BEGIN
	PERFORM pg_notify(%s, json_build_object(
		'before', CASE WHEN TG_OP = 'UPDATE' THEN row_to_json(OLD) END,
		'after',  row_to_json(NEW)
	)::text);
	RETURN NEW;
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS games_notify_write ON games;
CREATE TRIGGER games_notify_write
	AFTER INSERT OR UPDATE ON games
	FOR EACH ROW EXECUTE FUNCTION notify_game_write();
`

func notifyStatement(channel string) string {
	return fmt.Sprintf(notifySQL, quoteLiteral(channel))
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
