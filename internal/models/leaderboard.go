package models

import "time"

// Leaderboard kinds.
const (
	BoardWindow   = "window"
	BoardCalendar = "calendar"
	BoardMonthly  = "monthly"
)

// LeaderboardEntry is one ranked user.
type LeaderboardEntry struct {
	Rank    int     `json:"rank"`
	UID     string  `json:"uid"`
	Value   float64 `json:"value"`
	Posts   int64   `json:"posts"`
	Hits    int64   `json:"hit"`
	Units   float64 `json:"units"`
	WinRate float64 `json:"win_rate"`
}

// Leaderboard is a ranking snapshot written by the periodic jobs.
type Leaderboard struct {
	ID         string             `json:"id"`
	Kind       string             `json:"kind"`
	Period     string             `json:"period"`
	Metric     string             `json:"metric"`
	MinPosts   int64              `json:"min_posts"`
	Entries    []LeaderboardEntry `json:"entries"`
	BuiltAt    time.Time          `json:"built_at"`
	Population int                `json:"population"`
}

// Axis levels of the monthly classification.
const (
	LevelStrong = "S"
	LevelMid    = "M"
	LevelWeak   = "W"
)

// Radar axes, in classification order.
const (
	AxisWinRate    = "win_rate"
	AxisAccuracy   = "accuracy"
	AxisPrecision  = "precision"
	AxisUpset      = "upset"
	AxisStreak     = "streak"
	AxisConformity = "conformity"
)

// RadarAxes lists the six axes in classification order.
var RadarAxes = []string{AxisWinRate, AxisAccuracy, AxisPrecision, AxisUpset, AxisStreak, AxisConformity}

// MonthlyUserStats is the per-user monthly snapshot, key uid_YYYY-MM.
type MonthlyUserStats struct {
	Key          string             `json:"key"`
	UID          string             `json:"uid"`
	Month        string             `json:"month"`
	Totals       BucketStats        `json:"totals"`
	LeaguePosts  map[League]int64   `json:"league_posts,omitempty"`
	MaxStreak    int                `json:"max_streak"`
	Metrics      map[string]float64 `json:"metrics"`
	Percentiles  map[string]float64 `json:"percentiles"`
	Radar        map[string]float64 `json:"radar"`
	Levels       string             `json:"levels"`
	AnalysisType string             `json:"analysis_type"`
	BuiltAt      time.Time          `json:"built_at"`
}

// MonthlyKey builds uid_YYYY-MM.
func MonthlyKey(uid, month string) string {
	return uid + "_" + month
}
