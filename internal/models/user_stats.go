package models

import (
	"strings"
	"time"
)

// BucketStats is one sub-bucket of a daily bucket (all leagues or one league).
type BucketStats struct {
	Posts              int64   `json:"posts"`
	Hits               int64   `json:"hit"`
	Units              float64 `json:"units"`
	BrierSum           float64 `json:"brier_sum"`
	ScoreErrorSum      float64 `json:"score_error_sum"`
	PrecisionSum       float64 `json:"precision_sum"`
	CalibrationSum     float64 `json:"calibration_sum"`
	CalibrationCount   int64   `json:"calibration_count"`
	OddsSum            float64 `json:"odds_sum"`
	OddsCount          int64   `json:"odds_count"`
	UpsetHits          int64   `json:"upset_hits"`
	UpsetOpportunities int64   `json:"upset_opportunities"`
	MajorityPicks      int64   `json:"majority_picks"`
}

// Add folds other into s.
func (s *BucketStats) Add(other BucketStats) {
	s.Posts += other.Posts
	s.Hits += other.Hits
	s.Units += other.Units
	s.BrierSum += other.BrierSum
	s.ScoreErrorSum += other.ScoreErrorSum
	s.PrecisionSum += other.PrecisionSum
	s.CalibrationSum += other.CalibrationSum
	s.CalibrationCount += other.CalibrationCount
	s.OddsSum += other.OddsSum
	s.OddsCount += other.OddsCount
	s.UpsetHits += other.UpsetHits
	s.UpsetOpportunities += other.UpsetOpportunities
	s.MajorityPicks += other.MajorityPicks
}

// DailyBucket is the per-user, per-JST-day aggregate. Key is uid_YYYY-MM-DD.
type DailyBucket struct {
	Key     string                  `json:"key"`
	UID     string                  `json:"uid"`
	Date    string                  `json:"date"`
	All     BucketStats             `json:"all"`
	Leagues map[League]*BucketStats `json:"leagues,omitempty"`
}

// Apply folds a delta into the all-leagues sub-bucket and, for known leagues,
// into the league sub-bucket.
func (b *DailyBucket) Apply(league League, delta BucketStats) {
	b.All.Add(delta)
	if !league.Known() {
		return
	}
	if b.Leagues == nil {
		b.Leagues = make(map[League]*BucketStats)
	}
	sub, ok := b.Leagues[league]
	if !ok {
		sub = &BucketStats{}
		b.Leagues[league] = sub
	}
	sub.Add(delta)
}

// DailyKey builds the bucket key for a user and date key.
func DailyKey(uid, dateKey string) string {
	return uid + "_" + dateKey
}

// SplitDailyKey splits uid_YYYY-MM-DD. The uid may itself contain underscores.
func SplitDailyKey(key string) (uid, dateKey string, ok bool) {
	i := strings.LastIndexByte(key, '_')
	if i <= 0 || len(key)-i-1 != len("2006-01-02") {
		return "", "", false
	}
	return key[:i], key[i+1:], true
}

// Window identifiers of the user summary.
const (
	Window7d  = "7d"
	Window30d = "30d"
	WindowAll = "all"
)

// Windows lists the summary windows in display order.
var Windows = []string{Window7d, Window30d, WindowAll}

// WindowStats is a recomputed window aggregate plus derived ratios.
type WindowStats struct {
	BucketStats
	Leagues map[League]BucketStats `json:"leagues,omitempty"`
	Days    int                    `json:"days"`

	WinRate   float64 `json:"win_rate"`
	AvgBrier  float64 `json:"avg_brier"`
	AvgPrec   float64 `json:"avg_precision"`
	AvgCalib  float64 `json:"avg_calibration_error"`
	AvgOdds   float64 `json:"avg_odds"`
	ROI       float64 `json:"roi"`
	UpsetRate float64 `json:"upset_rate"`
}

// Finalize computes the derived ratios from the sums. Brier, precision and
// calibration average over the scored tickets (CalibrationCount), not posts.
func (w *WindowStats) Finalize() {
	w.WinRate, w.ROI = 0, 0
	if w.Posts > 0 {
		n := float64(w.Posts)
		w.WinRate = float64(w.Hits) / n
		w.ROI = w.Units / n
	}
	w.AvgBrier, w.AvgPrec, w.AvgCalib = 0, 0, 0
	if w.CalibrationCount > 0 {
		n := float64(w.CalibrationCount)
		w.AvgBrier = w.BrierSum / n
		w.AvgPrec = w.PrecisionSum / n
		w.AvgCalib = w.CalibrationSum / n
	}
	w.AvgOdds = 0
	if w.OddsCount > 0 {
		w.AvgOdds = w.OddsSum / float64(w.OddsCount)
	}
	w.UpsetRate = 0
	if w.UpsetOpportunities > 0 {
		w.UpsetRate = float64(w.UpsetHits) / float64(w.UpsetOpportunities)
	}
}

// UserSummary is the per-user summary document. Windows are derived from
// daily buckets; the streak fields are authoritative.
type UserSummary struct {
	UID           string                 `json:"uid"`
	Windows       map[string]WindowStats `json:"windows"`
	CurrentStreak int                    `json:"current_streak"`
	MaxStreak     int                    `json:"max_streak"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

// ApplyStreak advances a signed win/lose streak. Positive values count
// consecutive wins, negative values consecutive losses. Void leaves it alone.
func ApplyStreak(current int, outcome Outcome) int {
	switch outcome {
	case OutcomeHit:
		if current > 0 {
			return current + 1
		}
		return 1
	case OutcomeMiss:
		if current < 0 {
			return current - 1
		}
		return -1
	}
	return current
}

// StatsTask is the per-ticket stats application handed from the finalizer to
// the aggregator.
type StatsTask struct {
	UID        string      `json:"uid"`
	TicketID   string      `json:"ticket_id"`
	GameID     string      `json:"game_id"`
	DateKey    string      `json:"date_key"`
	League     League      `json:"league"`
	Settlement Outcome     `json:"settlement"`
	Payout     float64     `json:"payout"`
	UsedOdds   float64     `json:"used_odds"`
	Delta      BucketStats `json:"delta"`
	SettledAt  time.Time   `json:"settled_at"`
}
