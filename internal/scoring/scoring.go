// Package scoring holds the pure scoring functions used at settlement:
// win judgment, Brier score, calibration error, score precision, market
// majority and upset detection. Nothing in here does I/O.
package scoring

import (
	"math"

	"github.com/yosoku/stats-engine/internal/models"
)

// Probability bounds applied before squaring in the Brier score.
const (
	minProbability = 0.001
	maxProbability = 0.999
)

// JudgeWin reports whether a winner pick is correct for a final score.
// A draw pick wins only on level scores.
func JudgeWin(pick models.Side, homeScore, awayScore int) bool {
	switch pick {
	case models.SideDraw:
		return homeScore == awayScore
	case models.SideHome:
		return homeScore > awayScore
	case models.SideAway:
		return awayScore > homeScore
	}
	return false
}

// CalcBrier returns (p - y)^2 rounded to 4 places, where p is the clamped
// confidence as a probability and y is 1 on a win.
func CalcBrier(isWin bool, confidence int) float64 {
	p := float64(models.ClampConfidence(confidence)) / 100
	p = math.Min(maxProbability, math.Max(minProbability, p))
	y := 0.0
	if isWin {
		y = 1
	}
	return round(math.Pow(p-y, 2), 4)
}

// CalcCalibrationError is |confidence/100 - y|.
func CalcCalibrationError(isWin bool, confidence int) float64 {
	y := 0.0
	if isWin {
		y = 1
	}
	return round(math.Abs(float64(models.ClampConfidence(confidence))/100-y), 4)
}

// PostInput is everything CalcPostResult needs about one ticket.
type PostInput struct {
	Sport        string
	Pick         models.Pick
	Confidence   int
	HomeScore    int
	AwayScore    int
	HadUpsetGame bool
}

// PostResult is the scored outcome of one ticket.
type PostResult struct {
	IsWin            bool    `json:"is_win"`
	Brier            float64 `json:"brier"`
	CalibrationError float64 `json:"calibration_error"`
	ScoreError       float64 `json:"score_error"`
	ScorePrecision   float64 `json:"score_precision"`
	UpsetHit         bool    `json:"upset_hit"`
}

// CalcPostResult composes the per-ticket scores.
func CalcPostResult(in PostInput) PostResult {
	isWin := JudgeWin(in.Pick.Winner, in.HomeScore, in.AwayScore)
	res := PostResult{
		IsWin:            isWin,
		Brier:            CalcBrier(isWin, in.Confidence),
		CalibrationError: CalcCalibrationError(isWin, in.Confidence),
		UpsetHit:         in.HadUpsetGame && isWin,
	}
	if in.Pick.HasScore() {
		actual := Score{Home: in.HomeScore, Away: in.AwayScore}
		predicted := Score{Home: *in.Pick.ScoreHome, Away: *in.Pick.ScoreAway}
		res.ScoreError = float64(absInt(predicted.Home-actual.Home) + absInt(predicted.Away-actual.Away))
		res.ScorePrecision = CalcScorePrecision(in.Sport, predicted, actual)
	}
	return res
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
