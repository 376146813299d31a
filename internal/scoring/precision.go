package scoring

import (
	"math"

	"github.com/yosoku/stats-engine/internal/models"
)

// Score is a home/away score pair.
type Score struct {
	Home int
	Away int
}

// Basketball curve parameters and per-component maxima (4 + 4 + 7 = 15).
const (
	curveFull   = 6.0
	curveZeroAt = 16.0
	curveGamma  = 1.6

	homePoints   = 4.0
	awayPoints   = 4.0
	marginPoints = 7.0

	// MaxPrecision is the ceiling of the precision metric for every sport.
	MaxPrecision = 15.0
)

// CurvedScore maps an absolute difference to 0..1: 1 at diff <= full,
// 0 at diff >= zeroAt, ((zeroAt-diff)/(zeroAt-full))^gamma in between.
func CurvedScore(diff, full, zeroAt, gamma float64) float64 {
	diff = math.Abs(diff)
	if diff <= full {
		return 1
	}
	if diff >= zeroAt {
		return 0
	}
	return math.Pow((zeroAt-diff)/(zeroAt-full), gamma)
}

// CalcScorePrecision rewards closeness of a predicted score, 0..15.
func CalcScorePrecision(sport string, predicted, actual Score) float64 {
	switch sport {
	case models.SportBasketball:
		return basketballPrecision(predicted, actual)
	case models.SportFootball:
		return float64(footballPrecision(predicted, actual))
	}
	return 0
}

func basketballPrecision(predicted, actual Score) float64 {
	homeDiff := float64(predicted.Home - actual.Home)
	awayDiff := float64(predicted.Away - actual.Away)
	marginDiff := float64((predicted.Home - predicted.Away) - (actual.Home - actual.Away))

	total := homePoints*CurvedScore(homeDiff, curveFull, curveZeroAt, curveGamma) +
		awayPoints*CurvedScore(awayDiff, curveFull, curveZeroAt, curveGamma) +
		marginPoints*CurvedScore(marginDiff, curveFull, curveZeroAt, curveGamma)
	return math.Min(MaxPrecision, round(total, 2))
}

// Tempo buckets by total goals.
const (
	tempoLow  = "low"
	tempoMid  = "mid"
	tempoHigh = "high"
)

func tempo(s Score) string {
	switch total := s.Home + s.Away; {
	case total <= 2:
		return tempoLow
	case total == 3:
		return tempoMid
	}
	return tempoHigh
}

func footballPrecision(predicted, actual Score) int {
	points := 0
	if models.ResultSide(predicted.Home, predicted.Away) == models.ResultSide(actual.Home, actual.Away) {
		points += 6
	}
	if tempo(predicted) == tempo(actual) {
		points += 6
	}
	switch absInt(predicted.Home-actual.Home) + absInt(predicted.Away-actual.Away) {
	case 0:
		points += 3
	case 1:
		points += 2
	case 2:
		points += 1
	}
	return points
}
