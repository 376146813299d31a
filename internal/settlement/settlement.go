// Package settlement judges ticket legs against a final score and computes
// the ticket payout in units.
package settlement

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/yosoku/stats-engine/internal/models"
)

// GameResult is the final state of a game as seen by the leg judges.
type GameResult struct {
	League    models.League
	HomeScore int
	AwayScore int
	// Names used by the free-text judge: full names and short names.
	HomeNames []string
	AwayNames []string
}

// NewGameResult builds a GameResult from a game and optional team context.
func NewGameResult(g *models.Game, home, away *models.TeamContext) GameResult {
	res := GameResult{
		League:    g.League,
		HomeScore: g.HomeScore,
		AwayScore: g.AwayScore,
	}
	res.HomeNames = appendNames(res.HomeNames, g.HomeTeamName)
	res.AwayNames = appendNames(res.AwayNames, g.AwayTeamName)
	if home != nil {
		res.HomeNames = appendNames(res.HomeNames, home.Name, home.ShortName)
	}
	if away != nil {
		res.AwayNames = appendNames(res.AwayNames, away.Name, away.ShortName)
	}
	return res
}

func appendNames(dst []string, names ...string) []string {
	for _, n := range names {
		if n != "" {
			dst = append(dst, n)
		}
	}
	return dst
}

// Winner is the actual result side.
func (r GameResult) Winner() models.Side {
	return models.ResultSide(r.HomeScore, r.AwayScore)
}

// Margin is the absolute score difference.
func (r GameResult) Margin() int {
	d := r.HomeScore - r.AwayScore
	if d < 0 {
		return -d
	}
	return d
}

// LegJudge resolves one leg to hit, miss or void. Implementations never fail:
// anything they cannot interpret is void.
type LegJudge interface {
	Judge(res GameResult, leg models.Leg) models.Outcome
}

// Judge picks the structured judge when the leg carries an option id and the
// free-text judge otherwise.
type Judge struct {
	Structured LegJudge
	Legacy     LegJudge
}

// DefaultJudge is the production strategy pair.
var DefaultJudge = Judge{
	Structured: StructuredOptionJudge{},
	Legacy:     LegacyLabelJudge{},
}

func (j Judge) Judge(res GameResult, leg models.Leg) models.Outcome {
	if !res.League.Known() {
		return models.OutcomeVoid
	}
	if leg.OptionID != "" {
		return j.Structured.Judge(res, leg)
	}
	if leg.Label != "" {
		return j.Legacy.Judge(res, leg)
	}
	return models.OutcomeVoid
}

// JudgeLeg resolves a leg with DefaultJudge.
func JudgeLeg(res GameResult, leg models.Leg) models.Outcome {
	return DefaultJudge.Judge(res, leg)
}

// Result is a settled ticket.
type Result struct {
	Legs       []models.Leg
	Settlement models.Outcome
	Payout     float64
	UsedOdds   float64
}

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// SettleTicket judges every leg and computes the payout:
//
//	payout = Σ(pct × odds over hit legs) − (1 − Σ pct over void legs)
//
// with pct as a fraction after normalization to a 100% total.
func SettleTicket(res GameResult, legs []models.Leg, judge LegJudge) Result {
	out := Result{Legs: make([]models.Leg, len(legs))}
	if len(legs) == 0 {
		out.Settlement = models.OutcomeVoid
		return out
	}

	weights := normalizeWeights(legs)

	var hitStake, voidShare, weightedOdds, hitWeight, plainOdds decimal.Decimal
	hits, voids := 0, 0
	for i, leg := range legs {
		leg.Odds = roundOdds(leg.Odds)
		if leg.Odds < 1.0 {
			leg.Outcome = models.OutcomeVoid
		} else {
			leg.Outcome = judge.Judge(res, leg)
		}
		leg.Pct = weights[i].Mul(hundred).Round(4).InexactFloat64()
		out.Legs[i] = leg

		odds := decimal.NewFromFloat(leg.Odds)
		switch leg.Outcome {
		case models.OutcomeHit:
			hits++
			hitStake = hitStake.Add(weights[i].Mul(odds))
			hitWeight = hitWeight.Add(weights[i])
			weightedOdds = weightedOdds.Add(weights[i].Mul(odds))
			plainOdds = plainOdds.Add(odds)
		case models.OutcomeVoid:
			voids++
			voidShare = voidShare.Add(weights[i])
		}
	}

	switch {
	case voids == len(legs):
		out.Settlement = models.OutcomeVoid
	case hits > 0:
		out.Settlement = models.OutcomeHit
	default:
		out.Settlement = models.OutcomeMiss
	}

	out.Payout = hitStake.Sub(one.Sub(voidShare)).Round(4).InexactFloat64()

	switch {
	case hits == 1:
		for _, leg := range out.Legs {
			if leg.Outcome == models.OutcomeHit {
				out.UsedOdds = leg.Odds
			}
		}
	case hits > 1 && hitWeight.IsPositive():
		out.UsedOdds = weightedOdds.Div(hitWeight).Round(4).InexactFloat64()
	case hits > 1:
		out.UsedOdds = plainOdds.Div(decimal.NewFromInt(int64(hits))).Round(4).InexactFloat64()
	}
	return out
}

// normalizeWeights turns raw percentages into fractions summing to 1. Sums
// above 150% come from bad input and are clamped the same way; a zero total
// falls back to equal weights.
func normalizeWeights(legs []models.Leg) []decimal.Decimal {
	raw := make([]decimal.Decimal, len(legs))
	sum := decimal.Zero
	for i, leg := range legs {
		pct := leg.Pct
		if pct < 0 || math.IsNaN(pct) || math.IsInf(pct, 0) {
			pct = 0
		}
		raw[i] = decimal.NewFromFloat(pct)
		sum = sum.Add(raw[i])
	}

	weights := make([]decimal.Decimal, len(legs))
	if !sum.IsPositive() {
		equal := one.Div(decimal.NewFromInt(int64(len(legs))))
		for i := range weights {
			weights[i] = equal
		}
		return weights
	}
	for i := range raw {
		weights[i] = raw[i].Div(sum)
	}
	return weights
}

// roundOdds snaps odds to 0.1 granularity.
func roundOdds(odds float64) float64 {
	if math.IsNaN(odds) || math.IsInf(odds, 0) {
		return 0
	}
	return decimal.NewFromFloat(odds).Round(1).InexactFloat64()
}
