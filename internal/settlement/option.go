package settlement

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/yosoku/stats-engine/internal/models"
)

var optionIDRe = regexp.MustCompile(`^([a-z0-9]+):(home|away|draw):(\d+)$`)

// marginBucket is an inclusive margin range; Max 0 means open-ended.
type marginBucket struct {
	Min, Max int
}

func (b marginBucket) contains(margin int) bool {
	return margin >= b.Min && (b.Max == 0 || margin <= b.Max)
}

// basketballMargins are the winning-margin options for basketball leagues.
var basketballMargins = []marginBucket{
	{1, 3}, {4, 6}, {7, 9}, {10, 14}, {15, 19}, {20, 24}, {25, 29}, {30, 0},
}

// footballSlot is one exact-score option. Open slots match any score where the
// winning side reached Home (or, for draws, both sides reached Home).
type footballSlot struct {
	Home, Away int
	Open       bool
}

// footballSlots is the 18-slot table: HOME (7) -> AWAY (7) -> DRAW (4).
var footballSlots = map[models.Side][]footballSlot{
	models.SideHome: {{1, 0, false}, {2, 0, false}, {2, 1, false}, {3, 0, false}, {3, 1, false}, {3, 2, false}, {4, 0, true}},
	models.SideAway: {{0, 1, false}, {0, 2, false}, {1, 2, false}, {0, 3, false}, {1, 3, false}, {2, 3, false}, {0, 4, true}},
	models.SideDraw: {{0, 0, false}, {1, 1, false}, {2, 2, false}, {3, 3, true}},
}

func (s footballSlot) matches(side models.Side, home, away int) bool {
	if !s.Open {
		return s.Home == home && s.Away == away
	}
	switch side {
	case models.SideHome:
		return home >= s.Home
	case models.SideAway:
		return away >= s.Away
	}
	return home >= s.Home && away >= s.Away
}

// StructuredOptionJudge resolves {league}:{side}:{index} option ids, where
// index is the 0-based slot within the side.
type StructuredOptionJudge struct{}

func (StructuredOptionJudge) Judge(res GameResult, leg models.Leg) models.Outcome {
	m := optionIDRe.FindStringSubmatch(strings.ToLower(strings.TrimSpace(leg.OptionID)))
	if m == nil || m[1] != res.League.OptionPrefix() {
		return models.OutcomeVoid
	}
	side := models.ParseSide(m[2])
	idx, err := strconv.Atoi(m[3])
	if err != nil || idx < 0 {
		return models.OutcomeVoid
	}

	switch res.League.Sport() {
	case models.SportBasketball:
		if side == models.SideDraw || idx >= len(basketballMargins) {
			return models.OutcomeVoid
		}
		if res.Winner() != side || !basketballMargins[idx].contains(res.Margin()) {
			return models.OutcomeMiss
		}
		return models.OutcomeHit
	case models.SportFootball:
		slots := footballSlots[side]
		if idx >= len(slots) {
			return models.OutcomeVoid
		}
		if res.Winner() != side || !slots[idx].matches(side, res.HomeScore, res.AwayScore) {
			return models.OutcomeMiss
		}
		return models.OutcomeHit
	}
	return models.OutcomeVoid
}
