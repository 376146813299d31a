package logic

import "github.com/yosoku/stats-engine/internal/models"

// Archetype is a named monthly forecaster profile.
type Archetype struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Pattern string `json:"pattern"`
}

// Axis level thresholds on the 0-10 radar scale.
const (
	strongScore = 8
	midScore    = 4
)

// Upset rate is classified on the raw rate.
const (
	strongUpsetRate = 0.4
	midUpsetRate    = 0.1
)

// AxisLevel maps a 0-10 radar score to S, M or W.
func AxisLevel(score float64) string {
	switch {
	case score >= strongScore:
		return models.LevelStrong
	case score >= midScore:
		return models.LevelMid
	}
	return models.LevelWeak
}

// UpsetLevel maps an upset hit rate to S, M or W.
func UpsetLevel(rate float64) string {
	switch {
	case rate >= strongUpsetRate:
		return models.LevelStrong
	case rate >= midUpsetRate:
		return models.LevelMid
	}
	return models.LevelWeak
}

// Levels builds the six-letter level string in radar axis order.
func Levels(radar map[string]float64, upsetRate float64) string {
	out := make([]byte, 0, len(models.RadarAxes))
	for _, axis := range models.RadarAxes {
		if axis == models.AxisUpset {
			out = append(out, UpsetLevel(upsetRate)[0])
			continue
		}
		out = append(out, AxisLevel(radar[axis])[0])
	}
	return string(out)
}

// archetypes is evaluated top to bottom and the first matching pattern wins.
// Pattern letters follow the radar axes: win rate, accuracy, precision,
// upset, streak, conformity. '*' matches any level.
var archetypes = []Archetype{
	{"oracle", "The Oracle", "SSSSSS"},
	{"lone_genius", "Lone Genius", "SSSSSW"},
	{"market_sage", "Market Sage", "SSSSWS"},
	{"steady_hand", "Steady Hand", "MMMMMM"},
	{"rookie", "Rookie", "WWWWWW"},
	{"crowd_follower", "Crowd Follower", "WWWWWS"},

	{"grandmaster", "Grandmaster", "SSSSS*"},
	{"consensus_master", "Consensus Master", "SSS*SS"},
	{"maverick_ace", "Maverick Ace", "SSS*SW"},
	{"giant_slayer", "Giant Slayer", "SS*SSW"},
	{"contrarian_scholar", "Contrarian Scholar", "SSSS*W"},
	{"hot_hand_analyst", "Hot Hand Analyst", "S*SSSS"},
	{"cold_start", "Cold Start", "WWWWW*"},
	{"all_rounder", "All-Rounder", "MMMMM*"},
	{"favorite_specialist", "Favorite Specialist", "SSSW*S"},

	{"precision_master", "Precision Master", "SSSS**"},
	{"elite_upset_hunter", "Elite Upset Hunter", "SS*S*W"},
	{"momentum_rider", "Momentum Rider", "SS**SS"},
	{"streaking_rebel", "Streaking Rebel", "SS**SW"},
	{"chalk_collector", "Chalk Collector", "SSW**S"},
	{"gut_instinct", "Gut Instinct", "SSW**W"},
	{"calculated_follower", "Calculated Follower", "MSS**S"},
	{"sharp_contrarian", "Sharp Contrarian", "*SSS*W"},
	{"bandwagon_rider", "Bandwagon Rider", "WW**WS"},
	{"wild_card", "Wild Card", "WW**WW"},
	{"middle_lane", "Middle Lane", "MM**MM"},

	{"sharpshooter", "Sharpshooter", "SSS***"},
	{"upset_hunter", "Upset Hunter", "SS*S**"},
	{"hot_streak", "Hot Streak", "SS**S*"},
	{"risk_taker", "Risk Taker", "S**SS*"},
	{"precise_follower", "Precise Follower", "S*S**S"},
	{"analyst", "Analyst", "*SSS**"},
	{"bold_scorer", "Bold Scorer", "**SSS*"},
	{"underdog_lover", "Underdog Lover", "***SSW"},
	{"rising_analyst", "Rising Analyst", "MSS***"},
	{"unlucky_analyst", "Unlucky Analyst", "WSS***"},
	{"lucky_charm", "Lucky Charm", "SWW***"},
	{"opportunist", "Opportunist", "MM*S**"},
	{"daredevil", "Daredevil", "M**SS*"},

	{"consistent_winner", "Consistent Winner", "SS****"},
	{"score_reader", "Score Reader", "S*S***"},
	{"calibrated_gambler", "Calibrated Gambler", "*S*S**"},
	{"long_shot_artist", "Long Shot Artist", "**SS**"},
	{"contrarian", "Contrarian", "***S*W"},
	{"favorite_backer", "Favorite Backer", "***W*S"},
	{"solid_regular", "Solid Regular", "MM****"},
	{"learner", "Learner", "WW****"},
	{"lucky_underdog", "Lucky Underdog", "*W*S**"},
	{"cautious_follower", "Cautious Follower", "M****S"},
	{"lone_explorer", "Lone Explorer", "W****W"},

	{"winners_instinct", "Winner's Instinct", "S*****"},
	{"calibrated_mind", "Calibrated Mind", "*S****"},
	{"score_specialist", "Score Specialist", "**S***"},
	{"upset_seeker", "Upset Seeker", "***S**"},
	{"streak_maker", "Streak Maker", "****S*"},
	{"trend_follower", "Trend Follower", "*****S"},
	{"independent", "Independent Thinker", "*****W"},
	{"developing", "Developing Forecaster", "M*****"},
	{"apprentice", "Apprentice", "W*****"},

	{"explorer", "Explorer", "******"},
}

// Archetypes returns the rule table in evaluation order.
func Archetypes() []Archetype {
	return append([]Archetype(nil), archetypes...)
}

func matchPattern(pattern, levels string) bool {
	if len(pattern) != len(levels) {
		return false
	}
	for i := 0; i < len(pattern); i++ {
		if pattern[i] != '*' && pattern[i] != levels[i] {
			return false
		}
	}
	return true
}

// Classify returns the first archetype whose pattern matches the levels.
func Classify(levels string) Archetype {
	for _, a := range archetypes {
		if matchPattern(a.Pattern, levels) {
			return a
		}
	}
	return archetypes[len(archetypes)-1]
}
