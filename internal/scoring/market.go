package scoring

import "github.com/yosoku/stats-engine/internal/models"

// Upset thresholds.
const (
	UpsetMinTotal   = 10
	UpsetMinRatio   = 0.70
	UpsetMinWinDiff = 10
)

// CalcMarket tallies winner picks. The majority is the first side, in the
// order home, away, draw, whose count is >= both others.
func CalcMarket(picks []models.Side) models.MarketSnapshot {
	var m models.MarketSnapshot
	for _, p := range picks {
		switch p {
		case models.SideHome:
			m.HomeCount++
		case models.SideAway:
			m.AwayCount++
		case models.SideDraw:
			m.DrawCount++
		}
	}
	m.Total = m.HomeCount + m.AwayCount + m.DrawCount
	if m.Total == 0 {
		return m
	}

	switch {
	case m.HomeCount >= m.AwayCount && m.HomeCount >= m.DrawCount:
		m.MajoritySide, m.MajorityCount = models.SideHome, m.HomeCount
	case m.AwayCount >= m.HomeCount && m.AwayCount >= m.DrawCount:
		m.MajoritySide, m.MajorityCount = models.SideAway, m.AwayCount
	default:
		m.MajoritySide, m.MajorityCount = models.SideDraw, m.DrawCount
	}
	m.MajorityRatio = float64(m.MajorityCount) / float64(m.Total)
	return m
}

// UpsetWinDiff is how many more wins the loser has than the winner.
func UpsetWinDiff(winner models.Side, homeWins, awayWins int) int {
	switch winner {
	case models.SideHome:
		return awayWins - homeWins
	case models.SideAway:
		return homeWins - awayWins
	}
	return 0
}

// JudgeUpset reports whether a result contradicts a strong market majority
// while the winner trailed the loser by a large win count. Draws never count.
func JudgeUpset(market models.MarketSnapshot, winner models.Side, homeWins, awayWins int) bool {
	if winner == models.SideDraw || winner == models.SideNone {
		return false
	}
	if market.MajoritySide == models.SideDraw || market.MajoritySide == models.SideNone {
		return false
	}
	if market.Total < UpsetMinTotal || market.MajorityRatio < UpsetMinRatio {
		return false
	}
	if market.MajoritySide == winner {
		return false
	}
	return UpsetWinDiff(winner, homeWins, awayWins) >= UpsetMinWinDiff
}
