package scoring

import (
	"testing"

	"github.com/yosoku/stats-engine/internal/models"
)

func TestCalcMarket(t *testing.T) {
	m := CalcMarket([]models.Side{models.SideHome, models.SideHome, models.SideAway, models.SideDraw})
	if m.MajoritySide != models.SideHome {
		t.Errorf("MajoritySide = %q, want home", m.MajoritySide)
	}
	if m.MajorityRatio != 0.5 {
		t.Errorf("MajorityRatio = %v, want 0.5", m.MajorityRatio)
	}
	if m.Total != 4 || m.MajorityCount != 2 {
		t.Errorf("Total/MajorityCount = %d/%d", m.Total, m.MajorityCount)
	}
}

func TestCalcMarketTies(t *testing.T) {
	tests := []struct {
		name  string
		picks []models.Side
		want  models.Side
	}{
		{"home beats away on tie", []models.Side{models.SideAway, models.SideHome}, models.SideHome},
		{"away beats draw on tie", []models.Side{models.SideDraw, models.SideAway}, models.SideAway},
		{"draw majority", []models.Side{models.SideDraw, models.SideDraw, models.SideHome}, models.SideDraw},
		{"empty", nil, models.SideNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CalcMarket(tt.picks).MajoritySide; got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestJudgeUpset(t *testing.T) {
	base := models.MarketSnapshot{Total: 12, MajoritySide: models.SideHome, MajorityRatio: 0.75}
	if !JudgeUpset(base, models.SideAway, 20, 8) {
		t.Fatal("expected upset for the reference example")
	}

	tests := []struct {
		name     string
		market   models.MarketSnapshot
		winner   models.Side
		homeWins int
		awayWins int
	}{
		{"ratio 0.69", models.MarketSnapshot{Total: 12, MajoritySide: models.SideHome, MajorityRatio: 0.69}, models.SideAway, 20, 8},
		{"total 9", models.MarketSnapshot{Total: 9, MajoritySide: models.SideHome, MajorityRatio: 0.75}, models.SideAway, 20, 8},
		{"win diff 9", base, models.SideAway, 17, 8},
		{"draw majority", models.MarketSnapshot{Total: 12, MajoritySide: models.SideDraw, MajorityRatio: 0.75}, models.SideAway, 20, 8},
		{"draw result", base, models.SideDraw, 20, 8},
		{"majority was right", base, models.SideHome, 8, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if JudgeUpset(tt.market, tt.winner, tt.homeWins, tt.awayWins) {
				t.Error("expected no upset")
			}
		})
	}
}
