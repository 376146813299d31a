package scoring

import (
	"math"
	"testing"

	"github.com/yosoku/stats-engine/internal/models"
)

func intPtr(v int) *int { return &v }

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestJudgeWin(t *testing.T) {
	tests := []struct {
		pick       models.Side
		home, away int
		want       bool
	}{
		{models.SideHome, 80, 70, true},
		{models.SideHome, 70, 80, false},
		{models.SideAway, 70, 80, true},
		{models.SideAway, 1, 1, false},
		{models.SideDraw, 1, 1, true},
		{models.SideDraw, 2, 1, false},
		{models.SideNone, 2, 1, false},
	}
	for _, tt := range tests {
		if got := JudgeWin(tt.pick, tt.home, tt.away); got != tt.want {
			t.Errorf("JudgeWin(%q, %d, %d) = %v, want %v", tt.pick, tt.home, tt.away, got, tt.want)
		}
	}
}

func TestCalcBrier(t *testing.T) {
	if got := CalcBrier(true, 80); !approx(got, 0.04) {
		t.Errorf("CalcBrier(true, 80) = %v, want 0.04", got)
	}
	if got := CalcBrier(false, 80); !approx(got, 0.64) {
		t.Errorf("CalcBrier(false, 80) = %v, want 0.64", got)
	}
	// out-of-range confidence is clamped to 1..99
	if got := CalcBrier(true, 150); !approx(got, 0.0001) {
		t.Errorf("CalcBrier(true, 150) = %v, want 0.0001", got)
	}
	if got := CalcBrier(true, -5); !approx(got, 0.9801) {
		t.Errorf("CalcBrier(true, -5) = %v, want 0.9801", got)
	}
}

func TestCalcBrierRange(t *testing.T) {
	for c := 1; c <= 99; c++ {
		for _, win := range []bool{true, false} {
			b := CalcBrier(win, c)
			if b < 0 || b > 1 {
				t.Fatalf("CalcBrier(%v, %d) = %v out of [0,1]", win, c, b)
			}
		}
	}
}

func TestCurvedScore(t *testing.T) {
	tests := []struct {
		diff, want float64
	}{
		{0, 1},
		{6, 1},
		{-6, 1},
		{16, 0},
		{30, 0},
		{11, math.Pow(0.5, 1.6)},
	}
	for _, tt := range tests {
		if got := CurvedScore(tt.diff, 6, 16, 1.6); !approx(got, tt.want) {
			t.Errorf("CurvedScore(%v) = %v, want %v", tt.diff, got, tt.want)
		}
	}
}

func TestBasketballPrecision(t *testing.T) {
	exact := CalcScorePrecision(models.SportBasketball, Score{88, 80}, Score{88, 80})
	if exact != 15 {
		t.Errorf("exact prediction = %v, want 15", exact)
	}
	far := CalcScorePrecision(models.SportBasketball, Score{120, 60}, Score{70, 100})
	if far != 0 {
		t.Errorf("far prediction = %v, want 0", far)
	}
	for ph := 50; ph <= 130; ph += 7 {
		for pa := 50; pa <= 130; pa += 9 {
			got := CalcScorePrecision(models.SportBasketball, Score{ph, pa}, Score{90, 85})
			if got < 0 || got > 15 {
				t.Fatalf("precision(%d-%d) = %v out of range", ph, pa, got)
			}
		}
	}
}

func TestFootballPrecision(t *testing.T) {
	tests := []struct {
		name              string
		predicted, actual Score
		want              float64
	}{
		{"exact", Score{2, 1}, Score{2, 1}, 15},
		{"result and tempo, off by one", Score{2, 1}, Score{3, 0}, 13},
		{"result only", Score{1, 0}, Score{4, 1}, 6},
		{"tempo only", Score{0, 0}, Score{0, 1}, 8},
		{"nothing", Score{0, 3}, Score{4, 0}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CalcScorePrecision(models.SportFootball, tt.predicted, tt.actual); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFootballPrecisionValueSet(t *testing.T) {
	allowed := map[float64]bool{0: true, 1: true, 2: true, 3: true, 6: true, 7: true, 8: true, 9: true, 12: true, 13: true, 14: true, 15: true}
	for ph := 0; ph <= 5; ph++ {
		for pa := 0; pa <= 5; pa++ {
			for ah := 0; ah <= 5; ah++ {
				for aa := 0; aa <= 5; aa++ {
					got := CalcScorePrecision(models.SportFootball, Score{ph, pa}, Score{ah, aa})
					if !allowed[got] {
						t.Fatalf("precision(%d-%d vs %d-%d) = %v not a valid sum", ph, pa, ah, aa, got)
					}
				}
			}
		}
	}
}

func TestCalcPostResult(t *testing.T) {
	res := CalcPostResult(PostInput{
		Sport:        models.SportFootball,
		Pick:         models.Pick{Winner: models.SideAway, ScoreHome: intPtr(0), ScoreAway: intPtr(1)},
		Confidence:   70,
		HomeScore:    0,
		AwayScore:    2,
		HadUpsetGame: true,
	})
	if !res.IsWin || !res.UpsetHit {
		t.Errorf("expected win + upset hit, got %+v", res)
	}
	if !approx(res.Brier, 0.09) {
		t.Errorf("Brier = %v, want 0.09", res.Brier)
	}
	if !approx(res.CalibrationError, 0.3) {
		t.Errorf("CalibrationError = %v, want 0.3", res.CalibrationError)
	}
	if res.ScoreError != 1 || res.ScorePrecision != 14 {
		t.Errorf("ScoreError/Precision = %v/%v, want 1/14", res.ScoreError, res.ScorePrecision)
	}

	noScore := CalcPostResult(PostInput{Sport: models.SportBasketball, Pick: models.Pick{Winner: models.SideHome}, Confidence: 50, HomeScore: 70, AwayScore: 80, HadUpsetGame: true})
	if noScore.IsWin || noScore.UpsetHit || noScore.ScorePrecision != 0 {
		t.Errorf("unexpected result %+v", noScore)
	}
}
