package settlement

import (
	"testing"

	"github.com/yosoku/stats-engine/internal/models"
)

func TestLegacyLabelJudge(t *testing.T) {
	res := GameResult{
		League:    models.LeagueBJ,
		HomeScore: 72,
		AwayScore: 80, // away by 8
		HomeNames: []string{"アルバルク東京", "A東京"},
		AwayNames: []string{"千葉ジェッツ", "千葉J"},
	}

	tests := []struct {
		label string
		want  models.Outcome
	}{
		{"千葉ジェッツ", models.OutcomeHit},
		{"千葉ジェッツ 勝利", models.OutcomeHit},
		{"アルバルク東京", models.OutcomeMiss},
		{"千葉J 6-10点差", models.OutcomeHit},
		{"千葉J　６～１０点差", models.OutcomeHit}, // full-width digits and tilde
		{"千葉J 1-5点差", models.OutcomeMiss},
		{"千葉J 11点差以上", models.OutcomeMiss},
		{"千葉J 5+", models.OutcomeHit},
		{"千葉J 10点差以内", models.OutcomeHit},
		{"アウェイ 8点差", models.OutcomeHit},
		{"ホーム", models.OutcomeMiss},
		{"引き分け", models.OutcomeMiss},
		{"よくわからない", models.OutcomeVoid},
		{"A東京 vs 千葉J", models.OutcomeVoid},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			if got := JudgeLeg(res, models.Leg{Label: tt.label}); got != tt.want {
				t.Errorf("JudgeLeg(%q) = %q, want %q", tt.label, got, tt.want)
			}
		})
	}
}

func TestLegacyLabelJudge_Draw(t *testing.T) {
	res := GameResult{League: models.LeagueJ1, HomeScore: 1, AwayScore: 1, HomeNames: []string{"Kashima Antlers"}, AwayNames: []string{"Urawa Reds"}}
	if got := JudgeLeg(res, models.Leg{Label: "Draw"}); got != models.OutcomeHit {
		t.Errorf("draw label = %q, want hit", got)
	}
	if got := JudgeLeg(res, models.Leg{Label: "URAWA REDS win"}); got != models.OutcomeMiss {
		t.Errorf("team label on draw = %q, want miss", got)
	}
}

func TestParseMargin(t *testing.T) {
	tests := []struct {
		in     string
		want   marginBucket
		wantOK bool
	}{
		{"1-5点差", marginBucket{1, 5}, true},
		{"10~6 pts", marginBucket{6, 10}, true},
		{"20点差以上", marginBucket{20, 0}, true},
		{"15+", marginBucket{15, 0}, true},
		{"3点差以内", marginBucket{1, 3}, true},
		{"2点差", marginBucket{2, 2}, true},
		{"no margin here", marginBucket{}, false},
	}
	for _, tt := range tests {
		got, ok := parseMargin(foldLabel(tt.in))
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("parseMargin(%q) = %+v, %v; want %+v, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}
