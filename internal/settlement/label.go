package settlement

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/yosoku/stats-engine/internal/models"
)

var (
	rangeMarginRe  = regexp.MustCompile(`(\d+)\s*[-~〜–—―ー]\s*(\d+)\s*(?:点差|点|pts?|points?)`)
	openMarginRe   = regexp.MustCompile(`(\d+)\s*(?:\+|点差以上|点以上)`)
	withinMarginRe = regexp.MustCompile(`(\d+)\s*(?:点差以内|点以内)`)
	exactMarginRe  = regexp.MustCompile(`(\d+)\s*点差`)
)

var (
	drawWords = []string{"draw", "tie", "引き分け", "引分", "ドロー"}
	homeWords = []string{"home", "ホーム"}
	awayWords = []string{"away", "アウェイ", "アウェー"}
)

// LegacyLabelJudge settles legs that only carry a free-text label. It infers
// the side from team names (or home/away/draw keywords) and, when the label
// contains a point-difference phrase, checks the actual margin against it.
type LegacyLabelJudge struct{}

func (LegacyLabelJudge) Judge(res GameResult, leg models.Leg) models.Outcome {
	folded := foldLabel(leg.Label)
	if folded == "" {
		return models.OutcomeVoid
	}
	compact := compactLabel(folded)

	side := inferSide(compact, res)
	if side == models.SideNone {
		return models.OutcomeVoid
	}
	if res.Winner() != side {
		return models.OutcomeMiss
	}
	if side == models.SideDraw {
		return models.OutcomeHit
	}

	bucket, ok := parseMargin(folded)
	if !ok {
		return models.OutcomeHit
	}
	if bucket.contains(res.Margin()) {
		return models.OutcomeHit
	}
	return models.OutcomeMiss
}

// foldLabel applies NFKC (full-width digits and letters become ASCII) and lower-cases.
func foldLabel(s string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFKC.String(s)))
}

// compactLabel drops whitespace, punctuation and symbols.
func compactLabel(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return -1
		}
		return r
	}, s)
}

// InferSide returns the side a free-text label names, or SideNone when the
// label is empty or ambiguous.
func InferSide(label string, res GameResult) models.Side {
	folded := foldLabel(label)
	if folded == "" {
		return models.SideNone
	}
	return inferSide(compactLabel(folded), res)
}

func inferSide(compact string, res GameResult) models.Side {
	home := containsAny(compact, res.HomeNames, true)
	away := containsAny(compact, res.AwayNames, true)
	switch {
	case home && !away:
		return models.SideHome
	case away && !home:
		return models.SideAway
	case home && away:
		return models.SideNone
	}

	if containsAny(compact, drawWords, false) {
		return models.SideDraw
	}
	h := containsAny(compact, homeWords, false)
	a := containsAny(compact, awayWords, false)
	switch {
	case h && !a:
		return models.SideHome
	case a && !h:
		return models.SideAway
	}
	return models.SideNone
}

func containsAny(compact string, candidates []string, fold bool) bool {
	for _, c := range candidates {
		if fold {
			c = compactLabel(foldLabel(c))
		}
		if c != "" && strings.Contains(compact, c) {
			return true
		}
	}
	return false
}

// parseMargin extracts a margin range from phrases like "1-5点差", "6~10 pts",
// "20点差以上", "15+", "3点差以内" or "2点差".
func parseMargin(folded string) (marginBucket, bool) {
	if m := rangeMarginRe.FindStringSubmatch(folded); m != nil {
		lo, _ := strconv.Atoi(m[1])
		hi, _ := strconv.Atoi(m[2])
		if lo > hi {
			lo, hi = hi, lo
		}
		if hi == 0 {
			return marginBucket{}, false
		}
		return marginBucket{Min: lo, Max: hi}, true
	}
	if m := openMarginRe.FindStringSubmatch(folded); m != nil {
		lo, _ := strconv.Atoi(m[1])
		return marginBucket{Min: lo}, true
	}
	if m := withinMarginRe.FindStringSubmatch(folded); m != nil {
		hi, _ := strconv.Atoi(m[1])
		if hi == 0 {
			return marginBucket{}, false
		}
		return marginBucket{Min: 1, Max: hi}, true
	}
	if m := exactMarginRe.FindStringSubmatch(folded); m != nil {
		n, _ := strconv.Atoi(m[1])
		if n == 0 {
			return marginBucket{}, false
		}
		return marginBucket{Min: n, Max: n}, true
	}
	return marginBucket{}, false
}
