package models

import (
	"strings"
	"unicode"
)

// League is the closed set of leagues the engine settles.
type League string

const (
	LeagueBJ    League = "BJ"  // B.League (basketball)
	LeagueJ1    League = "J1"  // J1 League (football)
	LeagueNBA   League = "NBA" // NBA (basketball)
	LeagueOther League = "Other"
)

// KnownLeagues lists the leagues that get their own stats sub-bucket.
var KnownLeagues = []League{LeagueBJ, LeagueJ1, LeagueNBA}

// Sport families used by scoring and settlement.
const (
	SportBasketball = "basketball"
	SportFootball   = "football"
	SportUnknown    = "unknown"
)

var leagueAliases = map[string]League{
	"bj":       LeagueBJ,
	"b1":       LeagueBJ,
	"bleague":  LeagueBJ,
	"b.league": LeagueBJ,
	"j1":       LeagueJ1,
	"jleague":  LeagueJ1,
	"j-league": LeagueJ1,
	"j.league": LeagueJ1,
	"nba":      LeagueNBA,
}

// NormalizeLeague maps a raw league string from a document to a League.
// Anything unrecognized becomes LeagueOther.
func NormalizeLeague(raw string) League {
	s := strings.ToLower(strings.TrimSpace(raw))
	// full-width letters and digits show up in hand-entered data
	s = strings.Map(func(r rune) rune {
		if r >= 0xFF01 && r <= 0xFF5E {
			return unicode.ToLower(r - 0xFEE0)
		}
		if unicode.IsSpace(r) || r == '_' {
			return -1
		}
		return r
	}, s)
	if l, ok := leagueAliases[s]; ok {
		return l
	}
	return LeagueOther
}

// Known reports whether the league has a dedicated sub-bucket.
func (l League) Known() bool {
	switch l {
	case LeagueBJ, LeagueJ1, LeagueNBA:
		return true
	}
	return false
}

// Sport returns the sport family of the league.
func (l League) Sport() string {
	switch l {
	case LeagueBJ, LeagueNBA:
		return SportBasketball
	case LeagueJ1:
		return SportFootball
	}
	return SportUnknown
}

// OptionPrefix is the lower-case league segment used in structured option ids.
func (l League) OptionPrefix() string {
	return strings.ToLower(string(l))
}

// Side is a winner pick or an actual result.
type Side string

const (
	SideHome Side = "home"
	SideAway Side = "away"
	SideDraw Side = "draw"
	SideNone Side = ""
)

// ParseSide accepts home/away/draw in any case; anything else is SideNone.
func ParseSide(raw string) Side {
	switch Side(strings.ToLower(strings.TrimSpace(raw))) {
	case SideHome:
		return SideHome
	case SideAway:
		return SideAway
	case SideDraw:
		return SideDraw
	}
	return SideNone
}

// ResultSide returns the side that won a final score.
func ResultSide(home, away int) Side {
	switch {
	case home > away:
		return SideHome
	case away > home:
		return SideAway
	}
	return SideDraw
}
