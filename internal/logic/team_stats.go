package logic

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/yosoku/stats-engine/internal/models"
	"github.com/yosoku/stats-engine/internal/store"
)

// Rank tier cutoffs: ranks 1-6 are tier 1, 7-12 tier 2, and so on.
var tierCutoffs = []int{6, 12, 18, 24}

// sameTierCushion makes teams within this many ranks the same tier.
const sameTierCushion = 2

// Tier relations of an opponent, from the team's point of view.
const (
	TierMuchHigher = "much_higher"
	TierHigher     = "higher"
	TierSame       = "same"
	TierLower      = "lower"
	TierMuchLower  = "much_lower"
)

var tierRelations = []string{TierMuchHigher, TierHigher, TierSame, TierLower, TierMuchLower}

// Close-game margins per sport.
const (
	closeMarginBasketball = 5
	closeMarginFootball   = 1
)

// backToBackWindow is the gap under which consecutive games count as back-to-back.
const backToBackWindow = 24 * time.Hour

type teamStatsService struct {
	teams  store.TeamRepo
	logger *zap.SugaredLogger
}

// NewTeamStatsService creates the team counter and streak updater.
func NewTeamStatsService(teams store.TeamRepo, logger *zap.Logger) TeamStatsService {
	return &teamStatsService{teams: teams, logger: logger.Sugar()}
}

// RankTier maps a rank to tier 1..5, or 0 when unknown.
func RankTier(rank int) int {
	if rank <= 0 {
		return 0
	}
	for i, cutoff := range tierCutoffs {
		if rank <= cutoff {
			return i + 1
		}
	}
	return len(tierCutoffs) + 1
}

// TierRelation classifies the opponent relative to the team. Ranks within the
// cushion are always the same tier regardless of the cutoffs between them.
func TierRelation(rank, oppRank int) (string, bool) {
	if rank <= 0 || oppRank <= 0 {
		return "", false
	}
	diff := rank - oppRank
	if diff < 0 {
		diff = -diff
	}
	if diff <= sameTierCushion {
		return TierSame, true
	}
	// Positive when the opponent sits in a stronger (lower-numbered) tier.
	delta := RankTier(rank) - RankTier(oppRank)
	switch {
	case delta >= 2:
		return TierMuchHigher, true
	case delta == 1:
		return TierHigher, true
	case delta == 0:
		return TierSame, true
	case delta == -1:
		return TierLower, true
	default:
		return TierMuchLower, true
	}
}

func b2i(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func closeMargin(league models.League) int {
	if league.Sport() == models.SportFootball {
		return closeMarginFootball
	}
	return closeMarginBasketball
}

// TeamCounterDelta computes the counter increments for one side of a final
// game. Every key is 0 or 1. Splits that need missing team context are left
// out.
func TeamCounterDelta(g models.Game, home bool, self, opp *models.TeamContext, backToBack bool) map[string]int64 {
	side := models.SideAway
	if home {
		side = models.SideHome
	}
	winner := g.Winner()
	win := winner == side
	draw := winner == models.SideDraw

	d := map[string]int64{
		"games":  1,
		"wins":   b2i(win),
		"losses": b2i(!win && !draw),
		"draws":  b2i(draw),

		"home_games": b2i(home),
		"home_wins":  b2i(home && win),
		"away_games": b2i(!home),
		"away_wins":  b2i(!home && win),

		"close_games": b2i(g.Margin() <= closeMargin(g.League)),
		"close_wins":  b2i(g.Margin() <= closeMargin(g.League) && win),

		"b2b_games": b2i(backToBack),
		"b2b_wins":  b2i(backToBack && win),
	}
	if self == nil || opp == nil {
		return d
	}

	d["vs_higher_games"] = b2i(opp.Wins > self.Wins)
	d["vs_higher_wins"] = b2i(opp.Wins > self.Wins && win)
	d["vs_lower_games"] = b2i(opp.Wins < self.Wins)
	d["vs_lower_wins"] = b2i(opp.Wins < self.Wins && win)

	if self.Conference != "" && opp.Conference != "" {
		same := self.Conference == opp.Conference
		d["conf_games"] = b2i(same)
		d["conf_wins"] = b2i(same && win)
		d["nonconf_games"] = b2i(!same)
		d["nonconf_wins"] = b2i(!same && win)
	}

	if rel, ok := TierRelation(self.Rank, opp.Rank); ok {
		for _, r := range tierRelations {
			d["tier_"+r+"_games"] = b2i(r == rel)
			d["tier_"+r+"_wins"] = b2i(r == rel && win)
		}
	}
	return d
}

// ApplyGameToStreak records a game in the team's ring buffer and advances the
// signed streak. It returns false when the game is already recorded, along
// with the back-to-back flag of the recorded entry.
func ApplyGameToStreak(t *models.TeamStats, e models.TeamGameEntry) (bool, bool) {
	for _, prev := range t.LastGames {
		if prev.GameID == e.GameID {
			return false, prev.BackToBack
		}
	}

	games := append(append([]models.TeamGameEntry(nil), t.LastGames...), e)
	sort.SliceStable(games, func(i, j int) bool { return games[i].PlayedAt.Before(games[j].PlayedAt) })
	for i := range games {
		if games[i].GameID != e.GameID {
			continue
		}
		if i > 0 {
			gap := games[i].PlayedAt.Sub(games[i-1].PlayedAt)
			games[i].BackToBack = gap > 0 && gap <= backToBackWindow
		}
		e.BackToBack = games[i].BackToBack
		break
	}
	if len(games) > models.MaxLastGames {
		games = games[len(games)-models.MaxLastGames:]
	}

	t.LastGames = games
	t.CurrentStreak = models.ApplyStreak(t.CurrentStreak, e.Result)
	t.BackToBack = e.BackToBack
	return true, e.BackToBack
}

// UpdateTeamsForGame updates both teams of a final game. Each side's streak is
// updated first, in its own transaction, so the counters can use its
// back-to-back flag.
func (s *teamStatsService) UpdateTeamsForGame(ctx context.Context, g models.Game, home, away *models.TeamContext) error {
	playedAt := g.StartAt
	if playedAt.IsZero() {
		playedAt = time.Now()
	}
	winner := g.Winner()

	sides := []struct {
		teamID, oppID string
		home          bool
		self, opp     *models.TeamContext
	}{
		{g.HomeTeamID, g.AwayTeamID, true, home, away},
		{g.AwayTeamID, g.HomeTeamID, false, away, home},
	}

	var errs []error
	for _, side := range sides {
		if side.teamID == "" {
			continue
		}
		result := models.OutcomeVoid
		switch {
		case winner == models.SideHome && side.home, winner == models.SideAway && !side.home:
			result = models.OutcomeHit
		case winner != models.SideDraw:
			result = models.OutcomeMiss
		}
		entry := models.TeamGameEntry{
			GameID:     g.ID,
			OpponentID: side.oppID,
			PlayedAt:   playedAt,
			Result:     result,
			Home:       side.home,
		}

		var b2b bool
		err := s.teams.UpdateTeamStreak(ctx, side.teamID, func(t *models.TeamStats) bool {
			var changed bool
			changed, b2b = ApplyGameToStreak(t, entry)
			return changed
		})
		if err != nil {
			// The counters marker is only written once b2b is known; a retry
			// of the game applies both.
			errs = append(errs, fmt.Errorf("streak of team %s: %w", side.teamID, err))
			continue
		}

		delta := TeamCounterDelta(g, side.home, side.self, side.opp, b2b)
		applied, err := s.teams.IncrementTeamCounters(ctx, g.ID, side.teamID, delta)
		if err != nil {
			errs = append(errs, fmt.Errorf("counters of team %s: %w", side.teamID, err))
			continue
		}
		if !applied {
			s.logger.Debugw("Team counters already applied", "game", g.ID, "team", side.teamID)
		}
	}
	return errors.Join(errs...)
}
