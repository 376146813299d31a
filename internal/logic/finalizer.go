package logic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yosoku/stats-engine/internal/models"
	"github.com/yosoku/stats-engine/internal/scoring"
	"github.com/yosoku/stats-engine/internal/settlement"
	"github.com/yosoku/stats-engine/internal/store"
)

// FinalizeReport summarizes one finalization run.
type FinalizeReport struct {
	GameID          string                `json:"game_id"`
	Skipped         bool                  `json:"skipped"`
	FirstTransition bool                  `json:"first_transition"`
	Settled         int                   `json:"settled"`
	AlreadySettled  int                   `json:"already_settled"`
	Dispatched      int                   `json:"dispatched"`
	Corrections     int                   `json:"corrections"`
	Market          models.MarketSnapshot `json:"market"`
	Upset           models.UpsetInfo      `json:"upset"`
}

// FinalizerDeps wires the finalizer. Trend and Dispatcher are optional; without
// a dispatcher stats are applied inline.
type FinalizerDeps struct {
	Games      store.GameRepo
	Tickets    store.TicketRepo
	Teams      store.TeamRepo
	Trend      store.TrendMarker
	TeamStats  TeamStatsService
	UserStats  UserStatsService
	Dispatcher Dispatcher
	Judge      settlement.LegJudge
	Logger     *zap.Logger
	Now        func() time.Time
}

type finalizer struct {
	games      store.GameRepo
	tickets    store.TicketRepo
	teams      store.TeamRepo
	trend      store.TrendMarker
	teamStats  TeamStatsService
	userStats  UserStatsService
	dispatcher Dispatcher
	judge      settlement.LegJudge
	logger     *zap.SugaredLogger
	now        func() time.Time

	locks sync.Map // game id -> *sync.Mutex
}

// NewFinalizer creates the game finalization orchestrator.
func NewFinalizer(d FinalizerDeps) FinalizerService {
	f := &finalizer{
		games:      d.Games,
		tickets:    d.Tickets,
		teams:      d.Teams,
		trend:      d.Trend,
		teamStats:  d.TeamStats,
		userStats:  d.UserStats,
		dispatcher: d.Dispatcher,
		judge:      d.Judge,
		now:        d.Now,
	}
	if f.judge == nil {
		f.judge = settlement.DefaultJudge
	}
	if f.now == nil {
		f.now = time.Now
	}
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	f.logger = logger.Sugar()
	return f
}

// ShouldFinalize reports whether a game write needs settlement: the game just
// became final, or its score changed while already final.
func ShouldFinalize(before, after *models.Game) bool {
	if after == nil || !after.Final {
		return false
	}
	if before == nil || !before.Final {
		return true
	}
	return before.HomeScore != after.HomeScore || before.AwayScore != after.AwayScore
}

// HandleGameWrite is the trigger entry point. Duplicate deliveries are no-ops.
func (f *finalizer) HandleGameWrite(ctx context.Context, w models.GameWrite) (*FinalizeReport, error) {
	if w.After == nil {
		return nil, errors.New("game write has no after image")
	}
	if !ShouldFinalize(w.Before, w.After) {
		finalizationsTotal.WithLabelValues("skipped").Inc()
		return &FinalizeReport{GameID: w.After.ID, Skipped: true}, nil
	}
	first := w.Before == nil || !w.Before.Final || w.After.FinalizedAt == nil
	return f.run(ctx, *w.After, first)
}

// ReplayGame re-runs finalization from the stored game. Already settled
// tickets are not re-settled but their stats application is re-attempted.
func (f *finalizer) ReplayGame(ctx context.Context, gameID string) (*FinalizeReport, error) {
	g, err := f.games.GetGame(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("load game %s: %w", gameID, err)
	}
	if !g.Final {
		return &FinalizeReport{GameID: gameID, Skipped: true}, nil
	}
	return f.run(ctx, *g, g.FinalizedAt == nil)
}

func (f *finalizer) run(ctx context.Context, g models.Game, first bool) (*FinalizeReport, error) {
	mu, _ := f.locks.LoadOrStore(g.ID, &sync.Mutex{})
	mu.(*sync.Mutex).Lock()
	defer mu.(*sync.Mutex).Unlock()

	start := time.Now()
	report, err := f.finalize(ctx, g, first)
	if err != nil {
		finalizationsTotal.WithLabelValues("error").Inc()
		f.logger.Errorw("Finalization failed", "game", g.ID, "error", err)
		return nil, err
	}
	finalizationsTotal.WithLabelValues("ok").Inc()
	f.logger.Infow("Game finalized",
		"game", g.ID,
		"first", first,
		"settled", report.Settled,
		"already_settled", report.AlreadySettled,
		"dispatched", report.Dispatched,
		"upset", report.Upset.IsUpset,
		"duration", time.Since(start),
	)
	return report, nil
}

func (f *finalizer) finalize(ctx context.Context, g models.Game, first bool) (*FinalizeReport, error) {
	g.League = models.NormalizeLeague(string(g.League))
	report := &FinalizeReport{GameID: g.ID, FirstTransition: first}

	tickets, err := f.tickets.ListTicketsByGame(ctx, g.ID)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	home, away, err := f.loadTeams(ctx, g)
	if err != nil {
		return nil, err
	}

	res := settlement.NewGameResult(&g, home, away)
	picks := make([]models.Side, 0, len(tickets))
	for _, t := range tickets {
		picks = append(picks, TicketSide(t, res))
	}
	report.Market = scoring.CalcMarket(picks)
	report.Upset = models.UpsetInfo{Winner: g.Winner(), MajoritySide: report.Market.MajoritySide}
	if home != nil && away != nil {
		report.Upset.WinDiff = scoring.UpsetWinDiff(report.Upset.Winner, home.Wins, away.Wins)
		report.Upset.IsUpset = scoring.JudgeUpset(report.Market, report.Upset.Winner, home.Wins, away.Wins)
	}

	now := f.now()
	var (
		batch []models.TicketSettlement
		tasks []models.StatsTask
	)
	for _, t := range tickets {
		if t.SettledAt != nil {
			report.AlreadySettled++
			if !first && settlement.SettleTicket(res, t.Legs, f.judge).Settlement != t.Settlement {
				report.Corrections++
			}
			tasks = append(tasks, BuildStatsTask(t, g, res, report.Market, report.Upset.IsUpset))
			continue
		}
		r := settlement.SettleTicket(res, t.Legs, f.judge)
		batch = append(batch, models.TicketSettlement{
			TicketID:   t.ID,
			Legs:       r.Legs,
			Settlement: r.Settlement,
			ResultUnit: r.Payout,
			UsedOdds:   r.UsedOdds,
			SettledAt:  now,
		})
		settledAt := now
		t.Legs, t.Settlement, t.ResultUnit, t.UsedOdds, t.SettledAt = r.Legs, r.Settlement, r.Payout, r.UsedOdds, &settledAt
		tasks = append(tasks, BuildStatsTask(t, g, res, report.Market, report.Upset.IsUpset))
	}

	if err := f.tickets.CommitSettlements(ctx, g.ID, batch); err != nil {
		return nil, fmt.Errorf("commit settlement batch: %w", err)
	}
	for _, s := range batch {
		ticketsSettled.WithLabelValues(string(s.Settlement)).Inc()
	}
	report.Settled = len(batch)

	if report.Corrections > 0 {
		scoreCorrectionsUnpropagated.Add(float64(report.Corrections))
		f.logger.Warnw("Score corrected after finalization; settled tickets keep their outcome",
			"game", g.ID, "home_score", g.HomeScore, "away_score", g.AwayScore, "affected", report.Corrections)
	}

	for _, task := range tasks {
		if f.dispatch(ctx, task) {
			report.Dispatched++
		}
	}

	derived := models.GameDerived{
		Market:       report.Market,
		Upset:        report.Upset,
		ResolvedHome: g.HomeScore,
		ResolvedAway: g.AwayScore,
	}
	if first {
		derived.FinalizedAt = &now
	}
	if err := f.games.UpdateGameDerived(ctx, g.ID, derived); err != nil {
		downstreamFailures.WithLabelValues("game_derived").Inc()
		f.logger.Warnw("Failed to write derived game fields", "game", g.ID, "error", err)
	}

	if first {
		f.scheduleDownstream(ctx, g, home, away)
	}
	return report, nil
}

func (f *finalizer) dispatch(ctx context.Context, task models.StatsTask) bool {
	if f.dispatcher != nil && f.dispatcher.Enqueue(task) {
		return true
	}
	if f.userStats == nil {
		f.logger.Errorw("Stats task dropped", "game", task.GameID, "ticket", task.TicketID, "uid", task.UID)
		return false
	}
	if _, err := f.userStats.ApplyPostToUserStats(ctx, task); err != nil {
		f.logger.Errorw("Failed to apply stats", "game", task.GameID, "ticket", task.TicketID, "uid", task.UID, "error", err)
		return false
	}
	return true
}

func (f *finalizer) scheduleDownstream(ctx context.Context, g models.Game, home, away *models.TeamContext) {
	if f.trend != nil {
		if err := f.trend.MarkTrendDirty(ctx, g.ID); err != nil {
			downstreamFailures.WithLabelValues("trend").Inc()
			f.logger.Warnw("Failed to flag trend rebuild", "game", g.ID, "error", err)
		}
	}
	if f.teamStats != nil {
		if err := f.teamStats.UpdateTeamsForGame(ctx, g, home, away); err != nil {
			downstreamFailures.WithLabelValues("team_stats").Inc()
			f.logger.Errorw("Failed to update team stats", "game", g.ID, "error", err)
		}
	}
}

// loadTeams fetches both sides concurrently. A missing team is nil.
func (f *finalizer) loadTeams(ctx context.Context, g models.Game) (home, away *models.TeamContext, err error) {
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		home, err = f.loadTeam(egCtx, g.ID, g.HomeTeamID)
		return err
	})
	eg.Go(func() error {
		var err error
		away, err = f.loadTeam(egCtx, g.ID, g.AwayTeamID)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, nil, err
	}
	return home, away, nil
}

func (f *finalizer) loadTeam(ctx context.Context, gameID, teamID string) (*models.TeamContext, error) {
	if teamID == "" || f.teams == nil {
		return nil, nil
	}
	t, err := f.teams.GetTeam(ctx, teamID)
	if errors.Is(err, store.ErrNotFound) {
		f.logger.Warnw("Team context missing", "game", gameID, "team", teamID)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load team %s: %w", teamID, err)
	}
	c := t.Context()
	return &c, nil
}

// TicketSide is the winner a ticket picked: the explicit pick, the side of its
// main structured leg, or the side its main free-text label names.
func TicketSide(t models.Ticket, res settlement.GameResult) models.Side {
	if t.Pick.Winner != models.SideNone {
		return models.ParseSide(string(t.Pick.Winner))
	}
	for _, leg := range t.Legs {
		if leg.Kind != models.LegMain && leg.Kind != "" {
			continue
		}
		if leg.OptionID != "" {
			if parts := strings.Split(leg.OptionID, ":"); len(parts) == 3 {
				return models.ParseSide(parts[1])
			}
			continue
		}
		if side := settlement.InferSide(leg.Label, res); side != models.SideNone {
			return side
		}
	}
	return models.SideNone
}
