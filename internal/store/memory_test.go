package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yosoku/stats-engine/internal/models"
)

func TestMemoryStore_ListTicketsByGame_BothKeyShapes(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_ = s.UpsertTicket(ctx, models.Ticket{ID: "t1", AuthorID: "u1", GameID: "g1"})
	_ = s.UpsertTicket(ctx, models.Ticket{ID: "t2", AuthorID: "u2", LegacyGameRef: "g1"})
	_ = s.UpsertTicket(ctx, models.Ticket{ID: "t3", AuthorID: "u3", GameID: "g2"})

	got, err := s.ListTicketsByGame(ctx, "g1")
	if err != nil {
		t.Fatalf("ListTicketsByGame: %v", err)
	}
	if len(got) != 2 || got[0].ID != "t1" || got[1].ID != "t2" {
		t.Errorf("got %+v, want t1 and t2", got)
	}
}

func TestMemoryStore_CommitSettlements_SkipsSettled(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	first := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	_ = s.UpsertTicket(ctx, models.Ticket{ID: "t1", GameID: "g1"})

	err := s.CommitSettlements(ctx, "g1", []models.TicketSettlement{
		{TicketID: "t1", Settlement: models.OutcomeHit, ResultUnit: 0.4, SettledAt: first},
	})
	if err != nil {
		t.Fatalf("first commit: %v", err)
	}
	err = s.CommitSettlements(ctx, "g1", []models.TicketSettlement{
		{TicketID: "t1", Settlement: models.OutcomeMiss, ResultUnit: -1, SettledAt: first.Add(time.Hour)},
	})
	if err != nil {
		t.Fatalf("second commit: %v", err)
	}

	got, _ := s.GetTicket(ctx, "t1")
	if got.Settlement != models.OutcomeHit || got.ResultUnit != 0.4 || !got.SettledAt.Equal(first) {
		t.Errorf("settled ticket was overwritten: %+v", got)
	}
}

func TestMemoryStore_CommitSettlements_AllOrNothing(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_ = s.UpsertTicket(ctx, models.Ticket{ID: "t1", GameID: "g1"})

	err := s.CommitSettlements(ctx, "g1", []models.TicketSettlement{
		{TicketID: "t1", Settlement: models.OutcomeHit, SettledAt: time.Now()},
		{TicketID: "missing", Settlement: models.OutcomeHit, SettledAt: time.Now()},
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	got, _ := s.GetTicket(ctx, "t1")
	if got.SettledAt != nil {
		t.Error("partial batch was written")
	}
}

func TestMemoryStore_ApplyDaily_Idempotent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	task := models.StatsTask{
		UID: "u1", TicketID: "t1", DateKey: "2024-05-01", League: models.LeagueBJ,
		Settlement: models.OutcomeHit,
		Delta:      models.BucketStats{Posts: 1, Hits: 1, Units: 0.4},
	}

	applied, err := s.ApplyDaily(ctx, task)
	if err != nil || !applied {
		t.Fatalf("first apply = %v, %v", applied, err)
	}
	applied, err = s.ApplyDaily(ctx, task)
	if err != nil || applied {
		t.Fatalf("second apply = %v, %v; want false, nil", applied, err)
	}

	buckets, _ := s.ListDailyByUser(ctx, "u1")
	if len(buckets) != 1 {
		t.Fatalf("got %d buckets", len(buckets))
	}
	b := buckets[0]
	if b.All.Posts != 1 || b.Leagues[models.LeagueBJ].Posts != 1 {
		t.Errorf("bucket = %+v", b)
	}
	sum, _ := s.GetSummary(ctx, "u1")
	if sum.CurrentStreak != 1 || sum.MaxStreak != 1 {
		t.Errorf("streak = %d/%d, want 1/1", sum.CurrentStreak, sum.MaxStreak)
	}
}

func TestMemoryStore_IncrementTeamCounters_OncePerGame(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	delta := map[string]int64{"games": 1, "wins": 1}

	for i := 0; i < 3; i++ {
		if _, err := s.IncrementTeamCounters(ctx, "g1", "team-a", delta); err != nil {
			t.Fatal(err)
		}
	}
	applied, _ := s.IncrementTeamCounters(ctx, "g2", "team-a", delta)
	if !applied {
		t.Error("second game was not applied")
	}

	team, err := s.GetTeam(ctx, "team-a")
	if err != nil {
		t.Fatal(err)
	}
	if team.Counters["games"] != 2 || team.Counters["wins"] != 2 {
		t.Errorf("counters = %v", team.Counters)
	}
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_ = s.UpsertTicket(ctx, models.Ticket{ID: "t1", Legs: []models.Leg{{Label: "a"}}})

	got, _ := s.GetTicket(ctx, "t1")
	got.Legs[0].Label = "mutated"

	again, _ := s.GetTicket(ctx, "t1")
	if again.Legs[0].Label != "a" {
		t.Error("stored ticket was mutated through a returned copy")
	}
}

func TestMemoryStore_NotFound(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	if _, err := s.GetGame(ctx, "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetGame err = %v", err)
	}
	if _, err := s.GetSummary(ctx, "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetSummary err = %v", err)
	}
	if _, err := s.GetLeaderboard(ctx, "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetLeaderboard err = %v", err)
	}
	if err := s.UpdateGameDerived(ctx, "x", models.GameDerived{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateGameDerived err = %v", err)
	}
}

func TestQuoteLiteral(t *testing.T) {
	if got := quoteLiteral("game_writes"); got != "'game_writes'" {
		t.Errorf("got %s", got)
	}
	if got := quoteLiteral("a'b"); got != "'a''b'" {
		t.Errorf("got %s", got)
	}
}
