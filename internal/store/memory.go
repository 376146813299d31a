package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/yosoku/stats-engine/internal/models"
)

// MemoryStore is a thread-safe in-memory Store. Every read returns a copy so
// callers cannot mutate stored state.
type MemoryStore struct {
	mu sync.RWMutex

	games       map[string]models.Game
	tickets     map[string]models.Ticket
	teams       map[string]models.TeamStats
	teamApplied map[string]struct{}
	daily       map[string]models.DailyBucket
	applied     map[string]struct{}
	summaries   map[string]models.UserSummary
	monthly     map[string]models.MonthlyUserStats
	boards      map[string]models.Leaderboard
	dirty       map[string]struct{}
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		games:       make(map[string]models.Game),
		tickets:     make(map[string]models.Ticket),
		teams:       make(map[string]models.TeamStats),
		teamApplied: make(map[string]struct{}),
		daily:       make(map[string]models.DailyBucket),
		applied:     make(map[string]struct{}),
		summaries:   make(map[string]models.UserSummary),
		monthly:     make(map[string]models.MonthlyUserStats),
		boards:      make(map[string]models.Leaderboard),
		dirty:       make(map[string]struct{}),
	}
}

// ---------------------------------------------------------------------------
// Games
// ---------------------------------------------------------------------------

func (m *MemoryStore) UpsertGame(_ context.Context, g models.Game) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.games[g.ID]; ok && g.Market == nil {
		// Feed writes never carry derived fields.
		g.Market, g.Upset = prev.Market, prev.Upset
		g.ResolvedHome, g.ResolvedAway, g.FinalizedAt = prev.ResolvedHome, prev.ResolvedAway, prev.FinalizedAt
	}
	m.games[g.ID] = g
	return nil
}

func (m *MemoryStore) GetGame(_ context.Context, id string) (*models.Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.games[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &g, nil
}

func (m *MemoryStore) UpdateGameDerived(_ context.Context, id string, d models.GameDerived) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[id]
	if !ok {
		return ErrNotFound
	}
	market, upset := d.Market, d.Upset
	home, away := d.ResolvedHome, d.ResolvedAway
	g.Market, g.Upset = &market, &upset
	g.ResolvedHome, g.ResolvedAway = &home, &away
	if d.FinalizedAt != nil && g.FinalizedAt == nil {
		at := *d.FinalizedAt
		g.FinalizedAt = &at
	}
	m.games[id] = g
	return nil
}

// ---------------------------------------------------------------------------
// Tickets
// ---------------------------------------------------------------------------

// UpsertTicket stores a ticket. Settled tickets are left untouched.
func (m *MemoryStore) UpsertTicket(_ context.Context, t models.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.tickets[t.ID]; ok && prev.SettledAt != nil {
		return nil
	}
	m.tickets[t.ID] = copyTicket(t)
	return nil
}

func (m *MemoryStore) GetTicket(_ context.Context, id string) (*models.Ticket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tickets[id]
	if !ok {
		return nil, ErrNotFound
	}
	t = copyTicket(t)
	return &t, nil
}

func (m *MemoryStore) ListTicketsByGame(_ context.Context, gameID string) ([]models.Ticket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Ticket
	for _, t := range m.tickets {
		if t.GameID == gameID || (t.GameID == "" && t.LegacyGameRef == gameID) {
			out = append(out, copyTicket(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) CommitSettlements(_ context.Context, _ string, settlements []models.TicketSettlement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range settlements {
		if _, ok := m.tickets[s.TicketID]; !ok {
			return ErrNotFound
		}
	}
	for _, s := range settlements {
		t := m.tickets[s.TicketID]
		if t.SettledAt != nil {
			continue
		}
		at := s.SettledAt
		t.Legs = append([]models.Leg(nil), s.Legs...)
		t.Settlement = s.Settlement
		t.ResultUnit = s.ResultUnit
		t.UsedOdds = s.UsedOdds
		t.SettledAt = &at
		m.tickets[s.TicketID] = t
	}
	return nil
}

func (m *MemoryStore) ListSettledTickets(_ context.Context, from, to time.Time) ([]models.Ticket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Ticket
	for _, t := range m.tickets {
		if t.SettledAt == nil || t.CreatedAt.Before(from) || !t.CreatedAt.Before(to) {
			continue
		}
		out = append(out, copyTicket(t))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// ---------------------------------------------------------------------------
// Teams
// ---------------------------------------------------------------------------

// UpsertTeam stores the team context. Counters and streak state are owned by
// the team stats updater and survive the upsert.
func (m *MemoryStore) UpsertTeam(_ context.Context, t models.TeamStats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.teams[t.TeamID]; ok {
		t.Counters, t.LastGames = prev.Counters, prev.LastGames
		t.CurrentStreak, t.BackToBack = prev.CurrentStreak, prev.BackToBack
	}
	m.teams[t.TeamID] = copyTeam(t)
	return nil
}

func (m *MemoryStore) GetTeam(_ context.Context, id string) (*models.TeamStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.teams[id]
	if !ok {
		return nil, ErrNotFound
	}
	t = copyTeam(t)
	return &t, nil
}

func (m *MemoryStore) IncrementTeamCounters(_ context.Context, gameID, teamID string, delta map[string]int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	marker := gameID + "/" + teamID
	if _, done := m.teamApplied[marker]; done {
		return false, nil
	}
	t, ok := m.teams[teamID]
	if !ok {
		t = models.TeamStats{TeamID: teamID}
	}
	if t.Counters == nil {
		t.Counters = make(map[string]int64, len(delta))
	}
	for k, v := range delta {
		t.Counters[k] += v
	}
	m.teams[teamID] = t
	m.teamApplied[marker] = struct{}{}
	return true, nil
}

func (m *MemoryStore) UpdateTeamStreak(_ context.Context, teamID string, fn func(*models.TeamStats) bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.teams[teamID]
	if !ok {
		t = models.TeamStats{TeamID: teamID}
	}
	t = copyTeam(t)
	if fn(&t) {
		m.teams[teamID] = t
	}
	return nil
}

// ---------------------------------------------------------------------------
// User stats
// ---------------------------------------------------------------------------

func (m *MemoryStore) ApplyDaily(_ context.Context, task models.StatsTask) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := models.DailyKey(task.UID, task.DateKey)
	marker := key + "/" + task.TicketID
	if _, done := m.applied[marker]; done {
		return false, nil
	}

	b, ok := m.daily[key]
	if !ok {
		b = models.DailyBucket{Key: key, UID: task.UID, Date: task.DateKey}
	}
	b = copyBucket(b)
	b.Apply(task.League, task.Delta)
	m.daily[key] = b
	m.applied[marker] = struct{}{}

	s := m.summaries[task.UID]
	s.UID = task.UID
	s.CurrentStreak = models.ApplyStreak(s.CurrentStreak, task.Settlement)
	if s.CurrentStreak > s.MaxStreak {
		s.MaxStreak = s.CurrentStreak
	}
	m.summaries[task.UID] = s
	return true, nil
}

func (m *MemoryStore) ListDailyByKeys(_ context.Context, keys []string) ([]models.DailyBucket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.DailyBucket
	for _, k := range keys {
		if b, ok := m.daily[k]; ok {
			out = append(out, copyBucket(b))
		}
	}
	return out, nil
}

func (m *MemoryStore) ListDailyByUser(_ context.Context, uid string) ([]models.DailyBucket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.DailyBucket
	for _, b := range m.daily {
		if b.UID == uid {
			out = append(out, copyBucket(b))
		}
	}
	sortBuckets(out)
	return out, nil
}

func (m *MemoryStore) ListDailyBetween(_ context.Context, fromDate, toDate string) ([]models.DailyBucket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.DailyBucket
	for _, b := range m.daily {
		if b.Date >= fromDate && b.Date <= toDate {
			out = append(out, copyBucket(b))
		}
	}
	sortBuckets(out)
	return out, nil
}

func (m *MemoryStore) ListUIDs(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := make(map[string]struct{})
	for _, b := range m.daily {
		seen[b.UID] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for uid := range seen {
		out = append(out, uid)
	}
	sort.Strings(out)
	return out, nil
}

func (m *MemoryStore) GetSummary(_ context.Context, uid string) (*models.UserSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.summaries[uid]
	if !ok {
		return nil, ErrNotFound
	}
	s.Windows = copyWindows(s.Windows)
	return &s, nil
}

func (m *MemoryStore) PutWindows(_ context.Context, uid string, windows map[string]models.WindowStats, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.summaries[uid]
	s.UID = uid
	s.Windows = copyWindows(windows)
	s.UpdatedAt = at
	m.summaries[uid] = s
	return nil
}

func (m *MemoryStore) PutMonthly(_ context.Context, stats []models.MonthlyUserStats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range stats {
		m.monthly[s.Key] = s
	}
	return nil
}

func (m *MemoryStore) GetMonthly(_ context.Context, key string) (*models.MonthlyUserStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.monthly[key]
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

// ---------------------------------------------------------------------------
// Leaderboards
// ---------------------------------------------------------------------------

func (m *MemoryStore) PutLeaderboard(_ context.Context, lb models.Leaderboard) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	lb.Entries = append([]models.LeaderboardEntry(nil), lb.Entries...)
	m.boards[lb.ID] = lb
	return nil
}

func (m *MemoryStore) GetLeaderboard(_ context.Context, id string) (*models.Leaderboard, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	lb, ok := m.boards[id]
	if !ok {
		return nil, ErrNotFound
	}
	lb.Entries = append([]models.LeaderboardEntry(nil), lb.Entries...)
	return &lb, nil
}

// MarkTrendDirty records a game for the trend rebuild.
func (m *MemoryStore) MarkTrendDirty(_ context.Context, gameID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dirty[gameID] = struct{}{}
	return nil
}

// TrendDirty lists the flagged games.
func (m *MemoryStore) TrendDirty() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.dirty))
	for id := range m.dirty {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// ---------------------------------------------------------------------------
// copy helpers
// ---------------------------------------------------------------------------

func copyTicket(t models.Ticket) models.Ticket {
	t.Legs = append([]models.Leg(nil), t.Legs...)
	if t.SettledAt != nil {
		at := *t.SettledAt
		t.SettledAt = &at
	}
	return t
}

func copyTeam(t models.TeamStats) models.TeamStats {
	if t.Counters != nil {
		c := make(map[string]int64, len(t.Counters))
		for k, v := range t.Counters {
			c[k] = v
		}
		t.Counters = c
	}
	t.LastGames = append([]models.TeamGameEntry(nil), t.LastGames...)
	return t
}

func copyBucket(b models.DailyBucket) models.DailyBucket {
	if b.Leagues != nil {
		l := make(map[models.League]*models.BucketStats, len(b.Leagues))
		for k, v := range b.Leagues {
			sub := *v
			l[k] = &sub
		}
		b.Leagues = l
	}
	return b
}

func copyWindows(w map[string]models.WindowStats) map[string]models.WindowStats {
	if w == nil {
		return nil
	}
	out := make(map[string]models.WindowStats, len(w))
	for k, v := range w {
		if v.Leagues != nil {
			l := make(map[models.League]models.BucketStats, len(v.Leagues))
			for lk, lv := range v.Leagues {
				l[lk] = lv
			}
			v.Leagues = l
		}
		out[k] = v
	}
	return out
}

func sortBuckets(b []models.DailyBucket) {
	sort.Slice(b, func(i, j int) bool {
		if b[i].Date == b[j].Date {
			return strings.Compare(b[i].UID, b[j].UID) < 0
		}
		return b[i].Date < b[j].Date
	})
}
