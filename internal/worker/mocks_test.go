package worker

import (
	"context"
	"sync"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/yosoku/stats-engine/internal/models"
)

// MockUserStats implements logic.UserStatsService for testing
type MockUserStats struct {
	mu      sync.Mutex
	Applied []models.StatsTask

	ApplyFunc     func(ctx context.Context, task models.StatsTask) (bool, error)
	RecomputeFunc func(ctx context.Context, now time.Time) (int, error)
}

func (m *MockUserStats) ApplyPostToUserStats(ctx context.Context, task models.StatsTask) (bool, error) {
	m.mu.Lock()
	m.Applied = append(m.Applied, task)
	m.mu.Unlock()
	if m.ApplyFunc != nil {
		return m.ApplyFunc(ctx, task)
	}
	return true, nil
}

func (m *MockUserStats) RebuildWindows(ctx context.Context, uid string, now time.Time) (map[string]models.WindowStats, error) {
	return nil, nil
}

func (m *MockUserStats) RecomputeAllUsersDaily(ctx context.Context, now time.Time) (int, error) {
	if m.RecomputeFunc != nil {
		return m.RecomputeFunc(ctx, now)
	}
	return 0, nil
}

func (m *MockUserStats) AppliedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Applied)
}

// MockRanking implements logic.RankingService for testing
type MockRanking struct {
	MonthlyFunc  func(ctx context.Context, month time.Time) (int, error)
	WindowsFunc  func(ctx context.Context, now time.Time) (int, error)
	CalendarFunc func(ctx context.Context, period string, ref time.Time) (*models.Leaderboard, error)
}

func (m *MockRanking) RebuildMonthly(ctx context.Context, month time.Time) (int, error) {
	if m.MonthlyFunc != nil {
		return m.MonthlyFunc(ctx, month)
	}
	return 0, nil
}

func (m *MockRanking) RebuildWindowLeaderboards(ctx context.Context, now time.Time) (int, error) {
	if m.WindowsFunc != nil {
		return m.WindowsFunc(ctx, now)
	}
	return 0, nil
}

func (m *MockRanking) RebuildCalendar(ctx context.Context, period string, ref time.Time) (*models.Leaderboard, error) {
	if m.CalendarFunc != nil {
		return m.CalendarFunc(ctx, period, ref)
	}
	return &models.Leaderboard{}, nil
}

// MockClickHouseConn implements driver.Conn for testing
type MockClickHouseConn struct {
	driver.Conn

	mu      sync.Mutex
	Queries []string
	Batches []*MockBatch
	SendErr error
}

func (m *MockClickHouseConn) PrepareBatch(ctx context.Context, query string, opts ...driver.PrepareBatchOption) (driver.Batch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := &MockBatch{SendErr: m.SendErr}
	m.Queries = append(m.Queries, query)
	m.Batches = append(m.Batches, b)
	return b, nil
}

// SentRows returns every row of every successfully sent batch.
func (m *MockClickHouseConn) SentRows() [][]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out [][]interface{}
	for _, b := range m.Batches {
		if b.sent {
			out = append(out, b.rows...)
		}
	}
	return out
}

// MockBatch implements driver.Batch
type MockBatch struct {
	driver.Batch
	rows    [][]interface{}
	sent    bool
	SendErr error
}

func (m *MockBatch) IsSent() bool {
	return m.sent
}

func (m *MockBatch) Rows() int {
	return len(m.rows)
}

func (m *MockBatch) Append(v ...interface{}) error {
	m.rows = append(m.rows, v)
	return nil
}

func (m *MockBatch) Send() error {
	if m.SendErr != nil {
		return m.SendErr
	}
	m.sent = true
	return nil
}

func (m *MockBatch) Abort() error {
	return nil
}
