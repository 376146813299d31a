package logic

import (
	"context"
	"reflect"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// MockConn serves canned rows for every Query call.
type MockConn struct {
	driver.Conn
	Rows       [][]interface{}
	QueryErr   error
	QueryCalls int
	LastQuery  string
	LastArgs   []interface{}
}

func (m *MockConn) Query(ctx context.Context, query string, args ...interface{}) (driver.Rows, error) {
	m.QueryCalls++
	m.LastQuery = query
	m.LastArgs = args
	if m.QueryErr != nil {
		return nil, m.QueryErr
	}
	return &MockRows{rows: m.Rows, rowIndex: -1}, nil
}

type MockRows struct {
	driver.Rows
	rows     [][]interface{}
	rowIndex int
}

func (m *MockRows) Next() bool {
	m.rowIndex++
	return m.rowIndex < len(m.rows)
}

func (m *MockRows) Scan(dest ...interface{}) error {
	for i, val := range m.rows[m.rowIndex] {
		assign(dest[i], val)
	}
	return nil
}

func (m *MockRows) Close() error {
	return nil
}

func (m *MockRows) Err() error {
	return nil
}

func assign(dest interface{}, val interface{}) {
	// Simple reflection to assign value to pointer
	v := reflect.ValueOf(dest).Elem()
	v.Set(reflect.ValueOf(val))
}
