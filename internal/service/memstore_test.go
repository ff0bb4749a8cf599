package service_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/Giancarlo174/cenit/internal/domain"
	"github.com/Giancarlo174/cenit/internal/port"

	"github.com/google/uuid"
)

// memStore is an in-memory RecordStore for tests. It mimics the
// backend's contract: server-assigned ids and created timestamps, eq
// and IS NULL filters, single-column ordering.
type memStore struct {
	mu     sync.Mutex
	tables map[string][]map[string]any
	seq    int

	// Calls counts every operation that would reach the network.
	Calls int
	// FailNext makes the next operation fail with this error.
	FailNext error
}

func newMemStore() *memStore {
	return &memStore{tables: map[string][]map[string]any{}}
}

func (m *memStore) takeFailure() error {
	err := m.FailNext
	m.FailNext = nil
	return err
}

func (m *memStore) List(_ context.Context, table string, q port.Query) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if err := m.takeFailure(); err != nil {
		return nil, err
	}

	var out []map[string]any
	for _, row := range m.tables[table] {
		if matchesFilters(row, q.Filters) {
			out = append(out, row)
		}
	}

	if q.OrderBy != nil {
		col, asc := q.OrderBy.Column, q.OrderBy.Ascending
		sort.SliceStable(out, func(i, j int) bool {
			less := lessValues(out[i][col], out[j][col])
			if asc {
				return less
			}
			return !less && !equalValues(out[i][col], out[j][col])
		})
	}

	if out == nil {
		return json.RawMessage("[]"), nil
	}
	return json.Marshal(out)
}

func (m *memStore) GetByID(_ context.Context, table, id string) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if err := m.takeFailure(); err != nil {
		return nil, err
	}

	for _, row := range m.tables[table] {
		if row["id"] == id {
			return json.Marshal(row)
		}
	}
	return nil, &domain.ErrNotFound{Resource: table, ID: id}
}

func (m *memStore) Insert(_ context.Context, table string, record map[string]any) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if err := m.takeFailure(); err != nil {
		return nil, err
	}

	row := make(map[string]any, len(record)+2)
	for k, v := range record {
		row[k] = v
	}
	if _, ok := row["id"]; !ok {
		row["id"] = uuid.NewString()
	}
	m.seq++
	row["created_at"] = fmt.Sprintf("2025-01-01T00:00:%02dZ", m.seq)

	m.tables[table] = append(m.tables[table], row)
	return json.Marshal(row)
}

func (m *memStore) Update(_ context.Context, table, id string, record map[string]any) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if err := m.takeFailure(); err != nil {
		return nil, err
	}

	for _, row := range m.tables[table] {
		if row["id"] == id {
			for k, v := range record {
				row[k] = v
			}
			return json.Marshal(row)
		}
	}
	return nil, &domain.ErrNotFound{Resource: table, ID: id}
}

func (m *memStore) Delete(_ context.Context, table, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if err := m.takeFailure(); err != nil {
		return err
	}

	rows := m.tables[table]
	for i, row := range rows {
		if row["id"] == id {
			m.tables[table] = append(rows[:i], rows[i+1:]...)
			return nil
		}
	}
	return &domain.ErrNotFound{Resource: table, ID: id}
}

func matchesFilters(row map[string]any, filters map[string]any) bool {
	for col, want := range filters {
		got, ok := row[col]
		if want == nil {
			if ok && got != nil {
				return false
			}
			continue
		}
		if !ok || got == nil || fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

func lessValues(a, b any) bool {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		return af < bf
	}
	return fmt.Sprint(a) < fmt.Sprint(b)
}

func equalValues(a, b any) bool {
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
