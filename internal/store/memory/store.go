// Package memory implements an in-memory table Store for tests and dry runs.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/JonMunkholm/spregistry/internal/store/table"
)

// Store implements table.Store backed by process memory.
type Store struct {
	mu     sync.RWMutex
	tables map[string]table.Table
}

// New returns an empty in-memory store.
func New() *Store { return &Store{tables: make(map[string]table.Table)} }

// Driver returns the table driver identifier.
func (s *Store) Driver() table.Driver { return table.DriverMemory }

// Load returns a copy of the named table's rows.
func (s *Store) Load(_ context.Context, name string, _ []string) ([]table.Row, error) {
	s.mu.RLock()
	t, ok := s.tables[name]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, table.ErrNotFound)
	}
	return cloneRows(t.Rows), nil
}

// Commit replaces every given table under a single lock.
func (s *Store) Commit(ctx context.Context, tables ...table.Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	staged := make([]table.Table, len(tables))
	for i, t := range tables {
		if t.Name == "" {
			return fmt.Errorf("table %d: empty name", i)
		}
		staged[i] = table.Table{
			Name:    t.Name,
			Columns: append([]string(nil), t.Columns...),
			Rows:    cloneRows(t.Rows),
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range staged {
		s.tables[t.Name] = t
	}
	return nil
}

// Put seeds a table.
func (s *Store) Put(name string, columns []string, rows []table.Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[name] = table.Table{Name: name, Columns: append([]string(nil), columns...), Rows: cloneRows(rows)}
}

// Snapshot returns a copy of the named table and whether it exists.
func (s *Store) Snapshot(name string) (table.Table, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[name]
	if !ok {
		return table.Table{}, false
	}
	return table.Table{Name: t.Name, Columns: append([]string(nil), t.Columns...), Rows: cloneRows(t.Rows)}, true
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

func cloneRows(rows []table.Row) []table.Row {
	if rows == nil {
		return nil
	}
	out := make([]table.Row, len(rows))
	for i, r := range rows {
		out[i] = r.Clone()
	}
	return out
}
