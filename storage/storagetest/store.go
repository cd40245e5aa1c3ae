// Package storagetest provides an in-memory storage.Store for exercising the
// mapping engine without a database. Rows live in per-table slices in
// insertion order, keys are assigned deterministically, and every port call
// is journaled so tests can assert cascade ordering.
package storagetest

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/cascade-orm/cascade/storage"
)

// Op records one call through the storage port
type Op struct {
	Kind  string
	Table string
}

// Store is an in-memory storage.Store. The zero value is not usable;
// construct with New.
type Store struct {
	mu      sync.Mutex
	tables  map[string][]storage.Record
	journal []Op
	keyFunc func(table string) any

	// Fail, when set, is consulted before every operation. A non-nil
	// return makes that operation fail with the returned error.
	Fail func(kind, table string) error
}

// Option configures a Store
type Option func(*Store)

// WithKeyFunc makes the store assign keys from f instead of auto-incrementing
func WithKeyFunc(f func(table string) any) Option {
	return func(s *Store) {
		s.keyFunc = f
	}
}

// WithUUIDKeys makes the store assign uuid string keys
func WithUUIDKeys() Option {
	return WithKeyFunc(func(string) any {
		return uuid.NewString()
	})
}

// New creates an empty in-memory store
func New(opts ...Option) *Store {
	s := &Store{
		tables: make(map[string][]storage.Record),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Seed inserts rows into a table without journaling, for test setup
func (s *Store) Seed(table string, recs ...storage.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range recs {
		s.tables[table] = append(s.tables[table], cloneRecord(rec))
	}
}

// Rows returns a copy of a table's rows in insertion order
func (s *Store) Rows(table string) []storage.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.tables[table]
	out := make([]storage.Record, len(rows))
	for i, rec := range rows {
		out[i] = cloneRecord(rec)
	}
	return out
}

// Journal returns the operations performed so far
func (s *Store) Journal() []Op {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Op, len(s.journal))
	copy(out, s.journal)
	return out
}

// ResetJournal clears the op journal, keeping the data
func (s *Store) ResetJournal() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.journal = nil
}

// Count implements storage.Store
func (s *Store) Count(ctx context.Context, table string, filters []storage.Filter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.begin(ctx, "count", table); err != nil {
		return 0, err
	}

	var n int64
	for _, rec := range s.tables[table] {
		if matches(rec, filters) {
			n++
		}
	}
	return n, nil
}

// Read implements storage.Store
func (s *Store) Read(ctx context.Context, table string, columns []string, filters []storage.Filter, limit int) ([]storage.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.begin(ctx, "read", table); err != nil {
		return nil, err
	}

	var out []storage.Record
	for _, rec := range s.tables[table] {
		if !matches(rec, filters) {
			continue
		}
		row := make(storage.Record, len(columns))
		for _, col := range columns {
			row[col] = rec[col]
		}
		out = append(out, row)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Create implements storage.Store
func (s *Store) Create(ctx context.Context, table, pkColumn string, columns []string, rec storage.Record) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.begin(ctx, "create", table); err != nil {
		return nil, err
	}

	row := make(storage.Record, len(columns)+1)
	for _, col := range columns {
		row[col] = rec[col]
	}

	var key any
	if pkColumn != "" {
		if containsColumn(columns, pkColumn) {
			key = rec[pkColumn]
		} else {
			key = s.nextKey(table, pkColumn)
			row[pkColumn] = key
		}
	}

	s.tables[table] = append(s.tables[table], row)
	return key, nil
}

// Update implements storage.Store
func (s *Store) Update(ctx context.Context, table, pkColumn string, columns []string, rec storage.Record) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.begin(ctx, "update", table); err != nil {
		return nil, err
	}

	key := rec[pkColumn]
	for _, row := range s.tables[table] {
		if !valueEq(row[pkColumn], key) {
			continue
		}
		for _, col := range columns {
			if col == pkColumn {
				continue
			}
			row[col] = rec[col]
		}
	}
	return key, nil
}

// Delete implements storage.Store
func (s *Store) Delete(ctx context.Context, table string, filters []storage.Filter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.begin(ctx, "delete", table); err != nil {
		return err
	}

	rows := s.tables[table]
	kept := rows[:0]
	for _, rec := range rows {
		if !matches(rec, filters) {
			kept = append(kept, rec)
		}
	}
	s.tables[table] = kept
	return nil
}

// begin journals the operation and applies context and injected failures.
// Callers hold the mutex.
func (s *Store) begin(ctx context.Context, kind, table string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.journal = append(s.journal, Op{Kind: kind, Table: table})
	if s.Fail != nil {
		if err := s.Fail(kind, table); err != nil {
			return err
		}
	}
	return nil
}

// nextKey assigns the next auto-increment key for a table. Callers hold the
// mutex.
func (s *Store) nextKey(table, pkColumn string) any {
	if s.keyFunc != nil {
		return s.keyFunc(table)
	}

	var max int64
	for _, rec := range s.tables[table] {
		if n, ok := asInt64(rec[pkColumn]); ok && n > max {
			max = n
		}
	}
	return max + 1
}

func cloneRecord(rec storage.Record) storage.Record {
	out := make(storage.Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}

func containsColumn(columns []string, name string) bool {
	for _, col := range columns {
		if col == name {
			return true
		}
	}
	return false
}

func matches(rec storage.Record, filters []storage.Filter) bool {
	for _, f := range filters {
		if !valueEq(rec[f.Column], f.Value) {
			return false
		}
	}
	return true
}

// valueEq compares stored and filter values the way a database would:
// numeric values compare by magnitude regardless of Go width.
func valueEq(a, b any) bool {
	if a == nil || b == nil {
		return a == b
	}
	if ai, ok := asInt64(a); ok {
		if bi, ok := asInt64(b); ok {
			return ai == bi
		}
		if bf, ok := asFloat64(b); ok {
			return float64(ai) == bf
		}
		return false
	}
	if af, ok := asFloat64(a); ok {
		if bf, ok := asFloat64(b); ok {
			return af == bf
		}
		if bi, ok := asInt64(b); ok {
			return af == float64(bi)
		}
		return false
	}
	return a == b
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), true
	default:
		return 0, false
	}
}

func asFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
