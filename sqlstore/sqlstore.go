// Package sqlstore implements the storage port over database/sql. Postgres
// and SQLite dialects are built in; hand Open a driver name and DSN, or wrap
// an already-open handle with New.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cascade-orm/cascade/storage"
)

// Store is a storage.Store backed by a SQL database. A Store is safe for
// concurrent use; it adds no locking of its own beyond the database's.
type Store struct {
	db      *sql.DB
	dialect Dialect
	keyFunc func(table string) any
	log     *zap.Logger
}

// Option configures a Store
type Option func(*Store)

// WithKeyFunc makes the store generate keys client-side instead of relying
// on the database, for schemas whose primary keys are not auto-incrementing
func WithKeyFunc(f func(table string) any) Option {
	return func(s *Store) {
		s.keyFunc = f
	}
}

// WithUUIDKeys makes the store generate uuid string keys
func WithUUIDKeys() Option {
	return WithKeyFunc(func(string) any {
		return uuid.NewString()
	})
}

// WithLogger sets the store's logger. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(s *Store) {
		s.log = log
	}
}

// Open opens a database through the named driver and wraps it in a Store.
// The dialect is inferred from the driver name.
func Open(driverName, dsn string, opts ...Option) (*Store, error) {
	dialect, err := DialectFor(driverName)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return New(db, dialect, opts...), nil
}

// New wraps an already-open database handle
func New(db *sql.DB, dialect Dialect, opts ...Option) *Store {
	s := &Store{
		db:      db,
		dialect: dialect,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DB returns the underlying database handle
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the underlying database handle
func (s *Store) Close() error { return s.db.Close() }

// Count implements storage.Store
func (s *Store) Count(ctx context.Context, table string, filters []storage.Filter) (int64, error) {
	where, args := s.whereClause(filters, 1)
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s%s", s.dialect.QuoteIdentifier(table), where)
	s.log.Debug("count", zap.String("query", query))

	var n int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count rows: %w", ConvertDBError(err))
	}
	return n, nil
}

// Read implements storage.Store
func (s *Store) Read(ctx context.Context, table string, columns []string, filters []storage.Filter, limit int) ([]storage.Record, error) {
	where, args := s.whereClause(filters, 1)
	query := fmt.Sprintf("SELECT %s FROM %s%s", s.columnList(columns), s.dialect.QuoteIdentifier(table), where)
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	s.log.Debug("read", zap.String("query", query))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", ConvertDBError(err))
	}
	defer rows.Close()

	return scanRows(rows)
}

// Create implements storage.Store. When the key column is absent from
// columns the key comes from the configured key func, from RETURNING, or
// from the driver's last-insert id, in that order of preference.
func (s *Store) Create(ctx context.Context, table, pkColumn string, columns []string, rec storage.Record) (any, error) {
	cols := make([]string, len(columns))
	copy(cols, columns)

	values := make([]any, 0, len(cols)+1)
	for _, col := range cols {
		values = append(values, rec[col])
	}

	var key any
	assign := false
	switch {
	case pkColumn == "":
		// keyless row, nothing to report back
	case containsColumn(cols, pkColumn):
		key = rec[pkColumn]
	case s.keyFunc != nil:
		key = s.keyFunc(table)
		cols = append(cols, pkColumn)
		values = append(values, key)
	default:
		assign = true
	}

	returning := assign && s.dialect.ReturningSupported()
	query := s.insertQuery(table, pkColumn, cols, returning)
	s.log.Debug("create", zap.String("query", query))

	if returning {
		var assigned any
		if err := s.db.QueryRowContext(ctx, query, values...).Scan(&assigned); err != nil {
			return nil, fmt.Errorf("failed to insert row: %w", ConvertDBError(err))
		}
		return assigned, nil
	}

	res, err := s.db.ExecContext(ctx, query, values...)
	if err != nil {
		return nil, fmt.Errorf("failed to insert row: %w", ConvertDBError(err))
	}
	if assign {
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("failed to read assigned key: %w", err)
		}
		return id, nil
	}
	return key, nil
}

// insertQuery renders the INSERT statement for the given shape
func (s *Store) insertQuery(table, pkColumn string, cols []string, returning bool) string {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(s.dialect.QuoteIdentifier(table))

	if len(cols) == 0 {
		b.WriteString(" DEFAULT VALUES")
	} else {
		placeholders := make([]string, len(cols))
		for i := range cols {
			placeholders[i] = s.dialect.Placeholder(i + 1)
		}
		fmt.Fprintf(&b, " (%s) VALUES (%s)", s.columnList(cols), strings.Join(placeholders, ", "))
	}

	if returning {
		fmt.Fprintf(&b, " RETURNING %s", s.dialect.QuoteIdentifier(pkColumn))
	}
	return b.String()
}

// Update implements storage.Store
func (s *Store) Update(ctx context.Context, table, pkColumn string, columns []string, rec storage.Record) (any, error) {
	key := rec[pkColumn]

	sets := make([]string, 0, len(columns))
	args := make([]any, 0, len(columns)+1)
	n := 1
	for _, col := range columns {
		if col == pkColumn {
			continue
		}
		sets = append(sets, fmt.Sprintf("%s = %s", s.dialect.QuoteIdentifier(col), s.dialect.Placeholder(n)))
		args = append(args, rec[col])
		n++
	}
	if len(sets) == 0 {
		return key, nil
	}
	args = append(args, key)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
		s.dialect.QuoteIdentifier(table), strings.Join(sets, ", "),
		s.dialect.QuoteIdentifier(pkColumn), s.dialect.Placeholder(n))
	s.log.Debug("update", zap.String("query", query))

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("failed to update row: %w", ConvertDBError(err))
	}
	return key, nil
}

// Delete implements storage.Store
func (s *Store) Delete(ctx context.Context, table string, filters []storage.Filter) error {
	where, args := s.whereClause(filters, 1)
	query := fmt.Sprintf("DELETE FROM %s%s", s.dialect.QuoteIdentifier(table), where)
	s.log.Debug("delete", zap.String("query", query))

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete rows: %w", ConvertDBError(err))
	}
	return nil
}

// whereClause renders filters as a WHERE clause with placeholders starting
// at the given ordinal. Empty filters render nothing.
func (s *Store) whereClause(filters []storage.Filter, start int) (string, []any) {
	if len(filters) == 0 {
		return "", nil
	}

	conds := make([]string, 0, len(filters))
	args := make([]any, 0, len(filters))
	for i, f := range filters {
		conds = append(conds, fmt.Sprintf("%s = %s", s.dialect.QuoteIdentifier(f.Column), s.dialect.Placeholder(start+i)))
		args = append(args, f.Value)
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (s *Store) columnList(columns []string) string {
	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = s.dialect.QuoteIdentifier(col)
	}
	return strings.Join(quoted, ", ")
}

func containsColumn(columns []string, name string) bool {
	for _, col := range columns {
		if col == name {
			return true
		}
	}
	return false
}

// scanRows scans all rows into records keyed by column name
func scanRows(rows *sql.Rows) ([]storage.Record, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []storage.Record
	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}

		rec := make(storage.Record, len(columns))
		for i, col := range columns {
			rec[col] = values[i]
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
