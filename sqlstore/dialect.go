package sqlstore

import (
	"fmt"

	"github.com/lib/pq"
)

// Dialect adapts statement text to one database engine
type Dialect interface {
	// Name returns the dialect name
	Name() string
	// Placeholder returns the parameter placeholder for the 1-based ordinal
	Placeholder(n int) string
	// QuoteIdentifier quotes a table or column name
	QuoteIdentifier(name string) string
	// ReturningSupported reports whether INSERT ... RETURNING works
	ReturningSupported() bool
}

// Postgres is the PostgreSQL dialect
var Postgres Dialect = postgresDialect{}

// SQLite is the SQLite dialect
var SQLite Dialect = sqliteDialect{}

// DialectFor maps a database/sql driver name to its dialect
func DialectFor(driverName string) (Dialect, error) {
	switch driverName {
	case "pgx", "postgres":
		return Postgres, nil
	case "sqlite3", "sqlite":
		return SQLite, nil
	default:
		return nil, fmt.Errorf("no dialect for driver %s", driverName)
	}
}

type postgresDialect struct{}

func (postgresDialect) Name() string { return "postgres" }

func (postgresDialect) Placeholder(n int) string { return fmt.Sprintf("$%d", n) }

func (postgresDialect) QuoteIdentifier(name string) string { return pq.QuoteIdentifier(name) }

func (postgresDialect) ReturningSupported() bool { return true }

type sqliteDialect struct{}

func (sqliteDialect) Name() string { return "sqlite" }

func (sqliteDialect) Placeholder(int) string { return "?" }

// SQLite quotes identifiers with double quotes the same way Postgres does
func (sqliteDialect) QuoteIdentifier(name string) string { return pq.QuoteIdentifier(name) }

func (sqliteDialect) ReturningSupported() bool { return false }
