// Package storage defines the persistence port the mapping engine writes
// through. The engine hands fully resolved table and column names across this
// boundary; implementations translate them to an actual backend and never see
// entity metadata.
package storage

import "context"

// Record is a single table row keyed by column name
type Record map[string]any

// Store is the persistence port.
//
// Create persists the given columns of rec into table. When pkColumn is not
// among columns the store assigns the key itself and returns it; when
// pkColumn is empty the insert is keyless (junction rows) and the returned
// key is nil. Update sets the given columns on the row whose pkColumn equals
// rec[pkColumn] and returns that key. Read projects columns from the rows
// matching all filters; a limit <= 0 means no limit. Errors are the store's
// own and pass through the engine unchanged.
type Store interface {
	Count(ctx context.Context, table string, filters []Filter) (int64, error)
	Read(ctx context.Context, table string, columns []string, filters []Filter, limit int) ([]Record, error)
	Create(ctx context.Context, table string, pkColumn string, columns []string, rec Record) (any, error)
	Update(ctx context.Context, table string, pkColumn string, columns []string, rec Record) (any, error)
	Delete(ctx context.Context, table string, filters []Filter) error
}
