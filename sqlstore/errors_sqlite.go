//go:build cgo

package sqlstore

import (
	"errors"
	"fmt"

	sqlite3 "github.com/mattn/go-sqlite3"
)

// convertSQLiteError maps SQLite constraint failures to the package
// sentinels. The go-sqlite3 error types only exist in cgo builds; without
// cgo the driver cannot produce them, so this file carries the conversion.
func convertSQLiteError(err error) (error, bool) {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return fmt.Errorf("%w: %v", ErrUniqueViolation, err), true
		case sqlite3.ErrConstraintForeignKey:
			return fmt.Errorf("%w: %v", ErrForeignKeyViolation, err), true
		case sqlite3.ErrConstraintCheck:
			return fmt.Errorf("%w: %v", ErrCheckViolation, err), true
		case sqlite3.ErrConstraintNotNull:
			return fmt.Errorf("%w: %v", ErrNotNullViolation, err), true
		}
	}
	return nil, false
}
