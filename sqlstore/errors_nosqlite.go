//go:build !cgo

package sqlstore

// The blank import keeps the "sqlite3" driver registered in no-cgo builds;
// go-sqlite3 ships a stub there whose connections fail with an explanatory
// error, and whose error types do not exist, so there is nothing to convert.
import _ "github.com/mattn/go-sqlite3"

func convertSQLiteError(error) (error, bool) { return nil, false }
