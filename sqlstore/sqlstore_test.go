package sqlstore

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cascade-orm/cascade/storage"
)

func setupMockStore(t *testing.T, dialect Dialect, opts ...Option) (*Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return New(db, dialect, opts...), mock
}

func TestDialectFor(t *testing.T) {
	for driver, want := range map[string]Dialect{
		"pgx":      Postgres,
		"postgres": Postgres,
		"sqlite3":  SQLite,
		"sqlite":   SQLite,
	} {
		d, err := DialectFor(driver)
		require.NoError(t, err)
		assert.Equal(t, want, d)
	}

	_, err := DialectFor("oracle")
	assert.Error(t, err)
}

func TestCountQuery(t *testing.T) {
	s, mock := setupMockStore(t, Postgres)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "employees" WHERE "company_id" = \$1`).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	n, err := s.Count(context.Background(), "employees", []storage.Filter{storage.Eq("company_id", 1)})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReadQuery(t *testing.T) {
	s, mock := setupMockStore(t, Postgres)

	mock.ExpectQuery(`SELECT "id", "name" FROM "employees" WHERE "company_id" = \$1 LIMIT 2`).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow(int64(1), "Jo").
			AddRow(int64(2), "Mo"))

	rows, err := s.Read(context.Background(), "employees", []string{"id", "name"},
		[]storage.Filter{storage.Eq("company_id", 1)}, 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, storage.Record{"id": int64(1), "name": "Jo"}, rows[0])
	assert.Equal(t, storage.Record{"id": int64(2), "name": "Mo"}, rows[1])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateReturning(t *testing.T) {
	s, mock := setupMockStore(t, Postgres)

	mock.ExpectQuery(`INSERT INTO "employees" \("name", "company_id"\) VALUES \(\$1, \$2\) RETURNING "id"`).
		WithArgs("Jo", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	key, err := s.Create(context.Background(), "employees", "id",
		[]string{"name", "company_id"}, storage.Record{"name": "Jo", "company_id": 1})
	require.NoError(t, err)
	assert.Equal(t, int64(7), key)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateLastInsertID(t *testing.T) {
	s, mock := setupMockStore(t, SQLite)

	mock.ExpectExec(`INSERT INTO "employees" \("name"\) VALUES \(\?\)`).
		WithArgs("Jo").
		WillReturnResult(sqlmock.NewResult(5, 1))

	key, err := s.Create(context.Background(), "employees", "id",
		[]string{"name"}, storage.Record{"name": "Jo"})
	require.NoError(t, err)
	assert.Equal(t, int64(5), key)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateCallerKey(t *testing.T) {
	s, mock := setupMockStore(t, Postgres)

	mock.ExpectExec(`INSERT INTO "companies" \("id", "name"\) VALUES \(\$1, \$2\)`).
		WithArgs(42, "Acme").
		WillReturnResult(sqlmock.NewResult(0, 1))

	key, err := s.Create(context.Background(), "companies", "id",
		[]string{"id", "name"}, storage.Record{"id": 42, "name": "Acme"})
	require.NoError(t, err)
	assert.Equal(t, 42, key, "a caller-supplied key is returned as given")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateKeyless(t *testing.T) {
	s, mock := setupMockStore(t, Postgres)

	mock.ExpectExec(`INSERT INTO "student_courses" \("student_id", "course_id"\) VALUES \(\$1, \$2\)`).
		WithArgs(1, 2).
		WillReturnResult(sqlmock.NewResult(0, 1))

	key, err := s.Create(context.Background(), "student_courses", "",
		[]string{"student_id", "course_id"}, storage.Record{"student_id": 1, "course_id": 2})
	require.NoError(t, err)
	assert.Nil(t, key, "junction rows have no key to report")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWithKeyFunc(t *testing.T) {
	s, mock := setupMockStore(t, Postgres, WithKeyFunc(func(string) any { return "k-1" }))

	mock.ExpectExec(`INSERT INTO "companies" \("name", "id"\) VALUES \(\$1, \$2\)`).
		WithArgs("Acme", "k-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	key, err := s.Create(context.Background(), "companies", "id",
		[]string{"name"}, storage.Record{"name": "Acme"})
	require.NoError(t, err)
	assert.Equal(t, "k-1", key)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateQuery(t *testing.T) {
	s, mock := setupMockStore(t, Postgres)

	mock.ExpectExec(`UPDATE "employees" SET "name" = \$1 WHERE "id" = \$2`).
		WithArgs("Joan", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	key, err := s.Update(context.Background(), "employees", "id",
		[]string{"name"}, storage.Record{"id": 1, "name": "Joan"})
	require.NoError(t, err)
	assert.Equal(t, 1, key)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateSkipsKeyColumn(t *testing.T) {
	s, mock := setupMockStore(t, Postgres)

	mock.ExpectExec(`UPDATE "employees" SET "name" = \$1 WHERE "id" = \$2`).
		WithArgs("Joan", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	_, err := s.Update(context.Background(), "employees", "id",
		[]string{"id", "name"}, storage.Record{"id": 1, "name": "Joan"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateNothingToSet(t *testing.T) {
	s, mock := setupMockStore(t, Postgres)

	key, err := s.Update(context.Background(), "employees", "id", nil, storage.Record{"id": 5})
	require.NoError(t, err)
	assert.Equal(t, 5, key)
	assert.NoError(t, mock.ExpectationsWereMet(), "no statement runs when there is nothing to set")
}

func TestDeleteQuery(t *testing.T) {
	s, mock := setupMockStore(t, Postgres)

	mock.ExpectExec(`DELETE FROM "employees" WHERE "company_id" = \$1 AND "id" = \$2`).
		WithArgs(1, 2).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.Delete(context.Background(), "employees", []storage.Filter{
		storage.Eq("company_id", 1),
		storage.Eq("id", 2),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryErrorWrapped(t *testing.T) {
	s, mock := setupMockStore(t, Postgres)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "employees"`).
		WillReturnError(sql.ErrConnDone)

	_, err := s.Count(context.Background(), "employees", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, sql.ErrConnDone)
}
