package sqlstore

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestConvertDBErrorWithPgErrors(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", Detail: "Key (email)=(jo@acme.test) already exists."}
	converted := ConvertDBError(pgErr)
	assert.True(t, IsUniqueViolation(converted))
	assert.Contains(t, converted.Error(), "jo@acme.test")

	pgErr = &pgconn.PgError{Code: "23503", Detail: "Key (company_id)=(9) is not present in table companies."}
	converted = ConvertDBError(pgErr)
	assert.True(t, IsForeignKeyViolation(converted))

	pgErr = &pgconn.PgError{Code: "23514", Detail: "Check constraint failed"}
	converted = ConvertDBError(pgErr)
	assert.True(t, IsCheckViolation(converted))

	pgErr = &pgconn.PgError{Code: "23502", ColumnName: "name"}
	converted = ConvertDBError(pgErr)
	assert.True(t, IsNotNullViolation(converted))
	assert.Contains(t, converted.Error(), "name")

	pgErr = &pgconn.PgError{Code: "99999", Message: "unknown"}
	converted = ConvertDBError(pgErr)
	assert.False(t, IsUniqueViolation(converted))
	assert.Equal(t, pgErr, converted)
}

func TestConvertDBErrorPassthrough(t *testing.T) {
	assert.NoError(t, ConvertDBError(nil))

	plain := errors.New("boom")
	assert.Equal(t, plain, ConvertDBError(plain))
}
