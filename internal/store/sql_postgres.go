package store

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// postgresError returns the SQLSTATE code of a PostgreSQL error, or an empty
// string when err did not come from the server.
func postgresError(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}

	return ""
}

// isUniqueViolation reports whether err is a unique-constraint violation on
// either supported dialect.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return postgresError(err) == pgerrcode.UniqueViolation || sqliteUniqueViolation(err)
}
