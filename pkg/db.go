package pkg

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	pgCodeUniqueViolation     = "23505"
	pgCodeForeignKeyViolation = "23503"
	pgCodeNotNullViolation    = "23502"
	pgCodeInvalidTextRepr     = "22P02"
)

// IsUniqueViolationError checks if the error is a unique violation error
func IsUniqueViolationError(err error) bool {
	return hasPgCode(err, pgCodeUniqueViolation)
}

// IsForeignKeyViolationError checks if the error is a foreign key violation error
func IsForeignKeyViolationError(err error) bool {
	return hasPgCode(err, pgCodeForeignKeyViolation)
}

// IsNotNullViolationError checks if the error is a not-null constraint violation error
func IsNotNullViolationError(err error) bool {
	return hasPgCode(err, pgCodeNotNullViolation)
}

// IsInvalidTextRepresentationError is returned by postgres for e.g. malformed jsonb input
func IsInvalidTextRepresentationError(err error) bool {
	return hasPgCode(err, pgCodeInvalidTextRepr)
}

func hasPgCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == code
	}
	return false
}
