package dberrors

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL error codes
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
	checkViolation      = "23514"
)

// IsDuplicateConstraintError checks if the error is a PostgreSQL unique violation error
// for a specific constraint. Unique indexes report their index name as the constraint.
func IsDuplicateConstraintError(err error, constraintName string) bool {
	return hasCode(err, uniqueViolation, constraintName)
}

// IsForeignKeyError checks if the error is a foreign key violation for the constraint.
// An empty constraintName matches any foreign key.
func IsForeignKeyError(err error, constraintName string) bool {
	return hasCode(err, foreignKeyViolation, constraintName)
}

// IsCheckConstraintError checks if the error is a check constraint violation.
// An empty constraintName matches any check constraint.
func IsCheckConstraintError(err error, constraintName string) bool {
	return hasCode(err, checkViolation, constraintName)
}

func hasCode(err error, code, constraintName string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != code {
		return false
	}
	return constraintName == "" || pgErr.ConstraintName == constraintName
}
