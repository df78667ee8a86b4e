package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
	pgCheckViolation       = "23514"
)

// IsContention reports whether err is a postgres serialization, deadlock or
// lock-timeout failure. Callers surface these as conflicts rather than outages.
func IsContention(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
		return true
	}
	return false
}

// IsCheckViolation reports whether err references a CHECK constraint failure.
// When constraintName is provided, the constraint must match.
func IsCheckViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code != pgCheckViolation {
			return false
		}
		return constraintName == "" || pgErr.ConstraintName == constraintName
	}
	// sqlite reports "CHECK constraint failed: <expr>"
	msg := err.Error()
	if !strings.Contains(msg, "CHECK constraint failed") {
		return false
	}
	return constraintName == "" || strings.Contains(msg, constraintName)
}
