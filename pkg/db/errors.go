package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const pgUniqueViolation = "23505"

// IsUniqueViolation reports whether the provided error references a unique
// constraint violation. Postgres errors are matched by SQLSTATE and, when
// constraintName is provided, by constraint name; other drivers fall back to
// message inspection of every error in the chain.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code != pgUniqueViolation {
			return false
		}
		return constraintName == "" || pgErr.ConstraintName == constraintName
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if string(pqErr.Code) != pgUniqueViolation {
			return false
		}
		return constraintName == "" || pqErr.Constraint == constraintName
	}
	return chainContains(err, func(msg string) bool {
		if constraintName != "" {
			return strings.Contains(msg, constraintName)
		}
		return strings.Contains(msg, "duplicate key value") || strings.Contains(msg, "UNIQUE constraint failed")
	})
}

// IsUniqueViolationOn matches sqlite style messages that name the offending
// columns instead of the constraint, e.g. "UNIQUE constraint failed: invoices.number".
func IsUniqueViolationOn(err error, constraintName, table, column string) bool {
	if IsUniqueViolation(err, constraintName) {
		return true
	}
	if err == nil {
		return false
	}
	return chainContains(err, func(msg string) bool {
		return strings.Contains(msg, "UNIQUE constraint failed") && strings.Contains(msg, table+"."+column)
	})
}

func chainContains(err error, match func(string) bool) bool {
	for e := err; e != nil; e = errors.Unwrap(e) {
		if match(e.Error()) {
			return true
		}
	}
	return false
}
