package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// Diagnostics is the log-only view of an error: the full wrap chain and, when
// the root cause came from postgres, the server-reported fields.
type Diagnostics struct {
	Message string
	Code    Code
	Chain   []string

	SQLState   string
	Constraint string
	Table      string
	Column     string
	Detail     string
}

func Diagnose(err error) Diagnostics {
	if err == nil {
		return Diagnostics{}
	}
	d := Diagnostics{Message: err.Error()}
	if typed := As(err); typed != nil {
		d.Code = typed.Code()
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var pgxErr *pgconn.PgError
	var pqErr *pq.Error
	switch {
	case errors.As(err, &pgxErr):
		d.SQLState, d.Constraint = pgxErr.Code, pgxErr.ConstraintName
		d.Table, d.Column, d.Detail = pgxErr.TableName, pgxErr.ColumnName, pgxErr.Detail
	case errors.As(err, &pqErr):
		d.SQLState, d.Constraint = string(pqErr.Code), pqErr.Constraint
		d.Table, d.Column, d.Detail = pqErr.Table, pqErr.Column, pqErr.Detail
	}
	return d
}

// Fields flattens the diagnostics for structured logging, omitting the
// postgres block when the error did not come from the database.
func (d Diagnostics) Fields() map[string]any {
	fields := map[string]any{
		"error":       d.Message,
		"error_chain": d.Chain,
	}
	if d.Code != "" {
		fields["error_code"] = d.Code
	}
	if d.SQLState == "" {
		return fields
	}
	fields["pg_code"] = d.SQLState
	fields["pg_constraint"] = d.Constraint
	fields["pg_table"] = d.Table
	fields["pg_column"] = d.Column
	fields["pg_detail"] = d.Detail
	return fields
}
