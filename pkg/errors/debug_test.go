package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestDiagnoseCapturesPostgresFields(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "uq_serial_numbers_item_serial", TableName: "serial_numbers", Detail: "Key exists"}
	err := Wrap(CodeSerialConflict, fmt.Errorf("insert serial: %w", pgErr), "serial number already in use")

	d := Diagnose(err)
	if d.Code != CodeSerialConflict {
		t.Fatalf("expected code %s, got %s", CodeSerialConflict, d.Code)
	}
	if d.SQLState != "23505" || d.Constraint != "uq_serial_numbers_item_serial" {
		t.Fatalf("unexpected postgres fields: %+v", d)
	}
	if len(d.Chain) < 3 {
		t.Fatalf("expected full wrap chain, got %v", d.Chain)
	}
	fields := d.Fields()
	if fields["pg_table"] != "serial_numbers" {
		t.Fatalf("expected pg_table in fields, got %v", fields)
	}
}

func TestDiagnoseOmitsPostgresBlockForPlainErrors(t *testing.T) {
	fields := Diagnose(stdErrors.New("boom")).Fields()
	if _, ok := fields["pg_code"]; ok {
		t.Fatalf("expected no pg fields, got %v", fields)
	}
	if _, ok := fields["error_code"]; ok {
		t.Fatalf("expected no error_code for untyped error, got %v", fields)
	}
	if Diagnose(nil).Message != "" {
		t.Fatal("expected empty diagnostics for nil")
	}
}
