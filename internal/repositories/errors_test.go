package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
)

func TestClassifyUniqueViolation(t *testing.T) {
	err := classifyError(fmt.Errorf("insert: %w", &pq.Error{Code: "23505", Constraint: "users_username_key"}), "creating user")

	if !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}
	var uv *UniqueViolationError
	if !errors.As(err, &uv) {
		t.Fatalf("expected *UniqueViolationError, got %T", err)
	}
	if uv.Field != "username" {
		t.Fatalf("expected field username, got %q", uv.Field)
	}
}

func TestClassifyForeignKeyViolation(t *testing.T) {
	err := classifyError(&pq.Error{Code: "23503", Constraint: "tasks_crop_id_fkey"}, "deleting crop")
	if !errors.Is(err, ErrForeignKey) {
		t.Fatalf("expected ErrForeignKey, got %v", err)
	}
	if errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("foreign key violation must not match ErrDuplicateKey")
	}
}

func TestClassifyCheckViolation(t *testing.T) {
	err := classifyError(&pq.Error{Code: "23514", Constraint: "staff_salary_check"}, "updating staff")
	if !errors.Is(err, ErrCheckViolation) {
		t.Fatalf("expected ErrCheckViolation, got %v", err)
	}
	if errors.Is(err, ErrDatabaseError) {
		t.Fatalf("check violation must not be reported as a database error")
	}
}

func TestClassifyOtherErrors(t *testing.T) {
	if err := classifyError(sql.ErrNoRows, "finding"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := classifyError(errors.New("connection reset"), "finding"); !errors.Is(err, ErrDatabaseError) {
		t.Fatalf("expected ErrDatabaseError, got %v", err)
	}
	if classifyError(nil, "noop") != nil {
		t.Fatalf("expected nil for nil error")
	}
}

func TestFieldForConstraint(t *testing.T) {
	cases := map[string]string{
		"staff_id_number_key":          "idNumber",
		"attendance_staff_id_date_key": "date",
		"crops_plot_id_key":            "plotId",
		"unknown_key":                  "unknown_key",
	}
	for constraint, expected := range cases {
		if got := FieldForConstraint(constraint); got != expected {
			t.Fatalf("constraint %s expected %s got %s", constraint, expected, got)
		}
	}
}
