package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq" // For pq.Error
)

var (
	// ErrNotFound is returned when a specific record is not found.
	ErrNotFound = errors.New("requested record not found")

	// ErrDatabaseError is returned for unexpected database errors.
	// It can be used to wrap more specific driver errors.
	ErrDatabaseError = errors.New("database error")

	// ErrDuplicateKey is returned when an insert/update violates a unique constraint.
	ErrDuplicateKey = errors.New("duplicate key value violates unique constraint")

	// ErrForeignKey is returned when a row is still referenced or references a missing row.
	ErrForeignKey = errors.New("foreign key constraint violated")

	// ErrCheckViolation is returned when a value fails a CHECK constraint.
	ErrCheckViolation = errors.New("check constraint violated")

	// ErrStaleUpdate is returned when a conditional update matched no rows.
	ErrStaleUpdate = errors.New("record changed concurrently")
)

// UniqueViolationError names the logical field behind a unique constraint violation.
type UniqueViolationError struct {
	Field      string
	Constraint string
}

func (e *UniqueViolationError) Error() string {
	return fmt.Sprintf("%v: %s (constraint: %s)", ErrDuplicateKey, e.Field, e.Constraint)
}

func (e *UniqueViolationError) Is(target error) bool { return target == ErrDuplicateKey }

// ForeignKeyViolationError reports a referential integrity failure.
type ForeignKeyViolationError struct {
	Constraint string
}

func (e *ForeignKeyViolationError) Error() string {
	return fmt.Sprintf("%v (constraint: %s)", ErrForeignKey, e.Constraint)
}

func (e *ForeignKeyViolationError) Is(target error) bool { return target == ErrForeignKey }

// constraintFields maps schema constraint names onto API field names.
var constraintFields = map[string]string{
	"users_username_key":           "username",
	"users_email_key":              "email",
	"staff_staff_id_key":           "staffId",
	"staff_id_number_key":          "idNumber",
	"staff_user_id_key":            "userId",
	"attendance_staff_id_date_key": "date",
	"crops_plot_id_key":            "plotId",
	"tasks_task_id_key":            "taskId",
	"preset_tasks_task_id_key":     "taskId",
}

// FieldForConstraint returns the API field guarded by a unique constraint.
func FieldForConstraint(constraint string) string {
	if f, ok := constraintFields[constraint]; ok {
		return f
	}
	return constraint
}

// classifyError converts driver errors into the package's typed errors.
// op describes the failed operation and is only used for unexpected errors.
func classifyError(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Name() {
		case "unique_violation":
			return &UniqueViolationError{Field: FieldForConstraint(pqErr.Constraint), Constraint: pqErr.Constraint}
		case "foreign_key_violation":
			return &ForeignKeyViolationError{Constraint: pqErr.Constraint}
		case "check_violation":
			return fmt.Errorf("%w (constraint: %s)", ErrCheckViolation, pqErr.Constraint)
		}
	}
	return fmt.Errorf("%w: %s: %v", ErrDatabaseError, op, err)
}

// SQLExecutor defines an interface that can be satisfied by *sql.DB or *sql.Tx
// This allows repository methods to be used within transactions or with a direct DB connection.
type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// scanner is an interface satisfied by *sql.Row and *sql.Rows.
// This allows for generic scanning helpers.
type scanner interface {
	Scan(dest ...interface{}) error
}

// Transactor runs a function inside a single database transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(exec SQLExecutor) error) error
}

type sqlTransactor struct {
	db *sql.DB
}

// NewTransactor creates a Transactor backed by db.
func NewTransactor(db *sql.DB) Transactor {
	return &sqlTransactor{db: db}
}

// WithinTx commits when fn returns nil and rolls back otherwise.
func (t *sqlTransactor) WithinTx(ctx context.Context, fn func(exec SQLExecutor) error) (err error) {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %v", ErrDatabaseError, err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit transaction: %v", ErrDatabaseError, err)
	}
	return nil
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func float64Ptr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func timePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
