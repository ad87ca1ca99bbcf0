package services

import (
	"errors"
	"fmt"

	"farm_ops_backend/internal/repositories"
	"farm_ops_backend/pkg/utils"
)

// Kind classifies a service failure; values match utils error codes.
type Kind string

const (
	KindValidation   Kind = utils.ErrCodeValidationFailed
	KindUnauthorized Kind = utils.ErrCodeUnauthorized
	KindForbidden    Kind = utils.ErrCodeForbidden
	KindNotFound     Kind = utils.ErrCodeNotFound
	KindConflict     Kind = utils.ErrCodeConflict
	KindInternal     Kind = utils.ErrCodeInternalServerError
)

// Error is the typed error returned by every service.
type Error struct {
	Kind    Kind
	Message string
	// Field names the offending input for validation and uniqueness failures.
	Field string
	Err   error
	// Data carries a payload the caller should still return, e.g. the existing record on a conflict.
	Data interface{}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// --- Sentinel errors ---
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account is inactive")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrInsufficientRole   = errors.New("insufficient permissions")

	ErrNotStaffRole      = errors.New("user is not a staff member")
	ErrNoStaffRecord     = errors.New("no staff record linked to user")
	ErrStaffInactive     = errors.New("staff record is inactive")
	ErrAlreadyPunchedIn  = errors.New("already punched in today")
	ErrNoPunchIn         = errors.New("no punch-in record for today")
	ErrAlreadyPunchedOut = errors.New("already punched out today")

	ErrUserNotFound  = errors.New("user not found")
	ErrUserHasStaff  = errors.New("user already has a staff record")
	ErrStaffNotFound = errors.New("staff not found")
	ErrStaffInUse    = errors.New("staff is referenced by other records")
	ErrCropNotFound  = errors.New("crop not found")
	ErrCropInUse     = errors.New("crop is referenced by tasks")
	ErrTaskNotFound  = errors.New("task not found")
	ErrNotTaskOwner  = errors.New("task is assigned to another user")
	ErrTaskFieldDeny = errors.New("only status and notes may be changed")
	ErrPresetMissing = errors.New("preset task not found")
)

func newError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func validationError(field, message string) *Error {
	return &Error{Kind: KindValidation, Message: message, Field: field}
}

func internalError(op string, err error) *Error {
	utils.LogError(err, op)
	return &Error{Kind: KindInternal, Message: "Internal error", Err: err}
}

// KindOf returns the kind of err, or KindInternal for untyped errors.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}

// fromRepository translates a storage failure, using notFound for repositories.ErrNotFound.
// Unique violations become conflicts naming the field and CHECK violations become validation errors.
func fromRepository(op string, err error, notFound *Error) *Error {
	var uv *repositories.UniqueViolationError
	switch {
	case errors.As(err, &uv):
		return &Error{Kind: KindConflict, Message: duplicateMessage(uv.Field), Field: uv.Field, Err: err}
	case errors.Is(err, repositories.ErrCheckViolation):
		return &Error{Kind: KindValidation, Message: "Invalid value", Err: err}
	case errors.Is(err, repositories.ErrNotFound) && notFound != nil:
		return notFound
	default:
		return internalError(op, err)
	}
}

func duplicateMessage(field string) string {
	switch field {
	case "username":
		return "Username already exists"
	case "email":
		return "Email already exists"
	case "staffId":
		return "Staff ID already exists"
	case "idNumber":
		return "IC number already exists"
	case "userId":
		return "User already has a staff record"
	case "plotId":
		return "Plot ID already exists"
	case "taskId":
		return "Task ID already exists"
	case "date":
		return "Attendance already recorded for this date"
	}
	return "Duplicate value"
}
