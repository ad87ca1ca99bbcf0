package models

import (
	"context"
	"time"
)

// Role determines which operations a caller may invoke.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleStaff  Role = "staff"
	RoleWorker Role = "worker"
)

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleStaff, RoleWorker:
		return true
	}
	return false
}

// Status is shared by users and staff records.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// Toggled returns the opposite status.
func (s Status) Toggled() Status {
	if s == StatusActive {
		return StatusInactive
	}
	return StatusActive
}

// User represents a login account.
type User struct {
	ID           int64      `json:"id" db:"id"`
	Username     string     `json:"username" db:"username"`
	PasswordHash string     `json:"-" db:"password_hash"` // never serialised
	Email        string     `json:"email" db:"email"`
	Role         Role       `json:"role" db:"role"`
	Status       Status     `json:"status" db:"status"`
	LastLogin    *time.Time `json:"lastLogin" db:"last_login"`
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time  `json:"updatedAt" db:"updated_at"`
	Staff        *Staff     `json:"staff,omitempty"` // linked HR record, when joined
}

// StaffSummary is the slice of a Staff record carried on an Identity.
type StaffSummary struct {
	ID      int64  `json:"id"`
	StaffID string `json:"staffId"`
	Name    string `json:"name"`
	Status  Status `json:"status"`
}

// Identity is the resolved, role-bearing representation of an authenticated caller.
type Identity struct {
	ID       int64         `json:"id"`
	Username string        `json:"username"`
	Email    string        `json:"email"`
	Role     Role          `json:"role"`
	Status   Status        `json:"status"`
	Staff    *StaffSummary `json:"staff"`
}

// HasRole reports whether the identity's role is one of roles.
func (i *Identity) HasRole(roles ...Role) bool {
	if i == nil {
		return false
	}
	for _, r := range roles {
		if i.Role == r {
			return true
		}
	}
	return false
}

// AssignableUser is an active staff/worker account offered when assigning tasks.
type AssignableUser struct {
	ID            int64   `json:"id"`
	Username      string  `json:"username"`
	Email         string  `json:"email"`
	Role          Role    `json:"role"`
	StaffName     *string `json:"staffName"`
	StaffPosition *string `json:"staffPosition"`
	DisplayName   string  `json:"displayName"`
}

type identityCtxKey struct{}

// ContextWithIdentity attaches id to ctx.
func ContextWithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey{}, id)
}

// IdentityFromContext returns the identity attached by the access guard, if any.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityCtxKey{}).(*Identity)
	return id, ok && id != nil
}
