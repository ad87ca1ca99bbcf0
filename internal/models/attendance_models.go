package models

import (
	"time"

	"farm_ops_backend/pkg/utils"
)

// DateLayout is the calendar-day format used for attendance dates.
const DateLayout = "2006-01-02"

// Attendance is one staff member's punch record for one calendar day.
type Attendance struct {
	ID           string     `json:"id" db:"id"`
	StaffID      int64      `json:"staffId" db:"staff_id"`
	Date         time.Time  `json:"date" db:"date"`
	PunchInTime  time.Time  `json:"punchInTime" db:"punch_in_time"`
	PunchOutTime *time.Time `json:"punchOutTime" db:"punch_out_time"`
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time  `json:"updatedAt" db:"updated_at"`

	Staff *AttendanceStaff `json:"staff,omitempty"`
}

// AttendanceStaff is the staff projection embedded in attendance responses.
type AttendanceStaff struct {
	ID       int64                `json:"id"`
	StaffID  string               `json:"staffId"`
	Name     string               `json:"name"`
	Position string               `json:"position,omitempty"`
	User     *AttendanceStaffUser `json:"user,omitempty"`
}

type AttendanceStaffUser struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Complete reports whether both punches are recorded.
func (a *Attendance) Complete() bool {
	return a != nil && a.PunchOutTime != nil
}

// WorkingHours is the elapsed time between punches in hours, rounded to two
// decimals. Nil while the record is incomplete.
func (a *Attendance) WorkingHours() *float64 {
	if !a.Complete() {
		return nil
	}
	h := utils.Round2(a.PunchOutTime.Sub(a.PunchInTime).Hours())
	return &h
}

// AttendanceReport is an attendance record as returned by the admin listing.
type AttendanceReport struct {
	Attendance
	WorkingHours *float64 `json:"workingHours"`
}

// NewAttendanceReport derives the reporting view of a.
func NewAttendanceReport(a Attendance) AttendanceReport {
	return AttendanceReport{Attendance: a, WorkingHours: a.WorkingHours()}
}

// TodayStatus answers "have I punched in/out today".
type TodayStatus struct {
	PunchedIn  bool        `json:"punchedIn"`
	PunchedOut bool        `json:"punchedOut"`
	Attendance *Attendance `json:"attendance"`
}

// AttendanceFilter narrows the admin attendance listing.
type AttendanceFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	StaffID   *int64
	Page      int
	Limit     int
}

// Pagination describes a page of a listing.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// NewPagination computes total pages for the given page window.
func NewPagination(page, limit, total int) Pagination {
	p := Pagination{Page: page, Limit: limit, Total: total}
	if limit > 0 {
		p.TotalPages = (total + limit - 1) / limit
	}
	return p
}
