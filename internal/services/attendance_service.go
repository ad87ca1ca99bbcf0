package services

import (
	"context"
	"errors"
	"time"

	"farm_ops_backend/internal/models"
	"farm_ops_backend/internal/observability/metrics"
	"farm_ops_backend/internal/repositories"
	"farm_ops_backend/pkg/utils"

	"github.com/google/uuid"
)

const (
	DefaultAttendancePageSize = 50
	MaxAttendancePageSize     = 500
)

// AttendanceService implements the daily punch-in/punch-out cycle.
type AttendanceService interface {
	PunchIn(ctx context.Context, caller *models.Identity) (*models.Attendance, error)
	PunchOut(ctx context.Context, caller *models.Identity) (*models.Attendance, error)
	TodayStatus(ctx context.Context, caller *models.Identity) (*models.TodayStatus, error)
	ListAttendance(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceReport, models.Pagination, error)
}

type attendanceService struct {
	repo repositories.AttendanceRepository
	db   repositories.SQLExecutor
	loc  *time.Location
	now  func() time.Time
}

// NewAttendanceService creates a new instance of AttendanceService. loc decides which calendar day a punch belongs to.
func NewAttendanceService(repo repositories.AttendanceRepository, db repositories.SQLExecutor, loc *time.Location) AttendanceService {
	if loc == nil {
		loc = time.Local
	}
	return &attendanceService{repo: repo, db: db, loc: loc, now: time.Now}
}

// today returns the current instant and the local calendar day it falls on.
func (s *attendanceService) today() (time.Time, time.Time) {
	now := s.now().In(s.loc)
	y, m, d := now.Date()
	return now, time.Date(y, m, d, 0, 0, 0, 0, s.loc)
}

// checkPunchAllowed enforces that the caller is an active staff member with a linked active staff record.
func checkPunchAllowed(caller *models.Identity) error {
	switch {
	case caller == nil || caller.Role != models.RoleStaff:
		return newError(KindForbidden, "Access denied. Staff role required.", ErrNotStaffRole)
	case caller.Staff == nil:
		return newError(KindForbidden, "No staff record found for this user", ErrNoStaffRecord)
	case caller.Staff.Status != models.StatusActive:
		return newError(KindForbidden, "Staff account is inactive", ErrStaffInactive)
	}
	return nil
}

func attendanceStaff(caller *models.Identity) *models.AttendanceStaff {
	return &models.AttendanceStaff{ID: caller.Staff.ID, StaffID: caller.Staff.StaffID, Name: caller.Staff.Name}
}

func (s *attendanceService) PunchIn(ctx context.Context, caller *models.Identity) (*models.Attendance, error) {
	if err := checkPunchAllowed(caller); err != nil {
		metrics.ObserveAttendance(metrics.ActionPunchIn, metrics.ResultForbidden)
		return nil, err
	}
	now, day := s.today()
	dayKey := day.Format(models.DateLayout)

	existing, err := s.repo.FindByStaffAndDate(ctx, caller.Staff.ID, dayKey)
	switch {
	case err == nil:
		metrics.ObserveAttendance(metrics.ActionPunchIn, metrics.ResultConflict)
		return nil, alreadyPunchedIn(existing)
	case !errors.Is(err, repositories.ErrNotFound):
		metrics.ObserveAttendance(metrics.ActionPunchIn, metrics.ResultError)
		return nil, internalError("AttendanceService.PunchIn: finding today's record", err)
	}

	attendance := &models.Attendance{
		ID:          uuid.NewString(),
		StaffID:     caller.Staff.ID,
		Date:        day,
		PunchInTime: now,
	}
	created, err := s.repo.CreateAttendance(ctx, s.db, attendance)
	if err != nil {
		// A concurrent punch-in for the same day won the unique constraint.
		if errors.Is(err, repositories.ErrDuplicateKey) {
			metrics.ObserveAttendance(metrics.ActionPunchIn, metrics.ResultConflict)
			existing, findErr := s.repo.FindByStaffAndDate(ctx, caller.Staff.ID, dayKey)
			if findErr != nil {
				existing = nil
			}
			return nil, alreadyPunchedIn(existing)
		}
		metrics.ObserveAttendance(metrics.ActionPunchIn, metrics.ResultError)
		return nil, internalError("AttendanceService.PunchIn: creating record", err)
	}
	created.Staff = attendanceStaff(caller)

	metrics.ObserveAttendance(metrics.ActionPunchIn, metrics.ResultOK)
	utils.LogInfo("Staff punched in", map[string]interface{}{"staff_id": caller.Staff.ID, "date": dayKey})
	return created, nil
}

func alreadyPunchedIn(existing *models.Attendance) error {
	e := newError(KindConflict, "Already punched in for today", ErrAlreadyPunchedIn)
	e.Field = "date"
	if existing != nil {
		e.Data = existing
	}
	return e
}

func (s *attendanceService) PunchOut(ctx context.Context, caller *models.Identity) (*models.Attendance, error) {
	if err := checkPunchAllowed(caller); err != nil {
		metrics.ObserveAttendance(metrics.ActionPunchOut, metrics.ResultForbidden)
		return nil, err
	}
	now, day := s.today()
	dayKey := day.Format(models.DateLayout)

	existing, err := s.repo.FindByStaffAndDate(ctx, caller.Staff.ID, dayKey)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			metrics.ObserveAttendance(metrics.ActionPunchOut, metrics.ResultNotFound)
			return nil, newError(KindNotFound, "No punch-in record found for today. Please punch in first.", ErrNoPunchIn)
		}
		metrics.ObserveAttendance(metrics.ActionPunchOut, metrics.ResultError)
		return nil, internalError("AttendanceService.PunchOut: finding today's record", err)
	}
	if existing.PunchOutTime != nil {
		metrics.ObserveAttendance(metrics.ActionPunchOut, metrics.ResultConflict)
		return nil, alreadyPunchedOut(existing)
	}
	if !now.After(existing.PunchInTime) {
		metrics.ObserveAttendance(metrics.ActionPunchOut, metrics.ResultInvalid)
		return nil, validationError("punchOutTime", "Punch-out time must be after punch-in time")
	}

	updated, err := s.repo.SetPunchOut(ctx, s.db, existing.ID, now)
	if err != nil {
		if errors.Is(err, repositories.ErrStaleUpdate) {
			metrics.ObserveAttendance(metrics.ActionPunchOut, metrics.ResultConflict)
			latest, findErr := s.repo.FindByStaffAndDate(ctx, caller.Staff.ID, dayKey)
			if findErr != nil {
				latest = nil
			}
			return nil, alreadyPunchedOut(latest)
		}
		metrics.ObserveAttendance(metrics.ActionPunchOut, metrics.ResultError)
		return nil, internalError("AttendanceService.PunchOut: updating record", err)
	}
	updated.Staff = attendanceStaff(caller)

	metrics.ObserveAttendance(metrics.ActionPunchOut, metrics.ResultOK)
	utils.LogInfo("Staff punched out", map[string]interface{}{"staff_id": caller.Staff.ID, "date": dayKey})
	return updated, nil
}

func alreadyPunchedOut(existing *models.Attendance) error {
	e := newError(KindConflict, "Already punched out for today", ErrAlreadyPunchedOut)
	if existing != nil {
		e.Data = existing
	}
	return e
}

func (s *attendanceService) TodayStatus(ctx context.Context, caller *models.Identity) (*models.TodayStatus, error) {
	if err := checkPunchAllowed(caller); err != nil {
		return nil, err
	}
	_, day := s.today()

	existing, err := s.repo.FindByStaffAndDate(ctx, caller.Staff.ID, day.Format(models.DateLayout))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return &models.TodayStatus{}, nil
		}
		return nil, internalError("AttendanceService.TodayStatus", err)
	}
	return &models.TodayStatus{
		PunchedIn:  true,
		PunchedOut: existing.PunchOutTime != nil,
		Attendance: existing,
	}, nil
}

// ListAttendance returns a page of records with derived working hours.
func (s *attendanceService) ListAttendance(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceReport, models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = DefaultAttendancePageSize
	}
	if filter.Limit > MaxAttendancePageSize {
		filter.Limit = MaxAttendancePageSize
	}
	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		return nil, models.Pagination{}, validationError("endDate", "End date must not be before start date")
	}

	records, total, err := s.repo.ListAttendance(ctx, filter)
	if err != nil {
		return nil, models.Pagination{}, internalError("AttendanceService.ListAttendance", err)
	}

	reports := make([]models.AttendanceReport, 0, len(records))
	for _, r := range records {
		reports = append(reports, models.NewAttendanceReport(r))
	}
	return reports, models.NewPagination(filter.Page, filter.Limit, total), nil
}
