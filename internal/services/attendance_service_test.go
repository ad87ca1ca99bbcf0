package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"farm_ops_backend/internal/models"
	"farm_ops_backend/internal/observability/metrics"
	"farm_ops_backend/internal/repositories/repotest"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type attendanceFixture struct {
	store    *repotest.Store
	svc      *attendanceService
	caller   *models.Identity
	clock    time.Time
	location *time.Location
}

func newAttendanceFixture(t *testing.T) *attendanceFixture {
	t.Helper()
	loc := time.FixedZone("MYT", 8*60*60)
	store := repotest.NewStore()
	user := seedUser(t, store, "ismail", "rahsia1", models.RoleStaff, models.StatusActive)
	seedStaff(t, store, &user.ID, models.StatusActive)

	f := &attendanceFixture{
		store:    store,
		caller:   identityFor(t, store, user.ID),
		clock:    time.Date(2024, 6, 3, 8, 0, 0, 0, loc),
		location: loc,
	}
	f.svc = NewAttendanceService(store, nil, loc).(*attendanceService)
	f.svc.now = func() time.Time { return f.clock }
	return f
}

func TestPunchInCreatesRecordForLocalDay(t *testing.T) {
	f := newAttendanceFixture(t)
	// 00:30 local is still the previous day in UTC.
	f.clock = time.Date(2024, 6, 3, 0, 30, 0, 0, f.location)

	a, err := f.svc.PunchIn(context.Background(), f.caller)
	if err != nil {
		t.Fatalf("punch in: %v", err)
	}
	if got := a.Date.Format(models.DateLayout); got != "2024-06-03" {
		t.Fatalf("expected local date 2024-06-03, got %s", got)
	}
	if a.PunchOutTime != nil {
		t.Fatalf("new record must not have a punch-out time")
	}
	if a.Staff == nil || a.Staff.ID != f.caller.Staff.ID {
		t.Fatalf("expected staff summary on record, got %+v", a.Staff)
	}
}

func TestPunchInTwiceReturnsExistingRecord(t *testing.T) {
	f := newAttendanceFixture(t)
	first, err := f.svc.PunchIn(context.Background(), f.caller)
	if err != nil {
		t.Fatalf("first punch in: %v", err)
	}

	f.clock = f.clock.Add(time.Hour)
	_, err = f.svc.PunchIn(context.Background(), f.caller)
	se := requireKind(t, err, KindConflict)
	if !errors.Is(err, ErrAlreadyPunchedIn) {
		t.Fatalf("expected ErrAlreadyPunchedIn, got %v", err)
	}
	existing, ok := se.Data.(*models.Attendance)
	if !ok || existing.ID != first.ID {
		t.Fatalf("conflict must carry the existing record, got %#v", se.Data)
	}
	if n := f.store.AttendanceCount(); n != 1 {
		t.Fatalf("expected one attendance row, got %d", n)
	}
}

func TestConcurrentPunchInCreatesOneRecord(t *testing.T) {
	f := newAttendanceFixture(t)

	// Hold both inserts until each caller has passed its existence check.
	var gate sync.WaitGroup
	gate.Add(2)
	f.store.BeforeAttendanceInsert = func() {
		gate.Done()
		gate.Wait()
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.PunchIn(context.Background(), f.caller)
		}(i)
	}
	wg.Wait()

	succeeded, conflicted := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrAlreadyPunchedIn):
			conflicted++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 || conflicted != 1 {
		t.Fatalf("expected one success and one conflict, got %d/%d", succeeded, conflicted)
	}
	if n := f.store.AttendanceCount(); n != 1 {
		t.Fatalf("expected one attendance row, got %d", n)
	}
}

func TestPunchOutWithoutPunchIn(t *testing.T) {
	f := newAttendanceFixture(t)
	_, err := f.svc.PunchOut(context.Background(), f.caller)
	se := requireKind(t, err, KindNotFound)
	if se.Message != "No punch-in record found for today. Please punch in first." {
		t.Fatalf("unexpected message %q", se.Message)
	}
}

func TestPunchOutCompletesRecordOnce(t *testing.T) {
	f := newAttendanceFixture(t)
	if _, err := f.svc.PunchIn(context.Background(), f.caller); err != nil {
		t.Fatalf("punch in: %v", err)
	}

	f.clock = f.clock.Add(8*time.Hour + 30*time.Minute)
	out, err := f.svc.PunchOut(context.Background(), f.caller)
	if err != nil {
		t.Fatalf("punch out: %v", err)
	}
	if !out.Complete() {
		t.Fatalf("record should be complete")
	}
	if hours := out.WorkingHours(); hours == nil || *hours != 8.5 {
		t.Fatalf("expected 8.5 working hours, got %v", hours)
	}

	f.clock = f.clock.Add(time.Minute)
	_, err = f.svc.PunchOut(context.Background(), f.caller)
	se := requireKind(t, err, KindConflict)
	if !errors.Is(err, ErrAlreadyPunchedOut) {
		t.Fatalf("expected ErrAlreadyPunchedOut, got %v", err)
	}
	if existing, ok := se.Data.(*models.Attendance); !ok || existing.PunchOutTime == nil {
		t.Fatalf("conflict must carry the completed record, got %#v", se.Data)
	}
}

func TestPunchOutMustFollowPunchIn(t *testing.T) {
	f := newAttendanceFixture(t)
	if _, err := f.svc.PunchIn(context.Background(), f.caller); err != nil {
		t.Fatalf("punch in: %v", err)
	}
	invalidBefore := attendanceEvents(t, metrics.ActionPunchOut, metrics.ResultInvalid)
	errorsBefore := attendanceEvents(t, metrics.ActionPunchOut, metrics.ResultError)

	_, err := f.svc.PunchOut(context.Background(), f.caller)
	requireKind(t, err, KindValidation)

	if got := attendanceEvents(t, metrics.ActionPunchOut, metrics.ResultInvalid); got != invalidBefore+1 {
		t.Fatalf("expected invalid punch-outs to go from %v to %v, got %v", invalidBefore, invalidBefore+1, got)
	}
	if got := attendanceEvents(t, metrics.ActionPunchOut, metrics.ResultError); got != errorsBefore {
		t.Fatalf("a rejected punch-out must not count as an error, error count went from %v to %v", errorsBefore, got)
	}
}

// attendanceEvents scrapes the current value of the attendance counter for action and result.
func attendanceEvents(t *testing.T, action, result string) float64 {
	t.Helper()
	rec := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	prefix := fmt.Sprintf(`farmops_attendance_events_total{action=%q,result=%q} `, action, result)
	for _, line := range strings.Split(rec.Body.String(), "\n") {
		if strings.HasPrefix(line, prefix) {
			v, err := strconv.ParseFloat(strings.TrimPrefix(line, prefix), 64)
			if err != nil {
				t.Fatalf("parse %q: %v", line, err)
			}
			return v
		}
	}
	return 0
}

func TestNextDayAllowsNewPunchIn(t *testing.T) {
	f := newAttendanceFixture(t)
	if _, err := f.svc.PunchIn(context.Background(), f.caller); err != nil {
		t.Fatalf("punch in: %v", err)
	}
	f.clock = f.clock.AddDate(0, 0, 1)
	if _, err := f.svc.PunchIn(context.Background(), f.caller); err != nil {
		t.Fatalf("punch in next day: %v", err)
	}
	if n := f.store.AttendanceCount(); n != 2 {
		t.Fatalf("expected two rows, got %d", n)
	}
}

func TestPunchPreconditions(t *testing.T) {
	store := repotest.NewStore()
	worker := seedUser(t, store, "jamal", "rahsia1", models.RoleWorker, models.StatusActive)
	seedStaff(t, store, &worker.ID, models.StatusActive)
	unlinked := seedUser(t, store, "kamala", "rahsia1", models.RoleStaff, models.StatusActive)
	dormant := seedUser(t, store, "lim", "rahsia1", models.RoleStaff, models.StatusActive)
	seedStaff(t, store, &dormant.ID, models.StatusInactive)
	admin := seedUser(t, store, "mei", "rahsia1", models.RoleAdmin, models.StatusActive)

	svc := NewAttendanceService(store, nil, time.UTC)
	tests := []struct {
		name   string
		caller *models.Identity
		want   error
	}{
		{"worker role", identityFor(t, store, worker.ID), ErrNotStaffRole},
		{"admin role", identityFor(t, store, admin.ID), ErrNotStaffRole},
		{"no staff record", identityFor(t, store, unlinked.ID), ErrNoStaffRecord},
		{"inactive staff", identityFor(t, store, dormant.ID), ErrStaffInactive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, call := range []func(context.Context, *models.Identity) (*models.Attendance, error){svc.PunchIn, svc.PunchOut} {
				_, err := call(context.Background(), tt.caller)
				requireKind(t, err, KindForbidden)
				if !errors.Is(err, tt.want) {
					t.Fatalf("expected %v, got %v", tt.want, err)
				}
			}
			_, err := svc.TodayStatus(context.Background(), tt.caller)
			requireKind(t, err, KindForbidden)
		})
	}
	if n := store.AttendanceCount(); n != 0 {
		t.Fatalf("rejected callers must not create rows, got %d", n)
	}
}

func TestTodayStatus(t *testing.T) {
	f := newAttendanceFixture(t)
	ctx := context.Background()

	status, err := f.svc.TodayStatus(ctx, f.caller)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.PunchedIn || status.PunchedOut || status.Attendance != nil {
		t.Fatalf("expected empty status, got %+v", status)
	}

	if _, err := f.svc.PunchIn(ctx, f.caller); err != nil {
		t.Fatalf("punch in: %v", err)
	}
	status, _ = f.svc.TodayStatus(ctx, f.caller)
	if !status.PunchedIn || status.PunchedOut || status.Attendance == nil {
		t.Fatalf("expected punched-in status, got %+v", status)
	}

	f.clock = f.clock.Add(time.Hour)
	if _, err := f.svc.PunchOut(ctx, f.caller); err != nil {
		t.Fatalf("punch out: %v", err)
	}
	status, _ = f.svc.TodayStatus(ctx, f.caller)
	if !status.PunchedIn || !status.PunchedOut {
		t.Fatalf("expected punched-out status, got %+v", status)
	}
}

func TestListAttendancePaginates(t *testing.T) {
	f := newAttendanceFixture(t)
	ctx := context.Background()
	for day := 0; day < 3; day++ {
		if _, err := f.svc.PunchIn(ctx, f.caller); err != nil {
			t.Fatalf("punch in day %d: %v", day, err)
		}
		f.clock = f.clock.Add(2 * time.Hour)
		if day < 2 {
			if _, err := f.svc.PunchOut(ctx, f.caller); err != nil {
				t.Fatalf("punch out day %d: %v", day, err)
			}
		}
		f.clock = f.clock.Add(22 * time.Hour)
	}

	reports, page, err := f.svc.ListAttendance(ctx, models.AttendanceFilter{Limit: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Page != 1 || page.Limit != 2 || page.Total != 3 || page.TotalPages != 2 {
		t.Fatalf("unexpected pagination %+v", page)
	}
	if len(reports) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(reports))
	}
	// Newest first: the open record from the last day has no hours.
	if reports[0].WorkingHours != nil {
		t.Fatalf("open record must have nil working hours, got %v", *reports[0].WorkingHours)
	}
	if reports[1].WorkingHours == nil || *reports[1].WorkingHours != 2 {
		t.Fatalf("expected 2 working hours, got %v", reports[1].WorkingHours)
	}

	_, page, _ = f.svc.ListAttendance(ctx, models.AttendanceFilter{})
	if page.Limit != DefaultAttendancePageSize {
		t.Fatalf("expected default limit %d, got %d", DefaultAttendancePageSize, page.Limit)
	}

	start := time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC)
	_, _, err = f.svc.ListAttendance(ctx, models.AttendanceFilter{StartDate: &start, EndDate: &end})
	requireKind(t, err, KindValidation)
}
