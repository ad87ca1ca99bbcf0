package models

import (
	"testing"
	"time"
)

func TestWorkingHours(t *testing.T) {
	in := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	out := in.Add(2*time.Hour + 15*time.Minute)

	a := Attendance{PunchInTime: in, PunchOutTime: &out}
	h := a.WorkingHours()
	if h == nil || *h != 2.25 {
		t.Fatalf("expected 2.25 hours, got %v", h)
	}

	open := Attendance{PunchInTime: in}
	if open.WorkingHours() != nil {
		t.Fatalf("expected nil hours for incomplete record")
	}
}

func TestWorkingHoursRounding(t *testing.T) {
	in := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	out := in.Add(time.Hour + 20*time.Minute) // 1.3333...
	a := Attendance{PunchInTime: in, PunchOutTime: &out}
	if h := a.WorkingHours(); h == nil || *h != 1.33 {
		t.Fatalf("expected 1.33, got %v", h)
	}
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(2, 50, 101)
	if p.TotalPages != 3 {
		t.Fatalf("expected 3 pages, got %d", p.TotalPages)
	}
	if NewPagination(1, 50, 0).TotalPages != 0 {
		t.Fatalf("expected 0 pages for empty listing")
	}
}
