package duedate

import (
	"testing"
	"time"
)

func day(s string) time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestDeriveOverdue(t *testing.T) {
	next, left, status := Derive(day("2026-01-01"), 90, day("2026-04-11"))
	if got := next.Format(DateLayout); got != "2026-04-01" {
		t.Fatalf("next due: got %s, want 2026-04-01", got)
	}
	if left != -10 {
		t.Fatalf("days left: got %d, want -10", left)
	}
	if status != StatusOverdue {
		t.Fatalf("status: got %s, want overdue", status)
	}
}

func TestDeriveDueSoon(t *testing.T) {
	next, left, status := Derive(day("2026-03-01"), 30, day("2026-03-26"))
	if got := next.Format(DateLayout); got != "2026-03-31" {
		t.Fatalf("next due: got %s, want 2026-03-31", got)
	}
	if left != 5 {
		t.Fatalf("days left: got %d, want 5", left)
	}
	if status != StatusDueSoon {
		t.Fatalf("status: got %s, want due_soon", status)
	}
}

func TestClassifyBoundaries(t *testing.T) {
	cases := []struct {
		daysLeft int
		want     string
	}{
		{-1, StatusOverdue},
		{0, StatusDueSoon},
		{7, StatusDueSoon},
		{8, StatusOnTrack},
		{365, StatusOnTrack},
	}
	for _, c := range cases {
		if got := Classify(c.daysLeft); got != c.want {
			t.Errorf("Classify(%d): got %s, want %s", c.daysLeft, got, c.want)
		}
	}
}

func TestDaysLeftIgnoresTimeOfDay(t *testing.T) {
	due := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	today := time.Date(2026, 5, 8, 23, 59, 0, 0, time.UTC)
	if got := DaysLeft(due, today); got != 2 {
		t.Fatalf("days left: got %d, want 2", got)
	}
}

func TestNextDueCrossesMonthEnd(t *testing.T) {
	next := NextDue(day("2026-01-31"), 30)
	if got := next.Format(DateLayout); got != "2026-03-02" {
		t.Fatalf("next due: got %s, want 2026-03-02", got)
	}
}
