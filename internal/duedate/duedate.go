// Package duedate derives preventive-maintenance due dates from a
// schedule's last completion date and its frequency. All functions are
// pure: the reference date is always an explicit argument, so derived
// values can be recomputed against any clock and are never stored.
package duedate

import "time"

// DueSoonWindow is the number of days ahead (inclusive) within which a
// schedule counts as due soon.
const DueSoonWindow = 7

const (
	StatusOverdue = "overdue"
	StatusDueSoon = "due_soon"
	StatusOnTrack = "on_track"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// NextDue returns lastDone advanced by frequencyDays calendar days.
func NextDue(lastDone time.Time, frequencyDays int) time.Time {
	return lastDone.AddDate(0, 0, frequencyDays)
}

// DaysLeft returns the number of whole calendar days from today until
// due. Negative values mean the due date has passed. Both arguments are
// truncated to midnight so partial days never shift the result.
func DaysLeft(due, today time.Time) int {
	due = truncate(due)
	today = truncate(today)
	return int(due.Sub(today).Hours() / 24)
}

// Classify buckets a days-left value: negative is overdue, zero through
// DueSoonWindow is due soon, anything later is on track.
func Classify(daysLeft int) string {
	return ClassifyWithin(daysLeft, DueSoonWindow)
}

// ClassifyWithin is Classify with a caller-supplied due-soon window.
func ClassifyWithin(daysLeft, window int) string {
	switch {
	case daysLeft < 0:
		return StatusOverdue
	case daysLeft <= window:
		return StatusDueSoon
	default:
		return StatusOnTrack
	}
}

// Derive computes next-due, days-left and the due bucket for a schedule
// in one call.
func Derive(lastDone time.Time, frequencyDays int, today time.Time) (next time.Time, daysLeft int, status string) {
	next = NextDue(lastDone, frequencyDays)
	daysLeft = DaysLeft(next, today)
	return next, daysLeft, Classify(daysLeft)
}

func truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
