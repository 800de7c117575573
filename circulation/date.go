/*
date.go - Day-granularity date arithmetic

PURPOSE:
  All loan date comparisons are day-granularity and anchored to local
  midnight, so "due today" is never misclassified by time-of-day. Negative
  remaining days mean overdue; zero means due today.

SEE ALSO:
  - limit.go: overdue loans still count as active
  - stats: duration and late-day derivations for history views
*/
package circulation

import (
	"math"
	"time"
)

// DueSoonWindowDays is the window for the "due soon" warning: a loan due
// within this many days (and not yet overdue) gets flagged.
const DueSoonWindowDays = 3

// Midnight returns t anchored to local midnight.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DaysUntil returns the whole days from asOf until due, both anchored to
// local midnight. Negative means overdue by that many days, zero means due
// today. The ceil keeps DST-shortened days counting as full days.
func DaysUntil(due, asOf time.Time) int {
	diff := Midnight(due).Sub(Midnight(asOf))
	return int(math.Ceil(diff.Hours() / 24))
}

// IsOverdue reports whether the due date has passed as of asOf.
func IsOverdue(due, asOf time.Time) bool {
	return DaysUntil(due, asOf) < 0
}

// IsDueSoon reports whether the loan is inside the warning window: due
// today or within DueSoonWindowDays, but not yet overdue.
func IsDueSoon(due, asOf time.Time) bool {
	d := DaysUntil(due, asOf)
	return d >= 0 && d <= DueSoonWindowDays
}

// DurationDays returns the length of a loan in days, with ok=false when
// either endpoint is missing. An end before the start yields 0 (bad data or
// clock skew, never negative); otherwise a loan spanning any part of a day
// counts as at least one day.
func DurationDays(start, end time.Time) (int, bool) {
	if start.IsZero() || end.IsZero() {
		return 0, false
	}
	if end.Before(start) {
		return 0, true
	}
	days := int(math.Round(end.Sub(start).Hours() / 24))
	if days < 1 {
		days = 1
	}
	return days, true
}

// LateDays returns how many days past due the return happened, zero when
// returned on time.
func LateDays(due, returned time.Time) int {
	late := DaysUntil(returned, due)
	if late < 0 {
		return 0
	}
	return late
}
