// Package clock pins all "today" arithmetic to the workspace timezone.
// Accrual is date-only: every consumer truncates to midnight UTC+7 before
// counting days, so interest amounts are reproducible regardless of where the
// process runs.
package clock

import "time"

// Bangkok is a fixed UTC+7 offset. A fixed zone, not the IANA location, so
// day counts never depend on tzdata being present.
var Bangkok = time.FixedZone("ICT", 7*60*60)

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func System() Clock { return systemClock{} }

// Static is a frozen clock for tests.
type Static struct {
	T time.Time
}

func (s Static) Now() time.Time { return s.T }

// Today returns the current date at midnight in Bangkok.
func Today(c Clock) time.Time {
	return DateOnly(c.Now())
}

// DateOnly truncates t to midnight in Bangkok.
func DateOnly(t time.Time) time.Time {
	t = t.In(Bangkok)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, Bangkok)
}

// DaysBetween counts whole days from one date to another. Both arguments are
// truncated first; a fixed-offset zone has no DST, so the division is exact.
func DaysBetween(from, to time.Time) int {
	from = DateOnly(from)
	to = DateOnly(to)
	return int(to.Sub(from) / (24 * time.Hour))
}

// DaysInMonth returns the number of days in the month containing t.
func DaysInMonth(t time.Time) int {
	t = t.In(Bangkok)
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, Bangkok)
	return first.AddDate(0, 1, -1).Day()
}
