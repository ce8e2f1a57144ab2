package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// clock is a package-level time source so tests can freeze "today" via SetClock.
// Production code uses the real clock; tests inject a fake for deterministic anchors.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Now returns the current time from the package clock.
func Now() time.Time {
	return clock.Now()
}

// Today returns local midnight of the current day in loc.
func Today(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	now := clock.Now().In(loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
}

// SubYears moves t back n calendar years. A day that does not exist in the
// target month is clamped to the month's last day (Feb 29 -> Feb 28).
func SubYears(t time.Time, n int) time.Time {
	return addMonthsClamped(t, -12*n)
}

// SubMonths moves t back n calendar months with the same clamping as SubYears.
func SubMonths(t time.Time, n int) time.Time {
	return addMonthsClamped(t, -n)
}

func addMonthsClamped(t time.Time, months int) time.Time {
	first := time.Date(t.Year(), t.Month(), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	target := first.AddDate(0, months, 0)
	day := t.Day()
	if last := daysIn(target.Year(), target.Month(), t.Location()); day > last {
		day = last
	}
	return time.Date(target.Year(), target.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

// AnchorDates returns today minus i years for every i in [0, years).
func AnchorDates(years int, loc *time.Location) []time.Time {
	today := Today(loc)
	anchors := make([]time.Time, 0, years)
	for i := 0; i < years; i++ {
		anchors = append(anchors, SubYears(today, i))
	}
	return anchors
}
