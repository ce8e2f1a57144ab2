package domain

import (
	"strconv"
	"strings"
	"time"
)

// RawRecord is one untyped JSON object as returned by the upstream API.
// Key spelling and casing vary between yearly datasets.
type RawRecord map[string]any

// Observation is a parsed record: a calendar day and the four readings.
type Observation struct {
	// Date is local midnight of the observation's calendar day.
	Date     time.Time
	Readings Readings
}

// TimestampMillis is Date in milliseconds since the Unix epoch.
func (o Observation) TimestampMillis() int64 { return o.Date.UnixMilli() }

type dateLayout int

const (
	layoutYMD dateLayout = iota // YYYY-MM-DD
	layoutDMY                   // DD-MM-YYYY
)

// ParseRecord converts a raw record into an Observation. It reports false when
// the record has no usable date; such records are dropped by the caller.
// Dates are interpreted in loc.
func ParseRecord(rec RawRecord, loc *time.Location) (Observation, bool) {
	dateStr, ok := recordDate(rec)
	if !ok {
		return Observation{}, false
	}

	date, ok := ParseDate(dateStr, loc)
	if !ok {
		return Observation{}, false
	}

	var readings Readings
	for _, r := range Reservoirs {
		readings[r] = ExtractValue(rec, catalog[r].aliases)
	}

	return Observation{Date: date, Readings: readings}, true
}

// recordDate returns the date string under "date", falling back to "Date"
// when the former is missing or empty.
func recordDate(rec RawRecord) (string, bool) {
	for _, key := range []string{"date", "Date"} {
		if s, ok := rec[key].(string); ok && s != "" {
			return s, true
		}
	}
	return "", false
}

// ParseDate interprets s as YYYY-MM-DD, then as DD-MM-YYYY, accepting "/" as
// a separator. The result is midnight of that day in loc. Strings that are not
// a real calendar date in either layout are rejected.
func ParseDate(s string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}
	parts := strings.Split(strings.ReplaceAll(s, "/", "-"), "-")
	if len(parts) != 3 {
		return time.Time{}, false
	}

	for _, layout := range []dateLayout{layoutYMD, layoutDMY} {
		if t, ok := dateFromParts(parts, layout, loc); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

func dateFromParts(parts []string, layout dateLayout, loc *time.Location) (time.Time, bool) {
	var ys, ms, ds string
	switch layout {
	case layoutYMD:
		ys, ms, ds = parts[0], parts[1], parts[2]
	case layoutDMY:
		ds, ms, ys = parts[0], parts[1], parts[2]
	}

	year, ok := parseDigits(ys, 4)
	if !ok {
		return time.Time{}, false
	}
	month, ok := parseDigits(ms, 2)
	if !ok {
		return time.Time{}, false
	}
	day, ok := parseDigits(ds, 2)
	if !ok {
		return time.Time{}, false
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
	// time.Date normalizes out-of-range values (Feb 30 -> Mar 1); reject those.
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

// parseDigits parses a run of 1..maxLen ASCII digits.
func parseDigits(s string, maxLen int) (int, bool) {
	if s == "" || len(s) > maxLen {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
