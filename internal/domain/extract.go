package domain

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// leadingNumberRe matches the numeric prefix of a string the way a lenient
// float parser would: "123.5 m3" -> "123.5", ".5" -> ".5".
var leadingNumberRe = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?`)

// ExtractValue resolves a reading from the first alias that holds a usable
// number. Absent, null and empty-string values are skipped; the first alias
// that parses wins and later aliases are never consulted. Returns 0 when no
// alias yields a number.
func ExtractValue(rec RawRecord, aliases []string) float64 {
	for _, key := range aliases {
		raw, ok := rec[key]
		if !ok || raw == nil {
			continue
		}
		if s, isString := raw.(string); isString && s == "" {
			continue
		}
		if v, ok := parseReading(raw); ok {
			return v
		}
	}
	return 0
}

// parseReading converts a decoded JSON value into a reading. Negative and
// non-finite values are not valid volumes.
func parseReading(raw any) (float64, bool) {
	var v float64
	switch x := raw.(type) {
	case float64:
		v = x
	case json.Number:
		f, ok := parseLeadingFloat(x.String())
		if !ok {
			return 0, false
		}
		v = f
	case string:
		f, ok := parseLeadingFloat(x)
		if !ok {
			return 0, false
		}
		v = f
	case int:
		v = float64(x)
	case int64:
		v = float64(x)
	default:
		return 0, false
	}

	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false
	}
	return v, true
}

// parseLeadingFloat parses the numeric prefix of s after leading whitespace.
func parseLeadingFloat(s string) (float64, bool) {
	s = strings.TrimLeft(s, " \t\n\r")
	m := leadingNumberRe.FindString(s)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
