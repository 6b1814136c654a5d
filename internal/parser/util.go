package parser

import (
	"strconv"
	"strings"
	"time"
)

// statementDateLayout is the date form PhonePe prints, e.g. "Oct 30, 2025".
const statementDateLayout = "Jan 02, 2006"

// ParseAmount converts a token such as "₹1,500" or "10,00,000" to a float64.
// Everything except ASCII digits and '.' is discarded first. ok is false when
// nothing parseable remains.
func ParseAmount(raw string) (value float64, ok bool) {
	if raw == "" {
		return 0, false
	}

	var b strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}

	v, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// NormalizeAmount is ParseAmount with a 0.0 default for malformed tokens.
func NormalizeAmount(raw string) float64 {
	v, _ := ParseAmount(raw)
	return v
}

// ParseDate coerces a statement display date into a calendar date (UTC midnight).
// Runs of Unicode spaces count as one separator.
func ParseDate(s string) (time.Time, bool) {
	t, err := time.Parse(statementDateLayout, strings.Join(strings.Fields(s), " "))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
