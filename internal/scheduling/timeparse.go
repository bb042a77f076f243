package scheduling

import (
	"fmt"
	"time"
)

// ParseClinicTime parses a proposed appointment time into the clinic's
// timezone. Handles:
//   - RFC3339 with offset: "2006-01-02T15:04:05-05:00"
//   - RFC3339 UTC: "2006-01-02T15:04:05Z"
//   - Naive datetime (no timezone): "2006-01-02T15:04:05" — treated as
//     clinic local, the form voice transcription produces
func ParseClinicTime(raw string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}

	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.In(loc), nil
	}
	if t, err := time.Parse("2006-01-02T15:04:05-07:00", raw); err == nil {
		return t.In(loc), nil
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04:05", raw, loc); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04", raw, loc); err == nil {
		return t, nil
	}

	return time.Time{}, fmt.Errorf("scheduling: cannot parse appointment time %q", raw)
}

// ClinicLocation returns the *time.Location for a clinic timezone string,
// falling back to UTC when invalid or empty.
func ClinicLocation(timezone string) *time.Location {
	if timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// FormatNatural renders an appointment time the way the assistant speaks it,
// e.g. "Friday, October 24 at 4:30 PM PDT".
func FormatNatural(t time.Time) string {
	return t.Format("Monday, January 2 at 3:04 PM MST")
}
