package class

import (
	"fmt"
	"time"
)

// DateLayout is the storage and wire format for civil dates.
const DateLayout = "2006-01-02"

// TimeLayout is the storage and wire format for times of day.
const TimeLayout = "15:04"

const minutesPerDay = 24 * 60

// NormalizeDate strips the clock from t, keeping its calendar day.
// PRE: none
// POST: Returns midnight UTC of t's year/month/day (zero stays zero)
func NormalizeDate(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a normalized civil date.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return d, nil
}

// FormatDate renders a civil date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// ParseTimeOfDay converts "HH:MM" to minutes after midnight.
// PRE: s is in 24h HH:MM format
// POST: Returns 0..1439 or an error
func ParseTimeOfDay(s string) (int, error) {
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// CanonicalTimeOfDay rewrites a parseable time as zero-padded HH:MM so stored
// values sort as strings ("9:00" becomes "09:00"). Unparseable input is returned
// unchanged for Validate to reject.
func CanonicalTimeOfDay(s string) string {
	m, err := ParseTimeOfDay(s)
	if err != nil {
		return s
	}
	return FormatTimeOfDay(m)
}

// FormatTimeOfDay converts minutes after midnight back to "HH:MM".
// Values past midnight wrap around.
func FormatTimeOfDay(minute int) string {
	m := ((minute % minutesPerDay) + minutesPerDay) % minutesPerDay
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}
