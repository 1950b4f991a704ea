package recurrence

import (
	"errors"
	"time"

	"gymflow/internal/domain/class"
)

// MaxOccurrences caps how many dates a single request may produce.
const MaxOccurrences = 366

// Domain errors
var (
	ErrNoWeekdays         = errors.New("select at least one day for the recurring class")
	ErrMissingEndDate     = errors.New("an end date is required for recurring classes")
	ErrMissingStartDate   = errors.New("a start date is required for recurring classes")
	ErrInvalidWeekday     = errors.New("weekday must be between 0 (Sunday) and 6 (Saturday)")
	ErrEndBeforeStart     = errors.New("end date must be on or after the start date")
	ErrTooManyOccurrences = errors.New("recurring schedule produces too many classes")
)

// Skip reasons reported for dates that matched the weekday set but produced no class.
const (
	SkipBlocked  = "blocked"
	SkipConflict = "conflict"
	SkipDailyCap = "daily_cap"
)

// Request drives one expansion. It is never persisted.
type Request struct {
	Weekdays  []time.Weekday
	StartDate time.Time
	EndDate   time.Time
}

// Skipped is a matching date that did not produce a class.
type Skipped struct {
	Date         time.Time
	Reason       string
	ConflictWith string // ID of the existing class, for SkipConflict
}

// Validate checks the request before any dates are produced.
// PRE: none
// POST: Returns nil if the request can be expanded
func (r Request) Validate() error {
	if len(r.Weekdays) == 0 {
		return ErrNoWeekdays
	}
	if r.EndDate.IsZero() {
		return ErrMissingEndDate
	}
	if r.StartDate.IsZero() {
		return ErrMissingStartDate
	}
	for _, wd := range r.Weekdays {
		if wd < time.Sunday || wd > time.Saturday {
			return ErrInvalidWeekday
		}
	}
	start := class.NormalizeDate(r.StartDate)
	end := class.NormalizeDate(r.EndDate)
	if end.Before(start) {
		return ErrEndBeforeStart
	}
	if r.countMatches(start, end) > MaxOccurrences {
		return ErrTooManyOccurrences
	}
	return nil
}

// Dates returns every date in [StartDate, EndDate] whose weekday is in the set,
// minus those for which blocked returns true. Blocked dates are reported as skipped.
// PRE: Validate() returned nil
// POST: dates ascending; no returned date satisfies blocked
func (r Request) Dates(blocked func(time.Time) bool) ([]time.Time, []Skipped) {
	days := r.weekdaySet()
	start := class.NormalizeDate(r.StartDate)
	end := class.NormalizeDate(r.EndDate)

	var dates []time.Time
	var skipped []Skipped
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if !days[d.Weekday()] {
			continue
		}
		if blocked != nil && blocked(d) {
			skipped = append(skipped, Skipped{Date: d, Reason: SkipBlocked})
			continue
		}
		dates = append(dates, d)
	}
	return dates, skipped
}

// Expand materializes one class per produced date.
// PRE: Validate() returned nil; newID returns a fresh unique identifier per call
// POST: len(classes) equals the number of matching, non-blocked dates; every class has Booked = 0
func Expand(tpl class.Template, r Request, blocked func(time.Time) bool, newID func() string) ([]class.Class, []Skipped, error) {
	if err := r.Validate(); err != nil {
		return nil, nil, err
	}
	dates, skipped := r.Dates(blocked)
	classes := make([]class.Class, 0, len(dates))
	for _, d := range dates {
		classes = append(classes, tpl.Materialize(newID(), d))
	}
	return classes, skipped, nil
}

func (r Request) weekdaySet() map[time.Weekday]bool {
	set := make(map[time.Weekday]bool, len(r.Weekdays))
	for _, wd := range r.Weekdays {
		set[wd] = true
	}
	return set
}

func (r Request) countMatches(start, end time.Time) int {
	days := r.weekdaySet()
	n := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if days[d.Weekday()] {
			n++
			if n > MaxOccurrences {
				return n
			}
		}
	}
	return n
}
