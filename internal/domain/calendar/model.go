package calendar

import (
	"sort"
	"time"

	"gymflow/internal/domain/blockeddate"
	"gymflow/internal/domain/class"
)

// MonthLayout is the wire format of a month anchor.
const MonthLayout = "2006-01"

// Day is one cell of the month grid.
type Day struct {
	Date    time.Time
	InMonth bool // false for padding days from the neighbouring months
	Classes []class.Class
	Blocked *blockeddate.BlockedDate
}

// Month is the grid for one calendar month, in rows of seven days.
// PRE: built by BuildMonth
// INVARIANT: every week has exactly seven days; the first day is the configured week start
type Month struct {
	Anchor    time.Time // first day of the month
	WeekStart time.Weekday
	Weeks     [][]Day
}

// MonthStart returns the first day of t's month.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// NextMonth moves the anchor forward one month.
// Anchoring on day 1 keeps Jan 31 -> Feb instead of overflowing into March.
func NextMonth(anchor time.Time) time.Time {
	return MonthStart(anchor).AddDate(0, 1, 0)
}

// PrevMonth moves the anchor back one month.
func PrevMonth(anchor time.Time) time.Time {
	return MonthStart(anchor).AddDate(0, -1, 0)
}

// ParseMonth parses "YYYY-MM" into a month anchor.
func ParseMonth(s string) (time.Time, error) {
	t, err := time.Parse(MonthLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return MonthStart(t), nil
}

// VisibleRange returns the first and last date shown on the grid for anchor's month.
// PRE: none
// POST: first is on weekStart, last is the day before a weekStart, and both bracket the month
func VisibleRange(anchor time.Time, weekStart time.Weekday) (first, last time.Time) {
	start := MonthStart(anchor)
	end := start.AddDate(0, 1, -1)
	lead := (int(start.Weekday()) - int(weekStart) + 7) % 7
	trail := (int(weekStart) + 6 - int(end.Weekday()) + 7) % 7
	return start.AddDate(0, 0, -lead), end.AddDate(0, 0, trail)
}

// BuildMonth buckets classes and blocked dates into the grid for anchor's month.
// Classes are matched to days by exact YYYY-MM-DD key and sorted by start time.
// PRE: none
// POST: every class whose date is visible appears in exactly one Day
func BuildMonth(anchor time.Time, classes []class.Class, blocked []blockeddate.BlockedDate, weekStart time.Weekday) Month {
	start := MonthStart(anchor)
	first, last := VisibleRange(start, weekStart)

	byDate := make(map[string][]class.Class)
	for _, c := range classes {
		byDate[c.DateKey()] = append(byDate[c.DateKey()], c)
	}
	blockedByDate := blockeddate.NewSet(blocked)

	m := Month{Anchor: start, WeekStart: weekStart}
	var week []Day
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		key := class.FormatDate(d)
		day := Day{Date: d, InMonth: d.Month() == start.Month()}
		if cs := byDate[key]; len(cs) > 0 {
			sort.SliceStable(cs, func(i, j int) bool {
				return cs[i].StartMinute() < cs[j].StartMinute()
			})
			day.Classes = cs
		}
		if bd, ok := blockedByDate[key]; ok {
			day.Blocked = &bd
		}
		week = append(week, day)
		if len(week) == 7 {
			m.Weeks = append(m.Weeks, week)
			week = nil
		}
	}
	return m
}

// Day returns the cell for date, if it is visible.
func (m Month) Day(date time.Time) (Day, bool) {
	key := class.FormatDate(date)
	for _, w := range m.Weeks {
		for _, d := range w {
			if class.FormatDate(d.Date) == key {
				return d, true
			}
		}
	}
	return Day{}, false
}

// ClassCount returns how many classes fall inside the month itself.
func (m Month) ClassCount() int {
	n := 0
	for _, w := range m.Weeks {
		for _, d := range w {
			if d.InMonth {
				n += len(d.Classes)
			}
		}
	}
	return n
}
