package slot

import (
	"gymflow/internal/domain/class"
)

// Length is the granularity of the time selector in minutes.
const Length = 30

// Status is one selectable half-hour slot and whether it is taken.
type Status struct {
	Time      string // HH:MM
	Minute    int
	Booked    bool
	BookedBy  string // ID of the first class covering the slot
	ClassName string
}

// HalfHourSlots enumerates slot start minutes in [opens, closes).
// PRE: 0 <= opens <= closes <= 1440
// POST: Returns ascending minutes spaced Length apart, starting at opens
func HalfHourSlots(opens, closes int) []int {
	if closes <= opens {
		return nil
	}
	slots := make([]int, 0, (closes-opens+Length-1)/Length)
	for m := opens; m < closes; m += Length {
		slots = append(slots, m)
	}
	return slots
}

// IsBooked reports whether any class other than excludeID covers slotMinute.
// Classes whose interval ends exactly at slotMinute do not block it.
// PRE: existing holds classes for the same date and location
func IsBooked(slotMinute int, existing []class.Class, excludeID string) bool {
	_, ok := coveringClass(slotMinute, existing, excludeID)
	return ok
}

// Availability builds the slot selector for one day.
// PRE: existing holds classes for the same date and location
// POST: one Status per half-hour slot in [opens, closes)
func Availability(opens, closes int, existing []class.Class, excludeID string) []Status {
	minutes := HalfHourSlots(opens, closes)
	out := make([]Status, 0, len(minutes))
	for _, m := range minutes {
		st := Status{Time: class.FormatTimeOfDay(m), Minute: m}
		if c, ok := coveringClass(m, existing, excludeID); ok {
			st.Booked = true
			st.BookedBy = c.ID
			st.ClassName = c.Name
		}
		out = append(out, st)
	}
	return out
}

// FindConflict returns the first class other than candidate whose interval
// overlaps the candidate's on the same date.
// PRE: candidate has a parseable StartTime
// POST: ok is false when the candidate fits
func FindConflict(candidate class.Class, existing []class.Class) (class.Class, bool) {
	for _, c := range existing {
		if c.ID != "" && c.ID == candidate.ID {
			continue
		}
		if candidate.Overlaps(c) {
			return c, true
		}
	}
	return class.Class{}, false
}

func coveringClass(minute int, existing []class.Class, excludeID string) (class.Class, bool) {
	for _, c := range existing {
		if excludeID != "" && c.ID == excludeID {
			continue
		}
		if c.Covers(minute) {
			return c, true
		}
	}
	return class.Class{}, false
}
