package orchestrators

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	calendarstore "gymflow/internal/adapters/storage/calendar"
	"gymflow/internal/application/changefeed"
	"gymflow/internal/domain/blockeddate"
	"gymflow/internal/domain/class"
	"gymflow/internal/domain/location"
	"gymflow/internal/domain/recurrence"
	"gymflow/internal/observability"
)

// Scheduling errors. The calendar store is the single owner of these rules,
// so orchestrators return its sentinels unchanged.
var (
	ErrDateBlocked     = calendarstore.ErrDateBlocked
	ErrDateHasClasses  = calendarstore.ErrDateHasClasses
	ErrAlreadyBlocked  = calendarstore.ErrAlreadyBlocked
	ErrSlotConflict    = calendarstore.ErrSlotConflict
	ErrDailyCapReached = calendarstore.ErrDailyCapReached
	ErrUnknownLocation = calendarstore.ErrUnknownLocation
	ErrNotBookable     = class.ErrNotBookable
)

// Orchestrator-level validation errors.
var (
	ErrIDRequired       = errors.New("class ID is required")
	ErrSpotsBelowBooked = errors.New("spots cannot be reduced below the number already booked")
)

// ClassScheduler is the calendar store surface used to place classes.
type ClassScheduler interface {
	AddClasses(ctx context.Context, classes []class.Class, mode calendarstore.AddMode) (calendarstore.AddResult, error)
	UpdateClass(ctx context.Context, c class.Class) error
}

// DateRegistry is the calendar store surface used to block and unblock dates.
type DateRegistry interface {
	BlockDate(ctx context.Context, b blockeddate.BlockedDate) error
	UnblockDate(ctx context.Context, date time.Time) (bool, error)
}

// ScheduleReplacer swaps the whole schedule, for imports and seeding.
type ScheduleReplacer interface {
	ReplaceAll(ctx context.Context, locations []location.Location, classes []class.Class, blocked []blockeddate.BlockedDate) error
}

// ClassReader loads a single class.
type ClassReader interface {
	GetByID(ctx context.Context, id string) (class.Class, error)
}

func nowFrom(f func() time.Time) time.Time {
	if f != nil {
		return f()
	}
	return time.Now().UTC()
}

func idFrom(f func() string) func() string {
	if f != nil {
		return f
	}
	return func() string { return uuid.New().String() }
}

func publisherOrDiscard(p changefeed.Publisher) changefeed.Publisher {
	if p == nil {
		return changefeed.Discard{}
	}
	return p
}

func classIDs(classes []class.Class) []string {
	ids := make([]string, 0, len(classes))
	for _, c := range classes {
		ids = append(ids, c.ID)
	}
	return ids
}

func distinctDates(classes []class.Class) []string {
	seen := make(map[string]bool, len(classes))
	var out []string
	for _, c := range classes {
		k := c.DateKey()
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}

// rejectionReason maps a scheduling error to its metric label.
func rejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrDateBlocked):
		return observability.ReasonBlocked
	case errors.Is(err, ErrSlotConflict):
		return observability.ReasonConflict
	case errors.Is(err, ErrDailyCapReached):
		return observability.ReasonDailyCap
	case errors.Is(err, ErrDateHasClasses):
		return observability.ReasonHasClasses
	default:
		return observability.ReasonValidation
	}
}

func skipReasonMetric(reason string) string {
	switch reason {
	case recurrence.SkipBlocked:
		return observability.ReasonBlocked
	case recurrence.SkipConflict:
		return observability.ReasonConflict
	case recurrence.SkipDailyCap:
		return observability.ReasonDailyCap
	default:
		return observability.ReasonValidation
	}
}
