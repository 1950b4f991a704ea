package calendar

import (
	"context"
	"errors"
	"time"

	"gymflow/internal/domain/blockeddate"
	"gymflow/internal/domain/class"
	"gymflow/internal/domain/location"
	"gymflow/internal/domain/recurrence"
)

// Invariant violations. The store refuses any write that would leave a class on a blocked date.
var (
	ErrDateHasClasses  = errors.New("date has scheduled classes and cannot be blocked")
	ErrAlreadyBlocked  = errors.New("date is already blocked")
	ErrDateBlocked     = errors.New("date is blocked for scheduling")
	ErrSlotConflict    = errors.New("time slot overlaps an existing class")
	ErrDailyCapReached = errors.New("location has reached its daily class limit")
	ErrUnknownLocation = errors.New("location does not exist")
)

// AddMode controls how AddClasses treats a class that breaks a scheduling rule.
type AddMode int

const (
	// AllOrNothing aborts the whole batch on the first rejected class.
	AllOrNothing AddMode = iota
	// SkipRejected inserts the acceptable classes and reports the rest.
	SkipRejected
)

// AddResult reports what AddClasses persisted.
type AddResult struct {
	Added   []class.Class
	Skipped []recurrence.Skipped
}

// Store owns the class list and the blocked-date registry together.
// Every method runs in one transaction; reads go through the class and blockeddate stores.
type Store interface {
	// BlockDate adds b to the registry.
	// PRE: b has been validated
	// POST: ErrDateHasClasses if any class is on that date, ErrAlreadyBlocked on duplicates
	BlockDate(ctx context.Context, b blockeddate.BlockedDate) error

	// UnblockDate removes date from the registry and reports whether it was present.
	// Removing an absent date is not an error.
	UnblockDate(ctx context.Context, date time.Time) (bool, error)

	// AddClasses inserts classes, checking blocked dates, slot conflicts at the
	// same location, trainer double-booking and the location's daily cap.
	// PRE: every class has been validated and has a unique ID
	// POST: with AllOrNothing either all classes are persisted or none are
	AddClasses(ctx context.Context, classes []class.Class, mode AddMode) (AddResult, error)

	// UpdateClass rewrites an existing class under the same rules as AddClasses,
	// excluding the class itself from conflict and cap checks.
	UpdateClass(ctx context.Context, c class.Class) error

	// ReplaceAll swaps the entire schedule for the given data.
	// POST: ErrDateBlocked and no change if any class lands on a blocked date
	ReplaceAll(ctx context.Context, locations []location.Location, classes []class.Class, blocked []blockeddate.BlockedDate) error
}
