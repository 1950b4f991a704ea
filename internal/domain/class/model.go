package class

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

// Approval status values. An empty status means the class was created by staff
// who do not need sign-off.
const (
	StatusApproved = "Approved"
	StatusPending  = "Pending"
	StatusRejected = "Rejected"
)

// Max length constants, in characters.
const (
	MaxNameLength = 120
	MaxNoteLength = 4000
)

// Domain errors
var (
	ErrEmptyName               = errors.New("class name cannot be empty")
	ErrNameTooLong             = errors.New("class name cannot exceed 120 characters")
	ErrEmptyLocation           = errors.New("location cannot be empty")
	ErrEmptyTrainer            = errors.New("trainer cannot be empty")
	ErrEmptyDate               = errors.New("class date cannot be zero")
	ErrInvalidStartTime        = errors.New("start time must be HH:MM")
	ErrInvalidDuration         = errors.New("duration cannot be negative")
	ErrInvalidSpots            = errors.New("spots cannot be negative")
	ErrInvalidBooked           = errors.New("booked count cannot be negative")
	ErrInvalidStatus           = errors.New("status must be Approved, Pending or Rejected")
	ErrNoteTooLong             = errors.New("note cannot exceed 4000 characters")
	ErrClassFull               = errors.New("class is fully booked")
	ErrNotBookable             = errors.New("only approved classes can be booked")
	ErrRejectionReasonRequired = errors.New("a reason is required to reject a class")
	ErrNotPending              = errors.New("only pending classes can be reviewed")
)

// Online carries the optional online-session and payment metadata of a class.
type Online struct {
	MeetingURL      string
	PriceCents      int
	PaymentRequired bool
}

// Class is one scheduled session instance at a location.
// Trainer is a display name, not a reference to another record.
// Booked <= Spots is enforced by Book, not by Validate, so imported data that
// already exceeds capacity can still be loaded and inspected.
type Class struct {
	ID              string
	LocationID      string
	Name            string
	Trainer         string
	Date            time.Time // civil date, midnight UTC
	StartTime       string    // HH:MM
	DurationMinutes int
	Spots           int
	Booked          int
	Online          *Online
	Status          string
	RejectionReason string
	Note            string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Validate checks if the Class has valid data.
// PRE: Class struct is populated
// POST: Returns nil if valid, the first violated rule otherwise
func (c *Class) Validate() error {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return ErrEmptyName
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return ErrNameTooLong
	}
	if strings.TrimSpace(c.LocationID) == "" {
		return ErrEmptyLocation
	}
	if strings.TrimSpace(c.Trainer) == "" {
		return ErrEmptyTrainer
	}
	if c.Date.IsZero() {
		return ErrEmptyDate
	}
	if _, err := ParseTimeOfDay(c.StartTime); err != nil {
		return ErrInvalidStartTime
	}
	if c.DurationMinutes < 0 {
		return ErrInvalidDuration
	}
	if c.Spots < 0 {
		return ErrInvalidSpots
	}
	if c.Booked < 0 {
		return ErrInvalidBooked
	}
	if !IsValidStatus(c.Status) {
		return ErrInvalidStatus
	}
	if utf8.RuneCountInString(c.Note) > MaxNoteLength {
		return ErrNoteTooLong
	}
	return nil
}

// DateKey returns the YYYY-MM-DD bucket the class belongs to.
func (c *Class) DateKey() string {
	return FormatDate(c.Date)
}

// StartMinute returns the start as minutes after midnight.
// PRE: StartTime is HH:MM (unparseable values yield 0)
func (c *Class) StartMinute() int {
	m, _ := ParseTimeOfDay(c.StartTime)
	return m
}

// EndMinute returns the exclusive end of the class interval in minutes after midnight.
func (c *Class) EndMinute() int {
	return c.StartMinute() + c.DurationMinutes
}

// EndTime returns the end as HH:MM.
func (c *Class) EndTime() string {
	return FormatTimeOfDay(c.EndMinute())
}

// Covers reports whether minute falls in [start, start+duration).
// INVARIANT: zero-duration classes cover nothing
func (c *Class) Covers(minute int) bool {
	return minute >= c.StartMinute() && minute < c.EndMinute()
}

// Overlaps reports whether the half-open intervals of c and other intersect.
// Classes on different dates never overlap. Touching intervals do not overlap.
func (c *Class) Overlaps(other Class) bool {
	if c.DateKey() != other.DateKey() {
		return false
	}
	if c.DurationMinutes == 0 || other.DurationMinutes == 0 {
		// an empty interval still collides if it sits strictly inside the other
		if c.DurationMinutes == 0 {
			return other.Covers(c.StartMinute())
		}
		return c.Covers(other.StartMinute())
	}
	return c.StartMinute() < other.EndMinute() && other.StartMinute() < c.EndMinute()
}

// SpotsLeft returns the remaining capacity, never below zero.
func (c *Class) SpotsLeft() int {
	if c.Booked >= c.Spots {
		return 0
	}
	return c.Spots - c.Booked
}

// IsFull reports whether no spots remain.
func (c *Class) IsFull() bool {
	return c.Booked >= c.Spots
}

// IsBookable reports whether members may take spots. Classes that never went
// through review count as approved.
func (c *Class) IsBookable() bool {
	return c.Status == "" || c.Status == StatusApproved
}

// Book takes one spot.
// PRE: none
// POST: Booked incremented, or ErrNotBookable / ErrClassFull and nothing changed
func (c *Class) Book() error {
	if !c.IsBookable() {
		return ErrNotBookable
	}
	if c.IsFull() {
		return ErrClassFull
	}
	c.Booked++
	return nil
}

// Approve marks a pending class as approved.
// PRE: Status is Pending
// POST: Status is Approved and any rejection reason is cleared
func (c *Class) Approve() error {
	if c.Status != StatusPending {
		return ErrNotPending
	}
	c.Status = StatusApproved
	c.RejectionReason = ""
	return nil
}

// Reject marks a pending class as rejected with a mandatory reason.
// PRE: Status is Pending, reason is non-blank
// POST: Status is Rejected, RejectionReason set
func (c *Class) Reject(reason string) error {
	if c.Status != StatusPending {
		return ErrNotPending
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrRejectionReasonRequired
	}
	c.Status = StatusRejected
	c.RejectionReason = reason
	return nil
}

// IsValidStatus reports whether s is empty or one of the approval statuses.
func IsValidStatus(s string) bool {
	switch s {
	case "", StatusApproved, StatusPending, StatusRejected:
		return true
	default:
		return false
	}
}
