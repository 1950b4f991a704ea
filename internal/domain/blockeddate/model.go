package blockeddate

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"gymflow/internal/domain/class"
)

// MaxReasonLength bounds the free-text reason, in characters.
const MaxReasonLength = 500

// Domain errors
var (
	ErrEmptyDate     = errors.New("blocked date cannot be zero")
	ErrEmptyReason   = errors.New("a reason is required to block a date")
	ErrReasonTooLong = errors.New("reason cannot exceed 500 characters")
)

// BlockedDate is a calendar day on which no classes may be scheduled.
type BlockedDate struct {
	Date      time.Time
	Reason    string
	CreatedAt time.Time
}

// Validate checks if the BlockedDate has valid data.
// PRE: BlockedDate struct is populated
// POST: Returns nil if valid, error otherwise
func (b *BlockedDate) Validate() error {
	if b.Date.IsZero() {
		return ErrEmptyDate
	}
	reason := strings.TrimSpace(b.Reason)
	if reason == "" {
		return ErrEmptyReason
	}
	if utf8.RuneCountInString(reason) > MaxReasonLength {
		return ErrReasonTooLong
	}
	return nil
}

// Key returns the YYYY-MM-DD identity of the blocked day.
func (b *BlockedDate) Key() string {
	return class.FormatDate(b.Date)
}

// Set is a lookup of blocked days keyed by YYYY-MM-DD.
type Set map[string]BlockedDate

// NewSet indexes the given blocked dates.
func NewSet(dates []BlockedDate) Set {
	s := make(Set, len(dates))
	for _, d := range dates {
		s[d.Key()] = d
	}
	return s
}

// Contains reports whether date is blocked. A nil Set blocks nothing.
// INVARIANT: Set is not mutated
func (s Set) Contains(date time.Time) bool {
	_, ok := s[class.FormatDate(date)]
	return ok
}
