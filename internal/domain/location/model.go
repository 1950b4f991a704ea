package location

import (
	"errors"
	"strings"
	"unicode/utf8"

	"gymflow/internal/domain/class"
)

// Defaults applied when a location does not specify its own hours or cap.
const (
	DefaultOpensAt          = "06:00"
	DefaultClosesAt         = "22:00"
	DefaultMaxClassesPerDay = 5
)

// MaxNameLength bounds a location name, in characters.
const MaxNameLength = 80

// Domain errors
var (
	ErrEmptyName    = errors.New("location name cannot be empty")
	ErrNameTooLong  = errors.New("location name cannot exceed 80 characters")
	ErrInvalidHours = errors.New("opening hours must be HH:MM with opening before closing")
	ErrInvalidCap   = errors.New("max classes per day cannot be negative")
)

// Location is a gym site classes are scheduled at.
type Location struct {
	ID               string
	Name             string
	OpensAt          string // HH:MM
	ClosesAt         string // HH:MM
	MaxClassesPerDay int    // 0 means no cap
}

// Validate checks if the Location has valid data.
// PRE: Location struct is populated
// POST: Returns nil if valid, error otherwise
func (l *Location) Validate() error {
	name := strings.TrimSpace(l.Name)
	if name == "" {
		return ErrEmptyName
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return ErrNameTooLong
	}
	opens, err := class.ParseTimeOfDay(l.OpensAt)
	if err != nil {
		return ErrInvalidHours
	}
	closes, err := class.ParseTimeOfDay(l.ClosesAt)
	if err != nil {
		return ErrInvalidHours
	}
	if closes <= opens {
		return ErrInvalidHours
	}
	if l.MaxClassesPerDay < 0 {
		return ErrInvalidCap
	}
	return nil
}

// ApplyDefaults fills unset hours and zero-pads the ones given. A zero cap is
// left alone since it means no cap.
// POST: OpensAt, ClosesAt are non-empty
func (l *Location) ApplyDefaults() {
	if l.OpensAt == "" {
		l.OpensAt = DefaultOpensAt
	}
	if l.ClosesAt == "" {
		l.ClosesAt = DefaultClosesAt
	}
	l.OpensAt = class.CanonicalTimeOfDay(l.OpensAt)
	l.ClosesAt = class.CanonicalTimeOfDay(l.ClosesAt)
}

// Hours returns the opening window in minutes after midnight.
// PRE: Validate() returned nil
func (l *Location) Hours() (opens, closes int) {
	opens, _ = class.ParseTimeOfDay(l.OpensAt)
	closes, _ = class.ParseTimeOfDay(l.ClosesAt)
	return opens, closes
}

// AtCapacity reports whether scheduledToday classes already fill the daily cap.
func (l *Location) AtCapacity(scheduledToday int) bool {
	return l.MaxClassesPerDay > 0 && scheduledToday >= l.MaxClassesPerDay
}
