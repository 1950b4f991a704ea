package class

import (
	"context"
	"errors"
	"time"

	domain "gymflow/internal/domain/class"
)

// ErrNotFound is returned when no class has the requested ID.
var ErrNotFound = errors.New("class not found")

// SortColumns are the columns List accepts in ListFilter.Sort.
var SortColumns = []string{"date", "name", "trainer", "start_time", "spots", "status"}

// ListFilter narrows List and Count. Zero values mean "any".
type ListFilter struct {
	LocationID string
	Trainer    string
	Status     string
	From       time.Time // inclusive civil date
	To         time.Time // inclusive civil date
	Search     string    // matches name or trainer
	Sort       string    // one of SortColumns; default date, start_time
	Dir        string    // "asc" or "desc"
	Limit      int
	Offset     int
}

// Store persists Class state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Class, error)
	Save(ctx context.Context, value domain.Class) error
	Delete(ctx context.Context, id string) error
	// IncrementBooked takes one spot if the class is approved and capacity remains.
	// POST: returns domain.ErrNotBookable for Pending or Rejected classes and
	// domain.ErrClassFull when booked already equals spots
	IncrementBooked(ctx context.Context, id string, now time.Time) (domain.Class, error)
	ListByDate(ctx context.Context, date time.Time, locationID string) ([]domain.Class, error)
	ListByRange(ctx context.Context, from, to time.Time, locationID string) ([]domain.Class, error)
	ListByTrainerOnDate(ctx context.Context, trainer string, date time.Time) ([]domain.Class, error)
	CountOnDate(ctx context.Context, date time.Time, locationID string) (int, error)
	List(ctx context.Context, filter ListFilter) ([]domain.Class, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
	All(ctx context.Context) ([]domain.Class, error)
}
