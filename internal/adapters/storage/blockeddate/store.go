package blockeddate

import (
	"context"
	"errors"
	"time"

	domain "gymflow/internal/domain/blockeddate"
)

// ErrNotFound is returned when the date is not blocked.
var ErrNotFound = errors.New("blocked date not found")

// Store reads the blocked-date registry.
// Writes go through the calendar store, which owns the no-classes-on-blocked-days invariant.
type Store interface {
	Get(ctx context.Context, date time.Time) (domain.BlockedDate, error)
	IsBlocked(ctx context.Context, date time.Time) (bool, error)
	List(ctx context.Context) ([]domain.BlockedDate, error)
	ListByRange(ctx context.Context, from, to time.Time) ([]domain.BlockedDate, error)
	Count(ctx context.Context) (int, error)
}

// Writer mutates the registry. Only the calendar store composes it.
type Writer interface {
	Insert(ctx context.Context, b domain.BlockedDate) error
	Delete(ctx context.Context, date time.Time) (bool, error)
	DeleteAll(ctx context.Context) error
}
