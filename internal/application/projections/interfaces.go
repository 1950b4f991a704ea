package projections

import (
	"context"
	"time"

	classstore "gymflow/internal/adapters/storage/class"
	domainBlocked "gymflow/internal/domain/blockeddate"
	domainClass "gymflow/internal/domain/class"
	domainLocation "gymflow/internal/domain/location"
)

// ClassStore interface for class queries.
type ClassStore interface {
	ListByDate(ctx context.Context, date time.Time, locationID string) ([]domainClass.Class, error)
	ListByRange(ctx context.Context, from, to time.Time, locationID string) ([]domainClass.Class, error)
	List(ctx context.Context, filter classstore.ListFilter) ([]domainClass.Class, error)
	Count(ctx context.Context, filter classstore.ListFilter) (int, error)
}

// BlockedDateStore interface for blocked-date queries.
type BlockedDateStore interface {
	ListByRange(ctx context.Context, from, to time.Time) ([]domainBlocked.BlockedDate, error)
}

// LocationStore interface for location queries.
type LocationStore interface {
	GetByID(ctx context.Context, id string) (domainLocation.Location, error)
	List(ctx context.Context) ([]domainLocation.Location, error)
}
