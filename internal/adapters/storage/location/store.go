package location

import (
	"context"
	"errors"

	domain "gymflow/internal/domain/location"
)

// ErrNotFound is returned when no location has the requested ID.
var ErrNotFound = errors.New("location not found")

// Store persists Location state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Location, error)
	GetByName(ctx context.Context, name string) (domain.Location, error)
	Save(ctx context.Context, value domain.Location) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]domain.Location, error)
}
