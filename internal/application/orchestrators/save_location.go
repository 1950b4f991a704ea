package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	locationstore "gymflow/internal/adapters/storage/location"
	"gymflow/internal/domain/location"
)

// ErrLocationNameTaken is returned when another location already uses the name.
var ErrLocationNameTaken = errors.New("a location with this name already exists")

// LocationStoreForOrchestrator defines the store interface needed by SaveLocation.
type LocationStoreForOrchestrator interface {
	GetByID(ctx context.Context, id string) (location.Location, error)
	GetByName(ctx context.Context, name string) (location.Location, error)
	Save(ctx context.Context, l location.Location) error
}

// SaveLocationInput carries input for the save location orchestrator.
type SaveLocationInput struct {
	ID               string // Empty for new
	Name             string
	OpensAt          string
	ClosesAt         string
	MaxClassesPerDay int
}

// SaveLocationDeps holds dependencies for SaveLocation.
type SaveLocationDeps struct {
	LocationStore LocationStoreForOrchestrator
	GenerateID    func() string
}

// ExecuteSaveLocation creates a location or edits an existing one.
// Lowering the cap does not remove classes already scheduled.
// PRE: Name is non-blank and unique (case-insensitive)
// POST: Location persisted with default hours applied
func ExecuteSaveLocation(ctx context.Context, input SaveLocationInput, deps SaveLocationDeps) (location.Location, error) {
	l := location.Location{
		ID:               strings.TrimSpace(input.ID),
		Name:             strings.TrimSpace(input.Name),
		OpensAt:          input.OpensAt,
		ClosesAt:         input.ClosesAt,
		MaxClassesPerDay: input.MaxClassesPerDay,
	}
	l.ApplyDefaults()
	if err := l.Validate(); err != nil {
		return location.Location{}, err
	}

	if l.ID != "" {
		if _, err := deps.LocationStore.GetByID(ctx, l.ID); err != nil {
			return location.Location{}, err
		}
	} else {
		l.ID = idFrom(deps.GenerateID)()
	}

	other, err := deps.LocationStore.GetByName(ctx, l.Name)
	switch {
	case err == nil && other.ID != l.ID:
		return location.Location{}, fmt.Errorf("%w: %s", ErrLocationNameTaken, l.Name)
	case err != nil && !errors.Is(err, locationstore.ErrNotFound):
		return location.Location{}, err
	}

	if err := deps.LocationStore.Save(ctx, l); err != nil {
		return location.Location{}, err
	}
	slog.Info("location_saved", "location_id", l.ID, "name", l.Name, "max_classes_per_day", l.MaxClassesPerDay)
	return l, nil
}
