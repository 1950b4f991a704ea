package orchestrators

import (
	"context"
	"log/slog"
	"time"

	"gymflow/internal/application/changefeed"
	"gymflow/internal/domain/class"
)

// SpotBooker takes a spot on a class atomically.
type SpotBooker interface {
	IncrementBooked(ctx context.Context, id string, now time.Time) (class.Class, error)
}

// BookClassDeps holds dependencies for BookClass.
type BookClassDeps struct {
	Classes SpotBooker
	Changes changefeed.Publisher
	Now     func() time.Time
}

// ExecuteBookClass takes one spot on an approved class. Status and capacity
// are checked by the store in the same write.
// PRE: id names an existing class
// POST: Booked incremented by one, or class.ErrClassFull / ErrNotBookable and nothing written
// INVARIANT: Booked never exceeds Spots
func ExecuteBookClass(ctx context.Context, id string, deps BookClassDeps) (class.Class, error) {
	if id == "" {
		return class.Class{}, ErrIDRequired
	}

	now := nowFrom(deps.Now)
	booked, err := deps.Classes.IncrementBooked(ctx, id, now)
	if err != nil {
		return class.Class{}, err
	}

	publisherOrDiscard(deps.Changes).Publish(changefeed.Change{
		Kind:     changefeed.ClassBooked,
		ClassIDs: []string{id},
		Dates:    []string{booked.DateKey()},
		At:       now,
	})
	slog.Info("class_booked", "class_id", id, "booked", booked.Booked, "spots", booked.Spots)
	return booked, nil
}
