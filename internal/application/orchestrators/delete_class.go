package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gymflow/internal/adapters/email"
	"gymflow/internal/application/changefeed"
	"gymflow/internal/domain/class"
	"gymflow/internal/domain/outbox"
	"gymflow/internal/observability"
)

// ClassRemover loads and deletes classes.
type ClassRemover interface {
	GetByID(ctx context.Context, id string) (class.Class, error)
	Delete(ctx context.Context, id string) error
}

// DeleteClassDeps holds dependencies for DeleteClass.
type DeleteClassDeps struct {
	Classes ClassRemover
	Changes changefeed.Publisher
	Notify  Notifier // sent when a class with bookings is cancelled
	Now     func() time.Time
}

// ExecuteDeleteClass removes a class from the schedule.
// PRE: id is non-empty
// POST: Class removed; the store's not-found error is returned for unknown IDs
func ExecuteDeleteClass(ctx context.Context, id string, deps DeleteClassDeps) error {
	if id == "" {
		return ErrIDRequired
	}
	c, err := deps.Classes.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := deps.Classes.Delete(ctx, id); err != nil {
		return err
	}

	now := nowFrom(deps.Now)
	observability.RecordClassDeleted()
	publisherOrDiscard(deps.Changes).Publish(changefeed.Change{
		Kind:     changefeed.ClassDeleted,
		ClassIDs: []string{id},
		Dates:    []string{c.DateKey()},
		At:       now,
	})
	if c.Booked > 0 {
		deps.Notify.enqueue(ctx, outbox.ActionClassCancelled, c, email.Notification{
			Heading: "Class cancelled: " + c.Name,
			Lines:   []string{classSummary(c), fmt.Sprintf("%d member(s) had booked a spot.", c.Booked)},
		}, now)
	}
	slog.Info("class_deleted", "class_id", id, "date", c.DateKey(), "booked", c.Booked)
	return nil
}
