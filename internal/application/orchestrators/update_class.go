package orchestrators

import (
	"context"
	"log/slog"
	"time"

	"gymflow/internal/application/changefeed"
	"gymflow/internal/domain/class"
	"gymflow/internal/observability"
)

// UpdateClassInput carries input for the update class orchestrator.
// Template replaces every editable field; Date may move the class.
type UpdateClassInput struct {
	ID       string
	Template class.Template
	Date     time.Time
}

// UpdateClassDeps holds dependencies for UpdateClass.
type UpdateClassDeps struct {
	Classes   ClassReader
	Scheduler ClassScheduler
	Changes   changefeed.Publisher
	Now       func() time.Time
}

// ExecuteUpdateClass edits or reschedules an existing class.
// Booked count, approval state and creation time are carried over.
// PRE: ID names an existing class
// POST: Class rewritten, or a scheduling error and nothing written. The class
// never conflicts with itself.
func ExecuteUpdateClass(ctx context.Context, input UpdateClassInput, deps UpdateClassDeps) (class.Class, error) {
	if input.ID == "" {
		return class.Class{}, ErrIDRequired
	}
	existing, err := deps.Classes.GetByID(ctx, input.ID)
	if err != nil {
		return class.Class{}, err
	}

	now := nowFrom(deps.Now)
	updated := input.Template.Materialize(existing.ID, input.Date)
	updated.Booked = existing.Booked
	updated.Status = existing.Status
	updated.RejectionReason = existing.RejectionReason
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = now
	if err := updated.Validate(); err != nil {
		observability.RecordRejection(observability.ReasonValidation)
		return class.Class{}, err
	}
	if updated.Spots < updated.Booked {
		observability.RecordRejection(observability.ReasonValidation)
		return class.Class{}, ErrSpotsBelowBooked
	}

	if err := deps.Scheduler.UpdateClass(ctx, updated); err != nil {
		observability.RecordRejection(rejectionReason(err))
		return class.Class{}, err
	}

	dates := []string{existing.DateKey()}
	if updated.DateKey() != existing.DateKey() {
		dates = append(dates, updated.DateKey())
	}
	publisherOrDiscard(deps.Changes).Publish(changefeed.Change{
		Kind:     changefeed.ClassUpdated,
		ClassIDs: []string{updated.ID},
		Dates:    dates,
		At:       now,
	})
	slog.Info("class_updated", "class_id", updated.ID, "date", updated.DateKey(), "start", updated.StartTime, "moved", len(dates) > 1)
	return updated, nil
}
