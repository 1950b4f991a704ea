package orchestrators

import (
	"context"
	"log/slog"
	"time"

	"gymflow/internal/adapters/email"
	calendarstore "gymflow/internal/adapters/storage/calendar"
	"gymflow/internal/application/changefeed"
	"gymflow/internal/domain/class"
	"gymflow/internal/domain/outbox"
	"gymflow/internal/observability"
)

// CreateClassInput carries input for the create class orchestrator.
type CreateClassInput struct {
	Template class.Template
	Date     time.Time
}

// CreateClassDeps holds dependencies for CreateClass.
type CreateClassDeps struct {
	Scheduler  ClassScheduler
	Changes    changefeed.Publisher
	Notify     Notifier // staff are told about classes awaiting review
	GenerateID func() string
	Now        func() time.Time
}

// ExecuteCreateClass schedules a single class.
// PRE: Template and Date describe a valid class
// POST: Class persisted, or ErrDateBlocked / ErrSlotConflict / ErrDailyCapReached and nothing written
func ExecuteCreateClass(ctx context.Context, input CreateClassInput, deps CreateClassDeps) (class.Class, error) {
	now := nowFrom(deps.Now)
	c := input.Template.Materialize(idFrom(deps.GenerateID)(), input.Date)
	c.CreatedAt = now
	c.UpdatedAt = now
	if err := c.Validate(); err != nil {
		observability.RecordRejection(observability.ReasonValidation)
		return class.Class{}, err
	}

	if _, err := deps.Scheduler.AddClasses(ctx, []class.Class{c}, calendarstore.AllOrNothing); err != nil {
		observability.RecordRejection(rejectionReason(err))
		return class.Class{}, err
	}

	observability.RecordClassesCreated("single", 1)
	publisherOrDiscard(deps.Changes).Publish(changefeed.Change{
		Kind:     changefeed.ClassesCreated,
		ClassIDs: []string{c.ID},
		Dates:    []string{c.DateKey()},
		At:       now,
	})
	if c.Status == class.StatusPending {
		deps.Notify.enqueue(ctx, outbox.ActionClassPending, c, email.Notification{
			Heading: "Class awaiting review: " + c.Name,
			Lines:   []string{classSummary(c), "Approve or reject it from the schedule."},
		}, now)
	}
	slog.Info("class_created", "class_id", c.ID, "location_id", c.LocationID, "date", c.DateKey(), "start", c.StartTime, "trainer", c.Trainer)
	return c, nil
}
