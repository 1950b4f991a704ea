package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"gymflow/internal/adapters/email"
	calendarstore "gymflow/internal/adapters/storage/calendar"
	"gymflow/internal/application/changefeed"
	"gymflow/internal/domain/blockeddate"
	"gymflow/internal/domain/class"
	"gymflow/internal/domain/outbox"
	"gymflow/internal/domain/recurrence"
	"gymflow/internal/observability"
)

// BlockedRangeReader lists blocked dates in an inclusive range.
type BlockedRangeReader interface {
	ListByRange(ctx context.Context, from, to time.Time) ([]blockeddate.BlockedDate, error)
}

// CreateRecurringClassesInput carries input for the recurring class orchestrator.
type CreateRecurringClassesInput struct {
	Template   class.Template
	Recurrence recurrence.Request
}

// CreateRecurringClassesDeps holds dependencies for CreateRecurringClasses.
type CreateRecurringClassesDeps struct {
	Scheduler    ClassScheduler
	BlockedDates BlockedRangeReader
	Changes      changefeed.Publisher
	Notify       Notifier // one review email per series, not per class
	GenerateID   func() string
	Now          func() time.Time
}

// CreateRecurringClassesResult reports the classes created and every matching date that was passed over.
type CreateRecurringClassesResult struct {
	Created []class.Class
	Skipped []recurrence.Skipped // ascending by date
}

// ExecuteCreateRecurringClasses expands the template over the recurrence and
// schedules every date that is free.
// PRE: Recurrence has at least one weekday and an end date
// POST: Created holds one class per matching date that is not blocked, free of
// conflicts and under the location cap; the rest are in Skipped
func ExecuteCreateRecurringClasses(ctx context.Context, input CreateRecurringClassesInput, deps CreateRecurringClassesDeps) (CreateRecurringClassesResult, error) {
	if err := input.Recurrence.Validate(); err != nil {
		observability.RecordRejection(observability.ReasonValidation)
		return CreateRecurringClassesResult{}, err
	}
	// a throwaway instance catches template errors before any expansion
	sample := input.Template.Materialize("sample", input.Recurrence.StartDate)
	if err := sample.Validate(); err != nil {
		observability.RecordRejection(observability.ReasonValidation)
		return CreateRecurringClassesResult{}, err
	}

	blockedList, err := deps.BlockedDates.ListByRange(ctx,
		class.NormalizeDate(input.Recurrence.StartDate),
		class.NormalizeDate(input.Recurrence.EndDate))
	if err != nil {
		return CreateRecurringClassesResult{}, fmt.Errorf("load blocked dates: %w", err)
	}
	blocked := blockeddate.NewSet(blockedList)

	now := nowFrom(deps.Now)
	classes, skipped, err := recurrence.Expand(input.Template, input.Recurrence, blocked.Contains, idFrom(deps.GenerateID))
	if err != nil {
		return CreateRecurringClassesResult{}, err
	}
	for i := range classes {
		classes[i].CreatedAt = now
		classes[i].UpdatedAt = now
	}

	added, err := deps.Scheduler.AddClasses(ctx, classes, calendarstore.SkipRejected)
	if err != nil {
		return CreateRecurringClassesResult{}, err
	}

	skipped = append(skipped, added.Skipped...)
	sort.SliceStable(skipped, func(i, j int) bool { return skipped[i].Date.Before(skipped[j].Date) })
	for _, s := range skipped {
		observability.RecordRejection(skipReasonMetric(s.Reason))
	}

	result := CreateRecurringClassesResult{Created: added.Added, Skipped: skipped}
	if len(result.Created) > 0 {
		observability.RecordClassesCreated("recurring", len(result.Created))
		publisherOrDiscard(deps.Changes).Publish(changefeed.Change{
			Kind:     changefeed.ClassesCreated,
			ClassIDs: classIDs(result.Created),
			Dates:    distinctDates(result.Created),
			At:       now,
		})
		if input.Template.Status == class.StatusPending {
			deps.Notify.enqueue(ctx, outbox.ActionClassPending, result.Created[0], seriesNotification(result.Created), now)
		}
	}
	slog.Info("recurring_classes_created",
		"name", input.Template.Name,
		"location_id", input.Template.LocationID,
		"created", len(result.Created),
		"skipped", len(result.Skipped))
	return result, nil
}

// seriesNotification summarises a pending series in one staff email.
func seriesNotification(created []class.Class) email.Notification {
	first := created[0]
	return email.Notification{
		Heading: fmt.Sprintf("%d classes awaiting review: %s", len(created), first.Name),
		Lines: []string{
			classSummary(first),
			"Dates: " + strings.Join(distinctDates(created), ", "),
			"Approve or reject each class from the schedule.",
		},
	}
}
