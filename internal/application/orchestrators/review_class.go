package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gymflow/internal/adapters/email"
	"gymflow/internal/application/changefeed"
	"gymflow/internal/domain/class"
	"gymflow/internal/domain/outbox"
)

// Review decisions.
const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

// ErrUnknownDecision is returned for a decision other than approve or reject.
var ErrUnknownDecision = errors.New("decision must be approve or reject")

// ClassSaver loads and rewrites a class without rescheduling it.
type ClassSaver interface {
	GetByID(ctx context.Context, id string) (class.Class, error)
	Save(ctx context.Context, c class.Class) error
}

// ReviewClassInput carries input for the review class orchestrator.
type ReviewClassInput struct {
	ID       string
	Decision string
	Reason   string // required when rejecting
}

// ReviewClassDeps holds dependencies for ReviewClass.
type ReviewClassDeps struct {
	Classes ClassSaver
	Changes changefeed.Publisher
	Notify  Notifier
	Now     func() time.Time
}

// ExecuteReviewClass approves or rejects a pending class.
// A rejection frees the slot and queues an email to staff.
// PRE: ID names a pending class; Reason is non-blank when rejecting
// POST: Status is Approved or Rejected; class.ErrNotPending for anything else
func ExecuteReviewClass(ctx context.Context, input ReviewClassInput, deps ReviewClassDeps) (class.Class, error) {
	if input.ID == "" {
		return class.Class{}, ErrIDRequired
	}
	c, err := deps.Classes.GetByID(ctx, input.ID)
	if err != nil {
		return class.Class{}, err
	}

	switch input.Decision {
	case DecisionApprove:
		err = c.Approve()
	case DecisionReject:
		err = c.Reject(input.Reason)
	default:
		err = ErrUnknownDecision
	}
	if err != nil {
		return class.Class{}, err
	}

	now := nowFrom(deps.Now)
	c.UpdatedAt = now
	if err := deps.Classes.Save(ctx, c); err != nil {
		return class.Class{}, err
	}

	publisherOrDiscard(deps.Changes).Publish(changefeed.Change{
		Kind:     changefeed.ClassReviewed,
		ClassIDs: []string{c.ID},
		Dates:    []string{c.DateKey()},
		At:       now,
	})
	if c.Status == class.StatusRejected {
		deps.Notify.enqueue(ctx, outbox.ActionClassRejected, c, email.Notification{
			Heading: "Class rejected: " + c.Name,
			Lines:   []string{classSummary(c), "Reason: " + c.RejectionReason},
		}, now)
	}
	slog.Info("class_reviewed", "class_id", c.ID, "status", c.Status)
	return c, nil
}
