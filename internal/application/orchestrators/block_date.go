package orchestrators

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"gymflow/internal/application/changefeed"
	"gymflow/internal/domain/blockeddate"
	"gymflow/internal/domain/class"
	"gymflow/internal/observability"
)

// BlockedCounter reports the size of the blocked-date registry.
type BlockedCounter interface {
	Count(ctx context.Context) (int, error)
}

// BlockDateInput carries input for the block date orchestrator.
type BlockDateInput struct {
	Date   time.Time
	Reason string
}

// BlockDateDeps holds dependencies for BlockDate and UnblockDate.
type BlockDateDeps struct {
	Registry DateRegistry
	Blocked  BlockedCounter
	Changes  changefeed.Publisher
	Now      func() time.Time
}

// ExecuteBlockDate closes a day for scheduling.
// PRE: Reason is non-blank
// POST: Date blocked, or ErrDateHasClasses / ErrAlreadyBlocked and the registry unchanged
func ExecuteBlockDate(ctx context.Context, input BlockDateInput, deps BlockDateDeps) (blockeddate.BlockedDate, error) {
	now := nowFrom(deps.Now)
	b := blockeddate.BlockedDate{
		Date:      class.NormalizeDate(input.Date),
		Reason:    strings.TrimSpace(input.Reason),
		CreatedAt: now,
	}
	if err := b.Validate(); err != nil {
		observability.RecordRejection(observability.ReasonValidation)
		return blockeddate.BlockedDate{}, err
	}

	if err := deps.Registry.BlockDate(ctx, b); err != nil {
		observability.RecordRejection(rejectionReason(err))
		return blockeddate.BlockedDate{}, err
	}

	refreshBlockedGauge(ctx, deps.Blocked)
	publisherOrDiscard(deps.Changes).Publish(changefeed.Change{
		Kind:  changefeed.DateBlocked,
		Dates: []string{b.Key()},
		At:    now,
	})
	slog.Info("date_blocked", "date", b.Key(), "reason", b.Reason)
	return b, nil
}

// ExecuteUnblockDate reopens a day. Unblocking a date that is not blocked is a no-op.
// PRE: date is non-zero
// POST: date is not blocked; returns whether anything was removed
func ExecuteUnblockDate(ctx context.Context, date time.Time, deps BlockDateDeps) (bool, error) {
	if date.IsZero() {
		return false, blockeddate.ErrEmptyDate
	}
	date = class.NormalizeDate(date)
	removed, err := deps.Registry.UnblockDate(ctx, date)
	if err != nil {
		return false, err
	}
	if !removed {
		slog.Debug("date_unblock_noop", "date", class.FormatDate(date))
		return false, nil
	}

	refreshBlockedGauge(ctx, deps.Blocked)
	publisherOrDiscard(deps.Changes).Publish(changefeed.Change{
		Kind:  changefeed.DateUnblocked,
		Dates: []string{class.FormatDate(date)},
		At:    nowFrom(deps.Now),
	})
	slog.Info("date_unblocked", "date", class.FormatDate(date))
	return true, nil
}

func refreshBlockedGauge(ctx context.Context, counter BlockedCounter) {
	if counter == nil {
		return
	}
	n, err := counter.Count(ctx)
	if err != nil {
		slog.Warn("blocked_dates_count_failed", "error", err)
		return
	}
	observability.SetBlockedDates(n)
}
