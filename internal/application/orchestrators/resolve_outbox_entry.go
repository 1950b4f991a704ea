package orchestrators

import (
	"context"
	"errors"
	"log/slog"

	domainOutbox "gymflow/internal/domain/outbox"
)

// Operator actions on a stuck outbox entry.
const (
	OutboxActionRequeue = "requeue"
	OutboxActionAbandon = "abandon"
)

// ErrUnknownOutboxAction is returned for an action other than requeue or abandon.
var ErrUnknownOutboxAction = errors.New("action must be requeue or abandon")

// OutboxEditor loads and saves single outbox entries.
type OutboxEditor interface {
	GetByID(ctx context.Context, id string) (domainOutbox.Entry, error)
	Save(ctx context.Context, e domainOutbox.Entry) error
}

// ResolveOutboxEntryDeps holds dependencies for ResolveOutboxEntry.
type ResolveOutboxEntryDeps struct {
	OutboxStore OutboxEditor
}

// ExecuteResolveOutboxEntry requeues a failed entry for the retry loop or abandons it.
// PRE: id names an existing entry
// POST: requeued entries are picked up by the next ExecuteOutboxRetry pass
func ExecuteResolveOutboxEntry(ctx context.Context, id, action string, deps ResolveOutboxEntryDeps) (domainOutbox.Entry, error) {
	e, err := deps.OutboxStore.GetByID(ctx, id)
	if err != nil {
		return domainOutbox.Entry{}, err
	}

	switch action {
	case OutboxActionRequeue:
		err = e.Requeue()
	case OutboxActionAbandon:
		err = e.Abandon()
	default:
		err = ErrUnknownOutboxAction
	}
	if err != nil {
		return domainOutbox.Entry{}, err
	}

	if err := deps.OutboxStore.Save(ctx, e); err != nil {
		return domainOutbox.Entry{}, err
	}
	slog.Info("outbox_entry_resolved", "entry_id", e.ID, "action", action, "status", e.Status)
	return e, nil
}
