package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gymflow/internal/adapters/email"
	"gymflow/internal/domain/class"
	"gymflow/internal/domain/outbox"
)

// OutboxWriter queues notifications for the retry scheduler to deliver.
type OutboxWriter interface {
	Save(ctx context.Context, e outbox.Entry) error
}

// Notifier bundles what an orchestrator needs to queue a staff email.
// A zero Notifier, or one without recipients, queues nothing.
type Notifier struct {
	Outbox     OutboxWriter
	To         []string
	GenerateID func() string
}

func (n Notifier) enabled() bool {
	return n.Outbox != nil && len(n.To) > 0
}

// enqueue renders msg and stores it as a pending outbox entry.
// Failures are logged and swallowed: the schedule change has already committed.
func (n Notifier) enqueue(ctx context.Context, action string, c class.Class, msg email.Notification, now time.Time) {
	if !n.enabled() {
		return
	}
	body, err := msg.HTML()
	if err != nil {
		slog.Error("notification_render_failed", "action", action, "class_id", c.ID, "error", err)
		return
	}
	entry, err := outbox.NewEmailEntry(idFrom(n.GenerateID)(), action, outbox.EmailPayload{
		To:      n.To,
		Subject: msg.Heading,
		HTML:    body,
		ClassID: c.ID,
	}, now)
	if err != nil {
		slog.Error("notification_build_failed", "action", action, "class_id", c.ID, "error", err)
		return
	}
	if err := n.Outbox.Save(ctx, entry); err != nil {
		slog.Error("notification_enqueue_failed", "action", action, "class_id", c.ID, "error", err)
		return
	}
	slog.Info("notification_enqueued", "action", action, "class_id", c.ID, "entry_id", entry.ID)
}

func classSummary(c class.Class) string {
	return fmt.Sprintf("**%s** with %s on %s, %s-%s", c.Name, c.Trainer, c.DateKey(), c.StartTime, c.EndTime())
}
