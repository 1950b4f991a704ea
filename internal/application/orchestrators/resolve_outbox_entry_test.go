package orchestrators

import (
	"context"
	"errors"
	"testing"
	"time"

	"gymflow/internal/adapters/email"
	outboxstore "gymflow/internal/adapters/storage/outbox"
	domainOutbox "gymflow/internal/domain/outbox"
)

// exhaust fails mail-1 until the retry loop gives up on it.
func exhaust(t *testing.T, s schedule) {
	t.Helper()
	cfg := DefaultOutboxRetryConfig()
	now := fixedTime
	deps := OutboxRetryDeps{OutboxStore: s.outbox, Sender: &failingSender{}, Now: func() time.Time { return now }}
	for i := 0; i < domainOutbox.DefaultMaxAttempts; i++ {
		if _, err := ExecuteOutboxRetry(context.Background(), deps, cfg); err != nil {
			t.Fatalf("retry pass %d: %v", i, err)
		}
		now = now.Add(cfg.MaxDelay)
	}
}

func TestExecuteResolveOutboxEntry_RequeueDelivers(t *testing.T) {
	ctx := context.Background()
	s := newSchedule(t, 5)
	queueEmail(t, s, "mail-1")
	exhaust(t, s)

	deps := ResolveOutboxEntryDeps{OutboxStore: s.outbox}
	e, err := ExecuteResolveOutboxEntry(ctx, "mail-1", OutboxActionRequeue, deps)
	if err != nil {
		t.Fatalf("requeue: %v", err)
	}
	if e.Status != domainOutbox.StatusPending || e.Attempts != 0 {
		t.Errorf("expected fresh pending entry, got %s after %d attempts", e.Status, e.Attempts)
	}

	sender := email.NewNoopSender()
	report, err := ExecuteOutboxRetry(ctx, OutboxRetryDeps{OutboxStore: s.outbox, Sender: sender, Now: fixedNow}, DefaultOutboxRetryConfig())
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if report.Succeeded != 1 {
		t.Errorf("expected the requeued entry to be delivered, got %+v", report)
	}
}

func TestExecuteResolveOutboxEntry_Errors(t *testing.T) {
	ctx := context.Background()
	s := newSchedule(t, 5)
	queueEmail(t, s, "mail-1")
	deps := ResolveOutboxEntryDeps{OutboxStore: s.outbox}

	tests := []struct {
		name    string
		id      string
		action  string
		wantErr error
	}{
		{"requeue pending", "mail-1", OutboxActionRequeue, domainOutbox.ErrNotFailed},
		{"unknown action", "mail-1", "resend", ErrUnknownOutboxAction},
		{"missing entry", "mail-404", OutboxActionAbandon, outboxstore.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ExecuteResolveOutboxEntry(ctx, tt.id, tt.action, deps); !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}

	e, err := ExecuteResolveOutboxEntry(ctx, "mail-1", OutboxActionAbandon, deps)
	if err != nil {
		t.Fatalf("abandon: %v", err)
	}
	if e.Status != domainOutbox.StatusAbandoned {
		t.Errorf("status = %s, want abandoned", e.Status)
	}
	report, err := ExecuteOutboxRetry(ctx, OutboxRetryDeps{OutboxStore: s.outbox, Sender: email.NewNoopSender(), Now: fixedNow}, DefaultOutboxRetryConfig())
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if report.Processed != 0 {
		t.Errorf("abandoned entries must not be sent, got %+v", report)
	}
}
