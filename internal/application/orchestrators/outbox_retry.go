package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gymflow/internal/adapters/email"
	domainOutbox "gymflow/internal/domain/outbox"
	"gymflow/internal/observability"
)

// OutboxQueue is the outbox store surface the retry loop needs.
type OutboxQueue interface {
	ListDue(ctx context.Context, now time.Time, baseDelay, maxDelay time.Duration, limit int) ([]domainOutbox.Entry, error)
	Save(ctx context.Context, e domainOutbox.Entry) error
}

// OutboxRetryDeps provides the dependencies for retrying outbox entries.
type OutboxRetryDeps struct {
	OutboxStore OutboxQueue
	Sender      email.Sender
	From        string // empty uses the sender default
	Now         func() time.Time
}

// OutboxRetryConfig holds configuration for the retry scheduler.
type OutboxRetryConfig struct {
	Interval  time.Duration // How often to run retries
	BaseDelay time.Duration // Backoff after the first failed attempt
	MaxDelay  time.Duration // Backoff ceiling
	BatchSize int
	Enabled   bool
}

// DefaultOutboxRetryConfig returns sensible defaults.
func DefaultOutboxRetryConfig() OutboxRetryConfig {
	return OutboxRetryConfig{
		Interval:  time.Minute,
		BaseDelay: 30 * time.Second,
		MaxDelay:  time.Hour,
		BatchSize: 25,
		Enabled:   true,
	}
}

// OutboxRetryReport summarises one pass.
type OutboxRetryReport struct {
	Processed int
	Succeeded int
	Failed    int
}

// ExecuteOutboxRetry sends every queued email whose backoff has elapsed.
// PRE: Deps are valid and store is connected
// POST: Each due entry is attempted once and saved with its new status
func ExecuteOutboxRetry(ctx context.Context, deps OutboxRetryDeps, cfg OutboxRetryConfig) (OutboxRetryReport, error) {
	now := nowFrom(deps.Now)
	limit := cfg.BatchSize
	if limit <= 0 {
		limit = DefaultOutboxRetryConfig().BatchSize
	}
	entries, err := deps.OutboxStore.ListDue(ctx, now, cfg.BaseDelay, cfg.MaxDelay, limit)
	if err != nil {
		return OutboxRetryReport{}, fmt.Errorf("list due outbox entries: %w", err)
	}
	if len(entries) == 0 {
		return OutboxRetryReport{}, nil
	}

	slog.Info("outbox_retry_start", "count", len(entries))

	var report OutboxRetryReport
	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		report.Processed++
		entry.MarkAttempt(now)

		messageID, err := deliver(ctx, deps, entry)
		if err != nil {
			entry.MarkFailed(err)
			report.Failed++
			observability.RecordOutboxDelivery("failed")
			slog.Error("outbox_retry_failed", "entry_id", entry.ID, "action", entry.ActionType, "attempt", entry.Attempts, "error", err)
		} else {
			entry.MarkSuccess(messageID)
			report.Succeeded++
			observability.RecordOutboxDelivery("sent")
			slog.Info("outbox_retry_succeeded", "entry_id", entry.ID, "action", entry.ActionType, "attempt", entry.Attempts)
		}

		if saveErr := deps.OutboxStore.Save(ctx, entry); saveErr != nil {
			slog.Error("outbox_retry_save_failed", "entry_id", entry.ID, "error", saveErr)
		}
	}

	slog.Info("outbox_retry_complete", "processed", report.Processed, "succeeded", report.Succeeded, "failed", report.Failed)
	return report, nil
}

// deliver sends the entry's email payload.
// PRE: entry payload is an EmailPayload
// POST: Returns the provider message ID or an error
func deliver(ctx context.Context, deps OutboxRetryDeps, entry domainOutbox.Entry) (string, error) {
	payload, err := entry.Email()
	if err != nil {
		return "", err
	}
	res, err := deps.Sender.Send(ctx, email.SendRequest{
		To:      payload.To,
		From:    deps.From,
		Subject: payload.Subject,
		HTML:    payload.HTML,
	})
	if err != nil {
		return "", fmt.Errorf("send %s: %w", entry.ActionType, err)
	}
	return res.MessageID, nil
}

// StartOutboxRetryScheduler starts a background goroutine that periodically retries outbox entries.
// PRE: Context is valid, deps are initialized
// POST: Goroutine started, returns cancel function
func StartOutboxRetryScheduler(ctx context.Context, deps OutboxRetryDeps, cfg OutboxRetryConfig) func() {
	if !cfg.Enabled || cfg.Interval <= 0 {
		return func() {}
	}

	ctx, cancel := context.WithCancel(ctx)

	go func() {
		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := ExecuteOutboxRetry(ctx, deps, cfg); err != nil {
					slog.Error("outbox_retry_scheduler_error", "error", err)
				}
			}
		}
	}()

	return cancel
}
