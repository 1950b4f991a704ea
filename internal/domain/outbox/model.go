package outbox

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status constants for outbox entry lifecycle.
const (
	StatusPending   = "pending"
	StatusRetrying  = "retrying"
	StatusDone      = "done"
	StatusFailed    = "failed"
	StatusAbandoned = "abandoned"
)

// Action types. Every action is delivered as an email; the type records why it was sent.
const (
	ActionClassRejected  = "class_rejected"
	ActionClassCancelled = "class_cancelled"
	ActionClassPending   = "class_pending_review"
)

// DefaultMaxAttempts applies when an entry does not set its own limit.
const DefaultMaxAttempts = 5

// Domain errors.
var (
	ErrEmptyActionType = errors.New("action type is required")
	ErrEmptyPayload    = errors.New("payload is required")
	ErrEmptyCreatedAt  = errors.New("created_at must be set")
	ErrNoRecipients    = errors.New("email payload needs at least one recipient")
	ErrNotFailed       = errors.New("only failed entries can be requeued")
	ErrAlreadyDone     = errors.New("entry has already been delivered")
)

// EmailPayload is the JSON body stored with every entry.
type EmailPayload struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	ClassID string   `json:"class_id,omitempty"`
}

// Entry is one queued notification awaiting delivery.
type Entry struct {
	ID              string
	ActionType      string
	Payload         string // JSON EmailPayload
	Status          string
	Attempts        int
	MaxAttempts     int
	LastAttemptedAt time.Time
	CreatedAt       time.Time
	ExternalID      string // provider message ID once delivered
	ErrorMessage    string
}

// NewEmailEntry builds a pending entry for p.
// PRE: id is unique, p has recipients
// POST: Returns a pending entry with DefaultMaxAttempts
func NewEmailEntry(id, actionType string, p EmailPayload, now time.Time) (Entry, error) {
	if len(p.To) == 0 {
		return Entry{}, ErrNoRecipients
	}
	body, err := json.Marshal(p)
	if err != nil {
		return Entry{}, fmt.Errorf("encode email payload: %w", err)
	}
	e := Entry{
		ID:          id,
		ActionType:  actionType,
		Payload:     string(body),
		Status:      StatusPending,
		MaxAttempts: DefaultMaxAttempts,
		CreatedAt:   now,
	}
	return e, e.Validate()
}

// Validate checks that the Entry has valid data.
// PRE: Entry struct is populated
// POST: Returns nil if valid, error otherwise
func (e *Entry) Validate() error {
	if strings.TrimSpace(e.ActionType) == "" {
		return ErrEmptyActionType
	}
	if e.Payload == "" {
		return ErrEmptyPayload
	}
	if e.CreatedAt.IsZero() {
		return ErrEmptyCreatedAt
	}
	return nil
}

// Email decodes the stored payload.
func (e *Entry) Email() (EmailPayload, error) {
	var p EmailPayload
	if err := json.Unmarshal([]byte(e.Payload), &p); err != nil {
		return EmailPayload{}, fmt.Errorf("decode email payload for %s: %w", e.ID, err)
	}
	if len(p.To) == 0 {
		return EmailPayload{}, ErrNoRecipients
	}
	return p, nil
}

func (e *Entry) maxAttempts() int {
	if e.MaxAttempts <= 0 {
		return DefaultMaxAttempts
	}
	return e.MaxAttempts
}

// CanRetry returns true if the entry can be attempted again.
// PRE: Status and Attempts fields are set
// POST: Returns true for pending/retrying/failed with attempts < max
func (e *Entry) CanRetry() bool {
	return (e.Status == StatusPending || e.Status == StatusRetrying || e.Status == StatusFailed) &&
		e.Attempts < e.maxAttempts()
}

// IsTerminal returns true if the entry has reached a terminal state.
func (e *Entry) IsTerminal() bool {
	if e.Status == StatusDone || e.Status == StatusAbandoned {
		return true
	}
	return e.Status == StatusFailed && e.Attempts >= e.maxAttempts()
}

// MarkAttempt records a delivery attempt at now.
// POST: Attempts incremented, LastAttemptedAt updated, status set to retrying
func (e *Entry) MarkAttempt(now time.Time) {
	e.Attempts++
	e.LastAttemptedAt = now
	e.Status = StatusRetrying
}

// MarkSuccess marks the entry as delivered.
func (e *Entry) MarkSuccess(externalID string) {
	e.Status = StatusDone
	e.ExternalID = externalID
	e.ErrorMessage = ""
}

// MarkFailed records err; the entry becomes failed once attempts are exhausted.
func (e *Entry) MarkFailed(err error) {
	e.ErrorMessage = err.Error()
	if e.Attempts >= e.maxAttempts() {
		e.Status = StatusFailed
	}
}

// MarkAbandoned marks the entry as abandoned by an operator.
func (e *Entry) MarkAbandoned() {
	e.Status = StatusAbandoned
}

// Abandon stops any further delivery attempts.
// POST: ErrAlreadyDone for delivered entries; otherwise Status is abandoned
func (e *Entry) Abandon() error {
	if e.Status == StatusDone {
		return ErrAlreadyDone
	}
	e.MarkAbandoned()
	return nil
}

// Requeue gives a failed entry a fresh set of attempts.
// POST: ErrNotFailed unless Status was failed; otherwise pending with no attempts
func (e *Entry) Requeue() error {
	if e.Status != StatusFailed {
		return ErrNotFailed
	}
	e.Status = StatusPending
	e.Attempts = 0
	e.LastAttemptedAt = time.Time{}
	e.ErrorMessage = ""
	return nil
}

// NextRetryDelay is 2^attempts * baseDelay, capped at maxDelay.
func (e *Entry) NextRetryDelay(baseDelay, maxDelay time.Duration) time.Duration {
	if e.Attempts >= 30 {
		return maxDelay
	}
	delay := baseDelay * (1 << e.Attempts)
	if delay > maxDelay {
		return maxDelay
	}
	return delay
}

// DueAt reports whether the backoff window since the last attempt has elapsed.
func (e *Entry) DueAt(now time.Time, baseDelay, maxDelay time.Duration) bool {
	if e.LastAttemptedAt.IsZero() {
		return true
	}
	return !now.Before(e.LastAttemptedAt.Add(e.NextRetryDelay(baseDelay, maxDelay)))
}
