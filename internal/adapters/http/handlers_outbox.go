package web

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	outboxStore "gymflow/internal/adapters/storage/outbox"
	"gymflow/internal/application/orchestrators"
	"gymflow/internal/domain/outbox"
)

type outboxEntryResponse struct {
	ID              string     `json:"id"`
	ActionType      string     `json:"action_type"`
	Status          string     `json:"status"`
	Subject         string     `json:"subject,omitempty"`
	ClassID         string     `json:"class_id,omitempty"`
	Attempts        int        `json:"attempts"`
	MaxAttempts     int        `json:"max_attempts"`
	LastAttemptedAt *time.Time `json:"last_attempted_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	Error           string     `json:"error,omitempty"`
}

func toOutboxEntryResponse(e outbox.Entry) outboxEntryResponse {
	resp := outboxEntryResponse{
		ID:          e.ID,
		ActionType:  e.ActionType,
		Status:      e.Status,
		Attempts:    e.Attempts,
		MaxAttempts: e.MaxAttempts,
		CreatedAt:   e.CreatedAt,
		Error:       e.ErrorMessage,
	}
	if !e.LastAttemptedAt.IsZero() {
		at := e.LastAttemptedAt
		resp.LastAttemptedAt = &at
	}
	// Recipients are left out; the subject and class are enough to find the email.
	if p, err := e.Email(); err == nil {
		resp.Subject = p.Subject
		resp.ClassID = p.ClassID
	}
	return resp
}

// handleListOutbox handles GET /api/outbox
// Query: status (failed|pending, default failed), limit (1-100, default 50)
func handleListOutbox(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := 50
	if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n > 0 && n <= 100 {
		limit = n
	}

	var entries []outbox.Entry
	var err error
	switch status := r.URL.Query().Get("status"); status {
	case "", outbox.StatusFailed:
		entries, err = stores.Outbox.ListFailed(ctx, limit)
	case outbox.StatusPending:
		entries, err = stores.Outbox.ListPending(ctx, limit)
	default:
		writeError(w, http.StatusBadRequest, "status must be failed or pending")
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}

	counts, err := stores.Outbox.CountByStatus(ctx)
	if err != nil {
		internalError(w, err)
		return
	}

	out := make([]outboxEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toOutboxEntryResponse(e))
	}
	writeJSON(w, http.StatusOK, struct {
		Counts  map[string]int        `json:"counts"`
		Entries []outboxEntryResponse `json:"entries"`
	}{counts, out})
}

// handleResolveOutbox handles POST /api/outbox/{id}/{action}
// action is requeue (failed entries get a fresh set of attempts) or abandon.
func handleResolveOutbox(w http.ResponseWriter, r *http.Request) {
	e, err := orchestrators.ExecuteResolveOutboxEntry(r.Context(), r.PathValue("id"), r.PathValue("action"),
		orchestrators.ResolveOutboxEntryDeps{OutboxStore: stores.Outbox})
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, toOutboxEntryResponse(e))
	case errors.Is(err, outboxStore.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, orchestrators.ErrUnknownOutboxAction):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, outbox.ErrNotFailed), errors.Is(err, outbox.ErrAlreadyDone):
		writeError(w, http.StatusConflict, err.Error())
	default:
		internalError(w, err)
	}
}
