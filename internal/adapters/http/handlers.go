package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	blockedStore "gymflow/internal/adapters/storage/blockeddate"
	classStore "gymflow/internal/adapters/storage/class"
	locationStore "gymflow/internal/adapters/storage/location"
	"gymflow/internal/adapters/storage/snapshot"
	"gymflow/internal/application/orchestrators"
	"gymflow/internal/application/projections"
	blockedDomain "gymflow/internal/domain/blockeddate"
	classDomain "gymflow/internal/domain/class"
	locationDomain "gymflow/internal/domain/location"
	"gymflow/internal/domain/recurrence"
)

// timeNow is a variable for testability.
var timeNow = func() time.Time { return time.Now().UTC() }

// mdRenderer is a goldmark instance configured for safe HTML output.
// Raw HTML in markdown input is escaped (WithUnsafe is NOT set), preventing XSS.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// renderNote converts a class note from markdown to HTML. Render failures
// degrade to an empty string; the raw note is always returned alongside.
func renderNote(note string) string {
	if strings.TrimSpace(note) == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(note), &buf); err != nil {
		slog.Warn("note_render_failed", "error", err)
		return ""
	}
	return buf.String()
}

// generateID creates a new UUID string.
func generateID() string {
	return uuid.New().String()
}

// validate checks request DTOs. Field names in errors use the json tag.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// errorResponse is the body of every non-2xx JSON response.
type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("response_encode_failed", "error", err)
	}
}

// writeError sends a JSON error message.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// internalError logs the real error and returns a generic message to the client.
// This prevents leaking internal details per OWASP A05.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	writeError(w, http.StatusInternalServerError, "internal server error")
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// decodeRequest decodes and validates a request DTO, writing a 400 on failure.
// PRE: v is a pointer to a struct with validate tags
// POST: Returns false if a response has already been written
func decodeRequest(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := strictDecode(r, v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			writeError(w, http.StatusBadRequest, "invalid input")
			return false
		}
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "validation failed", Fields: fields})
		return false
	}
	return true
}

// maxBodyBytes caps JSON request bodies. Snapshot imports use maxSnapshotBytes.
const maxBodyBytes = 1 << 20

// Errors that are the caller's fault and carry a message fit to show in a toast.
var badRequestErrors = []error{
	classDomain.ErrEmptyName,
	classDomain.ErrNameTooLong,
	classDomain.ErrEmptyLocation,
	classDomain.ErrEmptyTrainer,
	classDomain.ErrEmptyDate,
	classDomain.ErrInvalidStartTime,
	classDomain.ErrInvalidDuration,
	classDomain.ErrInvalidSpots,
	classDomain.ErrInvalidBooked,
	classDomain.ErrInvalidStatus,
	classDomain.ErrNoteTooLong,
	classDomain.ErrRejectionReasonRequired,
	recurrence.ErrNoWeekdays,
	recurrence.ErrMissingEndDate,
	recurrence.ErrMissingStartDate,
	recurrence.ErrInvalidWeekday,
	recurrence.ErrEndBeforeStart,
	recurrence.ErrTooManyOccurrences,
	blockedDomain.ErrEmptyDate,
	blockedDomain.ErrEmptyReason,
	blockedDomain.ErrReasonTooLong,
	locationDomain.ErrEmptyName,
	locationDomain.ErrNameTooLong,
	locationDomain.ErrInvalidHours,
	locationDomain.ErrInvalidCap,
	orchestrators.ErrIDRequired,
	orchestrators.ErrUnknownDecision,
	orchestrators.ErrUnknownLocation,
	projections.ErrLocationRequired,
	snapshot.ErrEmpty,
	snapshot.ErrUnsupportedVersion,
	snapshot.ErrChecksumMismatch,
	snapshot.ErrInvalidRecord,
}

// Errors that name a missing resource.
var notFoundErrors = []error{
	classStore.ErrNotFound,
	locationStore.ErrNotFound,
	blockedStore.ErrNotFound,
}

// Business-rule refusals: the request was well formed but the schedule does not allow it.
var conflictErrors = []error{
	orchestrators.ErrSlotConflict,
	orchestrators.ErrDateBlocked,
	orchestrators.ErrDateHasClasses,
	orchestrators.ErrAlreadyBlocked,
	orchestrators.ErrDailyCapReached,
	orchestrators.ErrSpotsBelowBooked,
	orchestrators.ErrNotBookable,
	orchestrators.ErrLocationNameTaken,
	classDomain.ErrClassFull,
	classDomain.ErrNotPending,
}

// statusFor maps an application error to an HTTP status.
// PRE: err is non-nil
// POST: Returns 400, 404, 409 or 500
func statusFor(err error) int {
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			return http.StatusNotFound
		}
	}
	for _, target := range conflictErrors {
		if errors.Is(err, target) {
			return http.StatusConflict
		}
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// writeAppError sends err with the status statusFor picks.
// Internal errors are logged and hidden; everything else is shown as-is.
func writeAppError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		internalError(w, err)
		return
	}
	writeError(w, status, err.Error())
}
