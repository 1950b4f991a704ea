package web

import (
	"net/http"
	"strings"
	"time"

	"gymflow/internal/application/listutil"
	"gymflow/internal/application/orchestrators"
	"gymflow/internal/application/projections"
	blockedDomain "gymflow/internal/domain/blockeddate"
	"gymflow/internal/domain/calendar"
	classDomain "gymflow/internal/domain/class"
)

// Open bounds for blocked-date queries given only one end.
var (
	earliestDate = time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC)
	latestDate   = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
)

func blockDateDeps() orchestrators.BlockDateDeps {
	return orchestrators.BlockDateDeps{
		Registry: stores.Calendar,
		Blocked:  stores.BlockedDates,
		Changes:  publisher(),
		Now:      timeNow,
	}
}

// handleListBlockedDates handles GET /api/blocked-dates
// Query: from, to (YYYY-MM-DD, both optional)
func handleListBlockedDates(w http.ResponseWriter, r *http.Request) {
	rng, err := listutil.ParseDateRange(r.URL.Query(), classDomain.DateLayout)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var dates []blockedDomain.BlockedDate
	if rng.From.IsZero() && rng.To.IsZero() {
		dates, err = stores.BlockedDates.List(r.Context())
	} else {
		from, to := rng.From, rng.To
		if from.IsZero() {
			from = earliestDate
		}
		if to.IsZero() {
			to = latestDate
		}
		dates, err = stores.BlockedDates.ListByRange(r.Context(), from, to)
	}
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBlockedResponses(dates))
}

// handleBlockDate handles POST /api/blocked-dates
func handleBlockDate(w http.ResponseWriter, r *http.Request) {
	var input blockDateRequest
	if !decodeRequest(w, r, &input) {
		return
	}
	date, err := classDomain.ParseDate(input.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format (use YYYY-MM-DD)")
		return
	}

	blocked, err := orchestrators.ExecuteBlockDate(r.Context(), orchestrators.BlockDateInput{
		Date:   date,
		Reason: input.Reason,
	}, blockDateDeps())
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBlockedResponse(blocked))
}

// handleUnblockDate handles DELETE /api/blocked-dates/{date}
// Unblocking a date that is not blocked succeeds with removed=false.
func handleUnblockDate(w http.ResponseWriter, r *http.Request) {
	date, err := classDomain.ParseDate(r.PathValue("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format (use YYYY-MM-DD)")
		return
	}

	removed, err := orchestrators.ExecuteUnblockDate(r.Context(), date, blockDateDeps())
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Date    string `json:"date"`
		Removed bool   `json:"removed"`
	}{classDomain.FormatDate(date), removed})
}

// handleCalendar handles GET /api/calendar
// Query: month (YYYY-MM, default current), location, week_start (monday|sunday)
func handleCalendar(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	anchor := calendar.MonthStart(timeNow())
	if m := q.Get("month"); m != "" {
		parsed, err := calendar.ParseMonth(m)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid month format (use YYYY-MM)")
			return
		}
		anchor = parsed
	}

	weekStart := WeekStart
	switch strings.ToLower(q.Get("week_start")) {
	case "":
	case "monday":
		weekStart = time.Monday
	case "sunday":
		weekStart = time.Sunday
	default:
		writeError(w, http.StatusBadRequest, "week_start must be monday or sunday")
		return
	}

	res, err := projections.QueryGetCalendarMonth(r.Context(), projections.GetCalendarMonthQuery{
		Anchor:     anchor,
		LocationID: q.Get("location"),
		WeekStart:  weekStart,
	}, projections.GetCalendarMonthDeps{
		ClassStore:       stores.Classes,
		BlockedDateStore: stores.BlockedDates,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCalendarResponse(res))
}

// handleSlots handles GET /api/slots
// Query: date (YYYY-MM-DD), location, exclude (class being edited)
func handleSlots(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	date, err := classDomain.ParseDate(q.Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "date is required (use YYYY-MM-DD)")
		return
	}

	res, err := projections.QueryGetSlotAvailability(r.Context(), projections.GetSlotAvailabilityQuery{
		Date:       date,
		LocationID: q.Get("location"),
		ExcludeID:  q.Get("exclude"),
	}, projections.GetSlotAvailabilityDeps{
		ClassStore:       stores.Classes,
		BlockedDateStore: stores.BlockedDates,
		LocationStore:    stores.Locations,
	})
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSlotsResponse(res))
}
