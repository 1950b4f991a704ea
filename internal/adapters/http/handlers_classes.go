package web

import (
	"net/http"

	classStore "gymflow/internal/adapters/storage/class"
	"gymflow/internal/application/changefeed"
	"gymflow/internal/application/listutil"
	"gymflow/internal/application/orchestrators"
	"gymflow/internal/application/projections"
	classDomain "gymflow/internal/domain/class"
)

// publisher returns the change feed, or a sink when none is wired.
func publisher() changefeed.Publisher {
	if changes == nil {
		return changefeed.Discard{}
	}
	return changes
}

// handleListClasses handles GET /api/classes
// Query: page, per_page, sort, dir, q, location, trainer, status, from, to
func handleListClasses(w http.ResponseWriter, r *http.Request) {
	params, err := listutil.ParseListParams(r.URL.Query(), classStore.SortColumns, projections.ClassFilterKeys, classDomain.DateLayout)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := projections.QueryListClasses(r.Context(), params, projections.ListClassesDeps{ClassStore: stores.Classes})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Classes []classResponse   `json:"classes"`
		Page    listutil.PageInfo `json:"page"`
	}{toClassResponses(res.Classes), res.Page})
}

// handleCreateClass handles POST /api/classes
func handleCreateClass(w http.ResponseWriter, r *http.Request) {
	var input classRequest
	if !decodeRequest(w, r, &input) {
		return
	}
	date, err := classDomain.ParseDate(input.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format (use YYYY-MM-DD)")
		return
	}

	created, err := orchestrators.ExecuteCreateClass(r.Context(), orchestrators.CreateClassInput{
		Template: input.template(),
		Date:     date,
	}, orchestrators.CreateClassDeps{
		Scheduler:  stores.Calendar,
		Changes:    publisher(),
		Notify:     notifier,
		GenerateID: generateID,
		Now:        timeNow,
	})
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toClassResponse(created))
}

// handleCreateRecurringClasses handles POST /api/classes/recurring
// Dates that are blocked, clash or exceed the daily cap are reported in "skipped".
func handleCreateRecurringClasses(w http.ResponseWriter, r *http.Request) {
	var input recurringRequest
	if !decodeRequest(w, r, &input) {
		return
	}
	req, err := input.request()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format (use YYYY-MM-DD)")
		return
	}

	res, err := orchestrators.ExecuteCreateRecurringClasses(r.Context(), orchestrators.CreateRecurringClassesInput{
		Template:   input.template(),
		Recurrence: req,
	}, orchestrators.CreateRecurringClassesDeps{
		Scheduler:    stores.Calendar,
		BlockedDates: stores.BlockedDates,
		Changes:      publisher(),
		Notify:       notifier,
		GenerateID:   generateID,
		Now:          timeNow,
	})
	if err != nil {
		writeAppError(w, err)
		return
	}

	status := http.StatusCreated
	if len(res.Created) == 0 {
		status = http.StatusOK
	}
	writeJSON(w, status, toRecurringResponse(res))
}

// handleGetClass handles GET /api/classes/{id}
func handleGetClass(w http.ResponseWriter, r *http.Request) {
	c, err := stores.Classes.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toClassResponse(c))
}

// handleUpdateClass handles PUT /api/classes/{id}
func handleUpdateClass(w http.ResponseWriter, r *http.Request) {
	var input classRequest
	if !decodeRequest(w, r, &input) {
		return
	}
	date, err := classDomain.ParseDate(input.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format (use YYYY-MM-DD)")
		return
	}

	updated, err := orchestrators.ExecuteUpdateClass(r.Context(), orchestrators.UpdateClassInput{
		ID:       r.PathValue("id"),
		Template: input.template(),
		Date:     date,
	}, orchestrators.UpdateClassDeps{
		Classes:   stores.Classes,
		Scheduler: stores.Calendar,
		Changes:   publisher(),
		Now:       timeNow,
	})
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toClassResponse(updated))
}

// handleDeleteClass handles DELETE /api/classes/{id}
func handleDeleteClass(w http.ResponseWriter, r *http.Request) {
	err := orchestrators.ExecuteDeleteClass(r.Context(), r.PathValue("id"), orchestrators.DeleteClassDeps{
		Classes: stores.Classes,
		Changes: publisher(),
		Notify:  notifier,
		Now:     timeNow,
	})
	if err != nil {
		writeAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleBookClass handles POST /api/classes/{id}/book
func handleBookClass(w http.ResponseWriter, r *http.Request) {
	booked, err := orchestrators.ExecuteBookClass(r.Context(), r.PathValue("id"), orchestrators.BookClassDeps{
		Classes: stores.Classes,
		Changes: publisher(),
		Now:     timeNow,
	})
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toClassResponse(booked))
}

// handleReviewClass handles POST /api/classes/{id}/review
// Body: {"decision": "approve"|"reject", "reason": "..."}
func handleReviewClass(w http.ResponseWriter, r *http.Request) {
	var input reviewRequest
	if !decodeRequest(w, r, &input) {
		return
	}

	reviewed, err := orchestrators.ExecuteReviewClass(r.Context(), orchestrators.ReviewClassInput{
		ID:       r.PathValue("id"),
		Decision: input.Decision,
		Reason:   input.Reason,
	}, orchestrators.ReviewClassDeps{
		Classes: stores.Classes,
		Changes: publisher(),
		Notify:  notifier,
		Now:     timeNow,
	})
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toClassResponse(reviewed))
}
