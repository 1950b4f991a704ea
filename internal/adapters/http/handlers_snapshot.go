package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"gymflow/internal/application/orchestrators"
)

// maxSnapshotBytes caps an imported snapshot document.
const maxSnapshotBytes = 16 << 20

// handleExportSnapshot handles GET /api/snapshot
// Responds with a versioned, checksummed document of the whole schedule.
func handleExportSnapshot(w http.ResponseWriter, r *http.Request) {
	data, err := orchestrators.ExecuteExportSnapshot(r.Context(), orchestrators.ExportSnapshotDeps{
		Locations: stores.Locations,
		Classes:   stores.Classes,
		Blocked:   stores.BlockedDates,
		Now:       timeNow,
	})
	if err != nil {
		internalError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="gymflow-schedule-%s.json"`, timeNow().Format("20060102")))
	w.Write(data)
}

// handleImportSnapshot handles POST /api/snapshot
// Replaces the schedule. Accepts the current format and the legacy bare array.
func handleImportSnapshot(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxSnapshotBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "snapshot is too large")
			return
		}
		writeError(w, http.StatusBadRequest, "could not read request body")
		return
	}

	res, err := orchestrators.ExecuteImportSnapshot(r.Context(), data, orchestrators.ImportSnapshotDeps{
		Replacer:  stores.Calendar,
		Locations: stores.Locations,
		Changes:   publisher(),
		Now:       timeNow,
	})
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		SourceVersion int `json:"source_version"`
		Locations     int `json:"locations"`
		Classes       int `json:"classes"`
		BlockedDates  int `json:"blocked_dates"`
	}{res.SourceVersion, res.Locations, res.Classes, res.Blocked})
}
