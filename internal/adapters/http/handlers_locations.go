package web

import (
	"net/http"

	"gymflow/internal/application/orchestrators"
)

// handleListLocations handles GET /api/locations
func handleListLocations(w http.ResponseWriter, r *http.Request) {
	locs, err := stores.Locations.List(r.Context())
	if err != nil {
		internalError(w, err)
		return
	}
	out := make([]locationResponse, 0, len(locs))
	for _, l := range locs {
		out = append(out, toLocationResponse(l))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleCreateLocation handles POST /api/locations
// Omitted hours default to 06:00-22:00 and an omitted cap to five classes a day.
func handleCreateLocation(w http.ResponseWriter, r *http.Request) {
	saveLocation(w, r, "", http.StatusCreated)
}

// handleUpdateLocation handles PUT /api/locations/{id}
func handleUpdateLocation(w http.ResponseWriter, r *http.Request) {
	saveLocation(w, r, r.PathValue("id"), http.StatusOK)
}

func saveLocation(w http.ResponseWriter, r *http.Request, id string, status int) {
	var input locationRequest
	if !decodeRequest(w, r, &input) {
		return
	}

	saved, err := orchestrators.ExecuteSaveLocation(r.Context(), orchestrators.SaveLocationInput{
		ID:               id,
		Name:             input.Name,
		OpensAt:          input.OpensAt,
		ClosesAt:         input.ClosesAt,
		MaxClassesPerDay: input.maxPerDay(),
	}, orchestrators.SaveLocationDeps{
		LocationStore: stores.Locations,
		GenerateID:    generateID,
	})
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, status, toLocationResponse(saved))
}
