package web

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gymflow/internal/adapters/http/middleware"
)

// registerRoutes maps every endpoint. Patterns double as metric labels.
func registerRoutes(mux *http.ServeMux) {
	handle := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, middleware.Route(pattern, h))
	}

	// Classes
	handle("GET /api/classes", handleListClasses)
	handle("POST /api/classes", handleCreateClass)
	handle("POST /api/classes/recurring", handleCreateRecurringClasses)
	handle("GET /api/classes/{id}", handleGetClass)
	handle("PUT /api/classes/{id}", handleUpdateClass)
	handle("DELETE /api/classes/{id}", handleDeleteClass)
	handle("POST /api/classes/{id}/book", handleBookClass)
	handle("POST /api/classes/{id}/review", handleReviewClass)

	// Blocked dates
	handle("GET /api/blocked-dates", handleListBlockedDates)
	handle("POST /api/blocked-dates", handleBlockDate)
	handle("DELETE /api/blocked-dates/{date}", handleUnblockDate)

	// Views
	handle("GET /api/calendar", handleCalendar)
	handle("GET /api/slots", handleSlots)

	// Locations
	handle("GET /api/locations", handleListLocations)
	handle("POST /api/locations", handleCreateLocation)
	handle("PUT /api/locations/{id}", handleUpdateLocation)

	// Snapshot export / import
	handle("GET /api/snapshot", handleExportSnapshot)
	handle("POST /api/snapshot", handleImportSnapshot)

	// Notification outbox
	handle("GET /api/outbox", handleListOutbox)
	handle("POST /api/outbox/{id}/{action}", handleResolveOutbox)

	// Change feed (Server-Sent Events)
	handle("GET /api/changes", handleChanges)

	// Operations
	mux.Handle("GET /metrics", middleware.Route("GET /metrics", promhttp.Handler()))
	handle("GET /healthz", handleHealth)
}
