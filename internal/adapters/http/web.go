package web

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"net/http"
	"os"
	"time"

	"gymflow/internal/adapters/http/middleware"
	blockedStore "gymflow/internal/adapters/storage/blockeddate"
	calendarStore "gymflow/internal/adapters/storage/calendar"
	classStore "gymflow/internal/adapters/storage/class"
	locationStore "gymflow/internal/adapters/storage/location"
	outboxStore "gymflow/internal/adapters/storage/outbox"
	"gymflow/internal/application/changefeed"
	"gymflow/internal/application/orchestrators"
)

// Stores holds all storage dependencies.
type Stores struct {
	Calendar     calendarStore.Store
	Classes      classStore.Store
	BlockedDates blockedStore.Store
	Locations    locationStore.Store
	Outbox       outboxStore.Store
	// Ping reports database health for /healthz. Nil skips the check.
	Ping func() error
}

// loadCSRFKey reads the CSRF secret from GYMFLOW_CSRF_KEY (hex-encoded, 32 bytes).
// In production, the key MUST be set. In development, a random key is generated per startup.
func loadCSRFKey() []byte {
	if keyHex := os.Getenv("GYMFLOW_CSRF_KEY"); keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil || len(key) != 32 {
			log.Fatal("GYMFLOW_CSRF_KEY must be 64 hex characters (32 bytes)")
		}
		return key
	}
	if isProduction() {
		log.Fatal("GYMFLOW_CSRF_KEY is required in production")
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		log.Fatalf("failed to generate CSRF key: %v", err)
	}
	log.Println("WARNING: using random CSRF key. Set GYMFLOW_CSRF_KEY for production.")
	return key
}

func isProduction() bool {
	return os.Getenv("GYMFLOW_ENV") == "production"
}

// Global stores instance (set by NewMux)
var stores *Stores

// Global change feed (set by NewMux). Handlers publish through it and /api/changes reads it.
var changes *changefeed.Broker

// notifier queues staff emails; To is set by SetNotifyRecipients.
var notifier = orchestrators.Notifier{GenerateID: generateID}

// RateLimitPerSecond controls the per-IP rate limit. Tests can increase this.
var RateLimitPerSecond = 10

// WeekStart is the first column of the calendar grid.
var WeekStart = time.Monday

// TrustedOrigins are the hosts allowed to post forms cross-origin.
var TrustedOrigins = []string{"localhost:8080", "127.0.0.1:8080"}

// SetNotifyRecipients sets who is emailed about classes awaiting review,
// rejections and cancellations. An empty list disables notifications.
func SetNotifyRecipients(to []string) {
	notifier.To = to
}

// NewMux wires HTTP handlers for the app.
func NewMux(s *Stores, broker *changefeed.Broker) http.Handler {
	stores = s
	changes = broker
	notifier.Outbox = s.Outbox

	mux := http.NewServeMux()
	registerRoutes(mux)

	// CSRF key: 32-byte hex-encoded secret from env var
	csrfKey := loadCSRFKey()

	// Rate limiter: configurable requests per second per IP (OWASP A04)
	limiter := middleware.NewRateLimiter(RateLimitPerSecond, time.Second)

	// Request order: Timing -> Recover -> RateLimit -> CSRF -> SecurityHeaders -> Mux
	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CSRF(csrfKey, isProduction(), TrustedOrigins),
		middleware.RateLimit(limiter),
		middleware.Recover,
		middleware.Timing(),
	)
}
