package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "modernc.org/sqlite"

	emailPkg "gymflow/internal/adapters/email"
	web "gymflow/internal/adapters/http"
	"gymflow/internal/adapters/storage"
	blockedStorePkg "gymflow/internal/adapters/storage/blockeddate"
	calendarStorePkg "gymflow/internal/adapters/storage/calendar"
	classStorePkg "gymflow/internal/adapters/storage/class"
	locationStorePkg "gymflow/internal/adapters/storage/location"
	outboxStorePkg "gymflow/internal/adapters/storage/outbox"
	"gymflow/internal/application/changefeed"
	"gymflow/internal/application/orchestrators"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// .env is optional; real environment variables win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("WARNING: could not read .env: %v", err)
	}

	production := os.Getenv("GYMFLOW_ENV") == "production"
	if production {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))
	}

	// Initialize database with WAL mode, foreign keys, and busy timeout
	dbPath := envOrDefault("GYMFLOW_DB_PATH", "gymflow.db")
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	// Connection pool settings for WAL mode
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)

	if err := db.Ping(); err != nil {
		log.Fatalf("database unreachable: %v", err)
	}
	if err := storage.InitDB(db); err != nil {
		log.Fatalf("failed to initialise database: %v", err)
	}
	if err := storage.MigrateDB(db, dbPath); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}
	log.Println("Database initialized successfully!")

	// Every store goes through the timed wrapper so slow queries are logged and measured.
	var timedOpts []storage.TimedOption
	if ms, err := strconv.Atoi(os.Getenv("GYMFLOW_SLOW_QUERY_MS")); err == nil {
		timedOpts = append(timedOpts, storage.WithSlowQueryThreshold(time.Duration(ms)*time.Millisecond))
	}
	timedDB := storage.NewTimedDB(db, timedOpts...)
	stores := &web.Stores{
		Calendar:     calendarStorePkg.NewSQLiteStore(timedDB),
		Classes:      classStorePkg.NewSQLiteStore(timedDB),
		BlockedDates: blockedStorePkg.NewSQLiteStore(timedDB),
		Locations:    locationStorePkg.NewSQLiteStore(timedDB),
		Outbox:       outboxStorePkg.NewSQLiteStore(timedDB),
		Ping:         timedDB.Ping,
	}

	broker := changefeed.NewBroker(changefeed.DefaultBuffer)

	// Seed a starter schedule on first run
	seeded, err := orchestrators.ExecuteSeedSchedule(context.Background(), os.Getenv("GYMFLOW_SEED_FILE"), orchestrators.SeedScheduleDeps{
		Replacer:  stores.Calendar,
		Locations: stores.Locations,
		Classes:   stores.Classes,
		Changes:   broker,
	})
	if err != nil {
		log.Fatalf("failed to seed schedule: %v", err)
	}
	if seeded {
		log.Println("Starter schedule loaded")
	}

	// Configure email sender
	resendKey := os.Getenv("GYMFLOW_RESEND_KEY")
	emailFrom := envOrDefault("GYMFLOW_RESEND_FROM", "GymFlow <noreply@gymflow.local>")
	var sender emailPkg.Sender
	if resendKey != "" {
		sender = emailPkg.NewResendSender(resendKey, emailFrom)
		log.Println("Email sender configured (Resend)")
	} else {
		sender = emailPkg.NewNoopSender()
		if production {
			log.Println("WARNING: GYMFLOW_RESEND_KEY is not set, staff notifications are NOT delivered in production")
		} else {
			log.Println("Email sender configured (noop, set GYMFLOW_RESEND_KEY for real delivery)")
		}
	}
	web.SetNotifyRecipients(splitList(os.Getenv("GYMFLOW_NOTIFY_TO")))

	// Deliver queued notifications in the background
	retryCfg := orchestrators.DefaultOutboxRetryConfig()
	if d, err := time.ParseDuration(os.Getenv("GYMFLOW_OUTBOX_INTERVAL")); err == nil {
		retryCfg.Interval = d
	}
	stopRetries := orchestrators.StartOutboxRetryScheduler(context.Background(), orchestrators.OutboxRetryDeps{
		OutboxStore: stores.Outbox,
		Sender:      sender,
		From:        emailFrom,
	}, retryCfg)
	defer stopRetries()

	if n, err := strconv.Atoi(os.Getenv("GYMFLOW_RATE_LIMIT")); err == nil && n > 0 {
		web.RateLimitPerSecond = n
	}
	if strings.EqualFold(os.Getenv("GYMFLOW_WEEK_START"), "sunday") {
		web.WeekStart = time.Sunday
	}
	if origins := splitList(os.Getenv("GYMFLOW_TRUSTED_ORIGINS")); len(origins) > 0 {
		web.TrustedOrigins = origins
	}

	addr := envOrDefault("GYMFLOW_ADDR", ":8080")
	srv := &http.Server{
		Addr:              addr,
		Handler:           web.NewMux(stores, broker),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	go func() {
		log.Printf("GymFlow %s starting on %s (env=%s, schema=%d)", version, addr, envOrDefault("GYMFLOW_ENV", "development"), storage.LatestSchemaVersion())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	// Closing the broker ends open change streams so Shutdown does not wait on them.
	broker.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown_failed", "error", err)
	}
	log.Println("Server stopped")
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitList parses a comma-separated env value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
