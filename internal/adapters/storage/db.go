package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Querier is the subset of SQLDB that *sql.Tx also satisfies.
// Stores that must run inside a caller's transaction accept a Querier.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var _ Querier = (*sql.Tx)(nil)

// migration upgrades the schema from version-1 to version.
type migration struct {
	version     int
	description string
	apply       func(tx *sql.Tx) error
}

// migrations is append-only. Never edit a migration that has shipped.
var migrations = []migration{
	{1, "baseline schedule schema", migrateBaseline},
	{2, "notification outbox", migrateOutbox},
	{3, "class review and online fields", migrateClassReview},
}

// LatestSchemaVersion returns the version a fully migrated database reports.
func LatestSchemaVersion() int {
	return migrations[len(migrations)-1].version
}

// InitDB enables the connection pragmas every store relies on.
// PRE: db is a valid database connection
// POST: WAL mode and foreign keys enabled
func InitDB(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	return nil
}

// SchemaVersion reports the applied schema version, 0 for an unversioned database.
// PRE: db is a valid database connection
// POST: Returns the highest recorded version
func SchemaVersion(db *sql.DB) (int, error) {
	var exists int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'`).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("check schema_version table: %w", err)
	}
	if exists == 0 {
		return 0, nil
	}
	var v sql.NullInt64
	if err := db.QueryRow(`SELECT MAX(version) FROM schema_version`).Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return int(v.Int64), nil
}

// MigrateDB brings the schema up to LatestSchemaVersion.
// Each pending migration runs in its own transaction together with its version row.
// A file-backed database that already holds data is copied to dbPath.bak-v<N> first.
// PRE: db is a valid database connection
// POST: SchemaVersion(db) == LatestSchemaVersion()
// INVARIANT: a failed migration leaves the previous version intact
func MigrateDB(db *sql.DB, dbPath string) error {
	current, err := SchemaVersion(db)
	if err != nil {
		return err
	}
	latest := LatestSchemaVersion()
	if current > latest {
		return fmt.Errorf("database schema version %d is newer than this binary supports (%d)", current, latest)
	}
	if current == latest {
		return nil
	}

	if current > 0 {
		if err := backupBeforeMigrate(db, dbPath, current); err != nil {
			return err
		}
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := applyMigration(db, m); err != nil {
			return err
		}
		slog.Info("schema_migrated", "version", m.version, "description", m.description)
	}
	return nil
}

func applyMigration(db *sql.DB, m migration) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("migration %d: begin: %w", m.version, err)
	}
	defer tx.Rollback()

	if err := m.apply(tx); err != nil {
		return fmt.Errorf("migration %d (%s): %w", m.version, m.description, err)
	}
	if _, err := tx.Exec(`INSERT INTO schema_version (version, description) VALUES (?, ?)`, m.version, m.description); err != nil {
		return fmt.Errorf("migration %d: record version: %w", m.version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migration %d: commit: %w", m.version, err)
	}
	return nil
}

func backupBeforeMigrate(db *sql.DB, dbPath string, version int) error {
	if dbPath == "" || strings.HasPrefix(dbPath, ":memory:") || strings.Contains(dbPath, "mode=memory") {
		return nil
	}
	path := dbPath
	if i := strings.Index(path, "?"); i >= 0 {
		path = path[:i]
	}
	path = strings.TrimPrefix(path, "file:")
	backup := fmt.Sprintf("%s.bak-v%d", path, version)
	if _, err := os.Stat(backup); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat backup %s: %w", backup, err)
	}
	if _, err := db.Exec(`VACUUM INTO ?`, backup); err != nil {
		return fmt.Errorf("backup before migration: %w", err)
	}
	slog.Info("schema_backup_written", "path", backup, "from_version", version)
	return nil
}

func migrateBaseline(tx *sql.Tx) error {
	_, err := tx.Exec(`
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		description TEXT NOT NULL,
		applied_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
	);

	CREATE TABLE IF NOT EXISTS location (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		opens_at TEXT NOT NULL DEFAULT '06:00',
		closes_at TEXT NOT NULL DEFAULT '22:00',
		max_classes_per_day INTEGER NOT NULL DEFAULT 5
	);

	CREATE TABLE IF NOT EXISTS class (
		id TEXT PRIMARY KEY,
		location_id TEXT NOT NULL,
		name TEXT NOT NULL,
		trainer TEXT NOT NULL,
		date TEXT NOT NULL,
		start_time TEXT NOT NULL,
		duration_minutes INTEGER NOT NULL,
		spots INTEGER NOT NULL,
		booked INTEGER NOT NULL DEFAULT 0,
		note TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		FOREIGN KEY (location_id) REFERENCES location(id)
	);

	CREATE INDEX IF NOT EXISTS idx_class_date_location ON class(date, location_id);
	CREATE INDEX IF NOT EXISTS idx_class_date_trainer ON class(date, trainer);

	CREATE TABLE IF NOT EXISTS blocked_date (
		date TEXT PRIMARY KEY,
		reason TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	`)
	return err
}

func migrateOutbox(tx *sql.Tx) error {
	_, err := tx.Exec(`
	CREATE TABLE IF NOT EXISTS outbox (
		id TEXT PRIMARY KEY,
		action_type TEXT NOT NULL,
		payload TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		attempts INTEGER NOT NULL DEFAULT 0,
		max_attempts INTEGER NOT NULL DEFAULT 5,
		last_attempted_at TEXT,
		created_at TEXT NOT NULL,
		external_id TEXT NOT NULL DEFAULT '',
		error_message TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_outbox_status ON outbox(status);
	`)
	return err
}

func migrateClassReview(tx *sql.Tx) error {
	stmts := []string{
		`ALTER TABLE class ADD COLUMN status TEXT NOT NULL DEFAULT 'Approved'`,
		`ALTER TABLE class ADD COLUMN rejection_reason TEXT NOT NULL DEFAULT ''`,
		`ALTER TABLE class ADD COLUMN is_online INTEGER NOT NULL DEFAULT 0`,
		`ALTER TABLE class ADD COLUMN meeting_url TEXT NOT NULL DEFAULT ''`,
		`ALTER TABLE class ADD COLUMN price_cents INTEGER NOT NULL DEFAULT 0`,
		`ALTER TABLE class ADD COLUMN payment_required INTEGER NOT NULL DEFAULT 0`,
		`CREATE INDEX IF NOT EXISTS idx_class_status ON class(status)`,
	}
	for _, s := range stmts {
		if _, err := tx.Exec(s); err != nil {
			return err
		}
	}
	return nil
}
