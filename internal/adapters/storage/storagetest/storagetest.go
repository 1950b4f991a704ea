// Package storagetest opens migrated SQLite databases for store tests.
package storagetest

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"gymflow/internal/adapters/storage"
)

// Open returns a fully migrated database backed by a file in t.TempDir().
// A file is used instead of :memory: so every pooled connection sees the same data.
func Open(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gymflow.db")
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, storage.InitDB(db))
	require.NoError(t, storage.MigrateDB(db, path))
	return db
}

// SeedLocation inserts a location row with default hours.
func SeedLocation(t *testing.T, db *sql.DB, id, name string, maxPerDay int) {
	t.Helper()
	_, err := db.ExecContext(context.Background(),
		`INSERT INTO location (id, name, max_classes_per_day) VALUES (?, ?, ?)`, id, name, maxPerDay)
	require.NoError(t, err)
}
