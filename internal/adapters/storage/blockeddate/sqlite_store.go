package blockeddate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gymflow/internal/adapters/storage"
	domain "gymflow/internal/domain/blockeddate"
	"gymflow/internal/domain/class"
)

// SQLiteStore implements Store and Writer using SQLite.
type SQLiteStore struct {
	db storage.Querier
}

// NewSQLiteStore creates a new blocked-date store.
// PRE: db is a valid connection or transaction with migrations applied
func NewSQLiteStore(db storage.Querier) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Get retrieves the entry for date.
// PRE: date is a civil date
// POST: Returns the entry or ErrNotFound
func (s *SQLiteStore) Get(ctx context.Context, date time.Time) (domain.BlockedDate, error) {
	row := s.db.QueryRowContext(ctx, "SELECT date, reason, created_at FROM blocked_date WHERE date = ?", class.FormatDate(date))
	b, err := scanBlockedDate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.BlockedDate{}, fmt.Errorf("%w: %s", ErrNotFound, class.FormatDate(date))
	}
	return b, err
}

// IsBlocked reports whether date is in the registry.
func (s *SQLiteStore) IsBlocked(ctx context.Context, date time.Time) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM blocked_date WHERE date = ?", class.FormatDate(date)).Scan(&n)
	return n > 0, err
}

// List retrieves every blocked date in ascending order.
func (s *SQLiteStore) List(ctx context.Context) ([]domain.BlockedDate, error) {
	return s.query(ctx, "SELECT date, reason, created_at FROM blocked_date ORDER BY date")
}

// ListByRange retrieves blocked dates in [from, to] inclusive.
// PRE: from <= to
func (s *SQLiteStore) ListByRange(ctx context.Context, from, to time.Time) ([]domain.BlockedDate, error) {
	return s.query(ctx, "SELECT date, reason, created_at FROM blocked_date WHERE date BETWEEN ? AND ? ORDER BY date",
		class.FormatDate(from), class.FormatDate(to))
}

// Count returns the size of the registry.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM blocked_date").Scan(&n)
	return n, err
}

// Insert adds b to the registry.
// PRE: b has been validated and is not already blocked
// POST: b is persisted; a duplicate date returns the driver's constraint error
func (s *SQLiteStore) Insert(ctx context.Context, b domain.BlockedDate) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO blocked_date (date, reason, created_at) VALUES (?, ?, ?)",
		b.Key(), b.Reason, b.CreatedAt.UTC().Format(time.RFC3339Nano))
	return err
}

// Delete removes date from the registry and reports whether it was present.
func (s *SQLiteStore) Delete(ctx context.Context, date time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM blocked_date WHERE date = ?", class.FormatDate(date))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// DeleteAll empties the registry.
func (s *SQLiteStore) DeleteAll(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM blocked_date")
	return err
}

func (s *SQLiteStore) query(ctx context.Context, query string, args ...any) ([]domain.BlockedDate, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.BlockedDate
	for rows.Next() {
		b, err := scanBlockedDate(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, b)
	}
	return results, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBlockedDate(row scanner) (domain.BlockedDate, error) {
	var b domain.BlockedDate
	var date, createdAt string
	if err := row.Scan(&date, &b.Reason, &createdAt); err != nil {
		return domain.BlockedDate{}, err
	}
	var err error
	b.Date, err = class.ParseDate(date)
	if err != nil {
		return domain.BlockedDate{}, err
	}
	b.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return b, nil
}
