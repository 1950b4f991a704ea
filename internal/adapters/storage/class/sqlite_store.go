package class

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"gymflow/internal/adapters/storage"
	domain "gymflow/internal/domain/class"
)

const timestampLayout = time.RFC3339Nano

const classColumns = `id, location_id, name, trainer, date, start_time, duration_minutes, spots, booked,
	is_online, meeting_url, price_cents, payment_required, status, rejection_reason, note, created_at, updated_at`

// SQLiteStore implements Store using SQLite.
// It accepts a storage.Querier so it can run inside a caller's *sql.Tx.
type SQLiteStore struct {
	db storage.Querier
}

// NewSQLiteStore creates a new class store.
// PRE: db is a valid connection or transaction with migrations applied
// POST: store is ready for use
func NewSQLiteStore(db storage.Querier) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Class by its ID.
// PRE: id is non-empty
// POST: Returns the entity or ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Class, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+classColumns+" FROM class WHERE id = ?", id)
	c, err := scanClass(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Class{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return c, err
}

// Save persists a Class to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, c domain.Class) error {
	var online domain.Online
	isOnline := c.Online != nil
	if isOnline {
		online = *c.Online
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO class (`+classColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   location_id=excluded.location_id, name=excluded.name, trainer=excluded.trainer,
		   date=excluded.date, start_time=excluded.start_time, duration_minutes=excluded.duration_minutes,
		   spots=excluded.spots, booked=excluded.booked, is_online=excluded.is_online,
		   meeting_url=excluded.meeting_url, price_cents=excluded.price_cents,
		   payment_required=excluded.payment_required, status=excluded.status,
		   rejection_reason=excluded.rejection_reason, note=excluded.note, updated_at=excluded.updated_at`,
		c.ID, c.LocationID, c.Name, c.Trainer, domain.FormatDate(c.Date), c.StartTime, c.DurationMinutes,
		c.Spots, c.Booked, boolToInt(isOnline), online.MeetingURL, online.PriceCents,
		boolToInt(online.PaymentRequired), c.Status, c.RejectionReason, c.Note,
		c.CreatedAt.UTC().Format(timestampLayout), c.UpdatedAt.UTC().Format(timestampLayout),
	)
	return err
}

// Delete removes a Class from the database.
// PRE: id is non-empty
// POST: Entity with given id is removed; ErrNotFound if it did not exist
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM class WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// IncrementBooked takes one spot in a single conditional UPDATE that checks
// capacity and approval status together.
// PRE: id is non-empty
// POST: booked incremented, or domain.ErrNotBookable / domain.ErrClassFull / ErrNotFound
// INVARIANT: booked never exceeds spots and only approved classes are booked through this path
func (s *SQLiteStore) IncrementBooked(ctx context.Context, id string, now time.Time) (domain.Class, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE class SET booked = booked + 1, updated_at = ?
		 WHERE id = ? AND booked < spots AND (status = '' OR status = ?)`,
		now.UTC().Format(timestampLayout), id, domain.StatusApproved)
	if err != nil {
		return domain.Class{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.Class{}, err
	}
	c, err := s.GetByID(ctx, id)
	if err != nil {
		return domain.Class{}, err
	}
	if n == 0 {
		if !c.IsBookable() {
			return c, domain.ErrNotBookable
		}
		return c, domain.ErrClassFull
	}
	return c, nil
}

// ListByDate retrieves classes on one civil date, optionally for one location.
// PRE: date is a civil date
// POST: Returns classes ordered by start time
func (s *SQLiteStore) ListByDate(ctx context.Context, date time.Time, locationID string) ([]domain.Class, error) {
	if locationID == "" {
		return s.queryClasses(ctx, "SELECT "+classColumns+" FROM class WHERE date = ? ORDER BY start_time, name", domain.FormatDate(date))
	}
	return s.queryClasses(ctx, "SELECT "+classColumns+" FROM class WHERE date = ? AND location_id = ? ORDER BY start_time, name",
		domain.FormatDate(date), locationID)
}

// ListByRange retrieves classes in [from, to] inclusive, optionally for one location.
// PRE: from <= to
// POST: Returns classes ordered by date then start time
func (s *SQLiteStore) ListByRange(ctx context.Context, from, to time.Time, locationID string) ([]domain.Class, error) {
	if locationID == "" {
		return s.queryClasses(ctx, "SELECT "+classColumns+" FROM class WHERE date BETWEEN ? AND ? ORDER BY date, start_time, name",
			domain.FormatDate(from), domain.FormatDate(to))
	}
	return s.queryClasses(ctx, "SELECT "+classColumns+" FROM class WHERE date BETWEEN ? AND ? AND location_id = ? ORDER BY date, start_time, name",
		domain.FormatDate(from), domain.FormatDate(to), locationID)
}

// ListByTrainerOnDate retrieves one trainer's classes on a date across all locations.
// PRE: trainer is non-empty
// POST: Returns classes ordered by start time
func (s *SQLiteStore) ListByTrainerOnDate(ctx context.Context, trainer string, date time.Time) ([]domain.Class, error) {
	return s.queryClasses(ctx, "SELECT "+classColumns+" FROM class WHERE trainer = ? COLLATE NOCASE AND date = ? ORDER BY start_time",
		trainer, domain.FormatDate(date))
}

// CountOnDate counts non-rejected classes on a date at a location.
// PRE: date is a civil date
// POST: Returns the count used for the daily cap
func (s *SQLiteStore) CountOnDate(ctx context.Context, date time.Time, locationID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM class WHERE date = ? AND location_id = ? AND status != ?",
		domain.FormatDate(date), locationID, domain.StatusRejected).Scan(&n)
	return n, err
}

// List retrieves classes matching filter with sorting and paging.
// PRE: filter.Sort is empty or one of SortColumns
// POST: Returns at most filter.Limit rows when Limit > 0
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Class, error) {
	where, args := filterClause(filter)
	query := "SELECT " + classColumns + " FROM class" + where + orderClause(filter)
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}
	return s.queryClasses(ctx, query, args...)
}

// Count returns the number of classes matching filter, ignoring paging.
func (s *SQLiteStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	where, args := filterClause(filter)
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM class"+where, args...).Scan(&n)
	return n, err
}

// All retrieves every class, ordered by date then start time.
func (s *SQLiteStore) All(ctx context.Context) ([]domain.Class, error) {
	return s.queryClasses(ctx, "SELECT "+classColumns+" FROM class ORDER BY date, start_time, name")
}

func filterClause(f ListFilter) (string, []any) {
	var conds []string
	var args []any
	if f.LocationID != "" {
		conds = append(conds, "location_id = ?")
		args = append(args, f.LocationID)
	}
	if f.Trainer != "" {
		conds = append(conds, "trainer = ? COLLATE NOCASE")
		args = append(args, f.Trainer)
	}
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, f.Status)
	}
	if !f.From.IsZero() {
		conds = append(conds, "date >= ?")
		args = append(args, domain.FormatDate(f.From))
	}
	if !f.To.IsZero() {
		conds = append(conds, "date <= ?")
		args = append(args, domain.FormatDate(f.To))
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		conds = append(conds, "(name LIKE ? OR trainer LIKE ?)")
		like := "%" + q + "%"
		args = append(args, like, like)
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func orderClause(f ListFilter) string {
	dir := "ASC"
	if f.Dir == "desc" {
		dir = "DESC"
	}
	for _, col := range SortColumns {
		if f.Sort == col {
			if col == "date" {
				return " ORDER BY date " + dir + ", start_time " + dir
			}
			return " ORDER BY " + col + " " + dir + ", date, start_time"
		}
	}
	return " ORDER BY date " + dir + ", start_time " + dir
}

func (s *SQLiteStore) queryClasses(ctx context.Context, query string, args ...any) ([]domain.Class, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Class
	for rows.Next() {
		c, err := scanClass(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, c)
	}
	return results, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanClass(row scanner) (domain.Class, error) {
	var c domain.Class
	var date, createdAt, updatedAt string
	var isOnline, paymentRequired int
	var online domain.Online
	err := row.Scan(&c.ID, &c.LocationID, &c.Name, &c.Trainer, &date, &c.StartTime, &c.DurationMinutes,
		&c.Spots, &c.Booked, &isOnline, &online.MeetingURL, &online.PriceCents, &paymentRequired,
		&c.Status, &c.RejectionReason, &c.Note, &createdAt, &updatedAt)
	if err != nil {
		return domain.Class{}, err
	}
	c.Date, err = domain.ParseDate(date)
	if err != nil {
		return domain.Class{}, fmt.Errorf("class %s: %w", c.ID, err)
	}
	if isOnline == 1 {
		online.PaymentRequired = paymentRequired == 1
		c.Online = &online
	}
	c.CreatedAt, _ = time.Parse(timestampLayout, createdAt)
	c.UpdatedAt, _ = time.Parse(timestampLayout, updatedAt)
	return c, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
