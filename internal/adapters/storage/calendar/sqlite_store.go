package calendar

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"gymflow/internal/adapters/storage"
	blockedstore "gymflow/internal/adapters/storage/blockeddate"
	classstore "gymflow/internal/adapters/storage/class"
	locationstore "gymflow/internal/adapters/storage/location"
	"gymflow/internal/domain/blockeddate"
	"gymflow/internal/domain/class"
	"gymflow/internal/domain/location"
	"gymflow/internal/domain/recurrence"
	"gymflow/internal/domain/slot"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
	// mu serializes writers so a read-then-write transaction never hits SQLITE_BUSY on upgrade.
	mu sync.Mutex
}

// NewSQLiteStore creates a new calendar store.
// PRE: db is a valid, open database connection with migrations applied
// POST: store is ready for use
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// txStores are the read/write stores bound to one transaction.
type txStores struct {
	classes   *classstore.SQLiteStore
	blocked   *blockedstore.SQLiteStore
	locations *locationstore.SQLiteStore
}

func (s *SQLiteStore) withTx(ctx context.Context, fn func(ts txStores) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin calendar transaction: %w", err)
	}
	defer tx.Rollback()

	ts := txStores{
		classes:   classstore.NewSQLiteStore(tx),
		blocked:   blockedstore.NewSQLiteStore(tx),
		locations: locationstore.NewSQLiteStore(tx),
	}
	if err := fn(ts); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit calendar transaction: %w", err)
	}
	return nil
}

// BlockDate adds b to the registry.
// PRE: b has been validated
// POST: registry and class list unchanged on ErrDateHasClasses or ErrAlreadyBlocked
func (s *SQLiteStore) BlockDate(ctx context.Context, b blockeddate.BlockedDate) error {
	return s.withTx(ctx, func(ts txStores) error {
		already, err := ts.blocked.IsBlocked(ctx, b.Date)
		if err != nil {
			return err
		}
		if already {
			return fmt.Errorf("%w: %s", ErrAlreadyBlocked, b.Key())
		}
		existing, err := ts.classes.ListByDate(ctx, b.Date, "")
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return fmt.Errorf("%w: %d class(es) on %s", ErrDateHasClasses, len(existing), b.Key())
		}
		return ts.blocked.Insert(ctx, b)
	})
}

// UnblockDate removes date from the registry.
// POST: date is not blocked; removing an absent date is a no-op
func (s *SQLiteStore) UnblockDate(ctx context.Context, date time.Time) (bool, error) {
	var removed bool
	err := s.withTx(ctx, func(ts txStores) error {
		var err error
		removed, err = ts.blocked.Delete(ctx, date)
		return err
	})
	return removed, err
}

// AddClasses inserts classes after checking each against the schedule, including
// classes inserted earlier in the same batch.
// PRE: every class has been validated and has a unique ID
// POST: AllOrNothing persists all or none; SkipRejected reports each refused date
func (s *SQLiteStore) AddClasses(ctx context.Context, classes []class.Class, mode AddMode) (AddResult, error) {
	var result AddResult
	err := s.withTx(ctx, func(ts txStores) error {
		result = AddResult{}
		for _, c := range classes {
			skip, err := checkPlacement(ctx, ts, c)
			if err != nil {
				return err
			}
			if skip != nil {
				if mode == AllOrNothing {
					return skipError(*skip, c)
				}
				result.Skipped = append(result.Skipped, *skip)
				continue
			}
			if err := ts.classes.Save(ctx, c); err != nil {
				return fmt.Errorf("insert class %s: %w", c.ID, err)
			}
			result.Added = append(result.Added, c)
		}
		return nil
	})
	if err != nil {
		return AddResult{}, err
	}
	return result, nil
}

// UpdateClass rewrites an existing class.
// PRE: c has been validated
// POST: classstore.ErrNotFound if c.ID does not exist; nothing written on a rule violation
func (s *SQLiteStore) UpdateClass(ctx context.Context, c class.Class) error {
	return s.withTx(ctx, func(ts txStores) error {
		if _, err := ts.classes.GetByID(ctx, c.ID); err != nil {
			return err
		}
		skip, err := checkPlacement(ctx, ts, c)
		if err != nil {
			return err
		}
		if skip != nil {
			return skipError(*skip, c)
		}
		return ts.classes.Save(ctx, c)
	})
}

// ReplaceAll swaps the whole schedule inside one transaction.
// Imported classes are not checked for slot conflicts or caps; only the
// blocked-date invariant is enforced.
// PRE: every class references one of locations or an existing location
// POST: on error the previous schedule is untouched
func (s *SQLiteStore) ReplaceAll(ctx context.Context, locations []location.Location, classes []class.Class, blocked []blockeddate.BlockedDate) error {
	set := blockeddate.NewSet(blocked)
	for _, c := range classes {
		if set.Contains(c.Date) {
			return fmt.Errorf("%w: class %q on %s", ErrDateBlocked, c.Name, c.DateKey())
		}
	}
	return s.withTx(ctx, func(ts txStores) error {
		// the class table is emptied first so location upserts never trip the foreign key
		all, err := ts.classes.All(ctx)
		if err != nil {
			return err
		}
		for _, c := range all {
			if err := ts.classes.Delete(ctx, c.ID); err != nil {
				return err
			}
		}
		if err := ts.blocked.DeleteAll(ctx); err != nil {
			return err
		}
		for _, l := range locations {
			if err := ts.locations.Save(ctx, l); err != nil {
				return fmt.Errorf("upsert location %s: %w", l.ID, err)
			}
		}
		for _, b := range blocked {
			if err := ts.blocked.Insert(ctx, b); err != nil {
				return fmt.Errorf("insert blocked date %s: %w", b.Key(), err)
			}
		}
		for _, c := range classes {
			if err := ts.classes.Save(ctx, c); err != nil {
				return fmt.Errorf("insert class %s: %w", c.ID, err)
			}
		}
		return nil
	})
}

// checkPlacement returns a non-nil Skipped when c may not be scheduled as given.
// Rejected classes neither occupy slots nor count towards the cap.
func checkPlacement(ctx context.Context, ts txStores, c class.Class) (*recurrence.Skipped, error) {
	blocked, err := ts.blocked.IsBlocked(ctx, c.Date)
	if err != nil {
		return nil, err
	}
	if blocked {
		return &recurrence.Skipped{Date: c.Date, Reason: recurrence.SkipBlocked}, nil
	}

	loc, err := ts.locations.GetByID(ctx, c.LocationID)
	if errors.Is(err, locationstore.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLocation, c.LocationID)
	}
	if err != nil {
		return nil, err
	}

	sameSite, err := ts.classes.ListByDate(ctx, c.Date, c.LocationID)
	if err != nil {
		return nil, err
	}
	sameSite = occupying(sameSite, c.ID)
	if other, ok := slot.FindConflict(c, sameSite); ok {
		return &recurrence.Skipped{Date: c.Date, Reason: recurrence.SkipConflict, ConflictWith: other.ID}, nil
	}

	trainerDay, err := ts.classes.ListByTrainerOnDate(ctx, c.Trainer, c.Date)
	if err != nil {
		return nil, err
	}
	if other, ok := slot.FindConflict(c, occupying(trainerDay, c.ID)); ok {
		return &recurrence.Skipped{Date: c.Date, Reason: recurrence.SkipConflict, ConflictWith: other.ID}, nil
	}

	if c.Status != class.StatusRejected && loc.AtCapacity(len(sameSite)) {
		return &recurrence.Skipped{Date: c.Date, Reason: recurrence.SkipDailyCap}, nil
	}
	return nil, nil
}

func occupying(classes []class.Class, excludeID string) []class.Class {
	out := classes[:0:0]
	for _, c := range classes {
		if c.ID == excludeID || c.Status == class.StatusRejected {
			continue
		}
		out = append(out, c)
	}
	return out
}

func skipError(skip recurrence.Skipped, c class.Class) error {
	day := class.FormatDate(skip.Date)
	switch skip.Reason {
	case recurrence.SkipBlocked:
		return fmt.Errorf("%w: %s", ErrDateBlocked, day)
	case recurrence.SkipConflict:
		return fmt.Errorf("%w: %s %s-%s on %s (conflicts with %s)", ErrSlotConflict, c.Name, c.StartTime, c.EndTime(), day, skip.ConflictWith)
	case recurrence.SkipDailyCap:
		return fmt.Errorf("%w: %s", ErrDailyCapReached, day)
	default:
		return fmt.Errorf("class %s rejected: %s", c.ID, skip.Reason)
	}
}

var _ Store = (*SQLiteStore)(nil)

// compile-time check that transactions satisfy the read stores' connection type
var _ storage.Querier = (*sql.Tx)(nil)
