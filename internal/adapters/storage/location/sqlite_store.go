package location

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gymflow/internal/adapters/storage"
	domain "gymflow/internal/domain/location"
)

const locationColumns = "id, name, opens_at, closes_at, max_classes_per_day"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.Querier
}

// NewSQLiteStore creates a new location store.
func NewSQLiteStore(db storage.Querier) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Location by its ID.
// PRE: id is non-empty
// POST: Returns the entity or ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Location, error) {
	return s.getOne(ctx, "SELECT "+locationColumns+" FROM location WHERE id = ?", id)
}

// GetByName retrieves a Location by its case-insensitive name.
// PRE: name is non-empty
// POST: Returns the entity or ErrNotFound
func (s *SQLiteStore) GetByName(ctx context.Context, name string) (domain.Location, error) {
	return s.getOne(ctx, "SELECT "+locationColumns+" FROM location WHERE name = ? COLLATE NOCASE", name)
}

// Save persists a Location to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Location) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO location ("+locationColumns+") VALUES (?, ?, ?, ?, ?) ON CONFLICT(id) DO UPDATE SET name=excluded.name, opens_at=excluded.opens_at, closes_at=excluded.closes_at, max_classes_per_day=excluded.max_classes_per_day",
		entity.ID, entity.Name, entity.OpensAt, entity.ClosesAt, entity.MaxClassesPerDay,
	)
	return err
}

// Delete removes a Location. Fails while classes still reference it.
// PRE: id is non-empty
// POST: Entity with given id is removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM location WHERE id = ?", id)
	return err
}

// List retrieves all Locations ordered by name.
func (s *SQLiteStore) List(ctx context.Context) ([]domain.Location, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+locationColumns+" FROM location ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Location
	for rows.Next() {
		var entity domain.Location
		if err := rows.Scan(&entity.ID, &entity.Name, &entity.OpensAt, &entity.ClosesAt, &entity.MaxClassesPerDay); err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

func (s *SQLiteStore) getOne(ctx context.Context, query string, arg string) (domain.Location, error) {
	var entity domain.Location
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&entity.ID, &entity.Name, &entity.OpensAt, &entity.ClosesAt, &entity.MaxClassesPerDay)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Location{}, fmt.Errorf("%w: %s", ErrNotFound, arg)
	}
	return entity, err
}
