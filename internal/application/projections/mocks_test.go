package projections

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	classstore "gymflow/internal/adapters/storage/class"
	domainBlocked "gymflow/internal/domain/blockeddate"
	domainClass "gymflow/internal/domain/class"
	domainLocation "gymflow/internal/domain/location"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func cls(id, loc string, date time.Time, start string, minutes int) domainClass.Class {
	return domainClass.Class{
		ID: id, LocationID: loc, Name: "Class " + id, Trainer: "Ana",
		Date: date, StartTime: start, DurationMinutes: minutes, Spots: 10,
	}
}

type mockClassStore struct {
	classes []domainClass.Class
	filters []classstore.ListFilter
}

// ListByDate returns seeded classes on date.
// PRE: date is a civil date
// POST: Returns classes for the date and optional location
func (m *mockClassStore) ListByDate(_ context.Context, date time.Time, locationID string) ([]domainClass.Class, error) {
	return m.ListByRange(context.Background(), date, date, locationID)
}

// ListByRange returns seeded classes in [from, to].
// PRE: from <= to
// POST: Returns classes ordered by date then start
func (m *mockClassStore) ListByRange(_ context.Context, from, to time.Time, locationID string) ([]domainClass.Class, error) {
	var out []domainClass.Class
	for _, c := range m.classes {
		if c.Date.Before(from) || c.Date.After(to) {
			continue
		}
		if locationID != "" && c.LocationID != locationID {
			continue
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}

// List returns the filtered page and records the filter.
// PRE: filter is valid
// POST: Honors Limit and Offset
func (m *mockClassStore) List(_ context.Context, f classstore.ListFilter) ([]domainClass.Class, error) {
	m.filters = append(m.filters, f)
	matched := m.match(f)
	if f.Offset >= len(matched) {
		return nil, nil
	}
	matched = matched[f.Offset:]
	if f.Limit > 0 && len(matched) > f.Limit {
		matched = matched[:f.Limit]
	}
	return matched, nil
}

// Count returns the number of matching classes.
// PRE: filter is valid
// POST: Returns count >= 0
func (m *mockClassStore) Count(_ context.Context, f classstore.ListFilter) (int, error) {
	return len(m.match(f)), nil
}

func (m *mockClassStore) match(f classstore.ListFilter) []domainClass.Class {
	var out []domainClass.Class
	for _, c := range m.classes {
		if f.LocationID != "" && c.LocationID != f.LocationID {
			continue
		}
		if f.Trainer != "" && !strings.EqualFold(c.Trainer, f.Trainer) {
			continue
		}
		out = append(out, c)
	}
	return out
}

type mockBlockedStore struct {
	dates []domainBlocked.BlockedDate
}

// ListByRange returns seeded blocked dates in [from, to].
// PRE: from <= to
// POST: Returns dates ordered as seeded
func (m *mockBlockedStore) ListByRange(_ context.Context, from, to time.Time) ([]domainBlocked.BlockedDate, error) {
	var out []domainBlocked.BlockedDate
	for _, b := range m.dates {
		if !b.Date.Before(from) && !b.Date.After(to) {
			out = append(out, b)
		}
	}
	return out, nil
}

type mockLocationStore struct {
	locations []domainLocation.Location
}

// GetByID returns a seeded location.
// PRE: id is non-empty
// POST: Returns the location or an error
func (m *mockLocationStore) GetByID(_ context.Context, id string) (domainLocation.Location, error) {
	for _, l := range m.locations {
		if l.ID == id {
			return l, nil
		}
	}
	return domainLocation.Location{}, errors.New("location not found")
}

// List returns every seeded location.
func (m *mockLocationStore) List(_ context.Context) ([]domainLocation.Location, error) {
	return m.locations, nil
}
