package class_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	classstore "gymflow/internal/adapters/storage/class"
	"gymflow/internal/adapters/storage/storagetest"
	domain "gymflow/internal/domain/class"
)

var created = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func d(day int) time.Time {
	return time.Date(2024, 7, day, 0, 0, 0, 0, time.UTC)
}

func newClass(id, name, trainer string, date time.Time, start string) domain.Class {
	return domain.Class{
		ID: id, LocationID: "loc1", Name: name, Trainer: trainer, Date: date,
		StartTime: start, DurationMinutes: 60, Spots: 10, Status: domain.StatusApproved,
		CreatedAt: created, UpdatedAt: created,
	}
}

func setup(t *testing.T) *classstore.SQLiteStore {
	t.Helper()
	db := storagetest.Open(t)
	storagetest.SeedLocation(t, db, "loc1", "Main Hall", 5)
	storagetest.SeedLocation(t, db, "loc2", "Annex", 5)
	return classstore.NewSQLiteStore(db)
}

func TestSQLiteStore_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	store := setup(t)

	c := newClass("c1", "Yoga", "Ana", d(1), "07:00")
	c.Online = &domain.Online{MeetingURL: "https://meet.test/yoga", PriceCents: 1500, PaymentRequired: true}
	c.Note = "Bring a mat"
	require.NoError(t, store.Save(ctx, c))

	got, err := store.GetByID(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Yoga", got.Name)
	assert.Equal(t, d(1), got.Date)
	assert.Equal(t, "Bring a mat", got.Note)
	require.NotNil(t, got.Online)
	assert.Equal(t, 1500, got.Online.PriceCents)
	assert.True(t, got.Online.PaymentRequired)
	assert.True(t, created.Equal(got.CreatedAt))

	c.Online = nil
	c.Name = "Power Yoga"
	require.NoError(t, store.Save(ctx, c))
	got, err = store.GetByID(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Power Yoga", got.Name)
	assert.Nil(t, got.Online)
}

func TestSQLiteStore_NotFound(t *testing.T) {
	ctx := context.Background()
	store := setup(t)

	_, err := store.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, classstore.ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "missing"), classstore.ErrNotFound)
}

func TestSQLiteStore_ListByDateAndRange(t *testing.T) {
	ctx := context.Background()
	store := setup(t)

	late := newClass("late", "HIIT", "Ben", d(3), "18:00")
	early := newClass("early", "Yoga", "Ana", d(3), "07:00")
	annex := newClass("annex", "Spin", "Cat", d(3), "09:00")
	annex.LocationID = "loc2"
	other := newClass("other", "Yoga", "Ana", d(10), "07:00")
	for _, c := range []domain.Class{late, early, annex, other} {
		require.NoError(t, store.Save(ctx, c))
	}

	onDay, err := store.ListByDate(ctx, d(3), "loc1")
	require.NoError(t, err)
	require.Len(t, onDay, 2)
	assert.Equal(t, "early", onDay[0].ID)
	assert.Equal(t, "late", onDay[1].ID)

	all, err := store.ListByDate(ctx, d(3), "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	ranged, err := store.ListByRange(ctx, d(1), d(10), "loc1")
	require.NoError(t, err)
	require.Len(t, ranged, 3)
	assert.Equal(t, "other", ranged[2].ID)

	anas, err := store.ListByTrainerOnDate(ctx, "ana", d(3))
	require.NoError(t, err)
	require.Len(t, anas, 1)
	assert.Equal(t, "early", anas[0].ID)
}

func TestSQLiteStore_CountOnDateIgnoresRejected(t *testing.T) {
	ctx := context.Background()
	store := setup(t)

	a := newClass("a", "Yoga", "Ana", d(5), "07:00")
	b := newClass("b", "Spin", "Ben", d(5), "09:00")
	b.Status = domain.StatusRejected
	b.RejectionReason = "No trainer"
	require.NoError(t, store.Save(ctx, a))
	require.NoError(t, store.Save(ctx, b))

	n, err := store.CountOnDate(ctx, d(5), "loc1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSQLiteStore_ListFilterAndCount(t *testing.T) {
	ctx := context.Background()
	store := setup(t)

	for i, name := range []string{"Yoga", "Spin", "Yoga Flow", "Boxing"} {
		c := newClass(name, name, "Ana", d(i+1), "07:00")
		require.NoError(t, store.Save(ctx, c))
	}

	filter := classstore.ListFilter{Search: "yoga", Sort: "name", Dir: "desc"}
	got, err := store.List(ctx, filter)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Yoga Flow", got[0].Name)

	n, err := store.Count(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	page, err := store.List(ctx, classstore.ListFilter{From: d(2), Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "Yoga Flow", page[0].Name)
	assert.Equal(t, "Boxing", page[1].Name)
}

func TestSQLiteStore_IncrementBooked(t *testing.T) {
	ctx := context.Background()
	store := setup(t)

	c := newClass("c1", "Yoga", "Ana", d(1), "07:00")
	c.Spots = 2
	require.NoError(t, store.Save(ctx, c))

	got, err := store.IncrementBooked(ctx, "c1", created)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Booked)
	_, err = store.IncrementBooked(ctx, "c1", created)
	require.NoError(t, err)

	got, err = store.IncrementBooked(ctx, "c1", created)
	assert.ErrorIs(t, err, domain.ErrClassFull)
	assert.Equal(t, 2, got.Booked)

	_, err = store.IncrementBooked(ctx, "missing", created)
	assert.ErrorIs(t, err, classstore.ErrNotFound)
}

func TestSQLiteStore_IncrementBookedRequiresApproval(t *testing.T) {
	ctx := context.Background()
	store := setup(t)

	for _, status := range []string{domain.StatusPending, domain.StatusRejected} {
		c := newClass("c-"+status, "Yoga", "Ana", d(1), "07:00")
		c.Status = status
		require.NoError(t, store.Save(ctx, c))

		got, err := store.IncrementBooked(ctx, c.ID, created)
		assert.ErrorIs(t, err, domain.ErrNotBookable, status)
		assert.Equal(t, 0, got.Booked, status)
	}

	approved := newClass("c-approved", "Boxing", "Ana", d(1), "09:00")
	require.NoError(t, store.Save(ctx, approved))
	got, err := store.IncrementBooked(ctx, approved.ID, created)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Booked)
}

func TestSQLiteStore_IncrementBookedConcurrent(t *testing.T) {
	ctx := context.Background()
	store := setup(t)

	c := newClass("c1", "Yoga", "Ana", d(1), "07:00")
	c.Spots = 5
	require.NoError(t, store.Save(ctx, c))

	var wg sync.WaitGroup
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.IncrementBooked(ctx, "c1", created)
		}()
	}
	wg.Wait()

	got, err := store.GetByID(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 5, got.Booked)
}

func TestSQLiteStore_RejectsUnknownLocation(t *testing.T) {
	ctx := context.Background()
	store := setup(t)

	c := newClass("c1", "Yoga", "Ana", d(1), "07:00")
	c.LocationID = "nowhere"
	assert.Error(t, store.Save(ctx, c))
}
