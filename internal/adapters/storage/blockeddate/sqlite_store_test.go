package blockeddate_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	blockedstore "gymflow/internal/adapters/storage/blockeddate"
	"gymflow/internal/adapters/storage/storagetest"
	domain "gymflow/internal/domain/blockeddate"
)

func d(day int) time.Time {
	return time.Date(2024, 7, day, 0, 0, 0, 0, time.UTC)
}

func TestSQLiteStore_InsertGetDelete(t *testing.T) {
	ctx := context.Background()
	store := blockedstore.NewSQLiteStore(storagetest.Open(t))

	b := domain.BlockedDate{Date: d(4), Reason: "Public holiday", CreatedAt: time.Now().UTC()}
	require.NoError(t, store.Insert(ctx, b))
	assert.Error(t, store.Insert(ctx, b), "duplicate date must violate the primary key")

	got, err := store.Get(ctx, d(4))
	require.NoError(t, err)
	assert.Equal(t, "Public holiday", got.Reason)
	assert.Equal(t, d(4), got.Date)

	blocked, err := store.IsBlocked(ctx, d(4))
	require.NoError(t, err)
	assert.True(t, blocked)

	removed, err := store.Delete(ctx, d(4))
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = store.Delete(ctx, d(4))
	require.NoError(t, err)
	assert.False(t, removed)

	_, err = store.Get(ctx, d(4))
	assert.ErrorIs(t, err, blockedstore.ErrNotFound)
}

func TestSQLiteStore_ListByRange(t *testing.T) {
	ctx := context.Background()
	store := blockedstore.NewSQLiteStore(storagetest.Open(t))

	for _, day := range []int{20, 1, 8} {
		require.NoError(t, store.Insert(ctx, domain.BlockedDate{Date: d(day), Reason: "Closed", CreatedAt: time.Now()}))
	}

	all, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, d(1), all[0].Date)

	ranged, err := store.ListByRange(ctx, d(2), d(20))
	require.NoError(t, err)
	require.Len(t, ranged, 2)
	assert.Equal(t, d(8), ranged[0].Date)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.NoError(t, store.DeleteAll(ctx))
	n, _ = store.Count(ctx)
	assert.Zero(t, n)
}
