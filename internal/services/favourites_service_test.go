package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liamwears/cinedex/internal/database"
)

func TestFavouritesStore(t *testing.T) {
	ctx := context.Background()
	store := NewFavouritesStore(database.NewMemoryKV())
	visitor := uuid.New()

	ok, err := store.Contains(ctx, visitor, "550")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Add(ctx, visitor, "550"))
	require.NoError(t, store.Add(ctx, visitor, "550"))
	require.NoError(t, store.Add(ctx, visitor, "13"))

	count, err := store.Count(ctx, visitor)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	ok, err = store.Contains(ctx, visitor, "550")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, store.Remove(ctx, visitor, "550"))
	require.NoError(t, store.Remove(ctx, visitor, "550"))

	ids, total, err := store.List(ctx, visitor, 0, 8)
	require.NoError(t, err)
	assert.Equal(t, []string{"13"}, ids)
	assert.Equal(t, 1, total)

	assert.Error(t, store.Add(ctx, visitor, "  "))
}

func TestFavouritesStore_VisitorsAreIsolated(t *testing.T) {
	ctx := context.Background()
	store := NewFavouritesStore(database.NewMemoryKV())
	alice, bob := uuid.New(), uuid.New()

	require.NoError(t, store.Add(ctx, alice, "550"))

	count, err := store.Count(ctx, bob)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestFavouritesStore_List(t *testing.T) {
	ctx := context.Background()
	store := NewFavouritesStore(database.NewMemoryKV())
	visitor := uuid.New()

	for _, id := range []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10"} {
		require.NoError(t, store.Add(ctx, visitor, id))
	}

	tests := []struct {
		name   string
		offset int
		limit  int
		want   []string
	}{
		{"first page", 0, 8, []string{"1", "2", "3", "4", "5", "6", "7", "8"}},
		{"second page", 8, 8, []string{"9", "10"}},
		{"past the end", 16, 8, []string{}},
		{"negative offset", -3, 2, []string{"1", "2"}},
		{"zero limit", 0, 0, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids, total, err := store.List(ctx, visitor, tt.offset, tt.limit)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids)
			assert.Equal(t, 10, total)
		})
	}
}

func TestFavouritesStore_Malformed(t *testing.T) {
	ctx := context.Background()
	kv := database.NewMemoryKV()
	store := NewFavouritesStore(kv)
	visitor := uuid.New()

	require.NoError(t, kv.Set(ctx, favouritesKey(visitor), "{not json"))

	_, err := store.Contains(ctx, visitor, "550")
	assert.ErrorIs(t, err, ErrMalformedFavourites)
	assert.ErrorIs(t, store.Add(ctx, visitor, "550"), ErrMalformedFavourites)

	require.NoError(t, store.Clear(ctx, visitor))
	require.NoError(t, store.Add(ctx, visitor, "550"))

	raw, ok, err := kv.Get(ctx, favouritesKey(visitor))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `["550"]`, raw)
}
