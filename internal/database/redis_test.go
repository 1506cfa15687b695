package database

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*RedisClient, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewRedisClient(RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestRedisKV(t *testing.T) {
	client, mr := newTestRedis(t)
	kv := NewRedisKV(client, "cinedex:")
	ctx := context.Background()

	_, ok, err := kv.Get(ctx, "favourites:a")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.Set(ctx, "favourites:a", `["603"]`))
	val, ok, err := kv.Get(ctx, "favourites:a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `["603"]`, val)
	assert.True(t, mr.Exists("cinedex:favourites:a"))

	require.NoError(t, kv.Delete(ctx, "favourites:a"))
	_, ok, err = kv.Get(ctx, "favourites:a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryKV(t *testing.T) {
	kv := NewMemoryKV()
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "k", "v"))
	val, ok, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", val)

	require.NoError(t, kv.Delete(ctx, "k"))
	_, ok, _ = kv.Get(ctx, "k")
	assert.False(t, ok)
}

func TestVisitorStore(t *testing.T) {
	client, mr := newTestRedis(t)
	store := NewVisitorStore(client, time.Hour)
	ctx := context.Background()

	sessionID, visitorID, err := store.Create(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, visitorID)

	got, err := store.Get(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, visitorID, got)

	mr.FastForward(59 * time.Minute)
	_, err = store.Get(ctx, sessionID)
	require.NoError(t, err, "lookup refreshes the TTL")
	mr.FastForward(59 * time.Minute)
	_, err = store.Get(ctx, sessionID)
	require.NoError(t, err)

	mr.FastForward(2 * time.Hour)
	_, err = store.Get(ctx, sessionID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestVisitorStore_Delete(t *testing.T) {
	client, _ := newTestRedis(t)
	store := NewVisitorStore(client, 0)
	ctx := context.Background()

	assert.Equal(t, 30*24*time.Hour, store.TTL())

	sessionID, _, err := store.Create(ctx)
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, sessionID))

	_, err = store.Get(ctx, sessionID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestVisitorStore_CorruptSession(t *testing.T) {
	client, mr := newTestRedis(t)
	store := NewVisitorStore(client, time.Hour)

	require.NoError(t, mr.Set("session:abc", "not-a-uuid"))

	_, err := store.Get(context.Background(), "abc")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.False(t, mr.Exists("session:abc"))
}

func TestVisitorStore_LookupError(t *testing.T) {
	client, mr := newTestRedis(t)
	store := NewVisitorStore(client, time.Hour)

	// GET on a hash fails with WRONGTYPE
	mr.HSet("session:abc", "visitor", uuid.NewString())

	_, err := store.Get(context.Background(), "abc")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSessionNotFound)
}

func TestMigrations(t *testing.T) {
	migrations, err := Migrations()
	require.NoError(t, err)
	require.NotEmpty(t, migrations)

	first := migrations[0]
	assert.Equal(t, "001", first.Version)
	assert.Equal(t, "001_create_kv_store.up.sql", first.UpFile)
	assert.Equal(t, "001_create_kv_store.down.sql", first.DownFile)
}
