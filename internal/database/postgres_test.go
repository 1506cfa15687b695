package database

import (
	"context"
	"io"
	"log"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestDB connects to a throwaway database. The migration tests drop
// kv_store, so this never reads DATABASE_URL.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := New(ctx, Config{URL: url, ConnectAttempts: 1}, log.New(io.Discard, "", 0))
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, db.Migrator().Up(ctx))
	return db
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{URL: "postgres://localhost/cinedex", MaxConns: 4}.withDefaults()

	assert.Equal(t, int32(4), cfg.MaxConns)
	assert.Equal(t, int32(1), cfg.MinConns)
	assert.Equal(t, time.Hour, cfg.MaxConnLifetime)
	assert.Equal(t, uint(5), cfg.ConnectAttempts)
}

func TestNew_InvalidURL(t *testing.T) {
	_, err := New(context.Background(), Config{URL: "://nope"}, log.New(io.Discard, "", 0))
	assert.ErrorContains(t, err, "parse database URL")
}

func TestPostgresKV(t *testing.T) {
	db := newTestDB(t)
	kv := db.KV()
	ctx := context.Background()

	key := "favourites:" + uuid.NewString()
	t.Cleanup(func() { kv.Delete(context.Background(), key) })

	tests := []struct {
		name    string
		op      func() error
		want    string
		present bool
	}{
		{"missing key", func() error { return nil }, "", false},
		{"insert", func() error { return kv.Set(ctx, key, `["550"]`) }, `["550"]`, true},
		{"upsert", func() error { return kv.Set(ctx, key, `["550","603"]`) }, `["550","603"]`, true},
		{"delete", func() error { return kv.Delete(ctx, key) }, "", false},
		{"delete twice", func() error { return kv.Delete(ctx, key) }, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tt.op())

			value, ok, err := kv.Get(ctx, key)
			require.NoError(t, err)
			assert.Equal(t, tt.present, ok)
			assert.Equal(t, tt.want, value)
		})
	}
}

func TestMigrator_UpDown(t *testing.T) {
	db := newTestDB(t)
	migrator := db.Migrator()
	ctx := context.Background()

	tableExists := func() bool {
		var exists bool
		err := db.QueryRow(ctx, `SELECT to_regclass('kv_store') IS NOT NULL`).Scan(&exists)
		require.NoError(t, err)
		return exists
	}

	require.True(t, tableExists())
	require.NoError(t, migrator.Up(ctx), "applying twice is a no-op")

	require.NoError(t, migrator.Down(ctx))
	assert.False(t, tableExists())

	require.NoError(t, migrator.Up(ctx))
	assert.True(t, tableExists())
}
