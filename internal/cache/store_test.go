package cache_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/hvacquote/internal/cache"
	"github.com/charlesng35/hvacquote/internal/database/testutil"
)

func exerciseStore(t *testing.T, store cache.Store) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "quotes")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.Set(ctx, "quotes", []byte(`[{"id":"q1"}]`)))
	value, ok, err := store.Get(ctx, "quotes")
	require.NoError(t, err)
	require.True(t, ok)
	require.JSONEq(t, `[{"id":"q1"}]`, string(value))

	require.NoError(t, store.Set(ctx, "quotes", []byte(`[]`)))
	value, _, err = store.Get(ctx, "quotes")
	require.NoError(t, err)
	require.JSONEq(t, `[]`, string(value))

	require.NoError(t, store.SetMany(ctx, map[string][]byte{
		"clients":  []byte(`[{"id":"c1","name":"Acme"}]`),
		"sites":    []byte(`[]`),
		"supplies": []byte(`[{"id":"s1"}]`),
	}))
	for _, key := range []string{"clients", "sites", "supplies"} {
		_, ok, err := store.Get(ctx, key)
		require.NoError(t, err)
		require.True(t, ok, key)
	}

	require.NoError(t, store.Delete(ctx, "quotes", "clients", "missing"))
	_, ok, err = store.Get(ctx, "quotes")
	require.NoError(t, err)
	require.False(t, ok)
	_, ok, err = store.Get(ctx, "sites")
	require.NoError(t, err)
	require.True(t, ok)

	if pinger, isPinger := store.(cache.Pinger); isPinger {
		require.NoError(t, pinger.Ping(ctx))
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, cache.NewMemoryStore())
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	store := cache.NewMemoryStore()
	value := []byte(`{"a":1}`)
	require.NoError(t, store.Set(context.Background(), "k", value))
	value[0] = 'X'

	stored, ok, err := store.Get(context.Background(), "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `{"a":1}`, string(stored))
	require.Equal(t, 1, store.Len())
}

func TestDatabaseStore(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	exerciseStore(t, cache.NewDatabaseStore(db))
}

func TestDatabaseStoreNil(t *testing.T) {
	require.Nil(t, cache.NewDatabaseStore(nil))

	var store *cache.DatabaseStore
	_, _, err := store.Get(context.Background(), "k")
	require.ErrorIs(t, err, cache.ErrStoreClosed)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("HVACQUOTE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("HVACQUOTE_TEST_REDIS_ADDR not set")
	}

	store, err := cache.NewRedisStore(context.Background(), cache.RedisConfig{
		Address:   addr,
		Timeout:   2 * time.Second,
		KeyPrefix: "hvacquote-test:" + t.Name() + ":",
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Delete(context.Background(), "quotes", "clients", "sites", "supplies")
		_ = store.Close()
	})

	exerciseStore(t, store)
}

func TestNewRedisStoreRequiresAddress(t *testing.T) {
	_, err := cache.NewRedisStore(context.Background(), cache.RedisConfig{})
	require.Error(t, err)
}
