package kv

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a miniredis server and returns a RedisStore instance
func setupTestRedis(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis, func()) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	store := NewRedisStore(client, "cart", ttl)

	cleanup := func() {
		client.Close()
		mr.Close()
	}

	return store, mr, cleanup
}

func TestRedisGet_Success(t *testing.T) {
	store, mr, cleanup := setupTestRedis(t, 0)
	defer cleanup()

	require.NoError(t, mr.Set("cart:session-1", `{"lines":[]}`))

	data, err := store.Get(context.Background(), "session-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"lines":[]}`, string(data))
}

func TestRedisGet_Miss(t *testing.T) {
	store, _, cleanup := setupTestRedis(t, 0)
	defer cleanup()

	data, err := store.Get(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrKeyNotFound)
	assert.Nil(t, data)
}

func TestRedisSet_NoTTL(t *testing.T) {
	store, mr, cleanup := setupTestRedis(t, 0)
	defer cleanup()

	require.NoError(t, store.Set(context.Background(), "session-2", []byte("blob")))

	stored, err := mr.Get("cart:session-2")
	require.NoError(t, err)
	assert.Equal(t, "blob", stored)
	assert.Equal(t, time.Duration(0), mr.TTL("cart:session-2"))
}

func TestRedisSet_WithTTL(t *testing.T) {
	store, mr, cleanup := setupTestRedis(t, 15*time.Minute)
	defer cleanup()

	require.NoError(t, store.Set(context.Background(), "session-3", []byte("blob")))

	ttl := mr.TTL("cart:session-3")
	assert.True(t, ttl >= 15*time.Minute, "TTL should be at least base TTL")
	assert.True(t, ttl <= 20*time.Minute, "TTL should be base + max jitter")
}

func TestRedisDelete(t *testing.T) {
	store, mr, cleanup := setupTestRedis(t, 0)
	defer cleanup()

	require.NoError(t, mr.Set("cart:session-4", "blob"))
	require.NoError(t, store.Delete(context.Background(), "session-4"))
	assert.False(t, mr.Exists("cart:session-4"))

	// Deleting a missing key is not an error.
	assert.NoError(t, store.Delete(context.Background(), "session-4"))
}

func TestRedisStore_ServerDown(t *testing.T) {
	store, mr, cleanup := setupTestRedis(t, 0)
	defer cleanup()
	mr.Close()

	_, err := store.Get(context.Background(), "session-5")
	require.ErrorContains(t, err, "redis get failed")
	assert.NotErrorIs(t, err, ErrKeyNotFound)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Get(ctx, "k")
	require.ErrorIs(t, err, ErrKeyNotFound)

	value := []byte("v1")
	require.NoError(t, store.Set(ctx, "k", value))
	value[0] = 'x'

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v1", string(got))

	require.NoError(t, store.Delete(ctx, "k"))
	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}
