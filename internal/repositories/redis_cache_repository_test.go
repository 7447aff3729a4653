package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniredisCache(t *testing.T) (CacheRepositoryInterface, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCacheRepository(client), mr
}

func TestRedisCacheRepository(t *testing.T) {
	ctx := context.Background()
	cache, mr := newMiniredisCache(t)

	_, err := cache.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, cache.Set(ctx, "k", "v", time.Minute))
	val, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", val)

	mr.FastForward(2 * time.Minute)
	_, err = cache.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss, "ключ истёк по TTL")

	gen, err := cache.GetInt(ctx, "gen")
	require.NoError(t, err)
	assert.Equal(t, int64(0), gen)

	gen, err = cache.Incr(ctx, "gen")
	require.NoError(t, err)
	assert.Equal(t, int64(1), gen)
	gen, err = cache.GetInt(ctx, "gen")
	require.NoError(t, err)
	assert.Equal(t, int64(1), gen)

	require.NoError(t, cache.Set(ctx, "a", "1", 0))
	require.NoError(t, cache.Del(ctx, "a", "nope"))
	assert.False(t, mr.Exists("a"))
	assert.NoError(t, cache.Del(ctx))
}
