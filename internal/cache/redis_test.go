// SPDX-License-Identifier: MIT

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMiniRedis(t *testing.T) (*miniredis.Miniredis, *RedisCache) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := newRedisCache(client, "", zerolog.Nop())
	t.Cleanup(func() { _ = c.Close() })
	return mr, c
}

func TestRedisCache_SetGet(t *testing.T) {
	ctx := context.Background()
	mr, c := setupMiniRedis(t)

	c.Set(ctx, "https://example.com/m8.json", []byte(`{"serviceList":[]}`), 5*time.Minute)

	val, found := c.Get(ctx, "https://example.com/m8.json")
	require.True(t, found)
	assert.Equal(t, `{"serviceList":[]}`, string(val))
	assert.True(t, mr.Exists(DefaultKeyPrefix+"https://example.com/m8.json"))

	_, found = c.Get(ctx, "missing")
	assert.False(t, found)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.Sets)
	assert.Equal(t, 1, stats.CurrentSize)
}

func TestRedisCache_Expiration(t *testing.T) {
	ctx := context.Background()
	mr, c := setupMiniRedis(t)

	c.Set(ctx, "k", []byte("v"), time.Second)
	mr.FastForward(2 * time.Second)

	_, found := c.Get(ctx, "k")
	assert.False(t, found)
}

func TestRedisCache_ClearKeepsForeignKeys(t *testing.T) {
	ctx := context.Background()
	mr, c := setupMiniRedis(t)

	require.NoError(t, mr.Set("other:key", "keep"))
	c.Set(ctx, "a", []byte("1"), time.Minute)
	c.Set(ctx, "b", []byte("2"), time.Minute)

	c.Clear(ctx)

	assert.Equal(t, 0, c.Stats().CurrentSize)
	assert.True(t, mr.Exists("other:key"))
}

func TestRedisCache_Delete(t *testing.T) {
	ctx := context.Background()
	_, c := setupMiniRedis(t)

	c.Set(ctx, "k", []byte("v"), time.Minute)
	c.Delete(ctx, "k")
	_, found := c.Get(ctx, "k")
	assert.False(t, found)
}

func TestRedisCache_HealthCheck(t *testing.T) {
	mr, c := setupMiniRedis(t)
	require.NoError(t, c.HealthCheck(context.Background()))

	mr.Close()
	assert.Error(t, c.HealthCheck(context.Background()))
}

func TestNewRedisCache_ConnectionFailure(t *testing.T) {
	_, err := NewRedisCache(context.Background(), RedisConfig{Addr: "127.0.0.1:1"}, zerolog.Nop())
	assert.Error(t, err)
}
