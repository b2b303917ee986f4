package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/swipe-server/internal/cache"
	"github.com/oggyb/swipe-server/internal/config"
)

func setupCache(t *testing.T) (*cache.RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()

	c := cache.NewRedisCache(cfg)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestLikeCount_MissSetHitInvalidate(t *testing.T) {
	ctx := context.Background()
	c, mr := setupCache(t)

	_, ok, err := c.GetLikeCount(ctx, 7)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.SetLikeCount(ctx, 7, 3))
	n, ok, err := c.GetLikeCount(ctx, 7)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(3), n)
	assert.Equal(t, time.Hour, mr.TTL(c.KeyForLikeCount(7)))

	require.NoError(t, c.InvalidateLikeCount(ctx, 7, 8))
	_, ok, err = c.GetLikeCount(ctx, 7)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHitOnce(t *testing.T) {
	ctx := context.Background()
	c, mr := setupCache(t)

	key := c.KeyForVisit(1, 2, "2024-05-01")

	first, err := c.HitOnce(ctx, key, 24*time.Hour)
	require.NoError(t, err)
	assert.True(t, first)

	again, err := c.HitOnce(ctx, key, 24*time.Hour)
	require.NoError(t, err)
	assert.False(t, again)

	mr.FastForward(25 * time.Hour)

	afterExpiry, err := c.HitOnce(ctx, key, 24*time.Hour)
	require.NoError(t, err)
	assert.True(t, afterExpiry)
}

func TestPresence(t *testing.T) {
	ctx := context.Background()
	c, _ := setupCache(t)

	online, err := c.IsOnline(ctx, 5)
	require.NoError(t, err)
	assert.False(t, online)

	require.NoError(t, c.SetOnline(ctx, 5))
	online, err = c.IsOnline(ctx, 5)
	require.NoError(t, err)
	assert.True(t, online)

	require.NoError(t, c.SetOffline(ctx, 5))
	online, err = c.IsOnline(ctx, 5)
	require.NoError(t, err)
	assert.False(t, online)
}
