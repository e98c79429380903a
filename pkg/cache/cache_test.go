package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() LocalConfig {
	return LocalConfig{
		MaxSize:           2,
		DefaultExpiration: 5 * time.Minute,
		CleanupInterval:   10 * time.Minute,
	}
}

func exerciseCache(t *testing.T, c Cache) {
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "summary:abc", "hello", time.Minute))
	v, ok := c.Get(ctx, "summary:abc")
	require.True(t, ok)
	assert.Equal(t, "hello", v)

	set, err := c.SetNX(ctx, "idem:1", true, time.Minute)
	require.NoError(t, err)
	assert.True(t, set)
	set, err = c.SetNX(ctx, "idem:1", true, time.Minute)
	require.NoError(t, err)
	assert.False(t, set)

	require.NoError(t, c.Delete(ctx, "idem:1"))
	assert.False(t, c.Exists(ctx, "idem:1"))

	require.NoError(t, c.Clear(ctx))
	assert.False(t, c.Exists(ctx, "summary:abc"))
}

func TestLocalCache(t *testing.T) {
	c := NewLocalCache(testConfig())
	defer c.Close()
	exerciseCache(t, c)
}

func TestGoCache(t *testing.T) {
	c := NewGoCache(testConfig())
	defer c.Close()
	exerciseCache(t, c)
}

func TestLocalCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLocalCache(testConfig())
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", 1, 0))
	require.NoError(t, c.Set(ctx, "b", 2, 0))
	_, _ = c.Get(ctx, "a")
	require.NoError(t, c.Set(ctx, "c", 3, 0))

	assert.True(t, c.Exists(ctx, "a"))
	assert.False(t, c.Exists(ctx, "b"))
	assert.True(t, c.Exists(ctx, "c"))
}

func TestLocalCacheHonoursPerItemExpiration(t *testing.T) {
	c := NewLocalCache(testConfig())
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "short", "x", 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)
	_, ok := c.Get(ctx, "short")
	assert.False(t, ok)

	set, err := c.SetNX(ctx, "short", "y", time.Minute)
	require.NoError(t, err)
	assert.True(t, set)
}

func TestLayeredCacheBackfillsLocal(t *testing.T) {
	ctx := context.Background()
	local := NewLocalCache(testConfig())
	remote := NewGoCache(testConfig())
	c := NewLayeredCache(local, remote, nil)

	require.NoError(t, remote.Set(ctx, "k", "v", time.Minute))
	v, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "v", v)
	assert.True(t, local.Exists(ctx, "k"))

	set, err := c.SetNX(ctx, "k", "other", time.Minute)
	require.NoError(t, err)
	assert.False(t, set)
}

func TestNewCacheRejectsUnknownType(t *testing.T) {
	_, err := NewCache(Config{Type: "memcached"})
	assert.Error(t, err)
}
