package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/slotx-reports/internal/config"
)

func TestBuildRedisOptions(t *testing.T) {
	opts, err := buildRedisOptions(config.CacheConfig{})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:6379", opts.Addr)

	opts, err = buildRedisOptions(config.CacheConfig{RedisHost: "cache", RedisPort: "6380", RedisPassword: "pw", RedisDB: 2})
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, "pw", opts.Password)
	assert.Equal(t, 2, opts.DB)

	opts, err = buildRedisOptions(config.CacheConfig{RedisURL: "redis://:secret@redis.internal:6390/3", RedisHost: "ignored"})
	require.NoError(t, err)
	assert.Equal(t, "redis.internal:6390", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 3, opts.DB)

	_, err = buildRedisOptions(config.CacheConfig{RedisURL: "http://nope"})
	assert.Error(t, err)
}

func TestNewArchiveCache_Disabled(t *testing.T) {
	c, err := NewArchiveCache(config.CacheConfig{Enabled: false})
	require.NoError(t, err)
	assert.False(t, c.Enabled())

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, &ArchiveEntry{ID: "x"}))
	entry, ok, err := c.Get(ctx, "x")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, entry)

	purged, err := c.InvalidateAll(ctx)
	require.NoError(t, err)
	assert.Zero(t, purged)
}

func TestArchiveKey(t *testing.T) {
	assert.Equal(t, "reports:archive:0b6f", archiveKey("0b6f"))
}
