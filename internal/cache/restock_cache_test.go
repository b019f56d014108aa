package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/andresuchdata/stockeasy/internal/config"
	"github.com/andresuchdata/stockeasy/internal/restock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreviewKey(t *testing.T) {
	a := restock.DefaultSettings()
	b := restock.DefaultSettings()

	assert.Equal(t, PreviewKey(a), PreviewKey(b))
	assert.True(t, strings.HasPrefix(PreviewKey(a), previewKeyPrefix))

	b.MonthlyBudget++
	assert.NotEqual(t, PreviewKey(a), PreviewKey(b))
}

func TestNoopRestockCache(t *testing.T) {
	ctx := context.Background()
	c := NewNoopRestockCache()

	require.NoError(t, c.SetLastReport(ctx, nil))
	report, ok, err := c.GetLastReport(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, report)

	stats, ok, err := c.GetDashboard(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, stats)
	assert.NoError(t, c.InvalidateAll(ctx))
}

func TestBuildRedisOptions(t *testing.T) {
	opts, err := buildRedisOptions(config.CacheConfig{RedisPassword: "secret", RedisDB: 2})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:6379", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 2, opts.DB)

	opts, err = buildRedisOptions(config.CacheConfig{RedisURL: "redis://:pw@cache.local:6380/1"})
	require.NoError(t, err)
	assert.Equal(t, "cache.local:6380", opts.Addr)
	assert.Equal(t, 1, opts.DB)

	_, err = buildRedisOptions(config.CacheConfig{RedisURL: "http://nope"})
	assert.Error(t, err)
}

func TestCacheTTL(t *testing.T) {
	assert.Equal(t, defaultCacheTTL, TTL(config.CacheConfig{}))
	assert.Equal(t, 30*time.Second, TTL(config.CacheConfig{TTLSeconds: 30}))
}
