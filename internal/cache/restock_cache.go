package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/andresuchdata/stockeasy/internal/domain"
	"github.com/andresuchdata/stockeasy/internal/restock"
	"github.com/redis/go-redis/v9"
)

const (
	restockKeyPrefix = "restock:"
	lastReportKey    = restockKeyPrefix + "report:last"
	previewKeyPrefix = restockKeyPrefix + "report:preview:"
	dashboardKey     = restockKeyPrefix + "dashboard"
	restockScanBatch = 100
)

// RestockCache caches cycle reports and dashboard stats. Misses are reported
// with ok=false and a nil error.
type RestockCache interface {
	GetLastReport(ctx context.Context) (*domain.CycleReport, bool, error)
	SetLastReport(ctx context.Context, report *domain.CycleReport) error
	GetPreview(ctx context.Context, settings restock.Settings) (*domain.CycleReport, bool, error)
	SetPreview(ctx context.Context, settings restock.Settings, report *domain.CycleReport) error
	GetDashboard(ctx context.Context) (*domain.DashboardStats, bool, error)
	SetDashboard(ctx context.Context, stats *domain.DashboardStats) error
	InvalidateAll(ctx context.Context) error
}

type redisRestockCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopRestockCache struct{}

// NewRestockCache returns a redis-backed cache. The last report is kept
// without expiry; previews and dashboard stats expire after ttl.
func NewRestockCache(client *redis.Client, ttl time.Duration) RestockCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &redisRestockCache{client: client, ttl: ttl}
}

func NewNoopRestockCache() RestockCache {
	return &noopRestockCache{}
}

func (c *redisRestockCache) GetLastReport(ctx context.Context) (*domain.CycleReport, bool, error) {
	var report domain.CycleReport
	ok, err := c.get(ctx, lastReportKey, &report)
	if !ok || err != nil {
		return nil, false, err
	}
	return &report, true, nil
}

func (c *redisRestockCache) SetLastReport(ctx context.Context, report *domain.CycleReport) error {
	return c.set(ctx, lastReportKey, report, 0)
}

func (c *redisRestockCache) GetPreview(ctx context.Context, settings restock.Settings) (*domain.CycleReport, bool, error) {
	var report domain.CycleReport
	ok, err := c.get(ctx, PreviewKey(settings), &report)
	if !ok || err != nil {
		return nil, false, err
	}
	return &report, true, nil
}

func (c *redisRestockCache) SetPreview(ctx context.Context, settings restock.Settings, report *domain.CycleReport) error {
	return c.set(ctx, PreviewKey(settings), report, c.ttl)
}

func (c *redisRestockCache) GetDashboard(ctx context.Context) (*domain.DashboardStats, bool, error) {
	var stats domain.DashboardStats
	ok, err := c.get(ctx, dashboardKey, &stats)
	if !ok || err != nil {
		return nil, false, err
	}
	return &stats, true, nil
}

func (c *redisRestockCache) SetDashboard(ctx context.Context, stats *domain.DashboardStats) error {
	return c.set(ctx, dashboardKey, stats, c.ttl)
}

// InvalidateAll drops previews and dashboard stats. The last report stays.
func (c *redisRestockCache) InvalidateAll(ctx context.Context) error {
	if err := deleteKeysWithPrefix(ctx, c.client, previewKeyPrefix, restockScanBatch); err != nil {
		return err
	}
	return c.client.Del(ctx, dashboardKey).Err()
}

func (c *redisRestockCache) get(ctx context.Context, key string, dst any) (bool, error) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get failed: %w", err)
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		return false, fmt.Errorf("decode %s cache: %w", key, err)
	}
	return true, nil
}

func (c *redisRestockCache) set(ctx context.Context, key string, value any, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s cache: %w", key, err)
	}
	if err := c.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (n *noopRestockCache) GetLastReport(ctx context.Context) (*domain.CycleReport, bool, error) {
	return nil, false, nil
}

func (n *noopRestockCache) SetLastReport(ctx context.Context, report *domain.CycleReport) error {
	return nil
}

func (n *noopRestockCache) GetPreview(ctx context.Context, settings restock.Settings) (*domain.CycleReport, bool, error) {
	return nil, false, nil
}

func (n *noopRestockCache) SetPreview(ctx context.Context, settings restock.Settings, report *domain.CycleReport) error {
	return nil
}

func (n *noopRestockCache) GetDashboard(ctx context.Context) (*domain.DashboardStats, bool, error) {
	return nil, false, nil
}

func (n *noopRestockCache) SetDashboard(ctx context.Context, stats *domain.DashboardStats) error {
	return nil
}

func (n *noopRestockCache) InvalidateAll(ctx context.Context) error {
	return nil
}

// PreviewKey hashes the settings so previews of different configs do not
// share an entry. Map fields marshal with sorted keys, so equal settings
// always hash the same.
func PreviewKey(settings restock.Settings) string {
	raw, err := json.Marshal(settings)
	if err != nil {
		return previewKeyPrefix + "default"
	}
	sum := sha1.Sum(raw)
	return previewKeyPrefix + hex.EncodeToString(sum[:])
}
