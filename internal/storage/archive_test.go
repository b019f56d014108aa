package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/andresuchdata/stockeasy/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: map[string][]byte{}}
}

func (m *memoryStore) ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ObjectInfo
	for k, v := range m.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, ObjectInfo{Key: k, Size: int64(len(v))})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *memoryStore) GetObject(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return data, nil
}

func (m *memoryStore) PutObject(ctx context.Context, key string, data []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func TestReportArchiver_RoundTrip(t *testing.T) {
	ctx := context.Background()
	archiver := NewReportArchiver(newMemoryStore())
	started := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

	report := &domain.CycleReport{
		CycleID:       "2026-10-01T09:00:00.000000Z",
		Status:        domain.CycleExecuted,
		StartedAt:     started,
		TotalSpent:    domain.FromUnits(700),
		PrioritySpend: map[domain.Tier]domain.Money{domain.TierHigh: domain.FromUnits(700)},
		Decisions:     []domain.Decision{{ProductID: "p1", Tier: domain.TierHigh, TotalCost: domain.FromUnits(700)}},
	}

	key, err := archiver.Archive(ctx, report)
	require.NoError(t, err)
	assert.Equal(t, "restock/reports/2026/10/01/2026-10-01T09:00:00.000000Z.json", key)

	loaded, err := archiver.Load(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, report.CycleID, loaded.CycleID)
	assert.Equal(t, domain.FromUnits(700), loaded.PrioritySpend[domain.TierHigh])
	assert.Equal(t, domain.TierHigh, loaded.Decisions[0].Tier)

	_, err = archiver.Load(ctx, "missing")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestReportArchiver_KeysNewestFirst(t *testing.T) {
	ctx := context.Background()
	archiver := NewReportArchiver(newMemoryStore())

	for _, day := range []int{1, 3, 2} {
		_, err := archiver.Archive(ctx, &domain.CycleReport{
			CycleID:   "c" + string(rune('0'+day)),
			StartedAt: time.Date(2026, 10, day, 0, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
	}

	keys, err := archiver.Keys(ctx, "2026/10")
	require.NoError(t, err)
	require.Len(t, keys, 3)
	assert.True(t, strings.HasSuffix(keys[0], "c3.json"))
	assert.True(t, strings.HasSuffix(keys[2], "c1.json"))
}

func TestNormalizeEndpoint(t *testing.T) {
	tests := []struct {
		in         string
		useSSL     bool
		wantHost   string
		wantSecure bool
	}{
		{"https://s3.example.com/", false, "s3.example.com", true},
		{"http://localhost:9000", true, "localhost:9000", false},
		{"minio:9000", true, "minio:9000", true},
		{"//minio:9000", false, "minio:9000", false},
	}
	for _, tt := range tests {
		host, secure := normalizeEndpoint(tt.in, tt.useSSL)
		assert.Equal(t, tt.wantHost, host, tt.in)
		assert.Equal(t, tt.wantSecure, secure, tt.in)
	}
}

func TestNewMinioClient_Validation(t *testing.T) {
	_, err := NewMinioClient(Config{})
	assert.EqualError(t, err, "storage endpoint must be provided")
	_, err = NewMinioClient(Config{Endpoint: "x"})
	assert.EqualError(t, err, "storage credentials must be provided")
	_, err = NewMinioClient(Config{Endpoint: "x", AccessKey: "a", SecretKey: "b"})
	assert.EqualError(t, err, "storage bucket must be provided")
}
