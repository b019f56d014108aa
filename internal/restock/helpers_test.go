package restock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/andresuchdata/stockeasy/internal/domain"
	"github.com/stretchr/testify/require"
)

type staticInventory struct {
	records []domain.InventoryRecord
	err     error
	calls   int
	mu      sync.Mutex
	// block, when set, is waited on before returning.
	block chan struct{}
}

func (s *staticInventory) Snapshot(ctx context.Context) ([]domain.InventoryRecord, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.block != nil {
		<-s.block
	}
	if s.err != nil {
		return nil, s.err
	}
	return append([]domain.InventoryRecord(nil), s.records...), nil
}

// demandForecaster returns the demand configured per product.
type demandForecaster struct {
	demand map[string]int64
	err    error
}

func (f demandForecaster) Forecast(ctx context.Context, records []domain.InventoryRecord) ([]int64, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]int64, len(records))
	for i, r := range records {
		out[i] = f.demand[r.ProductID]
	}
	return out, nil
}

type staticCatalog struct {
	offers map[string][]domain.SupplierOffer
	err    error
}

func (c staticCatalog) Offers(ctx context.Context, productID string, supplierIDs []string) ([]domain.SupplierOffer, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.offers[productID], nil
}

var errBoom = errors.New("boom")

var baseTime = time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func singleSupplierSettings(monthly int64) Settings {
	s := DefaultSettings()
	s.MonthlyBudget = monthly
	s.SupplierBudgetSplit = map[string]float64{"SUP1": 1.0}
	s.SupplierAddressMap = map[string]string{"SUP1": "0x1111111111111111111111111111111111111111"}
	return s
}

func mustConfig(t *testing.T, s Settings) EngineConfig {
	t.Helper()
	cfg, err := NewEngineConfig(s)
	require.NoError(t, err)
	return cfg
}

func offer(supplier, product string, unitCost int64, available int64) domain.SupplierOffer {
	return domain.SupplierOffer{
		SupplierID:     supplier,
		ProductID:      product,
		UnitCost:       domain.FromUnits(unitCost),
		AvailableStock: available,
	}
}
