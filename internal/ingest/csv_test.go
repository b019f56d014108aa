package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/andresuchdata/stockeasy/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInventory(t *testing.T) {
	in := "\ufeffproduct_id,category,current_stock,avg_daily_sales,sale_price,sales_history\n" +
		"P001,Snacks,50,5.5,20,\n" +
		"P002,Drinks,12.0,3,15,1;2;3.5\n"

	records, err := ParseInventory(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, domain.InventoryRecord{
		ProductID:     "P001",
		Category:      "Snacks",
		CurrentStock:  50,
		AvgDailySales: 5.5,
	}, records[0])
	assert.Equal(t, int64(12), records[1].CurrentStock)
	assert.Equal(t, []float64{1, 2, 3.5}, records[1].SalesHistory)
}

func TestParseInventory_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"missing column", "product_id,category\nP1,x\n", "missing required column: current_stock"},
		{"empty id", "product_id,current_stock,avg_daily_sales\n,1,1\n", "line 2: empty product_id"},
		{"bad stock", "product_id,current_stock,avg_daily_sales\nP1,ten,1\n", "line 2: current_stock"},
		{"bad history", "product_id,current_stock,avg_daily_sales,sales_history\nP1,1,1,1;x\n", "line 2: sales_history"},
		{"empty input", "", "failed to read CSV header"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseInventory(strings.NewReader(tt.in))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseSupplierOffers(t *testing.T) {
	in := "product_id,category,supplier_cost,current_stock\n" +
		"P001,Snacks,9.505,120\n" +
		"P002,Drinks,14,-3\n"

	offers, err := ParseSupplierOffers(strings.NewReader(in), "SUP1")
	require.NoError(t, err)
	require.Len(t, offers, 2)

	assert.Equal(t, "SUP1", offers[0].SupplierID)
	assert.Equal(t, domain.Money(950), offers[0].UnitCost)
	assert.Equal(t, int64(120), offers[0].AvailableStock)
	assert.Equal(t, domain.FromUnits(14), offers[1].UnitCost)
	assert.Zero(t, offers[1].AvailableStock)
}

func TestParseSupplierOffers_SupplierColumn(t *testing.T) {
	in := "product_id,supplier_id,supplier_cost,current_stock\nP001,SUP2,10,5\n"

	offers, err := ParseSupplierOffers(strings.NewReader(in), "")
	require.NoError(t, err)
	require.Len(t, offers, 1)
	assert.Equal(t, "SUP2", offers[0].SupplierID)

	_, err = ParseSupplierOffers(strings.NewReader("product_id,supplier_cost,current_stock\n"), "")
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestParseSupplierOffers_NegativeCost(t *testing.T) {
	in := "product_id,supplier_cost,current_stock\nP001,-1,5\n"

	_, err := ParseSupplierOffers(strings.NewReader(in), "SUP1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2: supplier_cost")
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inventory.csv")
	require.NoError(t, os.WriteFile(path, []byte("product_id,current_stock,avg_daily_sales\nP1,3,1\n"), 0o644))

	records, err := NewFileSource(path).Snapshot(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 1)

	_, err = NewFileSource(filepath.Join(t.TempDir(), "missing.csv")).Snapshot(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}
