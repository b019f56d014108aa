package ingest

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func workbook(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestXLSXToCSV(t *testing.T) {
	buf := workbook(t, [][]any{
		{"product_id", "category", "current_stock", "avg_daily_sales"},
		{"p1", "snacks", 50, 5},
		{"p2", "dairy", 3, 1.5},
	})

	data, err := XLSXToCSV(buf)
	require.NoError(t, err)
	assert.Equal(t, "product_id,category,current_stock,avg_daily_sales\np1,snacks,50,5\np2,dairy,3,1.5\n", string(data))
}

func TestAsCSV_WorkbookFeedsParser(t *testing.T) {
	buf := workbook(t, [][]any{
		{"product_id", "current_stock", "avg_daily_sales"},
		{"p1", 50, 5},
	})

	r, err := AsCSV("Inventory.XLSX", buf)
	require.NoError(t, err)
	records, err := ParseInventory(r)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(50), records[0].CurrentStock)
}

func TestAsCSV_PassesCSVThrough(t *testing.T) {
	src := strings.NewReader("product_id,current_stock,avg_daily_sales\np1,1,1\n")
	r, err := AsCSV("inventory.csv", src)
	require.NoError(t, err)
	assert.Same(t, src, r)
}

func TestXLSXToCSV_NotAWorkbook(t *testing.T) {
	_, err := XLSXToCSV(strings.NewReader("not a zip"))
	assert.Error(t, err)
}
