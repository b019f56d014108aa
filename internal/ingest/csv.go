// Package ingest parses owner inventory and supplier catalog exports.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/andresuchdata/stockeasy/internal/domain"
)

// ErrMissingColumn is returned when a required header is absent.
var ErrMissingColumn = errors.New("missing required column")

const historySeparator = ";"

type row struct {
	line   int
	record []string
	cols   map[string]int
}

func (r row) value(col string) string {
	if idx, ok := r.cols[col]; ok && idx < len(r.record) {
		return strings.TrimSpace(r.record[idx])
	}
	return ""
}

func (r row) float(col string) (float64, error) {
	val := r.value(col)
	if val == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("line %d: %s: %w", r.line, col, err)
	}
	return f, nil
}

// int accepts float strings like "12.0", as spreadsheet exports produce them.
func (r row) int(col string) (int64, error) {
	f, err := r.float(col)
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}

func (r row) history(col string) ([]float64, error) {
	val := r.value(col)
	if val == "" {
		return nil, nil
	}
	parts := strings.Split(val, historySeparator)
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %s: %w", r.line, col, err)
		}
		out = append(out, f)
	}
	return out, nil
}

// readRows reads the header, checks required columns and calls fn per row.
func readRows(r io.Reader, required []string, fn func(row) error) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read CSV header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, col := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")))] = i
	}
	for _, col := range required {
		if _, ok := cols[col]; !ok {
			return fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}

	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		line++
		if err != nil {
			return fmt.Errorf("failed to read CSV record: %w", err)
		}
		if err := fn(row{line: line, record: record, cols: cols}); err != nil {
			return err
		}
	}
}

// ParseInventory reads an owner inventory export. Columns: product_id,
// category, current_stock, avg_daily_sales and an optional sales_history of
// ';'-separated daily unit sales, oldest first.
func ParseInventory(r io.Reader) ([]domain.InventoryRecord, error) {
	var out []domain.InventoryRecord
	err := readRows(r, []string{"product_id", "current_stock", "avg_daily_sales"}, func(rw row) error {
		id := rw.value("product_id")
		if id == "" {
			return fmt.Errorf("line %d: empty product_id", rw.line)
		}
		stock, err := rw.int("current_stock")
		if err != nil {
			return err
		}
		avg, err := rw.float("avg_daily_sales")
		if err != nil {
			return err
		}
		history, err := rw.history("sales_history")
		if err != nil {
			return err
		}
		out = append(out, domain.InventoryRecord{
			ProductID:     id,
			Category:      rw.value("category"),
			CurrentStock:  stock,
			AvgDailySales: avg,
			SalesHistory:  history,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ParseSupplierOffers reads a supplier catalog export. The supplier's
// current_stock column becomes the offer's available stock. When supplierID
// is empty the supplier_id column is used instead.
func ParseSupplierOffers(r io.Reader, supplierID string) ([]domain.SupplierOffer, error) {
	required := []string{"product_id", "supplier_cost", "current_stock"}
	if supplierID == "" {
		required = append(required, "supplier_id")
	}

	var out []domain.SupplierOffer
	err := readRows(r, required, func(rw row) error {
		id := rw.value("product_id")
		if id == "" {
			return fmt.Errorf("line %d: empty product_id", rw.line)
		}
		supplier := supplierID
		if supplier == "" {
			supplier = rw.value("supplier_id")
		}
		cost, err := domain.ParseMoney(rw.value("supplier_cost"))
		if err != nil {
			return fmt.Errorf("line %d: supplier_cost: %w", rw.line, err)
		}
		available, err := rw.int("current_stock")
		if err != nil {
			return err
		}
		if available < 0 {
			available = 0
		}
		out = append(out, domain.SupplierOffer{
			SupplierID:     supplier,
			ProductID:      id,
			UnitCost:       cost,
			AvailableStock: available,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
