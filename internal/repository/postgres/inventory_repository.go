// internal/repository/postgres/inventory_repository.go
package postgres

import (
	"context"
	"fmt"

	"github.com/andresuchdata/stockeasy/internal/domain"
	"github.com/andresuchdata/stockeasy/internal/repository"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type inventoryRow struct {
	ProductID     string          `db:"product_id"`
	Category      string          `db:"category"`
	CurrentStock  int64           `db:"current_stock"`
	AvgDailySales float64         `db:"avg_daily_sales"`
	SalesHistory  pq.Float64Array `db:"sales_history"`
}

type inventoryRepository struct {
	db *DB
}

func NewInventoryRepository(db *DB) repository.InventoryRepository {
	return &inventoryRepository{db: db}
}

func (r *inventoryRepository) Snapshot(ctx context.Context) ([]domain.InventoryRecord, error) {
	query := `
		SELECT product_id, category, current_stock, avg_daily_sales, sales_history
		FROM owner_inventory
		ORDER BY product_id
	`

	var rows []inventoryRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("error loading inventory snapshot: %w", err)
	}

	records := make([]domain.InventoryRecord, len(rows))
	for i, row := range rows {
		records[i] = domain.InventoryRecord{
			ProductID:     row.ProductID,
			Category:      row.Category,
			CurrentStock:  row.CurrentStock,
			AvgDailySales: row.AvgDailySales,
			SalesHistory:  []float64(row.SalesHistory),
		}
	}
	return records, nil
}

func (r *inventoryRepository) ReplaceInventory(ctx context.Context, records []domain.InventoryRecord) error {
	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM owner_inventory`); err != nil {
			return fmt.Errorf("failed to clear inventory: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO owner_inventory (product_id, category, current_stock, avg_daily_sales, sales_history, updated_at)
			VALUES ($1, $2, $3, $4, $5, NOW())
			ON CONFLICT (product_id) DO UPDATE SET
				category = EXCLUDED.category,
				current_stock = EXCLUDED.current_stock,
				avg_daily_sales = EXCLUDED.avg_daily_sales,
				sales_history = EXCLUDED.sales_history,
				updated_at = NOW()
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, rec := range records {
			history := rec.SalesHistory
			if history == nil {
				history = []float64{}
			}
			if _, err := stmt.ExecContext(ctx,
				rec.ProductID,
				rec.Category,
				rec.CurrentStock,
				rec.AvgDailySales,
				pq.Array(history),
			); err != nil {
				return fmt.Errorf("failed to insert inventory row %s: %w", rec.ProductID, err)
			}
		}
		return nil
	})
}
