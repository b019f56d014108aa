// internal/repository/postgres/catalog_repository.go
package postgres

import (
	"context"
	"fmt"

	"github.com/andresuchdata/stockeasy/internal/domain"
	"github.com/andresuchdata/stockeasy/internal/repository"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type catalogRepository struct {
	db *DB
}

func NewCatalogRepository(db *DB) repository.CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) Offers(ctx context.Context, productID string, supplierIDs []string) ([]domain.SupplierOffer, error) {
	if len(supplierIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT supplier_id, product_id, unit_cost, available_stock, updated_at
		FROM supplier_inventory
		WHERE product_id = $1
		  AND supplier_id = ANY($2::text[])
		ORDER BY unit_cost ASC, supplier_id ASC
	`

	var offers []domain.SupplierOffer
	if err := r.db.SelectContext(ctx, &offers, query, productID, pq.Array(supplierIDs)); err != nil {
		return nil, fmt.Errorf("error querying offers for %s: %w", productID, err)
	}
	return offers, nil
}

func (r *catalogRepository) ReplaceOffers(ctx context.Context, supplierID string, offers []domain.SupplierOffer) error {
	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM supplier_inventory WHERE supplier_id = $1`, supplierID); err != nil {
			return fmt.Errorf("failed to clear offers for %s: %w", supplierID, err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO supplier_inventory (supplier_id, product_id, unit_cost, available_stock, updated_at)
			VALUES ($1, $2, $3, $4, NOW())
			ON CONFLICT (supplier_id, product_id) DO UPDATE SET
				unit_cost = EXCLUDED.unit_cost,
				available_stock = EXCLUDED.available_stock,
				updated_at = NOW()
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, o := range offers {
			if _, err := stmt.ExecContext(ctx, supplierID, o.ProductID, int64(o.UnitCost), o.AvailableStock); err != nil {
				return fmt.Errorf("failed to insert offer %s/%s: %w", supplierID, o.ProductID, err)
			}
		}
		return nil
	})
}

// ReserveStock decrements available stock only if enough is still there.
func (r *catalogRepository) ReserveStock(ctx context.Context, productID, supplierID string, qty int64) error {
	query := `
		UPDATE supplier_inventory
		SET available_stock = available_stock - $3,
			updated_at = NOW()
		WHERE product_id = $1
		  AND supplier_id = $2
		  AND available_stock >= $3
		  AND $3 > 0
	`

	res, err := r.db.ExecContext(ctx, query, productID, supplierID, qty)
	if err != nil {
		return fmt.Errorf("failed to reserve stock: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to reserve stock: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s from %s", repository.ErrInsufficientStock, productID, supplierID)
	}
	return nil
}

func (r *catalogRepository) ReleaseStock(ctx context.Context, productID, supplierID string, qty int64) error {
	query := `
		UPDATE supplier_inventory
		SET available_stock = available_stock + $3,
			updated_at = NOW()
		WHERE product_id = $1 AND supplier_id = $2
	`

	res, err := r.db.ExecContext(ctx, query, productID, supplierID, qty)
	if err != nil {
		return fmt.Errorf("failed to release stock: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: no offer %s from %s", repository.ErrNotFound, productID, supplierID)
	}
	return nil
}
