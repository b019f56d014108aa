// internal/repository/postgres/cycle_repository.go
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/andresuchdata/stockeasy/internal/domain"
	"github.com/andresuchdata/stockeasy/internal/repository"
	"github.com/jmoiron/sqlx"
)

type cycleRepository struct {
	db *DB
}

func NewCycleRepository(db *DB) repository.CycleRepository {
	return &cycleRepository{db: db}
}

// SaveReport stores the report and one row per decision in one transaction.
func (r *cycleRepository) SaveReport(ctx context.Context, report *domain.CycleReport) error {
	raw, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("error encoding report: %w", err)
	}

	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO restock_cycles (cycle_id, status, reason, started_at, decisions, total_spent, report)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`,
			report.CycleID,
			string(report.Status),
			report.Reason,
			report.StartedAt,
			len(report.Decisions),
			int64(report.TotalSpent),
			raw,
		)
		if err != nil {
			return fmt.Errorf("failed to insert cycle %s: %w", report.CycleID, err)
		}

		if len(report.Decisions) == 0 {
			return nil
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO restock_decisions (
				cycle_id, position, product_id, supplier_id, tier, quantity,
				unit_cost, total_cost, intent_id, amount_wei, valid_until
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for i, d := range report.Decisions {
			if _, err := stmt.ExecContext(ctx,
				report.CycleID,
				i,
				d.ProductID,
				d.SupplierID,
				d.Tier.String(),
				d.Quantity,
				int64(d.UnitCost),
				int64(d.TotalCost),
				d.PaymentIntent.IntentID,
				d.PaymentIntent.Amount.String(),
				d.PaymentIntent.ValidUntil,
			); err != nil {
				return fmt.Errorf("failed to insert decision %s: %w", d.ProductID, err)
			}
		}
		return nil
	})
}

func (r *cycleRepository) LastRestock(ctx context.Context) (*domain.CycleReport, error) {
	query := `
		SELECT report
		FROM restock_cycles
		WHERE status = $1 AND decisions > 0
		ORDER BY started_at DESC
		LIMIT 1
	`

	var raw []byte
	err := r.db.GetContext(ctx, &raw, query, string(domain.CycleExecuted))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error loading last restock: %w", err)
	}

	var report domain.CycleReport
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, fmt.Errorf("error decoding report: %w", err)
	}
	return &report, nil
}
