// internal/repository/postgres/transaction_repository.go
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/andresuchdata/stockeasy/internal/domain"
	"github.com/andresuchdata/stockeasy/internal/repository"
)

const defaultTransactionLimit = 100

type transactionRepository struct {
	db *DB
}

func NewTransactionRepository(db *DB) repository.TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) SaveTransaction(ctx context.Context, tx *domain.Transaction) error {
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO restock_transactions (
			cycle_id, intent_id, product_id, supplier_id, supplier_address,
			quantity, amount, amount_wei, tx_hash, status, error, created_at
		) VALUES (
			:cycle_id, :intent_id, :product_id, :supplier_id, :supplier_address,
			:quantity, :amount, :amount_wei, :tx_hash, :status, :error, :created_at
		)
		RETURNING id
	`

	rows, err := r.db.NamedQueryContext(ctx, query, tx)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&tx.ID); err != nil {
			return fmt.Errorf("failed to read transaction id: %w", err)
		}
	}
	return rows.Err()
}

func (r *transactionRepository) ListTransactions(ctx context.Context, limit int) ([]domain.Transaction, error) {
	if limit <= 0 {
		limit = defaultTransactionLimit
	}

	query := `
		SELECT id, cycle_id, intent_id, product_id, supplier_id, supplier_address,
			quantity, amount, amount_wei, tx_hash, status, error, created_at
		FROM restock_transactions
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`

	var txs []domain.Transaction
	if err := r.db.SelectContext(ctx, &txs, query, limit); err != nil {
		return nil, fmt.Errorf("error listing transactions: %w", err)
	}
	return txs, nil
}

func (r *transactionRepository) MonthToDateSpend(ctx context.Context, now time.Time) (domain.Money, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM restock_transactions
		WHERE status = $1 AND created_at >= $2 AND created_at <= $3
	`

	var total int64
	if err := r.db.GetContext(ctx, &total, query, string(domain.TransactionSent), repository.MonthStart(now), now); err != nil {
		return 0, fmt.Errorf("error summing month spend: %w", err)
	}
	return domain.Money(total), nil
}
