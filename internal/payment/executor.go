package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/andresuchdata/stockeasy/internal/domain"
	"github.com/andresuchdata/stockeasy/internal/repository"
	"github.com/andresuchdata/stockeasy/pkg/logger"
	"github.com/rs/zerolog"
)

// Executor pays for the decisions of a committed cycle. For each decision it
// validates the intent, decrements supplier stock in the catalog, transfers
// funds and records a transaction, whatever the outcome.
type Executor struct {
	transferer   Transferer
	catalog      repository.CatalogRepository
	transactions repository.TransactionRepository
	maxPerCycle  int
	now          func() time.Time
	log          zerolog.Logger
}

type ExecutorOption func(*Executor)

// WithMaxPerCycle caps how many decisions are paid per cycle; 0 pays all.
func WithMaxPerCycle(n int) ExecutorOption {
	return func(e *Executor) { e.maxPerCycle = n }
}

func WithExecutorClock(now func() time.Time) ExecutorOption {
	return func(e *Executor) { e.now = now }
}

func NewExecutor(t Transferer, catalog repository.CatalogRepository, txs repository.TransactionRepository, opts ...ExecutorOption) *Executor {
	e := &Executor{
		transferer:   t,
		catalog:      catalog,
		transactions: txs,
		now:          time.Now,
		log:          logger.With("payment"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute returns one transaction per attempted decision. Rejections and
// transfer failures are recorded, not returned; the error is reserved for
// storage failures that leave the audit trail incomplete.
func (e *Executor) Execute(ctx context.Context, report *domain.CycleReport, v *Validator) ([]domain.Transaction, error) {
	decisions := report.Decisions
	if e.maxPerCycle > 0 && len(decisions) > e.maxPerCycle {
		decisions = decisions[:e.maxPerCycle]
	}

	txs := make([]domain.Transaction, 0, len(decisions))
	for _, d := range decisions {
		tx, err := e.pay(ctx, report.CycleID, d, v)
		if err != nil {
			return txs, err
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

func (e *Executor) pay(ctx context.Context, cycleID string, d domain.Decision, v *Validator) (domain.Transaction, error) {
	intent := d.PaymentIntent
	tx := domain.Transaction{
		CycleID:         cycleID,
		IntentID:        intent.IntentID,
		ProductID:       d.ProductID,
		SupplierID:      d.SupplierID,
		SupplierAddress: intent.SupplierAddress,
		Quantity:        d.Quantity,
		Amount:          d.TotalCost,
		AmountWei:       intent.Amount.String(),
		Status:          domain.TransactionSent,
	}
	log := e.log.With().Str("cycle_id", cycleID).Str("intent_id", intent.IntentID).Logger()

	reject := func(status domain.TransactionStatus, err error) (domain.Transaction, error) {
		tx.Status = status
		tx.Error = err.Error()
		log.Warn().Err(err).Str("status", string(status)).Msg("Payment not sent")
		return tx, e.save(ctx, &tx)
	}

	now := e.now().UTC()
	if intent.Expired(now) {
		return reject(domain.TransactionRejected, ErrIntentExpired)
	}

	used, err := e.transactions.MonthToDateSpend(ctx, now)
	if err != nil {
		return tx, fmt.Errorf("load month spend: %w", err)
	}
	if err := v.Validate(intent.SupplierAddress, d.TotalCost, used); err != nil {
		return reject(domain.TransactionRejected, err)
	}

	if err := e.catalog.ReserveStock(ctx, d.ProductID, d.SupplierID, d.Quantity); err != nil {
		if errors.Is(err, repository.ErrInsufficientStock) {
			return reject(domain.TransactionRejected, err)
		}
		return reject(domain.TransactionFailed, err)
	}

	hash, err := e.transferer.Transfer(ctx, intent.SupplierAddress, intent.Amount)
	if err != nil {
		if relErr := e.catalog.ReleaseStock(ctx, d.ProductID, d.SupplierID, d.Quantity); relErr != nil {
			log.Error().Err(relErr).Msg("could not release reserved stock")
		}
		return reject(domain.TransactionFailed, err)
	}

	tx.TxHash = hash
	tx.CreatedAt = now
	log.Info().Str("tx_hash", hash).Str("amount", d.TotalCost.String()).Msg("Payment sent")
	return tx, e.save(ctx, &tx)
}

func (e *Executor) save(ctx context.Context, tx *domain.Transaction) error {
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = e.now().UTC()
	}
	if err := e.transactions.SaveTransaction(ctx, tx); err != nil {
		return fmt.Errorf("record transaction %s: %w", tx.IntentID, err)
	}
	return nil
}
