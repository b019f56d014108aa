// internal/repository/repository.go
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/andresuchdata/stockeasy/internal/domain"
	"github.com/andresuchdata/stockeasy/internal/restock"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient supplier stock")
)

// InventoryRepository stores the owner's inventory snapshot.
type InventoryRepository interface {
	Snapshot(ctx context.Context) ([]domain.InventoryRecord, error)
	ReplaceInventory(ctx context.Context, records []domain.InventoryRecord) error
}

// CatalogRepository is the external supplier catalog. ReserveStock is a
// compare-and-decrement: it fails with ErrInsufficientStock instead of
// driving available stock below zero.
type CatalogRepository interface {
	Offers(ctx context.Context, productID string, supplierIDs []string) ([]domain.SupplierOffer, error)
	ReplaceOffers(ctx context.Context, supplierID string, offers []domain.SupplierOffer) error
	ReserveStock(ctx context.Context, productID, supplierID string, qty int64) error
	// ReleaseStock returns a reservation whose payment did not go through.
	ReleaseStock(ctx context.Context, productID, supplierID string, qty int64) error
}

// AgentConfigRepository persists the single global agent configuration.
type AgentConfigRepository interface {
	LoadAgentConfig(ctx context.Context) (restock.Settings, error)
	SaveAgentConfig(ctx context.Context, settings restock.Settings) error
}

// CycleRepository is the audit trail of cycle reports and their decisions.
type CycleRepository interface {
	SaveReport(ctx context.Context, report *domain.CycleReport) error
	// LastRestock returns the newest report that produced a decision.
	LastRestock(ctx context.Context) (*domain.CycleReport, error)
}

type TransactionRepository interface {
	SaveTransaction(ctx context.Context, tx *domain.Transaction) error
	ListTransactions(ctx context.Context, limit int) ([]domain.Transaction, error)
	// MonthToDateSpend sums sent payments in the calendar month of now (UTC).
	MonthToDateSpend(ctx context.Context, now time.Time) (domain.Money, error)
}

// MonthStart returns the first instant of the UTC calendar month of t.
func MonthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
