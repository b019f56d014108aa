// Package memory provides in-memory repositories for tests and demo runs.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/andresuchdata/stockeasy/internal/domain"
	"github.com/andresuchdata/stockeasy/internal/repository"
	"github.com/andresuchdata/stockeasy/internal/restock"
)

// InventoryRepository keeps the owner snapshot in memory.
type InventoryRepository struct {
	mu      sync.RWMutex
	records []domain.InventoryRecord
}

var _ repository.InventoryRepository = (*InventoryRepository)(nil)

func NewInventoryRepository(records ...domain.InventoryRecord) *InventoryRepository {
	return &InventoryRepository{records: append([]domain.InventoryRecord(nil), records...)}
}

func (r *InventoryRepository) Snapshot(ctx context.Context) ([]domain.InventoryRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.InventoryRecord(nil), r.records...), nil
}

func (r *InventoryRepository) ReplaceInventory(ctx context.Context, records []domain.InventoryRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append([]domain.InventoryRecord(nil), records...)
	return nil
}

type offerKey struct {
	supplierID string
	productID  string
}

// CatalogRepository keeps supplier offers in memory.
type CatalogRepository struct {
	mu     sync.Mutex
	offers map[offerKey]domain.SupplierOffer
}

var _ repository.CatalogRepository = (*CatalogRepository)(nil)

func NewCatalogRepository(offers ...domain.SupplierOffer) *CatalogRepository {
	r := &CatalogRepository{offers: make(map[offerKey]domain.SupplierOffer)}
	for _, o := range offers {
		r.offers[offerKey{o.SupplierID, o.ProductID}] = o
	}
	return r
}

// Offers returns matching offers ordered by unit cost, then supplier id.
func (r *CatalogRepository) Offers(ctx context.Context, productID string, supplierIDs []string) ([]domain.SupplierOffer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.SupplierOffer
	for _, supplierID := range supplierIDs {
		if o, ok := r.offers[offerKey{supplierID, productID}]; ok {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].UnitCost != out[j].UnitCost {
			return out[i].UnitCost < out[j].UnitCost
		}
		return out[i].SupplierID < out[j].SupplierID
	})
	return out, nil
}

func (r *CatalogRepository) ReplaceOffers(ctx context.Context, supplierID string, offers []domain.SupplierOffer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k := range r.offers {
		if k.supplierID == supplierID {
			delete(r.offers, k)
		}
	}
	for _, o := range offers {
		o.SupplierID = supplierID
		r.offers[offerKey{supplierID, o.ProductID}] = o
	}
	return nil
}

func (r *CatalogRepository) ReserveStock(ctx context.Context, productID, supplierID string, qty int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := offerKey{supplierID, productID}
	o, ok := r.offers[k]
	if !ok || qty <= 0 || o.AvailableStock < qty {
		return fmt.Errorf("%w: %s from %s", repository.ErrInsufficientStock, productID, supplierID)
	}
	o.AvailableStock -= qty
	r.offers[k] = o
	return nil
}

func (r *CatalogRepository) ReleaseStock(ctx context.Context, productID, supplierID string, qty int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := offerKey{supplierID, productID}
	o, ok := r.offers[k]
	if !ok {
		return fmt.Errorf("%w: no offer %s from %s", repository.ErrNotFound, productID, supplierID)
	}
	o.AvailableStock += qty
	r.offers[k] = o
	return nil
}

// AgentConfigRepository holds the agent settings in memory.
type AgentConfigRepository struct {
	mu       sync.RWMutex
	settings *restock.Settings
}

var _ repository.AgentConfigRepository = (*AgentConfigRepository)(nil)

func NewAgentConfigRepository() *AgentConfigRepository {
	return &AgentConfigRepository{}
}

func (r *AgentConfigRepository) LoadAgentConfig(ctx context.Context) (restock.Settings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.settings == nil {
		return restock.Settings{}, repository.ErrNotFound
	}
	return *r.settings, nil
}

func (r *AgentConfigRepository) SaveAgentConfig(ctx context.Context, settings restock.Settings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings = &settings
	return nil
}

// CycleRepository keeps saved reports in insertion order.
type CycleRepository struct {
	mu      sync.RWMutex
	reports []*domain.CycleReport
}

var _ repository.CycleRepository = (*CycleRepository)(nil)

func NewCycleRepository() *CycleRepository {
	return &CycleRepository{}
}

func (r *CycleRepository) SaveReport(ctx context.Context, report *domain.CycleReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, report)
	return nil
}

func (r *CycleRepository) LastRestock(ctx context.Context) (*domain.CycleReport, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := len(r.reports) - 1; i >= 0; i-- {
		if rep := r.reports[i]; rep.Status == domain.CycleExecuted && len(rep.Decisions) > 0 {
			return rep, nil
		}
	}
	return nil, repository.ErrNotFound
}

// Reports returns every saved report, oldest first.
func (r *CycleRepository) Reports() []*domain.CycleReport {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*domain.CycleReport(nil), r.reports...)
}

// TransactionRepository keeps payment records in memory.
type TransactionRepository struct {
	mu     sync.RWMutex
	nextID int64
	txs    []domain.Transaction
}

var _ repository.TransactionRepository = (*TransactionRepository)(nil)

func NewTransactionRepository() *TransactionRepository {
	return &TransactionRepository{}
}

func (r *TransactionRepository) SaveTransaction(ctx context.Context, tx *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	tx.ID = r.nextID
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}
	r.txs = append(r.txs, *tx)
	return nil
}

// ListTransactions returns the newest transactions first.
func (r *TransactionRepository) ListTransactions(ctx context.Context, limit int) ([]domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Transaction, 0, len(r.txs))
	for i := len(r.txs) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, r.txs[i])
	}
	return out, nil
}

func (r *TransactionRepository) MonthToDateSpend(ctx context.Context, now time.Time) (domain.Money, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	start := repository.MonthStart(now)
	var total domain.Money
	for _, tx := range r.txs {
		if tx.Status == domain.TransactionSent && !tx.CreatedAt.Before(start) && !tx.CreatedAt.After(now) {
			total += tx.Amount
		}
	}
	return total, nil
}
