// internal/domain/models.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// InventoryRecord is one row of the owner's inventory snapshot.
type InventoryRecord struct {
	ProductID     string    `json:"product_id" db:"product_id"`
	Category      string    `json:"category" db:"category"`
	CurrentStock  int64     `json:"current_stock" db:"current_stock"`
	AvgDailySales float64   `json:"avg_daily_sales" db:"avg_daily_sales"`
	SalesHistory  []float64 `json:"sales_history,omitempty" db:"-"`
}

// SupplierOffer is a supplier's available stock and unit cost for a product.
type SupplierOffer struct {
	SupplierID     string    `json:"supplier_id" db:"supplier_id"`
	ProductID      string    `json:"product_id" db:"product_id"`
	UnitCost       Money     `json:"unit_cost" db:"unit_cost"`
	AvailableStock int64     `json:"available_stock" db:"available_stock"`
	UpdatedAt      time.Time `json:"updated_at,omitempty" db:"updated_at"`
}

// CandidateItem is a product considered for restocking in a single cycle.
type CandidateItem struct {
	ProductID       string          `json:"product_id"`
	Category        string          `json:"category"`
	PredictedDemand int64           `json:"predicted_7d_demand"`
	CurrentStock    int64           `json:"current_stock"`
	AvgDailySales   float64         `json:"avg_daily_sales"`
	Tier            Tier            `json:"priority"`
	Offers          []SupplierOffer `json:"offers,omitempty"`
}

// PaymentIntent is a time-bounded request to pay a supplier for one decision.
type PaymentIntent struct {
	IntentID        string          `json:"intent_id"`
	SupplierAddress string          `json:"supplier_address"`
	Amount          decimal.Decimal `json:"amount_wei"`
	Token           string          `json:"token"`
	ValidFrom       time.Time       `json:"valid_from"`
	ValidUntil      time.Time       `json:"valid_until"`
	Reason          string          `json:"reason"`
}

// Expired reports whether the intent can no longer be executed at t.
func (p PaymentIntent) Expired(t time.Time) bool {
	return !t.Before(p.ValidUntil)
}

// Decision is an accepted restock order. It is never modified after the
// report that carries it is returned.
type Decision struct {
	ProductID       string        `json:"product"`
	Category        string        `json:"category"`
	SupplierID      string        `json:"supplier_id"`
	Tier            Tier          `json:"priority"`
	PredictedDemand int64         `json:"predicted_7d_demand"`
	CurrentStock    int64         `json:"current_stock"`
	Quantity        int64         `json:"restock_quantity"`
	UnitCost        Money         `json:"supplier_cost_per_unit"`
	TotalCost       Money         `json:"total_cost"`
	Reason          string        `json:"reason"`
	PaymentIntent   PaymentIntent `json:"payment_intent"`
}

// SkippedCandidate records why a candidate that needed stock was not funded.
type SkippedCandidate struct {
	ProductID  string `json:"product"`
	SupplierID string `json:"supplier_id,omitempty"`
	Tier       Tier   `json:"priority"`
	Quantity   int64  `json:"restock_quantity"`
	TotalCost  Money  `json:"total_cost,omitempty"`
	Reason     string `json:"reason"`
}

// CycleStatus is the outcome of a restock cycle.
type CycleStatus string

const (
	CycleExecuted CycleStatus = "EXECUTED"
	CycleSkipped  CycleStatus = "SKIPPED"
	CycleEmpty    CycleStatus = "EMPTY"
)

// CycleReport is the full, immutable result of one cycle.
type CycleReport struct {
	CycleID         string             `json:"cycle_id"`
	Status          CycleStatus        `json:"status"`
	Reason          string             `json:"reason,omitempty"`
	Preview         bool               `json:"preview,omitempty"`
	StartedAt       time.Time          `json:"started_at"`
	MonthlyBudget   Money              `json:"monthly_budget"`
	CycleBudget     Money              `json:"cycle_budget"`
	PrioritySpend   map[Tier]Money     `json:"priority_spend"`
	SupplierSpend   map[string]Money   `json:"supplier_spend"`
	TotalSpent      Money              `json:"total_spent"`
	BudgetRemaining Money              `json:"budget_remaining"`
	ActiveSKUs      int                `json:"active_skus_processed"`
	Decisions       []Decision         `json:"decisions"`
	Skipped         []SkippedCandidate `json:"skipped,omitempty"`
}

// CycleState is the only state that outlives a cycle.
type CycleState struct {
	LastRestockAt     time.Time     `json:"last_restock_at"`
	HasRestocked      bool          `json:"has_restocked"`
	LastCycleID       string        `json:"last_cycle_id"`
	CooldownWindow    time.Duration `json:"cooldown_window"`
	CriticalStockDays int           `json:"critical_stock_days"`
}

// TransactionStatus is the state of an executed payment.
type TransactionStatus string

const (
	TransactionSent     TransactionStatus = "SENT"
	TransactionRejected TransactionStatus = "REJECTED"
	TransactionFailed   TransactionStatus = "FAILED"
)

// Transaction is the audit record of one payment attempt.
type Transaction struct {
	ID              int64             `json:"id" db:"id"`
	CycleID         string            `json:"cycle_id" db:"cycle_id"`
	IntentID        string            `json:"intent_id" db:"intent_id"`
	ProductID       string            `json:"product" db:"product_id"`
	SupplierID      string            `json:"supplier_id" db:"supplier_id"`
	SupplierAddress string            `json:"supplier_address" db:"supplier_address"`
	Quantity        int64             `json:"quantity" db:"quantity"`
	Amount          Money             `json:"amount" db:"amount"`
	AmountWei       string            `json:"amount_wei" db:"amount_wei"`
	TxHash          string            `json:"tx_hash,omitempty" db:"tx_hash"`
	Status          TransactionStatus `json:"status" db:"status"`
	Error           string            `json:"error,omitempty" db:"error"`
	CreatedAt       time.Time         `json:"created_at" db:"created_at"`
}
