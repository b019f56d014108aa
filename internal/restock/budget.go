package restock

import (
	"github.com/andresuchdata/stockeasy/internal/domain"
)

// BudgetPool holds the ceilings for one cycle.
type BudgetPool struct {
	Monthly  domain.Money
	Cycle    domain.Money
	Tier     map[domain.Tier]domain.Money
	Supplier map[string]domain.Money
}

// NewBudgetPool derives every ceiling from the monthly budget. Tier budgets
// split the cycle budget, supplier budgets split the monthly budget.
func NewBudgetPool(cfg EngineConfig) BudgetPool {
	monthly := domain.FromUnits(cfg.settings.MonthlyBudget)
	cycle := applyPPM(monthly, cfg.cyclePPM)

	tiers := make(map[domain.Tier]domain.Money, len(domain.Tiers))
	for _, tier := range domain.Tiers {
		tiers[tier] = applyPPM(cycle, cfg.tierPPM[tier])
	}

	suppliers := make(map[string]domain.Money, len(cfg.supplierPPM))
	for supplier, ppm := range cfg.supplierPPM {
		suppliers[supplier] = applyPPM(monthly, ppm)
	}

	return BudgetPool{
		Monthly:  monthly,
		Cycle:    cycle,
		Tier:     tiers,
		Supplier: suppliers,
	}
}

func applyPPM(amount domain.Money, ppm int64) domain.Money {
	// Split into quotient and remainder so amount*ppm cannot overflow for
	// realistic budgets.
	whole := int64(amount) / ratioScale * ppm
	frac := int64(amount) % ratioScale * ppm / ratioScale
	return domain.Money(whole + frac)
}

// BudgetAllocator is the single-pass ledger for one cycle. A candidate is
// checked against the cycle, tier and supplier ceilings in that order and
// either all three totals move or none do.
type BudgetAllocator struct {
	pool          BudgetPool
	cycleSpent    domain.Money
	tierSpent     map[domain.Tier]domain.Money
	supplierSpent map[string]domain.Money
}

func NewBudgetAllocator(pool BudgetPool) *BudgetAllocator {
	supplierSpent := make(map[string]domain.Money, len(pool.Supplier))
	for supplier := range pool.Supplier {
		supplierSpent[supplier] = 0
	}

	return &BudgetAllocator{
		pool: pool,
		tierSpent: map[domain.Tier]domain.Money{
			domain.TierHigh:   0,
			domain.TierMedium: 0,
			domain.TierLow:    0,
		},
		supplierSpent: supplierSpent,
	}
}

// Check reports which ceiling, if any, cost would break. It never mutates.
// Ceilings are compared against what is left so a huge cost cannot wrap.
func (a *BudgetAllocator) Check(tier domain.Tier, supplierID string, cost domain.Money) error {
	if cost < 0 {
		return ErrInvalidCost
	}
	if cost > a.pool.Cycle-a.cycleSpent {
		return ErrCycleBudgetExceeded
	}
	if cost > a.pool.Tier[tier]-a.tierSpent[tier] {
		return ErrPriorityBudgetExceeded
	}
	// Unknown suppliers have a zero ceiling.
	if cost > a.pool.Supplier[supplierID]-a.supplierSpent[supplierID] {
		return ErrSupplierBudgetExceeded
	}
	return nil
}

// LineCost prices qty units at unitCost. A product too large for Money can
// never fit a cycle budget and is reported as such.
func LineCost(unitCost domain.Money, qty int64) (domain.Money, error) {
	if unitCost < 0 || qty < 0 {
		return 0, ErrInvalidCost
	}
	cost, ok := unitCost.Times(qty)
	if !ok {
		return 0, ErrCycleBudgetExceeded
	}
	return cost, nil
}

// Allocate commits cost to all three ledgers, or returns the skip reason and
// leaves every total unchanged.
func (a *BudgetAllocator) Allocate(tier domain.Tier, supplierID string, cost domain.Money) error {
	if err := a.Check(tier, supplierID, cost); err != nil {
		return err
	}

	a.cycleSpent += cost
	a.tierSpent[tier] += cost
	a.supplierSpent[supplierID] += cost
	return nil
}

func (a *BudgetAllocator) Pool() BudgetPool         { return a.pool }
func (a *BudgetAllocator) CycleSpent() domain.Money { return a.cycleSpent }

// TierSpent returns a copy of the per-tier ledger.
func (a *BudgetAllocator) TierSpent() map[domain.Tier]domain.Money {
	return copyMap(a.tierSpent)
}

// SupplierSpent returns a copy of the per-supplier ledger.
func (a *BudgetAllocator) SupplierSpent() map[string]domain.Money {
	return copyMap(a.supplierSpent)
}
