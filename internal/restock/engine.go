// Package restock decides, once per cycle, which products to reorder, from
// which supplier and for how much, under nested budget ceilings.
package restock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/andresuchdata/stockeasy/internal/domain"
	"github.com/andresuchdata/stockeasy/pkg/logger"
	"github.com/rs/zerolog"
)

// InventorySource loads the owner's inventory snapshot.
type InventorySource interface {
	Snapshot(ctx context.Context) ([]domain.InventoryRecord, error)
}

// Forecaster predicts 7-day demand for each record of a batch, in order.
type Forecaster interface {
	Forecast(ctx context.Context, records []domain.InventoryRecord) ([]int64, error)
}

// SupplierCatalog returns the offers for a product from the given suppliers,
// cheapest first, in a stable order.
type SupplierCatalog interface {
	Offers(ctx context.Context, productID string, supplierIDs []string) ([]domain.SupplierOffer, error)
}

// Engine runs restock cycles. At most one cycle is in flight at a time.
type Engine struct {
	inventory  InventorySource
	forecaster Forecaster
	catalog    SupplierCatalog
	state      *EngineState
	cycleMu    sync.Mutex
	now        func() time.Time
	idSuffix   func() string
	log        zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithState(state *EngineState) Option {
	return func(e *Engine) { e.state = state }
}

// WithIDSuffix replaces the random intent id disambiguator.
func WithIDSuffix(fn func() string) Option {
	return func(e *Engine) { e.idSuffix = fn }
}

func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

func NewEngine(inventory InventorySource, forecaster Forecaster, catalog SupplierCatalog, opts ...Option) *Engine {
	e := &Engine{
		inventory:  inventory,
		forecaster: forecaster,
		catalog:    catalog,
		state:      NewEngineState(),
		now:        time.Now,
		idSuffix:   randomSuffix,
		log:        logger.With("restock"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State exposes the shared cycle state.
func (e *Engine) State() *EngineState {
	return e.state
}

// CommitHook runs for a cycle with decisions before it is recorded as the last
// restock, still under the cycle lock. An error keeps the state untouched.
type CommitHook func(ctx context.Context, report *domain.CycleReport) error

// RunCycle executes one cycle and, if it produced at least one decision and
// every hook succeeded, records it as the last restock. It returns
// ErrCycleBusy without waiting when another cycle holds the lock. On error the
// state is left untouched.
func (e *Engine) RunCycle(ctx context.Context, cfg EngineConfig, hooks ...CommitHook) (*domain.CycleReport, error) {
	if !e.cycleMu.TryLock() {
		return nil, ErrCycleBusy
	}
	defer e.cycleMu.Unlock()

	report, err := e.evaluate(ctx, cfg, false)
	if err != nil {
		return report, err
	}

	// A caller-imposed timeout that fired during the cycle still aborts it.
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("restock cycle %s aborted: %w", report.CycleID, err)
	}

	if len(report.Decisions) == 0 {
		return report, nil
	}
	for _, hook := range hooks {
		if err := hook(ctx, report); err != nil {
			return report, err
		}
	}
	e.state.commit(report)
	return report, nil
}

// Preview runs the same decision pipeline without committing state. It does
// not take the cycle lock.
func (e *Engine) Preview(ctx context.Context, cfg EngineConfig) (*domain.CycleReport, error) {
	return e.evaluate(ctx, cfg, true)
}

func (e *Engine) evaluate(ctx context.Context, cfg EngineConfig, preview bool) (*domain.CycleReport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cycleID, startedAt := e.state.issueCycleID(e.now().UTC().Truncate(time.Microsecond))
	log := e.log.With().Str("cycle_id", cycleID).Bool("preview", preview).Logger()
	log.Info().Int64("monthly_budget", cfg.settings.MonthlyBudget).Msg("Starting restock cycle")

	report := &domain.CycleReport{
		CycleID:       cycleID,
		StartedAt:     startedAt,
		Preview:       preview,
		PrioritySpend: map[domain.Tier]domain.Money{},
		SupplierSpend: map[string]domain.Money{},
		Decisions:     []domain.Decision{},
	}

	records, err := e.inventory.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load inventory snapshot: %w", err)
	}
	if len(records) == 0 {
		log.Warn().Msg("Inventory snapshot is empty")
		report.Status = domain.CycleEmpty
		report.Reason = ErrEmptySnapshot.Error()
		return report, ErrEmptySnapshot
	}

	demands, err := e.forecaster.Forecast(ctx, records)
	if err != nil {
		return nil, fmt.Errorf("forecast demand: %w", err)
	}
	if len(demands) != len(records) {
		return nil, fmt.Errorf("%w: %d predictions for %d records", ErrForecastMismatch, len(demands), len(records))
	}

	items := buildCandidates(records, demands)

	lastRestockAt, hasRestocked := e.state.LastRestockAt()
	gate := NewCooldownController(cfg.CooldownWindow(), cfg.CriticalStockDays()).
		Evaluate(startedAt, lastRestockAt, hasRestocked, items)
	if gate.Skip {
		log.Info().Time("last_restock_at", lastRestockAt).Msg("Cooldown active, skipping restock")
		report.Status = domain.CycleSkipped
		report.Reason = gate.Reason
		return report, nil
	}
	if len(gate.Critical) > 0 {
		log.Info().Strs("critical", gate.Critical).Msg("Critical stock overrides cooldown")
	}

	ClassifyTiers(items)
	ordered := OrderCandidates(items, cfg.MinDemandThreshold(), cfg.MaxActiveSKUs())

	if err := e.attachOffers(ctx, ordered, cfg.AllowedSuppliers()); err != nil {
		return nil, err
	}

	pool := NewBudgetPool(cfg)
	log.Info().Str("cycle_budget", pool.Cycle.String()).Int("candidates", len(ordered)).Msg("Budget pool ready")

	allocator := NewBudgetAllocator(pool)
	selector := NewSupplierSelector(cfg.AllowedSuppliers())
	synth := NewIntentSynthesizer(cfg)
	synth.idSuffix = e.idSuffix

	for _, c := range ordered {
		item, qty := c.Item, c.Need.Quantity

		offer, err := selector.Select(item.ProductID, qty, item.Offers)
		if err != nil {
			log.Debug().Str("product", item.ProductID).Msg("No supplier stock available")
			report.Skipped = append(report.Skipped, domain.SkippedCandidate{
				ProductID: item.ProductID,
				Tier:      item.Tier,
				Quantity:  qty,
				Reason:    err.Error(),
			})
			continue
		}

		cost, err := LineCost(offer.UnitCost, qty)
		if err == nil {
			err = allocator.Allocate(item.Tier, offer.SupplierID, cost)
		}
		if err != nil {
			log.Debug().
				Str("product", item.ProductID).
				Str("supplier", offer.SupplierID).
				Str("tier", item.Tier.String()).
				Str("cost", cost.String()).
				Msgf("Skip: %v", err)
			report.Skipped = append(report.Skipped, domain.SkippedCandidate{
				ProductID:  item.ProductID,
				SupplierID: offer.SupplierID,
				Tier:       item.Tier,
				Quantity:   qty,
				TotalCost:  cost,
				Reason:     err.Error(),
			})
			continue
		}
		selector.Reserve(item.ProductID, offer.SupplierID, qty)

		address, _ := cfg.SupplierAddress(offer.SupplierID)
		report.Decisions = append(report.Decisions, domain.Decision{
			ProductID:       item.ProductID,
			Category:        item.Category,
			SupplierID:      offer.SupplierID,
			Tier:            item.Tier,
			PredictedDemand: item.PredictedDemand,
			CurrentStock:    item.CurrentStock,
			Quantity:        qty,
			UnitCost:        offer.UnitCost,
			TotalCost:       cost,
			Reason:          c.Need.Reason,
			PaymentIntent:   synth.Synthesize(cycleID, startedAt, offer.SupplierID, address, cost),
		})

		log.Info().
			Str("product", item.ProductID).
			Str("supplier", offer.SupplierID).
			Str("unit_cost", offer.UnitCost.String()).
			Int64("qty", qty).
			Msg("Approved")
	}

	report.Status = domain.CycleExecuted
	report.MonthlyBudget = pool.Monthly
	report.CycleBudget = pool.Cycle
	report.PrioritySpend = allocator.TierSpent()
	report.SupplierSpend = allocator.SupplierSpent()
	report.TotalSpent = allocator.CycleSpent()
	report.BudgetRemaining = pool.Monthly - allocator.CycleSpent()
	report.ActiveSKUs = len(ordered)

	log.Info().
		Int("decisions", len(report.Decisions)).
		Str("total_spent", report.TotalSpent.String()).
		Msg("Cycle complete")

	return report, nil
}

func buildCandidates(records []domain.InventoryRecord, demands []int64) []domain.CandidateItem {
	items := make([]domain.CandidateItem, len(records))
	for i, r := range records {
		demand := demands[i]
		if demand < 0 {
			demand = 0
		}
		stock := r.CurrentStock
		if stock < 0 {
			stock = 0
		}
		items[i] = domain.CandidateItem{
			ProductID:       r.ProductID,
			Category:        r.Category,
			PredictedDemand: demand,
			CurrentStock:    stock,
			AvgDailySales:   r.AvgDailySales,
		}
	}
	return items
}

// attachOffers queries the catalog once per distinct product before any
// budget is committed, so a catalog failure aborts the cycle cleanly.
func (e *Engine) attachOffers(ctx context.Context, ordered []OrderedCandidate, suppliers []string) error {
	cache := make(map[string][]domain.SupplierOffer)
	for i := range ordered {
		productID := ordered[i].Item.ProductID
		offers, ok := cache[productID]
		if !ok {
			var err error
			offers, err = e.catalog.Offers(ctx, productID, suppliers)
			if err != nil {
				return fmt.Errorf("query supplier catalog for %s: %w", productID, err)
			}
			cache[productID] = offers
		}
		ordered[i].Item.Offers = offers
	}
	return nil
}
