package restock

import (
	"time"

	"github.com/andresuchdata/stockeasy/internal/domain"
)

// CooldownState is the gate state evaluated at the start of every cycle.
type CooldownState string

const (
	StateNormal   CooldownState = "NORMAL"
	StateCooldown CooldownState = "COOLDOWN"
)

const reasonCooldownActive = "Cooldown active"

// GateResult is the outcome of CooldownController.Evaluate.
type GateResult struct {
	State    CooldownState
	Critical []string
	Skip     bool
	Reason   string
}

// CooldownController decides whether a cycle runs at all. It has two states;
// critical stock on any candidate forces NORMAL regardless of the timer.
type CooldownController struct {
	window       time.Duration
	criticalDays int
}

func NewCooldownController(window time.Duration, criticalStockDays int) CooldownController {
	return CooldownController{window: window, criticalDays: criticalStockDays}
}

// IsCritical reports whether stock is below criticalDays of average sales.
func IsCritical(item domain.CandidateItem, criticalDays int) bool {
	return float64(item.CurrentStock) < item.AvgDailySales*float64(criticalDays)
}

// TimerState is the state implied by the timer alone.
func (c CooldownController) TimerState(now, lastRestockAt time.Time, hasRestocked bool) CooldownState {
	if !hasRestocked {
		return StateNormal
	}
	if now.Sub(lastRestockAt) < c.window {
		return StateCooldown
	}
	return StateNormal
}

// Evaluate applies the critical-stock override to the timer state.
func (c CooldownController) Evaluate(now, lastRestockAt time.Time, hasRestocked bool, items []domain.CandidateItem) GateResult {
	state := c.TimerState(now, lastRestockAt, hasRestocked)
	if state == StateNormal {
		return GateResult{State: StateNormal}
	}

	var critical []string
	for _, item := range items {
		if IsCritical(item, c.criticalDays) {
			critical = append(critical, item.ProductID)
		}
	}
	if len(critical) > 0 {
		return GateResult{State: StateNormal, Critical: critical}
	}

	return GateResult{State: StateCooldown, Skip: true, Reason: reasonCooldownActive}
}
