package restock

import (
	"errors"
	"fmt"
	"strings"
)

const supplierStatusAllowed = "allowed"

// ControlPanelSupplier is a supplier row as edited in the control panel.
type ControlPanelSupplier struct {
	ID         string  `json:"id"`
	Name       string  `json:"name,omitempty"`
	Address    string  `json:"address"`
	Allocation float64 `json:"allocation"`
	Status     string  `json:"status"`
}

// ControlPanelConfig is the payload the control panel saves.
type ControlPanelConfig struct {
	MonthlyBudget  int64                  `json:"monthlyBudget"`
	BufferStock    int                    `json:"bufferStock"`
	MinDailyDemand int64                  `json:"minDailyDemand"`
	Suppliers      []ControlPanelSupplier `json:"suppliers"`
}

// FromControlPanel maps a control panel payload onto base. Only suppliers
// whose status is Allowed are kept and their allocations are normalised into
// the supplier budget split.
func FromControlPanel(cp ControlPanelConfig, base Settings) (Settings, error) {
	var allowed []ControlPanelSupplier
	for _, s := range cp.Suppliers {
		if strings.EqualFold(strings.TrimSpace(s.Status), supplierStatusAllowed) {
			allowed = append(allowed, s)
		}
	}
	if len(allowed) == 0 {
		return Settings{}, errors.New("no allowed suppliers configured")
	}

	var total float64
	for _, s := range allowed {
		if s.Allocation < 0 {
			return Settings{}, fmt.Errorf("supplier %s: allocation must be >= 0", s.ID)
		}
		total += s.Allocation
	}
	if total <= 0 {
		return Settings{}, errors.New("supplier allocation must be > 0")
	}

	out := base
	out.PriorityBudgetSplit = copyMap(base.PriorityBudgetSplit)
	out.MonthlyBudget = cp.MonthlyBudget
	out.BufferDays = cp.BufferStock
	out.MinDemandThreshold = cp.MinDailyDemand
	out.SupplierAddressMap = make(map[string]string, len(allowed))
	out.SupplierBudgetSplit = make(map[string]float64, len(allowed))
	for _, s := range allowed {
		out.SupplierAddressMap[s.ID] = s.Address
		out.SupplierBudgetSplit[s.ID] = s.Allocation / total
	}

	return out, nil
}
