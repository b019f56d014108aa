package restock

import (
	"math"
	"testing"
	"time"

	"github.com/andresuchdata/stockeasy/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEngineConfig_Defaults(t *testing.T) {
	cfg, err := NewEngineConfig(DefaultSettings())
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, []string{"SUP1", "SUP2"}, cfg.AllowedSuppliers())
	assert.Equal(t, int64(5), cfg.MinDemandThreshold())
	assert.Equal(t, DefaultMaxActiveSKUs, cfg.MaxActiveSKUs())
	assert.Equal(t, 15*time.Minute, cfg.PaymentTTL())
	assert.Equal(t, 7*24*time.Hour, cfg.CooldownWindow())
}

func TestNewEngineConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *Settings)
		message string
	}{
		{"zero budget", func(s *Settings) { s.MonthlyBudget = 0 }, "monthly_budget must be > 0"},
		{"budget beyond money range", func(s *Settings) { s.MonthlyBudget = math.MaxInt64 }, "monthly_budget is too large"},
		{"cycle ratio above one", func(s *Settings) { s.CycleBudgetRatio = 1.5 }, "cycle_budget_ratio must be in (0, 1]"},
		{"cycle ratio zero", func(s *Settings) { s.CycleBudgetRatio = 0 }, "cycle_budget_ratio must be in (0, 1]"},
		{"tier split sum", func(s *Settings) { s.PriorityBudgetSplit["LOW"] = 0.2 }, "priority_budget_split must sum to 1"},
		{"unknown tier", func(s *Settings) { s.PriorityBudgetSplit["URGENT"] = 0 }, "unknown tier"},
		{"tier named twice", func(s *Settings) {
			s.PriorityBudgetSplit = map[string]float64{"HIGH": 0.5, "3": 0.5}
		}, "tier HIGH listed more than once"},
		{"tier ratio NaN", func(s *Settings) { s.PriorityBudgetSplit["LOW"] = math.NaN() }, "priority_budget_split[LOW] must be in [0, 1]"},
		{"supplier ratio above one", func(s *Settings) {
			s.SupplierBudgetSplit = map[string]float64{"SUP1": 1.5, "SUP2": -0.5}
		}, "supplier_budget_split[SUP1] must be in [0, 1]"},
		{"supplier split sum", func(s *Settings) { s.SupplierBudgetSplit["SUP2"] = 0.5 }, "supplier_budget_split must sum to 1"},
		{"missing address", func(s *Settings) { delete(s.SupplierAddressMap, "SUP2") }, "supplier_address_map is missing supplier \"SUP2\""},
		{"negative cooldown", func(s *Settings) { s.CooldownDays = -1 }, "cooldown_days must be >= 0"},
		{"negative buffer", func(s *Settings) { s.BufferDays = -1 }, "buffer_days must be >= 0"},
		{"no supplier split", func(s *Settings) { s.SupplierBudgetSplit = nil }, "supplier_budget_split is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.mutate(&s)

			_, err := NewEngineConfig(s)
			require.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestNewEngineConfig_ThirdsSumToOne(t *testing.T) {
	s := DefaultSettings()
	s.PriorityBudgetSplit = map[string]float64{"HIGH": 1.0 / 3, "MEDIUM": 1.0 / 3, "LOW": 1.0 / 3}

	cfg, err := NewEngineConfig(s)
	require.NoError(t, err)

	pool := NewBudgetPool(cfg)
	var total domain.Money
	for _, tier := range domain.Tiers {
		total += pool.Tier[tier]
	}
	assert.LessOrEqual(t, int64(total), int64(pool.Cycle))
}

func TestNewEngineConfig_ReportsEveryProblem(t *testing.T) {
	s := DefaultSettings()
	s.MonthlyBudget = -1
	s.CriticalStockDays = -1

	_, err := NewEngineConfig(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "monthly_budget")
	assert.Contains(t, err.Error(), "critical_stock_days")
}

func TestNewEngineConfig_AddressMapMaySupersetSplit(t *testing.T) {
	s := DefaultSettings()
	s.SupplierAddressMap["SUP3"] = "0x3333333333333333333333333333333333333333"

	cfg, err := NewEngineConfig(s)
	require.NoError(t, err)
	assert.Equal(t, []string{"SUP1", "SUP2", "SUP3"}, cfg.AllowedSuppliers())
}

func TestEngineConfig_ZeroValueRejected(t *testing.T) {
	require.ErrorIs(t, EngineConfig{}.Validate(), ErrInvalidConfig)
}

func TestEngineConfig_SettingsIsACopy(t *testing.T) {
	cfg := mustConfig(t, DefaultSettings())
	s := cfg.Settings()
	s.SupplierBudgetSplit["SUP1"] = 1

	assert.InDelta(t, 0.4, cfg.Settings().SupplierBudgetSplit["SUP1"], 1e-9)
}

func TestFromControlPanel(t *testing.T) {
	cp := ControlPanelConfig{
		MonthlyBudget:  200_000,
		BufferStock:    5,
		MinDailyDemand: 3,
		Suppliers: []ControlPanelSupplier{
			{ID: "SUP1", Address: "0x1", Allocation: 30, Status: "Allowed"},
			{ID: "SUP2", Address: "0x2", Allocation: 10, Status: "allowed"},
			{ID: "SUP3", Address: "0x3", Allocation: 60, Status: "Blocked"},
		},
	}

	s, err := FromControlPanel(cp, DefaultSettings())
	require.NoError(t, err)

	assert.Equal(t, int64(200_000), s.MonthlyBudget)
	assert.Equal(t, 5, s.BufferDays)
	assert.Equal(t, int64(3), s.MinDemandThreshold)
	assert.Equal(t, map[string]string{"SUP1": "0x1", "SUP2": "0x2"}, s.SupplierAddressMap)
	assert.InDelta(t, 0.75, s.SupplierBudgetSplit["SUP1"], 1e-9)
	assert.InDelta(t, 0.25, s.SupplierBudgetSplit["SUP2"], 1e-9)

	_, err = NewEngineConfig(s)
	require.NoError(t, err)
}

func TestFromControlPanel_Errors(t *testing.T) {
	_, err := FromControlPanel(ControlPanelConfig{
		Suppliers: []ControlPanelSupplier{{ID: "SUP1", Status: "Blocked"}},
	}, DefaultSettings())
	assert.EqualError(t, err, "no allowed suppliers configured")

	_, err = FromControlPanel(ControlPanelConfig{
		Suppliers: []ControlPanelSupplier{{ID: "SUP1", Status: "Allowed"}},
	}, DefaultSettings())
	assert.EqualError(t, err, "supplier allocation must be > 0")
}
