package restock

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/andresuchdata/stockeasy/internal/domain"
)

const (
	// ppmTolerance absorbs rounding when float ratios become PPM.
	ppmTolerance = 2

	// ratioScale turns float ratios into parts-per-million so every budget
	// figure is computed with integer arithmetic.
	ratioScale = 1_000_000

	DefaultMaxActiveSKUs     = 500
	DefaultPaymentTTLMinutes = 15
	DefaultConversionRate    = 10_000_000
	DefaultTokenDecimals     = 18
	DefaultToken             = "NATIVE"
	IntentReason             = "AUTO_RESTOCK"
)

// Settings is the serialisable agent configuration. It is only trusted after
// NewEngineConfig has validated it.
type Settings struct {
	MonthlyBudget       int64              `json:"monthly_budget" mapstructure:"monthly_budget"`
	BufferDays          int                `json:"buffer_days" mapstructure:"buffer_days"`
	MinDemandThreshold  int64              `json:"min_demand_threshold" mapstructure:"min_demand_threshold"`
	CycleBudgetRatio    float64            `json:"cycle_budget_ratio" mapstructure:"cycle_budget_ratio"`
	PriorityBudgetSplit map[string]float64 `json:"priority_budget_split" mapstructure:"priority_budget_split"`
	SupplierBudgetSplit map[string]float64 `json:"supplier_budget_split" mapstructure:"supplier_budget_split"`
	SupplierAddressMap  map[string]string  `json:"supplier_address_map" mapstructure:"supplier_address_map"`
	CooldownDays        int                `json:"cooldown_days" mapstructure:"cooldown_days"`
	CriticalStockDays   int                `json:"critical_stock_days" mapstructure:"critical_stock_days"`
	MaxActiveSKUs       int                `json:"max_active_skus" mapstructure:"max_active_skus"`
	PaymentTTLMinutes   int                `json:"payment_ttl_minutes" mapstructure:"payment_ttl_minutes"`
	ConversionRate      int64              `json:"conversion_rate" mapstructure:"conversion_rate"`
	TokenDecimals       int32              `json:"token_decimals" mapstructure:"token_decimals"`
	Token               string             `json:"token" mapstructure:"token"`
}

// DefaultSettings mirrors the agent defaults shipped with the control panel.
func DefaultSettings() Settings {
	return Settings{
		MonthlyBudget:      500_000,
		BufferDays:         7,
		MinDemandThreshold: 5,
		CycleBudgetRatio:   0.25,
		PriorityBudgetSplit: map[string]float64{
			"HIGH":   0.70,
			"MEDIUM": 0.20,
			"LOW":    0.10,
		},
		SupplierBudgetSplit: map[string]float64{
			"SUP1": 0.4,
			"SUP2": 0.6,
		},
		SupplierAddressMap: map[string]string{
			"SUP1": "0x1111111111111111111111111111111111111111",
			"SUP2": "0x2222222222222222222222222222222222222222",
		},
		CooldownDays:      7,
		CriticalStockDays: 2,
		MaxActiveSKUs:     DefaultMaxActiveSKUs,
		PaymentTTLMinutes: DefaultPaymentTTLMinutes,
		ConversionRate:    DefaultConversionRate,
		TokenDecimals:     DefaultTokenDecimals,
		Token:             DefaultToken,
	}
}

// EngineConfig is a validated, immutable view of Settings.
type EngineConfig struct {
	settings    Settings
	tierPPM     map[domain.Tier]int64
	supplierPPM map[string]int64
	cyclePPM    int64
	allowed     []string
	addresses   map[string]string
	paymentTTL  time.Duration
	cooldown    time.Duration
	maxActive   int
	validated   bool
}

// NewEngineConfig validates s and returns the config a cycle runs with. Every
// problem found is reported, joined under ErrInvalidConfig.
func NewEngineConfig(s Settings) (EngineConfig, error) {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if s.MonthlyBudget <= 0 {
		add("monthly_budget must be > 0, got %d", s.MonthlyBudget)
	} else if s.MonthlyBudget > math.MaxInt64/domain.MinorUnitsPerUnit {
		add("monthly_budget is too large, got %d", s.MonthlyBudget)
	}
	if s.BufferDays < 0 {
		add("buffer_days must be >= 0, got %d", s.BufferDays)
	}
	if s.MinDemandThreshold < 0 {
		add("min_demand_threshold must be >= 0, got %d", s.MinDemandThreshold)
	}
	if math.IsNaN(s.CycleBudgetRatio) || s.CycleBudgetRatio <= 0 || s.CycleBudgetRatio > 1 {
		add("cycle_budget_ratio must be in (0, 1], got %v", s.CycleBudgetRatio)
	}
	if s.CooldownDays < 0 {
		add("cooldown_days must be >= 0, got %d", s.CooldownDays)
	}
	if s.CriticalStockDays < 0 {
		add("critical_stock_days must be >= 0, got %d", s.CriticalStockDays)
	}
	if s.MaxActiveSKUs < 0 {
		add("max_active_skus must be >= 0, got %d", s.MaxActiveSKUs)
	}
	if s.PaymentTTLMinutes <= 0 {
		add("payment_ttl_minutes must be > 0, got %d", s.PaymentTTLMinutes)
	}
	if s.ConversionRate <= 0 {
		add("conversion_rate must be > 0, got %d", s.ConversionRate)
	}
	if s.TokenDecimals < 0 {
		add("token_decimals must be >= 0, got %d", s.TokenDecimals)
	}

	tierPPM := make(map[domain.Tier]int64, len(domain.Tiers))
	if len(s.PriorityBudgetSplit) == 0 {
		add("priority_budget_split is required")
	}
	for label, ratio := range s.PriorityBudgetSplit {
		tier, ok := domain.ParseTier(label)
		if !ok {
			add("priority_budget_split: unknown tier %q", label)
			continue
		}
		if !(ratio >= 0 && ratio <= 1) {
			add("priority_budget_split[%s] must be in [0, 1], got %v", label, ratio)
			continue
		}
		// "HIGH" and "3" name the same tier.
		if _, dup := tierPPM[tier]; dup {
			add("priority_budget_split: tier %s listed more than once", tier)
			continue
		}
		tierPPM[tier] = toPPM(ratio)
	}
	var tierTotal int64
	for _, ppm := range tierPPM {
		tierTotal += ppm
	}
	if len(s.PriorityBudgetSplit) > 0 && !sumsToOne(tierTotal) {
		add("priority_budget_split must sum to 1, got %v", float64(tierTotal)/ratioScale)
	}

	supplierPPM := make(map[string]int64, len(s.SupplierBudgetSplit))
	if len(s.SupplierBudgetSplit) == 0 {
		add("supplier_budget_split is required")
	}
	for supplier, ratio := range s.SupplierBudgetSplit {
		if strings.TrimSpace(supplier) == "" {
			add("supplier_budget_split: empty supplier id")
			continue
		}
		if !(ratio >= 0 && ratio <= 1) {
			add("supplier_budget_split[%s] must be in [0, 1], got %v", supplier, ratio)
			continue
		}
		supplierPPM[supplier] = toPPM(ratio)
	}
	var supplierTotal int64
	for _, ppm := range supplierPPM {
		supplierTotal += ppm
	}
	if len(s.SupplierBudgetSplit) > 0 && !sumsToOne(supplierTotal) {
		add("supplier_budget_split must sum to 1, got %v", float64(supplierTotal)/ratioScale)
	}

	addresses := make(map[string]string, len(s.SupplierAddressMap))
	for supplier, address := range s.SupplierAddressMap {
		if strings.TrimSpace(address) == "" {
			add("supplier_address_map[%s] is empty", supplier)
			continue
		}
		addresses[supplier] = address
	}
	for supplier := range s.SupplierBudgetSplit {
		if _, ok := s.SupplierAddressMap[supplier]; !ok {
			add("supplier_address_map is missing supplier %q", supplier)
		}
	}

	if len(errs) > 0 {
		return EngineConfig{}, fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}

	allowed := make([]string, 0, len(addresses))
	for supplier := range addresses {
		allowed = append(allowed, supplier)
	}
	sort.Strings(allowed)

	token := s.Token
	if token == "" {
		token = DefaultToken
	}
	s.Token = token

	return EngineConfig{
		settings:    s,
		tierPPM:     tierPPM,
		supplierPPM: supplierPPM,
		cyclePPM:    toPPM(s.CycleBudgetRatio),
		allowed:     allowed,
		addresses:   addresses,
		paymentTTL:  time.Duration(s.PaymentTTLMinutes) * time.Minute,
		cooldown:    time.Duration(s.CooldownDays) * 24 * time.Hour,
		maxActive:   s.MaxActiveSKUs,
		validated:   true,
	}, nil
}

// Validate guards against zero-value configs that never went through
// NewEngineConfig.
func (c EngineConfig) Validate() error {
	if !c.validated {
		return fmt.Errorf("%w: config was not built with NewEngineConfig", ErrInvalidConfig)
	}
	return nil
}

// Settings returns a copy of the settings the config was built from.
func (c EngineConfig) Settings() Settings {
	s := c.settings
	s.PriorityBudgetSplit = copyMap(c.settings.PriorityBudgetSplit)
	s.SupplierBudgetSplit = copyMap(c.settings.SupplierBudgetSplit)
	s.SupplierAddressMap = copyMap(c.settings.SupplierAddressMap)
	return s
}

func (c EngineConfig) AllowedSuppliers() []string {
	return append([]string(nil), c.allowed...)
}

// AddressList returns the payout addresses of the allowed suppliers, in
// supplier id order.
func (c EngineConfig) AddressList() []string {
	out := make([]string, 0, len(c.allowed))
	for _, supplier := range c.allowed {
		out = append(out, c.addresses[supplier])
	}
	return out
}

func (c EngineConfig) SupplierAddress(supplierID string) (string, bool) {
	address, ok := c.addresses[supplierID]
	return address, ok
}

func (c EngineConfig) MinDemandThreshold() int64 { return c.settings.MinDemandThreshold }
func (c EngineConfig) CooldownWindow() time.Duration { return c.cooldown }
func (c EngineConfig) CriticalStockDays() int { return c.settings.CriticalStockDays }
func (c EngineConfig) MaxActiveSKUs() int { return c.maxActive }
func (c EngineConfig) PaymentTTL() time.Duration { return c.paymentTTL }

func sumsToOne(ppm int64) bool {
	diff := ppm - ratioScale
	return diff >= -ppmTolerance && diff <= ppmTolerance
}

func toPPM(ratio float64) int64 {
	return int64(math.Round(ratio * ratioScale))
}

func copyMap[K comparable, V any](in map[K]V) map[K]V {
	if in == nil {
		return nil
	}
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
