package restock

import (
	"fmt"
	"strings"
	"time"

	"github.com/andresuchdata/stockeasy/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// IntentSynthesizer turns an accepted decision's cost into a payment intent.
// Conversion is integer only: amount = minor * 10^decimals / (rate * 100),
// truncated.
type IntentSynthesizer struct {
	rate     decimal.Decimal
	scale    decimal.Decimal
	ttl      time.Duration
	token    string
	idSuffix func() string
}

func NewIntentSynthesizer(cfg EngineConfig) *IntentSynthesizer {
	s := cfg.settings
	return &IntentSynthesizer{
		rate:     decimal.NewFromInt(s.ConversionRate).Mul(decimal.NewFromInt(domain.MinorUnitsPerUnit)),
		scale:    decimal.New(1, s.TokenDecimals),
		ttl:      cfg.paymentTTL,
		token:    s.Token,
		idSuffix: randomSuffix,
	}
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// ToSmallestUnit converts a home-currency amount to the token's smallest unit.
func (s *IntentSynthesizer) ToSmallestUnit(amount domain.Money) decimal.Decimal {
	q, _ := decimal.NewFromInt(int64(amount)).Mul(s.scale).QuoRem(s.rate, 0)
	return q
}

// Synthesize builds the intent for one decision. The validity window starts
// at the cycle start, not at the time of the call.
func (s *IntentSynthesizer) Synthesize(cycleID string, cycleStart time.Time, supplierID, address string, cost domain.Money) domain.PaymentIntent {
	return domain.PaymentIntent{
		IntentID:        fmt.Sprintf("restock-%s-%s-%s", cycleID, supplierID, s.idSuffix()),
		SupplierAddress: address,
		Amount:          s.ToSmallestUnit(cost),
		Token:           s.token,
		ValidFrom:       cycleStart,
		ValidUntil:      cycleStart.Add(s.ttl),
		Reason:          IntentReason,
	}
}
