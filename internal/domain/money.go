package domain

import (
	"fmt"
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// MinorUnitsPerUnit is the number of smallest currency units (paise) in one
// home-currency unit (rupee).
const MinorUnitsPerUnit = 100

// Money is an amount of home currency expressed in minor units.
type Money int64

// FromUnits converts whole currency units into Money.
func FromUnits(units int64) Money {
	return Money(units * MinorUnitsPerUnit)
}

// ParseMoney parses a decimal string such as "10.50" into minor units,
// truncating anything below one minor unit.
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("invalid amount %q: negative", s)
	}
	return Money(d.Shift(2).Truncate(0).IntPart()), nil
}

// Times returns m*qty. It reports false for negative operands and when the
// product does not fit in Money.
func (m Money) Times(qty int64) (Money, bool) {
	if m < 0 || qty < 0 {
		return 0, false
	}
	if m == 0 || qty == 0 {
		return 0, true
	}
	if qty > math.MaxInt64/int64(m) {
		return 0, false
	}
	return m * Money(qty), true
}

// Units returns the whole-unit part of m, dropping minor units.
func (m Money) Units() int64 {
	return int64(m) / MinorUnitsPerUnit
}

// Decimal returns m in display units as an exact decimal.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -2)
}

// String renders m with two decimal places.
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// MarshalJSON emits display units as a JSON number so dashboards keep working
// with plain numeric fields.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal().StringFixed(2)), nil
}

func (m *Money) UnmarshalJSON(data []byte) error {
	s := string(data)
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}
	parsed, err := ParseMoney(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
