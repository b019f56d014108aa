package domain

import (
	"fmt"
	"strings"
)

// Tier is the relative priority class assigned to a candidate within one cycle.
type Tier int

const (
	TierLow    Tier = 1
	TierMedium Tier = 2
	TierHigh   Tier = 3
)

// Tiers lists every tier from highest to lowest priority.
var Tiers = []Tier{TierHigh, TierMedium, TierLow}

var tierLabels = map[Tier]string{
	TierLow:    "LOW",
	TierMedium: "MEDIUM",
	TierHigh:   "HIGH",
}

var tierCodes = map[string]Tier{
	"low":    TierLow,
	"medium": TierMedium,
	"high":   TierHigh,
	"1":      TierLow,
	"2":      TierMedium,
	"3":      TierHigh,
}

// String returns the upper-case label of the tier.
func (t Tier) String() string {
	if label, ok := tierLabels[t]; ok {
		return label
	}

	return "UNKNOWN"
}

// ParseTier returns the tier for a label (case-insensitive) or its numeric code.
func ParseTier(label string) (Tier, bool) {
	tier, ok := tierCodes[strings.ToLower(strings.TrimSpace(label))]

	return tier, ok
}

// Valid reports whether t is one of the three known tiers.
func (t Tier) Valid() bool {
	_, ok := tierLabels[t]
	return ok
}

func (t Tier) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid tier %d", int(t))
	}
	return []byte(t.String()), nil
}

func (t *Tier) UnmarshalText(text []byte) error {
	parsed, ok := ParseTier(string(text))
	if !ok {
		return fmt.Errorf("invalid tier %q", string(text))
	}
	*t = parsed
	return nil
}
