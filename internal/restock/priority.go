package restock

import (
	"sort"

	"github.com/andresuchdata/stockeasy/internal/domain"
)

const (
	highTierRatio   = 0.7
	mediumTierRatio = 0.4
)

// ClassifyTier places demand relative to the batch peak. A zero peak puts
// everything in the lowest tier.
func ClassifyTier(demand, maxDemand int64) domain.Tier {
	if maxDemand <= 0 || demand <= 0 {
		return domain.TierLow
	}
	demand = min(demand, maxDemand)
	if maxDemand > MaxUnits {
		scale := maxDemand/MaxUnits + 1
		demand, maxDemand = demand/scale, maxDemand/scale
	}

	// Compare with integer cross-multiplication: demand/max >= 0.7 <=> 10*demand >= 7*max.
	switch {
	case demand*10 >= maxDemand*int64(highTierRatio*10):
		return domain.TierHigh
	case demand*10 >= maxDemand*int64(mediumTierRatio*10):
		return domain.TierMedium
	default:
		return domain.TierLow
	}
}

// ClassifyTiers assigns a tier to every candidate in place, relative to the
// peak predicted demand of the batch.
func ClassifyTiers(items []domain.CandidateItem) {
	var maxDemand int64
	for _, item := range items {
		if item.PredictedDemand > maxDemand {
			maxDemand = item.PredictedDemand
		}
	}

	for i := range items {
		items[i].Tier = ClassifyTier(items[i].PredictedDemand, maxDemand)
	}
}

// OrderedCandidate pairs a candidate with its computed need.
type OrderedCandidate struct {
	Item domain.CandidateItem
	Need Need
}

// OrderCandidates keeps candidates that need restocking and meet the demand
// threshold, then stable-sorts them by tier and demand, both descending.
// maxActive caps the result when positive.
func OrderCandidates(items []domain.CandidateItem, minDemand int64, maxActive int) []OrderedCandidate {
	ordered := make([]OrderedCandidate, 0, len(items))
	for _, item := range items {
		need := CalculateNeed(item.PredictedDemand, item.CurrentStock)
		if need.Action != ActionRestock {
			continue
		}
		if item.PredictedDemand < minDemand {
			continue
		}
		ordered = append(ordered, OrderedCandidate{Item: item, Need: need})
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i].Item, ordered[j].Item
		if a.Tier != b.Tier {
			return a.Tier > b.Tier
		}
		return a.PredictedDemand > b.PredictedDemand
	})

	if maxActive > 0 && len(ordered) > maxActive {
		ordered = ordered[:maxActive]
	}

	return ordered
}
