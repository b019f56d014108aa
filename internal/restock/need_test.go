package restock

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateNeed(t *testing.T) {
	tests := []struct {
		name     string
		demand   int64
		stock    int64
		action   NeedAction
		required int64
		qty      int64
	}{
		{"restock with buffer", 100, 50, ActionRestock, 120, 70},
		{"buffer is floored", 7, 0, ActionRestock, 8, 8},
		{"stock exactly covers requirement", 100, 120, ActionNoRestock, 120, 0},
		{"stock above requirement", 100, 500, ActionNoRestock, 120, 0},
		{"zero demand never restocks", 0, 0, ActionNoRestock, 0, 0},
		{"negative stock treated as zero", 10, -4, ActionRestock, 12, 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			need := CalculateNeed(tt.demand, tt.stock)
			assert.Equal(t, tt.action, need.Action)
			assert.Equal(t, tt.required, need.Required)
			assert.Equal(t, tt.qty, need.Quantity)
			assert.GreaterOrEqual(t, need.Quantity, int64(0))
		})
	}
}

func TestCalculateNeed_HugeDemandIsClamped(t *testing.T) {
	need := CalculateNeed(math.MaxInt64, 0)

	assert.Equal(t, ActionRestock, need.Action)
	assert.Equal(t, MaxUnits+MaxUnits*safetyBufferPercent/100, need.Required)
	assert.Equal(t, need.Required, need.Quantity)
	assert.Positive(t, need.Quantity)

	need = CalculateNeed(10, math.MaxInt64)
	assert.Equal(t, ActionNoRestock, need.Action)
}
