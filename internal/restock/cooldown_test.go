package restock

import (
	"testing"
	"time"

	"github.com/andresuchdata/stockeasy/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestCooldownController_Evaluate(t *testing.T) {
	week := 7 * 24 * time.Hour
	c := NewCooldownController(week, 2)

	healthy := []domain.CandidateItem{{ProductID: "p1", CurrentStock: 100, AvgDailySales: 5}}
	critical := []domain.CandidateItem{
		{ProductID: "p1", CurrentStock: 100, AvgDailySales: 5},
		{ProductID: "p2", CurrentStock: 1, AvgDailySales: 5},
	}

	tests := []struct {
		name         string
		sinceRestock time.Duration
		hasRestocked bool
		items        []domain.CandidateItem
		wantState    CooldownState
		wantSkip     bool
	}{
		{"no prior cycle", 0, false, healthy, StateNormal, false},
		{"inside cooldown", 24 * time.Hour, true, healthy, StateCooldown, true},
		{"window elapsed", week, true, healthy, StateNormal, false},
		{"critical overrides cooldown", time.Hour, true, critical, StateNormal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Evaluate(baseTime.Add(tt.sinceRestock), baseTime, tt.hasRestocked, tt.items)
			assert.Equal(t, tt.wantState, got.State)
			assert.Equal(t, tt.wantSkip, got.Skip)
		})
	}
}

func TestCooldownController_ReportsCriticalProducts(t *testing.T) {
	c := NewCooldownController(24*time.Hour, 2)
	items := []domain.CandidateItem{
		{ProductID: "p1", CurrentStock: 1, AvgDailySales: 5},
		{ProductID: "p2", CurrentStock: 10, AvgDailySales: 5},
	}

	got := c.Evaluate(baseTime.Add(time.Minute), baseTime, true, items)
	assert.Equal(t, []string{"p1"}, got.Critical, "stock equal to the threshold is not critical")
}

func TestIsCritical_ZeroDaysNeverCritical(t *testing.T) {
	assert.False(t, IsCritical(domain.CandidateItem{CurrentStock: 0, AvgDailySales: 10}, 0))
}
