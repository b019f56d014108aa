package notify

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/andresuchdata/stockeasy/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executedReport() *domain.CycleReport {
	return &domain.CycleReport{
		CycleID:     "c1",
		Status:      domain.CycleExecuted,
		CycleBudget: domain.FromUnits(125_000),
		TotalSpent:  domain.FromUnits(700),
		Decisions: []domain.Decision{
			{ProductID: "p1", SupplierID: "SUP1", Quantity: 70, TotalCost: domain.FromUnits(700), Tier: domain.TierHigh},
		},
		Skipped: []domain.SkippedCandidate{{ProductID: "p2"}},
	}
}

func TestFormatSummary(t *testing.T) {
	assert.Equal(t,
		"Restock cycle c1 placed 1 order(s) for Rs 700.00 of a Rs 125000.00 cycle budget.\n"+
			"- p1 x70 from SUP1 (Rs 700.00, HIGH)\n"+
			"1 candidate(s) skipped.",
		FormatSummary(executedReport()))

	assert.Equal(t, "Restock cycle c2 skipped: Cooldown active.",
		FormatSummary(&domain.CycleReport{CycleID: "c2", Status: domain.CycleSkipped, Reason: "Cooldown active"}))
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(zerolog.New(&buf))

	require.NoError(t, n.Notify(context.Background(), executedReport()))
	assert.Contains(t, buf.String(), `"cycle_id":"c1"`)
	assert.Contains(t, buf.String(), `"decisions":1`)
}

type failingNotifier struct{ err error }

func (f failingNotifier) Notify(context.Context, *domain.CycleReport) error { return f.err }

func TestMulti(t *testing.T) {
	a, b := errors.New("a"), errors.New("b")
	var buf bytes.Buffer
	m := Multi{failingNotifier{a}, NewLogNotifier(zerolog.New(&buf)), failingNotifier{b}}

	err := m.Notify(context.Background(), executedReport())
	assert.ErrorIs(t, err, a)
	assert.ErrorIs(t, err, b)
	assert.NotEmpty(t, buf.String())

	assert.NoError(t, Multi{}.Notify(context.Background(), executedReport()))
}

func TestNewEvent(t *testing.T) {
	ev := NewEvent(executedReport())
	assert.Equal(t, "restock.cycle", ev.Type)
	assert.Equal(t, 1, ev.Decisions)
	assert.Equal(t, 1, ev.Skipped)
	assert.Equal(t, domain.FromUnits(700), ev.TotalSpent)
}
