package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/andresuchdata/stockeasy/internal/domain"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveCycle(t *testing.T) {
	r := NewRecorder()

	report := &domain.CycleReport{
		Status:          domain.CycleExecuted,
		Decisions:       []domain.Decision{{Tier: domain.TierHigh}, {Tier: domain.TierHigh}, {Tier: domain.TierLow}},
		Skipped:         []domain.SkippedCandidate{{ProductID: "p9"}},
		SupplierSpend:   map[string]domain.Money{"SUP1": domain.FromUnits(700)},
		BudgetRemaining: domain.FromUnits(300),
	}
	r.ObserveCycle(report, time.Second, nil)
	r.ObserveCycle(&domain.CycleReport{Status: domain.CycleSkipped}, time.Millisecond, nil)
	r.ObserveCycle(&domain.CycleReport{Status: domain.CycleEmpty}, time.Millisecond, errors.New("empty"))
	r.ObserveCycle(nil, time.Millisecond, errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(r.cycles.WithLabelValues("EXECUTED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.cycles.WithLabelValues("SKIPPED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.cycles.WithLabelValues("EMPTY")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.cycles.WithLabelValues("ERROR")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.decisions.WithLabelValues("HIGH")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.decisions.WithLabelValues("LOW")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.skipped))
	assert.Equal(t, 700.0, testutil.ToFloat64(r.spend.WithLabelValues("SUP1")))
	assert.Equal(t, 300.0, testutil.ToFloat64(r.budgetLeft))
}

func TestObservePayments(t *testing.T) {
	r := NewRecorder()
	r.ObservePayments([]domain.Transaction{
		{Status: domain.TransactionSent},
		{Status: domain.TransactionRejected},
		{Status: domain.TransactionSent},
	})
	assert.Equal(t, 2.0, testutil.ToFloat64(r.payments.WithLabelValues("SENT")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.payments.WithLabelValues("REJECTED")))
}

func TestHandler(t *testing.T) {
	r := NewRecorder()
	r.ObserveCycle(&domain.CycleReport{Status: domain.CycleSkipped}, time.Millisecond, nil)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `stockeasy_restock_cycles_total{status="SKIPPED"} 1`)
}
