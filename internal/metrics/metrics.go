// Package metrics exposes restock cycle counters in Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/andresuchdata/stockeasy/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder owns the restock collectors and the registry they live in.
type Recorder struct {
	registry      *prometheus.Registry
	cycles        *prometheus.CounterVec
	decisions     *prometheus.CounterVec
	skipped       prometheus.Counter
	spend         *prometheus.CounterVec
	cycleDuration prometheus.Histogram
	budgetLeft    prometheus.Gauge
	payments      *prometheus.CounterVec
}

func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Recorder{
		registry: reg,
		cycles: f.NewCounterVec(prometheus.CounterOpts{
			Name: "stockeasy_restock_cycles_total",
			Help: "Restock cycles by outcome.",
		}, []string{"status"}),
		decisions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "stockeasy_restock_decisions_total",
			Help: "Accepted restock decisions by priority tier.",
		}, []string{"priority"}),
		skipped: f.NewCounter(prometheus.CounterOpts{
			Name: "stockeasy_restock_skipped_total",
			Help: "Candidates that needed stock but were not funded.",
		}),
		spend: f.NewCounterVec(prometheus.CounterOpts{
			Name: "stockeasy_restock_spend_total",
			Help: "Committed restock spend in home currency units, by supplier.",
		}, []string{"supplier"}),
		cycleDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "stockeasy_restock_cycle_duration_seconds",
			Help:    "Wall time of a restock cycle.",
			Buckets: prometheus.DefBuckets,
		}),
		budgetLeft: f.NewGauge(prometheus.GaugeOpts{
			Name: "stockeasy_restock_cycle_budget_remaining",
			Help: "Unspent cycle budget of the last executed cycle.",
		}),
		payments: f.NewCounterVec(prometheus.CounterOpts{
			Name: "stockeasy_payments_total",
			Help: "Payment attempts by status.",
		}, []string{"status"}),
	}
}

// ObserveCycle records a finished cycle. A nil report counts as an error.
func (r *Recorder) ObserveCycle(report *domain.CycleReport, took time.Duration, err error) {
	r.cycleDuration.Observe(took.Seconds())
	if report == nil {
		r.cycles.WithLabelValues("ERROR").Inc()
		return
	}
	if err != nil && report.Status != domain.CycleEmpty {
		r.cycles.WithLabelValues("ERROR").Inc()
		return
	}

	r.cycles.WithLabelValues(string(report.Status)).Inc()
	if report.Status != domain.CycleExecuted {
		return
	}
	for _, d := range report.Decisions {
		r.decisions.WithLabelValues(d.Tier.String()).Inc()
	}
	for supplier, amount := range report.SupplierSpend {
		r.spend.WithLabelValues(supplier).Add(amount.Decimal().InexactFloat64())
	}
	r.skipped.Add(float64(len(report.Skipped)))
	r.budgetLeft.Set(report.BudgetRemaining.Decimal().InexactFloat64())
}

func (r *Recorder) ObservePayments(txs []domain.Transaction) {
	for _, tx := range txs {
		r.payments.WithLabelValues(string(tx.Status)).Inc()
	}
}

// Handler serves the registry for scraping.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}
