// Package forecast predicts short-horizon demand from sales velocity.
package forecast

import (
	"context"
	"math"

	"github.com/andresuchdata/stockeasy/internal/domain"
	"gonum.org/v1/gonum/stat"
)

const (
	DefaultHorizonDays = 7
	defaultMinHistory  = 3
)

// VelocityForecaster projects demand over a horizon. With enough daily sales
// history it extrapolates a least-squares trend, with a short history it uses
// the mean, and with none it falls back to the record's average daily sales.
type VelocityForecaster struct {
	horizon    int
	minHistory int
}

type Option func(*VelocityForecaster)

func WithHorizon(days int) Option {
	return func(f *VelocityForecaster) {
		if days > 0 {
			f.horizon = days
		}
	}
}

// WithMinHistory sets how many points are needed before a trend is fitted.
func WithMinHistory(n int) Option {
	return func(f *VelocityForecaster) {
		if n >= 2 {
			f.minHistory = n
		}
	}
}

func NewVelocityForecaster(opts ...Option) *VelocityForecaster {
	f := &VelocityForecaster{horizon: DefaultHorizonDays, minHistory: defaultMinHistory}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Forecast returns one prediction per record, in order.
func (f *VelocityForecaster) Forecast(ctx context.Context, records []domain.InventoryRecord) ([]int64, error) {
	out := make([]int64, len(records))
	for i, r := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = f.predict(r)
	}
	return out, nil
}

func (f *VelocityForecaster) predict(r domain.InventoryRecord) int64 {
	history := r.SalesHistory
	var total float64

	switch {
	case len(history) >= f.minHistory:
		xs := make([]float64, len(history))
		for i := range xs {
			xs[i] = float64(i)
		}
		alpha, beta := stat.LinearRegression(xs, history, nil, false)
		for day := len(history); day < len(history)+f.horizon; day++ {
			total += math.Max(0, alpha+beta*float64(day))
		}
	case len(history) > 0:
		total = stat.Mean(history, nil) * float64(f.horizon)
	default:
		total = r.AvgDailySales * float64(f.horizon)
	}

	if total <= 0 || math.IsNaN(total) {
		return 0
	}
	// Round away float noise from the fit before taking the ceiling.
	return int64(math.Ceil(math.Round(total*1e6) / 1e6))
}
