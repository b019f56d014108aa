package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/andresuchdata/stockeasy/internal/restock"
	"github.com/andresuchdata/stockeasy/internal/service"
	"github.com/rs/zerolog"
)

const defaultCycleTimeout = 5 * time.Minute

// CycleRunner runs one restock cycle.
type CycleRunner interface {
	Run(ctx context.Context, executePayments bool) (*service.RunResult, error)
}

// RestockJob triggers a restock cycle. A cycle already in flight, e.g. one
// started from the API, is not an error.
type RestockJob struct {
	runner          CycleRunner
	executePayments bool
	timeout         time.Duration
	log             zerolog.Logger
}

type RestockJobConfig struct {
	Log             zerolog.Logger
	Runner          CycleRunner
	ExecutePayments bool
	Timeout         time.Duration
}

func NewRestockJob(cfg RestockJobConfig) *RestockJob {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultCycleTimeout
	}
	return &RestockJob{
		runner:          cfg.Runner,
		executePayments: cfg.ExecutePayments,
		timeout:         timeout,
		log:             cfg.Log.With().Str("job", "restock_cycle").Logger(),
	}
}

func (j *RestockJob) Name() string {
	return "restock_cycle"
}

func (j *RestockJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	result, err := j.runner.Run(ctx, j.executePayments)
	switch {
	case errors.Is(err, restock.ErrCycleBusy):
		j.log.Info().Msg("Cycle already running, skipping tick")
		return nil
	case errors.Is(err, restock.ErrEmptySnapshot):
		j.log.Warn().Msg("Inventory snapshot is empty")
		return nil
	case err != nil:
		return fmt.Errorf("restock cycle: %w", err)
	}

	report := result.Report
	j.log.Info().
		Str("cycle_id", report.CycleID).
		Str("status", string(report.Status)).
		Int("decisions", len(report.Decisions)).
		Int("transactions", len(result.Transactions)).
		Msg("Restock cycle finished")
	return nil
}
