// internal/service/restock_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/andresuchdata/stockeasy/internal/cache"
	"github.com/andresuchdata/stockeasy/internal/domain"
	"github.com/andresuchdata/stockeasy/internal/metrics"
	"github.com/andresuchdata/stockeasy/internal/notify"
	"github.com/andresuchdata/stockeasy/internal/payment"
	"github.com/andresuchdata/stockeasy/internal/repository"
	"github.com/andresuchdata/stockeasy/internal/restock"
	"github.com/andresuchdata/stockeasy/pkg/logger"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const recentDecisionsLimit = 5

// Archiver stores a copy of a committed report outside the database.
type Archiver interface {
	Archive(ctx context.Context, report *domain.CycleReport) (string, error)
}

// Deps are the collaborators of a RestockService. Cache, Archiver, Notifier,
// Payments and Metrics are optional.
type Deps struct {
	Engine       *restock.Engine
	Configs      repository.AgentConfigRepository
	Cycles       repository.CycleRepository
	Transactions repository.TransactionRepository
	Cache        cache.RestockCache
	Archiver     Archiver
	Notifier     notify.Notifier
	Payments     *payment.Executor
	Metrics      *metrics.Recorder
	// Defaults apply when no agent config was saved.
	Defaults restock.Settings
	// Whitelist extends the supplier address map for payment validation.
	Whitelist []string
	Now       func() time.Time
}

// RunResult is what a triggered cycle produced.
type RunResult struct {
	Report       *domain.CycleReport  `json:"report"`
	Transactions []domain.Transaction `json:"transactions,omitempty"`
}

type RestockService struct {
	deps Deps
	log  zerolog.Logger
}

func NewRestockService(deps Deps) *RestockService {
	if deps.Cache == nil {
		deps.Cache = cache.NewNoopRestockCache()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &RestockService{deps: deps, log: logger.With("restock_service")}
}

// Restore seeds the cooldown state from the last persisted restock so a
// restart does not reopen the window.
func (s *RestockService) Restore(ctx context.Context) error {
	report, err := s.deps.Cycles.LastRestock(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load last restock: %w", err)
	}
	s.deps.Engine.State().Restore(report.StartedAt, report.CycleID)
	s.log.Info().Str("cycle_id", report.CycleID).Time("last_restock_at", report.StartedAt).Msg("Restored cycle state")
	return nil
}

// Settings returns the saved agent config, or the defaults if none was saved.
func (s *RestockService) Settings(ctx context.Context) (restock.Settings, error) {
	settings, err := s.deps.Configs.LoadAgentConfig(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return s.deps.Defaults, nil
	}
	if err != nil {
		return restock.Settings{}, fmt.Errorf("load agent config: %w", err)
	}
	return settings, nil
}

// SaveControlPanel maps a control panel payload onto the current settings,
// validates the result and stores it.
func (s *RestockService) SaveControlPanel(ctx context.Context, cp restock.ControlPanelConfig) (restock.Settings, error) {
	base, err := s.Settings(ctx)
	if err != nil {
		return restock.Settings{}, err
	}
	settings, err := restock.FromControlPanel(cp, base)
	if err != nil {
		return restock.Settings{}, fmt.Errorf("%w: %w", restock.ErrInvalidConfig, err)
	}
	return s.SaveSettings(ctx, settings)
}

func (s *RestockService) SaveSettings(ctx context.Context, settings restock.Settings) (restock.Settings, error) {
	cfg, err := restock.NewEngineConfig(settings)
	if err != nil {
		return restock.Settings{}, err
	}
	if err := s.deps.Configs.SaveAgentConfig(ctx, cfg.Settings()); err != nil {
		return restock.Settings{}, fmt.Errorf("save agent config: %w", err)
	}
	if err := s.deps.Cache.InvalidateAll(ctx); err != nil {
		s.log.Warn().Err(err).Msg("failed to invalidate restock cache")
	}
	return cfg.Settings(), nil
}

func (s *RestockService) engineConfig(ctx context.Context) (restock.EngineConfig, error) {
	settings, err := s.Settings(ctx)
	if err != nil {
		return restock.EngineConfig{}, err
	}
	return restock.NewEngineConfig(settings)
}

// Preview evaluates a cycle without committing it. Results are cached per
// settings until the next run or config change.
func (s *RestockService) Preview(ctx context.Context) (*domain.CycleReport, error) {
	cfg, err := s.engineConfig(ctx)
	if err != nil {
		return nil, err
	}
	settings := cfg.Settings()

	if cached, ok, err := s.deps.Cache.GetPreview(ctx, settings); err != nil {
		s.log.Warn().Err(err).Msg("preview cache read failed")
	} else if ok {
		return cached, nil
	}

	report, err := s.deps.Engine.Preview(ctx, cfg)
	if err != nil {
		return report, err
	}
	if err := s.deps.Cache.SetPreview(ctx, settings, report); err != nil {
		s.log.Warn().Err(err).Msg("preview cache write failed")
	}
	return report, nil
}

// Run executes one cycle. A report with decisions is persisted before the
// engine records it as the last restock, so a failed save leaves the
// cooldown untouched. Payments run only after the report is durable.
func (s *RestockService) Run(ctx context.Context, executePayments bool) (*RunResult, error) {
	cfg, err := s.engineConfig(ctx)
	if err != nil {
		return nil, err
	}

	started := s.deps.Now()
	report, err := s.deps.Engine.RunCycle(ctx, cfg, s.persist)
	if s.deps.Metrics != nil {
		s.deps.Metrics.ObserveCycle(report, s.deps.Now().Sub(started), err)
	}
	if err != nil {
		return &RunResult{Report: report}, err
	}

	result := &RunResult{Report: report}
	if report.Status != domain.CycleExecuted || len(report.Decisions) == 0 {
		return result, nil
	}
	s.afterCommit(ctx, report)

	if executePayments && s.deps.Payments != nil {
		whitelist := append(cfg.AddressList(), s.deps.Whitelist...)
		validator := payment.NewValidator(whitelist, domain.FromUnits(cfg.Settings().MonthlyBudget))
		txs, err := s.deps.Payments.Execute(ctx, report, validator)
		result.Transactions = txs
		if s.deps.Metrics != nil {
			s.deps.Metrics.ObservePayments(txs)
		}
		if err != nil {
			return result, fmt.Errorf("execute payments for %s: %w", report.CycleID, err)
		}
	}
	return result, nil
}

func (s *RestockService) persist(ctx context.Context, report *domain.CycleReport) error {
	if err := s.deps.Cycles.SaveReport(ctx, report); err != nil {
		return fmt.Errorf("persist cycle %s: %w", report.CycleID, err)
	}
	return nil
}

// afterCommit fans the side effects of a committed cycle out concurrently.
// Failures are logged; the cycle stands either way.
func (s *RestockService) afterCommit(ctx context.Context, report *domain.CycleReport) {
	log := s.log.With().Str("cycle_id", report.CycleID).Logger()

	var g errgroup.Group
	g.Go(func() error {
		if err := s.deps.Cache.InvalidateAll(ctx); err != nil {
			return fmt.Errorf("invalidate cache: %w", err)
		}
		if err := s.deps.Cache.SetLastReport(ctx, report); err != nil {
			return fmt.Errorf("cache last report: %w", err)
		}
		return nil
	})
	if s.deps.Archiver != nil {
		g.Go(func() error {
			key, err := s.deps.Archiver.Archive(ctx, report)
			if err != nil {
				return fmt.Errorf("archive report: %w", err)
			}
			log.Debug().Str("key", key).Msg("Archived report")
			return nil
		})
	}
	if s.deps.Notifier != nil {
		g.Go(func() error {
			if err := s.deps.Notifier.Notify(ctx, report); err != nil {
				return fmt.Errorf("notify: %w", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Warn().Err(err).Msg("post-cycle side effect failed")
	}
}

// LastReport returns the most recent committed report.
func (s *RestockService) LastReport(ctx context.Context) (*domain.CycleReport, error) {
	if report := s.deps.Engine.State().LastReport(); report != nil {
		return report, nil
	}
	if report, ok, err := s.deps.Cache.GetLastReport(ctx); err != nil {
		s.log.Warn().Err(err).Msg("last report cache read failed")
	} else if ok {
		return report, nil
	}
	return s.deps.Cycles.LastRestock(ctx)
}

func (s *RestockService) Transactions(ctx context.Context, limit int) ([]domain.Transaction, error) {
	return s.deps.Transactions.ListTransactions(ctx, limit)
}

// CycleState reports the cooldown state under the current settings.
func (s *RestockService) CycleState(ctx context.Context) (domain.CycleState, error) {
	cfg, err := s.engineConfig(ctx)
	if err != nil {
		return domain.CycleState{}, err
	}
	return s.deps.Engine.State().Snapshot(cfg), nil
}
