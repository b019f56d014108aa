// internal/service/dashboard_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/andresuchdata/stockeasy/internal/domain"
	"github.com/andresuchdata/stockeasy/internal/repository"
)

// DashboardStats summarises the last committed cycle and the month's spend
// for the home page.
func (s *RestockService) DashboardStats(ctx context.Context) (*domain.DashboardStats, error) {
	if cached, ok, err := s.deps.Cache.GetDashboard(ctx); err != nil {
		s.log.Warn().Err(err).Msg("dashboard cache read failed")
	} else if ok {
		return cached, nil
	}

	settings, err := s.Settings(ctx)
	if err != nil {
		return nil, err
	}
	now := s.deps.Now()

	used, err := s.deps.Transactions.MonthToDateSpend(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("month spend: %w", err)
	}
	monthly := domain.FromUnits(settings.MonthlyBudget)
	remaining := monthly - used
	if remaining < 0 {
		remaining = 0
	}

	stats := &domain.DashboardStats{
		AgentStatus: domain.AgentStatus{
			IsActive:        true,
			MonthlyBudget:   monthly,
			BudgetUsed:      used,
			BudgetRemaining: remaining,
		},
		RecentDecisions: []domain.Decision{},
	}

	report, err := s.LastReport(ctx)
	switch {
	case err == nil:
	case isNotFound(err):
		report = nil
	default:
		return nil, err
	}

	if report != nil {
		stats.AgentStatus.LastCycleID = report.CycleID
		stats.StockHealth = StockHealthOf(report.Decisions)
		if sameDay(report.StartedAt, now) {
			stats.TodayActivity = domain.TodayActivity{
				ActionsExecuted: len(report.Decisions),
				TotalSpent:      report.TotalSpent,
				ActionsBlocked:  len(report.Skipped),
			}
		}
		n := min(len(report.Decisions), recentDecisionsLimit)
		stats.RecentDecisions = append(stats.RecentDecisions, report.Decisions[:n]...)
	}

	if err := s.deps.Cache.SetDashboard(ctx, stats); err != nil {
		s.log.Warn().Err(err).Msg("dashboard cache write failed")
	}
	return stats, nil
}

// StockHealthOf buckets decisions by how well current stock covers predicted
// demand: fully covered is healthy, at least half is low, anything less is
// critical.
func StockHealthOf(decisions []domain.Decision) domain.StockHealth {
	var h domain.StockHealth
	for _, d := range decisions {
		switch {
		case d.PredictedDemand == 0 || d.CurrentStock >= d.PredictedDemand:
			h.Healthy++
		case 2*d.CurrentStock >= d.PredictedDemand:
			h.Low++
		default:
			h.Critical++
		}
	}
	h.Total = h.Healthy + h.Low + h.Critical
	return h
}

func sameDay(a, b time.Time) bool {
	return a.UTC().Format(time.DateOnly) == b.UTC().Format(time.DateOnly)
}

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
