// Package notify tells the owner what a restock cycle did.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/andresuchdata/stockeasy/internal/domain"
	"github.com/rs/zerolog"
)

// Notifier delivers a cycle report somewhere a human or another service will
// see it.
type Notifier interface {
	Notify(ctx context.Context, report *domain.CycleReport) error
}

// FormatSummary renders a short plain-text summary of a report.
func FormatSummary(report *domain.CycleReport) string {
	var b strings.Builder
	switch report.Status {
	case domain.CycleExecuted:
		fmt.Fprintf(&b, "Restock cycle %s placed %d order(s) for Rs %s of a Rs %s cycle budget.",
			report.CycleID, len(report.Decisions), report.TotalSpent, report.CycleBudget)
	default:
		fmt.Fprintf(&b, "Restock cycle %s %s", report.CycleID, strings.ToLower(string(report.Status)))
		if report.Reason != "" {
			fmt.Fprintf(&b, ": %s", report.Reason)
		}
		b.WriteString(".")
	}
	for _, d := range report.Decisions {
		fmt.Fprintf(&b, "\n- %s x%d from %s (Rs %s, %s)", d.ProductID, d.Quantity, d.SupplierID, d.TotalCost, d.Tier)
	}
	if n := len(report.Skipped); n > 0 {
		fmt.Fprintf(&b, "\n%d candidate(s) skipped.", n)
	}
	return b.String()
}

// LogNotifier writes the summary to a structured logger.
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(ctx context.Context, report *domain.CycleReport) error {
	n.log.Info().
		Str("cycle_id", report.CycleID).
		Str("status", string(report.Status)).
		Int("decisions", len(report.Decisions)).
		Str("total_spent", report.TotalSpent.String()).
		Msg(FormatSummary(report))
	return nil
}

// Multi fans a report out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, report *domain.CycleReport) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, report); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
