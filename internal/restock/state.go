package restock

import (
	"sync"
	"time"

	"github.com/andresuchdata/stockeasy/internal/domain"
)

// EngineState is the state shared between cycles: when the last successful
// restock happened and the report it produced. All access goes through its
// methods.
type EngineState struct {
	mu            sync.Mutex
	lastRestockAt time.Time
	hasRestocked  bool
	lastCycleID   string
	lastReport    *domain.CycleReport

	// issuedAt is the start time of the newest cycle id handed out, committed
	// or not, so ids stay strictly increasing.
	issuedAt time.Time
}

func NewEngineState() *EngineState {
	return &EngineState{}
}

// LastRestockAt returns the time of the last cycle that produced a decision.
func (s *EngineState) LastRestockAt() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRestockAt, s.hasRestocked
}

// LastReport returns the report of the last committed cycle, or nil.
func (s *EngineState) LastReport() *domain.CycleReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastReport
}

// Restore seeds the state from durable history, e.g. at process start.
func (s *EngineState) Restore(lastRestockAt time.Time, lastCycleID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if lastRestockAt.IsZero() {
		return
	}
	s.lastRestockAt = lastRestockAt
	s.hasRestocked = true
	s.lastCycleID = lastCycleID
	if lastRestockAt.After(s.issuedAt) {
		s.issuedAt = lastRestockAt
	}
}

// Snapshot returns the state as a value for reporting.
func (s *EngineState) Snapshot(cfg EngineConfig) domain.CycleState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.CycleState{
		LastRestockAt:     s.lastRestockAt,
		HasRestocked:      s.hasRestocked,
		LastCycleID:       s.lastCycleID,
		CooldownWindow:    cfg.CooldownWindow(),
		CriticalStockDays: cfg.CriticalStockDays(),
	}
}

// issueCycleID returns a unique, increasing cycle id and the instant it names.
func (s *EngineState) issueCycleID(now time.Time) (string, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !now.After(s.issuedAt) {
		now = s.issuedAt.Add(time.Microsecond)
	}
	s.issuedAt = now
	return now.Format(cycleIDLayout), now
}

func (s *EngineState) commit(report *domain.CycleReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastRestockAt = report.StartedAt
	s.hasRestocked = true
	s.lastCycleID = report.CycleID
	s.lastReport = report
}

// cycleIDLayout is ISO-8601 with a fixed microsecond fraction so ids sort
// lexically in time order.
const cycleIDLayout = "2006-01-02T15:04:05.000000Z07:00"
