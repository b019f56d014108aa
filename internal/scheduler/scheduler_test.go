package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/andresuchdata/stockeasy/internal/domain"
	"github.com/andresuchdata/stockeasy/internal/restock"
	"github.com/andresuchdata/stockeasy/internal/service"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type runnerFunc func(ctx context.Context, executePayments bool) (*service.RunResult, error)

func (f runnerFunc) Run(ctx context.Context, executePayments bool) (*service.RunResult, error) {
	return f(ctx, executePayments)
}

func TestRestockJob_Run(t *testing.T) {
	boom := errors.New("db down")
	tests := []struct {
		name    string
		err     error
		wantErr error
	}{
		{"executed", nil, nil},
		{"busy is ignored", restock.ErrCycleBusy, nil},
		{"empty is ignored", restock.ErrEmptySnapshot, nil},
		{"other errors surface", boom, boom},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotPayments bool
			var hasDeadline bool
			job := NewRestockJob(RestockJobConfig{
				Log:             zerolog.Nop(),
				ExecutePayments: true,
				Runner: runnerFunc(func(ctx context.Context, executePayments bool) (*service.RunResult, error) {
					gotPayments = executePayments
					_, hasDeadline = ctx.Deadline()
					if tt.err != nil {
						return nil, tt.err
					}
					return &service.RunResult{Report: &domain.CycleReport{CycleID: "c1", Status: domain.CycleExecuted}}, nil
				}),
			})

			err := job.Run()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.True(t, gotPayments)
			assert.True(t, hasDeadline)
		})
	}
}

func TestScheduler_AddJob(t *testing.T) {
	s := New(zerolog.Nop())
	job := NewRestockJob(RestockJobConfig{Log: zerolog.Nop(), Runner: runnerFunc(nil)})

	require.NoError(t, s.AddJob("@every 1h", job))
	assert.Equal(t, 1, s.Entries())

	assert.Error(t, s.AddJob("not a schedule", job))
}

func TestScheduler_RunsJob(t *testing.T) {
	var calls atomic.Int32
	job := NewRestockJob(RestockJobConfig{
		Log: zerolog.Nop(),
		Runner: runnerFunc(func(ctx context.Context, executePayments bool) (*service.RunResult, error) {
			calls.Add(1)
			return &service.RunResult{Report: &domain.CycleReport{Status: domain.CycleSkipped}}, nil
		}),
	})

	s := New(zerolog.Nop())
	require.NoError(t, s.AddJob("@every 1s", job))
	s.Start()
	defer s.Stop()

	require.Eventually(t, func() bool { return calls.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
}

func TestScheduler_RunNow(t *testing.T) {
	s := New(zerolog.Nop())
	job := NewRestockJob(RestockJobConfig{
		Log: zerolog.Nop(),
		Runner: runnerFunc(func(ctx context.Context, executePayments bool) (*service.RunResult, error) {
			return nil, restock.ErrCycleBusy
		}),
	})
	assert.NoError(t, s.RunNow(job))
}
