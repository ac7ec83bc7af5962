package jobs

import (
	"context"
	"log/slog"
	"sync/atomic"

	"production/internal/core/application/eventbus"

	"github.com/robfig/cron/v3"
)

// EventSweepJob periodically re-drives Open events. The inline dispatch
// after a commit handles the common case; the sweep picks up events whose
// dispatch was lost to a crash and events returned to Open by a failed
// attempt.
type EventSweepJob struct {
	bus       *eventbus.Bus
	cron      *cron.Cron
	logger    *slog.Logger
	batchSize int

	// running keeps a slow sweep from stacking up behind itself.
	running atomic.Bool
}

// NewEventSweepJob creates a job that sweeps the event log every 10 seconds.
func NewEventSweepJob(bus *eventbus.Bus, batchSize int, logger *slog.Logger) *EventSweepJob {
	return &EventSweepJob{
		bus:       bus,
		cron:      cron.New(cron.WithSeconds()),
		logger:    logger.With("component", "event_sweep_job"),
		batchSize: batchSize,
	}
}

// Start begins the sweep job.
func (j *EventSweepJob) Start() error {
	_, err := j.cron.AddFunc("*/10 * * * * *", func() {
		if !j.running.CompareAndSwap(false, true) {
			return
		}
		defer j.running.Store(false)

		ctx := context.Background()
		processed, sweepErr := j.bus.ProcessOpenBatch(ctx, j.batchSize)
		if sweepErr != nil {
			j.logger.ErrorContext(ctx, "Event sweep failed", "error", sweepErr)
			return
		}

		if processed > 0 {
			j.logger.InfoContext(ctx, "Event sweep re-drove events", "count", processed)
		}
	})

	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Event sweep job started (running every 10 seconds)")
	return nil
}

// Stop stops the sweep job.
func (j *EventSweepJob) Stop() {
	j.cron.Stop()
	j.logger.InfoContext(context.Background(), "Event sweep job stopped")
}
