package jobs

import (
	"fmt"
	"log/slog"
	"time"

	"production/internal/core/application/eventbus"
)

// JobManager coordinates all scheduled jobs in the application.
// Provides a unified interface to start and stop all background jobs.
type JobManager struct {
	eventSweepJob  *EventSweepJob
	eventReaperJob *EventReaperJob
}

// NewJobManager creates a new job manager with all required jobs.
func NewJobManager(
	bus *eventbus.Bus,
	sweepBatchSize int,
	reaperStaleness time.Duration,
	logger *slog.Logger,
) *JobManager {
	return &JobManager{
		eventSweepJob:  NewEventSweepJob(bus, sweepBatchSize, logger),
		eventReaperJob: NewEventReaperJob(bus, reaperStaleness, logger),
	}
}

// StartAll starts all scheduled jobs.
// Returns an error if any job fails to start.
func (jm *JobManager) StartAll() error {
	if err := jm.eventSweepJob.Start(); err != nil {
		return fmt.Errorf("failed to start event sweep job: %w", err)
	}

	if err := jm.eventReaperJob.Start(); err != nil {
		// Stop already started jobs if this one fails
		jm.eventSweepJob.Stop()
		return fmt.Errorf("failed to start event reaper job: %w", err)
	}

	return nil
}

// StopAll stops all scheduled jobs gracefully.
func (jm *JobManager) StopAll() {
	jm.eventSweepJob.Stop()
	jm.eventReaperJob.Stop()
}
