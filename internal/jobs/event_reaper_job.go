package jobs

import (
	"context"
	"log/slog"
	"time"

	"production/internal/core/application/eventbus"

	"github.com/robfig/cron/v3"
)

// EventReaperJob periodically returns stuck Processing events to Open. A
// claim that outlives the staleness threshold belongs to a dispatcher that
// died mid-flight; requeueing costs no retry budget because the attempt
// never reported an outcome.
type EventReaperJob struct {
	bus       *eventbus.Bus
	cron      *cron.Cron
	logger    *slog.Logger
	staleness time.Duration
}

// NewEventReaperJob creates a job that reaps stale claims every minute.
func NewEventReaperJob(bus *eventbus.Bus, staleness time.Duration, logger *slog.Logger) *EventReaperJob {
	return &EventReaperJob{
		bus:       bus,
		cron:      cron.New(),
		logger:    logger.With("component", "event_reaper_job"),
		staleness: staleness,
	}
}

// Start begins the reaper job.
func (j *EventReaperJob) Start() error {
	_, err := j.cron.AddFunc("* * * * *", func() {
		ctx := context.Background()

		requeued, reapErr := j.bus.RequeueStale(ctx, j.staleness)
		if reapErr != nil {
			j.logger.ErrorContext(ctx, "Event reaper failed", "error", reapErr)
			return
		}

		if requeued > 0 {
			j.logger.WarnContext(ctx, "Event reaper requeued stale claims", "count", requeued)
		}
	})

	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Event reaper job started (running every minute)")
	return nil
}

// Stop stops the reaper job.
func (j *EventReaperJob) Stop() {
	j.cron.Stop()
	j.logger.InfoContext(context.Background(), "Event reaper job stopped")
}
