// Package jobs provides scheduled background tasks for the order
// management system.
//
// This package implements cron-based jobs using github.com/robfig/cron/v3
// to keep the durable event bus honest.
//
// # Available Jobs
//
// 1. EventSweepJob - Runs every 10 seconds to re-drive Open events that the
// inline dispatch missed (crash after commit, handler failure awaiting retry)
// 2. EventReaperJob - Runs every minute to requeue Processing events whose
// claim went stale (dispatcher died mid-flight)
//
// # Usage
//
// Jobs are managed through JobManager which provides a unified interface:
//
//	jobManager := jobs.NewJobManager(bus, cfg, logger)
//
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//
//	defer jobManager.StopAll()
//
// # Error Handling
//
// - The sweep job skips a tick if the previous one is still running
// - A failing sweep or reap is logged and retried on the next tick
// - Failed job starts will stop any already running jobs
package jobs
