/**
 * @description
 * Cron scheduler setup for the periodic transaction synchronization.
 */
package app

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Scheduler manages the cron jobs.
type Scheduler struct {
	cron     *cron.Cron
	jobs     *Jobs
	schedule string
	logger   *slog.Logger
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(jobs *Jobs, schedule string, logger *slog.Logger) *Scheduler {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(cron.WithChain(cron.Recover(cronLogger)))

	return &Scheduler{
		cron:     c,
		jobs:     jobs,
		schedule: schedule,
		logger:   logger,
	}
}

// Start registers the jobs and starts the cron scheduler.
func (s *Scheduler) Start() {
	if _, err := s.cron.AddFunc(s.schedule, s.jobs.RunTransactionSync); err != nil {
		s.logger.Error("failed to schedule transaction sync job", "error", err)
	} else {
		s.logger.Info("scheduled transaction sync job", "schedule", s.schedule)
	}

	s.cron.Start()
}

// Stop gracefully stops the cron scheduler.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
