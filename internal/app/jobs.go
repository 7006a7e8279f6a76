/**
 * @description
 * Scheduled job implementations. Each cycle is independent: a failed sync is
 * logged and the next tick runs regardless.
 */
package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/GhomKrosmonaute/ruel-stroud/internal/syncer"
)

// Syncer is the synchronizer boundary used by the jobs.
type Syncer interface {
	Sync(ctx context.Context, from, to *time.Time) (syncer.Report, error)
}

// Jobs contains the logic for all scheduled tasks.
type Jobs struct {
	syncer  Syncer
	window  time.Duration
	overlap time.Duration
	logger  *slog.Logger
}

// NewJobs creates a new Jobs runner. The sync window covers the schedule
// cadence plus a small overlap; re-seen transactions dedupe by identity key.
func NewJobs(s Syncer, window, overlap time.Duration, logger *slog.Logger) *Jobs {
	return &Jobs{
		syncer:  s,
		window:  window,
		overlap: overlap,
		logger:  logger,
	}
}

// RunTransactionSync synchronizes the recent window. Failures are logged and
// swallowed here: a single missed cycle is recoverable on the next tick.
func (j *Jobs) RunTransactionSync() {
	j.logger.Info("starting transaction sync job")
	ctx := context.Background()

	to := time.Now()
	from := to.Add(-(j.window + j.overlap))

	report, err := j.syncer.Sync(ctx, &from, &to)
	if err != nil {
		j.logger.Error("transaction sync cycle failed", "error", err)
		return
	}

	j.logger.Info("transaction sync job finished",
		"run_id", report.RunID,
		"inserted", report.Inserted)
}
