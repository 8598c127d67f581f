// Package housekeeping purges published outbox rows, old activity and resolved error logs.
package housekeeping

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/household-daily-budget/internal/config"
	"github.com/household-daily-budget/internal/domain/activity"
	"github.com/household-daily-budget/internal/domain/outbox"
)

// Janitor runs the retention sweep on a fixed interval
type Janitor struct {
	outbox    outbox.Repository
	activity  activity.Repository
	errorLogs activity.ErrorLogRepository
	cfg       config.RetentionConfig
	now       func() time.Time
	logger    *slog.Logger
}

func NewJanitor(
	cfg config.RetentionConfig,
	outboxRepo outbox.Repository,
	activityRepo activity.Repository,
	errorLogs activity.ErrorLogRepository,
	logger *slog.Logger,
) *Janitor {
	return &Janitor{
		outbox:    outboxRepo,
		activity:  activityRepo,
		errorLogs: errorLogs,
		cfg:       cfg,
		now:       time.Now,
		logger:    logger,
	}
}

// Start sweeps once per interval until ctx is canceled
func (j *Janitor) Start(ctx context.Context) {
	j.logger.Info("Starting retention janitor",
		"interval", j.cfg.Interval.String(),
		"outbox_retention", j.cfg.Outbox.String(),
		"activity_retention", j.cfg.Activity.String(),
		"error_log_retention", j.cfg.ErrorLogs.String(),
	)
	ticker := time.NewTicker(j.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("Retention janitor stopping")
			return
		case <-ticker.C:
			if err := j.Sweep(ctx); err != nil {
				j.logger.Error("Retention sweep finished with errors", "error", err)
			}
		}
	}
}

// Sweep deletes everything past its retention period. Zero periods are skipped.
func (j *Janitor) Sweep(ctx context.Context) error {
	now := j.now().UTC()
	var errs []error

	if j.cfg.Outbox > 0 {
		n, err := j.outbox.DeleteProcessedBefore(ctx, now.Add(-j.cfg.Outbox))
		if err != nil {
			errs = append(errs, err)
		} else if n > 0 {
			j.logger.Info("Purged processed outbox messages", "count", n)
		}
	}

	if j.cfg.Activity > 0 {
		n, err := j.activity.DeleteOlderThan(ctx, now.Add(-j.cfg.Activity))
		if err != nil {
			errs = append(errs, err)
		} else if n > 0 {
			j.logger.Info("Purged activity records", "count", n)
		}
	}

	if j.cfg.ErrorLogs > 0 {
		n, err := j.errorLogs.DeleteResolvedOlderThan(ctx, now.Add(-j.cfg.ErrorLogs))
		if err != nil {
			errs = append(errs, err)
		} else if n > 0 {
			j.logger.Info("Purged resolved error logs", "count", n)
		}
	}

	return errors.Join(errs...)
}
