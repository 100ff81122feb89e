package cleanup

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Job removes expired, inactive session rows on a schedule. Active rows are
// never touched even when long past expiry; revocation is the only way to
// deactivate them.
type Job struct {
	purger    sessionPurger
	retention time.Duration
	interval  time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

type sessionPurger interface {
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}

func New(purger sessionPurger, retention, interval time.Duration, logger *zap.Logger) *Job {
	if retention < 0 {
		retention = 0
	}
	if interval <= 0 {
		interval = time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Job{
		purger:    purger,
		retention: retention,
		interval:  interval,
		now:       time.Now,
		logger:    logger,
	}
}

// Run performs one purge pass. The cutoff trails expiry by the retention
// window, keeping recently expired rows inspectable.
func (j *Job) Run(ctx context.Context) error {
	if j.purger == nil {
		return nil
	}

	cutoff := j.now().UTC().Add(-j.retention)
	purged, err := j.purger.PurgeExpired(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("purge expired sessions: %w", err)
	}
	if purged > 0 {
		j.logger.Info("expired sessions purged", zap.Int64("purged", purged))
	}
	return nil
}

// Loop runs a pass immediately and then on every tick until the context is
// cancelled.
func (j *Job) Loop(ctx context.Context) error {
	if j.purger == nil {
		return nil
	}

	if err := j.Run(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				return err
			}
		}
	}
}
