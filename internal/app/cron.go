package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	pkgcron "github.com/solsticehq/core/internal/pkg/cron"
	"github.com/solsticehq/core/internal/pkg/session"
)

// registerCronJobs registers all scheduled background jobs.
func registerCronJobs(sched *pkgcron.Scheduler, sessions *session.Manager, logger *zap.Logger) {
	cronLogger := logger.Named("cron")

	sched.Register(pkgcron.Job{
		Name:          "sweep_sessions",
		Description:   "Purge expired session records",
		Interval:      time.Hour,
		RetryInterval: time.Minute,
		Fn: func(ctx context.Context) error {
			removed, err := sessions.SweepExpired(ctx)
			if err != nil {
				cronLogger.Warn("session sweep failed", zap.Error(err))
				return err
			}
			if removed > 0 {
				cronLogger.Info("session sweep done", zap.Int64("removed", removed))
			}
			return nil
		},
	})
}
