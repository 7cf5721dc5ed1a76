// Package retention ages out undelivered batches on a cron schedule so the
// durable queue cannot grow without bound on a device that stays offline.
package retention

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"

	"rumagent/pkg/config"
	"rumagent/pkg/logger"
)

const defaultCron = "0 2 * * *" // daily at 02:00
const defaultMaxAge = 72 * time.Hour

// Purger removes batches older than age. Implemented by *storage.Store.
type Purger interface {
	PurgeOlderThan(age time.Duration) (int, error)
}

// Start starts the retention scheduler if enabled. Returns a cancel func.
func Start(ctx context.Context, cfg config.RetentionConfig, store Purger) (context.CancelFunc, error) {
	if !cfg.Enabled {
		logger.Info("retention_disabled")
		return func() {}, nil
	}

	cronExpr := cfg.Cron
	if cronExpr == "" {
		cronExpr = defaultCron
	}
	if !gronx.IsValid(cronExpr) {
		logger.Error("retention_invalid_cron", "cron", cfg.Cron)
		return nil, fmt.Errorf("invalid retention cron expression: %s", cfg.Cron)
	}

	maxAge := cfg.MaxAge.Duration()
	if maxAge <= 0 {
		maxAge = defaultMaxAge
	}

	logger.Info("retention_enabled", "cron", cronExpr, "max_age", maxAge.String())
	ctx2, cancel := context.WithCancel(ctx)
	go runScheduler(ctx2, cronExpr, maxAge, store)
	return cancel, nil
}

// RunOnce triggers a single purge immediately, outside the schedule.
func RunOnce(cfg config.RetentionConfig, store Purger) (int, error) {
	maxAge := cfg.MaxAge.Duration()
	if maxAge <= 0 {
		maxAge = defaultMaxAge
	}
	return store.PurgeOlderThan(maxAge)
}

// runScheduler uses gronx to compute the next tick for the configured cron
// expression and sleeps until that time.
func runScheduler(ctx context.Context, cronExpr string, maxAge time.Duration, store Purger) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("retention_scheduler_stopping")
			return
		default:
		}

		now := time.Now().UTC()
		next, err := gronx.NextTickAfter(cronExpr, now, false)
		if err != nil {
			logger.Error("retention_nexttick_failed", "cron", cronExpr, "error", err)
			select {
			case <-time.After(30 * time.Second):
			case <-ctx.Done():
				logger.Info("retention_scheduler_stopping")
				return
			}
			continue
		}

		wait := time.Until(next)
		if wait <= 0 {
			runPurge(store, maxAge)
			// small sleep to avoid a tight loop when the tick is due now
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				logger.Info("retention_scheduler_stopping")
				return
			}
			continue
		}

		select {
		case <-time.After(wait):
			runPurge(store, maxAge)
		case <-ctx.Done():
			logger.Info("retention_scheduler_stopping")
			return
		}
	}
}

func runPurge(store Purger, maxAge time.Duration) {
	purged, err := store.PurgeOlderThan(maxAge)
	if err != nil {
		logger.Error("retention_run_error", "error", err)
		return
	}
	logger.Info("retention_run_complete", "purged", purged)
}
