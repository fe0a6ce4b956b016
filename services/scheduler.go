package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartStatusScheduler runs AutoUpdateTournamentStatusesByDates right away and
// then every interval. Runs never overlap. The caller shuts the scheduler down.
func StartStatusScheduler(ts TournamentService, interval time.Duration, logger *slog.Logger) (gocron.Scheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("scheduler interval must be positive, got %s", interval)
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func(ctx context.Context) {
			if err := ts.AutoUpdateTournamentStatusesByDates(ctx); err != nil {
				logger.Error("Scheduler: tournament status update failed", slog.Any("error", err))
			}
		}),
		gocron.WithName("tournament-status-update"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, fmt.Errorf("failed to schedule status update job: %w", err)
	}

	sched.Start()
	logger.Info("Tournament status update scheduler started", slog.Duration("interval", interval))
	return sched, nil
}
