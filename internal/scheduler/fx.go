package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("scheduler",
	fx.Provide(New),
	fx.Invoke(registerCron),
)

const sweepTimeout = 10 * time.Minute

// registerCron runs the rent sweep on the policy schedule. The schedule is
// read at registration time; changing it in the policy file requires a
// restart, unlike the backfill and batch knobs which apply on the next run.
func registerCron(lc fx.Lifecycle, s *Scheduler, log *zap.Logger) error {
	schedule := s.policy.Get().Sync.Schedule

	c := cron.New(cron.WithLocation(time.UTC), cron.WithSeconds())
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
		defer cancel()
		if _, err := s.SyncRent(ctx); err != nil {
			s.log.Warn("scheduled rent sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			log.Info("rent sweep scheduled", zap.String("schedule", schedule))
			c.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			stopped := c.Stop()
			select {
			case <-stopped.Done():
			case <-ctx.Done():
			}
			return nil
		},
	})
	return nil
}
