package reminder

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/subwatch/subwatch/pkg/config"
)

// Scheduler triggers the reminder batch on the configured daily cron
// spec. Panics inside a run are recovered by the cron chain so one bad
// tick cannot take the scheduler down.
type Scheduler struct {
	cron  *cron.Cron
	batch *Batch
	cfg   *config.Config
	log   *zap.SugaredLogger
}

func NewScheduler(cfg *config.Config, log *zap.SugaredLogger, batch *Batch) *Scheduler {
	cronLogger := cron.PrintfLogger(zap.NewStdLog(log.Desugar()))
	c := cron.New(cron.WithChain(cron.Recover(cronLogger)))
	return &Scheduler{cron: c, batch: batch, cfg: cfg, log: log}
}

func (s *Scheduler) trigger() {
	report, err := s.batch.Run(context.Background(), time.Now())
	if err != nil {
		if errors.Is(err, ErrRunInProgress) {
			s.log.Warnw("reminder run skipped: previous run still in progress")
			return
		}
		s.log.Errorw("reminder run failed", "err", err)
		return
	}
	s.log.Infow("scheduled reminder run completed",
		"processed", report.Processed, "sent", report.Sent, "failed", report.Failed)
}

func registerScheduler(lc fx.Lifecycle, s *Scheduler) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if _, err := s.cron.AddFunc(s.cfg.Reminder.CronSpec, s.trigger); err != nil {
				return err
			}
			s.cron.Start()
			s.log.Infow("reminder scheduler started", "spec", s.cfg.Reminder.CronSpec)
			if s.cfg.Reminder.RunOnStart {
				go s.trigger()
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			stopCtx := s.cron.Stop()
			select {
			case <-stopCtx.Done():
			case <-ctx.Done():
			}
			s.log.Infow("reminder scheduler stopped")
			return nil
		},
	})
}
