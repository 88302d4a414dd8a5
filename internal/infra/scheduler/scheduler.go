package scheduler

import (
	"context"
	"time"

	"homework_status_bot/internal/app"

	"github.com/cockroachdb/errors"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// ParseSchedule accepts standard 5-field cron specs and descriptors such as
// "@every 600s".
func ParseSchedule(spec string) (cron.Schedule, error) {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid poll schedule %q", spec)
	}
	return sched, nil
}

type PollScheduler struct {
	cronEngine *cron.Cron
	poller     app.Poller
	schedule   cron.Schedule
	logger     *logrus.Entry
}

func NewPollScheduler(poller app.Poller, schedule cron.Schedule, logger *logrus.Entry) *PollScheduler {
	cronLogger := cron.PrintfLogger(logger)
	return &PollScheduler{
		// A slow cycle must not overlap with the next tick: the cursor and the
		// previous report are only meaningful in sequence.
		cronEngine: cron.New(
			cron.WithLocation(time.Local),
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		poller:   poller,
		schedule: schedule,
		logger:   logger,
	}
}

// Run announces startup, polls once right away and then on every tick of the
// schedule until ctx is cancelled. Running cycles are awaited before Run
// returns.
func (s *PollScheduler) Run(ctx context.Context) error {
	s.logger.Info("Starting poll scheduler...")

	_ = s.poller.Announce(ctx)
	s.executeCycle(ctx)
	if ctx.Err() != nil {
		s.logger.Info("Poll scheduler stopped before the first tick")
		return nil
	}

	s.cronEngine.Schedule(s.schedule, cron.FuncJob(func() {
		s.executeCycle(ctx)
	}))
	s.cronEngine.Start()
	s.logger.WithField("next_run", s.schedule.Next(time.Now()).Format(time.RFC3339)).
		Info("Poll scheduler started")

	<-ctx.Done()
	s.Stop()
	return nil
}

// RunOnce announces startup and performs a single cycle.
func (s *PollScheduler) RunOnce(ctx context.Context) error {
	_ = s.poller.Announce(ctx)
	return s.poller.Cycle(ctx)
}

func (s *PollScheduler) executeCycle(ctx context.Context) {
	start := time.Now()
	if err := s.poller.Cycle(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			s.logger.Debug("Poll cycle interrupted by shutdown")
			return
		}
		s.logger.WithError(err).Debug("Poll cycle finished with error")
		return
	}
	s.logger.WithField("duration", time.Since(start).String()).Debug("Poll cycle finished")
}

func (s *PollScheduler) Stop() {
	s.logger.Info("Stopping poll scheduler...")
	stopCtx := s.cronEngine.Stop() // waits for a running cycle
	<-stopCtx.Done()
	s.logger.Info("Poll scheduler gracefully stopped.")
}
