// Package scheduler wires the acquisition, reconciliation, and heartbeat
// jobs onto a gocron scheduler. Every job runs in singleton mode so a slow
// pass is never overlapped by the next tick of the same job.
package scheduler

import (
	"context"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/go-co-op/gocron/v2"

	"github.com/gilangnh/matchday/internal/platform/logging"
)

// JobFunc is one scheduled pass. Errors are logged, never propagated; the
// next tick simply tries again.
type JobFunc func(ctx context.Context) error

type Scheduler struct {
	inner  gocron.Scheduler
	logger *logging.Logger
}

func New(location *time.Location, logger *logging.Logger) (*Scheduler, error) {
	if location == nil {
		location = time.UTC
	}
	if logger == nil {
		logger = logging.Default()
	}

	inner, err := gocron.NewScheduler(gocron.WithLocation(location))
	if err != nil {
		return nil, crerr.Wrap(err, "create scheduler")
	}

	return &Scheduler{inner: inner, logger: logger}, nil
}

// Daily registers a job firing once a day at the given local hour.
func (s *Scheduler) Daily(name string, hour int, fn JobFunc) error {
	_, err := s.inner.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(uint(hour), 0, 0))),
		gocron.NewTask(s.wrap(name, fn)),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return crerr.Wrapf(err, "register daily job %s", name)
	}
	return nil
}

// Every registers a fixed-interval job.
func (s *Scheduler) Every(name string, interval time.Duration, fn JobFunc) error {
	_, err := s.inner.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.wrap(name, fn)),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return crerr.Wrapf(err, "register interval job %s", name)
	}
	return nil
}

func (s *Scheduler) wrap(name string, fn JobFunc) func() {
	return func() {
		ctx := context.Background()
		start := time.Now()
		if err := fn(ctx); err != nil {
			s.logger.ErrorContext(ctx, "scheduled job failed", "job", name, "duration", time.Since(start).String(), "error", err)
			return
		}
		s.logger.InfoContext(ctx, "scheduled job finished", "job", name, "duration", time.Since(start).String())
	}
}

func (s *Scheduler) Start() {
	s.inner.Start()
}

func (s *Scheduler) Shutdown() error {
	return s.inner.Shutdown()
}
