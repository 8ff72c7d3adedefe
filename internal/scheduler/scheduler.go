package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	log "github.com/sirupsen/logrus"
)

// Job is one periodic evaluation pass. All three engine jobs implement it.
type Job interface {
	Run(ctx context.Context)
}

// Scheduler owns the three periodic jobs of the engine. Every job runs in
// singleton mode: a tick that lands while the previous run of the same job
// is still in flight is skipped, never queued.
type Scheduler struct {
	cron *gocron.Scheduler

	priceInterval  time.Duration
	panicInterval  time.Duration
	digestInterval time.Duration

	priceJob  Job
	panicJob  Job
	digestJob Job
}

func New(loc *time.Location, priceInterval, panicInterval, digestInterval time.Duration, priceJob, panicJob, digestJob Job) *Scheduler {
	return &Scheduler{
		cron:           gocron.NewScheduler(loc),
		priceInterval:  priceInterval,
		panicInterval:  panicInterval,
		digestInterval: digestInterval,
		priceJob:       priceJob,
		panicJob:       panicJob,
		digestJob:      digestJob,
	}
}

// Start registers the jobs and launches the scheduler in the background.
// ctx bounds every job run; cancelling it makes in-flight passes wind down.
func (s *Scheduler) Start(ctx context.Context) error {
	log.Info("Starting scheduler...")

	if _, err := s.cron.Every(s.priceInterval).SingletonMode().Do(func() {
		s.priceJob.Run(ctx)
	}); err != nil {
		return err
	}
	if _, err := s.cron.Every(s.panicInterval).SingletonMode().Do(func() {
		s.panicJob.Run(ctx)
	}); err != nil {
		return err
	}
	if _, err := s.cron.Every(s.digestInterval).SingletonMode().Do(func() {
		s.digestJob.Run(ctx)
	}); err != nil {
		return err
	}

	s.cron.StartAsync()
	log.Info("Scheduler started")
	return nil
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Info("Scheduler stopped")
}
