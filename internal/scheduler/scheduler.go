package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/skycast/skycast/internal/weather"
)

// Scheduler periodically refreshes the resolver's snapshot, equivalent to
// a user pressing refresh on a timer. It is optional and off by default.
type Scheduler struct {
	scheduler *gocron.Scheduler
	resolver  *weather.Resolver
	interval  time.Duration
}

// New creates a Scheduler refreshing at the given interval.
func New(resolver *weather.Resolver, interval time.Duration) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		resolver:  resolver,
		interval:  interval,
	}
}

// Start schedules the periodic refresh job. A non-positive interval
// disables scheduling entirely.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		log.Println("scheduler: refresh interval not set; periodic refresh disabled")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).Do(func() {
		log.Println("scheduler: running snapshot refresh")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		s.resolver.Refresh(ctx)
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
