package directory

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Scheduler handles periodic directory refreshes
type Scheduler struct {
	scheduler gocron.Scheduler
	manager   *Manager
	running   bool
}

// NewScheduler creates a new directory scheduler
func NewScheduler(manager *Manager) (*Scheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &Scheduler{
		scheduler: scheduler,
		manager:   manager,
	}, nil
}

// Start starts the scheduler with the given refresh interval
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) error {
	if s.running {
		return fmt.Errorf("scheduler is already running")
	}

	_, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			s.syncOnce(ctx)
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to create sync job: %w", err)
	}

	s.scheduler.Start()
	s.running = true

	// Run initial sync
	go s.syncOnce(ctx)

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() error {
	if !s.running {
		return fmt.Errorf("scheduler is not running")
	}

	if err := s.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("failed to stop scheduler: %w", err)
	}

	s.running = false
	return nil
}

// IsRunning returns whether the scheduler is running
func (s *Scheduler) IsRunning() bool {
	return s.running
}

// ScheduleCustomJob schedules a custom periodic job alongside the sync job.
func (s *Scheduler) ScheduleCustomJob(interval time.Duration, task func()) error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(task),
	)
	return err
}

// syncOnce refreshes the directory cache and logs the result.
func (s *Scheduler) syncOnce(ctx context.Context) {
	result, err := s.manager.Sync(ctx)
	if err != nil {
		log.Printf("Directory sync failed: %v", err)
		return
	}
	log.Printf("Directory synced: %d relays cached", result.Stored)
}
