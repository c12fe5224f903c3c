// Package scheduler runs periodic maintenance jobs.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// Значения по умолчанию для обслуживания
const (
	DefaultInterval  = 24 * time.Hour
	DefaultKeep      = 100
	DefaultIdleAfter = time.Hour
)

// Store is the storage used by maintenance jobs
type Store interface {
	ListLearners(ctx context.Context) ([]string, error)
	PruneTestResults(ctx context.Context, learnerID string, keep int) (int64, error)
}

// Sweeper drops in-memory learner state unused since before
type Sweeper interface {
	EvictIdle(before time.Time) int
}

// Config of the maintenance jobs
type Config struct {
	Interval time.Duration
	Keep     int // test results kept per learner

	// Optional. Learner state idle for IdleAfter is swept every SweepInterval.
	Sweeper       Sweeper
	IdleAfter     time.Duration
	SweepInterval time.Duration
}

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	store     Store
	cfg       Config
	log       *slog.Logger
}

// New creates a new scheduler instance
func New(store Store, cfg Config, logger *slog.Logger) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Keep <= 0 {
		cfg.Keep = DefaultKeep
	}
	if cfg.IdleAfter <= 0 {
		cfg.IdleAfter = DefaultIdleAfter
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = cfg.IdleAfter
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		store:     store,
		cfg:       cfg,
		log:       logger.With("component", "scheduler"),
	}
}

// Start begins running all scheduled tasks
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Every(s.cfg.Interval).Do(func() {
		if _, err := s.PruneTestResults(context.Background()); err != nil {
			s.log.Warn("test result pruning failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule pruning: %v", err)
	}

	if s.cfg.Sweeper != nil {
		_, err = s.scheduler.Every(s.cfg.SweepInterval).Do(func() {
			s.SweepIdle(time.Now())
		})
		if err != nil {
			return fmt.Errorf("failed to schedule sweeping: %v", err)
		}
	}

	// Start the scheduler in a non-blocking manner
	s.scheduler.StartAsync()
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// Jobs returns the number of scheduled jobs
func (s *Scheduler) Jobs() int {
	return len(s.scheduler.Jobs())
}

// SweepIdle evicts learner state idle for longer than IdleAfter at now
func (s *Scheduler) SweepIdle(now time.Time) int {
	if s.cfg.Sweeper == nil {
		return 0
	}
	n := s.cfg.Sweeper.EvictIdle(now.Add(-s.cfg.IdleAfter))
	s.log.Info("swept idle learners", "evicted", n, "idle_after", s.cfg.IdleAfter)
	return n
}

// PruneTestResults keeps the newest Keep test results of every learner.
// Failures for one learner do not stop the others; the first error is
// returned with the total deleted.
func (s *Scheduler) PruneTestResults(ctx context.Context) (int64, error) {
	learners, err := s.store.ListLearners(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list learners: %v", err)
	}

	var total int64
	var firstErr error
	for _, id := range learners {
		n, err := s.store.PruneTestResults(ctx, id, s.cfg.Keep)
		if err != nil {
			s.log.Warn("failed to prune test results", "learner", id, "error", err)
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to prune test results of %s: %v", id, err)
			}
			continue
		}
		total += n
	}

	s.log.Info("pruned test results", "learners", len(learners), "deleted", total, "keep", s.cfg.Keep)
	return total, firstErr
}
