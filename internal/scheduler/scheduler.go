// Package scheduler runs periodic background jobs.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Job is a unit of periodic work
type Job func(ctx context.Context) error

// Scheduler runs named jobs at fixed intervals. A run never overlaps the
// previous run of the same job.
type Scheduler struct {
	sched  gocron.Scheduler
	logger *slog.Logger
}

// New creates a stopped Scheduler
func New(logger *slog.Logger) (*Scheduler, error) {
	sched, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, err
	}
	return &Scheduler{
		sched:  sched,
		logger: logger.With(slog.String("component", "scheduler")),
	}, nil
}

// Every registers job to run once per interval. Each run gets a context
// that expires after one interval.
func (s *Scheduler) Every(name string, interval time.Duration, job Job) error {
	_, err := s.sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			defer cancel()

			start := time.Now()
			if err := job(ctx); err != nil {
				s.logger.Error("job failed",
					slog.String("job", name),
					slog.Any("error", err))
				return
			}
			s.logger.Debug("job completed",
				slog.String("job", name),
				slog.Duration("duration", time.Since(start)))
		}),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return err
	}
	s.logger.Info("job scheduled",
		slog.String("job", name),
		slog.Duration("interval", interval))
	return nil
}

// Start begins running scheduled jobs
func (s *Scheduler) Start() {
	s.sched.Start()
}

// Shutdown stops the scheduler and waits for running jobs to finish
func (s *Scheduler) Shutdown() error {
	return s.sched.Shutdown()
}

// JobNames lists the registered jobs
func (s *Scheduler) JobNames() []string {
	jobs := s.sched.Jobs()
	names := make([]string, len(jobs))
	for i, j := range jobs {
		names[i] = j.Name()
	}
	return names
}
