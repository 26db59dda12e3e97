package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"weather-avf/internal/loader"
	"weather-avf/pkg/logger"
)

// Runner is a loader run; *loader.Loader satisfies it.
type Runner interface {
	Run(ctx context.Context) (loader.Summary, error)
}

// Scheduler runs the loader once a day at a fixed local hour.
type Scheduler struct {
	scheduler *gocron.Scheduler
	runner    Runner
	pullHour  int
	l         *logger.Logger
	job       *gocron.Job
}

// New creates a new Scheduler. loc is the zone pullHour is read in.
func New(runner Runner, pullHour int, loc *time.Location, l *logger.Logger) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	s := gocron.NewScheduler(loc)
	s.SingletonModeAll()

	return &Scheduler{
		scheduler: s,
		runner:    runner,
		pullHour:  pullHour,
		l:         l,
	}
}

// Start schedules the daily job and starts the underlying scheduler. Runs
// use ctx, so cancelling it aborts a load between files.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.pullHour < 0 || s.pullHour > 23 {
		return fmt.Errorf("scheduler: pull hour %d out of range 0..23", s.pullHour)
	}

	job, err := s.scheduler.Every(1).Day().At(fmt.Sprintf("%02d:00", s.pullHour)).Do(s.run, ctx)
	if err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	s.job = job

	s.scheduler.StartAsync()

	s.l.Info("loader scheduled", map[string]any{"next_run": s.NextRun().Format(time.RFC3339)})
	return nil
}

func (s *Scheduler) run(ctx context.Context) {
	s.l.Info("scheduler: running weather update")

	summary, err := s.runner.Run(ctx)
	if err != nil {
		s.l.Error(err, map[string]any{"job": "weather-update"})
		return
	}

	s.l.Info("scheduler: completed weather update", map[string]any{
		"files_loaded":  summary.FilesLoaded,
		"rows_inserted": summary.RowsInserted,
	})
}

// NextRun is the next scheduled run, zero before Start.
func (s *Scheduler) NextRun() time.Time {
	if s.job == nil {
		return time.Time{}
	}
	return s.job.NextRun()
}

// RunNow triggers the job immediately; it is a no-op before Start.
func (s *Scheduler) RunNow() {
	s.scheduler.RunAll()
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
