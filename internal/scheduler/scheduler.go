package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/i474232898/air-quality-ingest/internal/ingest"
)

// Runner is the job the scheduler triggers.
type Runner interface {
	Run(ctx context.Context) (ingest.RunSummary, error)
}

// Scheduler periodically triggers ingest runs.
type Scheduler struct {
	scheduler *gocron.Scheduler
	runner    Runner
	interval  time.Duration
	timeout   time.Duration
	logger    *zap.Logger

	// parent scopes every run; cancelling it aborts the run in progress.
	parent  context.Context
	running sync.WaitGroup
}

// New creates a new Scheduler. Runs derive their context from ctx and are
// bounded by timeout (0 means the interval).
func New(ctx context.Context, runner Runner, interval, timeout time.Duration, loc *time.Location, logger *zap.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	if timeout <= 0 {
		timeout = interval
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(loc),
		runner:    runner,
		interval:  interval,
		timeout:   timeout,
		logger:    logger,
		parent:    ctx,
	}
}

// Start schedules the periodic job and starts the underlying scheduler. The first
// run fires immediately; a run still in progress suppresses the next tick.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		return errors.New("scheduler: interval must be positive")
	}

	_, err := s.scheduler.Every(s.interval).SingletonMode().Do(s.tick)
	if err != nil {
		return err
	}

	s.logger.Info("scheduler started", zap.Duration("interval", s.interval))
	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) tick() {
	if s.parent.Err() != nil {
		return
	}
	s.running.Add(1)
	defer s.running.Done()

	ctx, cancel := context.WithTimeout(s.parent, s.timeout)
	defer cancel()

	s.logger.Info("scheduler: running ingest job")
	if _, err := s.runner.Run(ctx); err != nil {
		// A bad reference file only loses this tick; the next one tries again.
		s.logger.Error("scheduler: ingest run aborted", zap.Error(err))
		return
	}
	s.logger.Info("scheduler: completed ingest job")
}

// Stop cancels future jobs and waits for a run in progress to return.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
	s.running.Wait()
}
