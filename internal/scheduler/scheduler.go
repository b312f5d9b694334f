// Package scheduler runs periodic background tasks on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultWarmSchedule refreshes hot catalog keys well inside the stale window.
const DefaultWarmSchedule = "*/20 * * * *"

var ErrInvalidSchedule = errors.New("scheduler: invalid cron schedule")

// Task is one scheduled unit of work.
type Task func(ctx context.Context) error

// Scheduler wraps a cron runner whose tasks share a cancellable context.
type Scheduler struct {
	cron    *cron.Cron
	ctx     context.Context
	cancel  context.CancelFunc
	logger  *slog.Logger
	timeout time.Duration
	mu      sync.Mutex
	names   []string
}

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// New creates a scheduler. Each run is bounded by timeout.
func New(logger *slog.Logger, timeout time.Duration) *Scheduler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if timeout <= 0 {
		timeout = time.Minute
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithParser(parser),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		ctx:     ctx,
		cancel:  cancel,
		logger:  logger,
		timeout: timeout,
	}
}

// Add registers task under name. Overlapping runs of one task are skipped.
func (s *Scheduler) Add(name, spec string, task Task) error {
	if _, err := parser.Parse(spec); err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidSchedule, spec, err)
	}

	_, err := s.cron.AddFunc(spec, func() { s.run(name, task) })
	if err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidSchedule, spec, err)
	}

	s.mu.Lock()
	s.names = append(s.names, name)
	s.mu.Unlock()
	return nil
}

// RunNow executes a task immediately in the caller's goroutine.
func (s *Scheduler) RunNow(name string, task Task) {
	s.run(name, task)
}

func (s *Scheduler) run(name string, task Task) {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	start := time.Now()
	log := s.logger.With(slog.String("task", name))
	if err := task(ctx); err != nil {
		log.ErrorContext(ctx, "scheduled task failed",
			slog.Duration("duration", time.Since(start)),
			slog.Any("error", err))
		return
	}
	log.DebugContext(ctx, "scheduled task done", slog.Duration("duration", time.Since(start)))
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.mu.Lock()
	names := append([]string(nil), s.names...)
	s.mu.Unlock()

	s.cron.Start()
	s.logger.Info("scheduler started", slog.Any("tasks", names))
}

// Stop cancels running tasks and waits for them or for ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	done := s.cron.Stop()

	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
