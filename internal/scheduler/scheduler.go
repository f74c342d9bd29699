// Package scheduler runs fire-and-forget tasks after a delay.
//
// Each task is registered under a key; while a task with that key is pending
// or running, further tasks with the same key are dropped. Callers that want
// every event to run attach a random token to the key.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Task is the deferred work. ctx is cancelled when the scheduler stops.
type Task func(ctx context.Context) error

// Scheduler owns a set of delayed tasks.
type Scheduler struct {
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	pending map[string]*time.Timer
	stopped bool

	wg       sync.WaitGroup
	stopOnce sync.Once
}

func New(logger *slog.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		pending: make(map[string]*time.Timer),
	}
}

// Schedule runs task once after delay on its own goroutine. It returns false
// and drops the task when key is already pending or the scheduler is stopped.
func (s *Scheduler) Schedule(key string, delay time.Duration, task Task) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return false
	}
	if _, dup := s.pending[key]; dup {
		s.logger.Debug("task already scheduled", slog.String("key", key))
		return false
	}

	s.wg.Add(1)
	s.pending[key] = time.AfterFunc(delay, func() { s.run(key, task) })

	s.logger.Debug("task scheduled", slog.String("key", key), slog.Duration("delay", delay))
	return true
}

func (s *Scheduler) run(key string, task Task) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.pending, key)
		s.mu.Unlock()
	}()

	start := time.Now()
	if err := task(s.ctx); err != nil {
		s.logger.Error("scheduled task failed",
			slog.String("key", key),
			slog.Duration("duration", time.Since(start)),
			slog.String("error", err.Error()),
		)
		return
	}

	s.logger.Debug("scheduled task completed", slog.String("key", key), slog.Duration("duration", time.Since(start)))
}

// Pending returns the number of tasks that have not finished.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Wait blocks until every scheduled task has run.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// Stop drops tasks whose delay has not elapsed, cancels the context of
// running tasks and waits for them to return. Safe to call more than once.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.stopped = true
		dropped := 0
		for key, timer := range s.pending {
			if timer.Stop() {
				delete(s.pending, key)
				s.wg.Done()
				dropped++
			}
		}
		s.mu.Unlock()

		if dropped > 0 {
			s.logger.Info("scheduler stopped with pending tasks", slog.Int("dropped", dropped))
		}

		s.cancel()
		s.wg.Wait()
	})
}
