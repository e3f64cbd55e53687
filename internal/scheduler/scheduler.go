// Package scheduler runs the pipeline's periodic tasks on a single
// background goroutine. Tasks carry their own intervals but execute
// sequentially within a tick, so an ingestion run can never overlap the
// match pass that reads its output, and a slow task simply delays the
// others instead of piling up concurrent invocations.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// defaultTick is the loop's clock resolution. Task intervals are honored as
// "at least this long between runs", not exact wall-clock alignment.
const defaultTick = 60 * time.Second

// Task is one periodic unit of work.
type Task struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Status is a snapshot of the scheduler for the status endpoint.
type Status struct {
	Running  bool                 `json:"running"`
	NextRuns map[string]time.Time `json:"next_runs"`
}

// Scheduler drives a fixed set of tasks from one goroutine.
type Scheduler struct {
	tasks []Task
	tick  time.Duration
	now   func() time.Time

	mu      sync.Mutex
	running bool
	next    map[string]time.Time
	cancel  context.CancelFunc
	done    chan struct{}
}

// New builds a scheduler for the given tasks. Tasks run in the order given.
func New(tasks ...Task) *Scheduler {
	return &Scheduler{
		tasks: tasks,
		tick:  defaultTick,
		now:   time.Now,
	}
}

// Start launches the background loop. Each task first runs one full interval
// after start. Starting a running scheduler is an error.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running = true

	now := s.now()
	s.next = make(map[string]time.Time, len(s.tasks))
	for _, t := range s.tasks {
		s.next[t.Name] = now.Add(t.Interval)
	}

	go s.loop(ctx)
	log.Printf("[scheduler] started with %d tasks", len(s.tasks))
	return nil
}

// Stop cancels the loop and waits for any in-flight task to finish.
// Stopping a stopped scheduler is a no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.next = nil // scheduled times are meaningless once the loop is down
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	cancel()
	<-done
	log.Printf("[scheduler] stopped")
}

// Status reports whether the loop is running and when each task is next due.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := Status{Running: s.running, NextRuns: make(map[string]time.Time, len(s.next))}
	for name, at := range s.next {
		status.NextRuns[name] = at
	}
	return status
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runDue(ctx)
		}
	}
}

// runDue executes every task whose next-run time has passed, one at a time.
func (s *Scheduler) runDue(ctx context.Context) {
	for _, t := range s.tasks {
		s.mu.Lock()
		due := !s.now().Before(s.next[t.Name])
		s.mu.Unlock()
		if !due {
			continue
		}

		s.runTask(ctx, t)

		s.mu.Lock()
		if s.next != nil { // Stop may have cleared the schedule mid-task
			s.next[t.Name] = s.now().Add(t.Interval)
		}
		s.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
	}
}

// runTask runs one task, containing errors and panics at the task boundary
// so a bad run never kills the loop.
func (s *Scheduler) runTask(ctx context.Context, t Task) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[scheduler] task %s panicked: %v", t.Name, r)
		}
	}()

	started := s.now()
	if err := t.Run(ctx); err != nil {
		log.Printf("[scheduler] task %s failed after %s: %v", t.Name, time.Since(started).Round(time.Millisecond), err)
		return
	}
	log.Printf("[scheduler] task %s completed in %s", t.Name, time.Since(started).Round(time.Millisecond))
}
