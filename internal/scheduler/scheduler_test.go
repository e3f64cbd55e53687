package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScheduler(tasks ...Task) *Scheduler {
	s := New(tasks...)
	s.tick = 5 * time.Millisecond
	return s
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if cond() {
			return
		}
		select {
		case <-deadline:
			t.Fatal("condition not met in time")
		case <-time.After(2 * time.Millisecond):
		}
	}
}

func TestSchedulerRunsDueTasks(t *testing.T) {
	var runs atomic.Int32
	s := newTestScheduler(Task{
		Name:     "ingest",
		Interval: time.Millisecond,
		Run: func(context.Context) error {
			runs.Add(1)
			return nil
		},
	})

	require.NoError(t, s.Start())
	defer s.Stop()

	waitFor(t, func() bool { return runs.Load() >= 2 })
}

func TestSchedulerTasksRunSequentially(t *testing.T) {
	var mu sync.Mutex
	var order []string
	var inFlight, maxInFlight int

	record := func(name string) func(context.Context) error {
		return func(context.Context) error {
			mu.Lock()
			inFlight++
			if inFlight > maxInFlight {
				maxInFlight = inFlight
			}
			order = append(order, name)
			mu.Unlock()

			time.Sleep(3 * time.Millisecond)

			mu.Lock()
			inFlight--
			mu.Unlock()
			return nil
		}
	}

	s := newTestScheduler(
		Task{Name: "ingest", Interval: time.Millisecond, Run: record("ingest")},
		Task{Name: "notify", Interval: time.Millisecond, Run: record("notify")},
	)
	require.NoError(t, s.Start())
	defer s.Stop()

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) >= 4
	})

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, maxInFlight, "tasks must not overlap")
	assert.Equal(t, "ingest", order[0], "tasks run in registration order")
	assert.Equal(t, "notify", order[1])
}

func TestSchedulerSurvivesPanicsAndErrors(t *testing.T) {
	var panics, errored, healthy atomic.Int32
	s := newTestScheduler(
		Task{Name: "panics", Interval: time.Millisecond, Run: func(context.Context) error {
			panics.Add(1)
			panic("boom")
		}},
		Task{Name: "errors", Interval: time.Millisecond, Run: func(context.Context) error {
			errored.Add(1)
			return errors.New("task failed")
		}},
		Task{Name: "healthy", Interval: time.Millisecond, Run: func(context.Context) error {
			healthy.Add(1)
			return nil
		}},
	)
	require.NoError(t, s.Start())
	defer s.Stop()

	// The loop keeps running all tasks across multiple ticks
	waitFor(t, func() bool {
		return panics.Load() >= 2 && errored.Load() >= 2 && healthy.Load() >= 2
	})
}

func TestSchedulerStatus(t *testing.T) {
	s := newTestScheduler(Task{
		Name:     "sweep",
		Interval: time.Hour,
		Run:      func(context.Context) error { return nil },
	})

	assert.False(t, s.Status().Running)

	require.NoError(t, s.Start())
	status := s.Status()
	assert.True(t, status.Running)
	next, ok := status.NextRuns["sweep"]
	require.True(t, ok)
	assert.True(t, next.After(time.Now().Add(50*time.Minute)))

	s.Stop()
	stopped := s.Status()
	assert.False(t, stopped.Running)
	assert.Empty(t, stopped.NextRuns, "a stopped scheduler has no upcoming runs")
}

func TestSchedulerStartTwiceFails(t *testing.T) {
	s := newTestScheduler(Task{Name: "noop", Interval: time.Hour, Run: func(context.Context) error { return nil }})
	require.NoError(t, s.Start())
	defer s.Stop()
	assert.Error(t, s.Start())
}

func TestSchedulerStopWaitsForInFlightTask(t *testing.T) {
	started := make(chan struct{})
	finished := make(chan struct{})
	s := newTestScheduler(Task{
		Name:     "slow",
		Interval: time.Millisecond,
		Run: func(context.Context) error {
			close(started)
			time.Sleep(20 * time.Millisecond)
			close(finished)
			return nil
		},
	})
	require.NoError(t, s.Start())

	<-started
	s.Stop()

	select {
	case <-finished:
	default:
		t.Fatal("Stop returned before the in-flight task finished")
	}
}
