package timer

import (
	"context"
	"sync"
	"time"
)

// Cancel releases a scheduled callback. Calling it more than once is safe.
type Cancel func()

// Scheduler runs fn every interval until the returned Cancel is called.
type Scheduler interface {
	ScheduleRepeating(interval time.Duration, fn func()) Cancel
}

// TickerScheduler drives callbacks from a time.Ticker on its own goroutine.
type TickerScheduler struct{}

func (TickerScheduler) ScheduleRepeating(interval time.Duration, fn func()) Cancel {
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if ctx.Err() != nil {
					return
				}
				fn()
			}
		}
	}()

	return Cancel(cancel)
}

// ManualScheduler fires callbacks only when Advance is called. Interval is
// ignored: one Advance step is one interval for every task.
type ManualScheduler struct {
	mu    sync.Mutex
	tasks []*manualTask
}

type manualTask struct {
	fn        func()
	cancelled bool
}

// NewManualScheduler creates a scheduler with no tasks.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

func (m *ManualScheduler) ScheduleRepeating(_ time.Duration, fn func()) Cancel {
	task := &manualTask{fn: fn}

	m.mu.Lock()
	m.tasks = append(m.tasks, task)
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		task.cancelled = true
		m.mu.Unlock()
	}
}

// Advance fires every live task n times, in registration order per step.
// Tasks cancelled mid-step do not fire again.
func (m *ManualScheduler) Advance(n int) {
	for i := 0; i < n; i++ {
		for _, task := range m.live() {
			m.mu.Lock()
			cancelled := task.cancelled
			m.mu.Unlock()
			if !cancelled {
				task.fn()
			}
		}
	}
}

// Active reports how many scheduled tasks have not been cancelled.
func (m *ManualScheduler) Active() int {
	return len(m.live())
}

func (m *ManualScheduler) live() []*manualTask {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*manualTask, 0, len(m.tasks))
	for _, t := range m.tasks {
		if !t.cancelled {
			out = append(out, t)
		}
	}
	return out
}
