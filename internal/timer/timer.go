// Package timer implements the exam-attempt countdown.
//
// A Timer starts Running with either a resumed remaining time or
// duration×60 seconds and loses one second per tick. Every SyncEvery
// seconds of countdown (when remaining is an exact multiple) it reports the
// remaining time to a Reporter without waiting for the result. At zero it
// moves to Expired, stops its schedule, and calls OnExpire exactly once.
// Stop releases the schedule in any state.
package timer

import (
	"sync"
	"time"
)

// State is the countdown's lifecycle state.
type State int

const (
	StateRunning State = iota
	StateExpired
)

func (s State) String() string {
	if s == StateExpired {
		return "expired"
	}
	return "running"
}

// SyncEvery is how many seconds of countdown pass between reports. Reports
// go out whenever remaining is an exact multiple of it.
const SyncEvery = 30

// Reporter receives best-effort remaining-time reports. Implementations
// must not block the caller.
type Reporter interface {
	Report(attemptID string, remaining int)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(attemptID string, remaining int)

func (f ReporterFunc) Report(attemptID string, remaining int) { f(attemptID, remaining) }

// Options configures a Timer.
type Options struct {
	// DurationMinutes seeds a fresh attempt.
	DurationMinutes int
	// InitialTime, when set, seeds a resumed attempt in seconds and wins
	// over DurationMinutes.
	InitialTime *int
	// AttemptID enables remaining-time reports. Empty disables them.
	AttemptID string
	Interval  time.Duration
	Scheduler Scheduler
	Reporter  Reporter
	OnTick    func(remaining int)
	OnExpire  func()
}

// Timer is a countdown owned by a single exam-attempt view.
type Timer struct {
	mu        sync.Mutex
	remaining int
	state     State
	started   bool
	stopped   bool
	cancel    Cancel

	attemptID string
	interval  time.Duration
	scheduler Scheduler
	reporter  Reporter
	onTick    func(int)
	onExpire  func()
}

// New builds a Timer in the Running state. Nothing ticks until Start.
func New(opts Options) *Timer {
	remaining := opts.DurationMinutes * 60
	if opts.InitialTime != nil {
		remaining = *opts.InitialTime
	}
	if remaining < 0 {
		remaining = 0
	}

	t := &Timer{
		remaining: remaining,
		state:     StateRunning,
		attemptID: opts.AttemptID,
		interval:  opts.Interval,
		scheduler: opts.Scheduler,
		reporter:  opts.Reporter,
		onTick:    opts.OnTick,
		onExpire:  opts.OnExpire,
	}
	if t.interval <= 0 {
		t.interval = time.Second
	}
	if t.scheduler == nil {
		t.scheduler = TickerScheduler{}
	}
	return t
}

// Start schedules the tick. A timer seeded with zero remaining expires
// immediately without scheduling anything. Start is a no-op after the
// first call or after Stop.
func (t *Timer) Start() {
	t.mu.Lock()
	if t.started || t.stopped {
		t.mu.Unlock()
		return
	}
	t.started = true

	if t.remaining == 0 {
		t.state = StateExpired
		t.mu.Unlock()
		t.expire()
		return
	}
	t.mu.Unlock()

	cancel := t.scheduler.ScheduleRepeating(t.interval, t.tick)

	t.mu.Lock()
	if t.stopped || t.state == StateExpired {
		t.mu.Unlock()
		cancel()
		return
	}
	t.cancel = cancel
	t.mu.Unlock()
}

// Stop releases the scheduled tick. No tick starts after Stop returns, and
// OnExpire will not fire for a timer stopped before reaching zero.
func (t *Timer) Stop() {
	t.mu.Lock()
	t.stopped = true
	cancel := t.cancel
	t.cancel = nil
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

func (t *Timer) tick() {
	t.mu.Lock()
	if t.stopped || t.state != StateRunning {
		t.mu.Unlock()
		return
	}

	t.remaining--
	remaining := t.remaining
	report := t.attemptID != "" && t.reporter != nil && remaining%SyncEvery == 0

	var cancel Cancel
	expired := remaining == 0
	if expired {
		t.state = StateExpired
		cancel = t.cancel
		t.cancel = nil
	}
	t.mu.Unlock()

	if report {
		t.reporter.Report(t.attemptID, remaining)
	}
	if t.onTick != nil {
		t.onTick(remaining)
	}
	if expired {
		if cancel != nil {
			cancel()
		}
		t.expire()
	}
}

// expire runs only on the single transition into StateExpired.
func (t *Timer) expire() {
	if t.onExpire != nil {
		t.onExpire()
	}
}

// Remaining returns the seconds left.
func (t *Timer) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining
}

// State returns the current lifecycle state.
func (t *Timer) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Running reports whether the countdown is still live.
func (t *Timer) Running() bool {
	return t.State() == StateRunning
}

// Tier classifies the current remaining time for display.
func (t *Timer) Tier() Tier {
	return TierFor(t.Remaining())
}
