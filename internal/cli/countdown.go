package cli

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/stemsi/examtester/internal/service"
	"github.com/stemsi/examtester/internal/timer"
	"github.com/stemsi/examtester/internal/worker"
)

// countdownView renders remaining time. Live output redraws one line every
// second; otherwise a line is printed each whole minute and whenever the
// tier changes.
type countdownView struct {
	out  io.Writer
	live bool

	mu   sync.Mutex
	tier timer.Tier
}

func (v *countdownView) render(remaining int) {
	v.mu.Lock()
	defer v.mu.Unlock()

	tier := timer.TierFor(remaining)
	changed := tier != v.tier
	v.tier = tier

	if v.live {
		fmt.Fprintf(v.out, "\r\033[K%s: %s", tier.Label(), timer.Format(remaining))
		if remaining == 0 {
			fmt.Fprintln(v.out)
		}
		return
	}
	if changed || remaining%60 == 0 {
		fmt.Fprintf(v.out, "%s: %s\n", tier.Label(), timer.Format(remaining))
	}
}

// runCountdown runs the attempt timer until it expires or ctx is done, with
// remaining-time reports flowing through a background sync worker. It
// reports whether the timer expired.
func (a *App) runCountdown(ctx context.Context, active *service.ActiveAttempt) bool {
	syncCtx, stopSync := context.WithCancel(context.Background())
	syncer := worker.NewTimeSyncWorker(a.client, a.log, a.cfg.SyncBuffer, a.cfg.RequestTimeout)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		syncer.Start(syncCtx)
	}()
	defer func() {
		stopSync()
		wg.Wait()
	}()

	view := &countdownView{out: a.out, live: a.liveOutput}
	expired := make(chan struct{})

	t := timer.New(timer.Options{
		DurationMinutes: active.Exam.DurationMinutes,
		InitialTime:     active.Attempt.TimeRemaining,
		AttemptID:       active.Attempt.ID,
		Scheduler:       a.scheduler,
		Reporter:        syncer,
		OnTick:          view.render,
		OnExpire:        func() { close(expired) },
	})
	view.render(t.Remaining())
	t.Start()
	defer t.Stop()

	select {
	case <-expired:
		return true
	case <-ctx.Done():
		t.Stop()
		// Save where the student left off so a resume picks up from here.
		syncer.Report(active.Attempt.ID, t.Remaining())
		return false
	}
}
