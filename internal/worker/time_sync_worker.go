package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// TimeUpdater is the gateway call the worker forwards reports to.
type TimeUpdater interface {
	UpdateAttemptTime(ctx context.Context, attemptID string, remaining int) error
}

// TimeSyncWorker delivers remaining-time reports to the exam service in the
// background. Report never blocks the countdown; a failed update is logged
// and dropped, with no retry.
type TimeSyncWorker struct {
	updater TimeUpdater
	queue   chan timeReport
	timeout time.Duration
	log     zerolog.Logger
}

type timeReport struct {
	AttemptID string
	Remaining int
}

// NewTimeSyncWorker creates a TimeSyncWorker with a queue of the given size.
func NewTimeSyncWorker(updater TimeUpdater, log zerolog.Logger, buffer int, timeout time.Duration) *TimeSyncWorker {
	if buffer <= 0 {
		buffer = 1
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &TimeSyncWorker{
		updater: updater,
		queue:   make(chan timeReport, buffer),
		timeout: timeout,
		log:     log.With().Str("component", "time_sync_worker").Logger(),
	}
}

// Report enqueues a remaining-time report, dropping it if the queue is full.
func (w *TimeSyncWorker) Report(attemptID string, remaining int) {
	select {
	case w.queue <- timeReport{AttemptID: attemptID, Remaining: remaining}:
	default:
		w.log.Warn().
			Str("attempt_id", attemptID).
			Int("remaining", remaining).
			Msg("Sync queue full, dropping report")
	}
}

// Start begins the worker loop. Call in a goroutine; it returns once ctx is
// cancelled and the queue has been drained.
func (w *TimeSyncWorker) Start(ctx context.Context) {
	w.log.Debug().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.drain()
			w.log.Debug().Msg("Worker stopped")
			return
		case r := <-w.queue:
			w.send(ctx, r)
		}
	}
}

func (w *TimeSyncWorker) send(parent context.Context, r timeReport) {
	ctx, cancel := context.WithTimeout(parent, w.timeout)
	defer cancel()

	if err := w.updater.UpdateAttemptTime(ctx, r.AttemptID, r.Remaining); err != nil {
		w.log.Warn().Err(err).
			Str("attempt_id", r.AttemptID).
			Int("remaining", r.Remaining).
			Msg("Failed to update server time")
		return
	}

	w.log.Debug().
		Str("attempt_id", r.AttemptID).
		Int("remaining", r.Remaining).
		Msg("Server time updated")
}

// drain delivers whatever is still queued before shutdown, so the final
// report (usually 0 at expiry) still reaches the service.
func (w *TimeSyncWorker) drain() {
	drained := 0
	for {
		select {
		case r := <-w.queue:
			w.send(context.Background(), r)
			drained++
		default:
			if drained > 0 {
				w.log.Debug().Int("count", drained).Msg("Drained remaining reports")
			}
			return
		}
	}
}
