package app

import (
	"context"
	"log"
	"time"

	"github.com/five82/foreman/internal/poll"
	"github.com/five82/foreman/internal/state"
)

// maxBackoff caps the delay between polls while the service keeps failing.
const maxBackoff = 2 * time.Minute

// RunPoller calls fn every interval until ctx is cancelled, backing off
// while it fails. Each outcome is recorded in store under source. The first
// call happens immediately. It is used by the headless --watch commands,
// where no Bubble Tea loop drives a poll.Scheduler.
func RunPoller(ctx context.Context, store *state.Store, source string, interval time.Duration, fn func(context.Context) error) error {
	if interval <= 0 {
		interval = poll.DefaultInterval
	}
	failures := 0
	for {
		err := fn(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		store.Record(source, err)
		if err != nil {
			failures++
			log.Printf("%s poll failed: %v", source, err)
		} else {
			failures = 0
		}

		timer := time.NewTimer(calculateBackoff(failures, interval))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// calculateBackoff doubles the interval for each consecutive failure, up to
// maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	d := base
	for i := 0; i < failures; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}
