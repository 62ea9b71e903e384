package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/five82/foreman/internal/app"
	"github.com/five82/foreman/internal/state"
)

// watchLoop reprints show every interval until ctx is cancelled. Failed
// refreshes are printed and retried with backoff.
func watchLoop(ctx context.Context, w io.Writer, source string, interval time.Duration, show func(context.Context) error) error {
	store := &state.Store{}
	err := app.RunPoller(ctx, store, source, interval, func(ctx context.Context) error {
		fmt.Fprintf(w, "\n--- %s ---\n", time.Now().Format("15:04:05"))
		err := show(ctx)
		if err != nil && ctx.Err() == nil {
			fmt.Fprintf(w, "error: %v\n", err)
			if snap := store.Snapshot(); snap.IsOffline() {
				fmt.Fprintf(w, "offline: %d failed refreshes in a row\n", snap.ConsecutiveFailures+1)
			}
		}
		return err
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
