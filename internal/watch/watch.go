// Package watch follows a show while it is open: polling the view until it
// settles, and turning store change notifications into reloads.
package watch

import (
	"context"
	"fmt"
	"time"

	"github.com/concepto-studio/concepto/internal/showsync"
)

// DefaultPollInterval is how often WaitForDecision re-evaluates the view.
const DefaultPollInterval = 200 * time.Millisecond

// Viewer evaluates the view gate, starting loads as needed.
// *session.Session satisfies it.
type Viewer interface {
	View(ctx context.Context) showsync.Decision
}

// WaitForDecision polls the view until it is no longer Loading.
// Returns the settled decision (Render or Error) or an error if timeout occurs.
func WaitForDecision(ctx context.Context, viewer Viewer, interval, timeout time.Duration) (showsync.Decision, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	if d := viewer.View(ctx); d.Kind != showsync.DecisionLoading {
		return d, nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	timeoutCh := time.After(timeout)

	for {
		select {
		case <-ctx.Done():
			return showsync.Decision{}, ctx.Err()

		case <-timeoutCh:
			return showsync.Decision{}, fmt.Errorf("timeout waiting for show data after %v", timeout)

		case <-ticker.C:
			d := viewer.View(ctx)
			if d.Kind == showsync.DecisionLoading {
				continue
			}
			return d, nil
		}
	}
}
