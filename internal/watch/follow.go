package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/concepto-studio/concepto/internal/showsync"
	"github.com/concepto-studio/concepto/pkg/catalog"
)

// ErrSubscriptionClosed is returned by Follow when the change feed ends
// before the context does.
var ErrSubscriptionClosed = errors.New("change subscription closed")

// Subscriber opens a show's change feed. *catalog.Client satisfies it.
type Subscriber interface {
	SubscribeShowEvents(ctx context.Context, showID string) (*catalog.Subscription, error)
}

// Refresher force-reloads a show. *session.Session satisfies it; it returns
// nil when the show is no longer the selected one.
type Refresher interface {
	Refresh(ctx context.Context, showID string) *showsync.LoadRequest
}

// FollowOptions are the optional hooks of Follow.
type FollowOptions struct {
	Logger   *log.Logger
	OnChange func(catalog.ChangeEvent)
	OnSettle func(showsync.Outcome)
}

// Follow reloads showID once its change feed is open and again whenever the
// store reports a change to it, until ctx is done. Changes that arrive while a reload is in flight are folded into a
// single follow-up reload once it settles, so the final data always reflects
// the last change seen.
func Follow(ctx context.Context, sub Subscriber, target Refresher, showID string, opts FollowOptions) error {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	subscription, err := sub.SubscribeShowEvents(ctx, showID)
	if err != nil {
		return fmt.Errorf("failed to follow show %s: %w", showID, err)
	}
	defer subscription.Close()

	logger.Printf("[Watch] Following changes to show %s", showID)

	var (
		inflight *showsync.LoadRequest
		done     <-chan struct{}
		dirty    bool
	)
	refresh := func() {
		inflight = target.Refresh(ctx, showID)
		done = nil
		if inflight != nil {
			done = inflight.Done()
		}
	}

	// Catch up on writes made before the subscription was live.
	refresh()

	events := subscription.Events()
	errs := subscription.Errors()
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return ErrSubscriptionClosed
			}
			if opts.OnChange != nil {
				opts.OnChange(event)
			}
			if done != nil {
				dirty = true
				continue
			}
			refresh()

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logger.Printf("[Watch] Skipping malformed change event: %v", err)

		case <-done:
			if outcome, ok := inflight.Outcome(); ok && opts.OnSettle != nil {
				opts.OnSettle(outcome)
			}
			inflight, done = nil, nil
			if dirty {
				dirty = false
				refresh()
			}
		}
	}
}
