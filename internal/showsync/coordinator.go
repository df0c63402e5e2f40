package showsync

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"
)

// DefaultThrottleWindow is the minimum time between two loads of the resident
// show absent a forced reload.
const DefaultThrottleWindow = 30 * time.Second

// Options configures a Coordinator. Zero values select the defaults.
type Options struct {
	ThrottleWindow time.Duration
	Clock          Clock
	Logger         *log.Logger
	// OnSettle is called after every fetch settles, outside the coordinator's
	// lock. Skipped requests do not trigger it.
	OnSettle func(Outcome)
}

// Coordinator owns the tracker and the set of pending loads. It guarantees at
// most one in-flight fetch per show and discards results superseded by a newer
// selection (last request wins).
type Coordinator struct {
	fetcher   CollectionFetcher
	tracker   *Tracker
	validator *Validator
	throttle  time.Duration
	clock     Clock
	logger    *log.Logger
	onSettle  func(Outcome)

	mu            sync.Mutex
	pending       map[string]*LoadRequest
	generation    uint64
	latestShowID  string
	lastErr       error
	lastErrShowID string
}

// NewCoordinator creates a coordinator with its own tracker and validator.
func NewCoordinator(fetcher CollectionFetcher, opts Options) *Coordinator {
	if opts.ThrottleWindow <= 0 {
		opts.ThrottleWindow = DefaultThrottleWindow
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	tracker := NewTracker(opts.Clock)
	return &Coordinator{
		fetcher:   fetcher,
		tracker:   tracker,
		validator: NewValidator(tracker),
		throttle:  opts.ThrottleWindow,
		clock:     opts.Clock,
		logger:    opts.Logger,
		onSettle:  opts.OnSettle,
		pending:   make(map[string]*LoadRequest),
	}
}

// Tracker returns the tracker owned by this coordinator.
func (c *Coordinator) Tracker() *Tracker { return c.tracker }

// Validator returns the validator bound to this coordinator's tracker.
func (c *Coordinator) Validator() *Validator { return c.validator }

// ThrottleWindow returns the configured throttle window.
func (c *Coordinator) ThrottleWindow() time.Duration { return c.throttle }

// SelectShow records showID as the latest requested show and starts a new
// generation. Any in-flight load for another show becomes stale; an in-flight
// load for showID itself is adopted into the new generation.
// An empty showID clears the selection.
func (c *Coordinator) SelectShow(showID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	c.latestShowID = showID
	if req, ok := c.pending[showID]; ok {
		req.generation = c.generation
	}
}

// EnsureLoaded makes sure showID's data is resident or on its way. It never
// blocks; the returned request settles when the work is done.
//
//  1. A pending request for showID is returned as is.
//  2. Unless force, the resident show inside the throttle window is skipped.
//  3. Unless force, the resident show whose data validates is skipped.
//  4. Otherwise a new fetch starts. Its result is committed only if no newer
//     request superseded it by the time it settles.
func (c *Coordinator) EnsureLoaded(ctx context.Context, showID string, force bool) *LoadRequest {
	c.mu.Lock()
	defer c.mu.Unlock()

	if req, ok := c.pending[showID]; ok {
		c.noteRequestLocked(showID, false)
		req.generation = c.generation
		c.logger.Printf("[ShowSync] Joined in-flight load for show %s", showID)
		return req
	}

	now := c.clock.Now()
	if !force {
		snap := c.tracker.Read()
		if snap.ResidentShowID == showID {
			if snap.LastLoadShowID == showID && now.Sub(snap.LastLoadStartedAt) < c.throttle {
				c.noteRequestLocked(showID, false)
				return resolvedRequest(showID, now, OutcomeSkipped)
			}
			if c.validator.check(snap, showID) {
				c.noteRequestLocked(showID, false)
				return resolvedRequest(showID, now, OutcomeSkipped)
			}
		}
	}

	c.noteRequestLocked(showID, force)
	if c.lastErrShowID == showID {
		c.lastErr = nil
		c.lastErrShowID = ""
	}

	req := newLoadRequest(showID, now, c.generation)
	c.pending[showID] = req
	c.tracker.BeginLoad(showID)

	c.logEvent("load_started", map[string]interface{}{
		"show_id":    showID,
		"force":      force,
		"generation": req.generation,
	})

	// The fetch outlives the caller's cancellation; staleness is handled by
	// the generation check, not by aborting reads.
	go c.run(context.WithoutCancel(ctx), req)
	return req
}

// noteRequestLocked records showID as the latest requested show, starting a new
// generation when the show changes or bump is set. c.mu must be held.
func (c *Coordinator) noteRequestLocked(showID string, bump bool) {
	if bump || showID != c.latestShowID {
		c.generation++
	}
	c.latestShowID = showID
}

func (c *Coordinator) run(ctx context.Context, req *LoadRequest) {
	agg, err := c.fetcher.Fetch(ctx, req.ShowID)

	c.mu.Lock()
	if c.pending[req.ShowID] == req {
		delete(c.pending, req.ShowID)
	}
	current := req.generation == c.generation

	// Data that fails validation is reported as a failure, never committed.
	if err == nil && current {
		if violations := FindViolations(req.ShowID, agg); len(violations) > 0 {
			err = &ConsistencyFailure{ShowID: req.ShowID, Violations: violations}
		}
	}

	var outcome Outcome
	switch {
	case err != nil:
		c.tracker.Reset(req.ShowID)
		if current {
			c.lastErr = err
			c.lastErrShowID = req.ShowID
		}
		outcome = Outcome{ShowID: req.ShowID, Status: OutcomeFailed, Err: err}
		c.logger.Printf("[ShowSync] Load failed for show %s: %v", req.ShowID, err)
	case !current:
		c.tracker.Finish(req.ShowID)
		outcome = Outcome{ShowID: req.ShowID, Status: OutcomeStale, Err: ErrStaleResult}
		c.logger.Printf("[ShowSync] Discarded stale result for show %s (generation %d, current %d)",
			req.ShowID, req.generation, c.generation)
	default:
		c.tracker.Commit(req.ShowID, agg)
		if c.lastErrShowID == req.ShowID {
			c.lastErr = nil
			c.lastErrShowID = ""
		}
		outcome = Outcome{ShowID: req.ShowID, Status: OutcomeCommitted}
		c.logEvent("load_committed", map[string]interface{}{
			"show_id":     req.ShowID,
			"generation":  req.generation,
			"documents":   agg.Len(),
			"duration_ms": c.clock.Now().Sub(req.StartedAt).Milliseconds(),
		})
	}
	c.mu.Unlock()

	req.settle(outcome)
	if c.onSettle != nil {
		c.onSettle(outcome)
	}
}

// Busy reports whether any fetch is in flight.
func (c *Coordinator) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending) > 0
}

// Pending reports whether a fetch for showID is in flight.
func (c *Coordinator) Pending(showID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.pending[showID]
	return ok
}

// LastError returns the most recent load failure that was not superseded, and
// the show it was for. Both are empty after a later successful load of that
// show or a new attempt to load it.
func (c *Coordinator) LastError() (error, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr, c.lastErrShowID
}

// Generation returns the current generation.
func (c *Coordinator) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// LatestShowID returns the most recently requested show.
func (c *Coordinator) LatestShowID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latestShowID
}

// Inputs gathers everything Decide needs about selectedShowID. The verdict is
// computed on the same snapshot that is returned, so a Render decision always
// carries the data that was validated.
func (c *Coordinator) Inputs(selectedShowID string) GateInput {
	c.mu.Lock()
	busy := len(c.pending) > 0
	lastErr, lastErrShowID := c.lastErr, c.lastErrShowID
	c.mu.Unlock()

	snap := c.tracker.Read()
	return GateInput{
		CatalogLoaded:   true,
		SelectedShowID:  selectedShowID,
		Tracker:         snap,
		CoordinatorBusy: busy,
		Verdict:         selectedShowID != "" && c.validator.check(snap, selectedShowID),
		LastErr:         lastErr,
		LastErrShowID:   lastErrShowID,
	}
}

// IsStale reports whether err is the outcome of a superseded load.
func IsStale(err error) bool {
	return errors.Is(err, ErrStaleResult)
}

// logEvent logs a structured event in JSON format.
func (c *Coordinator) logEvent(eventType string, data map[string]interface{}) {
	data["timestamp"] = c.clock.Now().UTC().Format(time.RFC3339)
	data["level"] = "info"
	data["component"] = "showsync"
	data["event_type"] = eventType

	jsonData, err := json.Marshal(data)
	if err != nil {
		c.logger.Printf("[ShowSync] Failed to marshal log event: %v", err)
		return
	}

	c.logger.Println(string(jsonData))
}
