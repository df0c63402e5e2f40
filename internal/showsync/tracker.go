package showsync

import (
	"sync"
	"time"
)

// Snapshot is a point-in-time copy of the tracker state. Data is shared with
// the tracker and must be treated as read-only.
type Snapshot struct {
	// ResidentShowID is the show whose data is held, or "" if none.
	ResidentShowID string
	// Data is the resident aggregate. Nil until the first commit.
	Data *Aggregate
	// CommittedAt is when Data was swapped in.
	CommittedAt time.Time

	// LastLoadShowID and LastLoadStartedAt stamp the most recent load start.
	// The throttle window is measured from LastLoadStartedAt.
	LastLoadShowID    string
	LastLoadStartedAt time.Time

	// LoadingShowID is the show of the most recently started load still in
	// flight, or "".
	LoadingShowID string
}

// LoadToken identifies one BeginLoad call.
type LoadToken struct {
	ShowID    string
	StartedAt time.Time
}

// Tracker records which show's collections are resident. It is owned by one
// Coordinator; the only writers are BeginLoad, Commit and Reset.
type Tracker struct {
	mu    sync.RWMutex
	state Snapshot
	clock Clock
}

// NewTracker creates a tracker with nothing resident.
func NewTracker(clock Clock) *Tracker {
	if clock == nil {
		clock = SystemClock
	}
	return &Tracker{clock: clock}
}

// Read returns a snapshot without waiting on in-flight loads.
func (t *Tracker) Read() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// BeginLoad stamps the start of a load for showID. ResidentShowID is left
// unchanged: the previous show's data stays resident until Commit.
func (t *Tracker) BeginLoad(showID string) LoadToken {
	now := t.clock.Now()

	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.LastLoadShowID = showID
	t.state.LastLoadStartedAt = now
	t.state.LoadingShowID = showID
	return LoadToken{ShowID: showID, StartedAt: now}
}

// Commit makes agg the resident data for showID. The collections and the
// resident id change together in a single transition.
func (t *Tracker) Commit(showID string, agg *Aggregate) {
	now := t.clock.Now()

	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.ResidentShowID = showID
	t.state.Data = agg
	t.state.CommittedAt = now
	if t.state.LoadingShowID == showID {
		t.state.LoadingShowID = ""
	}
}

// Reset undoes the bookkeeping of a failed load for showID so that the next
// request starts clean. The resident data is not touched.
func (t *Tracker) Reset(showID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state.LoadingShowID == showID {
		t.state.LoadingShowID = ""
	}
	if t.state.LastLoadShowID == showID {
		t.state.LastLoadShowID = ""
		t.state.LastLoadStartedAt = time.Time{}
	}
}

// Finish clears the loading marker for a load that settled without commit.
func (t *Tracker) Finish(showID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state.LoadingShowID == showID {
		t.state.LoadingShowID = ""
	}
}
