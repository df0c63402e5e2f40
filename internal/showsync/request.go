package showsync

import (
	"context"
	"time"
)

// OutcomeStatus classifies how a load request settled.
type OutcomeStatus string

const (
	// OutcomeCommitted means the fetched aggregate became the resident data.
	OutcomeCommitted OutcomeStatus = "committed"
	// OutcomeSkipped means no fetch was needed (throttled or already valid).
	OutcomeSkipped OutcomeStatus = "skipped"
	// OutcomeStale means the fetch succeeded but a newer request superseded it.
	OutcomeStale OutcomeStatus = "stale"
	// OutcomeFailed means the fetch failed. Err holds the failure.
	OutcomeFailed OutcomeStatus = "failed"
)

// Outcome is the settled result of a LoadRequest.
type Outcome struct {
	ShowID string
	Status OutcomeStatus
	Err    error
}

// LoadRequest is the pending result of one EnsureLoaded call. Callers that
// arrive while a fetch for the same show is in flight share one request.
type LoadRequest struct {
	ShowID    string
	StartedAt time.Time

	// generation is guarded by the owning Coordinator's mutex.
	generation uint64

	done    chan struct{}
	outcome Outcome
}

func newLoadRequest(showID string, startedAt time.Time, generation uint64) *LoadRequest {
	return &LoadRequest{
		ShowID:     showID,
		StartedAt:  startedAt,
		generation: generation,
		done:       make(chan struct{}),
	}
}

// resolvedRequest returns a request that has already settled.
func resolvedRequest(showID string, startedAt time.Time, status OutcomeStatus) *LoadRequest {
	req := newLoadRequest(showID, startedAt, 0)
	req.settle(Outcome{ShowID: showID, Status: status})
	return req
}

// settle must be called exactly once.
func (r *LoadRequest) settle(outcome Outcome) {
	r.outcome = outcome
	close(r.done)
}

// Done is closed once the request has settled.
func (r *LoadRequest) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the request settles or ctx is done. The returned error is
// Outcome.Err, or ctx.Err() if the wait was abandoned. Abandoning a wait does
// not cancel the underlying fetch.
func (r *LoadRequest) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-r.done:
		return r.outcome, r.outcome.Err
	case <-ctx.Done():
		return Outcome{ShowID: r.ShowID}, ctx.Err()
	}
}

// Outcome returns the settled outcome without blocking. ok is false while the
// request is still pending.
func (r *LoadRequest) Outcome() (outcome Outcome, ok bool) {
	select {
	case <-r.done:
		return r.outcome, true
	default:
		return Outcome{}, false
	}
}
