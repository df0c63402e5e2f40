package showsync

import (
	"context"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/concepto-studio/concepto/pkg/catalog"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fetchResult struct {
	agg *Aggregate
	err error
}

// gatedFetcher blocks every Fetch until the test releases it.
type gatedFetcher struct {
	mu    sync.Mutex
	calls map[string]int
	gates map[string][]chan fetchResult
}

func newGatedFetcher() *gatedFetcher {
	return &gatedFetcher{
		calls: make(map[string]int),
		gates: make(map[string][]chan fetchResult),
	}
}

func (f *gatedFetcher) Fetch(ctx context.Context, showID string) (*Aggregate, error) {
	ch := make(chan fetchResult, 1)
	f.mu.Lock()
	f.calls[showID]++
	f.gates[showID] = append(f.gates[showID], ch)
	f.mu.Unlock()

	select {
	case res := <-ch:
		return res.agg, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *gatedFetcher) Calls(showID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[showID]
}

// release completes the oldest outstanding fetch for showID.
func (f *gatedFetcher) release(t *testing.T, showID string, agg *Aggregate, err error) {
	t.Helper()
	var ch chan fetchResult
	require.Eventually(t, func() bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		q := f.gates[showID]
		if len(q) == 0 {
			return false
		}
		ch = q[0]
		f.gates[showID] = q[1:]
		return true
	}, time.Second, time.Millisecond, "no outstanding fetch for %s", showID)
	ch <- fetchResult{agg: agg, err: err}
}

func newTestCoordinator(t *testing.T) (*Coordinator, *gatedFetcher, *fakeClock) {
	t.Helper()
	fetcher := newGatedFetcher()
	clock := newFakeClock()
	coord := NewCoordinator(fetcher, Options{
		Clock:  clock,
		Logger: discardLogger(),
	})
	return coord, fetcher, clock
}

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// aggregateFor builds a populated aggregate owned by showID.
func aggregateFor(showID string) *Aggregate {
	return &Aggregate{
		Assets:       []catalog.Asset{{ID: showID + "-asset", ShowID: showID, Name: "Hero", Category: catalog.CategoryCharacter}},
		Episodes:     []catalog.Episode{{ID: showID + "-ep1", ShowID: showID, Title: "Pilot", EpisodeNumber: 1}},
		EpisodeIdeas: []catalog.EpisodeIdea{{ID: showID + "-idea", ShowID: showID, Title: "Heist"}},
		GeneralIdeas: []catalog.GeneralIdea{},
		PlotThemes:   []catalog.PlotTheme{{ID: showID + "-theme", ShowID: showID, Name: "Friendship"}},
	}
}

func waitOutcome(t *testing.T, req *LoadRequest) Outcome {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	outcome, err := req.Wait(ctx)
	require.NotErrorIs(t, err, context.DeadlineExceeded, "request for %s never settled", req.ShowID)
	return outcome
}

func decide(c *Coordinator, selected string) Decision {
	return Decide(c.Inputs(selected))
}

// assertNoLeak fails if a Render decision carries another show's documents.
func assertNoLeak(t *testing.T, d Decision) {
	t.Helper()
	if d.Kind != DecisionRender || d.ShowID == "" {
		return
	}
	require.Empty(t, FindViolations(d.ShowID, d.Data), "render for %s leaked foreign data", d.ShowID)
}
