package watch

import (
	"context"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/concepto-studio/concepto/internal/session"
	"github.com/concepto-studio/concepto/internal/showsync"
	"github.com/concepto-studio/concepto/pkg/catalog"
)

func setupTestClient(t *testing.T) *catalog.Client {
	t.Helper()
	mr := miniredis.NewMiniRedis()
	require.NoError(t, mr.Start())
	t.Cleanup(mr.Close)

	client, err := catalog.NewClient(&redis.Options{Addr: mr.Addr()}, "test-studio")
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// waitSubscribed blocks until Follow's subscription is live.
func waitSubscribed(t *testing.T, client *catalog.Client, showID string) {
	t.Helper()
	channel := catalog.ShowEventsChannel(client.Namespace(), showID)
	require.Eventually(t, func() bool {
		counts, err := client.RedisClient().PubSubNumSub(context.Background(), channel).Result()
		return err == nil && counts[channel] > 0
	}, 2*time.Second, 10*time.Millisecond)
}

func runFollow(t *testing.T, sub Subscriber, target Refresher, showID string, opts FollowOptions) (cancel func()) {
	t.Helper()
	ctx, stop := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- Follow(ctx, sub, target, showID, opts) }()

	return func() {
		stop()
		select {
		case err := <-errCh:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Error("Follow did not return after cancel")
		}
	}
}

func TestFollowReloadsSelectedShow(t *testing.T) {
	client := setupTestClient(t)
	ctx := context.Background()

	show := &catalog.Show{ID: uuid.New().String(), Name: "Astro Pals"}
	require.NoError(t, client.PutShow(ctx, show))
	require.NoError(t, client.Put(ctx, catalog.Asset{ID: uuid.New().String(), ShowID: show.ID, Name: "Nova", Category: catalog.CategoryCharacter}))

	coord := showsync.NewCoordinator(showsync.NewFetcher(client, 0), showsync.Options{Logger: quietLogger()})
	sess := session.New(coord, client, quietLogger())
	require.NoError(t, sess.LoadCatalog(ctx))
	req, err := sess.SelectShow(ctx, show.ID)
	require.NoError(t, err)
	_, err = req.Wait(ctx)
	require.NoError(t, err)
	require.Len(t, sess.Decision().Data.Assets, 1)

	var (
		mu       sync.Mutex
		changes  []catalog.ChangeEvent
		outcomes []showsync.Outcome
	)
	stop := runFollow(t, client, sess, show.ID, FollowOptions{
		Logger: quietLogger(),
		OnChange: func(e catalog.ChangeEvent) {
			mu.Lock()
			changes = append(changes, e)
			mu.Unlock()
		},
		OnSettle: func(o showsync.Outcome) {
			mu.Lock()
			outcomes = append(outcomes, o)
			mu.Unlock()
		},
	})
	defer stop()
	waitSubscribed(t, client, show.ID)

	moon := catalog.Asset{ID: uuid.New().String(), ShowID: show.ID, Name: "Moon Base", Category: catalog.CategoryLocation}
	require.NoError(t, client.Put(ctx, moon))

	require.Eventually(t, func() bool {
		d := sess.Decision()
		return d.Kind == showsync.DecisionRender && len(d.Data.Assets) == 2
	}, 2*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(outcomes) > 0
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, changes)
	assert.Equal(t, moon.ID, changes[0].EntityID)
	assert.Equal(t, showsync.OutcomeCommitted, outcomes[0].Status)
}

// gatedSource blocks asset reads until opened.
type gatedSource struct {
	*catalog.Client
	gate chan struct{}
}

func (g *gatedSource) ListAssets(ctx context.Context, showID string) ([]catalog.Asset, error) {
	select {
	case <-g.gate:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return g.Client.ListAssets(ctx, showID)
}

type countingRefresher struct {
	coord *showsync.Coordinator
	mu    sync.Mutex
	calls int
}

func (r *countingRefresher) Refresh(ctx context.Context, showID string) *showsync.LoadRequest {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	return r.coord.EnsureLoaded(ctx, showID, true)
}

func (r *countingRefresher) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func TestFollowCoalescesChangesDuringReload(t *testing.T) {
	client := setupTestClient(t)
	ctx := context.Background()

	show := &catalog.Show{ID: uuid.New().String(), Name: "Blue Harbor"}
	require.NoError(t, client.PutShow(ctx, show))

	src := &gatedSource{Client: client, gate: make(chan struct{})}
	coord := showsync.NewCoordinator(showsync.NewFetcher(src, 0), showsync.Options{Logger: quietLogger()})
	coord.SelectShow(show.ID)
	refresher := &countingRefresher{coord: coord}

	var (
		mu      sync.Mutex
		changes int
		settled int
	)
	stop := runFollow(t, client, refresher, show.ID, FollowOptions{
		OnChange: func(catalog.ChangeEvent) { mu.Lock(); changes++; mu.Unlock() },
		OnSettle: func(showsync.Outcome) { mu.Lock(); settled++; mu.Unlock() },
	})
	defer stop()
	waitSubscribed(t, client, show.ID)

	for i := 0; i < 3; i++ {
		require.NoError(t, client.Put(ctx, catalog.Asset{ID: uuid.New().String(), ShowID: show.ID, Name: "Prop", Category: catalog.CategoryGadget}))
	}
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return changes == 3
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, refresher.Calls(), "changes during the catch-up reload wait for it")

	close(src.gate)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return settled == 2
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 2, refresher.Calls())

	snap := coord.Tracker().Read()
	assert.Equal(t, show.ID, snap.ResidentShowID)
	assert.Len(t, snap.Data.Assets, 3)
}

type nilRefresher struct{}

func (nilRefresher) Refresh(context.Context, string) *showsync.LoadRequest { return nil }

func TestFollowIgnoresUnselectedShow(t *testing.T) {
	client := setupTestClient(t)
	ctx := context.Background()
	show := &catalog.Show{ID: uuid.New().String(), Name: "Elsewhere"}
	require.NoError(t, client.PutShow(ctx, show))

	changed := make(chan struct{}, 4)
	stop := runFollow(t, client, nilRefresher{}, show.ID, FollowOptions{
		OnChange: func(catalog.ChangeEvent) { changed <- struct{}{} },
	})
	defer stop()
	waitSubscribed(t, client, show.ID)

	require.NoError(t, client.Put(ctx, catalog.PlotTheme{ID: uuid.New().String(), ShowID: show.ID, Name: "Hope"}))
	require.NoError(t, client.Put(ctx, catalog.PlotTheme{ID: uuid.New().String(), ShowID: show.ID, Name: "Grit"}))

	for i := 0; i < 2; i++ {
		select {
		case <-changed:
		case <-time.After(2 * time.Second):
			t.Fatal("change not delivered")
		}
	}
}

func TestFollowCatchesUpOnChangesBeforeSubscribing(t *testing.T) {
	client := setupTestClient(t)
	ctx := context.Background()

	show := &catalog.Show{ID: uuid.New().String(), Name: "Astro Pals"}
	require.NoError(t, client.PutShow(ctx, show))
	require.NoError(t, client.Put(ctx, catalog.Episode{ID: uuid.New().String(), ShowID: show.ID, Title: "Pilot", EpisodeNumber: 1}))

	coord := showsync.NewCoordinator(showsync.NewFetcher(client, 0), showsync.Options{Logger: quietLogger()})
	sess := session.New(coord, client, quietLogger())
	require.NoError(t, sess.LoadCatalog(ctx))
	req, err := sess.SelectShow(ctx, show.ID)
	require.NoError(t, err)
	_, err = req.Wait(ctx)
	require.NoError(t, err)
	require.Len(t, sess.Decision().Data.Episodes, 1)

	// Nobody is subscribed yet, so this change is never announced.
	require.NoError(t, client.Put(ctx, catalog.Episode{ID: uuid.New().String(), ShowID: show.ID, Title: "Second", EpisodeNumber: 2}))

	settled := make(chan showsync.Outcome, 4)
	stop := runFollow(t, client, sess, show.ID, FollowOptions{
		Logger:   quietLogger(),
		OnChange: func(catalog.ChangeEvent) { t.Error("unexpected change event") },
		OnSettle: func(o showsync.Outcome) { settled <- o },
	})
	defer stop()

	select {
	case outcome := <-settled:
		assert.Equal(t, showsync.OutcomeCommitted, outcome.Status)
	case <-time.After(2 * time.Second):
		t.Fatal("catch-up reload did not settle")
	}
	d := sess.Decision()
	require.Equal(t, showsync.DecisionRender, d.Kind)
	assert.Len(t, d.Data.Episodes, 2)
}
