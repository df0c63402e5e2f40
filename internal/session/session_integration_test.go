//go:build integration

package session

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/concepto-studio/concepto/internal/showsync"
	"github.com/concepto-studio/concepto/internal/testutil"
	"github.com/concepto-studio/concepto/pkg/catalog"
)

// TestRapidSwitchingAgainstRealRedis flips between shows faster than loads
// complete and checks the view settles on the last selection with only its
// data.
func TestRapidSwitchingAgainstRealRedis(t *testing.T) {
	client := testutil.NewCatalogClient(t, testutil.StartRedis(t), "it-"+uuid.New().String()[:8])
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	shows := make([]*catalog.Show, 3)
	for i := range shows {
		shows[i] = &catalog.Show{ID: uuid.New().String(), Name: "Show " + string(rune('A'+i))}
		require.NoError(t, client.PutShow(ctx, shows[i]))
		for j := 0; j < 20; j++ {
			require.NoError(t, client.Put(ctx, catalog.Asset{
				ID:       uuid.New().String(),
				ShowID:   shows[i].ID,
				Name:     "Asset",
				Category: catalog.CategoryGadget,
			}))
		}
	}

	quiet := log.New(io.Discard, "", 0)
	coord := showsync.NewCoordinator(showsync.NewFetcher(client, 0), showsync.Options{Logger: quiet})
	sess := New(coord, client, quiet)
	require.NoError(t, sess.LoadCatalog(ctx))

	var last *showsync.LoadRequest
	for round := 0; round < 10; round++ {
		for _, show := range shows {
			req, err := sess.SelectShow(ctx, show.ID)
			require.NoError(t, err)
			last = req
		}
	}
	_, err := last.Wait(ctx)
	require.NoError(t, err)

	final := shows[len(shows)-1]
	require.Eventually(t, func() bool {
		return sess.View(ctx).Kind == showsync.DecisionRender
	}, 10*time.Second, 20*time.Millisecond)

	d := sess.View(ctx)
	assert.Equal(t, final.ID, d.ShowID)
	require.Len(t, d.Data.Assets, 20)
	for _, a := range d.Data.Assets {
		assert.Equal(t, final.ID, a.ShowID)
	}
	assert.Equal(t, final.ID, sess.LoadedShowID())
}
