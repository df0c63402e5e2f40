package statusapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
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

// flakyEpisodes fails episode reads while fail is set.
type flakyEpisodes struct {
	*catalog.Client
	fail atomic.Bool
}

func (f *flakyEpisodes) ListEpisodes(ctx context.Context, showID string) ([]catalog.Episode, error) {
	if f.fail.Load() {
		return nil, errors.New("read timed out")
	}
	return f.Client.ListEpisodes(ctx, showID)
}

type downStore struct{}

func (downStore) Ping(context.Context) error { return errors.New("connection refused") }

type fixture struct {
	server *Server
	sess   *session.Session
	src    *flakyEpisodes
	show   *catalog.Show
}

func setupServer(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.NewMiniRedis()
	require.NoError(t, mr.Start())
	t.Cleanup(mr.Close)

	client, err := catalog.NewClient(&redis.Options{
		Addr:        mr.Addr(),
		DialTimeout: 100 * time.Millisecond,
		ReadTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	}, "test-studio")
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	ctx := context.Background()
	show := &catalog.Show{ID: uuid.New().String(), Name: "Astro Pals"}
	require.NoError(t, client.PutShow(ctx, show))
	require.NoError(t, client.Put(ctx, catalog.Asset{ID: uuid.New().String(), ShowID: show.ID, Name: "Nova", Category: catalog.CategoryCharacter}))

	quiet := log.New(io.Discard, "", 0)
	src := &flakyEpisodes{Client: client}
	coord := showsync.NewCoordinator(showsync.NewFetcher(src, 0), showsync.Options{Logger: quiet})
	sess := session.New(coord, src, quiet)

	return &fixture{server: New(client, sess, quiet), sess: sess, src: src, show: show}
}

func (f *fixture) do(t *testing.T, method, target string) (*httptest.ResponseRecorder, StatusResponse) {
	t.Helper()
	w := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(w, httptest.NewRequest(method, target, nil))

	var status StatusResponse
	if w.Code < 300 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	}
	return w, status
}

func TestHealthCheck(t *testing.T) {
	f := setupServer(t)

	t.Run("healthy when store reachable", func(t *testing.T) {
		w := httptest.NewRecorder()
		f.server.healthCheckHandler(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, w.Code)

		var response HealthResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.Equal(t, "healthy", response.Status)
		assert.Equal(t, "connected", response.Store)
	})

	t.Run("rejects non-GET", func(t *testing.T) {
		w := httptest.NewRecorder()
		f.server.healthCheckHandler(w, httptest.NewRequest(http.MethodPost, "/healthz", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})

	t.Run("unhealthy when store down", func(t *testing.T) {
		down := New(downStore{}, f.sess, log.New(io.Discard, "", 0))
		w := httptest.NewRecorder()
		down.healthCheckHandler(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)

		var response HealthResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.Equal(t, "unhealthy", response.Status)
		assert.NotEmpty(t, response.Error)
	})
}

func TestStatusBeforeCatalogLoad(t *testing.T) {
	f := setupServer(t)

	w, status := f.do(t, http.MethodGet, "/status")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "loading", status.View.Kind)
	assert.Equal(t, showsync.LoadingShows, status.View.Label)
	assert.Equal(t, "/shows", status.Route)
	assert.Empty(t, status.LoadedShowID)
}

func TestSelectShow(t *testing.T) {
	f := setupServer(t)
	require.NoError(t, f.sess.LoadCatalog(context.Background()))

	t.Run("selected show renders once loaded", func(t *testing.T) {
		w, status := f.do(t, http.MethodPost, "/select?showId="+f.show.ID+"&category=character&wait=2s")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "render", status.View.Kind)
		assert.Equal(t, f.show.ID, status.View.ShowID)
		assert.Equal(t, f.show.ID, status.LoadedShowID)
		assert.Equal(t, 1, status.View.Counts[catalog.CollectionAssets])
		assert.False(t, status.IsLoading)
		assert.Equal(t, "/shows/"+f.show.ID+"?category=character", status.Route)
	})

	t.Run("unknown show is 404", func(t *testing.T) {
		w, _ := f.do(t, http.MethodPost, "/select?showId="+uuid.New().String())
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "UNKNOWN_SHOW")
	})

	t.Run("bad category is 400", func(t *testing.T) {
		w, _ := f.do(t, http.MethodPost, "/select?showId="+f.show.ID+"&category=spaceship")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("bad wait is 400", func(t *testing.T) {
		w, _ := f.do(t, http.MethodPost, "/select?showId="+f.show.ID+"&wait=soon")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("select requires POST", func(t *testing.T) {
		w, _ := f.do(t, http.MethodGet, "/select?showId="+f.show.ID)
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})
}

func TestRetryAfterFailure(t *testing.T) {
	f := setupServer(t)
	require.NoError(t, f.sess.LoadCatalog(context.Background()))

	f.src.fail.Store(true)
	w, status := f.do(t, http.MethodPost, "/select?showId="+f.show.ID+"&wait=2s")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "error", status.View.Kind)
	assert.Equal(t, "could not load episodes: read timed out", status.CurrentError)
	assert.Empty(t, status.LoadedShowID)

	f.src.fail.Store(false)
	w, status = f.do(t, http.MethodPost, "/retry?wait=2s")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "render", status.View.Kind)
	assert.Empty(t, status.CurrentError)
	assert.Equal(t, f.show.ID, status.LoadedShowID)
}

func TestShowsEndpoint(t *testing.T) {
	f := setupServer(t)

	w := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/shows", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())

	require.NoError(t, f.sess.LoadCatalog(context.Background()))
	w = httptest.NewRecorder()
	f.server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/shows", nil))

	var shows []catalog.Show
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &shows))
	require.Len(t, shows, 1)
	assert.Equal(t, "Astro Pals", shows[0].Name)
}

func TestStartAndShutdown(t *testing.T) {
	f := setupServer(t)

	addr, err := f.server.Start("127.0.0.1:0")
	require.NoError(t, err)

	resp, err := http.Get("http://" + addr + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, f.server.Shutdown(ctx))
}
