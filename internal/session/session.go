// Package session is the presentation-facing surface of the sync layer: show
// selection, route parameters and load status. Views call View to find out
// whether to render, show a loading indicator or show an error.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/concepto-studio/concepto/internal/showsync"
	"github.com/concepto-studio/concepto/pkg/catalog"
)

// ErrUnknownShow is returned when selecting a show that is not in the catalog.
var ErrUnknownShow = errors.New("unknown show")

// CatalogSource lists every show of the studio.
type CatalogSource interface {
	ListShows(ctx context.Context) ([]catalog.Show, error)
}

// Selection is the user's current navigation state.
type Selection struct {
	ShowID    string
	EpisodeID string
	AssetID   string
	Category  catalog.AssetCategory
}

// Session tracks the catalog and the selection for one user and drives the
// coordinator.
type Session struct {
	coord  *showsync.Coordinator
	shows  CatalogSource
	logger *log.Logger

	// selectMu keeps the selection and the coordinator's latest show in step.
	// Taken before mu.
	selectMu sync.Mutex

	mu             sync.RWMutex
	catalogShows   []catalog.Show
	catalogLoaded  bool
	catalogLoading bool
	catalogErr     error
	sel            Selection
}

// New creates a session. logger may be nil.
func New(coord *showsync.Coordinator, shows CatalogSource, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.Default()
	}
	return &Session{coord: coord, shows: shows, logger: logger}
}

// Coordinator returns the coordinator driven by this session.
func (s *Session) Coordinator() *showsync.Coordinator {
	return s.coord
}

// LoadCatalog reads the show catalog. Until it succeeds once the view stays on
// Loading("shows").
func (s *Session) LoadCatalog(ctx context.Context) error {
	s.mu.Lock()
	s.catalogLoading = true
	s.mu.Unlock()

	shows, err := s.shows.ListShows(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalogLoading = false
	if err != nil {
		s.catalogErr = fmt.Errorf("failed to load shows: %w", err)
		s.logger.Printf("[Session] %v", s.catalogErr)
		return s.catalogErr
	}
	s.catalogShows = shows
	s.catalogLoaded = true
	s.catalogErr = nil
	return nil
}

// Shows returns the loaded catalog.
func (s *Session) Shows() []catalog.Show {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]catalog.Show, len(s.catalogShows))
	copy(out, s.catalogShows)
	return out
}

// Show looks up a catalog entry by id.
func (s *Session) Show(showID string) (catalog.Show, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findShowLocked(showID)
}

func (s *Session) findShowLocked(showID string) (catalog.Show, bool) {
	for _, show := range s.catalogShows {
		if show.ID == showID {
			return show, true
		}
	}
	return catalog.Show{}, false
}

// Selection returns the current selection.
func (s *Session) Selection() Selection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sel
}

// SelectShow selects showID and makes sure its data is loading. Changing show
// clears the episode and asset selection. An empty showID returns to the
// catalog and yields a nil request.
func (s *Session) SelectShow(ctx context.Context, showID string) (*showsync.LoadRequest, error) {
	s.selectMu.Lock()
	defer s.selectMu.Unlock()
	return s.selectShow(ctx, showID)
}

// selectShow does the work of SelectShow. s.selectMu must be held.
func (s *Session) selectShow(ctx context.Context, showID string) (*showsync.LoadRequest, error) {
	s.mu.Lock()
	if showID != "" && s.catalogLoaded {
		if _, ok := s.findShowLocked(showID); !ok {
			s.mu.Unlock()
			return nil, fmt.Errorf("%w: %s", ErrUnknownShow, showID)
		}
	}
	if s.sel.ShowID != showID {
		s.sel = Selection{ShowID: showID}
	}
	s.mu.Unlock()

	s.coord.SelectShow(showID)
	if showID == "" {
		return nil, nil
	}
	return s.coord.EnsureLoaded(ctx, showID, false), nil
}

// SelectEpisode selects an episode of the current show.
func (s *Session) SelectEpisode(episodeID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sel.EpisodeID = episodeID
}

// SelectAsset selects an asset of the current show.
func (s *Session) SelectAsset(assetID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sel.AssetID = assetID
}

// SelectCategory filters assets by category. An empty category clears it.
func (s *Session) SelectCategory(category catalog.AssetCategory) error {
	if category != "" {
		if err := category.Validate(); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sel.Category = category
	return nil
}

// ApplyRoute replaces the selection with the route's parameters.
func (s *Session) ApplyRoute(ctx context.Context, r Route) (*showsync.LoadRequest, error) {
	if r.Category != "" {
		if err := r.Category.Validate(); err != nil {
			return nil, err
		}
	}
	s.selectMu.Lock()
	defer s.selectMu.Unlock()

	req, err := s.selectShow(ctx, r.ShowID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.sel.EpisodeID = r.EpisodeID
	s.sel.AssetID = r.AssetID
	s.sel.Category = r.Category
	s.mu.Unlock()
	return req, nil
}

// Route returns the selection as a route.
func (s *Session) Route() Route {
	sel := s.Selection()
	return Route{ShowID: sel.ShowID, EpisodeID: sel.EpisodeID, AssetID: sel.AssetID, Category: sel.Category}
}

// View evaluates the gate for the current selection. If the selected show's
// data is neither valid nor loading, and its last load did not fail, a load is
// started so the view converges without the caller having to ask.
func (s *Session) View(ctx context.Context) showsync.Decision {
	d := s.decide()
	if d.Kind == showsync.DecisionLoading && d.Label == showsync.LoadingShowData && !s.coord.Pending(d.ShowID) {
		s.selectMu.Lock()
		if s.Selection().ShowID == d.ShowID {
			s.coord.EnsureLoaded(ctx, d.ShowID, false)
		}
		s.selectMu.Unlock()
		d = s.decide()
	}
	return d
}

// Decision evaluates the gate without starting any load.
func (s *Session) Decision() showsync.Decision {
	return s.decide()
}

func (s *Session) decide() showsync.Decision {
	s.mu.RLock()
	selected := s.sel.ShowID
	catalogLoaded := s.catalogLoaded
	catalogErr := s.catalogErr
	s.mu.RUnlock()

	in := s.coord.Inputs(selected)
	in.CatalogLoaded = catalogLoaded
	in.CatalogErr = catalogErr
	return showsync.Decide(in)
}

// IsLoading reports whether the catalog or any show is being fetched.
func (s *Session) IsLoading() bool {
	s.mu.RLock()
	loading := s.catalogLoading
	s.mu.RUnlock()
	return loading || s.coord.Busy()
}

// CurrentError returns the error the view should show, if any: a catalog
// failure, or the last failed load of the selected show.
func (s *Session) CurrentError() error {
	s.mu.RLock()
	catalogErr := s.catalogErr
	selected := s.sel.ShowID
	s.mu.RUnlock()

	if catalogErr != nil {
		return catalogErr
	}
	err, showID := s.coord.LastError()
	if err != nil && showID == selected {
		return err
	}
	return nil
}

// LoadedShowID returns the show whose data is resident, or "".
func (s *Session) LoadedShowID() string {
	return s.coord.Tracker().Read().ResidentShowID
}

// Retry re-runs whatever failed: the catalog if it never loaded, otherwise a
// forced reload of the selected show. It returns nil when there is nothing to
// reload.
func (s *Session) Retry(ctx context.Context) (*showsync.LoadRequest, error) {
	s.mu.RLock()
	catalogFailed := !s.catalogLoaded
	s.mu.RUnlock()

	if catalogFailed {
		if err := s.LoadCatalog(ctx); err != nil {
			return nil, err
		}
	}
	s.selectMu.Lock()
	defer s.selectMu.Unlock()
	selected := s.Selection().ShowID
	if selected == "" {
		return nil, nil
	}
	return s.coord.EnsureLoaded(ctx, selected, true), nil
}

// Refresh force-reloads showID if it is the selected show. Change
// notifications for other shows are ignored.
func (s *Session) Refresh(ctx context.Context, showID string) *showsync.LoadRequest {
	s.selectMu.Lock()
	defer s.selectMu.Unlock()
	if s.Selection().ShowID != showID {
		return nil
	}
	return s.coord.EnsureLoaded(ctx, showID, true)
}

// SelectedEpisode returns the selected episode if the selected show's data is
// renderable.
func (s *Session) SelectedEpisode() (catalog.Episode, bool) {
	d := s.decide()
	sel := s.Selection()
	if d.Kind != showsync.DecisionRender || d.Data == nil || sel.EpisodeID == "" {
		return catalog.Episode{}, false
	}
	for _, ep := range d.Data.Episodes {
		if ep.ID == sel.EpisodeID {
			return ep, true
		}
	}
	return catalog.Episode{}, false
}

// SelectedAsset returns the selected asset if the selected show's data is
// renderable.
func (s *Session) SelectedAsset() (catalog.Asset, bool) {
	d := s.decide()
	sel := s.Selection()
	if d.Kind != showsync.DecisionRender || d.Data == nil || sel.AssetID == "" {
		return catalog.Asset{}, false
	}
	for _, a := range d.Data.Assets {
		if a.ID == sel.AssetID {
			return a, true
		}
	}
	return catalog.Asset{}, false
}

// VisibleAssets returns the renderable assets filtered by the selected
// category.
func (s *Session) VisibleAssets() []catalog.Asset {
	d := s.decide()
	if d.Kind != showsync.DecisionRender || d.Data == nil {
		return nil
	}
	category := s.Selection().Category
	var out []catalog.Asset
	for _, a := range d.Data.Assets {
		if category == "" || a.Category == category {
			out = append(out, a)
		}
	}
	return out
}
