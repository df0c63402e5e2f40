package showsync

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/concepto-studio/concepto/pkg/catalog"
)

// Source is the per-show read side of the document store. Every backend
// (Redis, SQLite, remote API) implements it.
type Source interface {
	ListAssets(ctx context.Context, showID string) ([]catalog.Asset, error)
	ListEpisodes(ctx context.Context, showID string) ([]catalog.Episode, error)
	ListEpisodeIdeas(ctx context.Context, showID string) ([]catalog.EpisodeIdea, error)
	ListGeneralIdeas(ctx context.Context, showID string) ([]catalog.GeneralIdea, error)
	ListPlotThemes(ctx context.Context, showID string) ([]catalog.PlotTheme, error)
}

// CollectionFetcher loads a show's aggregate. The coordinator depends on this
// interface so tests can gate fetches.
type CollectionFetcher interface {
	Fetch(ctx context.Context, showID string) (*Aggregate, error)
}

// Fetcher issues the five collection reads for a show concurrently.
// It never touches tracker state.
type Fetcher struct {
	source  Source
	timeout time.Duration
}

// NewFetcher creates a fetcher over source. A zero timeout means the fetch is
// bounded only by the caller's context.
func NewFetcher(source Source, timeout time.Duration) *Fetcher {
	return &Fetcher{source: source, timeout: timeout}
}

// Fetch reads every collection of showID. The first failing read cancels the
// others and is returned as a *FetchFailure. There is no retry.
func (f *Fetcher) Fetch(ctx context.Context, showID string) (*Aggregate, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	var agg Aggregate
	g, gctx := errgroup.WithContext(ctx)

	read(g, gctx, showID, catalog.CollectionAssets, f.source.ListAssets, &agg.Assets)
	read(g, gctx, showID, catalog.CollectionEpisodes, f.source.ListEpisodes, &agg.Episodes)
	read(g, gctx, showID, catalog.CollectionEpisodeIdeas, f.source.ListEpisodeIdeas, &agg.EpisodeIdeas)
	read(g, gctx, showID, catalog.CollectionGeneralIdeas, f.source.ListGeneralIdeas, &agg.GeneralIdeas)
	read(g, gctx, showID, catalog.CollectionPlotThemes, f.source.ListPlotThemes, &agg.PlotThemes)

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &agg, nil
}

// read schedules one collection read on g. Each goroutine writes only its own
// destination slice.
func read[T any](g *errgroup.Group, ctx context.Context, showID string, collection catalog.Collection,
	list func(context.Context, string) ([]T, error), dst *[]T) {
	g.Go(func() error {
		items, err := list(ctx, showID)
		if err != nil {
			return &FetchFailure{ShowID: showID, Collection: collection, Err: err}
		}
		if items == nil {
			items = []T{}
		}
		*dst = items
		return nil
	})
}
