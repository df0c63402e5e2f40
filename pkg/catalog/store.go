package catalog

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by stores when a show or document does not exist.
var ErrNotFound = errors.New("not found")

// Store is the document store contract shared by every backend.
// The List* methods are the per-show reads the sync layer loads; ListShows is
// the catalog read.
type Store interface {
	io.Closer
	Ping(ctx context.Context) error

	ListShows(ctx context.Context) ([]Show, error)
	GetShow(ctx context.Context, showID string) (*Show, error)
	PutShow(ctx context.Context, show *Show) error
	DeleteShow(ctx context.Context, showID string) error

	Put(ctx context.Context, doc Document) error
	Delete(ctx context.Context, collection Collection, showID, id string) error

	ListAssets(ctx context.Context, showID string) ([]Asset, error)
	ListEpisodes(ctx context.Context, showID string) ([]Episode, error)
	ListEpisodeIdeas(ctx context.Context, showID string) ([]EpisodeIdea, error)
	ListGeneralIdeas(ctx context.Context, showID string) ([]GeneralIdea, error)
	ListPlotThemes(ctx context.Context, showID string) ([]PlotTheme, error)
}

// ChangeOp describes what happened to a document.
type ChangeOp string

const (
	ChangeOpPut    ChangeOp = "put"
	ChangeOpDelete ChangeOp = "delete"
)

// ChangeEvent is published on a show's channel whenever one of its documents
// (or the show itself, with an empty Collection) changes.
type ChangeEvent struct {
	ShowID       string     `json:"show_id"`
	Collection   Collection `json:"collection,omitempty"`
	EntityID     string     `json:"entity_id,omitempty"`
	Op           ChangeOp   `json:"op"`
	OccurredAtMs int64      `json:"occurred_at_ms"`
}

// IsNotFound returns true if err reports a missing show or document.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
