package filter

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/concepto-studio/concepto/internal/showsync"
	"github.com/concepto-studio/concepto/pkg/catalog"
)

// Criteria defines filtering criteria for a show's documents.
// All filters are ANDed together - a document must match ALL criteria to pass.
type Criteria struct {
	SinceTimestampMs int64                 // Last update at or after, 0 = no filter
	UntilTimestampMs int64                 // Last update at or before, 0 = no filter
	NameGlob         string                // Case-insensitive glob on name or title, empty = no filter
	Category         catalog.AssetCategory // Assets only; other collections are dropped when set
	Collections      []catalog.Collection  // Restrict to these collections, empty = all
}

// Matches returns true if the document matches all filter criteria.
// Empty/zero criteria values are treated as "match all" for that criterion.
func (c *Criteria) Matches(doc catalog.Document) bool {
	info := Describe(doc)

	if len(c.Collections) > 0 && !containsCollection(c.Collections, doc.Collection()) {
		return false
	}

	if c.SinceTimestampMs > 0 && info.UpdatedAtMs < c.SinceTimestampMs {
		return false
	}
	if c.UntilTimestampMs > 0 && info.UpdatedAtMs > c.UntilTimestampMs {
		return false
	}

	if c.NameGlob != "" {
		matched, err := filepath.Match(strings.ToLower(c.NameGlob), strings.ToLower(info.Name))
		if err != nil || !matched {
			return false
		}
	}

	if c.Category != "" {
		asset, ok := doc.(catalog.Asset)
		if !ok || asset.Category != c.Category {
			return false
		}
	}

	return true
}

// HasFilters returns true if any filters are active.
func (c *Criteria) HasFilters() bool {
	return c.SinceTimestampMs > 0 ||
		c.UntilTimestampMs > 0 ||
		c.NameGlob != "" ||
		c.Category != "" ||
		len(c.Collections) > 0
}

// Apply returns a new aggregate holding only the matching documents.
// agg itself is not modified.
func (c *Criteria) Apply(agg *showsync.Aggregate) *showsync.Aggregate {
	if agg == nil {
		return nil
	}
	return &showsync.Aggregate{
		Assets:       keep(c, agg.Assets),
		Episodes:     keep(c, agg.Episodes),
		EpisodeIdeas: keep(c, agg.EpisodeIdeas),
		GeneralIdeas: keep(c, agg.GeneralIdeas),
		PlotThemes:   keep(c, agg.PlotThemes),
	}
}

func keep[T catalog.Document](c *Criteria, docs []T) []T {
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		if c.Matches(d) {
			out = append(out, d)
		}
	}
	return out
}

func containsCollection(list []catalog.Collection, c catalog.Collection) bool {
	for _, item := range list {
		if item == c {
			return true
		}
	}
	return false
}

// Info is the display-relevant subset shared by all document kinds.
type Info struct {
	Name        string
	Detail      string
	CreatedAtMs int64
	UpdatedAtMs int64
}

// Describe extracts Info from any catalog document.
func Describe(doc catalog.Document) Info {
	switch d := doc.(type) {
	case catalog.Asset:
		return Info{Name: d.Name, Detail: string(d.Category), CreatedAtMs: d.CreatedAtMs, UpdatedAtMs: d.UpdatedAtMs}
	case catalog.Episode:
		return Info{Name: d.Title, Detail: episodeDetail(d), CreatedAtMs: d.CreatedAtMs, UpdatedAtMs: d.UpdatedAtMs}
	case catalog.EpisodeIdea:
		return Info{Name: d.Title, Detail: string(d.Status), CreatedAtMs: d.CreatedAtMs, UpdatedAtMs: d.UpdatedAtMs}
	case catalog.GeneralIdea:
		return Info{Name: d.Name, Detail: strings.Join(d.Tags, ", "), CreatedAtMs: d.CreatedAtMs, UpdatedAtMs: d.UpdatedAtMs}
	case catalog.PlotTheme:
		return Info{Name: d.Name, Detail: strings.Join(d.KeyElements, ", "), CreatedAtMs: d.CreatedAtMs, UpdatedAtMs: d.UpdatedAtMs}
	default:
		return Info{}
	}
}

func episodeDetail(e catalog.Episode) string {
	shots := 0
	for _, s := range e.Scenes {
		shots += len(s.Shots)
	}
	return fmt.Sprintf("ep %d, %d scenes, %d shots", e.EpisodeNumber, len(e.Scenes), shots)
}
