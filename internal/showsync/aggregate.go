package showsync

import "github.com/concepto-studio/concepto/pkg/catalog"

// Aggregate is the working set of one show: every document of the five
// show-owned collections. An Aggregate is immutable once committed.
type Aggregate struct {
	Assets       []catalog.Asset
	Episodes     []catalog.Episode
	EpisodeIdeas []catalog.EpisodeIdea
	GeneralIdeas []catalog.GeneralIdea
	PlotThemes   []catalog.PlotTheme
}

// Len returns the total number of documents across all collections.
func (a *Aggregate) Len() int {
	if a == nil {
		return 0
	}
	return len(a.Assets) + len(a.Episodes) + len(a.EpisodeIdeas) + len(a.GeneralIdeas) + len(a.PlotThemes)
}

// Counts returns the number of documents per collection.
func (a *Aggregate) Counts() map[catalog.Collection]int {
	counts := make(map[catalog.Collection]int, len(catalog.AllCollections))
	if a == nil {
		return counts
	}
	counts[catalog.CollectionAssets] = len(a.Assets)
	counts[catalog.CollectionEpisodes] = len(a.Episodes)
	counts[catalog.CollectionEpisodeIdeas] = len(a.EpisodeIdeas)
	counts[catalog.CollectionGeneralIdeas] = len(a.GeneralIdeas)
	counts[catalog.CollectionPlotThemes] = len(a.PlotThemes)
	return counts
}

// Documents returns every document in collection order (assets, episodes,
// episode ideas, general ideas, plot themes).
func (a *Aggregate) Documents() []catalog.Document {
	if a == nil {
		return nil
	}
	docs := make([]catalog.Document, 0, a.Len())
	for _, d := range a.Assets {
		docs = append(docs, d)
	}
	for _, d := range a.Episodes {
		docs = append(docs, d)
	}
	for _, d := range a.EpisodeIdeas {
		docs = append(docs, d)
	}
	for _, d := range a.GeneralIdeas {
		docs = append(docs, d)
	}
	for _, d := range a.PlotThemes {
		docs = append(docs, d)
	}
	return docs
}
