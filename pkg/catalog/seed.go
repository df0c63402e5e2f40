package catalog

import (
	"context"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// SeedFile is the on-disk layout accepted by SeedStore: shows with their
// documents nested underneath.
type SeedFile struct {
	Shows []SeedShow `json:"shows"`
}

// SeedShow is one show in a SeedFile. Documents inherit ShowID from the show.
type SeedShow struct {
	Show         Show          `json:"show"`
	Assets       []Asset       `json:"assets"`
	Episodes     []Episode     `json:"episodes"`
	EpisodeIdeas []EpisodeIdea `json:"episode_ideas"`
	GeneralIdeas []GeneralIdea `json:"general_ideas"`
	PlotThemes   []PlotTheme   `json:"plot_themes"`
}

// SeedStore writes every show and document of f into store and returns the
// number of documents written (shows included).
func SeedStore(ctx context.Context, store Store, f *SeedFile) (int, error) {
	written := 0
	for _, entry := range f.Shows {
		show := entry.Show
		if err := store.PutShow(ctx, &show); err != nil {
			return written, fmt.Errorf("failed to seed show %q: %w", show.Name, err)
		}
		written++

		docs := make([]Document, 0, len(entry.Assets)+len(entry.Episodes)+len(entry.EpisodeIdeas)+len(entry.GeneralIdeas)+len(entry.PlotThemes))
		for _, a := range entry.Assets {
			a.ShowID = show.ID
			docs = append(docs, a)
		}
		for _, e := range entry.Episodes {
			e.ShowID = show.ID
			docs = append(docs, e)
		}
		for _, i := range entry.EpisodeIdeas {
			i.ShowID = show.ID
			docs = append(docs, i)
		}
		for _, g := range entry.GeneralIdeas {
			g.ShowID = show.ID
			docs = append(docs, g)
		}
		for _, p := range entry.PlotThemes {
			p.ShowID = show.ID
			docs = append(docs, p)
		}

		for _, doc := range docs {
			if err := store.Put(ctx, doc); err != nil {
				return written, fmt.Errorf("failed to seed %s %s: %w", doc.Collection(), doc.DocumentID(), err)
			}
			written++
		}
	}
	return written, nil
}

// ParseSeedYAML decodes a YAML seed file. The YAML is normalised through JSON
// so the documents' json tags define the accepted keys.
func ParseSeedYAML(data []byte) (*SeedFile, error) {
	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse seed YAML: %w", err)
	}

	normalized, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to normalise seed YAML: %w", err)
	}

	var f SeedFile
	if err := json.Unmarshal(normalized, &f); err != nil {
		return nil, fmt.Errorf("failed to decode seed file: %w", err)
	}
	if len(f.Shows) == 0 {
		return nil, fmt.Errorf("seed file defines no shows")
	}
	return &f, nil
}
