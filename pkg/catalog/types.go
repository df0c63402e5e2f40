// Package catalog provides type-safe Go definitions and Redis schema patterns
// for Concepto's production catalog. Shows own every other document; each
// document carries the id of the show it belongs to.
//
// All Redis keys and channels are namespaced by studio namespace and show id so
// several studios (and every show within them) can share one Redis server.
package catalog

import (
	"fmt"

	"github.com/google/uuid"
)

// Collection names one of the five per-show document collections.
type Collection string

const (
	CollectionAssets       Collection = "assets"
	CollectionEpisodes     Collection = "episodes"
	CollectionEpisodeIdeas Collection = "episode_ideas"
	CollectionGeneralIdeas Collection = "general_ideas"
	CollectionPlotThemes   Collection = "plot_themes"
)

// AllCollections lists the per-show collections in load order.
var AllCollections = []Collection{
	CollectionAssets,
	CollectionEpisodes,
	CollectionEpisodeIdeas,
	CollectionGeneralIdeas,
	CollectionPlotThemes,
}

// Validate checks if the Collection is a known value.
func (c Collection) Validate() error {
	switch c {
	case CollectionAssets, CollectionEpisodes, CollectionEpisodeIdeas,
		CollectionGeneralIdeas, CollectionPlotThemes:
		return nil
	default:
		return fmt.Errorf("unknown collection: %q", c)
	}
}

// Document is implemented by every show-scoped entity stored in a collection.
type Document interface {
	DocumentID() string
	OwnerShowID() string
	Collection() Collection
	Validate() error
}

// Show is the top-level tenant. Everything else in the catalog hangs off a show.
type Show struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	CoverImageURL string `json:"cover_image_url,omitempty"`
	CreatedAtMs   int64  `json:"created_at_ms"`
	UpdatedAtMs   int64  `json:"updated_at_ms"`
}

// AssetCategory classifies an asset.
type AssetCategory string

const (
	CategoryCharacter  AssetCategory = "character"
	CategoryLocation   AssetCategory = "location"
	CategoryGadget     AssetCategory = "gadget"
	CategoryVehicle    AssetCategory = "vehicle"
	CategoryTexture    AssetCategory = "texture"
	CategoryBackground AssetCategory = "background"
)

// Validate checks if the AssetCategory is a known value.
func (ac AssetCategory) Validate() error {
	switch ac {
	case CategoryCharacter, CategoryLocation, CategoryGadget,
		CategoryVehicle, CategoryTexture, CategoryBackground:
		return nil
	default:
		return fmt.Errorf("unknown asset category: %q", ac)
	}
}

// Concept is one piece of visual development attached to an asset.
type Concept struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	CreatedAtMs int64  `json:"created_at_ms"`
}

// Asset is a character, location, gadget, vehicle, texture or background.
type Asset struct {
	ID           string        `json:"id"`
	ShowID       string        `json:"show_id"`
	Name         string        `json:"name"`
	Category     AssetCategory `json:"category"`
	Description  string        `json:"description,omitempty"`
	MainImageURL string        `json:"main_image_url,omitempty"`
	Concepts     []Concept     `json:"concepts"`
	CreatedAtMs  int64         `json:"created_at_ms"`
	UpdatedAtMs  int64         `json:"updated_at_ms"`
}

// Shot is the smallest unit of an episode's screenplay.
type Shot struct {
	ID           string  `json:"id"`
	ShotNumber   int     `json:"shot_number"`
	Audio        string  `json:"audio,omitempty"`
	Visual       string  `json:"visual,omitempty"`
	WordCount    int     `json:"word_count,omitempty"`
	Runtime      float64 `json:"runtime,omitempty"` // seconds
	MainImageURL string  `json:"main_image_url,omitempty"`
}

// Scene groups consecutive shots of an episode.
type Scene struct {
	ID          string `json:"id"`
	SceneNumber int    `json:"scene_number"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Shots       []Shot `json:"shots"`
}

// Episode is one episode of a show with its scene breakdown.
type Episode struct {
	ID            string   `json:"id"`
	ShowID        string   `json:"show_id"`
	Title         string   `json:"title"`
	EpisodeNumber int      `json:"episode_number"`
	Description   string   `json:"description,omitempty"`
	Characters    []string `json:"characters"` // asset IDs
	Locations     []string `json:"locations"`  // asset IDs
	Scenes        []Scene  `json:"scenes"`
	CreatedAtMs   int64    `json:"created_at_ms"`
	UpdatedAtMs   int64    `json:"updated_at_ms"`
}

// IdeaStatus tracks an episode idea through development.
type IdeaStatus string

const (
	IdeaStatusDraft    IdeaStatus = "draft"
	IdeaStatusApproved IdeaStatus = "approved"
	IdeaStatusRejected IdeaStatus = "rejected"
)

// EpisodeIdea is a pitch that may become an episode.
type EpisodeIdea struct {
	ID          string     `json:"id"`
	ShowID      string     `json:"show_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      IdeaStatus `json:"status"`
	CreatedAtMs int64      `json:"created_at_ms"`
	UpdatedAtMs int64      `json:"updated_at_ms"`
}

// GeneralIdea is a free-form note attached to a show.
type GeneralIdea struct {
	ID          string   `json:"id"`
	ShowID      string   `json:"show_id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags"`
	CreatedAtMs int64    `json:"created_at_ms"`
	UpdatedAtMs int64    `json:"updated_at_ms"`
}

// PlotTheme is a recurring theme across a show's episodes.
type PlotTheme struct {
	ID          string   `json:"id"`
	ShowID      string   `json:"show_id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	KeyElements []string `json:"key_elements"`
	CreatedAtMs int64    `json:"created_at_ms"`
	UpdatedAtMs int64    `json:"updated_at_ms"`
}

func (a Asset) DocumentID() string         { return a.ID }
func (a Asset) OwnerShowID() string        { return a.ShowID }
func (Asset) Collection() Collection       { return CollectionAssets }
func (e Episode) DocumentID() string       { return e.ID }
func (e Episode) OwnerShowID() string      { return e.ShowID }
func (Episode) Collection() Collection     { return CollectionEpisodes }
func (i EpisodeIdea) DocumentID() string   { return i.ID }
func (i EpisodeIdea) OwnerShowID() string  { return i.ShowID }
func (EpisodeIdea) Collection() Collection { return CollectionEpisodeIdeas }
func (g GeneralIdea) DocumentID() string   { return g.ID }
func (g GeneralIdea) OwnerShowID() string  { return g.ShowID }
func (GeneralIdea) Collection() Collection { return CollectionGeneralIdeas }
func (p PlotTheme) DocumentID() string     { return p.ID }
func (p PlotTheme) OwnerShowID() string    { return p.ShowID }
func (PlotTheme) Collection() Collection   { return CollectionPlotThemes }

// Validate checks if the Show has valid field values.
func (s *Show) Validate() error {
	if !isValidUUID(s.ID) {
		return fmt.Errorf("invalid show ID: not a valid UUID")
	}
	if s.Name == "" {
		return fmt.Errorf("show name cannot be empty")
	}
	return nil
}

// Validate checks if the Asset has valid field values.
func (a Asset) Validate() error {
	if err := validateScoped(a.ID, a.ShowID); err != nil {
		return fmt.Errorf("asset: %w", err)
	}
	if a.Name == "" {
		return fmt.Errorf("asset name cannot be empty")
	}
	if err := a.Category.Validate(); err != nil {
		return fmt.Errorf("invalid asset category: %w", err)
	}
	for i, concept := range a.Concepts {
		if !isValidUUID(concept.ID) {
			return fmt.Errorf("invalid concept at index %d: not a valid UUID", i)
		}
	}
	return nil
}

// Validate checks if the Episode has valid field values.
func (e Episode) Validate() error {
	if err := validateScoped(e.ID, e.ShowID); err != nil {
		return fmt.Errorf("episode: %w", err)
	}
	if e.Title == "" {
		return fmt.Errorf("episode title cannot be empty")
	}
	if e.EpisodeNumber < 0 {
		return fmt.Errorf("invalid episode number: must be >= 0, got %d", e.EpisodeNumber)
	}
	return nil
}

// Validate checks if the EpisodeIdea has valid field values.
func (i EpisodeIdea) Validate() error {
	if err := validateScoped(i.ID, i.ShowID); err != nil {
		return fmt.Errorf("episode idea: %w", err)
	}
	if i.Title == "" {
		return fmt.Errorf("episode idea title cannot be empty")
	}
	switch i.Status {
	case IdeaStatusDraft, IdeaStatusApproved, IdeaStatusRejected, "":
		return nil
	default:
		return fmt.Errorf("unknown idea status: %q", i.Status)
	}
}

// Validate checks if the GeneralIdea has valid field values.
func (g GeneralIdea) Validate() error {
	if err := validateScoped(g.ID, g.ShowID); err != nil {
		return fmt.Errorf("general idea: %w", err)
	}
	if g.Name == "" {
		return fmt.Errorf("general idea name cannot be empty")
	}
	return nil
}

// Validate checks if the PlotTheme has valid field values.
func (p PlotTheme) Validate() error {
	if err := validateScoped(p.ID, p.ShowID); err != nil {
		return fmt.Errorf("plot theme: %w", err)
	}
	if p.Name == "" {
		return fmt.Errorf("plot theme name cannot be empty")
	}
	return nil
}

func validateScoped(id, showID string) error {
	if !isValidUUID(id) {
		return fmt.Errorf("invalid ID: not a valid UUID")
	}
	if !isValidUUID(showID) {
		return fmt.Errorf("invalid show ID: not a valid UUID")
	}
	return nil
}

// isValidUUID checks if a string is a valid UUID format.
func isValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
