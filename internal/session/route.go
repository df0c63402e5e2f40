package session

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/concepto-studio/concepto/pkg/catalog"
)

// Route holds the URL parameters that persist navigation state.
type Route struct {
	ShowID    string
	EpisodeID string
	AssetID   string
	Category  catalog.AssetCategory
}

// ParseRoute reads a route from a URL. Recognised paths:
//
//	/shows
//	/shows/{showId}
//	/shows/{showId}/episodes/{episodeId}
//	/shows/{showId}/assets[/{assetId}]
//
// The query parameters showId, episodeId, assetId and category are accepted
// as well; path segments take precedence.
func ParseRoute(u *url.URL) (Route, error) {
	q := u.Query()
	r := Route{
		ShowID:    q.Get("showId"),
		EpisodeID: q.Get("episodeId"),
		AssetID:   q.Get("assetId"),
		Category:  catalog.AssetCategory(q.Get("category")),
	}

	segments := splitPath(u.Path)
	if len(segments) > 0 {
		if segments[0] != "shows" {
			return Route{}, fmt.Errorf("unknown route %q", u.Path)
		}
		segments = segments[1:]
	}
	if len(segments) > 0 {
		r.ShowID = segments[0]
		segments = segments[1:]
	}
	if len(segments) > 0 {
		switch segments[0] {
		case "episodes":
			if len(segments) > 1 {
				r.EpisodeID = segments[1]
			}
		case "assets":
			if len(segments) > 1 {
				r.AssetID = segments[1]
			}
		default:
			return Route{}, fmt.Errorf("unknown route %q", u.Path)
		}
		if len(segments) > 2 {
			return Route{}, fmt.Errorf("unknown route %q", u.Path)
		}
	}

	if r.Category != "" {
		if err := r.Category.Validate(); err != nil {
			return Route{}, err
		}
	}
	if r.ShowID == "" && (r.EpisodeID != "" || r.AssetID != "") {
		return Route{}, fmt.Errorf("route %q selects an entity without a show", u.String())
	}
	return r, nil
}

// Path renders the route back to its canonical URL path and query. The
// episode takes the path when both an episode and an asset are selected; the
// asset then rides along as the assetId query parameter.
func (r Route) Path() string {
	var b strings.Builder
	q := url.Values{}
	b.WriteString("/shows")
	if r.ShowID != "" {
		b.WriteString("/" + url.PathEscape(r.ShowID))
		switch {
		case r.EpisodeID != "":
			b.WriteString("/episodes/" + url.PathEscape(r.EpisodeID))
			if r.AssetID != "" {
				q.Set("assetId", r.AssetID)
			}
		case r.AssetID != "":
			b.WriteString("/assets/" + url.PathEscape(r.AssetID))
		}
	}
	if r.Category != "" {
		q.Set("category", string(r.Category))
	}
	if len(q) > 0 {
		b.WriteString("?" + q.Encode())
	}
	return b.String()
}

func splitPath(p string) []string {
	var out []string
	for _, seg := range strings.Split(p, "/") {
		if seg != "" {
			out = append(out, seg)
		}
	}
	return out
}
