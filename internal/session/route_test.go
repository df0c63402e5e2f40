package session

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/concepto-studio/concepto/pkg/catalog"
)

func TestParseRoute(t *testing.T) {
	tests := []struct {
		raw     string
		want    Route
		wantErr bool
	}{
		{raw: "/", want: Route{}},
		{raw: "/shows", want: Route{}},
		{raw: "/shows/s1", want: Route{ShowID: "s1"}},
		{raw: "/shows/s1/episodes/e1", want: Route{ShowID: "s1", EpisodeID: "e1"}},
		{raw: "/shows/s1/assets/a1", want: Route{ShowID: "s1", AssetID: "a1"}},
		{raw: "/shows/s1/assets?category=vehicle", want: Route{ShowID: "s1", Category: catalog.CategoryVehicle}},
		{raw: "/?showId=s1&episodeId=e1", want: Route{ShowID: "s1", EpisodeID: "e1"}},
		{raw: "/shows/s2?showId=s1", want: Route{ShowID: "s2"}},
		{raw: "/shows/s1?category=props", wantErr: true},
		{raw: "/shows/s1/scripts/x", wantErr: true},
		{raw: "/shows/s1/episodes/e1/shots", wantErr: true},
		{raw: "/settings", wantErr: true},
		{raw: "/?episodeId=e1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			u, err := url.Parse(tt.raw)
			require.NoError(t, err)
			got, err := ParseRoute(u)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRoutePathRoundTrip(t *testing.T) {
	for _, r := range []Route{
		{},
		{ShowID: "s1"},
		{ShowID: "s1", EpisodeID: "e1"},
		{ShowID: "s1", AssetID: "a1", Category: catalog.CategoryTexture},
		{ShowID: "s1", EpisodeID: "e1", AssetID: "a1"},
		{ShowID: "s1", EpisodeID: "e1", AssetID: "a 1", Category: catalog.CategoryVehicle},
	} {
		u, err := url.Parse(r.Path())
		require.NoError(t, err)
		got, err := ParseRoute(u)
		require.NoError(t, err)
		assert.Equal(t, r, got, r.Path())
	}
}

func TestRoutePathKeepsAssetAlongsideEpisode(t *testing.T) {
	r := Route{ShowID: "s1", EpisodeID: "e1", AssetID: "a1"}
	assert.Equal(t, "/shows/s1/episodes/e1?assetId=a1", r.Path())

	u, err := url.Parse(r.Path())
	require.NoError(t, err)
	got, err := ParseRoute(u)
	require.NoError(t, err)
	assert.Equal(t, "a1", got.AssetID)
	assert.Equal(t, "e1", got.EpisodeID)
}
