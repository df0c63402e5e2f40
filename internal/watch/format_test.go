package watch

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/concepto-studio/concepto/internal/showsync"
	"github.com/concepto-studio/concepto/pkg/catalog"
)

func TestFormatChange(t *testing.T) {
	tests := []struct {
		name     string
		event    catalog.ChangeEvent
		expected string
	}{
		{
			name:     "document put",
			event:    catalog.ChangeEvent{ShowID: "s1", Collection: catalog.CollectionEpisodeIdeas, EntityID: "e1", Op: catalog.ChangeOpPut, OccurredAtMs: 1},
			expected: "episode ideas updated: id=e1",
		},
		{
			name:     "document delete",
			event:    catalog.ChangeEvent{ShowID: "s1", Collection: catalog.CollectionAssets, EntityID: "a1", Op: catalog.ChangeOpDelete, OccurredAtMs: 1},
			expected: "🗑️  assets deleted: id=a1",
		},
		{
			name:     "show level change",
			event:    catalog.ChangeEvent{ShowID: "s1", Op: catalog.ChangeOpPut, OccurredAtMs: 1},
			expected: "Show updated",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			assert.NoError(t, NewFormatter(buf).FormatChange(tt.event))
			assert.True(t, strings.Contains(buf.String(), tt.expected),
				"Expected output to contain '%s', got: %s", tt.expected, buf.String())
		})
	}
}

func TestFormatDecision(t *testing.T) {
	agg := &showsync.Aggregate{
		Assets:     []catalog.Asset{{ID: "a1"}, {ID: "a2"}},
		PlotThemes: []catalog.PlotTheme{{ID: "p1"}},
	}

	tests := []struct {
		name     string
		decision showsync.Decision
		expected string
	}{
		{"loading", showsync.Decision{Kind: showsync.DecisionLoading, Label: showsync.LoadingShows}, "⏳ Loading shows..."},
		{"error", showsync.Decision{Kind: showsync.DecisionError, Reason: "could not load assets: boom"}, "❌ could not load assets: boom"},
		{"render", showsync.Decision{Kind: showsync.DecisionRender, Data: agg},
			"✅ Ready: 2 assets, 0 episodes, 0 episode ideas, 0 general ideas, 1 plot themes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			assert.NoError(t, NewFormatter(buf).FormatDecision(tt.decision))
			assert.Equal(t, tt.expected+"\n", buf.String())
		})
	}
}

func TestFormatOutcome(t *testing.T) {
	buf := &bytes.Buffer{}
	f := NewFormatter(buf)

	assert.NoError(t, f.FormatOutcome(showsync.Outcome{Status: showsync.OutcomeStale}))
	assert.Empty(t, buf.String(), "stale reloads are not shown")

	assert.NoError(t, f.FormatOutcome(showsync.Outcome{Status: showsync.OutcomeCommitted}))
	assert.Contains(t, buf.String(), "🔄 Reloaded")

	failure := &showsync.FetchFailure{Collection: catalog.CollectionEpisodes, Err: errors.New("timeout")}
	assert.NoError(t, f.FormatOutcome(showsync.Outcome{Status: showsync.OutcomeFailed, Err: failure}))
	assert.Contains(t, buf.String(), "Reload failed: could not load episodes: timeout")
}
