package commands

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/concepto-studio/concepto/internal/remote"
	"github.com/concepto-studio/concepto/pkg/catalog"
)

const (
	novaShowID   = "2f8d0c6e-6a53-4a53-9d7e-7c1f1f0d1a01"
	novaAssetID  = "0b9a3c1e-1111-4c3f-8e2a-9a4b5c6d7e01"
	novaThemeID  = "0b9a3c1e-2222-4c3f-8e2a-9a4b5c6d7e02"
	harborShowID = "6a1b2c3d-0000-4e5f-8a9b-0c1d2e3f4a5b"
)

const testSeed = `
shows:
  - show:
      id: 2f8d0c6e-6a53-4a53-9d7e-7c1f1f0d1a01
      name: Nova Patrol
      description: Space rangers for preschoolers
    assets:
      - id: 0b9a3c1e-1111-4c3f-8e2a-9a4b5c6d7e01
        name: Captain Nova
        category: character
    plot_themes:
      - id: 0b9a3c1e-2222-4c3f-8e2a-9a4b5c6d7e02
        name: Friendship
  - show:
      id: 6a1b2c3d-0000-4e5f-8a9b-0c1d2e3f4a5b
      name: Blue Harbor
    general_ideas:
      - id: 6a1b2c3d-1111-4e5f-8a9b-0c1d2e3f4a5b
        name: Foggy mornings
`

// writeProject creates concepto.yml plus a seed file in a temp dir and
// returns both paths.
func writeProject(t *testing.T, store string) (configFile, seedFile string) {
	t.Helper()
	dir := t.TempDir()

	configFile = filepath.Join(dir, "concepto.yml")
	require.NoError(t, os.WriteFile(configFile, []byte("version: \"1.0\"\n"+store), 0644))

	seedFile = filepath.Join(dir, "seed.yml")
	require.NoError(t, os.WriteFile(seedFile, []byte(testSeed), 0644))
	return configFile, seedFile
}

func sqliteProject(t *testing.T) (string, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "concepto.db")
	return writeProject(t, fmt.Sprintf("store:\n  backend: sqlite\n  sqlite_path: %s\n", dbPath))
}

func TestLoadConfig(t *testing.T) {
	t.Run("missing file suggests init", func(t *testing.T) {
		output, err := runCLI(t, "--config", filepath.Join(t.TempDir(), "nope.yml"), "shows")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
		assert.Contains(t, output, "concepto init")
	})

	t.Run("invalid file reports the problem", func(t *testing.T) {
		configFile, _ := writeProject(t, "store:\n  backend: postgres\n")
		output, err := runCLI(t, "--config", configFile, "shows")
		require.Error(t, err)
		assert.Equal(t, "invalid configuration", err.Error())
		assert.Contains(t, output, "invalid store.backend")
	})
}

func TestSeedLoadAndGet_SQLite(t *testing.T) {
	configFile, seedFile := sqliteProject(t)

	output, err := runCLI(t, "--config", configFile, "seed", seedFile)
	require.NoError(t, err)
	assert.Contains(t, output, "Seeded 5 document(s)")

	t.Run("shows lists the catalog by name", func(t *testing.T) {
		output, err := runCLI(t, "--config", configFile, "shows")
		require.NoError(t, err)
		assert.Contains(t, output, "Nova Patrol")
		assert.Contains(t, output, "Blue Harbor")
		assert.Less(t, strings.Index(output, "Blue Harbor"), strings.Index(output, "Nova Patrol"))
	})

	t.Run("load by name as jsonl", func(t *testing.T) {
		output, err := runCLI(t, "--config", configFile, "load", "nova patrol", "-o", "jsonl")
		require.NoError(t, err)

		lines := strings.Split(strings.TrimSpace(output), "\n")
		require.Len(t, lines, 2)
		for _, line := range lines {
			var record map[string]any
			require.NoError(t, json.Unmarshal([]byte(line), &record))
		}
		assert.Contains(t, output, "Captain Nova")
		assert.Contains(t, output, "Friendship")
		assert.NotContains(t, output, "Foggy mornings", "other show's documents must not leak")
	})

	t.Run("load by ID prefix with collection filter", func(t *testing.T) {
		output, err := runCLI(t, "--config", configFile, "load", novaShowID[:8], "--collection", "plot_themes")
		require.NoError(t, err)
		assert.Contains(t, output, "Friendship")
		assert.NotContains(t, output, "Captain Nova")
	})

	t.Run("category filter keeps matching assets only", func(t *testing.T) {
		output, err := runCLI(t, "--config", configFile, "load", "Nova Patrol", "--category", "character")
		require.NoError(t, err)
		assert.Contains(t, output, "Captain Nova")
		assert.NotContains(t, output, "Friendship")

		output, err = runCLI(t, "--config", configFile, "load", "Nova Patrol", "--category", "vehicle")
		require.NoError(t, err)
		assert.Contains(t, output, "No documents found for show 'Nova Patrol'")
	})

	t.Run("get resolves a document prefix", func(t *testing.T) {
		output, err := runCLI(t, "--config", configFile, "get", "Nova Patrol", novaThemeID[:13])
		require.NoError(t, err)

		var doc map[string]any
		require.NoError(t, json.Unmarshal([]byte(output), &doc))
		assert.Equal(t, novaThemeID, doc["id"])
		assert.Equal(t, novaShowID, doc["show_id"])
	})

	t.Run("get cannot reach another show's documents", func(t *testing.T) {
		_, err := runCLI(t, "--config", configFile, "get", "Blue Harbor", novaAssetID)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("unknown show", func(t *testing.T) {
		output, err := runCLI(t, "--config", configFile, "load", "Nope Show")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "show 'Nope Show' not found")
		assert.Contains(t, output, "concepto shows")
	})

	t.Run("invalid flags are rejected before connecting", func(t *testing.T) {
		_, err := runCLI(t, "--config", configFile, "load", "Nova Patrol", "--category", "prop")
		assert.EqualError(t, err, "invalid category")

		_, err = runCLI(t, "--config", configFile, "load", "Nova Patrol", "-o", "xml")
		assert.EqualError(t, err, "invalid output format")

		_, err = runCLI(t, "--config", configFile, "load", "Nova Patrol", "--since", "yesterday-ish")
		assert.EqualError(t, err, "invalid time filter")
	})

	t.Run("shot needs the remote backend", func(t *testing.T) {
		_, err := runCLI(t, "--config", configFile, "shot", novaAssetID)
		assert.EqualError(t, err, "shots need the external API")
	})

	t.Run("watch needs the redis backend", func(t *testing.T) {
		_, err := runCLI(t, "--config", configFile, "watch", "Nova Patrol")
		assert.EqualError(t, err, "change feed unavailable")
	})
}

func TestSeed_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	configFile, seedFile := writeProject(t, fmt.Sprintf("store:\n  backend: redis\n  redis_url: redis://%s\n  namespace: cli-test\n", mr.Addr()))

	_, err := runCLI(t, "--config", configFile, "seed", seedFile)
	require.NoError(t, err)

	isMember, err := mr.SIsMember(catalog.ShowsKey("cli-test"), harborShowID)
	require.NoError(t, err)
	assert.True(t, isMember)

	output, err := runCLI(t, "--config", configFile, "load", "Blue Harbor")
	require.NoError(t, err)
	assert.Contains(t, output, "Foggy mornings")
}

func TestOpenBackend_Unreachable(t *testing.T) {
	configFile, _ := writeProject(t, "store:\n  backend: redis\n  redis_url: redis://127.0.0.1:1\n")

	output, err := runCLI(t, "--config", configFile, "shows")
	require.Error(t, err)
	assert.Equal(t, "store unavailable", err.Error())
	assert.Contains(t, output, "redis://127.0.0.1:1")
}

func TestSeed_RejectsBadFile(t *testing.T) {
	configFile, _ := sqliteProject(t)
	bad := filepath.Join(t.TempDir(), "bad.yml")
	require.NoError(t, os.WriteFile(bad, []byte("shows: []\n"), 0644))

	_, err := runCLI(t, "--config", configFile, "seed", bad)
	assert.EqualError(t, err, "invalid seed file")

	output, err := runCLI(t, "--config", configFile, "shows")
	require.NoError(t, err)
	assert.Contains(t, output, "No shows found")
}

// remoteAPI fakes the external API: one show and one shot.
func remoteAPI(t *testing.T) *httptest.Server {
	t.Helper()
	shot := map[string]any{"id": "shot-1", "shot_number": 1, "audio": "Hello"}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/external/shows", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(t, w, []map[string]any{{"id": novaShowID, "name": "Nova Patrol"}})
	})
	mux.HandleFunc("/api/external/shots/", func(w http.ResponseWriter, r *http.Request) {
		if strings.TrimPrefix(r.URL.Path, "/api/external/shots/") != "shot-1" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "Shot not found", "code": "NOT_FOUND"})
			return
		}
		if r.Method == http.MethodPut {
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			if audio, ok := body["audio"].(string); ok {
				shot["audio"] = audio
			}
			if wc, ok := body["wordCount"].(float64); ok {
				shot["word_count"] = int(wc)
			}
		}
		writeEnvelope(t, w, shot)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func writeEnvelope(t *testing.T, w http.ResponseWriter, payload any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(map[string]any{"success": true, "data": payload}))
}

func TestShot_Remote(t *testing.T) {
	server := remoteAPI(t)
	configFile, _ := writeProject(t, fmt.Sprintf(
		"store:\n  backend: remote\nremote:\n  endpoint: %s/api/external\n  api_key: test-key\n", server.URL))
	t.Setenv("CONCEPTO_API_KEY", "")

	t.Run("fetch", func(t *testing.T) {
		output, err := runCLI(t, "--config", configFile, "shot", "shot-1")
		require.NoError(t, err)

		var got catalog.Shot
		require.NoError(t, json.Unmarshal([]byte(output), &got))
		assert.Equal(t, "Hello", got.Audio)
	})

	t.Run("update sends only changed fields", func(t *testing.T) {
		output, err := runCLI(t, "--config", configFile, "shot", "shot-1", "--audio", "We fly at dawn.", "--word-count", "4")
		require.NoError(t, err)

		var got catalog.Shot
		require.NoError(t, json.Unmarshal([]byte(output), &got))
		assert.Equal(t, "We fly at dawn.", got.Audio)
		assert.Equal(t, 4, got.WordCount)
	})

	t.Run("missing shot", func(t *testing.T) {
		_, err := runCLI(t, "--config", configFile, "shot", "shot-404")
		assert.EqualError(t, err, "shot 'shot-404' not found")
	})

	t.Run("remote backend cannot be seeded", func(t *testing.T) {
		_, seedFile := sqliteProject(t)
		_, err := runCLI(t, "--config", configFile, "seed", seedFile)
		assert.EqualError(t, err, "store is read-only")
	})
}

func TestShotUpdateFromFlags(t *testing.T) {
	resetFlags(rootCmd)
	require.NoError(t, shotCmd.ParseFlags([]string{"--runtime", "2.5"}))
	t.Cleanup(func() { resetFlags(rootCmd) })

	update := shotUpdateFromFlags(shotCmd)
	require.NotNil(t, update.Runtime)
	assert.Equal(t, 2.5, *update.Runtime)
	assert.Nil(t, update.Audio)
	assert.Nil(t, update.WordCount)
	assert.Equal(t, remote.ShotUpdate{Runtime: update.Runtime}, update)
}
