// Package sqlitestore is a single-file catalog backend for studios that work
// offline. Shows and documents live in two tables; document bodies are the
// same JSON the Redis store keeps in its hashes.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/concepto-studio/concepto/pkg/catalog"
)

// Store persists the catalog in SQLite.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

var _ catalog.Store = (*Store)(nil)

// Open creates or connects to the database at path and applies migrations.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path cannot be empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path, now: time.Now}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// PutShow inserts or replaces a show.
// CreatedAtMs is stamped on first write; UpdatedAtMs on every write.
func (s *Store) PutShow(ctx context.Context, show *catalog.Show) error {
	if err := show.Validate(); err != nil {
		return fmt.Errorf("invalid show: %w", err)
	}

	nowMs := s.now().UnixMilli()
	if show.CreatedAtMs == 0 {
		show.CreatedAtMs = nowMs
	}
	show.UpdatedAtMs = nowMs

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO shows (id, name, description, cover_image_url, created_at_ms, updated_at_ms)
        VALUES (?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            name = excluded.name,
            description = excluded.description,
            cover_image_url = excluded.cover_image_url,
            updated_at_ms = excluded.updated_at_ms`,
		show.ID,
		show.Name,
		nullableString(show.Description),
		nullableString(show.CoverImageURL),
		show.CreatedAtMs,
		show.UpdatedAtMs,
	)
	if err != nil {
		return fmt.Errorf("write show: %w", err)
	}
	return nil
}

// GetShow retrieves a show by ID.
// Returns catalog.ErrNotFound if the show doesn't exist.
func (s *Store) GetShow(ctx context.Context, showID string) (*catalog.Show, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+showColumns+" FROM shows WHERE id = ?", showID)
	show, err := scanShow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("show %s: %w", showID, catalog.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return show, nil
}

// ListShows returns every show ordered by name, then ID.
func (s *Store) ListShows(ctx context.Context) ([]catalog.Show, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+showColumns+" FROM shows ORDER BY name, id")
	if err != nil {
		return nil, fmt.Errorf("query shows: %w", err)
	}
	defer rows.Close()

	shows := make([]catalog.Show, 0)
	for rows.Next() {
		show, err := scanShow(rows)
		if err != nil {
			return nil, err
		}
		shows = append(shows, *show)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shows: %w", err)
	}
	return shows, nil
}

// DeleteShow removes a show; its documents go with it through the foreign key.
func (s *Store) DeleteShow(ctx context.Context, showID string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM shows WHERE id = ?", showID); err != nil {
		return fmt.Errorf("delete show: %w", err)
	}
	return nil
}

// Put inserts or replaces a show-scoped document.
// The owning show must already exist.
func (s *Store) Put(ctx context.Context, doc catalog.Document) error {
	if err := doc.Validate(); err != nil {
		return fmt.Errorf("invalid %s document: %w", doc.Collection(), err)
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal %s document: %w", doc.Collection(), err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (show_id, collection, id, body, updated_at_ms)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT(show_id, collection, id) DO UPDATE SET
            body = excluded.body,
            updated_at_ms = excluded.updated_at_ms`,
		doc.OwnerShowID(),
		string(doc.Collection()),
		doc.DocumentID(),
		string(body),
		s.now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("write %s document: %w", doc.Collection(), err)
	}
	return nil
}

// Delete removes a document. Deleting a missing document is not an error.
func (s *Store) Delete(ctx context.Context, collection catalog.Collection, showID, id string) error {
	if err := collection.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM documents WHERE show_id = ? AND collection = ? AND id = ?",
		showID, string(collection), id)
	if err != nil {
		return fmt.Errorf("delete %s document: %w", collection, err)
	}
	return nil
}

// ListAssets returns the show's assets.
func (s *Store) ListAssets(ctx context.Context, showID string) ([]catalog.Asset, error) {
	return listByShow[catalog.Asset](ctx, s, showID)
}

// ListEpisodes returns the show's episodes.
func (s *Store) ListEpisodes(ctx context.Context, showID string) ([]catalog.Episode, error) {
	return listByShow[catalog.Episode](ctx, s, showID)
}

// ListEpisodeIdeas returns the show's episode ideas.
func (s *Store) ListEpisodeIdeas(ctx context.Context, showID string) ([]catalog.EpisodeIdea, error) {
	return listByShow[catalog.EpisodeIdea](ctx, s, showID)
}

// ListGeneralIdeas returns the show's general ideas.
func (s *Store) ListGeneralIdeas(ctx context.Context, showID string) ([]catalog.GeneralIdea, error) {
	return listByShow[catalog.GeneralIdea](ctx, s, showID)
}

// ListPlotThemes returns the show's plot themes.
func (s *Store) ListPlotThemes(ctx context.Context, showID string) ([]catalog.PlotTheme, error) {
	return listByShow[catalog.PlotTheme](ctx, s, showID)
}

// listByShow reads every document of type T owned by showID, sorted by ID.
func listByShow[T catalog.Document](ctx context.Context, s *Store, showID string) ([]T, error) {
	var zero T
	collection := zero.Collection()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, body FROM documents WHERE show_id = ? AND collection = ? ORDER BY id",
		showID, string(collection))
	if err != nil {
		return nil, fmt.Errorf("query %s documents: %w", collection, err)
	}
	defer rows.Close()

	docs := make([]T, 0)
	for rows.Next() {
		var (
			id   string
			body string
		)
		if err := rows.Scan(&id, &body); err != nil {
			return nil, fmt.Errorf("scan %s document: %w", collection, err)
		}
		doc, err := decodeDocument[T](id, showID, body)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s documents: %w", collection, err)
	}
	return docs, nil
}
