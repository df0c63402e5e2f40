package sqlitestore

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/concepto-studio/concepto/pkg/catalog"
)

const showColumns = "id, name, description, cover_image_url, created_at_ms, updated_at_ms"

func scanShow(scanner interface{ Scan(dest ...any) error }) (*catalog.Show, error) {
	var (
		show          catalog.Show
		description   sql.NullString
		coverImageURL sql.NullString
	)
	if err := scanner.Scan(
		&show.ID,
		&show.Name,
		&description,
		&coverImageURL,
		&show.CreatedAtMs,
		&show.UpdatedAtMs,
	); err != nil {
		return nil, fmt.Errorf("scan show: %w", err)
	}
	show.Description = description.String
	show.CoverImageURL = coverImageURL.String
	return &show, nil
}

// decodeDocument unmarshals a stored body and checks it against the row keys.
func decodeDocument[T catalog.Document](id, showID, body string) (T, error) {
	var doc T
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return doc, fmt.Errorf("failed to unmarshal %s body: %w", doc.Collection(), err)
	}
	if doc.DocumentID() != id {
		return doc, fmt.Errorf("document body id %q does not match row id %q", doc.DocumentID(), id)
	}
	if doc.OwnerShowID() != showID {
		return doc, fmt.Errorf("document body show_id %q does not match row show_id %q", doc.OwnerShowID(), showID)
	}
	return doc, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
