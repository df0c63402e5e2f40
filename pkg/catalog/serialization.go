package catalog

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Serialization helpers for converting between Go structs and Redis hashes
//
// Documents keep their indexable fields (id, show_id, collection) as plain hash
// fields and the full document as a JSON body, so nested data like concepts and
// scenes round-trips without a field per attribute.

// ShowToHash converts a Show struct to a Redis hash format.
func ShowToHash(s *Show) map[string]interface{} {
	return map[string]interface{}{
		"id":              s.ID,
		"name":            s.Name,
		"description":     s.Description,
		"cover_image_url": s.CoverImageURL,
		"created_at_ms":   s.CreatedAtMs,
		"updated_at_ms":   s.UpdatedAtMs,
	}
}

// HashToShow converts a Redis hash to a Show struct.
func HashToShow(hash map[string]string) (*Show, error) {
	if hash["id"] == "" {
		return nil, fmt.Errorf("show hash is missing id")
	}

	createdAtMs, _ := strconv.ParseInt(hash["created_at_ms"], 10, 64)
	updatedAtMs, _ := strconv.ParseInt(hash["updated_at_ms"], 10, 64)

	return &Show{
		ID:            hash["id"],
		Name:          hash["name"],
		Description:   hash["description"],
		CoverImageURL: hash["cover_image_url"],
		CreatedAtMs:   createdAtMs,
		UpdatedAtMs:   updatedAtMs,
	}, nil
}

// DocumentToHash converts a show-scoped document to a Redis hash format.
// The document itself is JSON-encoded into the body field.
func DocumentToHash(doc Document) (map[string]interface{}, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s document: %w", doc.Collection(), err)
	}

	return map[string]interface{}{
		"id":         doc.DocumentID(),
		"show_id":    doc.OwnerShowID(),
		"collection": string(doc.Collection()),
		"body":       string(body),
	}, nil
}

// HashToDocument converts a Redis hash back to a typed document.
// The indexed fields must agree with the decoded body; a mismatch means the
// hash was written under the wrong key and is reported as an error.
func HashToDocument[T Document](hash map[string]string) (T, error) {
	var doc T

	body := hash["body"]
	if body == "" {
		return doc, fmt.Errorf("document hash is missing body")
	}
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return doc, fmt.Errorf("failed to unmarshal %s body: %w", hash["collection"], err)
	}

	if doc.DocumentID() != hash["id"] {
		return doc, fmt.Errorf("document body id %q does not match hash id %q", doc.DocumentID(), hash["id"])
	}
	if doc.OwnerShowID() != hash["show_id"] {
		return doc, fmt.Errorf("document body show_id %q does not match hash show_id %q", doc.OwnerShowID(), hash["show_id"])
	}

	return doc, nil
}
