package inventory

import (
	"errors"
	"fmt"
	"io"

	"github.com/concepto-studio/concepto/internal/resolver"
	"github.com/concepto-studio/concepto/internal/showsync"
)

// GetDocument resolves ref (a full ID or a unique prefix) within the resident
// aggregate and writes the document as pretty-printed JSON.
func GetDocument(agg *showsync.Aggregate, showID, ref string, w io.Writer) error {
	doc, err := resolver.ResolveDocument(agg, ref)
	if err != nil {
		if resolver.IsNotFoundError(err) {
			return &DocumentNotFoundError{ShowID: showID, Ref: ref}
		}
		return err
	}

	if err := FormatSingleJSON(w, doc); err != nil {
		return fmt.Errorf("failed to format document: %w", err)
	}
	return nil
}

// DocumentNotFoundError represents a specific "document not found" error.
type DocumentNotFoundError struct {
	ShowID string
	Ref    string
}

func (e *DocumentNotFoundError) Error() string {
	return fmt.Sprintf("no document matching '%s' in show '%s'", e.Ref, e.ShowID)
}

// IsNotFound returns true if the error is a DocumentNotFoundError.
func IsNotFound(err error) bool {
	var nf *DocumentNotFoundError
	return errors.As(err, &nf)
}
