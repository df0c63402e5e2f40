package resolver

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/concepto-studio/concepto/internal/showsync"
	"github.com/concepto-studio/concepto/pkg/catalog"
)

// MinShortIDLength is the minimum required length for short ID prefixes.
const MinShortIDLength = 6

// Resolve resolves ref against candidate IDs: a full UUID must be present as
// is, a shorter ref must be a unique prefix of at least MinShortIDLength
// characters. kind names what is being resolved in errors ("show", "document").
func Resolve(kind, ref string, candidates []string) (string, error) {
	if isFullUUID(ref) {
		for _, id := range candidates {
			if id == ref {
				return ref, nil
			}
		}
		return "", &NotFoundError{Kind: kind, ShortID: ref}
	}

	if len(ref) < MinShortIDLength {
		return "", fmt.Errorf("short ID must be at least %d characters (got %d)", MinShortIDLength, len(ref))
	}

	prefix := strings.ToLower(ref)
	var matches []string
	for _, id := range candidates {
		if strings.HasPrefix(strings.ToLower(id), prefix) {
			matches = append(matches, id)
		}
	}
	sort.Strings(matches)

	switch len(matches) {
	case 0:
		return "", &NotFoundError{Kind: kind, ShortID: ref}
	case 1:
		return matches[0], nil
	default:
		return "", &AmbiguousError{Kind: kind, ShortID: ref, Matches: matches}
	}
}

// ResolveShow finds a show by exact (case-insensitive) name or by ID prefix.
func ResolveShow(shows []catalog.Show, ref string) (catalog.Show, error) {
	var byName []catalog.Show
	for _, s := range shows {
		if strings.EqualFold(s.Name, ref) {
			byName = append(byName, s)
		}
	}
	if len(byName) == 1 {
		return byName[0], nil
	}

	ids := make([]string, len(shows))
	for i, s := range shows {
		ids[i] = s.ID
	}
	id, err := Resolve("show", ref, ids)
	if err != nil {
		return catalog.Show{}, err
	}
	for _, s := range shows {
		if s.ID == id {
			return s, nil
		}
	}
	return catalog.Show{}, &NotFoundError{Kind: "show", ShortID: ref}
}

// ResolveDocument finds a document of the aggregate by ID prefix.
func ResolveDocument(agg *showsync.Aggregate, ref string) (catalog.Document, error) {
	docs := agg.Documents()
	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.DocumentID()
	}

	id, err := Resolve("document", ref, ids)
	if err != nil {
		return nil, err
	}
	for _, d := range docs {
		if d.DocumentID() == id {
			return d, nil
		}
	}
	return nil, &NotFoundError{Kind: "document", ShortID: ref}
}

func isFullUUID(s string) bool {
	return len(s) == 36 && strings.Count(s, "-") == 4
}

// NotFoundError indicates nothing matched the short ID.
type NotFoundError struct {
	Kind    string
	ShortID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no %ss found matching '%s'", e.Kind, e.ShortID)
}

// AmbiguousError indicates several candidates matched the short ID.
type AmbiguousError struct {
	Kind    string
	ShortID string
	Matches []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("ambiguous short ID '%s' matches %d %ss", e.ShortID, len(e.Matches), e.Kind)
}

// FormatAmbiguousError creates a user-friendly error message for ambiguous short IDs.
// Lists all matching UUIDs (up to 10, then "...and N more").
func FormatAmbiguousError(err *AmbiguousError) string {
	msg := fmt.Sprintf("Error: ambiguous short ID '%s' matches %d %ss:\n", err.ShortID, len(err.Matches), err.Kind)

	displayCount := len(err.Matches)
	if displayCount > 10 {
		displayCount = 10
	}

	for i := 0; i < displayCount; i++ {
		msg += fmt.Sprintf("  %s\n", err.Matches[i])
	}

	if len(err.Matches) > 10 {
		msg += fmt.Sprintf("  ...and %d more\n", len(err.Matches)-10)
	}

	msg += fmt.Sprintf("\nUse a longer prefix to uniquely identify the %s.", err.Kind)
	return msg
}

// IsNotFoundError checks if an error is a NotFoundError.
func IsNotFoundError(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsAmbiguousError checks if an error is an AmbiguousError.
func IsAmbiguousError(err error) bool {
	var amb *AmbiguousError
	return errors.As(err, &amb)
}
