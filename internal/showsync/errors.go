package showsync

import (
	"errors"
	"fmt"

	"github.com/concepto-studio/concepto/pkg/catalog"
)

// ErrStaleResult is reported in the outcome of a load whose result arrived
// after a newer selection superseded it. The result was not committed.
// It is never a user-visible error.
var ErrStaleResult = errors.New("load result superseded by a newer request")

// FetchFailure reports the first collection read that failed while fetching a
// show's aggregate.
type FetchFailure struct {
	ShowID     string
	Collection catalog.Collection
	Err        error
}

func (f *FetchFailure) Error() string {
	return fmt.Sprintf("failed to fetch %s for show %s: %v", f.Collection, f.ShowID, f.Err)
}

func (f *FetchFailure) Unwrap() error {
	return f.Err
}

// Reason is the short, user-facing description of the failure.
func (f *FetchFailure) Reason() string {
	return fmt.Sprintf("could not load %s: %v", f.Collection, f.Err)
}

// IsFetchFailure returns true if err is (or wraps) a *FetchFailure.
func IsFetchFailure(err error) bool {
	var ff *FetchFailure
	return errors.As(err, &ff)
}

// ConsistencyFailure reports a fetch that succeeded but returned documents
// owned by another show. The result is never committed.
type ConsistencyFailure struct {
	ShowID     string
	Violations []Violation
}

func (f *ConsistencyFailure) Error() string {
	first := f.Violations[0]
	return fmt.Sprintf("show %s: %d document(s) belong to another show (first: %s %s owned by %s)",
		f.ShowID, len(f.Violations), first.Collection, first.EntityID, first.ShowID)
}

// Reason is the short, user-facing description of the failure.
func (f *ConsistencyFailure) Reason() string {
	return fmt.Sprintf("received %d document(s) from another show", len(f.Violations))
}

// IsConsistencyFailure returns true if err is (or wraps) a *ConsistencyFailure.
func IsConsistencyFailure(err error) bool {
	var cf *ConsistencyFailure
	return errors.As(err, &cf)
}

// Reason extracts a user-facing reason from any load error.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	var ff *FetchFailure
	if errors.As(err, &ff) {
		return ff.Reason()
	}
	var cf *ConsistencyFailure
	if errors.As(err, &cf) {
		return cf.Reason()
	}
	return err.Error()
}
