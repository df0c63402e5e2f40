package showsync

import "github.com/concepto-studio/concepto/pkg/catalog"

// Violation is one resident document that does not belong to the selected show.
type Violation struct {
	Collection catalog.Collection `json:"collection"`
	EntityID   string             `json:"entity_id"`
	ShowID     string             `json:"show_id"`
}

// Validator decides whether the resident data may be rendered for a selection.
type Validator struct {
	tracker *Tracker
}

// NewValidator creates a validator reading from tracker.
func NewValidator(tracker *Tracker) *Validator {
	return &Validator{tracker: tracker}
}

// IsTrustworthy returns true iff selectedShowID is resident and every resident
// document carries selectedShowID. Empty collections are consistent; an empty
// selection never is.
func (v *Validator) IsTrustworthy(selectedShowID string) bool {
	return v.check(v.tracker.Read(), selectedShowID)
}

// Violations lists the resident documents whose show does not match
// selectedShowID.
func (v *Validator) Violations(selectedShowID string) []Violation {
	return FindViolations(selectedShowID, v.tracker.Read().Data)
}

func (v *Validator) check(snap Snapshot, selectedShowID string) bool {
	if selectedShowID == "" || snap.ResidentShowID != selectedShowID {
		return false
	}
	return len(FindViolations(selectedShowID, snap.Data)) == 0
}

// FindViolations checks agg against showID without consulting any tracker.
func FindViolations(showID string, agg *Aggregate) []Violation {
	var out []Violation
	for _, doc := range agg.Documents() {
		if doc.OwnerShowID() != showID {
			out = append(out, Violation{
				Collection: doc.Collection(),
				EntityID:   doc.DocumentID(),
				ShowID:     doc.OwnerShowID(),
			})
		}
	}
	return out
}
