package showsync

// DecisionKind is what the presentation layer should draw.
type DecisionKind int

const (
	DecisionRender DecisionKind = iota
	DecisionLoading
	DecisionError
)

func (k DecisionKind) String() string {
	switch k {
	case DecisionRender:
		return "render"
	case DecisionLoading:
		return "loading"
	case DecisionError:
		return "error"
	default:
		return "unknown"
	}
}

// Labels carried by Loading decisions.
const (
	LoadingShows    = "shows"
	LoadingShowData = "show data"
)

// Decision is the gate's verdict.
type Decision struct {
	Kind DecisionKind
	// Label describes what is loading.
	Label string
	// Reason is the user-facing error description.
	Reason string
	// ShowID is the selected show the decision was made for.
	ShowID string
	// Data is the validated aggregate to render. Only set for Render with a
	// selected show.
	Data *Aggregate
}

// GateInput is everything the gate looks at.
type GateInput struct {
	CatalogLoaded  bool
	CatalogErr     error
	SelectedShowID string
	Tracker        Snapshot

	CoordinatorBusy bool
	// Verdict is the validator's answer for SelectedShowID on Tracker.
	Verdict bool

	LastErr       error
	LastErrShowID string
}

// Decide applies the gate rules in priority order:
//
//  1. Catalog not loaded yet: Loading("shows"), or Error if the catalog failed.
//  2. A show is selected and its data is not trustworthy: Loading("show data"),
//     unless nothing is in flight and the last load of that show failed, which
//     is an Error the user can retry.
//  3. The last load of the selected show failed: Error.
//  4. Render.
//
// Render never carries data that failed validation.
func Decide(in GateInput) Decision {
	sel := in.SelectedShowID

	if !in.CatalogLoaded {
		if in.CatalogErr != nil {
			return Decision{Kind: DecisionError, Reason: Reason(in.CatalogErr), ShowID: sel}
		}
		return Decision{Kind: DecisionLoading, Label: LoadingShows, ShowID: sel}
	}

	failedHere := sel != "" && in.LastErr != nil && in.LastErrShowID == sel

	if sel != "" && !in.Verdict {
		if failedHere && !in.CoordinatorBusy {
			return Decision{Kind: DecisionError, Reason: Reason(in.LastErr), ShowID: sel}
		}
		return Decision{Kind: DecisionLoading, Label: LoadingShowData, ShowID: sel}
	}

	if failedHere {
		return Decision{Kind: DecisionError, Reason: Reason(in.LastErr), ShowID: sel}
	}

	d := Decision{Kind: DecisionRender, ShowID: sel}
	if sel != "" {
		d.Data = in.Tracker.Data
	}
	return d
}
