// Package showsync keeps one show's working set resident in memory and decides
// when a view may render it.
//
// The pieces, leaf first:
//
//   - Fetcher reads the five show-owned collections concurrently and returns
//     them as one Aggregate or a *FetchFailure.
//   - Tracker records which show's data is resident and when its last load
//     began. Commit swaps the whole aggregate in one step.
//   - Coordinator deduplicates loads (at most one in-flight fetch per show),
//     applies the throttle window and discards results that a newer selection
//     has superseded.
//   - Validator checks the resident data against the selected show.
//   - Decide turns all of the above into Render, Loading or Error.
//
// Readers must never trust Tracker.ResidentShowID alone: render from the
// Decision's Data, which is the exact snapshot the validator accepted.
package showsync
