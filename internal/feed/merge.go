// Package feed reconciles the two sources of billing events the console sees:
// a paginated history fetched from storage and a live stream delivered over the
// message bus. Both carry the same event shape and may overlap; the merge
// produces the single deduplicated, newest-first view the UI renders.
package feed

import (
	"sort"

	"github.com/ledgerpane/ledgerpane/internal/models"
	"github.com/ledgerpane/ledgerpane/internal/timeutil"
)

// Merge combines live and historical events into one feed ordered by
// occurred_at descending with no duplicate IDs. When an ID appears in both
// inputs the live copy wins: live delivery is at least as fresh as a later
// history fetch of the same event. Inputs are never mutated and the merge is
// deterministic, so it is safe to re-run on every inbound message or page
// fetch.
func Merge(history, live []models.Event) []models.Event {
	merged := make([]models.Event, 0, len(history)+len(live))
	seen := make(map[string]struct{}, len(history)+len(live))

	// Live first so its copy of any shared ID survives.
	for _, e := range append(append([]models.Event{}, live...), history...) {
		if _, dup := seen[e.ID]; dup {
			continue
		}
		seen[e.ID] = struct{}{}
		merged = append(merged, e)
	}

	// Stable sort keeps concatenation order for equal timestamps, giving ties
	// a consistent total order across calls.
	sort.SliceStable(merged, func(i, j int) bool {
		return sortKey(merged[i]) > sortKey(merged[j])
	})

	return merged
}

// sortKey is the millisecond epoch of the event timestamp. Events with
// unparseable timestamps sort last rather than failing the merge.
func sortKey(e models.Event) int64 {
	t, ok := timeutil.ParseTimestamp(e.OccurredAt)
	if !ok {
		return 0
	}
	return t.UnixMilli()
}
