// Package overlap finds events that share wall-clock time on the same day.
package overlap

import (
	"sort"

	"github.com/sandeepkv93/calendard/internal/model"
)

// Overlaps reports whether a and b fall on the same date and their
// half-open [start, end) intervals intersect. Touching endpoints do not
// overlap.
func Overlaps(a, b model.Event) bool {
	if a.Date != b.Date {
		return false
	}
	return a.StartTime < b.EndTime && b.StartTime < a.EndTime
}

// Find returns every existing event that conflicts with candidate, in the
// order they appear in existing. The candidate never conflicts with itself.
func Find(candidate model.Event, existing []model.Event) []model.Event {
	out := make([]model.Event, 0)
	for _, other := range existing {
		if candidate.ID != "" && other.ID == candidate.ID {
			continue
		}
		if Overlaps(candidate, other) {
			out = append(out, other)
		}
	}
	return out
}

// FindBatch checks each occurrence of a batch against existing on its own,
// never against its siblings, and returns the distinct conflicting events
// ordered by date and start time.
func FindBatch(batch []model.Event, existing []model.Event) []model.Event {
	seen := make(map[string]bool)
	out := make([]model.Event, 0)
	for _, occ := range batch {
		for _, hit := range Find(occ, existing) {
			key := hit.ID
			if key == "" {
				key = hit.Date.String() + "|" + hit.StartTime.String() + "|" + hit.Title
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, hit)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].Date.Compare(out[j].Date); c != 0 {
			return c < 0
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out
}
