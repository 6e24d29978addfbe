package availability

import (
	"sort"
	"time"
)

// TimeRange is a half-open interval [Start, End).
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether two half-open ranges share any instant.
// Touching edges (a.End == b.Start) do not overlap; booked slots may sit
// flush against each other at slot boundaries.
func Overlaps(a, b TimeRange) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// Merge sorts ranges by start and coalesces them into a sorted,
// pairwise-disjoint set covering the same union. Unlike Overlaps, merge
// treats touching ranges as one.
func Merge(ranges []TimeRange) []TimeRange {
	if len(ranges) == 0 {
		return nil
	}

	sorted := make([]TimeRange, len(ranges))
	copy(sorted, ranges)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	merged := make([]TimeRange, 0, len(sorted))
	running := sorted[0]
	for _, next := range sorted[1:] {
		if !next.Start.After(running.End) {
			if next.End.After(running.End) {
				running.End = next.End
			}
			continue
		}
		merged = append(merged, running)
		running = next
	}
	return append(merged, running)
}
