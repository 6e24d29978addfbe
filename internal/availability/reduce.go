package availability

import (
	"sort"
	"time"
)

// SlotOccupancy is the display view of a slot's consumption: how many
// appointments occupy it and what remains.
type SlotOccupancy struct {
	Start             time.Time
	End               time.Time
	Occupancy         int
	CapacityTotal     int
	CapacityRemaining int
}

// ReduceExact folds booked ranges into generated slots: appointments whose
// [start,end) exactly matches a slot decrement that slot's remaining
// capacity. Remaining capacity is clamped at zero; the returned count says
// how many slots were driven negative before clamping, which signals an
// overbooking accepted upstream.
func ReduceExact(slots []Slot, booked []TimeRange) int {
	if len(booked) == 0 || len(slots) == 0 {
		return 0
	}

	counts := aggregateIdentical(booked)

	overbooked := 0
	for i := range slots {
		key := rangeKey{slots[i].Start.UnixNano(), slots[i].End.UnixNano()}
		n, ok := counts[key]
		if !ok {
			continue
		}
		slots[i].CapacityRemaining -= n
		if slots[i].CapacityRemaining < 0 {
			slots[i].CapacityRemaining = 0
			overbooked++
		}
	}
	return overbooked
}

// Occupancy computes the overlap-aware occupancy view. Appointments longer
// than slotLength are first split into consecutive slotLength chunks (the
// final, possibly shorter chunk still counts as one unit). Identical chunks
// aggregate into one counted entry; entries that overlap without being
// identical share their combined count and each give up one capacity unit.
func Occupancy(booked []TimeRange, slotLength time.Duration, capacity int) ([]SlotOccupancy, int) {
	if len(booked) == 0 {
		return nil, 0
	}

	chunks := splitOversized(booked, slotLength)
	counts := aggregateIdentical(chunks)

	entries := make([]SlotOccupancy, 0, len(counts))
	for key, n := range counts {
		entries = append(entries, SlotOccupancy{
			Start:         time.Unix(0, key.start),
			End:           time.Unix(0, key.end),
			Occupancy:     n,
			CapacityTotal: capacity,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Start.Before(entries[j].Start)
	})

	// Sharing is pairwise between sorted neighbors. In a chain of
	// overlapping entries the middle one carries its combined count into
	// the next pair, so later entries see the accumulated total while
	// earlier ones keep the count from their own pair; entries that
	// overlap without being neighbors in sort order never pair directly.
	for i := 0; i+1 < len(entries); i++ {
		a, b := &entries[i], &entries[i+1]
		if Overlaps(TimeRange{a.Start, a.End}, TimeRange{b.Start, b.End}) {
			combined := a.Occupancy + b.Occupancy
			a.Occupancy = combined
			b.Occupancy = combined
			a.CapacityTotal--
			b.CapacityTotal--
		}
	}

	overbooked := 0
	for i := range entries {
		entries[i].CapacityRemaining = entries[i].CapacityTotal - entries[i].Occupancy
		if entries[i].CapacityRemaining < 0 {
			entries[i].CapacityRemaining = 0
			overbooked++
		}
	}
	return entries, overbooked
}

// splitOversized cuts ranges longer than slotLength into consecutive
// slotLength chunks. Iterative on purpose: a pathologically long range
// must not grow the stack.
func splitOversized(ranges []TimeRange, slotLength time.Duration) []TimeRange {
	if slotLength <= 0 {
		return ranges
	}
	var out []TimeRange
	for _, r := range ranges {
		start := r.Start
		for r.End.Sub(start) > slotLength {
			out = append(out, TimeRange{Start: start, End: start.Add(slotLength)})
			start = start.Add(slotLength)
		}
		out = append(out, TimeRange{Start: start, End: r.End})
	}
	return out
}

type rangeKey struct {
	start int64
	end   int64
}

func aggregateIdentical(ranges []TimeRange) map[rangeKey]int {
	counts := make(map[rangeKey]int, len(ranges))
	for _, r := range ranges {
		counts[rangeKey{r.Start.UnixNano(), r.End.UnixNano()}]++
	}
	return counts
}
