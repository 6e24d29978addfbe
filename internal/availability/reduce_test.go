package availability

import (
	"testing"
	"time"
)

func TestReduceExact_DecrementsMatchingSlot(t *testing.T) {
	slots := Slots(TimeRange{at(t, 9, 0), at(t, 17, 0)}, testCfg, nil)

	booked := []TimeRange{{at(t, 9, 0), at(t, 9, 30)}}
	overbooked := ReduceExact(slots, booked)
	if overbooked != 0 {
		t.Fatalf("unexpected overbooking: %d", overbooked)
	}

	if slots[0].CapacityRemaining != 1 {
		t.Fatalf("expected remaining capacity 1 on the matched slot, got %d", slots[0].CapacityRemaining)
	}
	for _, s := range slots[1:] {
		if s.CapacityRemaining != 2 {
			t.Fatalf("slot [%s, %s) must be untouched, got %d remaining", s.Start, s.End, s.CapacityRemaining)
		}
	}
}

func TestReduceExact_AggregatesIdenticalBookings(t *testing.T) {
	slots := Slots(TimeRange{at(t, 9, 0), at(t, 12, 0)}, testCfg, nil)

	booked := []TimeRange{
		{at(t, 9, 0), at(t, 9, 30)},
		{at(t, 9, 0), at(t, 9, 30)},
	}
	if overbooked := ReduceExact(slots, booked); overbooked != 0 {
		t.Fatalf("unexpected overbooking: %d", overbooked)
	}
	if slots[0].CapacityRemaining != 0 {
		t.Fatalf("expected 0 remaining, got %d", slots[0].CapacityRemaining)
	}
}

func TestReduceExact_ClampsNegativeRemaining(t *testing.T) {
	slots := Slots(TimeRange{at(t, 9, 0), at(t, 12, 0)}, testCfg, nil)

	booked := []TimeRange{
		{at(t, 9, 0), at(t, 9, 30)},
		{at(t, 9, 0), at(t, 9, 30)},
		{at(t, 9, 0), at(t, 9, 30)},
	}
	overbooked := ReduceExact(slots, booked)
	if overbooked != 1 {
		t.Fatalf("expected 1 overbooked slot, got %d", overbooked)
	}
	if slots[0].CapacityRemaining != 0 {
		t.Fatalf("remaining capacity must clamp at zero, got %d", slots[0].CapacityRemaining)
	}
}

func TestReduceExact_PartialOverlapDoesNotMatch(t *testing.T) {
	slots := Slots(TimeRange{at(t, 9, 0), at(t, 12, 0)}, testCfg, nil)

	// Overlaps the first slot but is not an exact [start,end) match.
	booked := []TimeRange{{at(t, 9, 0), at(t, 9, 45)}}
	_ = ReduceExact(slots, booked)
	if slots[0].CapacityRemaining != 2 {
		t.Fatalf("non-exact ranges must not reduce capacity, got %d", slots[0].CapacityRemaining)
	}
}

func TestOccupancy_SplitsOversizedAppointments(t *testing.T) {
	// 70 minutes against a 30-minute slot length: 30 + 30 + 10.
	booked := []TimeRange{{at(t, 9, 0), at(t, 10, 10)}}

	entries, overbooked := Occupancy(booked, 30*time.Minute, 2)
	if overbooked != 0 {
		t.Fatalf("unexpected overbooking: %d", overbooked)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(entries))
	}
	if !entries[0].End.Equal(at(t, 9, 30)) || !entries[1].End.Equal(at(t, 10, 0)) || !entries[2].End.Equal(at(t, 10, 10)) {
		t.Fatalf("unexpected chunk boundaries: %v", entries)
	}
	for i, e := range entries {
		if e.Occupancy != 1 {
			t.Fatalf("chunk %d: expected occupancy 1, got %d", i, e.Occupancy)
		}
	}
}

func TestOccupancy_IdenticalChunksAggregate(t *testing.T) {
	booked := []TimeRange{
		{at(t, 9, 0), at(t, 9, 30)},
		{at(t, 9, 0), at(t, 9, 30)},
	}

	entries, _ := Occupancy(booked, 30*time.Minute, 3)
	if len(entries) != 1 {
		t.Fatalf("expected 1 aggregated entry, got %d", len(entries))
	}
	if entries[0].Occupancy != 2 {
		t.Fatalf("expected occupancy 2, got %d", entries[0].Occupancy)
	}
	if entries[0].CapacityRemaining != 1 {
		t.Fatalf("expected remaining 1, got %d", entries[0].CapacityRemaining)
	}
}

func TestOccupancy_OverlappingChunksShareCountAndLoseCapacity(t *testing.T) {
	booked := []TimeRange{
		{at(t, 9, 0), at(t, 9, 30)},
		{at(t, 9, 15), at(t, 9, 45)},
	}

	entries, _ := Occupancy(booked, 30*time.Minute, 3)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	for i, e := range entries {
		if e.Occupancy != 2 {
			t.Fatalf("entry %d: expected combined occupancy 2, got %d", i, e.Occupancy)
		}
		if e.CapacityTotal != 2 {
			t.Fatalf("entry %d: expected capacity reduced to 2, got %d", i, e.CapacityTotal)
		}
		if e.CapacityRemaining != 0 {
			t.Fatalf("entry %d: expected remaining 0, got %d", i, e.CapacityRemaining)
		}
	}
}

func TestOccupancy_OverlapChainSharesWithNeighborsOnly(t *testing.T) {
	// Three mutually overlapping chunks. Sharing runs over sorted
	// neighbor pairs, so the middle chunk pairs twice and carries its
	// combined count into the last pair; the first and last chunks
	// never pair with each other despite overlapping.
	booked := []TimeRange{
		{at(t, 9, 0), at(t, 9, 30)},
		{at(t, 9, 10), at(t, 9, 25)},
		{at(t, 9, 20), at(t, 9, 50)},
	}

	entries, overbooked := Occupancy(booked, 30*time.Minute, 5)
	if overbooked != 0 {
		t.Fatalf("unexpected overbooking: %d", overbooked)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	first, middle, last := entries[0], entries[1], entries[2]
	if first.Occupancy != 2 || first.CapacityTotal != 4 || first.CapacityRemaining != 2 {
		t.Fatalf("first entry shares with its neighbor only: %+v", first)
	}
	if middle.Occupancy != 3 || middle.CapacityTotal != 3 || middle.CapacityRemaining != 0 {
		t.Fatalf("middle entry pairs with both neighbors: %+v", middle)
	}
	if last.Occupancy != 3 || last.CapacityTotal != 4 || last.CapacityRemaining != 1 {
		t.Fatalf("last entry sees the accumulated count: %+v", last)
	}
}

func TestOccupancy_NegativeRemainingClampsAndWarns(t *testing.T) {
	booked := []TimeRange{
		{at(t, 9, 0), at(t, 9, 30)},
		{at(t, 9, 0), at(t, 9, 30)},
		{at(t, 9, 0), at(t, 9, 30)},
	}

	entries, overbooked := Occupancy(booked, 30*time.Minute, 2)
	if overbooked != 1 {
		t.Fatalf("expected 1 overbooked entry, got %d", overbooked)
	}
	if entries[0].CapacityRemaining != 0 {
		t.Fatalf("remaining must clamp at zero, got %d", entries[0].CapacityRemaining)
	}
}
