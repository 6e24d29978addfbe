package availability

import "time"

// Slot is one bookable time unit with concurrent capacity.
type Slot struct {
	Start             time.Time
	End               time.Time
	CapacityTotal     int
	CapacityRemaining int
}

// Config carries the slot parameters the generator needs.
type Config struct {
	SlotLength time.Duration
	Break      time.Duration
	Capacity   int
}

// Cycle is the spacing between consecutive slot starts.
func (c Config) Cycle() time.Duration {
	return c.SlotLength + c.Break
}

// DayWindows partitions the booking horizon into one range per calendar
// day in loc. The first window opens at the midnight preceding now so the
// slot grid is anchored the same way on every day; callers drop slots that
// have already started. The last window ends at now+horizonDays.
func DayWindows(now time.Time, horizonDays int, loc *time.Location) []TimeRange {
	horizonEnd := now.AddDate(0, 0, horizonDays)
	var windows []TimeRange
	start := StartOfDay(now, loc)
	for start.Before(horizonEnd) {
		end := nextMidnight(start, loc)
		if end.After(horizonEnd) {
			end = horizonEnd
		}
		windows = append(windows, TimeRange{Start: start, End: end})
		start = nextMidnight(start, loc)
	}
	return windows
}

func nextMidnight(t time.Time, loc *time.Location) time.Time {
	d := t.In(loc)
	return time.Date(d.Year(), d.Month(), d.Day()+1, 0, 0, 0, 0, loc)
}

// StartOfDay is the midnight preceding t in loc. It defines the calendar
// day used for weekday matching, one-off date matching, and slot grid
// anchoring throughout the engine.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	d := t.In(loc)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
}

// Slots fills window with slots spaced by slot length plus break, skipping
// the given merged blackout ranges. Every returned slot lies entirely
// inside the window and overlaps no blackout; after a blackout the spacing
// restarts from the blackout's end.
func Slots(window TimeRange, cfg Config, blackouts []TimeRange) []Slot {
	if cfg.SlotLength <= 0 || cfg.Cycle() <= 0 || !window.End.After(window.Start) {
		return nil
	}

	cursor := initialCursor(window.Start, cfg, blackouts)

	// Skip blackouts the cursor has already passed.
	idx := 0
	for idx < len(blackouts) && !blackouts[idx].End.After(cursor) {
		idx++
	}

	var slots []Slot
	for cursor.Before(window.End) {
		// Sentinel at the window end keeps the walk finite once no
		// blackout remains ahead of the cursor.
		next := TimeRange{Start: window.End, End: window.End}
		if idx < len(blackouts) {
			next = blackouts[idx]
		}

		if !next.Start.Before(cursor.Add(cfg.Cycle())) {
			end := cursor.Add(cfg.SlotLength)
			if end.After(window.End) {
				break
			}
			slots = append(slots, Slot{
				Start:             cursor,
				End:               end,
				CapacityTotal:     cfg.Capacity,
				CapacityRemaining: cfg.Capacity,
			})
			cursor = cursor.Add(cfg.Cycle())
			continue
		}

		cursor = next.End
		idx++
	}
	return slots
}

// initialCursor places the first slot boundary. A blackout covering the
// window start pushes the cursor to its end; otherwise the start is
// aligned forward to the next slot boundary relative to the nearest
// preceding blackout end (the window start itself when there is none).
func initialCursor(start time.Time, cfg Config, blackouts []TimeRange) time.Time {
	ref := start
	for _, b := range blackouts {
		if b.Start.Before(start) || b.Start.Equal(start) {
			if b.End.After(start) {
				return b.End
			}
			ref = b.End
		}
	}
	return alignToSlotBoundary(start, ref, cfg)
}

// alignToSlotBoundary advances t to the next slot boundary in the grid
// anchored at ref, truncated to whole minutes.
func alignToSlotBoundary(t, ref time.Time, cfg Config) time.Time {
	cycleMin := int64(cfg.Cycle() / time.Minute)
	if cycleMin <= 0 {
		return t.Truncate(time.Minute)
	}
	diffMin := int64(t.Sub(ref) / time.Minute)
	rem := diffMin % cycleMin
	if rem != 0 {
		t = t.Add(time.Duration(cycleMin-rem) * time.Minute)
	}
	return t.Truncate(time.Minute)
}

// AlignedToSlotBoundary reports whether t sits exactly on the slot grid
// anchored at ref.
func AlignedToSlotBoundary(t, ref time.Time, cfg Config) bool {
	cycleMin := int64(cfg.Cycle() / time.Minute)
	if cycleMin <= 0 {
		return false
	}
	diffMin := int64(t.Sub(ref) / time.Minute)
	return diffMin%cycleMin == 0 && t.Equal(t.Truncate(time.Minute))
}

// NearestPrecedingBlackoutEnd returns the latest blackout end at or
// before t, or fallback when no blackout has ended yet. It anchors the
// slot grid for alignment checks.
func NearestPrecedingBlackoutEnd(blackouts []TimeRange, t, fallback time.Time) time.Time {
	ref := fallback
	for _, b := range blackouts {
		if b.End.After(t) {
			break
		}
		ref = b.End
	}
	return ref
}
