package availability

import (
	"time"

	"github.com/slotsmith/slotsmith/internal/model"
)

// ResolveForDate returns the merged blackout ranges in effect on the
// calendar date of day, as absolute instants in loc. Windows are selected
// when they recur every day, recur on day's weekday, or are one-off
// windows whose date matches day at day granularity.
func ResolveForDate(windows []model.BlackoutWindow, day time.Time, loc *time.Location) []TimeRange {
	var ranges []TimeRange
	for _, w := range windows {
		if !w.AppliesTo(day, loc) {
			continue
		}
		ranges = append(ranges, TimeRange{
			Start: w.StartTime.At(day, loc),
			End:   w.EndTime.At(day, loc),
		})
	}
	return Merge(ranges)
}
