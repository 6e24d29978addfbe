package model

import (
	"errors"
	"strings"
	"time"
)

// DurationType says which days a blackout window applies to: one specific
// date, one weekday every week, or every day.
type DurationType string

const (
	DurationOneDay  DurationType = "one_day"
	DurationAllDays DurationType = "all_days"
)

var weekdayDurationTypes = map[DurationType]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func ParseDurationType(s string) (DurationType, error) {
	d := DurationType(strings.ToLower(strings.TrimSpace(s)))
	if d == DurationOneDay || d == DurationAllDays {
		return d, nil
	}
	if _, ok := weekdayDurationTypes[d]; ok {
		return d, nil
	}
	return "", errors.New("invalid duration type: " + s)
}

// Weekday reports the weekday a recurring weekly window applies to.
func (d DurationType) Weekday() (time.Weekday, bool) {
	wd, ok := weekdayDurationTypes[d]
	return wd, ok
}

// BlackoutWindow is a recurring or one-off time-of-day range during which
// no bookings are accepted for its scope.
type BlackoutWindow struct {
	ID           int64
	StartTime    TimeOfDay
	EndTime      TimeOfDay
	Date         *time.Time // day granularity, set only for one_day windows
	DurationType DurationType
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (w BlackoutWindow) Validate() error {
	if w.StartTime > w.EndTime {
		return errors.New("blackout start time is after end time")
	}
	if _, err := ParseDurationType(string(w.DurationType)); err != nil {
		return err
	}
	if w.DurationType == DurationOneDay && w.Date == nil {
		return errors.New("one_day blackout requires a date")
	}
	return nil
}

// AppliesTo reports whether the window is in effect on the calendar date
// of day in loc. One-off dates compare at day granularity.
func (w BlackoutWindow) AppliesTo(day time.Time, loc *time.Location) bool {
	d := day.In(loc)
	switch {
	case w.DurationType == DurationAllDays:
		return true
	case w.DurationType == DurationOneDay:
		if w.Date == nil {
			return false
		}
		wd := w.Date.In(loc)
		return wd.Year() == d.Year() && wd.YearDay() == d.YearDay()
	default:
		wd, ok := w.DurationType.Weekday()
		return ok && wd == d.Weekday()
	}
}
