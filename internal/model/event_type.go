package model

import "time"

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderAny    Gender = "any"
)

func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderAny:
		return true
	}
	return false
}

// EventType is a bookable service offering (e.g. a haircut). Appointments
// always reference exactly one event type.
type EventType struct {
	ID              int64
	Name            string
	Gender          Gender
	DurationMinutes int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// EventConfig holds the slot parameters for a scope. At most one live row
// exists per scope; updates bump Version in place rather than inserting a
// second row.
type EventConfig struct {
	ID                    int64
	MaxParallelClients    int
	SlotLengthMinutes     int
	BreakMinutes          int
	MaxBookingHorizonDays int
	Version               int
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

func (c EventConfig) Validate() error {
	if c.MaxParallelClients < 1 {
		return errField("max_parallel_clients")
	}
	if c.SlotLengthMinutes < 1 {
		return errField("slot_length_minutes")
	}
	if c.BreakMinutes < 1 {
		return errField("break_minutes")
	}
	if c.MaxBookingHorizonDays < 1 {
		return errField("max_booking_horizon_days")
	}
	return nil
}

type fieldError string

func errField(name string) error { return fieldError(name) }

func (e fieldError) Error() string { return string(e) + " must be >= 1" }
