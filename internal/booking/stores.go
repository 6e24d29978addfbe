package booking

import (
	"context"
	"time"

	"github.com/slotsmith/slotsmith/internal/availability"
	"github.com/slotsmith/slotsmith/internal/model"
)

// Store contracts the engine consumes. The Postgres implementations live
// in internal/storage; tests substitute in-memory fakes. Missing rows are
// reported with model.ErrNotFound.

type EventTypeStore interface {
	GetEventType(ctx context.Context, id int64) (model.EventType, error)
}

type ConfigStore interface {
	GetConfig(ctx context.Context, scope model.Scope) (model.EventConfig, error)
}

type BlackoutStore interface {
	ListBlackouts(ctx context.Context, scope model.Scope) ([]model.BlackoutWindow, error)
}

type AppointmentStore interface {
	FindInRange(ctx context.Context, eventTypeID int64, r availability.TimeRange) ([]model.Appointment, error)

	// CreateIfCapacity atomically re-counts appointments exactly matching
	// [appt.StartTime, appt.EndTime) for the event type and inserts only
	// while the count is below maxParallel. Concurrent calls for the last
	// capacity unit must not both succeed; the loser gets
	// model.ErrCapacityExhausted.
	CreateIfCapacity(ctx context.Context, appt *model.Appointment, maxParallel int) error
}

type UserStore interface {
	// GetOrCreateByEmail resolves the user owning the unique email,
	// creating the row on first booking.
	GetOrCreateByEmail(ctx context.Context, user model.User) (model.User, error)
}

// NewBookingRequest is a proposed appointment prior to validation.
type NewBookingRequest struct {
	EventTypeID int64
	StartTime   time.Time
	EndTime     time.Time
	User        model.User
}
