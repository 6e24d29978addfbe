package outbox

import (
	"encoding/json"
	"time"

	"github.com/slotsmith/slotsmith/internal/model"
)

const (
	TopicAppointmentBooked    = "slotsmith.appointment.booked.v1"
	TopicAppointmentCancelled = "slotsmith.appointment.cancelled.v1"
)

// Event is the domain event envelope written to the outbox table.
// The Kafka topic name equals EventType (one event per topic).
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

type appointmentPayload struct {
	AppointmentID string    `json:"appointment_id"`
	EventTypeID   int64     `json:"event_type_id"`
	UserID        int64     `json:"user_id"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
}

func AppointmentBooked(appt model.Appointment) (Event, error) {
	return appointmentEvent(TopicAppointmentBooked, appt)
}

func AppointmentCancelled(appt model.Appointment) (Event, error) {
	return appointmentEvent(TopicAppointmentCancelled, appt)
}

func appointmentEvent(eventType string, appt model.Appointment) (Event, error) {
	payload, err := json.Marshal(appointmentPayload{
		AppointmentID: appt.ID,
		EventTypeID:   appt.EventTypeID,
		UserID:        appt.UserID,
		StartTime:     appt.StartTime,
		EndTime:       appt.EndTime,
	})
	if err != nil {
		return Event{}, err
	}
	return Event{
		AggregateType: "appointment",
		AggregateID:   appt.ID,
		EventType:     eventType,
		Payload:       payload,
	}, nil
}
