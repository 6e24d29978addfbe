package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/slotsmith/slotsmith/internal/availability"
	"github.com/slotsmith/slotsmith/internal/model"
	"github.com/slotsmith/slotsmith/internal/outbox"
	"github.com/slotsmith/slotsmith/libs/db"
)

type AppointmentRepository struct {
	pool   *db.Pool
	outbox *outbox.Repository
}

func NewAppointmentRepository(pool *db.Pool, outboxRepo *outbox.Repository) *AppointmentRepository {
	return &AppointmentRepository{pool: pool, outbox: outboxRepo}
}

// slotLockKey serializes writers of one (event type, slot) pair. The key
// is hashed to a bigint by Postgres, so collisions only cost contention,
// never correctness.
func slotLockKey(eventTypeID int64, start, end time.Time) string {
	return fmt.Sprintf("slot:%d:%d:%d", eventTypeID, start.Unix(), end.Unix())
}

// CreateIfCapacity counts the slot's occupants and inserts the new
// appointment in one transaction, guarded by an advisory lock on the
// slot key. Of two concurrent callers racing for the last capacity
// unit, exactly one commits; the other gets ErrCapacityExhausted.
func (r *AppointmentRepository) CreateIfCapacity(ctx context.Context, appt *model.Appointment, maxParallel int) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	key := slotLockKey(appt.EventTypeID, appt.StartTime, appt.EndTime)
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, key); err != nil {
		return err
	}

	var occupied int
	err = tx.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM appointments
		WHERE event_type_id = $1 AND start_time = $2 AND end_time = $3
	`, appt.EventTypeID, appt.StartTime, appt.EndTime).Scan(&occupied)
	if err != nil {
		return err
	}
	if occupied >= maxParallel {
		return model.ErrCapacityExhausted
	}

	appt.ID = uuid.NewString()
	err = tx.QueryRow(ctx, `
		INSERT INTO appointments (id, event_type_id, user_id, start_time, end_time)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, appt.ID, appt.EventTypeID, appt.UserID, appt.StartTime, appt.EndTime).Scan(&appt.CreatedAt)
	if err != nil {
		return translate(err)
	}

	evt, err := outbox.AppointmentBooked(*appt)
	if err != nil {
		return err
	}
	if err := r.outbox.Insert(ctx, tx, evt); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *AppointmentRepository) FindInRange(ctx context.Context, eventTypeID int64, rng availability.TimeRange) ([]model.Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, event_type_id, user_id, start_time, end_time, created_at
		FROM appointments
		WHERE event_type_id = $1
			AND start_time >= $2
			AND end_time <= $3
		ORDER BY start_time ASC
	`, eventTypeID, rng.Start, rng.End)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var appts []model.Appointment
	for rows.Next() {
		var appt model.Appointment
		if err := rows.Scan(&appt.ID, &appt.EventTypeID, &appt.UserID, &appt.StartTime, &appt.EndTime, &appt.CreatedAt); err != nil {
			return nil, err
		}
		appts = append(appts, appt)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return appts, nil
}

func (r *AppointmentRepository) GetAppointment(ctx context.Context, id string) (model.Appointment, error) {
	var appt model.Appointment
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, event_type_id, user_id, start_time, end_time, created_at
		FROM appointments
		WHERE id = $1
	`, id).Scan(&appt.ID, &appt.EventTypeID, &appt.UserID, &appt.StartTime, &appt.EndTime, &appt.CreatedAt)
	if err != nil {
		return model.Appointment{}, translate(err)
	}
	return appt, nil
}

// CancelAppointment removes the row and stages the cancellation event in
// the same transaction, freeing the slot's capacity unit atomically.
func (r *AppointmentRepository) CancelAppointment(ctx context.Context, id string) (model.Appointment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return model.Appointment{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var appt model.Appointment
	err = tx.QueryRow(ctx, `
		DELETE FROM appointments
		WHERE id = $1
		RETURNING id::text, event_type_id, user_id, start_time, end_time, created_at
	`, id).Scan(&appt.ID, &appt.EventTypeID, &appt.UserID, &appt.StartTime, &appt.EndTime, &appt.CreatedAt)
	if err != nil {
		return model.Appointment{}, translate(err)
	}

	evt, err := outbox.AppointmentCancelled(appt)
	if err != nil {
		return model.Appointment{}, err
	}
	if err := r.outbox.Insert(ctx, tx, evt); err != nil {
		return model.Appointment{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return model.Appointment{}, err
	}
	return appt, nil
}
