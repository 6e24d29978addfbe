package storage

import (
	"context"

	"github.com/slotsmith/slotsmith/internal/model"
	"github.com/slotsmith/slotsmith/libs/db"
)

type EventTypeRepository struct {
	pool *db.Pool
}

func NewEventTypeRepository(pool *db.Pool) *EventTypeRepository {
	return &EventTypeRepository{pool: pool}
}

func (r *EventTypeRepository) CreateEventType(ctx context.Context, et *model.EventType) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO event_types (name, gender, duration_minutes)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`, et.Name, et.Gender, et.DurationMinutes).Scan(&et.ID, &et.CreatedAt, &et.UpdatedAt)
	return translate(err)
}

func (r *EventTypeRepository) GetEventType(ctx context.Context, id int64) (model.EventType, error) {
	var et model.EventType
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, gender, duration_minutes, created_at, updated_at
		FROM event_types
		WHERE id = $1
	`, id).Scan(&et.ID, &et.Name, &et.Gender, &et.DurationMinutes, &et.CreatedAt, &et.UpdatedAt)
	if err != nil {
		return model.EventType{}, translate(err)
	}
	return et, nil
}

func (r *EventTypeRepository) ListEventTypes(ctx context.Context) ([]model.EventType, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, gender, duration_minutes, created_at, updated_at
		FROM event_types
		ORDER BY id
	`)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var out []model.EventType
	for rows.Next() {
		var et model.EventType
		if err := rows.Scan(&et.ID, &et.Name, &et.Gender, &et.DurationMinutes, &et.CreatedAt, &et.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, et)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *EventTypeRepository) UpdateEventType(ctx context.Context, et *model.EventType) error {
	err := r.pool.QueryRow(ctx, `
		UPDATE event_types
		SET name = $2,
			gender = $3,
			duration_minutes = $4,
			updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`, et.ID, et.Name, et.Gender, et.DurationMinutes).Scan(&et.UpdatedAt)
	return translate(err)
}

func (r *EventTypeRepository) DeleteEventType(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM event_types WHERE id = $1`, id)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}
