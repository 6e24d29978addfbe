package storage

import (
	"context"
	"time"

	"github.com/slotsmith/slotsmith/internal/model"
	"github.com/slotsmith/slotsmith/libs/db"
)

type BlackoutRepository struct {
	pool *db.Pool
}

func NewBlackoutRepository(pool *db.Pool) *BlackoutRepository {
	return &BlackoutRepository{pool: pool}
}

func (r *BlackoutRepository) CreateBlackout(ctx context.Context, scope model.Scope, w *model.BlackoutWindow) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO blackout_windows (event_type_id, start_minutes, end_minutes, on_date, duration_type)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, scope.EventTypeID, int(w.StartTime), int(w.EndTime), w.Date, string(w.DurationType)).Scan(&w.ID, &w.CreatedAt, &w.UpdatedAt)
	return translate(err)
}

func (r *BlackoutRepository) ListBlackouts(ctx context.Context, scope model.Scope) ([]model.BlackoutWindow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, start_minutes, end_minutes, on_date, duration_type, created_at, updated_at
		FROM blackout_windows
		WHERE event_type_id = $1
		ORDER BY id
	`, scope.EventTypeID)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var out []model.BlackoutWindow
	for rows.Next() {
		var w model.BlackoutWindow
		var startMin, endMin int
		var onDate *time.Time
		var durationType string
		if err := rows.Scan(&w.ID, &startMin, &endMin, &onDate, &durationType, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, err
		}
		w.StartTime = model.TimeOfDay(startMin)
		w.EndTime = model.TimeOfDay(endMin)
		w.Date = onDate
		w.DurationType = model.DurationType(durationType)
		out = append(out, w)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *BlackoutRepository) UpdateBlackout(ctx context.Context, scope model.Scope, w *model.BlackoutWindow) error {
	err := r.pool.QueryRow(ctx, `
		UPDATE blackout_windows
		SET start_minutes = $3, end_minutes = $4, on_date = $5, duration_type = $6, updated_at = now()
		WHERE id = $1 AND event_type_id = $2
		RETURNING created_at, updated_at
	`, w.ID, scope.EventTypeID, int(w.StartTime), int(w.EndTime), w.Date, string(w.DurationType)).Scan(&w.CreatedAt, &w.UpdatedAt)
	return translate(err)
}

func (r *BlackoutRepository) DeleteBlackout(ctx context.Context, scope model.Scope, id int64) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM blackout_windows
		WHERE id = $1 AND event_type_id = $2
	`, id, scope.EventTypeID)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}
