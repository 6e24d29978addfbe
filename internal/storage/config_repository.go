package storage

import (
	"context"

	"github.com/slotsmith/slotsmith/internal/model"
	"github.com/slotsmith/slotsmith/libs/db"
)

type ConfigRepository struct {
	pool *db.Pool
}

func NewConfigRepository(pool *db.Pool) *ConfigRepository {
	return &ConfigRepository{pool: pool}
}

func (r *ConfigRepository) GetConfig(ctx context.Context, scope model.Scope) (model.EventConfig, error) {
	var cfg model.EventConfig
	err := r.pool.QueryRow(ctx, `
		SELECT id, max_parallel_clients, slot_length_minutes, break_minutes,
			max_booking_horizon_days, version, created_at, updated_at
		FROM event_configs
		WHERE event_type_id = $1
	`, scope.EventTypeID).Scan(
		&cfg.ID,
		&cfg.MaxParallelClients,
		&cfg.SlotLengthMinutes,
		&cfg.BreakMinutes,
		&cfg.MaxBookingHorizonDays,
		&cfg.Version,
		&cfg.CreatedAt,
		&cfg.UpdatedAt,
	)
	if err != nil {
		return model.EventConfig{}, translate(err)
	}
	return cfg, nil
}

// PutConfig inserts the scope's config or replaces it, bumping the
// version on every replace so cached readers can detect staleness.
func (r *ConfigRepository) PutConfig(ctx context.Context, scope model.Scope, cfg *model.EventConfig) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO event_configs
			(event_type_id, max_parallel_clients, slot_length_minutes, break_minutes, max_booking_horizon_days)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (event_type_id) DO UPDATE
		SET max_parallel_clients = EXCLUDED.max_parallel_clients,
			slot_length_minutes = EXCLUDED.slot_length_minutes,
			break_minutes = EXCLUDED.break_minutes,
			max_booking_horizon_days = EXCLUDED.max_booking_horizon_days,
			version = event_configs.version + 1,
			updated_at = now()
		RETURNING id, version, created_at, updated_at
	`, scope.EventTypeID, cfg.MaxParallelClients, cfg.SlotLengthMinutes, cfg.BreakMinutes, cfg.MaxBookingHorizonDays).Scan(
		&cfg.ID,
		&cfg.Version,
		&cfg.CreatedAt,
		&cfg.UpdatedAt,
	)
	return translate(err)
}

func (r *ConfigRepository) DeleteConfig(ctx context.Context, scope model.Scope) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM event_configs WHERE event_type_id = $1`, scope.EventTypeID)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}
