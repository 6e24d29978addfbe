package storage

import (
	"context"

	"github.com/slotsmith/slotsmith/internal/model"
	"github.com/slotsmith/slotsmith/libs/db"
)

type UserRepository struct {
	pool *db.Pool
}

func NewUserRepository(pool *db.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// GetOrCreateByEmail resolves the booking user by email, creating the
// row on first contact. The no-op DO UPDATE makes RETURNING yield the
// existing row instead of erroring on the unique index.
func (r *UserRepository) GetOrCreateByEmail(ctx context.Context, user model.User) (model.User, error) {
	var out model.User
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (email, first_name, last_name, gender)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
		RETURNING id, email, first_name, last_name, gender, created_at, updated_at
	`, user.Email, user.FirstName, user.LastName, user.Gender).Scan(
		&out.ID,
		&out.Email,
		&out.FirstName,
		&out.LastName,
		&out.Gender,
		&out.CreatedAt,
		&out.UpdatedAt,
	)
	if err != nil {
		return model.User{}, translate(err)
	}
	return out, nil
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	var out model.User
	err := r.pool.QueryRow(ctx, `
		SELECT id, email, first_name, last_name, gender, created_at, updated_at
		FROM users
		WHERE email = $1
	`, email).Scan(
		&out.ID,
		&out.Email,
		&out.FirstName,
		&out.LastName,
		&out.Gender,
		&out.CreatedAt,
		&out.UpdatedAt,
	)
	if err != nil {
		return model.User{}, translate(err)
	}
	return out, nil
}
