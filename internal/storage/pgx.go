package storage

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/slotsmith/slotsmith/internal/model"
)

// translate maps driver errors onto the store sentinels the service
// layer matches against. Unknown errors pass through unchanged.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return model.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return model.ErrConflict
		case "23P01": // exclusion_violation
			return model.ErrConflict
		}
	}
	return err
}

func IsNotFound(err error) bool {
	return errors.Is(err, model.ErrNotFound)
}

func IsConflict(err error) bool {
	return errors.Is(err, model.ErrConflict)
}
