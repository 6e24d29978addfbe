package storage

import (
	"context"
	_ "embed"

	"github.com/slotsmith/slotsmith/libs/db"
)

//go:embed schema.sql
var schemaSQL string

// EnsureSchema applies the schema on startup. Every statement is
// IF NOT EXISTS, so reruns against an existing database are no-ops.
func EnsureSchema(ctx context.Context, pool *db.Pool) error {
	_, err := pool.Exec(ctx, schemaSQL)
	return err
}
