package model

import "errors"

// Shared store error contract. Concrete stores (Postgres, in-memory test
// fakes) return errors matching these so callers can branch with errors.Is
// without depending on a driver.
var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrCapacityExhausted = errors.New("slot capacity exhausted")
)
