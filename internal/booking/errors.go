package booking

import (
	"errors"
	"fmt"
)

// Kind identifies the single constraint a rejected booking request
// violated. Validation stops at the first failing check.
type Kind string

const (
	KindInvalidRange      Kind = "invalid_range"
	KindOutOfHorizon      Kind = "out_of_horizon"
	KindBlackedOut        Kind = "blacked_out"
	KindEventTypeNotFound Kind = "event_type_not_found"
	KindEventTypeMismatch Kind = "event_type_mismatch"
	KindMisalignedSlot    Kind = "misaligned_slot"
	KindSlotFull          Kind = "slot_full"
	KindConfigNotFound    Kind = "config_not_found"
)

// Error is a terminal validation failure; the caller must resubmit with
// corrected input.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Message
}

func reject(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the validation kind from err, if it carries one.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// StorageError marks a collaborator I/O failure. It is propagated to the
// caller, who may retry with backoff; the engine itself never retries.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return "storage unavailable: " + e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}
