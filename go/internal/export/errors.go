package export

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrNoLayers is returned when an export request carries no source layers
var ErrNoLayers = errors.New("export request contains no layers")

// StatusFetchError wraps a failure to read export status from storage.
type StatusFetchError struct {
	Err error
}

func (e *StatusFetchError) Error() string {
	return fmt.Sprintf("failed to fetch export status: %v", e.Err)
}

func (e *StatusFetchError) Unwrap() error { return e.Err }

// PersistError wraps a failure to create the export record. Nothing was
// persisted, so it never triggers compensation.
type PersistError struct {
	TaskID uuid.UUID
	Err    error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("failed to save export data for task %s: %v", e.TaskID, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// DispatchError wraps a failed queue publish for a task whose record was
// already persisted. By the time the caller sees it, the record has been
// compensated away.
type DispatchError struct {
	TaskID uuid.UUID
	Err    error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("failed to dispatch export task %s: %v", e.TaskID, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }

// CompensationError means the compensating delete failed after a dispatch
// failure: a durable record now exists with no message behind it. It is a
// strictly more severe condition than DispatchError and carries both causes.
type CompensationError struct {
	TaskID      uuid.UUID
	DispatchErr error
	Err         error
}

func (e *CompensationError) Error() string {
	return fmt.Sprintf("failed to delete export record for task %s after dispatch failure (dispatch: %v): %v",
		e.TaskID, e.DispatchErr, e.Err)
}

func (e *CompensationError) Unwrap() error { return e.Err }
