// Package fault defines the error taxonomy shared by the registries, the
// assignment engine and the API layer.
//
// Known conditions are sentinel errors checked with errors.Is; conditions
// that carry detail (field name, blocking job ids) wrap the sentinel so a
// caller can branch on the kind and still read the detail. External errors
// are wrapped with fmt.Errorf("...: %w", err).
package fault

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation is returned for a malformed, missing or out-of-range
	// field. Always local, never retried.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned for an unknown job or worker id.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned for a duplicate phone on registration, or a
	// delete blocked by a current assignment.
	ErrConflict = errors.New("conflict")

	// ErrInvalidState is returned when an assignment or status transition
	// targets a job whose status does not admit it.
	ErrInvalidState = errors.New("invalid job state")

	// ErrStorage wraps an entity-store failure. Surfaced as a generic
	// failure to the caller; retry policy belongs to the transport layer.
	ErrStorage = errors.New("storage failure")
)

// Validation builds an ErrValidation for one field.
func Validation(field, msg string) error {
	return fmt.Errorf("%w: %s %s", ErrValidation, field, msg)
}

// NotFound builds an ErrNotFound for an entity kind and id.
func NotFound(kind, id string) error {
	return fmt.Errorf("%w: %s %s", ErrNotFound, kind, id)
}

// Conflict builds an ErrConflict with a reason.
func Conflict(msg string) error {
	return fmt.Errorf("%w: %s", ErrConflict, msg)
}

// ConflictBlockedBy builds an ErrConflict naming the job ids that block a
// worker delete.
func ConflictBlockedBy(jobIDs []string) error {
	return fmt.Errorf("%w: worker is assigned to jobs %s", ErrConflict, strings.Join(jobIDs, ", "))
}

// InvalidState builds an ErrInvalidState for a job in the given status.
func InvalidState(jobID, status string) error {
	return fmt.Errorf("%w: job %s is %s", ErrInvalidState, jobID, status)
}

// Storage wraps err as an ErrStorage. Returns nil when err is nil.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}
