package workflow

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound covers both absent entities and entities whose current
	// state does not allow the request. Callers cannot tell them apart.
	ErrNotFound = errors.New("not found")
	// ErrNoOpenings is returned when a job has no seats left.
	ErrNoOpenings = errors.New("no openings left")
	// ErrNotOpen is returned when applying to a job that is not published.
	ErrNotOpen = errors.New("not open for applications")
	// ErrConflict is returned when a uniqueness rule of the workflow is hit.
	ErrConflict = errors.New("conflict")
	// ErrInconsistent marks a guarded update that had to affect a row and did not.
	ErrInconsistent = errors.New("workflow consistency fault")
)

// ValidationError rejects malformed input before any store access.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

// Invalid builds a ValidationError.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IllegalTransitionError is raised when a transition table has no rule for
// the current state. It is reported to callers as ErrNotFound.
type IllegalTransitionError struct {
	Entity string
	From   string
	Event  string
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("%s: event %q not allowed from %q", e.Entity, e.Event, e.From)
}

func (e *IllegalTransitionError) Unwrap() error { return ErrNotFound }

// Conflict wraps ErrConflict with a reason.
func Conflict(reason string) error {
	return fmt.Errorf("%w: %s", ErrConflict, reason)
}

// Inconsistent wraps ErrInconsistent with the statement that misbehaved.
func Inconsistent(what string) error {
	return fmt.Errorf("%w: %s", ErrInconsistent, what)
}

// Affected converts a guarded update's row count into an outcome.
func Affected(n int64) error {
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
