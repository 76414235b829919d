package workflow

import "errors"

// Outcome is the single result category a manager reports across its boundary.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeNotFound Outcome = "not_found"
	OutcomeInvalid  Outcome = "invalid"
	OutcomeRejected Outcome = "rejected"
	OutcomeError    Outcome = "error"
)

// Classify maps an operation error to its outcome.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeSuccess
	case IsValidation(err):
		return OutcomeInvalid
	case errors.Is(err, ErrInconsistent):
		return OutcomeError
	case errors.Is(err, ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, ErrNoOpenings), errors.Is(err, ErrNotOpen), errors.Is(err, ErrConflict):
		return OutcomeRejected
	default:
		return OutcomeError
	}
}
