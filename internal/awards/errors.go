package awards

import (
	"errors"
	"fmt"
)

// Errors returned by the awards service. Handlers map them to HTTP statuses.
var (
	// ErrDuplicateVote means the caller already cast this kind of ballot in the category.
	ErrDuplicateVote = errors.New("already voted in this category")

	// ErrUnauthorized means no caller identity was supplied.
	ErrUnauthorized = errors.New("authentication required")

	// ErrForbidden means the caller lacks the admin or jury capability.
	ErrForbidden = errors.New("insufficient permissions")

	// ErrNotFound means a category or nominee reference does not resolve.
	ErrNotFound = errors.New("not found")

	// ErrResultsHidden means the visibility gate is closed.
	ErrResultsHidden = errors.New("results are not public yet")

	// ErrInvalidInput means the request failed validation before reaching the store.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict means a category, nominee or user with the same unique key exists.
	ErrConflict = errors.New("already exists")

	// ErrNomineeHasBallots means a nominee that already received ballots
	// cannot move to another category.
	ErrNomineeHasBallots = fmt.Errorf("%w: nominee has ballots", ErrConflict)
)

// AggregationError reports a failed results recomputation. The previous
// snapshot is left in place whenever this error is returned.
type AggregationError struct {
	// Stage names the step that failed, e.g. "tally" or "write snapshot".
	Stage string

	// Category is the category being processed, empty for run-wide stages.
	Category string

	Err error
}

func (e *AggregationError) Error() string {
	if e.Category != "" {
		return fmt.Sprintf("results aggregation failed at %s (category %q): %v", e.Stage, e.Category, e.Err)
	}
	return fmt.Sprintf("results aggregation failed at %s: %v", e.Stage, e.Err)
}

func (e *AggregationError) Unwrap() error { return e.Err }
