package matching

import (
	"errors"
	"fmt"
)

var (
	ErrJobNotFound   = errors.New("job not found")
	ErrMatchNotFound = errors.New("match not found")
	// ErrTransitionNotAllowed is returned when a decision cannot follow the
	// match's current status.
	ErrTransitionNotAllowed = errors.New("status transition not allowed")
	// ErrComputeInProgress means another run owns the job's match set.
	ErrComputeInProgress = errors.New("match computation already running for this job")
)

// ValidationError reports bad input from the caller.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
