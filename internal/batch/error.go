package batch

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidGroupSize indicates a non-positive files-per-job value
	ErrInvalidGroupSize = errors.New("group size must be positive")

	// ErrNoRuns indicates that none of the inspected names carried a run number.
	// It is distinct from an empty missing list, which means nothing is missing.
	ErrNoRuns = errors.New("no run numbers found")
)

// MalformedNameError is returned when a filename carries the run token but
// the component after it is absent or not a non-negative integer.
type MalformedNameError struct {
	Name   string // Filename that failed to parse
	Reason string // Human readable reason
	Err    error  // Underlying parse error (may be nil)
}

func (e *MalformedNameError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed run file name %q: %s: %v", e.Name, e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed run file name %q: %s", e.Name, e.Reason)
}

func (e *MalformedNameError) Unwrap() error {
	return e.Err
}

// IsMalformedName checks if an error is a MalformedNameError
func IsMalformedName(err error) bool {
	var me *MalformedNameError
	return errors.As(err, &me)
}
