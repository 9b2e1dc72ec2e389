package scheduler

import (
	"errors"
	"fmt"
)

// Common errors
var (
	// ErrSchedulerNotAvailable indicates no usable scheduler was configured
	ErrSchedulerNotAvailable = errors.New("scheduler is not available")

	// ErrSchedulerNotFound indicates the scheduler binary was not found
	ErrSchedulerNotFound = errors.New("scheduler binary not found in PATH")

	// ErrAlreadyInJob indicates we're already inside a scheduler job
	ErrAlreadyInJob = errors.New("already inside a scheduler job")

	// ErrSubmitFileNotFound indicates the submit file was not found
	ErrSubmitFileNotFound = errors.New("submit file not found")

	// ErrInvalidSubmitFile indicates the submit file has no executable
	ErrInvalidSubmitFile = errors.New("invalid submit file")

	// ErrNoJobs indicates a submission with an empty item list
	ErrNoJobs = errors.New("no jobs to submit")

	// ErrInconsistentItems indicates items that do not all define the same variables
	ErrInconsistentItems = errors.New("items define different variables")

	// ErrJobIDParseFailed indicates parsing the cluster id from output failed
	ErrJobIDParseFailed = errors.New("failed to parse cluster id from scheduler output")

	// ErrUnsupportedVersion indicates the scheduler is too old for itemdata submission
	ErrUnsupportedVersion = errors.New("scheduler version does not support queue-from submissions")
)

// SubmissionError represents an error during job submission
type SubmissionError struct {
	Scheduler string // Scheduler name
	File      string // Submit file handed to the scheduler
	Output    string // Scheduler output
	Err       error  // Underlying error
}

func (e *SubmissionError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("%s submission of %s failed: %v\nOutput: %s",
			e.Scheduler, e.File, e.Err, e.Output)
	}
	return fmt.Sprintf("%s submission of %s failed: %v", e.Scheduler, e.File, e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// CommandError represents a failed queue query or queue action
type CommandError struct {
	Scheduler string // Scheduler name
	Operation string // Operation that failed (e.g., "query queue", "remove")
	Output    string // Captured output
	Err       error  // Underlying error
}

func (e *CommandError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("%s error during %s: %v\nOutput: %s",
			e.Scheduler, e.Operation, e.Err, e.Output)
	}
	return fmt.Sprintf("%s error during %s: %v", e.Scheduler, e.Operation, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewSubmissionError creates a new SubmissionError
func NewSubmissionError(scheduler string, file string, output string, err error) *SubmissionError {
	return &SubmissionError{
		Scheduler: scheduler,
		File:      file,
		Output:    output,
		Err:       err,
	}
}

// NewCommandError creates a new CommandError
func NewCommandError(scheduler string, operation string, output string, err error) *CommandError {
	return &CommandError{
		Scheduler: scheduler,
		Operation: operation,
		Output:    output,
		Err:       err,
	}
}

// IsSubmissionError checks if an error is a SubmissionError
func IsSubmissionError(err error) bool {
	var se *SubmissionError
	return errors.As(err, &se)
}

// IsCommandError checks if an error is a CommandError
func IsCommandError(err error) bool {
	var ce *CommandError
	return errors.As(err, &ce)
}
