package hex

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

var (
	// ErrInvalidArgument is returned when a request is rejected before any
	// network call is made
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrMalformedResponse is returned when a successful response body does
	// not match the expected shape
	ErrMalformedResponse = errors.New("malformed response")

	// ErrRunFailed matches every *RunError
	ErrRunFailed = errors.New("project run failed")

	ErrRunTimedOut               = errors.New("project run timed out")
	ErrRunUnableToAllocateKernel = errors.New("project run unable to allocate kernel")
	ErrRunErrored                = errors.New("project run errored")
	ErrRunKilled                 = errors.New("project run killed")
)

// TransportError wraps a failure to reach the API or to read its response
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("failed to execute %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// RunErrorKind classifies why a waited run did not complete
type RunErrorKind int

const (
	// RunFailed is a terminal status this client does not recognize
	RunFailed RunErrorKind = iota
	RunTimedOut
	RunUnableToAllocateKernel
	RunErrored
	RunKilled
)

func (k RunErrorKind) String() string {
	switch k {
	case RunTimedOut:
		return "timed_out"
	case RunUnableToAllocateKernel:
		return "unable_to_allocate_kernel"
	case RunErrored:
		return "errored"
	case RunKilled:
		return "killed"
	default:
		return "failed"
	}
}

func (k RunErrorKind) sentinel() error {
	switch k {
	case RunTimedOut:
		return ErrRunTimedOut
	case RunUnableToAllocateKernel:
		return ErrRunUnableToAllocateKernel
	case RunErrored:
		return ErrRunErrored
	case RunKilled:
		return ErrRunKilled
	default:
		return ErrRunFailed
	}
}

// RunError reports a run that timed out or ended in a non-COMPLETED status
type RunError struct {
	Kind      RunErrorKind
	ProjectID string
	RunID     string
	// Status is the last status observed
	Status RunStatus
	// MaxWait is the budget that was exceeded, set for RunTimedOut
	MaxWait time.Duration
	// Last is the last status payload received, if any
	Last *ProjectStatusResponse
}

func (e *RunError) Error() string {
	if e.Kind == RunTimedOut {
		return fmt.Sprintf("max wait time of %s seconds exceeded while waiting for project %s run %s",
			strconv.FormatFloat(e.MaxWait.Seconds(), 'f', -1, 64), e.ProjectID, e.RunID)
	}
	return fmt.Sprintf("project %s run %s was unsuccessful with %q", e.ProjectID, e.RunID, string(e.Status))
}

// Is matches ErrRunFailed and the sentinel for the error's kind
func (e *RunError) Is(target error) bool {
	return target == ErrRunFailed || target == e.Kind.sentinel()
}

// ClassifyStatus maps a terminal, unsuccessful status to a RunErrorKind.
// It returns false for COMPLETED and for the non-terminal statuses.
func ClassifyStatus(status RunStatus) (RunErrorKind, bool) {
	switch status {
	case StatusCompleted, StatusPending, StatusRunning:
		return 0, false
	case StatusErrored:
		return RunErrored, true
	case StatusKilled:
		return RunKilled, true
	case StatusUnableToAllocateKernel:
		return RunUnableToAllocateKernel, true
	default:
		return RunFailed, true
	}
}
