// SPDX-License-Identifier: MPL-2.0

package probe

import (
	"errors"
	"fmt"
	"time"
)

const (
	// OutcomeNone means no run has finished yet.
	OutcomeNone Outcome = iota
	// OutcomeSuccess means the check returned the expected value.
	OutcomeSuccess
	// OutcomeUnexpectedError means the check failed with an unexpected error kind.
	OutcomeUnexpectedError
	// OutcomeCountExceeded means the attempt budget ran out.
	OutcomeCountExceeded
	// OutcomeTimeoutExceeded means the wall-clock budget ran out.
	OutcomeTimeoutExceeded
	// OutcomeCancelled means the run was cancelled by its context or Terminate.
	OutcomeCancelled
)

var (
	// ErrCountExceeded is returned when every allowed attempt was made without success.
	ErrCountExceeded = errors.New("attempt count exceeded")
	// ErrTimeoutExceeded is returned when the timeout elapsed without success.
	ErrTimeoutExceeded = errors.New("timeout exceeded")
	// ErrCancelled is returned when a run was cancelled before it resolved.
	ErrCancelled = errors.New("probe cancelled")
	// ErrBusy is returned when a run is requested while another one is in flight.
	ErrBusy = errors.New("probe is already running")
)

type (
	// Outcome is the terminal state of a probe run.
	Outcome int

	// Result summarizes a finished run.
	Result struct {
		// RunID identifies the run in logs.
		RunID string
		// Outcome is the terminal state.
		Outcome Outcome
		// Attempts is the number of execution units spawned.
		Attempts int
		// Elapsed is the wall-clock duration of the run.
		Elapsed time.Duration
		// Err is nil for OutcomeSuccess and a *RunError otherwise.
		Err error
	}

	// RunError describes a run that did not succeed. Err is one of
	// ErrCountExceeded, ErrTimeoutExceeded, ErrCancelled or a *CheckError.
	RunError struct {
		RunID    string
		Check    string
		Outcome  Outcome
		Attempts int
		Elapsed  time.Duration
		Err      error
	}

	// CheckError is an unexpected failure reported by an execution unit.
	// Unwrap yields the sentinel registered for Kind, so errors.Is works on the
	// parent side of the process boundary.
	CheckError struct {
		Check   string
		Attempt int
		Kind    string
		Message string
	}
)

// String returns a human-readable representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeNone:
		return "none"
	case OutcomeSuccess:
		return "success"
	case OutcomeUnexpectedError:
		return "unexpected-error"
	case OutcomeCountExceeded:
		return "count-exceeded"
	case OutcomeTimeoutExceeded:
		return "timeout-exceeded"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// IsFailure reports whether the outcome is a terminal failure.
func (o Outcome) IsFailure() bool {
	return o == OutcomeUnexpectedError || o == OutcomeCountExceeded ||
		o == OutcomeTimeoutExceeded || o == OutcomeCancelled
}

// Error implements the error interface for RunError.
func (e *RunError) Error() string {
	return fmt.Sprintf("probe %q: %s after %d attempt(s) in %s: %v",
		e.Check, e.Outcome, e.Attempts, e.Elapsed.Round(time.Millisecond), e.Err)
}

// Unwrap returns the cause of the failed run.
func (e *RunError) Unwrap() error { return e.Err }

// Error implements the error interface for CheckError.
func (e *CheckError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("check %q failed on attempt %d: %s", e.Check, e.Attempt, e.Message)
	}
	return fmt.Sprintf("check %q failed on attempt %d: %s (%s)", e.Check, e.Attempt, e.Message, e.Kind)
}

// Unwrap returns the sentinel registered for the error kind, if any.
func (e *CheckError) Unwrap() error {
	if e.Kind == "" {
		return nil
	}
	target, _ := lookupErrorKind(e.Kind)
	return target
}
