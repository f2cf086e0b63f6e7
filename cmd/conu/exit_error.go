// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"

	"conu-cli/pkg/probe"
)

// Process exit codes of 'conu probe run'.
const (
	ExitOK              = 0
	ExitFailure         = 1
	ExitCountExceeded   = 2
	ExitTimeoutExceeded = 3
	ExitCheckError      = 4
	ExitCancelled       = 130
)

// ExitError signals a non-zero exit code without forcing os.Exit in RunE handlers.
type ExitError struct {
	Code int
	Err  error
}

// Error returns the error message for ExitError.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns the underlying error, if any.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// exitCodeFor maps a probe outcome to its process exit code.
func exitCodeFor(o probe.Outcome) int {
	switch o {
	case probe.OutcomeSuccess:
		return ExitOK
	case probe.OutcomeCountExceeded:
		return ExitCountExceeded
	case probe.OutcomeTimeoutExceeded:
		return ExitTimeoutExceeded
	case probe.OutcomeUnexpectedError:
		return ExitCheckError
	case probe.OutcomeCancelled:
		return ExitCancelled
	default:
		return ExitFailure
	}
}

// exitCode extracts the exit code carried by err, or ExitFailure.
func exitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}
