package cmd

import (
	"errors"
	"fmt"
)

// Process exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
	// ExitAborted means a precondition stopped the run.
	ExitAborted = 3
	// ExitInterrupted follows the shell convention for SIGINT.
	ExitInterrupted = 130
)

// ExitCoder is an error carrying a process exit code.
type ExitCoder interface {
	error
	ExitCode() int
}

// ExitError is an error that carries an explicit process exit code.
// It supports wrapping via Unwrap so errors.Is/As work as expected.
type ExitError struct {
	code  int
	msg   string
	cause error
	// reported is set when the outcome was already written to the operator.
	reported bool
}

func (e *ExitError) Error() string {
	if e.cause == nil {
		return e.msg
	}
	return fmt.Sprintf("%s: %v", e.msg, e.cause)
}

// ExitCode implements ExitCoder.
func (e *ExitError) ExitCode() int { return e.code }

// Unwrap enables errors.Is/As to traverse the underlying cause.
func (e *ExitError) Unwrap() error { return e.cause }

// NewExitError creates an ExitError with a message.
func NewExitError(code int, msg string) *ExitError {
	return &ExitError{code: normalize(code), msg: msg}
}

// WrapExitError creates an ExitError that wraps an underlying cause.
func WrapExitError(code int, msg string, cause error) *ExitError {
	return &ExitError{code: normalize(code), msg: msg, cause: cause}
}

// reportedExit is an exit status whose explanation is already in the report.
func reportedExit(code int, msg string) *ExitError {
	e := NewExitError(code, msg)
	e.reported = true
	return e
}

// ExitCodeOf extracts an exit code from any error, defaulting to 1.
func ExitCodeOf(err error) int {
	if err == nil {
		return ExitOK
	}
	var ec ExitCoder
	if errors.As(err, &ec) {
		return ec.ExitCode()
	}
	return ExitFailure
}

// Reported reports whether err was already explained to the operator, so
// printing it again would only repeat the report.
func Reported(err error) bool {
	var e *ExitError
	return errors.As(err, &e) && e.reported
}

func normalize(code int) int {
	// Errors never exit 0.
	if code <= 0 {
		return ExitFailure
	}
	return code
}
