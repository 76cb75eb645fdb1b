// Package exitcode maps geniectl failures to process exit statuses so
// scripts can tell a bad invocation from a device that said no.
//
// Codes are grouped by category:
//   - 0: success
//   - 1-9: general errors (usage)
//   - 10-19: something named on the command line was not found
//   - 30-39: the device or the tool driving it failed
package exitcode

import (
	"errors"
	"fmt"

	"geniectl/internal/deploy"
	"geniectl/internal/proctable"
	"geniectl/internal/remote"
)

const (
	Success = 0

	ErrGeneral = 1 // General/unknown error
	ErrUsage   = 2 // Invalid arguments or usage

	ErrNotFound = 10 // Unknown deployable, context, tool or pattern

	ErrRemote      = 30 // Device-side command exited non-zero
	ErrParse       = 31 // Unparseable process table line
	ErrUnsupported = 32 // Transport cannot perform the operation
)

// Error wraps an error with a specific exit code.
type Error struct {
	Code    int
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		if e.Message == "" {
			return e.Cause.Error()
		}
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new coded error.
func New(code int, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a new coded error with printf-style formatting.
func Newf(code int, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code to cause.
func Wrap(code int, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// UserError is a mistake in how the command was invoked, such as flags
// that contradict each other.
type UserError struct {
	Message string
}

func (e *UserError) Error() string { return e.Message }

// Userf builds a UserError.
func Userf(format string, args ...any) *UserError {
	return &UserError{Message: fmt.Sprintf(format, args...)}
}

// Usage reports a bad invocation.
func Usage(format string, args ...any) *Error {
	return Newf(ErrUsage, format, args...)
}

// Code extracts the exit code from err. Explicitly coded errors win; known
// domain errors map to their category; everything else is ErrGeneral.
func Code(err error) int {
	if err == nil {
		return Success
	}
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code
	}

	var (
		userErr     *UserError
		unknown     *deploy.UnknownDeployableError
		parseErr    *proctable.ParseError
		remoteErr   *remote.RemoteCommandError
		unsupported *remote.UnsupportedOperationError
	)
	switch {
	case errors.As(err, &userErr):
		return ErrUsage
	case errors.As(err, &unknown):
		return ErrNotFound
	case errors.As(err, &parseErr):
		return ErrParse
	case errors.As(err, &unsupported):
		return ErrUnsupported
	case errors.As(err, &remoteErr):
		return ErrRemote
	}
	return ErrGeneral
}

// Is checks if an error has a specific exit code.
func Is(err error, code int) bool {
	return Code(err) == code
}
