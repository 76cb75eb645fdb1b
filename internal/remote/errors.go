package remote

import (
	"errors"
	"fmt"
	"strings"

	"geniectl/internal/shell"
)

// RemoteCommandError reports a device-side command (or the copy tool
// driving a transfer) that exited non-zero.
type RemoteCommandError struct {
	Target   string
	Args     []string
	ExitCode int
	Stderr   string
}

func (e *RemoteCommandError) Error() string {
	msg := fmt.Sprintf("remote command %q on %s failed with exit code %d", strings.Join(e.Args, " "), e.Target, e.ExitCode)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + stderr
	}
	return msg
}

// UnsupportedOperationError reports a capability the active transport
// variant does not have.
type UnsupportedOperationError struct {
	Kind Kind
	Op   string
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("%s transport does not support %s", e.Kind, e.Op)
}

// wrapExit converts a runner exit error into a RemoteCommandError. Other
// errors (the local tool could not start, ctx cancelled) pass through.
func wrapExit(target string, args []string, err error) error {
	var exitErr *shell.ExitError
	if errors.As(err, &exitErr) {
		return &RemoteCommandError{
			Target:   target,
			Args:     append([]string(nil), args...),
			ExitCode: exitErr.Code,
			Stderr:   exitErr.Stderr,
		}
	}
	return err
}

// exitCode returns the remote exit status carried by err, if any.
func exitCode(err error) (int, bool) {
	var remoteErr *RemoteCommandError
	if errors.As(err, &remoteErr) {
		return remoteErr.ExitCode, true
	}
	return 0, false
}
