// Package shell runs local programs (ssh, scp, adb, git, docker, ffplay) on
// behalf of the higher level packages. Everything that talks to a device or
// an external tool goes through a Runner so tests can record the exact
// sequence of invocations instead of executing them.
package shell

import (
	"context"
	"io"
	"strings"
)

// Command describes one local process invocation.
type Command struct {
	Name string
	Args []string
	// Dir is the local working directory. Empty means the current one.
	Dir   string
	Stdin io.Reader
	// Stdout/Stderr, when set, receive the output as it is produced and
	// the corresponding Result field stays empty.
	Stdout io.Writer
	Stderr io.Writer
}

// Argv returns the full argument vector, program name first.
func (c Command) Argv() []string {
	return append([]string{c.Name}, c.Args...)
}

// String renders the command for logs.
func (c Command) String() string {
	return strings.Join(c.Argv(), " ")
}

// Result carries the captured output of a finished command.
type Result struct {
	Stdout string
	Stderr string
}

// Runner executes commands. Run blocks until the command exits; Start
// returns immediately with a handle the caller must stop or wait on.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
	Start(ctx context.Context, cmd Command) (Process, error)
}

// Process is a handle to a command started with Runner.Start.
type Process interface {
	// Stop terminates the process by signal. Stopping an exited process
	// is not an error.
	Stop() error
	// Wait blocks until the process exits.
	Wait() error
}
