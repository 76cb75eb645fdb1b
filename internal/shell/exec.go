package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"

	"github.com/charmbracelet/log"

	"geniectl/internal/logging"
)

// Exec runs commands as real child processes.
type Exec struct {
	Logger *log.Logger
}

// NewExec returns a Runner backed by os/exec.
func NewExec(logger *log.Logger) *Exec {
	return &Exec{Logger: logging.OrDiscard(logger)}
}

func (e *Exec) command(ctx context.Context, c Command) *exec.Cmd {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...) //nolint:gosec
	cmd.Dir = c.Dir
	cmd.Stdin = c.Stdin
	return cmd
}

// Run implements Runner.
func (e *Exec) Run(ctx context.Context, c Command) (Result, error) {
	logging.OrDiscard(e.Logger).Debug("Running", "cmd", c.String())

	cmd := e.command(ctx, c)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	if c.Stdout != nil {
		cmd.Stdout = c.Stdout
	}
	// stderr is always teed into the buffer so failures can report it.
	cmd.Stderr = &stderr
	if c.Stderr != nil {
		cmd.Stderr = io.MultiWriter(c.Stderr, &stderr)
	}

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() >= 0 {
			return res, &ExitError{Argv: c.Argv(), Code: exitErr.ExitCode(), Stderr: res.Stderr}
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, fmt.Errorf("%s: %w", c.Name, ctxErr)
		}
		return res, fmt.Errorf("run %s: %w", c.Name, err)
	}
	return res, nil
}

// Start implements Runner.
func (e *Exec) Start(ctx context.Context, c Command) (Process, error) {
	logging.OrDiscard(e.Logger).Debug("Spawning", "cmd", c.String())

	cmd := e.command(ctx, c)
	cmd.Stdout = c.Stdout
	cmd.Stderr = c.Stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", c.Name, err)
	}
	return &execProcess{cmd: cmd, argv: c.Argv()}, nil
}

type execProcess struct {
	cmd  *exec.Cmd
	argv []string
}

func (p *execProcess) Stop() error {
	if err := p.cmd.Process.Signal(syscall.SIGTERM); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("signal %s: %w", p.argv[0], err)
	}
	return nil
}

func (p *execProcess) Wait() error {
	err := p.cmd.Wait()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// Terminated by our own signal.
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
			return nil
		}
		return &ExitError{Argv: p.argv, Code: exitErr.ExitCode()}
	}
	return err
}

// Replace execs name in place of the current process, inheriting the
// terminal. It only returns on failure.
func Replace(name string, args ...string) error {
	path, err := exec.LookPath(name)
	if err != nil {
		return fmt.Errorf("find %s: %w", name, err)
	}
	return syscall.Exec(path, append([]string{name}, args...), os.Environ())
}
