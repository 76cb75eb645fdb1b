// Package shelltest provides a recording shell.Runner for tests.
package shelltest

import (
	"context"
	"io"
	"strings"
	"sync"

	"geniectl/internal/shell"
)

// Recorder is a shell.Runner that records every command and answers with
// Handler. A nil Handler makes every command succeed with empty output.
type Recorder struct {
	Handler func(cmd shell.Command) (shell.Result, error)

	mu      sync.Mutex
	calls   []shell.Command
	started []*Process
}

// Run implements shell.Runner.
func (r *Recorder) Run(ctx context.Context, cmd shell.Command) (shell.Result, error) {
	r.mu.Lock()
	r.calls = append(r.calls, cmd)
	handler := r.Handler
	r.mu.Unlock()

	if handler == nil {
		return shell.Result{}, nil
	}
	res, err := handler(cmd)
	if cmd.Stdout != nil && res.Stdout != "" {
		_, _ = io.WriteString(cmd.Stdout, res.Stdout)
		res.Stdout = ""
	}
	if cmd.Stderr != nil && res.Stderr != "" {
		_, _ = io.WriteString(cmd.Stderr, res.Stderr)
	}
	return res, err
}

// Start implements shell.Runner. The returned Process records Stop calls.
func (r *Recorder) Start(ctx context.Context, cmd shell.Command) (shell.Process, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, cmd)
	p := &Process{Cmd: cmd}
	r.started = append(r.started, p)
	return p, nil
}

// Calls returns a copy of every recorded command.
func (r *Recorder) Calls() []shell.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]shell.Command(nil), r.calls...)
}

// Lines renders every recorded command as a single space-joined line.
func (r *Recorder) Lines() []string {
	calls := r.Calls()
	out := make([]string, 0, len(calls))
	for _, c := range calls {
		out = append(out, strings.Join(c.Argv(), " "))
	}
	return out
}

// Started returns the processes handed out by Start.
func (r *Recorder) Started() []*Process {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Process(nil), r.started...)
}

// Process is the fake handle returned by Recorder.Start.
type Process struct {
	Cmd     shell.Command
	Stopped bool
	Waited  bool
}

func (p *Process) Stop() error {
	p.Stopped = true
	return nil
}

func (p *Process) Wait() error {
	p.Waited = true
	return nil
}

// Exit builds the error a runner returns for a non-zero exit status.
func Exit(cmd shell.Command, code int, stderr string) error {
	return &shell.ExitError{Argv: cmd.Argv(), Code: code, Stderr: stderr}
}
