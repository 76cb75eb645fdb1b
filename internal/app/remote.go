package app

import (
	"context"
	"fmt"

	"geniectl/internal/exitcode"
	"geniectl/internal/proctable"
	"geniectl/internal/remote"
	"geniectl/internal/sshexec"
)

// SSHParams configures SSH.
type SSHParams struct {
	Target *string
	// Ports are reverse forwards, "PORT" or "DEVICE:LOCAL".
	Ports []string
}

// SSH replaces the process with an interactive shell on the device.
func (a *App) SSH(ctx context.Context, params SSHParams) error {
	forwards := make([]remote.PortForward, 0, len(params.Ports))
	for _, p := range params.Ports {
		f, err := remote.ParsePortForward(p)
		if err != nil {
			return exitcode.Wrap(exitcode.ErrUsage, "", err)
		}
		forwards = append(forwards, f)
	}
	if len(forwards) == 0 {
		forwards = append(forwards, remote.PortForward{Remote: remote.DefaultForwardPort, Local: remote.DefaultForwardPort})
	}

	t, err := a.transport(ctx, params.Target)
	if err != nil {
		return err
	}
	session, ok := t.(*remote.SessionTransport)
	if !ok {
		return &remote.UnsupportedOperationError{Kind: t.Kind(), Op: "interactive shells with port forwarding"}
	}
	a.logger.Info("Opening shell", "target", session.Address, "forwards", params.Ports)
	return replaceProcess("ssh", session.ShellArgs(forwards)...)
}

// ExecParams configures Exec.
type ExecParams struct {
	Host     string
	Command  []string
	User     string
	Port     int
	Password string
}

// Exec runs a command over the built-in SSH client, prefixing output lines.
func (a *App) Exec(ctx context.Context, params ExecParams) error {
	if params.Host == "" {
		return exitcode.Usage("exec needs a host")
	}
	if len(params.Command) == 0 {
		return exitcode.Usage("exec needs a command")
	}
	user := params.User
	if user == "" {
		user = a.cfg.SSH.User
	}
	port := params.Port
	if port == 0 {
		port = a.cfg.SSH.Port
	}
	return runSSHExec(ctx, sshexec.Options{
		Host:     params.Host,
		Port:     port,
		User:     user,
		Password: params.Password,
		Timeout:  a.cfg.SSH.ConnectTimeout,
		Stdout:   a.stdout,
		Stderr:   a.stderr,
		Logger:   a.logger,
	}, params.Command...)
}

// Tail follows the client's log until ctx is cancelled.
func (a *App) Tail(ctx context.Context, target *string) error {
	t, err := a.transport(ctx, target)
	if err != nil {
		return err
	}
	return t.Stream(ctx, a.stdout, a.stderr, "/usr/bin/tail", "-f", a.cfg.Device.Log)
}

// Processes lists the device's process table.
func (a *App) Processes(ctx context.Context, target *string) ([]proctable.Entry, error) {
	t, err := a.transport(ctx, target)
	if err != nil {
		return nil, err
	}
	return proctable.List(ctx, t)
}

// KillPID kills one process on the device.
func (a *App) KillPID(ctx context.Context, target *string, pid int) error {
	if pid <= 0 {
		return exitcode.Usage("invalid pid %d", pid)
	}
	t, err := a.transport(ctx, target)
	if err != nil {
		return err
	}
	a.logger.Info("Killing process", "pid", pid)
	return t.Run(ctx, remote.RunOptions{}, "kill", "-9", fmt.Sprint(pid))
}
