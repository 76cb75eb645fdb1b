package main

import (
	"context"
	"os"

	"geniectl/internal/app"
	"geniectl/internal/deploy"
	"geniectl/internal/devconf"
	"geniectl/internal/proctable"
	"geniectl/internal/profile"
)

// controllerAPI is the part of app.App the commands use.
type controllerAPI interface {
	Build(ctx context.Context, params app.BuildParams) error
	BuildShell(ctx context.Context, params app.BuildShellParams) error
	Clean() error

	Deploy(ctx context.Context, params app.DeployParams) (deploy.Result, error)
	Deployables() []string
	DeployTools(ctx context.Context, params app.DeployToolsParams) ([]string, error)
	Kill(ctx context.Context, params app.KillParams) (proctable.Report, error)
	Remove(ctx context.Context, target *string) (proctable.Report, error)
	Restart(ctx context.Context, target *string) error

	ConfigureApply(ctx context.Context, params app.ConfigureApplyParams) error
	ConfigureShow(name string) (*devconf.INI, error)

	ContextList(ctx context.Context) ([]app.ContextSummary, error)
	ContextCurrent(ctx context.Context, params app.ContextCurrentParams) (app.ContextCurrentResult, error)
	ContextGet(ctx context.Context, name string) (profile.Context, error)
	ContextSet(ctx context.Context, params app.ContextSetParams) error
	ContextUnset(ctx context.Context, name, field string) error

	WifiGet(ctx context.Context, target *string) (devconf.WifiStatus, error)
	WifiSet(ctx context.Context, params app.WifiSetParams) error
	DNSSet(ctx context.Context, params app.DNSSetParams) error

	SSH(ctx context.Context, params app.SSHParams) error
	Exec(ctx context.Context, params app.ExecParams) error
	Tail(ctx context.Context, target *string) error
	Processes(ctx context.Context, target *string) ([]proctable.Entry, error)
	KillPID(ctx context.Context, target *string, pid int) error

	StreamsFetch(ctx context.Context, target *string) (string, error)
	StreamsPlay(ctx context.Context, file string) error
	StreamsRecord(ctx context.Context, target *string, stop <-chan struct{}) (string, error)
}

var controllerFactory = func() controllerAPI {
	return app.New(app.Options{
		Config: cfg,
		Logger: logger,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	})
}

func controller() controllerAPI {
	return controllerFactory()
}

// targetArg returns the optional TARGET positional argument.
func targetArg(args []string) *string {
	if len(args) == 0 || args[0] == "" {
		return nil
	}
	return &args[0]
}

var _ controllerAPI = (*app.App)(nil)
