package app

import (
	"context"

	"geniectl/internal/deploy"
	"geniectl/internal/exitcode"
	"geniectl/internal/proctable"
)

// DeployParams configures a deploy.
type DeployParams struct {
	Target *string
	// Build runs a build with BuildParams first.
	Build       bool
	BuildParams BuildParams
	// Names selects deployables; empty deploys everything.
	Names   []string
	Clean   bool
	Restart bool
}

func (a *App) orchestrator(ctx context.Context, target *string, buildParams BuildParams) (*deploy.Orchestrator, error) {
	t, err := a.transport(ctx, target)
	if err != nil {
		return nil, err
	}
	docker := a.docker(buildParams.Arch)
	builder := deploy.BuildFunc(func(ctx context.Context) error {
		return docker.Build(ctx, buildParams.options())
	})
	return deploy.New(a.cfg, t, builder, docker, a.logger)
}

// Deploy pushes build artifacts to the device.
func (a *App) Deploy(ctx context.Context, params DeployParams) (deploy.Result, error) {
	o, err := a.orchestrator(ctx, params.Target, params.BuildParams)
	if err != nil {
		return deploy.Result{}, err
	}
	return o.Deploy(ctx, deploy.Options{
		Build:   params.Build,
		Names:   params.Names,
		Clean:   params.Clean,
		Restart: params.Restart,
	})
}

// Deployables lists the registry names in deploy order.
func (a *App) Deployables() []string {
	return deploy.DefaultRegistry(a.cfg).Names()
}

// DeployToolsParams configures DeployTools.
type DeployToolsParams struct {
	Target *string
	Names  []string
	// Arch selects the builder image the tools come from.
	Arch string
	Tmp  bool
}

// DeployTools copies tools from the builder image to the device.
func (a *App) DeployTools(ctx context.Context, params DeployToolsParams) ([]string, error) {
	o, err := a.orchestrator(ctx, params.Target, BuildParams{Arch: params.Arch})
	if err != nil {
		return nil, err
	}
	return o.DeployTools(ctx, deploy.ToolsOptions{Names: params.Names, Tmp: params.Tmp})
}

// KillParams configures Kill.
type KillParams struct {
	Target *string
	// Labels restricts the kill to these patterns; empty means all.
	Labels []string
}

// Kill stops the client's processes on the device.
func (a *App) Kill(ctx context.Context, params KillParams) (proctable.Report, error) {
	t, err := a.transport(ctx, params.Target)
	if err != nil {
		return nil, err
	}
	set, err := proctable.CompileSet(a.cfg.KillPatterns)
	if err != nil {
		return nil, err
	}
	if len(params.Labels) > 0 {
		if set, err = set.Select(params.Labels...); err != nil {
			return nil, exitcode.Wrap(exitcode.ErrNotFound, "", err)
		}
	}
	killer := &proctable.Killer{Transport: t, Logger: a.logger}
	return killer.KillAll(ctx, set)
}

// Remove stops the client and deletes its installation.
func (a *App) Remove(ctx context.Context, target *string) (proctable.Report, error) {
	o, err := a.orchestrator(ctx, target, BuildParams{})
	if err != nil {
		return nil, err
	}
	return o.Remove(ctx)
}

// Restart starts the launch script.
func (a *App) Restart(ctx context.Context, target *string) error {
	o, err := a.orchestrator(ctx, target, BuildParams{})
	if err != nil {
		return err
	}
	return o.Start(ctx)
}
