package app

import (
	"context"

	"geniectl/internal/build"
)

// BuildParams configures a build.
type BuildParams struct {
	Arch    string
	Static  bool
	ExeOnly bool
	Plain   bool
	Clean   bool
}

func (p BuildParams) options() build.Options {
	return build.Options{Arch: p.Arch, Static: p.Static, ExeOnly: p.ExeOnly, Plain: p.Plain, Clean: p.Clean}
}

func (a *App) docker(arch string) *build.Docker {
	return &build.Docker{
		Runner: a.runner,
		Config: a.cfg,
		Arch:   arch,
		Logger: a.logger,
		Stdout: a.stdout,
		Stderr: a.stderr,
	}
}

// Build produces the client artifacts in the output directory.
func (a *App) Build(ctx context.Context, params BuildParams) error {
	return a.docker(params.Arch).Build(ctx, params.options())
}

// Clean removes the output directory.
func (a *App) Clean() error {
	return a.docker("").Clean()
}

// BuildShellParams configures an interactive builder shell.
type BuildShellParams struct {
	Arch  string
	Mount build.Mount
}

// BuildShell replaces the process with a shell inside the builder image.
func (a *App) BuildShell(ctx context.Context, params BuildShellParams) error {
	if params.Arch == "" {
		params.Arch = a.cfg.Container.DefaultArch
	}
	if params.Mount == "" {
		params.Mount = build.MountRepo
	}
	args, err := a.docker(params.Arch).ShellArgs(ctx, params.Arch, params.Mount)
	if err != nil {
		return err
	}
	return replaceProcess("docker", args...)
}
