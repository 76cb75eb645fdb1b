package deploy

import (
	"context"
	"fmt"
	"path"

	"github.com/charmbracelet/log"

	"geniectl/internal/config"
	"geniectl/internal/logging"
	"geniectl/internal/proctable"
	"geniectl/internal/remote"
)

// Builder produces the artifacts before a deploy.
type Builder interface {
	Build(ctx context.Context) error
}

// BuildFunc adapts a function to Builder.
type BuildFunc func(ctx context.Context) error

func (f BuildFunc) Build(ctx context.Context) error { return f(ctx) }

// ToolSource makes a tool binary available locally and returns its path.
type ToolSource interface {
	ExtractTool(ctx context.Context, name string) (string, error)
}

// Orchestrator runs deploys against one device.
type Orchestrator struct {
	Transport remote.Transport
	Registry  *Registry
	// Patterns is the full stop, in kill order.
	Patterns proctable.PatternSet
	Builder  Builder
	Tools    ToolSource

	InstallDir string
	// Launch is the device-side launch script started on restart.
	Launch   string
	ToolsBin string
	TmpBin   string

	Logger *log.Logger
}

// New wires an Orchestrator for cfg's device layout and kill patterns.
func New(cfg *config.Config, t remote.Transport, builder Builder, tools ToolSource, logger *log.Logger) (*Orchestrator, error) {
	patterns, err := proctable.CompileSet(cfg.KillPatterns)
	if err != nil {
		return nil, err
	}
	return &Orchestrator{
		Transport:  t,
		Registry:   DefaultRegistry(cfg),
		Patterns:   patterns,
		Builder:    builder,
		Tools:      tools,
		InstallDir: cfg.Device.Install,
		Launch:     cfg.Device.Launch,
		ToolsBin:   cfg.Device.ToolsBin,
		TmpBin:     cfg.Device.TmpBin,
		Logger:     logger,
	}, nil
}

// Options selects what a deploy does.
type Options struct {
	// Build runs the Builder first.
	Build bool
	// Names selects deployables; empty means all.
	Names []string
	// Clean removes the whole install directory before pushing.
	Clean bool
	// Restart starts the launch script once everything is pushed.
	Restart bool
}

// Result summarises a finished deploy.
type Result struct {
	Built     bool
	Stopped   proctable.Report
	Cleaned   bool
	Pushed    []string
	Restarted bool
}

// Deploy validates the selection, builds (optionally), stops what the
// selection requires, pushes the selected deployables in order and restarts
// (optionally). Each step runs only if the previous one succeeded.
func (o *Orchestrator) Deploy(ctx context.Context, opts Options) (Result, error) {
	logger := logging.OrDiscard(o.Logger)
	var res Result

	selected, err := o.Registry.Select(opts.Names)
	if err != nil {
		return res, err
	}

	if opts.Build {
		if o.Builder == nil {
			return res, &BuildError{Err: fmt.Errorf("no builder configured")}
		}
		logger.Info("Building")
		if err := o.Builder.Build(ctx); err != nil {
			return res, &BuildError{Err: err}
		}
		res.Built = true
	}

	if stop := o.stopSet(opts.Names, selected); len(stop) > 0 {
		logger.Info("Stopping client", "patterns", stop.Labels())
		killer := &proctable.Killer{Transport: o.Transport, Logger: o.Logger}
		res.Stopped, err = killer.KillAll(ctx, stop)
		if err != nil {
			return res, fmt.Errorf("stop client: %w", err)
		}
	}

	if opts.Clean {
		logger.Warn("Removing install directory", "path", o.InstallDir)
		if err := o.Transport.Remove(ctx, o.InstallDir); err != nil {
			return res, err
		}
		res.Cleaned = true
	}
	if len(opts.Names) == 0 || opts.Clean {
		if err := o.Transport.Run(ctx, remote.RunOptions{}, "mkdir", "-p", o.InstallDir); err != nil {
			return res, err
		}
	}

	for _, d := range selected {
		logger.Info("Deploying", "name", d.Name, "dest", d.Destination)
		if err := o.Transport.Push(ctx, d.Source, d.Destination); err != nil {
			return res, &PushError{Name: d.Name, Err: err}
		}
		res.Pushed = append(res.Pushed, d.Name)
	}

	if opts.Restart {
		if err := o.Start(ctx); err != nil {
			return res, err
		}
		res.Restarted = true
	}
	return res, nil
}

// stopSet is the full pattern set for a full deploy or when any selected
// deployable needs it, otherwise the union of the selection's labels.
func (o *Orchestrator) stopSet(names []string, selected []Deployable) proctable.PatternSet {
	if len(names) == 0 {
		return o.Patterns
	}
	want := make(map[string]bool)
	for _, d := range selected {
		if d.NeedsFullStop() {
			return o.Patterns
		}
		for _, l := range d.Stops {
			want[l] = true
		}
	}
	// Labels missing from a customised pattern set have nothing to stop.
	var set proctable.PatternSet
	for _, p := range o.Patterns {
		if want[p.Label] {
			set = append(set, p)
		}
	}
	return set
}

// Start launches the client detached from the transport session.
func (o *Orchestrator) Start(ctx context.Context) error {
	logging.OrDiscard(o.Logger).Info("Starting client", "launch", o.Launch)
	line := "nohup " + remote.Quote(o.Launch) + " >/dev/null 2>&1 &"
	return o.Transport.Run(ctx, remote.RunOptions{}, "sh", "-c", line)
}

// Stop runs the full stop.
func (o *Orchestrator) Stop(ctx context.Context) (proctable.Report, error) {
	killer := &proctable.Killer{Transport: o.Transport, Logger: o.Logger}
	return killer.KillAll(ctx, o.Patterns)
}

// Remove stops the client and deletes the install directory.
func (o *Orchestrator) Remove(ctx context.Context) (proctable.Report, error) {
	report, err := o.Stop(ctx)
	if err != nil {
		return report, err
	}
	logging.OrDiscard(o.Logger).Info("Removing client installation", "path", o.InstallDir)
	return report, o.Transport.Remove(ctx, o.InstallDir)
}

// ToolsOptions selects tools for DeployTools.
type ToolsOptions struct {
	Names []string
	// Tmp installs into the temporary bin dir, which does not survive a
	// reboot.
	Tmp bool
}

// DeployTools pushes tool binaries from the builder image to the device.
// It returns the device paths written.
func (o *Orchestrator) DeployTools(ctx context.Context, opts ToolsOptions) ([]string, error) {
	if o.Tools == nil {
		return nil, fmt.Errorf("no tool source configured")
	}
	dir := o.ToolsBin
	if opts.Tmp {
		dir = o.TmpBin
	}
	var written []string
	for _, name := range opts.Names {
		local, err := o.Tools.ExtractTool(ctx, name)
		if err != nil {
			return written, fmt.Errorf("extract %s: %w", name, err)
		}
		dest := path.Join(dir, name)
		if err := o.Transport.Run(ctx, remote.RunOptions{}, "mkdir", "-p", dir); err != nil {
			return written, err
		}
		if err := o.Transport.Push(ctx, local, dest); err != nil {
			return written, &PushError{Name: name, Err: err}
		}
		written = append(written, dest)
	}
	return written, nil
}
