package app

import (
	"context"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"geniectl/internal/config"
	"geniectl/internal/exitcode"
	"geniectl/internal/logging"
	"geniectl/internal/profile"
	"geniectl/internal/remote"
	"geniectl/internal/shell"
	"geniectl/internal/sshexec"
)

// Options configures the top-level controller.
type Options struct {
	Config *config.Config
	// Runner executes every local tool. Nil means real processes.
	Runner shell.Runner
	Logger *log.Logger
	// Stdout and Stderr receive the output of streamed and interactive
	// commands (tail, builds, exec).
	Stdout io.Writer
	Stderr io.Writer
}

// App exposes high-level operations that the CLI/TUI can reuse.
type App struct {
	cfg    *config.Config
	runner shell.Runner
	logger *log.Logger
	stdout io.Writer
	stderr io.Writer
	store  *profile.Store
}

var (
	replaceProcess = shell.Replace
	runSSHExec     = sshexec.Run
)

func resetProcessDeps() {
	replaceProcess = shell.Replace
	runSSHExec = sshexec.Run
}

// New constructs the shared controller facade.
func New(opts Options) *App {
	logger := logging.OrDiscard(opts.Logger)
	runner := opts.Runner
	if runner == nil {
		runner = shell.NewExec(logger)
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default(".")
	}
	stdout, stderr := opts.Stdout, opts.Stderr
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	a := &App{cfg: cfg, runner: runner, logger: logger, stdout: stdout, stderr: stderr}
	a.store = profile.NewStore(a.contextBackend())
	return a
}

// Config returns the configuration the controller was built with.
func (a *App) Config() *config.Config {
	return a.cfg
}

// Contexts exposes the context store.
func (a *App) Contexts() *profile.Store {
	return a.store
}

func (a *App) contextBackend() profile.KV {
	if a.cfg.Contexts.Backend == config.ContextsFile {
		return &profile.FileKV{Path: a.cfg.Contexts.File}
	}
	return &profile.GitConfig{Runner: a.runner, Dir: a.cfg.Paths.Repo}
}

// fill back-fills params from the current context.
func (a *App) fill(ctx context.Context, params *profile.Params) error {
	current, err := a.store.LoadCurrent(ctx)
	if err != nil {
		return err
	}
	if current != nil {
		a.logger.Debug("Using current context", "name", current.Name)
	}
	params.Fill(current)
	return nil
}

// transport resolves target (falling back to the current context) to a
// Transport.
func (a *App) transport(ctx context.Context, target *string) (remote.Transport, error) {
	params := profile.Params{Target: target}
	if err := a.fill(ctx, &params); err != nil {
		return nil, err
	}
	return a.transportFor(params.TargetValue())
}

func (a *App) transportFor(target string) (remote.Transport, error) {
	if strings.TrimSpace(target) == "" {
		return nil, exitcode.Usage("no target given: pass one or set it in the current context (geniectl context set NAME --target ...)")
	}
	return remote.Create(target, a.transportOptions())
}

func (a *App) transportOptions() remote.Options {
	return remote.Options{
		Runner:         a.runner,
		Logger:         a.logger,
		ConnectTimeout: a.cfg.SSH.ConnectTimeout,
	}
}

// withRootUser prefixes a bare host with the ssh user. adb and targets that
// already name a user pass through.
func (a *App) withRootUser(target string) string {
	if target == remote.BridgeTarget || strings.Contains(target, "@") {
		return target
	}
	return a.cfg.SSH.User + "@" + target
}
