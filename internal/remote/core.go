package remote

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"geniectl/internal/logging"
	"geniectl/internal/shell"
)

// protocol is what differs between the variants: how a remote command line
// and a copy are turned into local tool invocations.
type protocol interface {
	kind() Kind
	target() string
	exec(dir string, args []string) (shell.Command, error)
	upload(local, remote string, recursive bool) shell.Command
	download(remote, local string, recursive bool) shell.Command
}

// core implements the Transport capability set on top of a protocol. Both
// variants embed it.
type core struct {
	proto  protocol
	runner shell.Runner
	logger *log.Logger
}

func newCore(p protocol, opts Options) *core {
	runner := opts.Runner
	if runner == nil {
		runner = shell.NewExec(opts.Logger)
	}
	return &core{proto: p, runner: runner, logger: logging.OrDiscard(opts.Logger)}
}

func (c *core) sealed() {}

func (c *core) Kind() Kind { return c.proto.kind() }

func (c *core) Target() string { return c.proto.target() }

func (c *core) run(ctx context.Context, dir string, args []string, stdout, stderr io.Writer) (shell.Result, error) {
	if len(args) == 0 {
		return shell.Result{}, fmt.Errorf("%s: empty remote command", c.Kind())
	}
	cmd, err := c.proto.exec(dir, args)
	if err != nil {
		return shell.Result{}, err
	}
	cmd.Stdout, cmd.Stderr = stdout, stderr
	res, err := c.runner.Run(ctx, cmd)
	return res, wrapExit(c.Target(), args, err)
}

func (c *core) Get(ctx context.Context, args ...string) (string, error) {
	res, err := c.run(ctx, "", args, nil, nil)
	if err != nil {
		return "", err
	}
	return res.Stdout, nil
}

func (c *core) Run(ctx context.Context, opts RunOptions, args ...string) error {
	_, err := c.run(ctx, opts.Dir, args, nil, nil)
	if code, ok := exitCode(err); ok && slices.Contains(opts.AllowExitCodes, code) {
		c.logger.Debug("Tolerated exit code", "cmd", strings.Join(args, " "), "code", code)
		return nil
	}
	return err
}

func (c *core) Stream(ctx context.Context, stdout, stderr io.Writer, args ...string) error {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	_, err := c.run(ctx, "", args, stdout, stderr)
	if err != nil && ctx.Err() != nil {
		// Interrupted by the caller, not a failure of the command.
		return nil
	}
	return err
}

func (c *core) Spawn(ctx context.Context, args ...string) (shell.Process, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%s: empty remote command", c.Kind())
	}
	cmd, err := c.proto.exec("", args)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("Spawning remote command", "target", c.Target(), "cmd", strings.Join(args, " "))
	return c.runner.Start(ctx, cmd)
}

func (c *core) Read(ctx context.Context, p string) (string, error) {
	return c.Get(ctx, "cat", p)
}

// Write stages content in a local temporary file and pushes it to dest.
func (c *core) Write(ctx context.Context, dest, content string) error {
	tmp, err := os.CreateTemp("", "geniectl-*")
	if err != nil {
		return fmt.Errorf("stage %s: %w", dest, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.WriteString(content); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("stage %s: %w", dest, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("stage %s: %w", dest, err)
	}

	if err := c.copy(ctx, c.proto.upload(tmp.Name(), dest, false), tmp.Name(), dest); err != nil {
		return err
	}
	c.logger.Info("Wrote remote file", "target", c.Target(), "path", dest, "bytes", len(content))
	return nil
}

// WriteLines writes lines joined with "\n" plus a trailing newline.
func (c *core) WriteLines(ctx context.Context, dest string, lines ...string) error {
	content := strings.Join(lines, "\n")
	if len(lines) > 0 {
		content += "\n"
	}
	return c.Write(ctx, dest, content)
}

// Push copies src to dest. A directory replaces whatever tree already sits at
// dest: the parent is created when missing and an existing destination
// directory is removed before the copy.
func (c *core) Push(ctx context.Context, src, dest string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("push %s: %w", src, err)
	}

	if info.IsDir() {
		parent := path.Dir(dest)
		exists, err := c.IsDir(ctx, parent)
		if err != nil {
			return err
		}
		if !exists {
			if err := c.Run(ctx, RunOptions{}, "mkdir", "-p", parent); err != nil {
				return err
			}
		}
		exists, err = c.IsDir(ctx, dest)
		if err != nil {
			return err
		}
		if exists {
			c.logger.Debug("Replacing remote directory", "target", c.Target(), "path", dest)
			if err := c.Remove(ctx, dest); err != nil {
				return err
			}
		}
	}

	if err := c.copy(ctx, c.proto.upload(src, dest, info.IsDir()), src, dest); err != nil {
		return err
	}
	c.logger.Info("Pushed", "src", src, "dest", c.Target()+":"+dest)
	return nil
}

// Pull copies src from the device to the local dest, creating dest's parent
// directories first.
func (c *core) Pull(ctx context.Context, src, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("pull %s: %w", src, err)
	}
	recursive, err := c.IsDir(ctx, src)
	if err != nil {
		return err
	}
	if err := c.copy(ctx, c.proto.download(src, dest, recursive), src, dest); err != nil {
		return err
	}
	c.logger.Info("Pulled", "src", c.Target()+":"+src, "dest", dest)
	return nil
}

func (c *core) Remove(ctx context.Context, p string) error {
	return c.Run(ctx, RunOptions{}, "rm", "-rf", p)
}

func (c *core) IsDir(ctx context.Context, p string) (bool, error) {
	return c.test(ctx, "-d", p)
}

func (c *core) IsFile(ctx context.Context, p string) (bool, error) {
	return c.test(ctx, "-f", p)
}

// test maps `test` exit statuses: 0 is true, 1 is false, anything else is
// a failure of the probe itself.
func (c *core) test(ctx context.Context, flag, p string) (bool, error) {
	_, err := c.run(ctx, "", []string{"test", flag, p}, nil, nil)
	if err == nil {
		return true, nil
	}
	if code, ok := exitCode(err); ok && code == 1 {
		return false, nil
	}
	return false, err
}

func (c *core) copy(ctx context.Context, cmd shell.Command, src, dest string) error {
	if _, err := c.runner.Run(ctx, cmd); err != nil {
		return wrapExit(c.Target(), cmd.Argv(), fmt.Errorf("copy %s to %s: %w", src, dest, err))
	}
	return nil
}
