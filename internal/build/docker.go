// Package build drives the containerised toolchain that produces the
// client's artifacts.
package build

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"geniectl/internal/config"
	"geniectl/internal/logging"
	"geniectl/internal/remote"
	"geniectl/internal/shell"
)

// Arches are the supported build architectures.
var Arches = []string{"arm32v7", "amd64", "arm64v8"}

var archPlatforms = map[string]string{
	"arm32v7": "linux/arm/v7",
}

// ValidateArch rejects architectures the builder image does not support.
func ValidateArch(arch string) error {
	if !slices.Contains(Arches, arch) {
		return fmt.Errorf("unsupported arch %q (expected one of %s)", arch, strings.Join(Arches, ", "))
	}
	return nil
}

// Options configure a build.
type Options struct {
	Arch   string
	Static bool
	// ExeOnly copies only the executable out of the container.
	ExeOnly bool
	// Plain passes --progress plain to docker build.
	Plain bool
	// Clean removes the output directory first.
	Clean bool
}

// Docker runs builds through the docker CLI.
type Docker struct {
	Runner shell.Runner
	Config *config.Config
	// Arch is the architecture used by ExtractTool.
	Arch   string
	Logger *log.Logger
	// Stdout and Stderr receive docker's own output.
	Stdout io.Writer
	Stderr io.Writer
}

func (d *Docker) logger() *log.Logger { return logging.OrDiscard(d.Logger) }

func (d *Docker) docker(ctx context.Context, args ...string) (shell.Result, error) {
	return d.Runner.Run(ctx, shell.Command{
		Name:   "docker",
		Args:   args,
		Dir:    d.Config.Paths.Repo,
		Stdout: d.Stdout,
		Stderr: d.Stderr,
	})
}

// rel renders p relative to the repository when it lives inside it.
func (d *Docker) rel(p string) string {
	r, err := filepath.Rel(d.Config.Paths.Repo, p)
	if err != nil || strings.HasPrefix(r, "..") {
		return p
	}
	return r
}

// Build builds the builder image for opts.Arch and runs the packaging script
// in it, leaving artifacts in the output directory.
func (d *Docker) Build(ctx context.Context, opts Options) error {
	if opts.Arch == "" {
		opts.Arch = d.Config.Container.DefaultArch
	}
	if err := ValidateArch(opts.Arch); err != nil {
		return err
	}
	if opts.Clean {
		if err := d.Clean(); err != nil {
			return err
		}
	}

	static := "0"
	if opts.Static {
		static = "1"
	}
	tag := d.Config.Container.Tag(opts.Arch)
	args := []string{
		"build",
		"--build-arg", "ARCH=" + opts.Arch + "/",
		"--build-arg", "STATIC=" + static,
		"--tag", tag,
		"--file", d.rel(d.Config.Paths.Dockerfile),
	}
	if opts.Plain {
		args = append(args, "--progress", "plain")
	}
	args = append(args, ".")

	d.logger().Info("Building image", "tag", tag, "static", opts.Static)
	if _, err := d.docker(ctx, args...); err != nil {
		return fmt.Errorf("docker build: %w", err)
	}

	script := "blob.sh"
	if opts.ExeOnly {
		script = "binonly.sh"
	}
	if err := os.MkdirAll(d.Config.Paths.Out, 0o755); err != nil {
		return err
	}
	d.logger().Info("Packaging", "script", script, "out", d.Config.Paths.Out)
	_, err := d.docker(ctx,
		"run", "--rm",
		"--volume", d.Config.Paths.Out+":"+d.Config.Container.OutMount,
		"--security-opt", "label=disable",
		"--env", "ARCH="+opts.Arch,
		tag,
		d.Config.Container.RepoMount+"/scripts/"+script,
	)
	if err != nil {
		return fmt.Errorf("docker run %s: %w", script, err)
	}
	return nil
}

// Clean removes the output directory. A missing directory is fine.
func (d *Docker) Clean() error {
	out := d.Config.Paths.Out
	if _, err := os.Stat(out); errors.Is(err, os.ErrNotExist) {
		d.logger().Info("Output directory does not exist, skipping", "path", out)
		return nil
	}
	d.logger().Info("Removing output directory", "path", out)
	return os.RemoveAll(out)
}

// ExtractTool copies `which name` out of the builder image into the local
// tools directory unless it is already there, and returns the local path.
func (d *Docker) ExtractTool(ctx context.Context, name string) (string, error) {
	if name == "" || strings.ContainsAny(name, "/ ") {
		return "", fmt.Errorf("invalid tool name %q", name)
	}
	local := filepath.Join(d.Config.Paths.OutTools, name)
	if _, err := os.Stat(local); err == nil {
		return local, nil
	}
	if err := os.MkdirAll(d.Config.Paths.OutTools, 0o755); err != nil {
		return "", err
	}
	arch := d.Arch
	if arch == "" {
		arch = d.Config.Container.DefaultArch
	}

	rel, err := filepath.Rel(d.Config.Paths.Out, d.Config.Paths.OutTools)
	if err != nil {
		return "", err
	}
	inContainer := d.Config.Container.OutMount + "/" + filepath.ToSlash(rel) + "/" + name
	d.logger().Info("Extracting tool from builder image", "name", name, "arch", arch)
	_, err = d.docker(ctx,
		"run", "--rm",
		"--volume", d.Config.Paths.Out+":"+d.Config.Container.OutMount,
		"--security-opt", "label=disable",
		"--env", "ARCH="+arch,
		d.Config.Container.Tag(arch),
		"bash", "-c", fmt.Sprintf(`cp "$(which %s)" %s`, remote.Quote(name), remote.Quote(inContainer)),
	)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", name, err)
	}
	return local, nil
}

// Mount selects what an interactive builder shell sees.
type Mount string

const (
	MountRepo Mount = "repo"
	MountOut  Mount = "out"
)

// ShellArgs returns the docker arguments for an interactive builder shell.
func (d *Docker) ShellArgs(ctx context.Context, arch string, mount Mount) ([]string, error) {
	if err := ValidateArch(arch); err != nil {
		return nil, err
	}
	args := []string{"run", "--rm", "--interactive", "--tty"}
	if platform, ok := archPlatforms[arch]; ok && !d.isPodman(ctx) {
		args = append(args, "--platform", platform)
	}
	args = append(args, "--security-opt", "label=disable")
	switch mount {
	case MountRepo:
		args = append(args, "--volume", d.Config.Paths.Repo+":"+d.Config.Container.RepoMount)
	case MountOut:
		args = append(args, "--volume", d.Config.Paths.Out+":"+d.Config.Container.OutMount)
	default:
		return nil, fmt.Errorf("mount must be %q or %q, got %q", MountRepo, MountOut, mount)
	}
	return append(args, d.Config.Container.Tag(arch)), nil
}

// Shell replaces the process with an interactive builder shell.
func (d *Docker) Shell(ctx context.Context, arch string, mount Mount) error {
	args, err := d.ShellArgs(ctx, arch, mount)
	if err != nil {
		return err
	}
	return shell.Replace("docker", args...)
}

// isPodman reports whether the docker CLI is podman's compatibility shim,
// which rejects --platform for local images.
func (d *Docker) isPodman(ctx context.Context) bool {
	res, err := d.Runner.Run(ctx, shell.Command{Name: "docker", Args: []string{"--version"}})
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(res.Stdout), "podman")
}
