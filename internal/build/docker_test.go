package build

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"geniectl/internal/config"
	"geniectl/internal/shell"
	"geniectl/internal/shell/shelltest"
)

func newDocker(t *testing.T, rec *shelltest.Recorder) *Docker {
	t.Helper()
	return &Docker{Runner: rec, Config: config.Default(t.TempDir())}
}

func TestBuildRunsImageThenScript(t *testing.T) {
	rec := &shelltest.Recorder{}
	d := newDocker(t, rec)

	if err := d.Build(context.Background(), Options{Arch: "amd64", ExeOnly: true, Plain: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := rec.Lines()
	if len(lines) != 2 {
		t.Fatalf("expected build + run, got %v", lines)
	}
	wantBuild := "docker build --build-arg ARCH=amd64/ --build-arg STATIC=0 --tag genie-builder:amd64 --file scripts/Dockerfile --progress plain ."
	if lines[0] != wantBuild {
		t.Fatalf("unexpected build line:\n%s\nwant:\n%s", lines[0], wantBuild)
	}
	wantRun := "docker run --rm --volume " + d.Config.Paths.Out + ":/out --security-opt label=disable --env ARCH=amd64 genie-builder:amd64 /src/scripts/binonly.sh"
	if lines[1] != wantRun {
		t.Fatalf("unexpected run line:\n%s\nwant:\n%s", lines[1], wantRun)
	}
	for _, c := range rec.Calls() {
		if c.Dir != d.Config.Paths.Repo {
			t.Fatalf("expected docker to run in repo, got %q", c.Dir)
		}
	}
}

func TestBuildDefaultsArchAndRejectsUnknown(t *testing.T) {
	rec := &shelltest.Recorder{}
	d := newDocker(t, rec)

	if err := d.Build(context.Background(), Options{Static: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Lines()[0], "ARCH=arm32v7/ --build-arg STATIC=1") {
		t.Fatalf("expected default arch and static flag, got %s", rec.Lines()[0])
	}
	if !strings.HasSuffix(rec.Lines()[1], "/src/scripts/blob.sh") {
		t.Fatalf("expected blob script, got %s", rec.Lines()[1])
	}

	if err := d.Build(context.Background(), Options{Arch: "riscv"}); err == nil {
		t.Fatal("expected unsupported arch error")
	}
}

func TestBuildFailureStopsBeforeRun(t *testing.T) {
	rec := &shelltest.Recorder{Handler: func(cmd shell.Command) (shell.Result, error) {
		return shell.Result{}, shelltest.Exit(cmd, 1, "failed to solve")
	}}
	d := newDocker(t, rec)

	err := d.Build(context.Background(), Options{})
	var exitErr *shell.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected exit error, got %v", err)
	}
	if len(rec.Calls()) != 1 {
		t.Fatalf("expected only the build call, got %v", rec.Lines())
	}
}

func TestCleanRemovesOutput(t *testing.T) {
	d := newDocker(t, &shelltest.Recorder{})
	if err := os.MkdirAll(filepath.Join(d.Config.Paths.Out, "lib"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := d.Clean(); err != nil {
		t.Fatalf("clean: %v", err)
	}
	if _, err := os.Stat(d.Config.Paths.Out); !os.IsNotExist(err) {
		t.Fatalf("expected output removed, got %v", err)
	}
	if err := d.Clean(); err != nil {
		t.Fatalf("second clean: %v", err)
	}
}

func TestExtractToolSkipsExisting(t *testing.T) {
	rec := &shelltest.Recorder{}
	d := newDocker(t, rec)

	path, err := d.ExtractTool(context.Background(), "gdbserver")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != filepath.Join(d.Config.Paths.OutTools, "gdbserver") {
		t.Fatalf("unexpected path %q", path)
	}
	line := rec.Lines()[0]
	if !strings.HasSuffix(line, `bash -c cp "$(which gdbserver)" /out/tools/gdbserver`) {
		t.Fatalf("unexpected extract line %s", line)
	}

	if err := os.WriteFile(path, []byte("bin"), 0o755); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := d.ExtractTool(context.Background(), "gdbserver"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rec.Calls()) != 1 {
		t.Fatalf("expected no second docker call, got %v", rec.Lines())
	}

	if _, err := d.ExtractTool(context.Background(), "../etc/passwd"); err == nil {
		t.Fatal("expected invalid name error")
	}
}

func TestShellArgs(t *testing.T) {
	rec := &shelltest.Recorder{Handler: func(cmd shell.Command) (shell.Result, error) {
		return shell.Result{Stdout: "Docker version 24.0.7, build afdd53b\n"}, nil
	}}
	d := newDocker(t, rec)

	args, err := d.ShellArgs(context.Background(), "arm32v7", MountRepo)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := strings.Join(args, " ")
	want := "run --rm --interactive --tty --platform linux/arm/v7 --security-opt label=disable --volume " + d.Config.Paths.Repo + ":/src genie-builder:arm32v7"
	if got != want {
		t.Fatalf("unexpected args:\n%s\nwant:\n%s", got, want)
	}

	if _, err := d.ShellArgs(context.Background(), "amd64", Mount("home")); err == nil {
		t.Fatal("expected mount error")
	}
}

func TestShellArgsOmitsPlatformUnderPodman(t *testing.T) {
	rec := &shelltest.Recorder{Handler: func(cmd shell.Command) (shell.Result, error) {
		return shell.Result{Stdout: "podman version 4.9.3\n"}, nil
	}}
	d := newDocker(t, rec)

	args, err := d.ShellArgs(context.Background(), "arm32v7", MountOut)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(strings.Join(args, " "), "--platform") {
		t.Fatalf("expected no platform flag, got %v", args)
	}
}
