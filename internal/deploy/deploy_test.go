package deploy

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geniectl/internal/config"
	"geniectl/internal/proctable"
	"geniectl/internal/remote"
	"geniectl/internal/shell"
	"geniectl/internal/shell/shelltest"
)

// device answers like an idle device: ps lists only the given processes and
// every probed path is missing.
func device(procs ...string) func(cmd shell.Command) (shell.Result, error) {
	return func(cmd shell.Command) (shell.Result, error) {
		if cmd.Name != "adb" || cmd.Args[0] != "shell" {
			return shell.Result{}, nil
		}
		line := cmd.Args[1]
		switch {
		case line == "ps":
			return shell.Result{Stdout: "PID USER VSZ STAT COMMAND\n" + strings.Join(procs, "\n") + "\n"}, nil
		case strings.HasPrefix(line, "test "):
			return shell.Result{}, shelltest.Exit(cmd, 1, "")
		}
		return shell.Result{}, nil
	}
}

func localFile(t *testing.T, name string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(name), 0o644))
	return p
}

func patterns(t *testing.T) proctable.PatternSet {
	t.Helper()
	set, err := proctable.CompileSet(config.Default("/repo").KillPatterns)
	require.NoError(t, err)
	return set
}

func newOrchestrator(t *testing.T, rec *shelltest.Recorder, items ...Deployable) *Orchestrator {
	t.Helper()
	reg, err := NewRegistry(items...)
	require.NoError(t, err)
	return &Orchestrator{
		Transport:  remote.NewBridge(remote.Options{Runner: rec}),
		Registry:   reg,
		Patterns:   patterns(t),
		InstallDir: "/opt/genie",
		Launch:     "/opt/duer/dcslaunch.sh",
		ToolsBin:   "/data/tools/bin",
		TmpBin:     "/tmp/bin",
	}
}

func pushes(rec *shelltest.Recorder) []string {
	var out []string
	for _, line := range rec.Lines() {
		if strings.HasPrefix(line, "adb push ") {
			out = append(out, line)
		}
	}
	return out
}

func TestSelectiveDeployPushesOnlySelection(t *testing.T) {
	exe := localFile(t, "bin")
	assets := localFile(t, "assets")
	rec := &shelltest.Recorder{Handler: device()}
	o := newOrchestrator(t, rec,
		Deployable{Name: "exe", Source: exe, Destination: "/opt/genie/bin", Stops: []string{"launcher", "genie"}},
		Deployable{Name: "assets", Source: assets, Destination: "/opt/genie/assets", Stops: []string{}},
	)

	res, err := o.Deploy(context.Background(), Options{Names: []string{"exe"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"exe"}, res.Pushed)
	assert.Equal(t, []string{"adb push " + exe + " /opt/genie/bin"}, pushes(rec))
	require.Len(t, res.Stopped, 2)
	assert.Equal(t, "launcher", res.Stopped[0].Label)
	assert.Equal(t, "genie", res.Stopped[1].Label)
}

func TestUnknownDeployableFailsBeforeAnyCall(t *testing.T) {
	rec := &shelltest.Recorder{Handler: device()}
	built := false
	o := newOrchestrator(t, rec,
		Deployable{Name: "exe", Source: localFile(t, "bin"), Destination: "/opt/genie/bin"},
	)
	o.Builder = BuildFunc(func(context.Context) error {
		built = true
		return nil
	})

	_, err := o.Deploy(context.Background(), Options{Build: true, Names: []string{"exe", "missing"}})

	var unknown *UnknownDeployableError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "missing", unknown.Name)
	assert.False(t, built)
	assert.Empty(t, rec.Calls())
}

func TestFullDeployStopsEverythingThenPushesInOrder(t *testing.T) {
	rec := &shelltest.Recorder{Handler: device("  11 root 900 S /opt/genie/genie")}
	lib := localFile(t, "lib")
	cfg := localFile(t, "config.ini")
	o := newOrchestrator(t, rec,
		Deployable{Name: "lib", Source: lib, Destination: "/opt/genie/lib"},
		Deployable{Name: "config", Source: cfg, Destination: "/opt/genie/config.ini", Stops: []string{}},
	)

	res, err := o.Deploy(context.Background(), Options{Restart: true})
	require.NoError(t, err)

	assert.Len(t, res.Stopped, 4)
	assert.Equal(t, 1, res.Stopped.Total())
	assert.Equal(t, []string{"lib", "config"}, res.Pushed)
	assert.True(t, res.Restarted)

	lines := rec.Lines()
	assert.Contains(t, lines, "adb shell kill -9 11")
	mkdir := indexOf(lines, "adb shell mkdir -p /opt/genie")
	firstPush := indexOf(lines, "adb push "+lib+" /opt/genie/lib")
	require.NotEqual(t, -1, mkdir)
	require.NotEqual(t, -1, firstPush)
	assert.Less(t, indexOf(lines, "adb shell kill -9 11"), mkdir)
	assert.Less(t, mkdir, firstPush)
	assert.Equal(t, "adb shell sh -c 'nohup /opt/duer/dcslaunch.sh >/dev/null 2>&1 &'", lines[len(lines)-1])
}

func TestCleanDeployRemovesInstallDir(t *testing.T) {
	rec := &shelltest.Recorder{Handler: device()}
	o := newOrchestrator(t, rec,
		Deployable{Name: "lib", Source: localFile(t, "lib"), Destination: "/opt/genie/lib"},
	)

	res, err := o.Deploy(context.Background(), Options{Clean: true})
	require.NoError(t, err)
	assert.True(t, res.Cleaned)

	lines := rec.Lines()
	rm := indexOf(lines, "adb shell rm -rf /opt/genie")
	mkdir := indexOf(lines, "adb shell mkdir -p /opt/genie")
	require.NotEqual(t, -1, rm)
	assert.Less(t, rm, mkdir)
}

func TestSelectiveDeployNeverRemovesInstallDir(t *testing.T) {
	rec := &shelltest.Recorder{Handler: device()}
	o := newOrchestrator(t, rec,
		Deployable{Name: "config", Source: localFile(t, "config.ini"), Destination: "/opt/genie/config.ini", Stops: []string{}},
	)

	res, err := o.Deploy(context.Background(), Options{Names: []string{"config"}})
	require.NoError(t, err)
	assert.Empty(t, res.Stopped)
	assert.Equal(t, -1, indexOf(rec.Lines(), "adb shell rm -rf /opt/genie"))
	assert.Equal(t, -1, indexOf(rec.Lines(), "adb shell ps"))
}

func TestBuildFailureAbortsBeforeDevice(t *testing.T) {
	rec := &shelltest.Recorder{Handler: device()}
	o := newOrchestrator(t, rec,
		Deployable{Name: "exe", Source: localFile(t, "bin"), Destination: "/opt/genie/genie"},
	)
	boom := errors.New("docker build failed")
	o.Builder = BuildFunc(func(context.Context) error { return boom })

	_, err := o.Deploy(context.Background(), Options{Build: true})

	var buildErr *BuildError
	require.ErrorAs(t, err, &buildErr)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, rec.Calls())
}

func TestPushFailureNamesDeployableAndStops(t *testing.T) {
	lib := localFile(t, "lib")
	rec := &shelltest.Recorder{Handler: func(cmd shell.Command) (shell.Result, error) {
		if cmd.Args[0] == "push" && cmd.Args[1] == lib {
			return shell.Result{}, shelltest.Exit(cmd, 1, "adb: error: failed to copy")
		}
		return device()(cmd)
	}}
	o := newOrchestrator(t, rec,
		Deployable{Name: "lib", Source: lib, Destination: "/opt/genie/lib"},
		Deployable{Name: "exe", Source: localFile(t, "bin"), Destination: "/opt/genie/genie"},
	)

	res, err := o.Deploy(context.Background(), Options{})

	var pushErr *PushError
	require.ErrorAs(t, err, &pushErr)
	assert.Equal(t, "lib", pushErr.Name)
	var remoteErr *remote.RemoteCommandError
	assert.ErrorAs(t, err, &remoteErr)
	assert.Empty(t, res.Pushed)
	assert.Len(t, pushes(rec), 1)
}

func TestRemoveStopsThenDeletes(t *testing.T) {
	rec := &shelltest.Recorder{Handler: device("  11 root 900 S /opt/genie/genie")}
	o := newOrchestrator(t, rec)

	report, err := o.Remove(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Total())
	lines := rec.Lines()
	assert.Equal(t, "adb shell rm -rf /opt/genie", lines[len(lines)-1])
}

type fakeTools map[string]string

func (f fakeTools) ExtractTool(_ context.Context, name string) (string, error) {
	p, ok := f[name]
	if !ok {
		return "", errors.New("no such tool")
	}
	return p, nil
}

func TestDeployTools(t *testing.T) {
	gdb := localFile(t, "gdbserver")
	rec := &shelltest.Recorder{Handler: device()}
	o := newOrchestrator(t, rec)
	o.Tools = fakeTools{"gdbserver": gdb}

	written, err := o.DeployTools(context.Background(), ToolsOptions{Names: []string{"gdbserver"}, Tmp: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"/tmp/bin/gdbserver"}, written)
	assert.Equal(t, []string{"adb push " + gdb + " /tmp/bin/gdbserver"}, pushes(rec))

	_, err = o.DeployTools(context.Background(), ToolsOptions{Names: []string{"strace"}})
	assert.Error(t, err)
}

func TestDefaultRegistry(t *testing.T) {
	reg := DefaultRegistry(config.Default("/repo"))
	assert.Equal(t, []string{"lib", "assets", "launch", "asoundrc", "config", "exe"}, reg.Names())

	exe, ok := reg.Lookup("exe")
	require.True(t, ok)
	assert.Equal(t, []string{"launcher", "genie"}, exe.Stops)
	assert.Equal(t, "/opt/genie/genie", exe.Destination)

	lib, _ := reg.Lookup("lib")
	assert.True(t, lib.NeedsFullStop())

	sel, err := reg.Select([]string{"exe", "lib"})
	require.NoError(t, err)
	assert.Equal(t, "lib", sel[0].Name)
	assert.Equal(t, "exe", sel[1].Name)
}

func TestNewRegistryRejectsDuplicates(t *testing.T) {
	_, err := NewRegistry(Deployable{Name: "a"}, Deployable{Name: "a"})
	assert.Error(t, err)
}

func indexOf(lines []string, want string) int {
	for i, l := range lines {
		if l == want {
			return i
		}
	}
	return -1
}
