package remote

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geniectl/internal/shell"
	"geniectl/internal/shell/shelltest"
)

// remoteLine returns the remote command line of an ssh or adb shell call.
func remoteLine(cmd shell.Command) string {
	if len(cmd.Args) == 0 {
		return ""
	}
	return cmd.Args[len(cmd.Args)-1]
}

func TestCreateSelectsVariant(t *testing.T) {
	tr, err := Create("adb", Options{Runner: &shelltest.Recorder{}})
	require.NoError(t, err)
	assert.Equal(t, KindBridge, tr.Kind())
	assert.Equal(t, "adb", tr.Target())

	tr, err = Create("root@10.0.0.7", Options{Runner: &shelltest.Recorder{}})
	require.NoError(t, err)
	assert.Equal(t, KindSession, tr.Kind())
	assert.Equal(t, "root@10.0.0.7", tr.Target())

	_, err = Create("", Options{})
	assert.Error(t, err)
}

func TestResolveIsIdempotent(t *testing.T) {
	opts := Options{Runner: &shelltest.Recorder{}}
	first, err := Resolve("root@dev", opts)
	require.NoError(t, err)

	again, err := Resolve(first, opts)
	require.NoError(t, err)
	assert.Same(t, first, again)

	target := "adb"
	fromPtr, err := Resolve(&target, opts)
	require.NoError(t, err)
	assert.Equal(t, KindBridge, fromPtr.Kind())

	_, err = Resolve(42, opts)
	assert.Error(t, err)
}

func TestSessionCommandLines(t *testing.T) {
	rec := &shelltest.Recorder{}
	tr := NewSession("root@dev", Options{Runner: rec, ConnectTimeout: 10 * time.Second})

	require.NoError(t, tr.Run(context.Background(), RunOptions{}, "kill", "-9", "123"))
	require.NoError(t, tr.Run(context.Background(), RunOptions{Dir: "/opt/genie"}, "ls", "my file"))

	assert.Equal(t, []string{
		"ssh -o ConnectTimeout=10 root@dev kill -9 123",
		"ssh -o ConnectTimeout=10 root@dev cd /opt/genie && ls 'my file'",
	}, rec.Lines())
}

func TestBridgeRejectsWorkingDirectory(t *testing.T) {
	rec := &shelltest.Recorder{}
	tr := NewBridge(Options{Runner: rec})

	err := tr.Run(context.Background(), RunOptions{Dir: "/opt"}, "ls")
	var unsupported *UnsupportedOperationError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, KindBridge, unsupported.Kind)
	assert.Empty(t, rec.Calls())
}

func TestGetReturnsStdout(t *testing.T) {
	rec := &shelltest.Recorder{Handler: func(cmd shell.Command) (shell.Result, error) {
		return shell.Result{Stdout: "  PID USER VSZ STAT COMMAND\n"}, nil
	}}
	tr := NewBridge(Options{Runner: rec})

	out, err := tr.Get(context.Background(), "ps")
	require.NoError(t, err)
	assert.Equal(t, "  PID USER VSZ STAT COMMAND\n", out)
	assert.Equal(t, []string{"adb shell ps"}, rec.Lines())
}

func TestRunFailureCarriesExitCode(t *testing.T) {
	rec := &shelltest.Recorder{Handler: func(cmd shell.Command) (shell.Result, error) {
		return shell.Result{}, shelltest.Exit(cmd, 1, "kill: no such process\n")
	}}
	tr := NewSession("root@dev", Options{Runner: rec})

	err := tr.Run(context.Background(), RunOptions{}, "kill", "-9", "99")
	var remoteErr *RemoteCommandError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, 1, remoteErr.ExitCode)
	assert.Equal(t, []string{"kill", "-9", "99"}, remoteErr.Args)
	assert.Contains(t, err.Error(), "no such process")

	assert.NoError(t, tr.Run(context.Background(), RunOptions{AllowExitCodes: []int{1}}, "kill", "-9", "99"))
}

func TestIsDirMapsTestStatus(t *testing.T) {
	codes := map[string]int{
		"test -d /present": 0,
		"test -d /absent":  1,
		"test -d /broken":  2,
	}
	rec := &shelltest.Recorder{Handler: func(cmd shell.Command) (shell.Result, error) {
		if code := codes[remoteLine(cmd)]; code != 0 {
			return shell.Result{}, shelltest.Exit(cmd, code, "")
		}
		return shell.Result{}, nil
	}}
	tr := NewSession("root@dev", Options{Runner: rec})
	ctx := context.Background()

	ok, err := tr.IsDir(ctx, "/present")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = tr.IsDir(ctx, "/absent")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = tr.IsDir(ctx, "/broken")
	var remoteErr *RemoteCommandError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, 2, remoteErr.ExitCode)
}

func TestPushDirectoryReplacesExistingTree(t *testing.T) {
	src := t.TempDir()
	rec := &shelltest.Recorder{}
	tr := NewSession("root@dev", Options{Runner: rec})

	require.NoError(t, tr.Push(context.Background(), src, "/opt/genie/lib"))

	assert.Equal(t, []string{
		"ssh root@dev test -d /opt/genie",
		"ssh root@dev test -d /opt/genie/lib",
		"ssh root@dev rm -rf /opt/genie/lib",
		"scp -r " + src + " root@dev:/opt/genie/lib",
	}, rec.Lines())
}

func TestPushDirectoryCreatesMissingParent(t *testing.T) {
	src := t.TempDir()
	rec := &shelltest.Recorder{Handler: func(cmd shell.Command) (shell.Result, error) {
		if strings.HasPrefix(remoteLine(cmd), "test -d ") {
			return shell.Result{}, shelltest.Exit(cmd, 1, "")
		}
		return shell.Result{}, nil
	}}
	tr := NewBridge(Options{Runner: rec})

	require.NoError(t, tr.Push(context.Background(), src, "/opt/genie/assets"))

	assert.Equal(t, []string{
		"adb shell test -d /opt/genie",
		"adb shell mkdir -p /opt/genie",
		"adb shell test -d /opt/genie/assets",
		"adb push " + src + " /opt/genie/assets",
	}, rec.Lines())
}

func TestPushFileCopiesDirectly(t *testing.T) {
	src := filepath.Join(t.TempDir(), "genie")
	require.NoError(t, os.WriteFile(src, []byte("bin"), 0o755))
	rec := &shelltest.Recorder{}
	tr := NewSession("root@dev", Options{Runner: rec})

	require.NoError(t, tr.Push(context.Background(), src, "/opt/genie/genie"))
	assert.Equal(t, []string{"scp " + src + " root@dev:/opt/genie/genie"}, rec.Lines())
}

func TestPushMissingSourceFails(t *testing.T) {
	rec := &shelltest.Recorder{}
	tr := NewSession("root@dev", Options{Runner: rec})

	err := tr.Push(context.Background(), filepath.Join(t.TempDir(), "nope"), "/opt/genie/genie")
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Empty(t, rec.Calls())
}

func TestPushCopyFailureIsRemoteError(t *testing.T) {
	src := filepath.Join(t.TempDir(), "genie")
	require.NoError(t, os.WriteFile(src, []byte("bin"), 0o755))
	rec := &shelltest.Recorder{Handler: func(cmd shell.Command) (shell.Result, error) {
		return shell.Result{}, shelltest.Exit(cmd, 1, "scp: /opt/genie/genie: No space left on device")
	}}
	tr := NewSession("root@dev", Options{Runner: rec})

	err := tr.Push(context.Background(), src, "/opt/genie/genie")
	var remoteErr *RemoteCommandError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, "scp", remoteErr.Args[0])
}

func TestWriteStagesContent(t *testing.T) {
	var staged, stagedPath string
	rec := &shelltest.Recorder{Handler: func(cmd shell.Command) (shell.Result, error) {
		stagedPath = cmd.Args[len(cmd.Args)-2]
		data, err := os.ReadFile(stagedPath)
		if err != nil {
			return shell.Result{}, err
		}
		staged = string(data)
		return shell.Result{}, nil
	}}
	tr := NewSession("root@dev", Options{Runner: rec})

	require.NoError(t, tr.WriteLines(context.Background(), "/data/wifi/resolv.conf", "nameserver 1.1.1.1", "nameserver 8.8.8.8"))

	assert.Equal(t, "nameserver 1.1.1.1\nnameserver 8.8.8.8\n", staged)
	assert.Equal(t, "scp", rec.Calls()[0].Name)
	assert.Equal(t, "root@dev:/data/wifi/resolv.conf", rec.Calls()[0].Args[len(rec.Calls()[0].Args)-1])
	_, err := os.Stat(stagedPath)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPullCreatesLocalParent(t *testing.T) {
	rec := &shelltest.Recorder{Handler: func(cmd shell.Command) (shell.Result, error) {
		if strings.HasPrefix(remoteLine(cmd), "test -d ") {
			return shell.Result{}, shelltest.Exit(cmd, 1, "")
		}
		return shell.Result{}, nil
	}}
	tr := NewSession("root@dev", Options{Runner: rec})
	dest := filepath.Join(t.TempDir(), "streams", "01", "input.raw")

	require.NoError(t, tr.Pull(context.Background(), "/tmp/input.raw", dest))

	info, err := os.Stat(filepath.Dir(dest))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, []string{
		"ssh root@dev test -d /tmp/input.raw",
		"scp root@dev:/tmp/input.raw " + dest,
	}, rec.Lines())
}

func TestStreamForwardsOutput(t *testing.T) {
	rec := &shelltest.Recorder{Handler: func(cmd shell.Command) (shell.Result, error) {
		return shell.Result{Stdout: "line 1\nline 2\n"}, nil
	}}
	tr := NewSession("root@dev", Options{Runner: rec})

	var out bytes.Buffer
	require.NoError(t, tr.Stream(context.Background(), &out, nil, "tail", "-f", "/tmp/genie.log"))
	assert.Equal(t, "line 1\nline 2\n", out.String())
}

func TestSpawnStartsWithoutWaiting(t *testing.T) {
	rec := &shelltest.Recorder{}
	tr := NewSession("root@dev", Options{Runner: rec})

	proc, err := tr.Spawn(context.Background(), "sh", "-c", "source /etc/profile && parec")
	require.NoError(t, err)
	require.NoError(t, proc.Stop())

	started := rec.Started()
	require.Len(t, started, 1)
	assert.True(t, started[0].Stopped)
	assert.Equal(t, "sh -c 'source /etc/profile && parec'", remoteLine(started[0].Cmd))
}

func TestQuote(t *testing.T) {
	assert.Equal(t, "plain/path-1.txt", Quote("plain/path-1.txt"))
	assert.Equal(t, "''", Quote(""))
	assert.Equal(t, "'a b'", Quote("a b"))
	assert.Equal(t, `'it'\''s'`, Quote("it's"))
}

func TestParsePortForward(t *testing.T) {
	f, err := ParsePortForward("8080")
	require.NoError(t, err)
	assert.Equal(t, PortForward{Remote: 8080, Local: 8080}, f)

	f, err = ParsePortForward("9000:3000")
	require.NoError(t, err)
	assert.Equal(t, PortForward{Remote: 9000, Local: 3000}, f)

	_, err = ParsePortForward("http")
	assert.Error(t, err)
	_, err = ParsePortForward("1:70000")
	assert.Error(t, err)
}

func TestSessionShellArgs(t *testing.T) {
	s := NewSession("root@dev", Options{Runner: &shelltest.Recorder{}, ConnectTimeout: 5 * time.Second})
	got := s.ShellArgs([]PortForward{{Remote: 8080, Local: 8080}, {Remote: 9000, Local: 3000}})
	assert.Equal(t, []string{
		"-o", "ConnectTimeout=5",
		"-R", "8080:localhost:8080",
		"-R", "9000:localhost:3000",
		"root@dev",
	}, got)
}
