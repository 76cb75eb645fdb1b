// Package streams collects the raw audio streams the client dumps on the
// device and records from its echo-cancelled source.
package streams

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/charmbracelet/log"

	"geniectl/internal/config"
	"geniectl/internal/logging"
	"geniectl/internal/remote"
	"geniectl/internal/shell"
)

// Names are the dumped streams, fetched as <name>.raw.
var Names = []string{"input", "playback", "filter"}

const maxFetches = 99

var fetchDirRE = regexp.MustCompile(`^\d{2}$`)

// Streams moves audio between the device and the host.
type Streams struct {
	Transport remote.Transport
	Device    config.Device
	// Dir is the local directory fetches and recordings land in.
	Dir    string
	Logger *log.Logger
}

// NextFetchDir returns the next numbered directory under base ("01".."99").
func NextFetchDir(base string) (string, error) {
	entries, err := os.ReadDir(base)
	if err != nil && !os.IsNotExist(err) {
		return "", err
	}
	highest := 0
	for _, e := range entries {
		if !e.IsDir() || !fetchDirRE.MatchString(e.Name()) {
			continue
		}
		if n, _ := strconv.Atoi(e.Name()); n > highest {
			highest = n
		}
	}
	next := highest + 1
	if next > maxFetches {
		return "", fmt.Errorf("too many fetch directories in %s (max %d)", base, maxFetches)
	}
	return filepath.Join(base, fmt.Sprintf("%02d", next)), nil
}

// Fetch pulls every dumped stream into a fresh numbered directory and
// returns it.
func (s *Streams) Fetch(ctx context.Context) (string, error) {
	base := filepath.Join(s.Dir, "raw")
	if err := os.MkdirAll(base, 0o755); err != nil {
		return "", err
	}
	dir, err := NextFetchDir(base)
	if err != nil {
		return "", err
	}
	if err := os.Mkdir(dir, 0o755); err != nil {
		return "", err
	}
	for _, name := range Names {
		file := name + ".raw"
		if err := s.Transport.Pull(ctx, path.Join(s.Device.Tmp, file), filepath.Join(dir, file)); err != nil {
			return dir, err
		}
	}
	logging.OrDiscard(s.Logger).Info("Fetched streams", "dir", dir)
	return dir, nil
}

// Play plays a fetched raw stream (16 kHz mono s16le) with ffplay.
func Play(ctx context.Context, runner shell.Runner, file string, stdout, stderr io.Writer) error {
	if _, err := os.Stat(file); err != nil {
		return err
	}
	_, err := runner.Run(ctx, shell.Command{
		Name:   "ffplay",
		Args:   []string{"-f", "s16le", "-ar", "16k", "-ac", "1", file},
		Stdout: stdout,
		Stderr: stderr,
	})
	return err
}

// RecordCommand is the device-side shell line that records the echo source.
func (s *Streams) RecordCommand() string {
	return "source " + remote.Quote(s.Device.Profile) + " && " + remote.Join([]string{
		s.Device.Parec,
		"--format=s16le",
		"--device=echosrc",
		"--file-format=wav",
		s.recordingPath(),
	})
}

func (s *Streams) recordingPath() string {
	return path.Join(s.Device.Tmp, "echosrc.wav")
}

// Record starts parec on the device, stops it when stop is closed (or ctx is
// cancelled), then pulls the recording and deletes it from the device.
func (s *Streams) Record(ctx context.Context, stop <-chan struct{}) (string, error) {
	logger := logging.OrDiscard(s.Logger)
	line := s.RecordCommand()
	logger.Info("Spawning on device", "cmd", line)

	proc, err := s.Transport.Spawn(ctx, "sh", "-c", line)
	if err != nil {
		return "", err
	}
	select {
	case <-stop:
	case <-ctx.Done():
	}
	if err := proc.Stop(); err != nil {
		return "", err
	}
	_ = proc.Wait()

	// The pull runs even if the caller's ctx is done; the recording is the
	// point of the exercise.
	pullCtx := context.WithoutCancel(ctx)
	remotePath := s.recordingPath()
	local := filepath.Join(s.Dir, path.Base(remotePath))
	if err := s.Transport.Pull(pullCtx, remotePath, local); err != nil {
		return "", err
	}
	if err := s.Transport.Remove(pullCtx, remotePath); err != nil {
		return local, err
	}
	logger.Info("Recording saved", "path", local)
	return local, nil
}
