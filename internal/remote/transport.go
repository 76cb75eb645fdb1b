// Package remote provides the Transport abstraction over the two ways of
// reaching a device: an SSH session (ssh/scp) and the Android debug bridge
// (adb shell/push/pull).
//
// Both variants share one capability set. The set of variants is closed:
// Transport carries an unexported method, so only this package can add one.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"geniectl/internal/shell"
)

// BridgeTarget is the target identity selecting the adb transport.
const BridgeTarget = "adb"

// Kind tags the transport variant.
type Kind int

const (
	KindSession Kind = iota + 1
	KindBridge
)

func (k Kind) String() string {
	switch k {
	case KindSession:
		return "ssh"
	case KindBridge:
		return "adb"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// RunOptions tunes Transport.Run.
type RunOptions struct {
	// Dir runs the command in this remote working directory. The bridge
	// transport does not support it.
	Dir string
	// AllowExitCodes are non-zero exit statuses the caller explicitly
	// accepts. Nothing is tolerated implicitly.
	AllowExitCodes []int
}

// Transport is the active channel to a single device.
type Transport interface {
	Kind() Kind
	// Target returns the identity the transport was created from.
	Target() string

	// Get runs a command and returns its standard output.
	Get(ctx context.Context, args ...string) (string, error)
	// Run runs a command for effect only.
	Run(ctx context.Context, opts RunOptions, args ...string) error
	// Stream runs a command, forwarding its output as it is produced,
	// until it exits or ctx is cancelled.
	Stream(ctx context.Context, stdout, stderr io.Writer, args ...string) error
	// Spawn starts a command without waiting for it.
	Spawn(ctx context.Context, args ...string) (shell.Process, error)

	Read(ctx context.Context, path string) (string, error)
	Write(ctx context.Context, dest, content string) error
	WriteLines(ctx context.Context, dest string, lines ...string) error

	// Push copies a local file or directory tree to dest.
	Push(ctx context.Context, src, dest string) error
	// Pull copies a remote file or directory tree to the local dest.
	Pull(ctx context.Context, src, dest string) error
	Remove(ctx context.Context, path string) error

	IsDir(ctx context.Context, path string) (bool, error)
	IsFile(ctx context.Context, path string) (bool, error)

	sealed()
}

// Options carries the collaborators shared by both variants.
type Options struct {
	Runner shell.Runner
	Logger *log.Logger
	// ConnectTimeout bounds SSH connection establishment. Zero leaves the
	// ssh default in place.
	ConnectTimeout time.Duration
}

// Create resolves a target identity to a transport. "adb" selects the
// bridge; any other non-empty string is an SSH destination.
func Create(target string, opts Options) (Transport, error) {
	if target == "" {
		return nil, errors.New("no target given (pass one or set it in the current context)")
	}
	if target == BridgeTarget {
		return NewBridge(opts), nil
	}
	return NewSession(target, opts), nil
}

// Resolve accepts either a target identity or an existing Transport, which
// is returned unchanged.
func Resolve(target any, opts Options) (Transport, error) {
	switch v := target.(type) {
	case Transport:
		return v, nil
	case string:
		return Create(v, opts)
	case *string:
		if v == nil {
			return Create("", opts)
		}
		return Create(*v, opts)
	default:
		return nil, fmt.Errorf("cannot resolve a transport from %T", target)
	}
}
