package remote

import (
	"geniectl/internal/shell"
)

// BridgeTransport reaches the single device attached to adb.
type BridgeTransport struct {
	*core
}

// NewBridge returns the adb transport.
func NewBridge(opts Options) *BridgeTransport {
	b := &BridgeTransport{}
	b.core = newCore(b, opts)
	return b
}

func (b *BridgeTransport) kind() Kind { return KindBridge }

func (b *BridgeTransport) target() string { return BridgeTarget }

func (b *BridgeTransport) exec(dir string, args []string) (shell.Command, error) {
	if dir != "" {
		return shell.Command{}, &UnsupportedOperationError{Kind: KindBridge, Op: "running in a working directory"}
	}
	return shell.Command{Name: "adb", Args: []string{"shell", Join(args)}}, nil
}

// adb push/pull copy directories without a flag.
func (b *BridgeTransport) upload(local, remote string, _ bool) shell.Command {
	return shell.Command{Name: "adb", Args: []string{"push", local, remote}}
}

func (b *BridgeTransport) download(remote, local string, _ bool) shell.Command {
	return shell.Command{Name: "adb", Args: []string{"pull", remote, local}}
}
