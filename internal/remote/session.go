package remote

import (
	"fmt"
	"time"

	"geniectl/internal/shell"
)

// SessionTransport reaches a device over SSH: commands through ssh, files
// through scp. Authentication is left to the user's ssh setup.
type SessionTransport struct {
	*core
	// Address is the ssh destination, e.g. "root@192.168.1.20".
	Address        string
	ConnectTimeout time.Duration
}

// NewSession returns a transport for the ssh destination address.
func NewSession(address string, opts Options) *SessionTransport {
	s := &SessionTransport{Address: address, ConnectTimeout: opts.ConnectTimeout}
	s.core = newCore(s, opts)
	return s
}

func (s *SessionTransport) kind() Kind { return KindSession }

func (s *SessionTransport) target() string { return s.Address }

// options are the -o flags shared by ssh and scp.
func (s *SessionTransport) options() []string {
	if s.ConnectTimeout <= 0 {
		return nil
	}
	secs := int(s.ConnectTimeout.Round(time.Second) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return []string{"-o", fmt.Sprintf("ConnectTimeout=%d", secs)}
}

func (s *SessionTransport) exec(dir string, args []string) (shell.Command, error) {
	line := Join(args)
	if dir != "" {
		line = "cd " + Quote(dir) + " && " + line
	}
	argv := append(s.options(), s.Address, line)
	return shell.Command{Name: "ssh", Args: argv}, nil
}

func (s *SessionTransport) upload(local, remote string, recursive bool) shell.Command {
	return s.scp(recursive, local, s.Address+":"+remote)
}

func (s *SessionTransport) download(remote, local string, recursive bool) shell.Command {
	return s.scp(recursive, s.Address+":"+remote, local)
}

func (s *SessionTransport) scp(recursive bool, from, to string) shell.Command {
	argv := s.options()
	if recursive {
		argv = append(argv, "-r")
	}
	argv = append(argv, from, to)
	return shell.Command{Name: "scp", Args: argv}
}

// ShellArgs returns the ssh arguments for an interactive login shell that
// forwards each reverse port (remote:local) back to this host.
func (s *SessionTransport) ShellArgs(reverse []PortForward) []string {
	argv := s.options()
	for _, f := range reverse {
		argv = append(argv, "-R", fmt.Sprintf("%d:localhost:%d", f.Remote, f.Local))
	}
	return append(argv, s.Address)
}

// Shell replaces the current process with the shell from ShellArgs.
func (s *SessionTransport) Shell(reverse []PortForward) error {
	s.logger.Debug("Opening shell", "target", s.Address, "forwards", len(reverse))
	return shell.Replace("ssh", s.ShellArgs(reverse)...)
}
