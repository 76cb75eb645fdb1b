package remote

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultForwardPort is reverse-forwarded when no port is given.
const DefaultForwardPort = 8080

// PortForward maps a device port back to a local one.
type PortForward struct {
	Remote int
	Local  int
}

// ParsePortForward accepts "PORT" or "DEVICE:LOCAL".
func ParsePortForward(s string) (PortForward, error) {
	remote, local, found := strings.Cut(s, ":")
	if !found {
		local = remote
	}
	r, err := parsePort(remote)
	if err != nil {
		return PortForward{}, fmt.Errorf("port forward %q: %w", s, err)
	}
	l, err := parsePort(local)
	if err != nil {
		return PortForward{}, fmt.Errorf("port forward %q: %w", s, err)
	}
	return PortForward{Remote: r, Local: l}, nil
}

func parsePort(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 || n > 65535 {
		return 0, fmt.Errorf("invalid port %q", s)
	}
	return n, nil
}
