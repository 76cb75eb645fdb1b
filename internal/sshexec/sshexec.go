// Package sshexec runs one command on a device over an in-process SSH
// client, without relying on the host's ssh binary or its key setup.
package sshexec

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/crypto/ssh"

	"geniectl/internal/logging"
	"geniectl/internal/remote"
)

const (
	DefaultUser    = "root"
	DefaultPort    = 22
	DefaultTimeout = 10 * time.Second

	StdoutPrefix = "> "
	StderrPrefix = "! "
)

// Options configure Run.
type Options struct {
	Host string
	Port int
	User string
	// Password, when empty, leaves the client with the "none" method only;
	// the devices ship with passwordless root.
	Password string
	// Timeout bounds the TCP connect and the SSH handshake.
	Timeout time.Duration
	Stdout  io.Writer
	Stderr  io.Writer
	Logger  *log.Logger
}

func (o *Options) defaults() {
	if o.Port == 0 {
		o.Port = DefaultPort
	}
	if o.User == "" {
		o.User = DefaultUser
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Stdout == nil {
		o.Stdout = io.Discard
	}
	if o.Stderr == nil {
		o.Stderr = io.Discard
	}
}

// ClientConfig returns the ssh client configuration for opts. Host keys are
// not verified: devices regenerate them on every reflash.
func ClientConfig(opts Options) *ssh.ClientConfig {
	opts.defaults()
	var auth []ssh.AuthMethod
	if opts.Password != "" {
		pw := opts.Password
		auth = append(auth,
			ssh.Password(pw),
			ssh.KeyboardInteractive(func(_, _ string, questions []string, _ []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range answers {
					answers[i] = pw
				}
				return answers, nil
			}),
		)
	}
	return &ssh.ClientConfig{
		User:            opts.User,
		Auth:            auth,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         opts.Timeout,
	}
}

// Dial connects and authenticates.
func Dial(ctx context.Context, opts Options) (*ssh.Client, error) {
	opts.defaults()
	if opts.Host == "" {
		return nil, errors.New("ssh: host is required")
	}
	addr := net.JoinHostPort(opts.Host, strconv.Itoa(opts.Port))

	dialer := net.Dialer{Timeout: opts.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", addr, err)
	}
	_ = conn.SetDeadline(time.Now().Add(opts.Timeout))
	c, chans, reqs, err := ssh.NewClientConn(conn, addr, ClientConfig(opts))
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ssh handshake with %s: %w", addr, err)
	}
	_ = conn.SetDeadline(time.Time{})
	return ssh.NewClient(c, chans, reqs), nil
}

// Run executes args (shell-quoted into one line) on opts.Host, writing each
// stdout line as "> line" to opts.Stdout and each stderr line as "! line" to
// opts.Stderr while the command runs. A non-zero exit status is returned as a
// *remote.RemoteCommandError.
func Run(ctx context.Context, opts Options, args ...string) error {
	opts.defaults()
	if len(args) == 0 {
		return errors.New("ssh: empty command")
	}
	logger := logging.OrDiscard(opts.Logger)

	client, err := Dial(ctx, opts)
	if err != nil {
		return err
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	defer session.Close()

	stdout, err := session.StdoutPipe()
	if err != nil {
		return err
	}
	stderr, err := session.StderrPipe()
	if err != nil {
		return err
	}

	line := remote.Join(args)
	logger.Debug("Executing", "host", opts.Host, "cmd", line)
	if err := session.Start(line); err != nil {
		return fmt.Errorf("start %q: %w", line, err)
	}

	stop := context.AfterFunc(ctx, func() { _ = client.Close() })
	defer stop()

	var mu sync.Mutex
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = PrefixLines(opts.Stdout, &mu, StdoutPrefix, stdout)
	}()
	go func() {
		defer wg.Done()
		_ = PrefixLines(opts.Stderr, &mu, StderrPrefix, stderr)
	}()
	wg.Wait()

	err = session.Wait()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	var exitErr *ssh.ExitError
	if errors.As(err, &exitErr) {
		return &remote.RemoteCommandError{
			Target:   opts.User + "@" + opts.Host,
			Args:     append([]string(nil), args...),
			ExitCode: exitErr.ExitStatus(),
		}
	}
	return err
}

// PrefixLines copies r to w line by line, prefixing each line. mu, shared
// between concurrent callers, keeps lines whole when w is shared.
func PrefixLines(w io.Writer, mu *sync.Mutex, prefix string, r io.Reader) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		mu.Lock()
		_, err := io.WriteString(w, prefix+sc.Text()+"\n")
		mu.Unlock()
		if err != nil {
			return err
		}
	}
	return sc.Err()
}
