package sshexec

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"

	"geniectl/internal/remote"
)

type handler func(cmd string, ch ssh.Channel) uint32

// startServer runs a throwaway SSH server on loopback and returns its
// host and port.
func startServer(t *testing.T, cfg *ssh.ServerConfig, handle handler) (string, int) {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	signer, err := ssh.NewSignerFromKey(priv)
	require.NoError(t, err)
	cfg.AddHostKey(signer)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			nc, err := ln.Accept()
			if err != nil {
				return
			}
			go serve(nc, cfg, handle)
		}
	}()

	host, port, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	p, err := strconv.Atoi(port)
	require.NoError(t, err)
	return host, p
}

func serve(nc net.Conn, cfg *ssh.ServerConfig, handle handler) {
	_, chans, reqs, err := ssh.NewServerConn(nc, cfg)
	if err != nil {
		_ = nc.Close()
		return
	}
	go ssh.DiscardRequests(reqs)
	for nch := range chans {
		if nch.ChannelType() != "session" {
			_ = nch.Reject(ssh.UnknownChannelType, "session only")
			continue
		}
		ch, requests, err := nch.Accept()
		if err != nil {
			continue
		}
		go func() {
			for req := range requests {
				if req.Type != "exec" {
					_ = req.Reply(false, nil)
					continue
				}
				var payload struct{ Command string }
				_ = ssh.Unmarshal(req.Payload, &payload)
				_ = req.Reply(true, nil)
				status := handle(payload.Command, ch)
				_, _ = ch.SendRequest("exit-status", false, ssh.Marshal(struct{ Status uint32 }{status}))
				_ = ch.Close()
				return
			}
		}()
	}
}

func TestRunPrefixesOutput(t *testing.T) {
	got := make(chan string, 1)
	host, port := startServer(t, &ssh.ServerConfig{NoClientAuth: true}, func(cmd string, ch ssh.Channel) uint32 {
		got <- cmd
		_, _ = io.WriteString(ch, "hello\nworld\n")
		_, _ = io.WriteString(ch.Stderr(), "careful\n")
		return 0
	})

	var stdout, stderr bytes.Buffer
	err := Run(context.Background(), Options{Host: host, Port: port, Stdout: &stdout, Stderr: &stderr}, "ls", "-l", "/opt/genie dir")
	require.NoError(t, err)

	assert.Equal(t, "ls -l '/opt/genie dir'", <-got)
	assert.Equal(t, "> hello\n> world\n", stdout.String())
	assert.Equal(t, "! careful\n", stderr.String())
}

func TestRunReportsExitStatus(t *testing.T) {
	host, port := startServer(t, &ssh.ServerConfig{NoClientAuth: true}, func(string, ssh.Channel) uint32 {
		return 3
	})

	err := Run(context.Background(), Options{Host: host, Port: port}, "false")
	var remoteErr *remote.RemoteCommandError
	require.True(t, errors.As(err, &remoteErr), "got %v", err)
	assert.Equal(t, 3, remoteErr.ExitCode)
	assert.Equal(t, "root@"+host, remoteErr.Target)
}

func TestRunPasswordAuth(t *testing.T) {
	cfg := &ssh.ServerConfig{
		PasswordCallback: func(meta ssh.ConnMetadata, pw []byte) (*ssh.Permissions, error) {
			if meta.User() == "root" && string(pw) == "hunter2" {
				return nil, nil
			}
			return nil, errors.New("denied")
		},
	}
	host, port := startServer(t, cfg, func(string, ssh.Channel) uint32 { return 0 })

	require.NoError(t, Run(context.Background(), Options{Host: host, Port: port, Password: "hunter2"}, "true"))

	err := Run(context.Background(), Options{Host: host, Port: port}, "true")
	assert.Error(t, err, "none auth must be refused by a password-only server")
}

func TestRunRejectsEmptyCommand(t *testing.T) {
	assert.Error(t, Run(context.Background(), Options{Host: "127.0.0.1"}))
}

func TestPrefixLines(t *testing.T) {
	var mu sync.Mutex
	var out bytes.Buffer
	require.NoError(t, PrefixLines(&out, &mu, StderrPrefix, strings.NewReader("a\n\nb")))
	assert.Equal(t, "! a\n! \n! b\n", out.String())
}

func TestClientConfig(t *testing.T) {
	cfg := ClientConfig(Options{})
	assert.Equal(t, DefaultUser, cfg.User)
	assert.Empty(t, cfg.Auth)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)

	cfg = ClientConfig(Options{User: "admin", Password: "x"})
	assert.Equal(t, "admin", cfg.User)
	assert.Len(t, cfg.Auth, 2)
}
