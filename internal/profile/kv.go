package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"geniectl/internal/shell"
)

// KV is the flat key/value store behind a Store.
type KV interface {
	// Get returns ok=false for a missing key.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	// Unset removes key. Removing a missing key is not an error.
	Unset(ctx context.Context, key string) error
	// Keys returns every stored key starting with prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// git config exit statuses.
const (
	gitMissingKey   = 1
	gitUnsetMissing = 5
)

// GitConfig keeps values in the repository's local git config.
type GitConfig struct {
	Runner shell.Runner
	// Dir is any directory inside the repository.
	Dir string
}

func (g *GitConfig) git(ctx context.Context, args ...string) (shell.Result, error) {
	return g.Runner.Run(ctx, shell.Command{
		Name: "git",
		Args: append([]string{"config", "--local"}, args...),
		Dir:  g.Dir,
	})
}

func (g *GitConfig) Get(ctx context.Context, key string) (string, bool, error) {
	res, err := g.git(ctx, "--get", key)
	if err != nil {
		if code, ok := shell.ExitCode(err); ok && code == gitMissingKey && res.Stdout == "" {
			return "", false, nil
		}
		return "", false, fmt.Errorf("git config get %s: %w", key, err)
	}
	return strings.TrimRight(res.Stdout, "\r\n"), true, nil
}

func (g *GitConfig) Set(ctx context.Context, key, value string) error {
	if _, err := g.git(ctx, key, value); err != nil {
		return fmt.Errorf("git config set %s: %w", key, err)
	}
	return nil
}

func (g *GitConfig) Unset(ctx context.Context, key string) error {
	if _, err := g.git(ctx, "--unset", key); err != nil {
		if code, ok := shell.ExitCode(err); ok && code == gitUnsetMissing {
			return nil
		}
		return fmt.Errorf("git config unset %s: %w", key, err)
	}
	return nil
}

func (g *GitConfig) Keys(ctx context.Context, prefix string) ([]string, error) {
	res, err := g.git(ctx, "--list")
	if err != nil {
		// An empty local config lists nothing and may exit non-zero.
		var exitErr *shell.ExitError
		if errors.As(err, &exitErr) && strings.TrimSpace(res.Stdout) == "" && strings.TrimSpace(exitErr.Stderr) == "" {
			return nil, nil
		}
		return nil, fmt.Errorf("git config list: %w", err)
	}
	var keys []string
	for _, line := range strings.Split(res.Stdout, "\n") {
		key, _, _ := strings.Cut(strings.TrimRight(line, "\r"), "=")
		if key != "" && strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}
