package vcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goplus/cellar/pkgs/buildsys"
)

// VCS defines the version-control queries run against a pristine source tree.
type VCS interface {
	// Describe returns the most recent tag reachable from HEAD in dir that
	// matches the glob match, followed by the distance and abbreviated commit
	// when HEAD is not tagged itself. Without a matching tag it falls back to
	// the abbreviated commit.
	Describe(ctx context.Context, dir, match string) (string, error)
}

// gitVCS implements VCS using git.
type gitVCS struct {
	git    string
	runner buildsys.Runner
}

// GitOption configures gitVCS.
type GitOption func(*gitVCS)

// WithGitPath sets a custom git executable path.
func WithGitPath(path string) GitOption {
	return func(g *gitVCS) {
		g.git = path
	}
}

// WithRunner sets the process runner git is invoked through.
func WithRunner(r buildsys.Runner) GitOption {
	return func(g *gitVCS) {
		g.runner = r
	}
}

// NewGitVCS creates a new git VCS instance.
func NewGitVCS(opts ...GitOption) VCS {
	g := &gitVCS{git: "git", runner: buildsys.ExecRunner{}}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *gitVCS) Describe(ctx context.Context, dir, match string) (string, error) {
	args := []string{"describe", "--tags"}
	if match != "" {
		args = append(args, "--match", match)
	}
	args = append(args, "--always")

	output, err := g.output(ctx, dir, args...)
	if err != nil {
		return "", fmt.Errorf("describe: %w", err)
	}
	desc := strings.TrimSpace(output)
	if desc == "" {
		return "", errors.New("describe: empty output")
	}
	return desc, nil
}

func (g *gitVCS) output(ctx context.Context, dir string, args ...string) (string, error) {
	var stderr bytes.Buffer
	res, err := g.runner.Run(ctx, buildsys.Cmd{
		Name:   g.git,
		Args:   args,
		Dir:    dir,
		Stderr: &stderr,
	})
	if err != nil {
		return "", err
	}
	if !res.Success() {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%s", msg)
		}
		return "", fmt.Errorf("git %s: exit status %d", args[0], res.ExitCode)
	}
	return res.Output, nil
}
