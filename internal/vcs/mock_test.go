package vcs

import (
	"context"
	"io"

	"github.com/goplus/cellar/pkgs/buildsys"
)

// mockRunner implements buildsys.Runner for unit testing.
type mockRunner struct {
	calls   []buildsys.Cmd
	stderr  string
	runFunc func(cmd buildsys.Cmd) (buildsys.Result, error)
}

func (m *mockRunner) Run(_ context.Context, cmd buildsys.Cmd) (buildsys.Result, error) {
	m.calls = append(m.calls, cmd)
	if m.stderr != "" && cmd.Stderr != nil {
		_, _ = io.WriteString(cmd.Stderr, m.stderr)
	}
	if m.runFunc != nil {
		return m.runFunc(cmd)
	}
	return buildsys.Result{}, nil
}
