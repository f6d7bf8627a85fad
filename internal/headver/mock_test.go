package headver

import (
	"context"
	"fmt"

	"github.com/goplus/cellar/pkgs/buildsys"
)

// mockRunner implements buildsys.Runner for unit testing.
type mockRunner struct {
	calls   []buildsys.Cmd
	runFunc func(cmd buildsys.Cmd) (buildsys.Result, error)
}

func (m *mockRunner) Run(_ context.Context, cmd buildsys.Cmd) (buildsys.Result, error) {
	m.calls = append(m.calls, cmd)
	if m.runFunc != nil {
		return m.runFunc(cmd)
	}
	return buildsys.Result{}, nil
}

// mockVCS implements vcs.VCS for unit testing.
type mockVCS struct {
	calls        int
	dir, match   string
	describeFunc func() (string, error)
}

func (m *mockVCS) Describe(_ context.Context, dir, match string) (string, error) {
	m.calls++
	m.dir, m.match = dir, match
	if m.describeFunc != nil {
		return m.describeFunc()
	}
	return "", nil
}

// mockLogger records log lines.
type mockLogger struct {
	infos, warns []string
}

func (m *mockLogger) Info(msg string, args ...any) {
	m.infos = append(m.infos, fmt.Sprint(append([]any{msg}, args...)...))
}

func (m *mockLogger) Warn(msg string, args ...any) {
	m.warns = append(m.warns, fmt.Sprint(append([]any{msg}, args...)...))
}
