package build

import (
	"context"
	"fmt"
	"strings"

	"github.com/goplus/cellar/pkgs/buildsys"
)

// mockRunner implements buildsys.Runner for unit testing. Commands run
// successfully unless runFunc says otherwise.
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

// commands returns every call as "name arg1 arg2 ...".
func (m *mockRunner) commands() []string {
	out := make([]string, len(m.calls))
	for i, c := range m.calls {
		out[i] = strings.Join(append([]string{c.Name}, c.Args...), " ")
	}
	return out
}

// mockVCS implements vcs.VCS for unit testing.
type mockVCS struct {
	calls        int
	describeFunc func(dir, match string) (string, error)
}

func (m *mockVCS) Describe(_ context.Context, dir, match string) (string, error) {
	m.calls++
	if m.describeFunc != nil {
		return m.describeFunc(dir, match)
	}
	return "", fmt.Errorf("not a repository")
}

// mockLogger records log lines.
type mockLogger struct {
	infos, warns []string
}

func (m *mockLogger) Info(msg string, args ...any) {
	m.infos = append(m.infos, fmt.Sprint(append([]any{msg + " "}, args...)...))
}

func (m *mockLogger) Warn(msg string, args ...any) {
	m.warns = append(m.warns, fmt.Sprint(append([]any{msg + " "}, args...)...))
}
