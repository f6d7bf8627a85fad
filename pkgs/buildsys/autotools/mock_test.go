package autotools

import (
	"context"

	"github.com/goplus/cellar/pkgs/buildsys"
)

// mockRunner records invocations and answers with runFunc.
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
