package buildsys

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
)

// Cmd describes one external process invocation.
type Cmd struct {
	Name string
	Args []string
	// Dir is the working directory of the process. The caller's own
	// working directory is never changed.
	Dir string
	// Env is the complete environment. Nil inherits the current process environment.
	Env []string

	// Optional writers receiving a copy of stdout and stderr.
	Stdout io.Writer
	Stderr io.Writer
}

// Result is the outcome of a process that ran to completion.
type Result struct {
	ExitCode int
	Output   string // captured stdout
}

// Success reports a zero exit status.
func (r Result) Success() bool { return r.ExitCode == 0 }

// Runner runs external processes and blocks until they exit.
//
// A non-zero exit is reported through Result, not as an error; the error
// is reserved for processes that could not be started.
type Runner interface {
	Run(ctx context.Context, cmd Cmd) (Result, error)
}

// ExecRunner is the Runner backed by os/exec.
type ExecRunner struct{}

var _ Runner = ExecRunner{}

func (ExecRunner) Run(ctx context.Context, c Cmd) (Result, error) {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	cmd.Env = c.Env

	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if c.Stdout != nil {
		cmd.Stdout = io.MultiWriter(&stdout, c.Stdout)
	}
	cmd.Stderr = c.Stderr

	err := cmd.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return Result{ExitCode: exitErr.ExitCode(), Output: stdout.String()}, nil
	}
	if err != nil {
		return Result{ExitCode: -1}, err
	}
	return Result{Output: stdout.String()}, nil
}
