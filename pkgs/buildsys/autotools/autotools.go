// Package autotools wraps the classic configure/make/make-install workflow.
package autotools

import (
	"context"
	"io"
	"maps"
	"os"
	"runtime"

	"github.com/goplus/cellar/pkgs/buildsys"
)

// AutoTools drives Autotools-style builds through a buildsys.Runner.
//
// Environment changes made through Env, AppendFlag and PrependPath are kept
// in the driver and only reach the commands it spawns; the calling process
// environment is never modified.
type AutoTools struct {
	runner     buildsys.Runner
	script     string
	buildDir   string
	installDir string
	env        map[string]string
	stdout     io.Writer
	stderr     io.Writer
}

// New returns an AutoTools that runs in buildDir and installs into installDir.
func New(runner buildsys.Runner, buildDir, installDir string) *AutoTools {
	return &AutoTools{
		runner:     runner,
		script:     "./configure",
		buildDir:   buildDir,
		installDir: installDir,
		env:        make(map[string]string),
	}
}

// Script overrides the configure script, relative to the build directory.
func (a *AutoTools) Script(path string) {
	if path != "" {
		a.script = path
	}
}

// Output sets writers that receive a copy of every command's output.
func (a *AutoTools) Output(stdout, stderr io.Writer) {
	a.stdout, a.stderr = stdout, stderr
}

// Env sets key=value for every command spawned later.
func (a *AutoTools) Env(key, value string) {
	a.env[key] = value
}

// AppendFlag appends a space-separated flag to key. The first append starts
// from the value inherited from the process environment, so prior entries
// are never dropped.
func (a *AutoTools) AppendFlag(key, flag string) {
	cur, ok := a.env[key]
	if !ok {
		cur = os.Getenv(key)
	}
	if cur != "" {
		flag = cur + " " + flag
	}
	a.env[key] = flag
}

// PrependPath prepends value to a PATH-style variable.
func (a *AutoTools) PrependPath(key, value string) {
	sep := ":"
	if runtime.GOOS == "windows" {
		sep = ";"
	}
	cur, ok := a.env[key]
	if !ok {
		cur = os.Getenv(key)
	}
	if cur != "" {
		value += sep + cur
	}
	a.env[key] = value
}

// Overrides returns a copy of the scoped environment changes.
func (a *AutoTools) Overrides() map[string]string {
	return maps.Clone(a.env)
}

// Environ returns the full environment spawned commands run with.
func (a *AutoTools) Environ() []string {
	return buildsys.MergeEnv(os.Environ(), a.env)
}

// Configure runs the configure script inside the build directory.
// args are passed verbatim, in order.
func (a *AutoTools) Configure(ctx context.Context, args ...string) error {
	return a.run(ctx, "configure", a.script, args)
}

// Build runs "make" with the given targets.
func (a *AutoTools) Build(ctx context.Context, targets ...string) error {
	return a.run(ctx, "build", "make", targets)
}

// Install runs "make install" with optional extra arguments appended.
func (a *AutoTools) Install(ctx context.Context, args ...string) error {
	return a.run(ctx, "install", "make", append([]string{"install"}, args...))
}

// OutputDir returns where installed artifacts land: installDir if set,
// otherwise buildDir.
func (a *AutoTools) OutputDir() string {
	if a.installDir != "" {
		return a.installDir
	}
	return a.buildDir
}

func (a *AutoTools) workDir() string {
	if a.buildDir == "" {
		return "."
	}
	return a.buildDir
}

func (a *AutoTools) run(ctx context.Context, step, name string, args []string) error {
	res, err := a.runner.Run(ctx, buildsys.Cmd{
		Name:   name,
		Args:   args,
		Dir:    a.workDir(),
		Env:    a.Environ(),
		Stdout: a.stdout,
		Stderr: a.stderr,
	})
	if err != nil {
		return &buildsys.StepError{Step: step, ExitCode: -1, Err: err}
	}
	if !res.Success() {
		return &buildsys.StepError{Step: step, ExitCode: res.ExitCode}
	}
	return nil
}
