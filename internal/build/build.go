// Package build runs the configure, patch, version, install and tools
// steps of a single package build.
package build

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"time"

	"github.com/goplus/cellar/formula"
	"github.com/goplus/cellar/internal/configure"
	"github.com/goplus/cellar/internal/deps"
	"github.com/goplus/cellar/internal/headver"
	"github.com/goplus/cellar/internal/logger"
	"github.com/goplus/cellar/internal/vcs"
	"github.com/goplus/cellar/pkgs/buildsys"
	"github.com/goplus/cellar/pkgs/buildsys/autotools"
	"github.com/goplus/cellar/pkgs/inreplace"
	"go.trai.ch/zerr"
)

var (
	// ErrNoHead is returned for a head build of a package that declares no head source.
	ErrNoHead = errors.New("package has no head source")

	// ErrMissingDependency is returned by strict builds when a required or
	// build dependency is absent.
	ErrMissingDependency = errors.New("missing dependency")

	// ErrNoCompiler is returned when every candidate compiler is known to fail.
	ErrNoCompiler = errors.New("no usable compiler")
)

// DefaultCompilers are the fallbacks tried, in order, when the selected
// compiler is listed in a package's fails_with.
var DefaultCompilers = []string{"clang", "gcc"}

// Options configures a Builder.
type Options struct {
	Runner buildsys.Runner
	Query  deps.Query
	VCS    vcs.VCS
	Logger logger.Logger

	// Stdout and Stderr receive a copy of the output of every build command.
	Stdout io.Writer
	Stderr io.Writer

	// Compilers overrides DefaultCompilers.
	Compilers []string

	// Strict fails a build whose required or build dependencies are absent.
	// Otherwise the absence is logged and the build goes ahead.
	Strict bool
}

// Builder executes builds. Builds are sequential; a Builder keeps no state
// between them.
type Builder struct {
	opts Options
}

// NewBuilder returns a Builder. A nil Runner runs real processes, a nil
// Query treats every dependency as absent and a nil VCS uses git.
func NewBuilder(opts Options) *Builder {
	if opts.Runner == nil {
		opts.Runner = buildsys.ExecRunner{}
	}
	if opts.Query == nil {
		opts.Query = deps.NewSet()
	}
	if opts.VCS == nil {
		opts.VCS = vcs.NewGitVCS(vcs.WithRunner(opts.Runner))
	}
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	if len(opts.Compilers) == 0 {
		opts.Compilers = DefaultCompilers
	}
	return &Builder{opts: opts}
}

// Request is one build.
type Request struct {
	Package    *formula.Package
	Invocation formula.Invocation
	// Context.WorkDir must hold a build copy of the source; the build
	// modifies it in place.
	Context formula.Context
	// Force rebuilds even when the prefix holds a receipt for an identical
	// build.
	Force bool
}

// Result describes a finished build.
type Result struct {
	Args []string
	// Fingerprint identifies the build: the arguments, the compiler, the
	// platform, the compiler flags, the presets and the requested options.
	Fingerprint uint64
	Compiler    string
	// Version is set for head builds.
	Version *headver.Record
	// Tools are the installed tool executables.
	Tools []string
	// Cached reports that the build was skipped because the prefix was
	// already built with the same fingerprint.
	Cached bool
}

// Plan returns the configure arguments of req and the compiler they were
// derived for, without running anything.
func (b *Builder) Plan(req Request) ([]string, string, error) {
	pkg, inv := req.Package, req.Invocation
	if inv.Head && pkg.Head == "" {
		return nil, "", zerr.With(ErrNoHead, "package", pkg.Name)
	}
	cc, err := selectCompiler(req.Context.Compiler, pkg.FailsWith, b.opts.Compilers)
	if err != nil {
		return nil, "", err
	}
	for _, d := range pkg.Dependencies {
		if d.Kind == formula.Optional || !d.Active(inv) || b.opts.Query.Present(d.Name) {
			continue
		}
		if b.opts.Strict {
			return nil, "", zerr.With(zerr.With(ErrMissingDependency, "dependency", d.Name), "kind", string(d.Kind))
		}
		b.opts.Logger.Warn("dependency not installed", "package", pkg.Name, "dependency", d.Name, "kind", string(d.Kind))
	}
	ctx := req.Context
	ctx.Compiler = cc
	return configure.Builder{Query: b.opts.Query}.Build(pkg, inv, ctx), cc, nil
}

// Build runs the build described by req. Configure, build and install
// failures are returned as *buildsys.StepError and abort the build.
func (b *Builder) Build(ctx context.Context, req Request) (*Result, error) {
	pkg, inv, bctx := req.Package, req.Invocation, req.Context
	log := b.opts.Logger

	args, cc, err := b.Plan(req)
	if err != nil {
		return nil, err
	}
	if bctx.Compiler != "" && cc != bctx.Compiler {
		log.Warn("compiler is known to fail, falling back", "package", pkg.Name, "from", bctx.Compiler, "to", cc)
	}
	bctx.Compiler = cc
	res := &Result{Args: args, Fingerprint: configure.Fingerprint(buildKey(pkg, inv, bctx, args)), Compiler: cc}

	if !inv.Head && !req.Force {
		if r, err := loadReceipt(bctx.Prefix); err == nil && r.Fingerprint == fingerprintHex(res.Fingerprint) {
			log.Info("already built", "package", pkg.Name, "prefix", bctx.Prefix)
			res.Cached = true
			return res, nil
		}
	}

	at := autotools.New(b.opts.Runner, bctx.WorkDir, bctx.Prefix)
	at.Script(pkg.Configure.Script)
	at.Output(b.opts.Stdout, b.opts.Stderr)
	b.prepareEnv(at, pkg, bctx)

	log.Info("configure", "package", pkg.Name, "fingerprint", fingerprintHex(res.Fingerprint))
	if err := at.Configure(ctx, args...); err != nil {
		return nil, err
	}

	if err := b.applyPatches(pkg, bctx); err != nil {
		return nil, err
	}

	if inv.Head {
		resolver := &headver.Resolver{Runner: b.opts.Runner, VCS: b.opts.VCS, Logger: log}
		rec, err := resolver.Resolve(ctx, pkg.VersionFile, bctx.WorkDir, bctx.PristineDir)
		if err != nil {
			return nil, err
		}
		log.Info("head version", "version", rec.Value, "source", string(rec.Source))
		res.Version = &rec
	}

	if pkg.BuildTarget != "" {
		if err := at.Build(ctx, pkg.BuildTarget); err != nil {
			return nil, err
		}
	}
	log.Info("install", "package", pkg.Name, "prefix", bctx.Prefix)
	if err := at.Install(ctx); err != nil {
		return nil, err
	}

	if pkg.ToolsRequested(inv) {
		if err := at.Build(ctx, pkg.Tools.Target); err != nil {
			return nil, fmt.Errorf("tools: %w", err)
		}
		tools, err := installExecutables(filepath.Join(bctx.WorkDir, pkg.Tools.Dir), filepath.Join(at.OutputDir(), "bin"))
		if err != nil {
			return nil, fmt.Errorf("tools: %w", err)
		}
		res.Tools = tools
	}

	r := newReceipt(pkg, inv, bctx, res, time.Now())
	r.Dependencies = b.installedDependencies(pkg, inv)
	r.Env = at.Overrides()
	if err := saveReceipt(bctx.Prefix, r); err != nil {
		log.Warn("could not write install receipt", "prefix", bctx.Prefix, "error", err)
	}
	return res, nil
}

// buildKey lists everything besides the source that shapes what a build
// installs. Builds with equal keys produce the same keg.
func buildKey(pkg *formula.Package, inv formula.Invocation, ctx formula.Context, args []string) []string {
	key := slices.Clone(args)
	key = append(key, "cc="+ctx.Compiler, "platform="+ctx.Platform.String())
	for _, f := range configure.CFlags(pkg, ctx) {
		key = append(key, "cflags="+f)
	}
	for _, e := range pkg.Env {
		key = append(key, "env="+e)
		if e == formula.EnvX11 {
			key = append(key, "x11="+x11Root)
		}
	}
	for _, name := range inv.With() {
		key = append(key, "with="+name)
	}
	return key
}

// installedDependencies returns the installed version of every active
// dependency, when the query can tell.
func (b *Builder) installedDependencies(pkg *formula.Package, inv formula.Invocation) map[string]string {
	kegs, ok := b.opts.Query.(deps.Versioned)
	if !ok {
		return nil
	}
	installed := make(map[string]string)
	for _, d := range pkg.Dependencies {
		if !d.Active(inv) {
			continue
		}
		if v, ok := kegs.Latest(d.Name); ok {
			installed[d.Name] = v
		}
	}
	return installed
}

// applyPatches rewrites files generated by configure. A patch whose text
// is already absent is a no-op.
func (b *Builder) applyPatches(pkg *formula.Package, ctx formula.Context) error {
	proj := formula.NewProject(ctx.WorkDir)
	for _, pt := range pkg.Patches {
		if !ctx.Platform.MatchAny(pt.When) {
			continue
		}
		data, err := proj.ReadFile(pt.File)
		if err != nil {
			return fmt.Errorf("patch %s: %w", pt.File, err)
		}
		var (
			content string
			changed bool
		)
		if pt.Var != "" {
			content, changed = inreplace.RemoveFromMakeVar(string(data), pt.Var, pt.Remove)
		} else {
			content, changed = inreplace.RemoveOnce(string(data), pt.Remove)
		}
		if !changed {
			continue
		}
		if err := proj.WriteFile(pt.File, []byte(content)); err != nil {
			return fmt.Errorf("patch %s: %w", pt.File, err)
		}
		if pt.Var == "" {
			b.opts.Logger.Info("patched", "file", pt.File)
			continue
		}
		value, _ := inreplace.MakeVar(content, pt.Var)
		b.opts.Logger.Info("patched", "file", pt.File, "var", pt.Var, "value", value)
	}
	return nil
}

// selectCompiler returns cc unless fails lists it, in which case the first
// candidate not listed is chosen.
func selectCompiler(cc string, fails, candidates []string) (string, error) {
	known := func(c string) bool { return slices.Contains(fails, filepath.Base(c)) }
	if cc != "" && !known(cc) {
		return cc, nil
	}
	for _, c := range candidates {
		if !known(c) {
			return c, nil
		}
	}
	return "", zerr.With(ErrNoCompiler, "compiler", cc)
}

func fingerprintHex(fp uint64) string {
	return fmt.Sprintf("%016x", fp)
}
