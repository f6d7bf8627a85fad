// Package configure synthesizes the argument list of a package's native
// configure step.
package configure

import (
	"github.com/cespare/xxhash/v2"
	"github.com/goplus/cellar/formula"
	"github.com/goplus/cellar/internal/deps"
)

// Builder derives configure arguments. It holds no state besides the
// dependency query it was given; Build is a pure function of its inputs.
type Builder struct {
	Query deps.Query
}

// Build returns the ordered configure arguments for pkg:
//
//  1. base flags: --prefix, the declared base set, the compiler selection
//  2. flags of required and build dependencies, in declared order
//  3. enable flags of optional dependencies that are present, in declared order
//  4. option flags in declared order: Enable when requested, Disable otherwise
//  5. flags forced by the platform
//
// An absent optional dependency contributes nothing. Only dependencies
// active for inv take part.
func (b Builder) Build(pkg *formula.Package, inv formula.Invocation, ctx formula.Context) []string {
	var args []string
	if ctx.Prefix != "" {
		args = append(args, "--prefix="+ctx.Prefix)
	}
	args = append(args, pkg.Configure.Base...)
	if f := pkg.Configure.CompilerFlag; f != "" && ctx.Compiler != "" {
		args = append(args, f+"="+ctx.Compiler)
	}

	for _, d := range pkg.Dependencies {
		if d.Kind != formula.Optional && d.Active(inv) {
			args = append(args, d.Flags...)
		}
	}
	for _, d := range pkg.Dependencies {
		if d.Kind == formula.Optional && d.Active(inv) && b.present(d.Name) {
			args = append(args, d.Flags...)
		}
	}

	for _, o := range pkg.Options {
		if pkg.Options.IsRequested(o.Flag(), inv) {
			args = append(args, o.Enable...)
		} else {
			args = append(args, o.Disable...)
		}
	}

	for _, pf := range pkg.PlatformFlags {
		if ctx.Platform.MatchAny(pf.When) {
			args = append(args, pf.Args...)
		}
	}
	return args
}

func (b Builder) present(name string) bool {
	return b.Query != nil && b.Query.Present(name)
}

// CFlags returns the compiler flags the platform forces on pkg, to be
// appended to the CFLAGS accumulator.
func CFlags(pkg *formula.Package, ctx formula.Context) []string {
	var flags []string
	for _, pf := range pkg.PlatformFlags {
		if ctx.Platform.MatchAny(pf.When) {
			flags = append(flags, pf.CFlags...)
		}
	}
	return flags
}

// Fingerprint hashes an argument list, order included. Equal fingerprints
// mean byte-identical configure invocations.
func Fingerprint(args []string) uint64 {
	d := xxhash.New()
	for _, a := range args {
		_, _ = d.WriteString(a)
		_, _ = d.Write([]byte{0})
	}
	return d.Sum64()
}
