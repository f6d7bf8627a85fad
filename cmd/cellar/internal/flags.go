package internal

import (
	"errors"
	"io"
	"slices"
	"strings"

	"github.com/goplus/cellar/formula"
	"github.com/spf13/pflag"
)

// invocation is one build request as given on the command line.
type invocation struct {
	formula string
	head    bool
	verbose bool
	json    bool
	force   bool
	strict  bool
	help    bool

	prefix   string
	cc       string
	source   string
	buildDir string

	// with holds the requested options, in declared order.
	with  []string
	flags *pflag.FlagSet
}

func newFlagSet(name string, inv *invocation) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.BoolVar(&inv.head, "HEAD", false, "Build from the head source instead of the release")
	fs.BoolVarP(&inv.verbose, "verbose", "v", false, "Show the output of the build commands")
	fs.BoolVar(&inv.json, "json", false, "Log in JSON")
	fs.BoolVar(&inv.force, "force", false, "Rebuild even when already built the same way")
	fs.BoolVar(&inv.strict, "strict", false, "Fail when a required or build dependency is not installed")
	fs.BoolVarP(&inv.help, "help", "h", false, "Show help")
	fs.StringVar(&inv.prefix, "prefix", "", "Install prefix (default <cellar>/<name>/<version>)")
	fs.StringVar(&inv.cc, "cc", "", "C compiler (default $CC, or cc)")
	fs.StringVar(&inv.source, "source", ".", "Pristine source directory")
	fs.StringVar(&inv.buildDir, "build-dir", "", "Build in this copy of the source instead of a temporary one")
	return fs
}

// parseInvocation parses args in two passes. The first finds the formula,
// the second registers its options as --with-<name> flags so that only
// declared options are accepted.
func parseInvocation(name string, args []string, load func(string) (*formula.Package, error)) (*invocation, *formula.Package, error) {
	var scan invocation
	fs := newFlagSet(name, &scan)
	if err := fs.Parse(slices.DeleteFunc(slices.Clone(args), isOptionFlag)); err != nil {
		return nil, nil, err
	}
	if fs.NArg() == 0 {
		if scan.help {
			scan.flags = fs
			return &scan, nil, nil
		}
		return nil, nil, errors.New("requires a formula name or file")
	}
	if fs.NArg() > 1 {
		return nil, nil, errors.New("accepts exactly one formula")
	}

	pkg, err := load(fs.Arg(0))
	if err != nil {
		return nil, nil, err
	}

	inv := &invocation{formula: fs.Arg(0)}
	fs = newFlagSet(name, inv)
	requested := make([]*bool, len(pkg.Options))
	for i, o := range pkg.Options {
		requested[i] = fs.Bool(strings.TrimPrefix(o.Flag(), "--"), false, o.Description)
	}
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	for i, o := range pkg.Options {
		if *requested[i] {
			inv.with = append(inv.with, o.Name)
		}
	}
	inv.flags = fs
	return inv, pkg, nil
}

func isOptionFlag(arg string) bool {
	return strings.HasPrefix(arg, formula.FlagPrefix)
}

// Invocation returns the toggles handed to the build.
func (inv *invocation) Invocation() formula.Invocation {
	return formula.NewInvocation(inv.head, inv.with...)
}
