package formula

import (
	"slices"
	"strings"
)

// FlagPrefix prefixes every option on the command line.
const FlagPrefix = "--with-"

// Option is a user-toggleable build option. Options are off unless requested.
type Option struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	// Enable is emitted when the option is requested, Disable when it is not.
	// Disable exists for components the native build turns on by default.
	Enable  []string `yaml:"enable,omitempty"`
	Disable []string `yaml:"disable,omitempty"`

	// Tools marks the option that triggers the extra tools build.
	Tools bool `yaml:"tools,omitempty"`
}

// Flag returns the command-line flag of the option, e.g. "--with-tools".
func (o Option) Flag() string {
	return FlagPrefix + o.Name
}

// Options is the closed, ordered set of options a package declares.
type Options []Option

// Lookup returns the option named name.
func (r Options) Lookup(name string) (Option, bool) {
	i := slices.IndexFunc(r, func(o Option) bool { return o.Name == name })
	if i < 0 {
		return Option{}, false
	}
	return r[i], true
}

// IsRequested reports whether inv explicitly requested the option behind
// flag. flag may be given as "--with-name" or as the bare name. Options
// outside the declared set are never requested.
func (r Options) IsRequested(flag string, inv Invocation) bool {
	name := strings.TrimPrefix(flag, FlagPrefix)
	if _, ok := r.Lookup(name); !ok {
		return false
	}
	return inv.Requested(name)
}

// -----------------------------------------------------------------------------

// Invocation is the set of toggles given for one build. It is built once at
// the command-line boundary and passed by value from there on.
type Invocation struct {
	with []string
	// Head requests a build from the unreleased source snapshot.
	Head bool
}

// NewInvocation returns an Invocation requesting the named options.
func NewInvocation(head bool, with ...string) Invocation {
	names := slices.Clone(with)
	for i, name := range names {
		names[i] = strings.TrimPrefix(name, FlagPrefix)
	}
	slices.Sort(names)
	return Invocation{with: slices.Compact(names), Head: head}
}

// Requested reports whether the named option was requested.
func (inv Invocation) Requested(name string) bool {
	_, ok := slices.BinarySearch(inv.with, name)
	return ok
}

// With returns the requested option names in sorted order.
func (inv Invocation) With() []string {
	return slices.Clone(inv.with)
}
