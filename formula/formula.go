package formula

import (
	"slices"
	"strings"

	"github.com/goplus/cellar/pkgs/platform"
	"go.trai.ch/zerr"
	"golang.org/x/mod/semver"
)

// EnvX11 is the environment preset pointing the build at the X11 headers,
// libraries and pkg-config files.
const EnvX11 = "x11"

// Presets lists the known environment presets.
var Presets = []string{EnvX11}

// -----------------------------------------------------------------------------

// Kind is the capacity in which a package depends on another.
type Kind string

const (
	Required  Kind = "required"
	BuildOnly Kind = "build"
	Optional  Kind = "optional"
)

// Dependency is one direct dependency of a package.
type Dependency struct {
	Name string `yaml:"name"`
	Kind Kind   `yaml:"kind"`

	// Flags are configure arguments tied to the dependency. They are emitted
	// unconditionally for required and build dependencies, and only when the
	// dependency is present for optional ones.
	Flags []string `yaml:"flags,omitempty"`

	// Option gates the dependency: it only exists when that option is requested.
	Option string `yaml:"option,omitempty"`
}

// Active reports whether d takes part in a build requested by inv.
func (d Dependency) Active(inv Invocation) bool {
	return d.Option == "" || inv.Requested(d.Option)
}

// -----------------------------------------------------------------------------

// Configure describes the native configure step.
type Configure struct {
	Script string   `yaml:"script,omitempty"`
	Base   []string `yaml:"base,omitempty"`

	// CompilerFlag, when set, emits "<CompilerFlag>=<compiler>" after Base.
	CompilerFlag string `yaml:"compiler_flag,omitempty"`
}

// PlatformFlags are extra flags forced by the host platform. When lists
// platform predicate names; any one holding is enough.
type PlatformFlags struct {
	When   []string `yaml:"when"`
	Args   []string `yaml:"args,omitempty"`
	CFlags []string `yaml:"cflags,omitempty"`
}

// Patch removes Remove from the make variable Var of a file generated by
// configure. An empty Var removes the first occurrence anywhere in the file.
type Patch struct {
	File   string   `yaml:"file"`
	Var    string   `yaml:"var,omitempty"`
	Remove string   `yaml:"remove"`
	When   []string `yaml:"when,omitempty"`
}

// VersionFile controls how head builds record their version.
type VersionFile struct {
	Name        string `yaml:"name,omitempty"`
	Script      string `yaml:"script,omitempty"`
	Match       string `yaml:"match,omitempty"`
	Prefix      string `yaml:"prefix,omitempty"`
	Placeholder string `yaml:"placeholder,omitempty"`
}

// Tools is the extra make target built when a tools option is requested.
type Tools struct {
	Target string `yaml:"target,omitempty"`
	Dir    string `yaml:"dir,omitempty"`
}

// -----------------------------------------------------------------------------

// Package is the build declaration of one source package.
type Package struct {
	Name     string `yaml:"name"`
	Homepage string `yaml:"homepage,omitempty"`
	URL      string `yaml:"url,omitempty"`
	Version  string `yaml:"version,omitempty"`
	Head     string `yaml:"head,omitempty"`

	// FailsWith lists compilers known to miscompile the package.
	FailsWith []string `yaml:"fails_with,omitempty"`
	// Env lists environment presets applied before configure.
	Env []string `yaml:"env,omitempty"`

	Configure     Configure       `yaml:"configure"`
	Dependencies  []Dependency    `yaml:"dependencies,omitempty"`
	Options       Options         `yaml:"options,omitempty"`
	PlatformFlags []PlatformFlags `yaml:"platform_flags,omitempty"`
	Patches       []Patch         `yaml:"patches,omitempty"`
	VersionFile   VersionFile     `yaml:"version_file,omitempty"`

	// BuildTarget is run with make before the install step when set.
	BuildTarget string `yaml:"build_target,omitempty"`
	Tools       Tools  `yaml:"tools,omitempty"`
}

// SetDefaults fills in the conventional values of unset fields.
func (p *Package) SetDefaults() {
	if p.Configure.Script == "" {
		p.Configure.Script = "./configure"
	}
	for i := range p.Dependencies {
		if p.Dependencies[i].Kind == "" {
			p.Dependencies[i].Kind = Required
		}
	}
	vf := &p.VersionFile
	if vf.Name == "" {
		vf.Name = "VERSION"
	}
	if vf.Script == "" {
		vf.Script = "./version.sh"
	}
	if vf.Prefix == "" {
		vf.Prefix = "git-"
	}
	if vf.Placeholder == "" {
		vf.Placeholder = "UNKNOWN"
	}
	if p.Tools.Target == "" {
		p.Tools.Target = "alltools"
	}
	if p.Tools.Dir == "" {
		p.Tools.Dir = "tools"
	}
}

// Validate checks the declaration for internal consistency.
func (p *Package) Validate() error {
	if p.Name == "" {
		return ErrMissingName
	}
	if p.Version != "" && !semver.IsValid("v"+strings.TrimPrefix(p.Version, "v")) {
		return zerr.With(ErrInvalidVersion, "version", p.Version)
	}
	seen := make(map[string]bool, len(p.Options))
	for _, o := range p.Options {
		if !validOptionName(o.Name) {
			return zerr.With(ErrInvalidOptionName, "option", o.Name)
		}
		if seen[o.Name] {
			return zerr.With(ErrDuplicateOption, "option", o.Name)
		}
		seen[o.Name] = true
	}
	for _, d := range p.Dependencies {
		if d.Name == "" {
			return ErrMissingDependencyName
		}
		switch d.Kind {
		case Required, BuildOnly, Optional:
		default:
			return zerr.With(zerr.With(ErrUnknownKind, "dependency", d.Name), "kind", string(d.Kind))
		}
		if d.Option != "" && !seen[d.Option] {
			return zerr.With(zerr.With(ErrUndeclaredOption, "dependency", d.Name), "option", d.Option)
		}
	}
	for _, pt := range p.Patches {
		if pt.File == "" || pt.Remove == "" {
			return zerr.With(ErrInvalidPatch, "file", pt.File)
		}
		if err := checkPredicates(pt.When); err != nil {
			return err
		}
	}
	for _, pf := range p.PlatformFlags {
		if err := checkPredicates(pf.When); err != nil {
			return err
		}
	}
	for _, e := range p.Env {
		if !slices.Contains(Presets, e) {
			return zerr.With(ErrUnknownPreset, "env", e)
		}
	}
	return nil
}

func checkPredicates(names []string) error {
	for _, name := range names {
		if _, ok := platform.Lookup(name); !ok {
			return zerr.With(zerr.With(ErrUnknownPredicate, "when", name), "known", strings.Join(platform.Names(), ", "))
		}
	}
	return nil
}

// ToolsRequested reports whether inv asks for the extra tools build.
func (p *Package) ToolsRequested(inv Invocation) bool {
	return slices.ContainsFunc(p.Options, func(o Option) bool {
		return o.Tools && inv.Requested(o.Name)
	})
}

func validOptionName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_', r == '+':
		default:
			return false
		}
	}
	return true
}
