package formula

import (
	"strings"

	"github.com/qiniu/x/gsh"
)

const GopPackage = true

// -----------------------------------------------------------------------------

// PackageF is the classfile form of a package declaration. Each top-level
// command of a *_cellar.gox file fills one part of the Package.
type PackageF struct {
	gsh.App

	decl Package
}

func (p *PackageF) app() *gsh.App {
	return &p.App
}

// Name sets the package name. It defaults to the file name.
func (p *PackageF) Name(name string) {
	p.decl.Name = name
}

func (p *PackageF) Homepage(url string) {
	p.decl.Homepage = url
}

// Url sets the release tarball location.
func (p *PackageF) Url(url string) {
	p.decl.URL = url
}

// Version sets the release version.
func (p *PackageF) Version(ver string) {
	p.decl.Version = ver
}

// Head sets the repository of the unreleased source snapshot.
func (p *PackageF) Head(url string) {
	p.decl.Head = url
}

func (p *PackageF) FailsWith(compilers ...string) {
	p.decl.FailsWith = append(p.decl.FailsWith, compilers...)
}

func (p *PackageF) Env(presets ...string) {
	p.decl.Env = append(p.decl.Env, presets...)
}

// -----------------------------------------------------------------------------

// Script sets the configure script, "./configure" by default.
func (p *PackageF) Script(path string) {
	p.decl.Configure.Script = path
}

// Base appends to the arguments every configure run starts with.
func (p *PackageF) Base(args ...string) {
	p.decl.Configure.Base = append(p.decl.Configure.Base, args...)
}

func (p *PackageF) CompilerFlag(flag string) {
	p.decl.Configure.CompilerFlag = flag
}

// Depends declares a direct dependency of the given kind.
func (p *PackageF) Depends(name, kind string, flags ...string) {
	p.decl.Dependencies = append(p.decl.Dependencies, Dependency{Name: name, Kind: Kind(kind), Flags: flags})
}

// DependsIf declares a dependency that only exists when option is requested.
func (p *PackageF) DependsIf(option, name, kind string, flags ...string) {
	p.decl.Dependencies = append(p.decl.Dependencies, Dependency{Name: name, Kind: Kind(kind), Flags: flags, Option: option})
}

// Option declares an option emitting enable when requested.
func (p *PackageF) Option(name, description string, enable ...string) {
	p.decl.Options = append(p.decl.Options, Option{Name: name, Description: description, Enable: enable})
}

// OptionDisable declares an option emitting disable when not requested.
func (p *PackageF) OptionDisable(name, description string, disable ...string) {
	p.decl.Options = append(p.decl.Options, Option{Name: name, Description: description, Disable: disable})
}

// ToolsOption declares the option that triggers the tools build.
func (p *PackageF) ToolsOption(name, description string) {
	p.decl.Options = append(p.decl.Options, Option{Name: name, Description: description, Tools: true})
}

func (p *PackageF) Tools(target, dir string) {
	p.decl.Tools = Tools{Target: target, Dir: dir}
}

// PlatformArgs adds configure arguments forced when any of the
// comma-separated predicates in when holds.
func (p *PackageF) PlatformArgs(when string, args ...string) {
	p.decl.PlatformFlags = append(p.decl.PlatformFlags, PlatformFlags{When: splitList(when), Args: args})
}

// PlatformCflags is PlatformArgs for compiler flags.
func (p *PackageF) PlatformCflags(when string, cflags ...string) {
	p.decl.PlatformFlags = append(p.decl.PlatformFlags, PlatformFlags{When: splitList(when), CFlags: cflags})
}

// Patch removes remove from the make variable variable of file.
func (p *PackageF) Patch(file, variable, remove string, when ...string) {
	p.decl.Patches = append(p.decl.Patches, Patch{File: file, Var: variable, Remove: remove, When: when})
}

func (p *PackageF) VersionFile(name, script, match, prefix, placeholder string) {
	p.decl.VersionFile = VersionFile{Name: name, Script: script, Match: match, Prefix: prefix, Placeholder: placeholder}
}

func (p *PackageF) BuildTarget(target string) {
	p.decl.BuildTarget = target
}

func splitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// -----------------------------------------------------------------------------

// Gopt_PackageF_Main is main entry of this classfile.
func Gopt_PackageF_Main(this interface {
	app() *gsh.App
	MainEntry()
}) {
	this.MainEntry()
	gsh.InitApp(this.app())
}
