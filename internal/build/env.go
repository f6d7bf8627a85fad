package build

import (
	"os"

	"github.com/goplus/cellar/formula"
	"github.com/goplus/cellar/internal/configure"
	"github.com/goplus/cellar/pkgs/buildsys/autotools"
)

// x11Root is where the X11 headers and libraries are expected.
var x11Root = "/usr/X11"

// prepareEnv sets the compiler, the environment presets and the platform
// compiler flags. Changes live in at and only reach the commands it runs.
func (b *Builder) prepareEnv(at *autotools.AutoTools, pkg *formula.Package, ctx formula.Context) {
	if ctx.Compiler != "" {
		at.Env("CC", ctx.Compiler)
	}
	for _, preset := range pkg.Env {
		switch preset {
		case formula.EnvX11:
			if _, err := os.Stat(x11Root); err != nil {
				b.opts.Logger.Warn("X11 not found, the build may fail", "dir", x11Root)
			}
			at.PrependPath("PKG_CONFIG_PATH", x11Root+"/share/pkgconfig")
			at.PrependPath("PKG_CONFIG_PATH", x11Root+"/lib/pkgconfig")
			at.AppendFlag("LDFLAGS", "-L"+x11Root+"/lib")
			at.AppendFlag("CPPFLAGS", "-I"+x11Root+"/include")
		}
	}
	for _, flag := range configure.CFlags(pkg, ctx) {
		at.AppendFlag("CFLAGS", flag)
	}
}
