package formula

import "github.com/goplus/cellar/pkgs/platform"

// Context is the environment of one build invocation. It is constructed
// fresh for every build and never persisted.
type Context struct {
	// Prefix is the install location of the package.
	Prefix string
	// Compiler identifies the C compiler, e.g. "clang" or "gcc-4.2".
	Compiler string
	Platform platform.Platform
	// WorkDir is the build copy of the source tree.
	WorkDir string
	// PristineDir is the originally downloaded source tree, kept so that
	// version-control metadata remains queryable.
	PristineDir string
}
