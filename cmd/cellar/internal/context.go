package internal

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/goplus/cellar/formula"
	"github.com/goplus/cellar/internal/env"
	"github.com/goplus/cellar/pkgs/platform"
)

// headVersion names the keg of head builds.
const headVersion = "HEAD"

// newContext resolves the build context of pkg from the invocation and the
// environment. The returned cleanup removes the temporary build copy, if
// one was made.
func newContext(pkg *formula.Package, inv *invocation, cellarDir string) (formula.Context, func(), error) {
	noop := func() {}

	source, err := filepath.Abs(inv.source)
	if err != nil {
		return formula.Context{}, noop, err
	}
	ctx := formula.Context{
		Prefix:      inv.prefix,
		Compiler:    inv.cc,
		Platform:    platform.Detect(),
		PristineDir: source,
		WorkDir:     inv.buildDir,
	}
	if ctx.Compiler == "" {
		ctx.Compiler = env.Compiler()
	}
	if ctx.Prefix == "" {
		version := pkg.Version
		if inv.head || version == "" {
			version = headVersion
		}
		ctx.Prefix = env.Prefix(cellarDir, pkg.Name, version)
	}
	if ctx.WorkDir != "" {
		return ctx, noop, nil
	}

	work, err := os.MkdirTemp("", pkg.Name+"-")
	if err != nil {
		return formula.Context{}, noop, err
	}
	cleanup := func() { os.RemoveAll(work) }
	// the copy keeps the pristine tree untouched by configure and patches
	if err := copySource(work, source); err != nil {
		cleanup()
		return formula.Context{}, noop, fmt.Errorf("failed to copy source: %w", err)
	}
	ctx.WorkDir = work
	return ctx, cleanup, nil
}

// vcsDirs are left out of build copies; version control runs against the
// pristine tree.
var vcsDirs = []string{".git", ".hg", ".svn"}

// copySource copies the tree at src into dst, which must exist. Symbolic
// links are recreated as links, dangling ones included, and file modes are
// kept.
func copySource(dst, src string) error {
	src, err := filepath.EvalSymlinks(src)
	if err != nil {
		return err
	}
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil || rel == "." {
			return err
		}
		target := filepath.Join(dst, rel)

		switch {
		case d.IsDir():
			if slices.Contains(vcsDirs, d.Name()) {
				return filepath.SkipDir
			}
			return os.MkdirAll(target, 0o755)
		case d.Type()&fs.ModeSymlink != 0:
			if slices.Contains(vcsDirs, d.Name()) {
				return nil
			}
			link, err := os.Readlink(path)
			if err != nil {
				return err
			}
			return os.Symlink(link, target)
		case d.Type().IsRegular():
			if d.Name() == ".git" {
				// worktree and submodule pointer files
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			return copyFile(target, path, info.Mode().Perm())
		}
		// sockets, devices and pipes have no place in a source tree
		return nil
	})
}

func copyFile(dst, src string, perm fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
