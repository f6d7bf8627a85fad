// Package env resolves the on-disk locations and host defaults cellar uses.
package env

import (
	"os"
	"path/filepath"
)

const (
	// RootEnv overrides the cellar work directory.
	RootEnv = "CELLAR_ROOT"
	// CompilerEnv selects the C compiler, as with make.
	CompilerEnv = "CC"
	// GitEnv selects the git executable used to describe head sources.
	GitEnv = "CELLAR_GIT"

	defaultCompiler = "cc"
	defaultGit      = "git"
)

// WorkDir returns $CELLAR_ROOT, or <UserCacheDir>/.cellar when unset.
func WorkDir() (string, error) {
	if root := os.Getenv(RootEnv); root != "" {
		return filepath.Abs(root)
	}
	userCacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(userCacheDir, ".cellar"), nil
}

// CellarDir returns the directory holding installed kegs: <WorkDir>/Cellar.
func CellarDir() (string, error) {
	return subdir("Cellar")
}

// FormulaDir returns the directory holding package declarations: <WorkDir>/formulas.
func FormulaDir() (string, error) {
	return subdir("formulas")
}

// Prefix returns the keg a package version installs into.
func Prefix(cellarDir, name, version string) string {
	return filepath.Join(cellarDir, name, version)
}

// Compiler returns $CC, or "cc" when unset.
func Compiler() string {
	if cc := os.Getenv(CompilerEnv); cc != "" {
		return cc
	}
	return defaultCompiler
}

// Git returns $CELLAR_GIT, or "git" when unset.
func Git() string {
	if git := os.Getenv(GitEnv); git != "" {
		return git
	}
	return defaultGit
}

// subdir returns <WorkDir>/name, creating it with 0700 permissions.
func subdir(name string) (string, error) {
	root, err := WorkDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", err
	}
	return dir, nil
}
