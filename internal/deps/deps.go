// Package deps answers whether a dependency is installed on the host.
package deps

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/goplus/cellar/pkgs/gnu"
	"golang.org/x/mod/semver"
)

// Query reports whether the named dependency is present in a form usable
// by the build. Unknown names are absent; Present never fails.
type Query interface {
	Present(name string) bool
}

// Versioned is implemented by queries that know which version of a
// dependency is installed.
type Versioned interface {
	Query
	Latest(name string) (string, bool)
}

// Set is a fixed Query, useful for dry runs and tests.
type Set map[string]bool

// NewSet returns a Set in which exactly names are present.
func NewSet(names ...string) Set {
	s := make(Set, len(names))
	for _, name := range names {
		s[name] = true
	}
	return s
}

func (s Set) Present(name string) bool { return s[name] }

// -----------------------------------------------------------------------------

// Cellar is the Query over an on-disk cellar laid out as
// <root>/<name>/<version>/. A dependency is present when at least one of its
// version directories (kegs) is non-empty.
type Cellar struct {
	root string
}

// NewCellar returns a Cellar rooted at root.
func NewCellar(root string) *Cellar {
	return &Cellar{root: root}
}

func (c *Cellar) Present(name string) bool {
	return len(c.Versions(name)) > 0
}

// Versions returns the installed versions of name, oldest first.
func (c *Cellar) Versions(name string) []string {
	if !validName(name) {
		return nil
	}
	rack := filepath.Join(c.root, name)
	entries, err := os.ReadDir(rack)
	if err != nil {
		return nil
	}
	var versions []string
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		kegs, err := os.ReadDir(filepath.Join(rack, e.Name()))
		if err != nil || len(kegs) == 0 {
			continue
		}
		versions = append(versions, e.Name())
	}
	slices.SortStableFunc(versions, compareVersions)
	return versions
}

var _ Versioned = (*Cellar)(nil)

// Latest returns the newest installed version of name.
func (c *Cellar) Latest(name string) (string, bool) {
	versions := c.Versions(name)
	if len(versions) == 0 {
		return "", false
	}
	return versions[len(versions)-1], true
}

// compareVersions orders semantic versions with semver and everything else
// the way GNU sort -V does.
func compareVersions(a, b string) int {
	sa, sb := "v"+strings.TrimPrefix(a, "v"), "v"+strings.TrimPrefix(b, "v")
	if semver.IsValid(sa) && semver.IsValid(sb) {
		if c := semver.Compare(sa, sb); c != 0 {
			return c
		}
	}
	return gnu.Compare(a, b)
}

func validName(name string) bool {
	return name != "" && name != "." && name != ".." &&
		!strings.ContainsAny(name, `/\`)
}
