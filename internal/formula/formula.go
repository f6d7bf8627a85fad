package formula

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/goplus/cellar/formula"
	"github.com/goplus/cellar/internal/env"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

const (
	// Ext is the file extension of package declarations.
	Ext = ".yaml"

	// ClassExt is the file suffix of package declarations written as XGo
	// classfiles. The part before it must be a Go identifier.
	ClassExt = "_cellar.gox"
)

var (
	// ErrNotFound is returned when no declaration exists for a package name.
	ErrNotFound = errors.New("formula not found")

	// ErrInvalidName is returned for a package name that cannot name a file in the formula directory.
	ErrInvalidName = errors.New("invalid formula name")

	// ErrNameMismatch is returned when a declaration's name differs from its file name.
	ErrNameMismatch = errors.New("formula name does not match its file name")

	// ErrDecode is returned when a declaration is not valid YAML, has unknown
	// fields or is a classfile that does not build.
	ErrDecode = errors.New("failed to decode formula")
)

// Dir returns the directory where package declarations are stored.
// It creates the directory with 0700 permissions if it doesn't exist.
// The directory is located at <WorkDir>/formulas.
func Dir() (string, error) {
	return env.FormulaDir()
}

// Parse decodes a declaration, fills in defaults and validates it.
// Unknown fields are rejected.
func Parse(data []byte) (*formula.Package, error) {
	return parse(data, "")
}

func parse(data []byte, file string) (*formula.Package, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var pkg formula.Package
	if err := dec.Decode(&pkg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return finish(&pkg, file)
}

// finish checks the declared name against the file it came from, fills in
// defaults and validates pkg.
func finish(pkg *formula.Package, file string) (*formula.Package, error) {
	if file != "" {
		name := stem(file)
		if pkg.Name == "" {
			pkg.Name = name
		}
		if pkg.Name != name {
			return nil, zerr.With(zerr.With(ErrNameMismatch, "name", pkg.Name), "file", file)
		}
	}
	pkg.SetDefaults()
	if err := pkg.Validate(); err != nil {
		return nil, err
	}
	return pkg, nil
}

func stem(file string) string {
	if name, ok := strings.CutSuffix(file, ClassExt); ok {
		return name
	}
	return strings.TrimSuffix(file, Ext)
}

// LoadFS loads the declaration at path in fsys, a classfile when path ends
// in ClassExt and YAML otherwise. The package name defaults to the file name
// without its extension and must match it when given.
func LoadFS(fsys fs.FS, path string) (*formula.Package, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, err
	}
	file := filepath.Base(path)
	var pkg *formula.Package
	if strings.HasSuffix(file, ClassExt) {
		pkg, err = loadClass(path, data)
		if err == nil {
			pkg, err = finish(pkg, file)
		}
	} else {
		pkg, err = parse(data, file)
	}
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}
	return pkg, nil
}

// Load loads the declaration file at path.
func Load(path string) (*formula.Package, error) {
	return LoadFS(os.DirFS(filepath.Dir(path)), filepath.Base(path))
}

// Find loads the declaration of the named package from the formula directory.
func Find(name string) (*formula.Package, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	return FindIn(dir, name)
}

// FindIn loads the declaration of the named package from dir.
func FindIn(dir, name string) (*formula.Package, error) {
	if !fs.ValidPath(name) || strings.Contains(name, "/") || name == "." {
		return nil, zerr.With(ErrInvalidName, "name", name)
	}
	fsys := os.DirFS(dir)
	pkg, err := LoadFS(fsys, name+Ext)
	if errors.Is(err, fs.ErrNotExist) {
		pkg, err = LoadFS(fsys, name+ClassExt)
	}
	if errors.Is(err, fs.ErrNotExist) {
		return nil, zerr.With(zerr.With(ErrNotFound, "name", name), "dir", dir)
	}
	return pkg, err
}

// Resolve loads a declaration named on the command line: a path when arg
// ends in a declaration extension or contains a path separator, a package
// name otherwise.
func Resolve(arg string) (*formula.Package, error) {
	if strings.HasSuffix(arg, Ext) || strings.HasSuffix(arg, ClassExt) || strings.ContainsRune(arg, filepath.Separator) {
		return Load(arg)
	}
	return Find(arg)
}

// List returns the names of the packages declared in dir, sorted. A name
// declared in both forms is listed once.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if n := e.Name(); strings.HasSuffix(n, Ext) || strings.HasSuffix(n, ClassExt) {
			names = append(names, stem(n))
		}
	}
	slices.Sort(names)
	return slices.Compact(names), nil
}
