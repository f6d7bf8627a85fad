package formula

import (
	"fmt"
	"go/ast"
	"go/token"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"unsafe"

	"github.com/goplus/cellar/formula"
	"github.com/goplus/ixgo"
	"github.com/goplus/ixgo/xgobuild"
	"go.trai.ch/zerr"

	_ "github.com/goplus/cellar/internal/ixgo"
)

// loadMu serializes interpreter loading; ixgo is not safe for concurrent
// builds.
var loadMu sync.Mutex

// loadClass builds and runs the classfile at path and returns the package it
// declares, before defaults and validation.
func loadClass(path string, content []byte) (*formula.Package, error) {
	structName := strings.TrimSuffix(filepath.Base(path), ClassExt)
	if !token.IsIdentifier(structName) {
		return nil, zerr.With(ErrInvalidName, "name", structName)
	}

	loadMu.Lock()
	defer loadMu.Unlock()

	ctx := ixgo.NewContext(0)
	source, err := xgobuild.BuildFile(ctx, path, content)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	pkgs, err := ctx.LoadFile("main.go", source)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	interp, err := ctx.NewInterp(pkgs)
	if err != nil {
		return nil, err
	}
	if err = interp.RunInit(); err != nil {
		return nil, err
	}
	typ, ok := interp.GetType(structName)
	if !ok {
		return nil, zerr.With(ErrDecode, "class", structName)
	}
	val := reflect.New(typ)
	val.Interface().(interface{ Main() }).Main()

	pkg := valueOf(val.Elem(), "decl").(formula.Package)
	return &pkg, nil
}

// valueOf returns the named field of a struct element, exported or not.
func valueOf(elem reflect.Value, name string) any {
	field := elem.FieldByName(name)
	if ast.IsExported(name) {
		return field.Interface()
	}
	return reflect.NewAt(field.Type(), unsafe.Pointer(field.UnsafeAddr())).Elem().Interface()
}
