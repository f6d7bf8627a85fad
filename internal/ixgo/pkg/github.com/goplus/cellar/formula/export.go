// export by github.com/goplus/ixgo/cmd/qexp

package formula

import (
	q "github.com/goplus/cellar/formula"

	"go/constant"
	"reflect"

	"github.com/goplus/ixgo"
)

func init() {
	ixgo.RegisterPackage(&ixgo.Package{
		Name: "formula",
		Path: "github.com/goplus/cellar/formula",
		Deps: map[string]string{
			"errors":                                 "errors",
			"github.com/goplus/cellar/pkgs/platform": "platform",
			"github.com/qiniu/x/gsh":                 "gsh",
			"go.trai.ch/zerr":                        "zerr",
			"golang.org/x/mod/semver":                "semver",
			"io":                                     "io",
			"io/fs":                                  "fs",
			"os":                                     "os",
			"path/filepath":                          "filepath",
			"slices":                                 "slices",
			"strings":                                "strings",
		},
		Interfaces: map[string]reflect.Type{},
		NamedTypes: map[string]reflect.Type{
			"Package":  reflect.TypeOf((*q.Package)(nil)).Elem(),
			"PackageF": reflect.TypeOf((*q.PackageF)(nil)).Elem(),
			"Project":  reflect.TypeOf((*q.Project)(nil)).Elem(),
		},
		AliasTypes: map[string]reflect.Type{},
		Vars: map[string]reflect.Value{
			"Presets": reflect.ValueOf(&q.Presets),
		},
		Funcs: map[string]reflect.Value{
			"Gopt_PackageF_Main": reflect.ValueOf(q.Gopt_PackageF_Main),
			"NewProject":         reflect.ValueOf(q.NewProject),
		},
		TypedConsts: map[string]ixgo.TypedConst{},
		UntypedConsts: map[string]ixgo.UntypedConst{
			"EnvX11":     {"untyped string", constant.MakeString(string(q.EnvX11))},
			"FlagPrefix": {"untyped string", constant.MakeString(string(q.FlagPrefix))},
			"GopPackage": {"untyped bool", constant.MakeBool(bool(q.GopPackage))},
		},
	})
}
