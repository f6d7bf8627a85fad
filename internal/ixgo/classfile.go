package ixgo

import (
	"github.com/goplus/ixgo/xgobuild"
	"github.com/goplus/mod/modfile"

	_ "github.com/goplus/cellar/internal/ixgo/pkg/github.com/goplus/cellar/formula"
	_ "github.com/goplus/cellar/internal/ixgo/pkg/github.com/qiniu/x/gsh"
)

func init() {
	xgobuild.RegisterProject(&modfile.Project{
		Ext:   "_cellar.gox",
		Class: "PackageF",
		PkgPaths: []string{
			"github.com/goplus/cellar/formula",
		},
	})
}
