package build

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/goplus/cellar/formula"
)

// Keg layout:
//
//	<prefix>/
//	  INSTALL_RECEIPT.json   # how the keg was built
//	  bin/
//	  lib/
//	  ...
const receiptFile = "INSTALL_RECEIPT.json"

// receipt records how a keg was built. A later build with the same
// fingerprint is skipped.
type receipt struct {
	Name     string   `json:"name"`
	Version  string   `json:"version,omitempty"`
	Head     bool     `json:"head,omitempty"`
	With     []string `json:"with,omitempty"`
	Compiler string   `json:"compiler"`
	Platform string   `json:"platform"`
	Args     []string `json:"args"`
	// Dependencies maps each installed dependency to its keg version.
	Dependencies map[string]string `json:"dependencies,omitempty"`
	// Env holds the environment changes configure and make ran with.
	Env         map[string]string `json:"env,omitempty"`
	Fingerprint string            `json:"fingerprint"`
	BuildTime   time.Time         `json:"build_time"`
}

func newReceipt(pkg *formula.Package, inv formula.Invocation, ctx formula.Context, res *Result, now time.Time) *receipt {
	r := &receipt{
		Name:        pkg.Name,
		Version:     pkg.Version,
		Head:        inv.Head,
		With:        inv.With(),
		Compiler:    res.Compiler,
		Platform:    ctx.Platform.String(),
		Args:        res.Args,
		Fingerprint: fingerprintHex(res.Fingerprint),
		BuildTime:   now,
	}
	if res.Version != nil {
		r.Version = res.Version.Value
	}
	return r
}

// loadReceipt reads the receipt of the keg at prefix.
func loadReceipt(prefix string) (*receipt, error) {
	data, err := os.ReadFile(filepath.Join(prefix, receiptFile))
	if err != nil {
		return nil, err
	}
	var r receipt
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// saveReceipt writes the receipt of the keg at prefix.
func saveReceipt(prefix string, r *receipt) error {
	if err := os.MkdirAll(prefix, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(prefix, receiptFile), data, 0o644)
}
