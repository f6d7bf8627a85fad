// Package platform describes the host a package is built on.
package platform

import (
	"fmt"
	"runtime"
	"slices"
	"strconv"
	"strings"
)

// Platform is the host descriptor consulted by platform-gated flags and patches.
type Platform struct {
	OS       string
	Arch     string
	WordSize int
	// OSMajor is the major kernel release, 0 when unknown.
	OSMajor int
}

// Detect returns the descriptor of the running host.
func Detect() Platform {
	return Platform{
		OS:       runtime.GOOS,
		Arch:     runtime.GOARCH,
		WordSize: strconv.IntSize,
		OSMajor:  kernelMajor(),
	}
}

// Legacy reports whether the host is in the legacy OS tier.
// Darwin 9 and older kernels belong to it.
func (p Platform) Legacy() bool {
	return p.OS == "darwin" && p.OSMajor > 0 && p.OSMajor <= 9
}

func (p Platform) String() string {
	return fmt.Sprintf("%s/%s %d-bit (kernel %d)", p.OS, p.Arch, p.WordSize, p.OSMajor)
}

// Predicate is a named condition over a Platform.
type Predicate func(Platform) bool

var predicates = map[string]Predicate{
	"32-bit":    func(p Platform) bool { return p.WordSize == 32 },
	"64-bit":    func(p Platform) bool { return p.WordSize == 64 },
	"legacy-os": Platform.Legacy,
	"prefer-64-bit": func(p Platform) bool {
		return p.WordSize == 64 && !p.Legacy()
	},
}

// Lookup returns the predicate registered under name.
func Lookup(name string) (Predicate, bool) {
	pred, ok := predicates[name]
	return pred, ok
}

// Names returns the registered predicate names in sorted order.
func Names() []string {
	names := make([]string, 0, len(predicates))
	for name := range predicates {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// MatchAny reports whether any of the named predicates holds for p.
// An empty list always matches; unknown names never do.
func (p Platform) MatchAny(names []string) bool {
	if len(names) == 0 {
		return true
	}
	for _, name := range names {
		if pred, ok := predicates[name]; ok && pred(p) {
			return true
		}
	}
	return false
}

// parseMajor extracts the leading integer of a kernel release such as "9.8.0" or "6.1.0-13-amd64".
func parseMajor(release string) int {
	head, _, _ := strings.Cut(release, ".")
	n, err := strconv.Atoi(head)
	if err != nil {
		return 0
	}
	return n
}
