// Package headver derives the version recorded for head builds, which
// compile an unreleased source snapshot and so have no release number.
package headver

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/goplus/cellar/formula"
	"github.com/goplus/cellar/internal/logger"
	"github.com/goplus/cellar/internal/vcs"
	"github.com/goplus/cellar/pkgs/buildsys"
)

// Source tells which step of the fallback chain produced a version.
type Source string

const (
	PersistedFile Source = "persisted-file"
	VersionScript Source = "version-script"
	Describe      Source = "version-control-describe"
	Placeholder   Source = "unknown-placeholder"
)

// Record is the version of one head build. The marker file holds Value as
// a single line; reading it back strips that one line terminator and
// nothing else, so Value round-trips through the file.
type Record struct {
	Value  string
	Source Source
}

// Resolver runs the fallback chain:
//
//	marker file in the build dir -> version script -> vcs describe -> placeholder
//
// The script and describe steps run in the pristine source directory, which
// still carries version-control metadata.
type Resolver struct {
	Runner buildsys.Runner
	VCS    vcs.VCS
	Logger logger.Logger
}

// Resolve returns the version of the build in buildDir, writing it to the
// marker file unless the file already exists. An existing marker always
// wins and is never rewritten. Failing to find a real version is not an
// error: the placeholder is recorded and a warning logged.
func (r *Resolver) Resolve(ctx context.Context, vf formula.VersionFile, buildDir, pristineDir string) (Record, error) {
	marker := filepath.Join(buildDir, vf.Name)
	if rec, ok, err := readMarker(marker); err != nil || ok {
		return rec, err
	}

	rec := r.resolve(ctx, vf, pristineDir)

	f, err := os.OpenFile(marker, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if errors.Is(err, fs.ErrExist) {
		rec, _, err = readMarker(marker)
		return rec, err
	}
	if err != nil {
		return Record{}, fmt.Errorf("write version file: %w", err)
	}
	_, err = fmt.Fprintln(f, rec.Value)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return Record{}, fmt.Errorf("write version file: %w", err)
	}
	return rec, nil
}

func (r *Resolver) resolve(ctx context.Context, vf formula.VersionFile, pristineDir string) Record {
	log := r.logger()

	if vf.Script != "" && r.Runner != nil {
		res, err := r.Runner.Run(ctx, buildsys.Cmd{Name: vf.Script, Dir: pristineDir})
		out := firstLine(res.Output)
		switch {
		case err != nil:
			log.Info("version script did not run", "script", vf.Script, "error", err)
		case !res.Success():
			log.Info("version script failed", "script", vf.Script, "exit", res.ExitCode)
		case out == "" || out == vf.Placeholder:
			log.Info("version script reported no version", "script", vf.Script)
		default:
			return Record{Value: out, Source: VersionScript}
		}
	}

	if r.VCS != nil {
		desc, err := r.VCS.Describe(ctx, pristineDir, vf.Match)
		if err == nil {
			return Record{Value: vf.Prefix + desc, Source: Describe}
		}
		log.Warn("could not determine build version from version control", "version", vf.Placeholder, "error", err)
	} else {
		log.Warn("could not determine build version", "version", vf.Placeholder)
	}
	return Record{Value: vf.Placeholder, Source: Placeholder}
}

func (r *Resolver) logger() logger.Logger {
	if r.Logger == nil {
		return logger.Discard()
	}
	return r.Logger
}

// readMarker reports the content of an existing marker file.
func readMarker(path string) (Record, bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("read version file: %w", err)
	}
	return Record{Value: trimEOL(string(data)), Source: PersistedFile}, true, nil
}

// trimEOL removes one trailing "\n" or "\r\n".
func trimEOL(s string) string {
	s, ok := strings.CutSuffix(s, "\n")
	if ok {
		s = strings.TrimSuffix(s, "\r")
	}
	return s
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(line)
}
