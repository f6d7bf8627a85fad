package formula

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// -----------------------------------------------------------------------------

// Project is the build copy of a source tree.
type Project struct {
	Dir   string
	DirFS fs.FS
}

// NewProject returns a Project rooted at dir.
func NewProject(dir string) *Project {
	return &Project{Dir: dir, DirFS: os.DirFS(dir)}
}

// ReadFile reads the content of a file in the project.
func (p *Project) ReadFile(path string) ([]byte, error) {
	file, err := p.DirFS.Open(filepath.ToSlash(path))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return io.ReadAll(file)
}

// WriteFile replaces the content of a file in the project, keeping its mode.
func (p *Project) WriteFile(path string, data []byte) error {
	full := filepath.Join(p.Dir, path)
	mode := os.FileMode(0o644)
	if info, err := os.Stat(full); err == nil {
		mode = info.Mode().Perm()
	}
	return os.WriteFile(full, data, mode)
}

// -----------------------------------------------------------------------------
