package build

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// installExecutables copies the executable regular files of src into dst,
// in name order, and returns the installed paths. Other entries are skipped.
func installExecutables(src, dst string) ([]string, error) {
	entries, err := os.ReadDir(src)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var installed []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return installed, err
		}
		if info.Mode().Perm()&0o111 == 0 {
			continue
		}
		if err := os.MkdirAll(dst, 0o755); err != nil {
			return installed, err
		}
		target := filepath.Join(dst, e.Name())
		if err := copyFile(filepath.Join(src, e.Name()), target, info.Mode().Perm()); err != nil {
			return installed, err
		}
		installed = append(installed, target)
	}
	return installed, nil
}

func copyFile(src, dst string, perm fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
