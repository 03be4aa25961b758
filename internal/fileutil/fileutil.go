package fileutil

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// WriteFileAtomic writes data to a temp file beside path and renames it into
// place, so readers never observe a partially written file.
func WriteFileAtomic(fs afero.Fs, path string, data []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure directory %s: %w", dir, err)
	}

	tmp, err := afero.TempFile(fs, dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = fs.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := fs.Chmod(tmpName, mode); err != nil {
		cleanup()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := fs.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

// Exists reports whether path exists. Stat errors other than not-exist are
// treated as present so callers never overwrite something they cannot see.
func Exists(fs afero.Fs, path string) bool {
	_, err := fs.Stat(path)
	if err == nil {
		return true
	}
	return !os.IsNotExist(err)
}

// IsDir reports whether path exists and is a directory.
func IsDir(fs afero.Fs, path string) bool {
	ok, err := afero.IsDir(fs, path)
	return err == nil && ok
}

// ShowLevelPath places a show-wide file (tvshow.nfo, show.jpg) for a video in
// dir. A depth 2 video sits in a season folder, so the parent folder is
// preferred unless only dir already holds the file.
func ShowLevelPath(fs afero.Fs, dir string, depth int, name string) string {
	local := filepath.Join(dir, name)
	if depth != 2 {
		return local
	}
	parent := filepath.Join(filepath.Dir(dir), name)
	if Exists(fs, parent) {
		return parent
	}
	if Exists(fs, local) {
		return local
	}
	return parent
}
