// Package fileutil writes output files so that a failed write never leaves
// a file at the destination path.
package fileutil

import (
	"os"
	"path/filepath"

	"github.com/arloliu/voltex/internal/logging"
)

// WriteAtomic writes chunks in order to a temporary file next to path,
// syncs it and renames it over path. On error the temporary file is removed
// and path is left untouched.
func WriteAtomic(path string, perm os.FileMode, chunks ...[]byte) (err error) {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(tmp)
		}
	}()

	if err = f.Chmod(perm); err != nil {
		return err
	}
	for _, chunk := range chunks {
		if _, err = f.Write(chunk); err != nil {
			return err
		}
	}
	if err = f.Sync(); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}

	return os.Rename(tmp, path)
}

// RemoveFiles deletes paths written earlier in a multi-file operation that
// failed. Removal errors are logged, not returned.
func RemoveFiles(paths []string) {
	for _, p := range paths {
		if err := os.Remove(p); err != nil {
			logging.L().Warn("failed to remove partial output", "path", p, "error", err)
		}
	}
}
