// Package osfilesystem provides local file access for the renderer: video
// sources opened for random access, and atomic writes for JPEG output,
// reports and debug dumps.
package osfilesystem

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/user/thumbextractor/pkg/ports"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// FileSystem implements ports.FileSystem on the local disk.
type FileSystem struct{}

// New creates a new FileSystem.
func New() *FileSystem {
	return &FileSystem{}
}

// WriteFile writes data to a temporary file next to path and renames it into place.
func (fs *FileSystem) WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Chmod(filePerm); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// MkdirAll creates a directory and all parent directories.
func (fs *FileSystem) MkdirAll(path string) error {
	return os.MkdirAll(path, dirPerm)
}

// Open opens a regular file as a random-access source.
// A missing file wraps ports.ErrSourceNotFound.
func (fs *FileSystem) Open(path string) (ports.LocalSource, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, ports.ErrSourceNotFound)
		}
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, fmt.Errorf("%s is not a regular file: %w", path, ports.ErrSourceNotFound)
	}
	return &File{File: f, path: abs, size: info.Size()}, nil
}

// File is an open regular file. It implements ports.LocalSource.
type File struct {
	*os.File
	path string
	size int64
}

// Size returns the file size at open time.
func (f *File) Size() int64 {
	return f.size
}

// Path returns the absolute path of the file.
func (f *File) Path() string {
	return f.path
}

var (
	_ ports.FileSystem  = (*FileSystem)(nil)
	_ ports.LocalSource = (*File)(nil)
)
