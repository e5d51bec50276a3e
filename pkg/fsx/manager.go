// SPDX-License-Identifier: Apache-2.0

package fsx

import (
	"os"
	"path/filepath"

	"github.com/joomcode/errorx"
)

const (
	defaultFileMode      = 0644
	defaultDirectoryMode = 0755
)

type Option func(*manager) error

type manager struct {
	fileMode os.FileMode
	dirMode  os.FileMode
}

// NewManager returns the default Manager backed by the os package
func NewManager(opts ...Option) (Manager, error) {
	m := &manager{
		fileMode: defaultFileMode,
		dirMode:  defaultDirectoryMode,
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// WithDirectoryMode sets the permissions used when creating directories
func WithDirectoryMode(mode os.FileMode) Option {
	return func(m *manager) error {
		if mode&0700 == 0 {
			return errorx.IllegalArgument.New("directory mode %o is not accessible by the owner", mode)
		}
		m.dirMode = mode
		return nil
	}
}

func (m *manager) PathExists(path string) (os.FileInfo, bool, error) {
	pi, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}

		return nil, false, err
	}

	return pi, true, nil
}

func (m *manager) IsRegularFile(path string) bool {
	pi, exists, err := m.PathExists(path)
	if err != nil || !exists {
		return false
	}
	return pi.Mode().IsRegular()
}

func (m *manager) IsDirectory(path string) bool {
	pi, exists, err := m.PathExists(path)
	if err != nil || !exists {
		return false
	}
	return pi.IsDir()
}

func (m *manager) CreateDirectory(path string, recursive bool) error {
	fi, exists, err := m.PathExists(path)
	if err != nil {
		return FileSystemError.New("invalid path %q", path).WithUnderlyingErrors(err)
	}

	if exists {
		if !fi.IsDir() {
			return FileTypeError.New("path %q exists and is not a directory", path).WithProperty(PropertyPath, path)
		}
		return nil
	}

	if recursive {
		err = os.MkdirAll(path, m.dirMode)
	} else {
		err = os.Mkdir(path, m.dirMode)
	}
	if err != nil {
		return FileSystemError.Wrap(err, "failed to create directory %q", path).WithProperty(PropertyPath, path)
	}

	return nil
}

func (m *manager) MkdirTemp(dir string, pattern string) (string, error) {
	path, err := os.MkdirTemp(dir, pattern)
	if err != nil {
		return "", FileSystemError.Wrap(err, "failed to create temporary directory in %q", dir).
			WithProperty(PropertyPath, dir)
	}
	return path, nil
}

func (m *manager) Rename(src string, dst string) error {
	if !m.IsRegularFile(src) {
		return FileNotFound.New("file %q not found", src).WithProperty(PropertyPath, src)
	}

	if err := os.Rename(src, dst); err != nil {
		return FileSystemError.Wrap(err, "failed to rename %q to %q", src, dst).WithProperty(PropertyPath, dst)
	}

	// persist the directory entry so the replacement survives a crash
	if d, err := os.Open(filepath.Dir(dst)); err == nil {
		_ = d.Sync()
		Close(d)
	}

	return nil
}

func (m *manager) Remove(path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return FileSystemError.Wrap(err, "failed to remove %q", path).WithProperty(PropertyPath, path)
	}
	return nil
}

func (m *manager) RemoveAll(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return FileSystemError.Wrap(err, "failed to remove all at path %q", path).WithProperty(PropertyPath, path)
	}
	return nil
}
