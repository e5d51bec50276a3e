// SPDX-License-Identifier: Apache-2.0

package fsx

import (
	"os"
)

//go:generate mockgen -source=fs.go -destination=mock_manager.go -package=fsx

// Manager provides an interface for the file and directory operations a store migration needs.
// It exists so that failures of individual operations can be simulated in tests.
type Manager interface {
	// PathExists determines if the path exists. This method does not follow symlinks.
	PathExists(path string) (os.FileInfo, bool, error)
	// IsRegularFile returns true if the path is a regular file; otherwise, false is returned.
	IsRegularFile(path string) bool
	// IsDirectory returns true if the path is a directory; otherwise, false is returned.
	IsDirectory(path string) bool
	// CreateDirectory creates a directory at path.
	// If the path refers to an existing directory, then no action is taken and no error is returned.
	// If the path refers to an existing file, then an error is returned.
	// A missing parent is an error unless recursive is true.
	CreateDirectory(path string, recursive bool) error
	// MkdirTemp creates a new uniquely named directory inside dir using pattern as the name prefix.
	MkdirTemp(dir string, pattern string) (string, error)
	// Rename atomically replaces dst with src. Both paths must be on the same file system.
	Rename(src string, dst string) error
	// Remove removes a file or an empty directory. A missing path is not an error.
	Remove(path string) error
	// RemoveAll removes the path and its contents.
	RemoveAll(path string) error
}
