// Copyright 2026 The Askdesk Authors
// SPDX-License-Identifier: MIT

// Package testable abstracts the file operations askdesk performs on its
// metrics logs and config files so tests can inject failures.
package testable

import (
	"os"
)

// FileSystem is the subset of os used by the metrics recorder and config
// loader. OsFileSystem is the production implementation.
type FileSystem interface {
	// Stat returns a FileInfo describing the named file.
	Stat(name string) (os.FileInfo, error)

	// OpenFile opens name with the given flags, as os.OpenFile does. The
	// metrics sinks use it with O_APPEND.
	OpenFile(name string, flag int, perm os.FileMode) (*os.File, error)

	// Open opens the named file for reading.
	Open(name string) (*os.File, error)

	// WriteFile writes data to the named file, creating it if necessary.
	WriteFile(name string, data []byte, perm os.FileMode) error

	// ReadFile reads the named file and returns the contents.
	ReadFile(name string) ([]byte, error)

	// MkdirAll creates a directory named path, along with any necessary parents.
	MkdirAll(path string, perm os.FileMode) error
}

// OsFileSystem delegates to the os package.
type OsFileSystem struct{}

// Stat wraps os.Stat.
func (OsFileSystem) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}

// OpenFile wraps os.OpenFile.
func (OsFileSystem) OpenFile(name string, flag int, perm os.FileMode) (*os.File, error) {
	return os.OpenFile(name, flag, perm) //nolint:gosec // caller controls path
}

// Open wraps os.Open.
func (OsFileSystem) Open(name string) (*os.File, error) {
	return os.Open(name) //nolint:gosec // caller controls path
}

// WriteFile wraps os.WriteFile.
func (OsFileSystem) WriteFile(name string, data []byte, perm os.FileMode) error {
	return os.WriteFile(name, data, perm) //nolint:gosec // caller controls path and perms
}

// ReadFile wraps os.ReadFile.
func (OsFileSystem) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name) //nolint:gosec // caller controls path
}

// MkdirAll wraps os.MkdirAll.
func (OsFileSystem) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// DefaultFS is used wherever no FileSystem is injected.
var DefaultFS FileSystem = OsFileSystem{}
