// Copyright 2026 The Askdesk Authors
// SPDX-License-Identifier: MIT

package testable

import (
	"os"
)

// MockFileSystem is a test double for FileSystem. When a function field is
// set the mock calls it; otherwise it falls through to the real file system,
// so tests override only the calls they want to fail.
type MockFileSystem struct {
	StatFn      func(name string) (os.FileInfo, error)
	OpenFileFn  func(name string, flag int, perm os.FileMode) (*os.File, error)
	OpenFn      func(name string) (*os.File, error)
	WriteFileFn func(name string, data []byte, perm os.FileMode) error
	ReadFileFn  func(name string) ([]byte, error)
	MkdirAllFn  func(path string, perm os.FileMode) error
}

var real OsFileSystem

// Stat calls StatFn if set.
func (m *MockFileSystem) Stat(name string) (os.FileInfo, error) {
	if m.StatFn != nil {
		return m.StatFn(name)
	}
	return real.Stat(name)
}

// OpenFile calls OpenFileFn if set.
func (m *MockFileSystem) OpenFile(name string, flag int, perm os.FileMode) (*os.File, error) {
	if m.OpenFileFn != nil {
		return m.OpenFileFn(name, flag, perm)
	}
	return real.OpenFile(name, flag, perm)
}

// Open calls OpenFn if set.
func (m *MockFileSystem) Open(name string) (*os.File, error) {
	if m.OpenFn != nil {
		return m.OpenFn(name)
	}
	return real.Open(name)
}

// WriteFile calls WriteFileFn if set.
func (m *MockFileSystem) WriteFile(name string, data []byte, perm os.FileMode) error {
	if m.WriteFileFn != nil {
		return m.WriteFileFn(name, data, perm)
	}
	return real.WriteFile(name, data, perm)
}

// ReadFile calls ReadFileFn if set.
func (m *MockFileSystem) ReadFile(name string) ([]byte, error) {
	if m.ReadFileFn != nil {
		return m.ReadFileFn(name)
	}
	return real.ReadFile(name)
}

// MkdirAll calls MkdirAllFn if set.
func (m *MockFileSystem) MkdirAll(path string, perm os.FileMode) error {
	if m.MkdirAllFn != nil {
		return m.MkdirAllFn(path, perm)
	}
	return real.MkdirAll(path, perm)
}

// Compile-time interface check.
var _ FileSystem = (*MockFileSystem)(nil)
