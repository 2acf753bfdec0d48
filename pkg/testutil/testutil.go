// Package testutil contains common test utilities.
package testutil

import (
	"os"
	"path/filepath"
)

// Cleanuper wraps the Cleanup method. It is a subset of testing.TB, thus
// satisfied by *testing.T and *testing.B.
type Cleanuper interface {
	Cleanup(func())
}

// TempDirer is the subset of testing.TB used by the file helpers.
type TempDirer interface {
	Cleanuper
	TempDir() string
	Fatalf(format string, args ...any)
}

// Set sets *p to v for the duration of a test.
func Set[T any](c Cleanuper, p *T, v T) {
	old := *p
	*p = v
	c.Cleanup(func() { *p = old })
}

// Recover calls f and returns the value it panics with, or nil if it
// returns normally.
func Recover(f func()) (r any) {
	defer func() { r = recover() }()
	f()
	return nil
}

// WriteFiles creates files with the given content in a new temporary
// directory and returns the directory. Names may contain slashes.
func WriteFiles(t TempDirer, files map[string]string) string {
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}
