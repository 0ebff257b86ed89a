// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files and improve test maintainability.
package testutil

import (
	"fmt"
	"log"
	"testing"

	"github.com/banshee-data/scadc/internal/fsutil"
	"github.com/banshee-data/scadc/internal/monitoring"
)

// NewMemFS returns an in-memory filesystem seeded with files, keyed by
// absolute path.
func NewMemFS(t testing.TB, files map[string]string) *fsutil.MemoryFileSystem {
	t.Helper()
	mfs := fsutil.NewMemoryFileSystem()
	for name, content := range files {
		if err := mfs.WriteFile(name, []byte(content), 0644); err != nil {
			t.Fatalf("seeding %s: %v", name, err)
		}
	}
	return mfs
}

// CaptureLogs routes monitoring output into the returned slice until the
// test ends.
func CaptureLogs(t testing.TB) *[]string {
	t.Helper()
	var lines []string
	monitoring.SetLogger(func(format string, v ...interface{}) {
		lines = append(lines, fmt.Sprintf(format, v...))
	})
	t.Cleanup(func() { monitoring.SetLogger(log.Printf) })
	return &lines
}

// SilenceLogs discards monitoring output until the test ends.
func SilenceLogs(t testing.TB) {
	t.Helper()
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.SetLogger(log.Printf) })
}

// ReadFile returns the content of name, failing the test if it is missing.
func ReadFile(t testing.TB, fsys fsutil.FileSystem, name string) string {
	t.Helper()
	data, err := fsys.ReadFile(name)
	if err != nil {
		t.Fatalf("reading %s: %v", name, err)
	}
	return string(data)
}
