// Package testutil provides fixture and golden-file helpers for tests.
package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// ProjectRoot returns the repository root, found relative to this file.
func ProjectRoot(t *testing.T) string {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get caller information")
	}
	// internal/testutil -> project root
	return filepath.Dir(filepath.Dir(filepath.Dir(thisFile)))
}

// FixturePath returns testdata/fixtures/<name>, failing when it is missing.
func FixturePath(t *testing.T, name string) string {
	t.Helper()

	p := filepath.Join(ProjectRoot(t), "testdata", "fixtures", name)
	if _, err := os.Stat(p); err != nil {
		t.Fatalf("Fixture not found: %s", p)
	}
	return p
}

// GoldenPath returns testdata/golden/<name>.txt. The file need not exist.
func GoldenPath(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join(ProjectRoot(t), "testdata", "golden", name+".txt")
}

// AvailableFixtures lists fixture files with the given extension.
func AvailableFixtures(t *testing.T, ext string) []string {
	t.Helper()

	dir := filepath.Join(ProjectRoot(t), "testdata", "fixtures")
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read fixtures directory: %v", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ext {
			names = append(names, e.Name())
		}
	}
	return names
}
