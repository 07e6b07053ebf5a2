// Package testutil provides a throwaway-project fixture for tests that
// exercise whole commands against a real directory tree.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// TestProject is a temporary project directory.
type TestProject struct {
	Root string

	t *testing.T
}

// NewTestProject creates an empty project rooted in t.TempDir.
func NewTestProject(t *testing.T) *TestProject {
	t.Helper()
	return &TestProject{Root: t.TempDir(), t: t}
}

// Path resolves a project-relative slashed path.
func (p *TestProject) Path(rel string) string {
	return filepath.Join(p.Root, filepath.FromSlash(rel))
}

// WriteFile creates a file, and any missing parents, under the project
// root.
func (p *TestProject) WriteFile(rel, content string) {
	p.t.Helper()

	path := p.Path(rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		p.t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		p.t.Fatal(err)
	}
}

// ReadFile returns a project file's content.
func (p *TestProject) ReadFile(rel string) string {
	p.t.Helper()

	data, err := os.ReadFile(p.Path(rel))
	if err != nil {
		p.t.Fatalf("reading %s: %v", rel, err)
	}
	return string(data)
}

// FileExists reports whether a project file exists.
func (p *TestProject) FileExists(rel string) bool {
	_, err := os.Stat(p.Path(rel))
	return err == nil
}
