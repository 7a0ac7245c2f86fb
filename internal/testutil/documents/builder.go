// Package documents writes inbox documents for tests. Files get a fixed
// modification time so date selection does not depend on the wall clock.
//
// Example:
//
//	paths := documents.NewBuilder(t).
//		WithFixture(documents.FixtureMixed).
//		WithDocument("notes.md", "# 随手记\n").
//		Build(inbox)
package documents

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"
)

// DefaultModTime is the modification time given to built files.
var DefaultModTime = time.Date(2025, 10, 17, 9, 0, 0, 0, time.UTC)

// Builder collects documents and writes them into a directory.
type Builder interface {
	// WithDocument adds a file with the given name and content.
	WithDocument(name, content string) Builder

	// WithFixture adds every document of a fixture.
	WithFixture(f Fixture) Builder

	// WithModTime overrides the modification time of built files.
	WithModTime(t time.Time) Builder

	// Build writes the documents into dir and returns their paths by name.
	Build(dir string) Paths
}

// Paths maps a document name to its path on disk.
type Paths map[string]string

// MustGet returns the path of name or fails the test.
func (p Paths) MustGet(t *testing.T, name string) string {
	t.Helper()
	path, ok := p[name]
	if !ok {
		t.Fatalf("document %q was not built", name)
	}
	return path
}

// Sorted returns every path in name order.
func (p Paths) Sorted() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]string, len(names))
	for i, name := range names {
		out[i] = p[name]
	}
	return out
}

type documentBuilder struct {
	t       *testing.T
	docs    map[string]string
	modTime time.Time
}

// NewBuilder creates a document builder for the given test.
func NewBuilder(t *testing.T) Builder {
	t.Helper()
	return &documentBuilder{
		t:       t,
		docs:    make(map[string]string),
		modTime: DefaultModTime,
	}
}

func (b *documentBuilder) WithDocument(name, content string) Builder {
	b.docs[name] = content
	return b
}

func (b *documentBuilder) WithFixture(f Fixture) Builder {
	for _, d := range f.Documents() {
		b.docs[d.Name] = d.Content
	}
	return b
}

func (b *documentBuilder) WithModTime(t time.Time) Builder {
	b.modTime = t
	return b
}

func (b *documentBuilder) Build(dir string) Paths {
	b.t.Helper()

	paths := make(Paths, len(b.docs))
	for name, content := range b.docs {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
			b.t.Fatalf("failed to create directory for %q: %v", name, err)
		}
		if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
			b.t.Fatalf("failed to write %q: %v", name, err)
		}
		if err := os.Chtimes(p, b.modTime, b.modTime); err != nil {
			b.t.Fatalf("failed to set times on %q: %v", name, err)
		}
		paths[name] = p
	}
	return paths
}
