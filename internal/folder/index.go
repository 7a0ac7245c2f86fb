package folder

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// RefreshPolicy names when the index is rebuilt from disk.
type RefreshPolicy string

// Refresh policies.
const (
	RefreshStartup  RefreshPolicy = "startup"
	RefreshOnChange RefreshPolicy = "on_change"
)

// View is the read side of a folder index used during resolution.
type View interface {
	Exists(folder string) bool
	Children(parent string) int
	CountMatching(patterns []string) int
	Match(patterns []string) (string, bool)
}

// Index is a snapshot of the folders under the knowledge base root. It is only
// rebuilt by an explicit Refresh and otherwise changes only through Add.
// Paths are slash-separated and relative to the root.
type Index struct {
	paths        map[string]struct{}
	children     map[string]int
	root         string
	maxScanDepth int
	mu           sync.RWMutex
}

// NewIndex creates an empty index over root. Folders deeper than maxScanDepth
// are not recorded; zero means unlimited.
func NewIndex(root string, maxScanDepth int) *Index {
	return &Index{
		paths:        make(map[string]struct{}),
		children:     make(map[string]int),
		root:         root,
		maxScanDepth: maxScanDepth,
	}
}

// Root returns the knowledge base root.
func (ix *Index) Root() string {
	return ix.root
}

// Refresh rebuilds the index from disk. A missing root yields an empty index.
func (ix *Index) Refresh() error {
	paths := make(map[string]struct{})
	children := make(map[string]int)

	err := filepath.WalkDir(ix.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == ix.root && errors.Is(err, fs.ErrNotExist) {
				return filepath.SkipAll
			}
			return err
		}
		if !d.IsDir() || p == ix.root {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}

		rel, err := filepath.Rel(ix.root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		depth := strings.Count(rel, "/") + 1
		if ix.maxScanDepth > 0 && depth > ix.maxScanDepth {
			return filepath.SkipDir
		}

		paths[rel] = struct{}{}
		children[parentOf(rel)]++
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	ix.mu.Lock()
	ix.paths = paths
	ix.children = children
	ix.mu.Unlock()
	return nil
}

// Exists reports whether folder is known.
func (ix *Index) Exists(folder string) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	_, ok := ix.paths[folder]
	return ok
}

// Children returns the number of known folders directly below parent. The
// empty string denotes the root.
func (ix *Index) Children(parent string) int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.children[parent]
}

// CountMatching counts known folders whose top-level segment contains any of
// patterns.
func (ix *Index) CountMatching(patterns []string) int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	n := 0
	for p := range ix.paths {
		top := p
		if i := strings.IndexByte(p, '/'); i >= 0 {
			top = p[:i]
		}
		for _, pat := range patterns {
			if pat != "" && strings.Contains(top, pat) {
				n++
				break
			}
		}
	}
	return n
}

// Match returns an existing folder whose path contains one of patterns.
// Patterns are tried in order; among the folders matching a pattern the
// shallowest wins, then the lexically smallest.
func (ix *Index) Match(patterns []string) (string, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	for _, pat := range patterns {
		if pat == "" {
			continue
		}
		best := ""
		for p := range ix.paths {
			if !strings.Contains(p, pat) {
				continue
			}
			if best == "" || shallower(p, best) {
				best = p
			}
		}
		if best != "" {
			return best, true
		}
	}
	return "", false
}

func shallower(a, b string) bool {
	da, db := strings.Count(a, "/"), strings.Count(b, "/")
	if da != db {
		return da < db
	}
	return a < b
}

// Add records every prefix of segments and returns the folders that were not
// known before, shallowest first. Adding the same path twice returns nothing
// the second time.
func (ix *Index) Add(segments []string) []string {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	var added []string
	for i := range segments {
		p := strings.Join(segments[:i+1], "/")
		if _, ok := ix.paths[p]; ok {
			continue
		}
		ix.paths[p] = struct{}{}
		ix.children[parentOf(p)]++
		added = append(added, p)
	}
	return added
}

// Len returns the number of known folders.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.paths)
}

// Paths returns all known folders in lexical order.
func (ix *Index) Paths() []string {
	ix.mu.RLock()
	out := make([]string, 0, len(ix.paths))
	for p := range ix.paths {
		out = append(out, p)
	}
	ix.mu.RUnlock()

	sort.Strings(out)
	return out
}

// OSPath converts an index path into a filesystem path under root.
func (ix *Index) OSPath(folder string) string {
	return filepath.Join(ix.root, filepath.FromSlash(folder))
}

// EnsureRoot creates the root directory if needed.
func (ix *Index) EnsureRoot() error {
	return os.MkdirAll(ix.root, 0o750)
}

func parentOf(p string) string {
	dir := path.Dir(p)
	if dir == "." {
		return ""
	}
	return dir
}
