package engine

import (
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// InboxFilter selects which inbox files are processed.
type InboxFilter struct {
	// Supports reports whether an extension (with dot, lower case) can be extracted.
	Supports func(ext string) bool
	// Include and Exclude are doublestar patterns relative to the inbox.
	// An empty Include matches everything.
	Include []string
	Exclude []string
}

// Match reports whether rel, a slash-separated path relative to the inbox,
// passes the filter.
func (f InboxFilter) Match(rel string) bool {
	name := path.Base(rel)
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~$") {
		return false
	}
	if f.Supports != nil && !f.Supports(strings.ToLower(path.Ext(name))) {
		return false
	}
	for _, pattern := range f.Exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return false
		}
	}
	if len(f.Include) == 0 {
		return true
	}
	for _, pattern := range f.Include {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// Validate checks that every pattern is well formed.
func (f InboxFilter) Validate() error {
	for _, pattern := range append(append([]string{}, f.Include...), f.Exclude...) {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid inbox pattern %q", pattern)
		}
	}
	return nil
}

// CollectInbox lists the files under dir that pass filter, in lexical order.
// Hidden directories are not entered.
func CollectInbox(dir string, filter InboxFilter) ([]string, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	var paths []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		if filter.Match(filepath.ToSlash(rel)) {
			paths = append(paths, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan inbox %s: %w", dir, err)
	}
	return paths, nil
}
