// Package config loads the main settings file and provides the YAML helpers
// shared by the rule and template loaders.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath replaces a leading ~ with the home directory and expands $VAR
// references. Empty paths are returned unchanged.
func ExpandPath(p string) string {
	if p == "" {
		return p
	}
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return os.ExpandEnv(p)
}

// ResolveFrom makes a relative path relative to base, typically the
// directory of the config file. Absolute and empty paths are unchanged.
func ResolveFrom(base, p string) string {
	p = ExpandPath(p)
	if p == "" || base == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}
