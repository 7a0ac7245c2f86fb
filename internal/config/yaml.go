package config

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Squareczm/DocumentationTool/internal/common"
)

// MappingPairs returns the key/value node pairs of a YAML mapping, rejecting
// duplicate keys. A nil or empty node yields no pairs.
func MappingPairs(node *yaml.Node, path string) ([][2]*yaml.Node, error) {
	if node == nil || node.Kind == 0 {
		return nil, nil
	}
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, common.NewConfigError(path, "expected a mapping (line %d)", node.Line)
	}

	pairs := make([][2]*yaml.Node, 0, len(node.Content)/2)
	seen := make(map[string]int, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		name := strings.TrimSpace(key.Value)
		if line, dup := seen[name]; dup {
			return nil, common.NewConfigError(joinKey(path, name), "duplicate key (lines %d and %d)", line, key.Line)
		}
		seen[name] = key.Line
		pairs = append(pairs, [2]*yaml.Node{key, val})
	}
	return pairs, nil
}

// CheckKeys fails on any mapping key outside allowed.
func CheckKeys(node *yaml.Node, path string, allowed ...string) error {
	pairs, err := MappingPairs(node, path)
	if err != nil {
		return err
	}
	ok := make(map[string]bool, len(allowed))
	for _, a := range allowed {
		ok[a] = true
	}
	for _, p := range pairs {
		if !ok[p[0].Value] {
			return common.NewConfigError(joinKey(path, p[0].Value), "unknown field (line %d)", p[0].Line)
		}
	}
	return nil
}

// DecodeNode decodes node into out, reporting failures against path.
func DecodeNode(node *yaml.Node, path string, out any) error {
	if err := node.Decode(out); err != nil {
		return &common.ConfigError{Key: path, Reason: err.Error(), Err: fmt.Errorf("%w: %v", common.ErrInvalidConfig, err)}
	}
	return nil
}

func joinKey(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}
