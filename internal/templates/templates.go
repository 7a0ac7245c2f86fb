// Package templates holds the immutable folder templates and the reducer that
// merges base, category and strategy-specific layers into one effective
// template.
package templates

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/Squareczm/DocumentationTool/internal/model"
)

// BaseTemplate is a named, reusable folder shape.
type BaseTemplate struct {
	Name      string         `yaml:"-"`
	Kind      model.BaseKind `yaml:"kind"`
	Structure []string       `yaml:"structure"`
	MaxDepth  int            `yaml:"max_depth"`
}

// CategoryTemplate customizes the folder shape of one category.
type CategoryTemplate struct {
	Variants     map[string][]string `yaml:"variants"`
	Category     string              `yaml:"-"`
	BaseTemplate string              `yaml:"base_template"`
	Organization string              `yaml:"organization"`
	Structure    []string            `yaml:"structure"`
	MaxDepth     int                 `yaml:"max_depth"`
}

// NamingConventions constrain individual folder names.
type NamingConventions struct {
	allowed        *regexp.Regexp
	AllowedPattern string   `yaml:"allowed_pattern"`
	ReservedNames  []string `yaml:"reserved_names"`
	MaxLength      int      `yaml:"max_length"`
}

// Validation limits applied to every resolved path.
type Validation struct {
	MaxDepth           int `yaml:"max_depth"`
	MaxFoldersPerLevel int `yaml:"max_folders_per_level"`
}

// Layer is one contribution to an effective template.
type Layer struct {
	Strategy  *model.OrganizationStrategy
	Kind      model.BaseKind
	Structure []string
	MaxDepth  int
}

// Merge reduces layers, ordered from least to most specific, into one
// template: structures are extended with duplicates removed, the strategy
// and kind are overridden by later layers, and max depth is the maximum.
func Merge(layers ...Layer) model.FolderTemplate {
	var out model.FolderTemplate
	seen := make(map[string]bool)
	for _, l := range layers {
		if l.Kind != "" {
			out.BaseKind = l.Kind
		}
		for _, s := range l.Structure {
			if s == "" || seen[s] {
				continue
			}
			seen[s] = true
			out.Structure = append(out.Structure, s)
		}
		if l.Strategy != nil {
			st := *l.Strategy
			out.Strategy = &st
		}
		if l.MaxDepth > out.MaxDepth {
			out.MaxDepth = l.MaxDepth
		}
	}
	if out.BaseKind == "" {
		out.BaseKind = model.BaseHierarchical
	}
	return out
}

// Set is the immutable collection of templates for a run.
type Set struct {
	bases       map[string]BaseTemplate
	strategies  map[string]model.OrganizationStrategy
	categories  map[string]CategoryTemplate
	naming      NamingConventions
	validation  Validation
	defaultBase string
}

// Naming returns the folder naming conventions.
func (s *Set) Naming() NamingConventions {
	return s.naming
}

// Validation returns the global path limits.
func (s *Set) Validation() Validation {
	return s.validation
}

// Category returns the template declared for category, if any.
func (s *Set) Category(category string) (CategoryTemplate, bool) {
	t, ok := s.categories[category]
	return t, ok
}

// Strategy returns the named organization strategy.
func (s *Set) Strategy(name string) (model.OrganizationStrategy, bool) {
	st, ok := s.strategies[name]
	return st, ok
}

// Layers lists the contributing layers for category: base, then the category
// template, then the variant chosen by the active organization strategy.
// Categories without a template use the default base alone.
func (s *Set) Layers(category string) []Layer {
	ct, ok := s.categories[category]
	if !ok {
		base := s.bases[s.defaultBase]
		return []Layer{baseLayer(base)}
	}

	baseName := ct.BaseTemplate
	if baseName == "" {
		baseName = s.defaultBase
	}
	layers := []Layer{baseLayer(s.bases[baseName])}

	var strategy *model.OrganizationStrategy
	if ct.Organization != "" {
		st := s.strategies[ct.Organization]
		strategy = &st
	}
	layers = append(layers, Layer{Structure: ct.Structure, Strategy: strategy, MaxDepth: ct.MaxDepth})

	if strategy != nil {
		if variant, ok := ct.Variants[variantKey(strategy.Kind)]; ok {
			layers = append(layers, Layer{Structure: variant})
		} else {
			layers = append(layers, Layer{Structure: strategy.Patterns})
		}
	}
	return layers
}

// Effective returns the merged template for category.
func (s *Set) Effective(category string) model.FolderTemplate {
	return Merge(s.Layers(category)...)
}

func baseLayer(b BaseTemplate) Layer {
	return Layer{Kind: b.Kind, Structure: b.Structure, MaxDepth: b.MaxDepth}
}

func variantKey(kind model.StrategyKind) string {
	return strings.ToLower(string(kind))
}

// SanitizeSegment makes name safe as a single folder name. It returns ""
// when nothing usable remains.
func (n NamingConventions) SanitizeSegment(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}

	var b strings.Builder
	for _, r := range name {
		switch {
		case r == '/' || r == '\\' || r < 0x20:
			b.WriteRune('_')
		case n.allowed != nil && !n.allowed.MatchString(string(r)):
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	out := strings.Trim(b.String(), " .")

	if n.MaxLength > 0 && utf8.RuneCountInString(out) > n.MaxLength {
		out = strings.TrimRight(string([]rune(out)[:n.MaxLength]), " .")
	}
	if out == "" || strings.Trim(out, "_") == "" {
		return ""
	}

	for _, reserved := range n.ReservedNames {
		if strings.EqualFold(out, reserved) {
			return "_" + out
		}
	}
	return out
}
