package templates

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Squareczm/DocumentationTool/internal/common"
	"github.com/Squareczm/DocumentationTool/internal/config"
	"github.com/Squareczm/DocumentationTool/internal/model"
)

type templateFile struct {
	Bases           yaml.Node         `yaml:"base_templates"`
	Strategies      yaml.Node         `yaml:"organization_strategies"`
	Categories      yaml.Node         `yaml:"category_templates"`
	Naming          NamingConventions `yaml:"naming_conventions"`
	Validation      Validation        `yaml:"validation"`
	DefaultTemplate string            `yaml:"default_template"`
}

type strategyDef struct {
	Kind      model.StrategyKind `yaml:"kind"`
	Patterns  []string           `yaml:"patterns"`
	Variables []string           `yaml:"variables"`
}

var (
	topFields      = []string{"base_templates", "organization_strategies", "category_templates", "naming_conventions", "validation", "default_template"}
	baseFields     = []string{"kind", "structure", "max_depth"}
	strategyFields = []string{"kind", "patterns", "variables"}
	categoryFields = []string{"base_template", "organization", "structure", "max_depth", "variants"}

	validKinds      = map[model.BaseKind]bool{model.BaseFlat: true, model.BaseHierarchical: true, model.BaseDeep: true}
	validStrategies = map[model.StrategyKind]bool{model.ByTime: true, model.ByProject: true, model.ByPriority: true, model.ByStatus: true}
)

// DefaultAllowedPattern accepts letters, digits, CJK and a few separators.
const DefaultAllowedPattern = `[\p{L}\p{N}_\-. ()（）]`

// Parse builds a Set from the YAML template definition format.
func Parse(data []byte) (*Set, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%w: parse templates: %v", common.ErrInvalidConfig, err)
	}
	if root.Kind == 0 {
		return nil, common.NewConfigError("base_templates", "template file is empty")
	}
	if err := config.CheckKeys(&root, "", topFields...); err != nil {
		return nil, err
	}

	var file templateFile
	if err := config.DecodeNode(&root, "templates", &file); err != nil {
		return nil, err
	}

	set := &Set{
		bases:       make(map[string]BaseTemplate),
		strategies:  make(map[string]model.OrganizationStrategy),
		categories:  make(map[string]CategoryTemplate),
		naming:      file.Naming,
		validation:  file.Validation,
		defaultBase: file.DefaultTemplate,
	}

	if err := set.parseBases(&file.Bases); err != nil {
		return nil, err
	}
	if err := set.parseStrategies(&file.Strategies); err != nil {
		return nil, err
	}
	if err := set.parseCategories(&file.Categories); err != nil {
		return nil, err
	}
	if err := set.finish(); err != nil {
		return nil, err
	}
	return set, nil
}

func (s *Set) parseBases(node *yaml.Node) error {
	pairs, err := config.MappingPairs(node, "base_templates")
	if err != nil {
		return err
	}
	for _, p := range pairs {
		key := "base_templates." + p[0].Value
		if err := config.CheckKeys(p[1], key, baseFields...); err != nil {
			return err
		}
		var b BaseTemplate
		if err := config.DecodeNode(p[1], key, &b); err != nil {
			return err
		}
		b.Name = p[0].Value
		if b.Kind == "" {
			b.Kind = model.BaseHierarchical
		}
		if !validKinds[b.Kind] {
			return common.NewConfigError(key+".kind", "unknown base kind %q", b.Kind)
		}
		if b.MaxDepth < 0 {
			return common.NewConfigError(key+".max_depth", "must not be negative")
		}
		s.bases[b.Name] = b
	}
	return nil
}

func (s *Set) parseStrategies(node *yaml.Node) error {
	pairs, err := config.MappingPairs(node, "organization_strategies")
	if err != nil {
		return err
	}
	for _, p := range pairs {
		key := "organization_strategies." + p[0].Value
		if err := config.CheckKeys(p[1], key, strategyFields...); err != nil {
			return err
		}
		var def strategyDef
		if err := config.DecodeNode(p[1], key, &def); err != nil {
			return err
		}
		if !validStrategies[def.Kind] {
			return common.NewConfigError(key+".kind", "unknown organization strategy %q", def.Kind)
		}
		s.strategies[p[0].Value] = model.OrganizationStrategy{
			Name:      p[0].Value,
			Kind:      def.Kind,
			Patterns:  def.Patterns,
			Variables: def.Variables,
		}
	}
	return nil
}

func (s *Set) parseCategories(node *yaml.Node) error {
	pairs, err := config.MappingPairs(node, "category_templates")
	if err != nil {
		return err
	}
	for _, p := range pairs {
		key := "category_templates." + p[0].Value
		if err := config.CheckKeys(p[1], key, categoryFields...); err != nil {
			return err
		}
		var ct CategoryTemplate
		if err := config.DecodeNode(p[1], key, &ct); err != nil {
			return err
		}
		ct.Category = p[0].Value

		if ct.BaseTemplate != "" {
			if _, ok := s.bases[ct.BaseTemplate]; !ok {
				return common.NewConfigError(key+".base_template", "unknown base template %q", ct.BaseTemplate)
			}
		}
		if ct.Organization != "" {
			if _, ok := s.strategies[ct.Organization]; !ok {
				return common.NewConfigError(key+".organization", "unknown organization strategy %q", ct.Organization)
			}
		}
		for name := range ct.Variants {
			if !validStrategies[model.StrategyKind(strings.ToUpper(name))] {
				return common.NewConfigError(key+".variants."+name, "unknown variant, expected by_time, by_project, by_priority or by_status")
			}
		}
		if ct.MaxDepth < 0 {
			return common.NewConfigError(key+".max_depth", "must not be negative")
		}
		s.categories[ct.Category] = ct
	}
	return nil
}

func (s *Set) finish() error {
	if len(s.bases) == 0 {
		for name, b := range defaultBases() {
			s.bases[name] = b
		}
	}
	if s.defaultBase == "" {
		s.defaultBase = "hierarchical"
		if _, ok := s.bases[s.defaultBase]; !ok {
			s.bases[s.defaultBase] = defaultBases()["hierarchical"]
		}
	}
	if _, ok := s.bases[s.defaultBase]; !ok {
		return common.NewConfigError("default_template", "unknown base template %q", s.defaultBase)
	}

	if s.naming.AllowedPattern == "" {
		s.naming.AllowedPattern = DefaultAllowedPattern
	}
	re, err := regexp.Compile(s.naming.AllowedPattern)
	if err != nil {
		return common.NewConfigError("naming_conventions.allowed_pattern", "invalid pattern: %v", err)
	}
	s.naming.allowed = re
	if s.naming.MaxLength < 0 {
		return common.NewConfigError("naming_conventions.max_length", "must not be negative")
	}
	if s.naming.ReservedNames == nil {
		s.naming.ReservedNames = defaultReservedNames()
	}

	if s.validation.MaxDepth < 0 {
		return common.NewConfigError("validation.max_depth", "must not be negative")
	}
	if s.validation.MaxFoldersPerLevel < 0 {
		return common.NewConfigError("validation.max_folders_per_level", "must not be negative")
	}
	return nil
}

// Load reads and parses the template file at path.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from configuration
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: template file %s", common.ErrMissingConfig, path)
		}
		return nil, fmt.Errorf("failed to read template file: %w", err)
	}

	set, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("template file %s: %w", path, err)
	}

	slog.Debug("Loaded folder templates", "path", path,
		"base_templates", len(set.bases),
		"category_templates", len(set.categories))
	return set, nil
}

// LoadOrDefault falls back to the built-in templates when path does not exist.
func LoadOrDefault(path string) (*Set, error) {
	set, err := Load(path)
	if errors.Is(err, common.ErrMissingConfig) {
		slog.Warn("Template file not found, using built-in templates", "path", path)
		return Default(), nil
	}
	return set, err
}
