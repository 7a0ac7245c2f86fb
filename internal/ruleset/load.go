package ruleset

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Squareczm/DocumentationTool/internal/common"
	"github.com/Squareczm/DocumentationTool/internal/config"
	"github.com/Squareczm/DocumentationTool/internal/model"
)

type ruleFile struct {
	Rules           yaml.Node `yaml:"classification_rules"`
	Strategy        yaml.Node `yaml:"strategy"`
	FallbackFolders []string  `yaml:"fallback_folders"`
}

var (
	ruleFields = []string{"description", "keywords", "target_patterns", "priority", "file_types"}

	strategyFields = []string{
		"fallback_category", "semantic_threshold", "keyword_match_weight", "min_keyword_score",
		"semantic_similarity_weight", "priority_weight", "file_type_weight",
		"high_confidence_threshold", "min_folder_count", "allow_new_folders",
	}
)

// Parse builds a RuleSet from the YAML rule definition format.
func Parse(data []byte) (*RuleSet, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%w: parse rules: %v", common.ErrInvalidConfig, err)
	}
	if root.Kind == 0 {
		return nil, common.NewConfigError("classification_rules", "rule file is empty")
	}
	if err := config.CheckKeys(&root, "", "classification_rules", "strategy", "fallback_folders"); err != nil {
		return nil, err
	}

	var file ruleFile
	if err := config.DecodeNode(&root, "rules", &file); err != nil {
		return nil, err
	}

	pairs, err := config.MappingPairs(&file.Rules, "classification_rules")
	if err != nil {
		return nil, err
	}
	if len(pairs) == 0 {
		return nil, common.NewConfigError("classification_rules", "at least one rule is required")
	}

	rules := make([]model.ClassificationRule, 0, len(pairs))
	for _, p := range pairs {
		category := p[0].Value
		key := "classification_rules." + category
		if err := config.CheckKeys(p[1], key, ruleFields...); err != nil {
			return nil, err
		}

		var rule model.ClassificationRule
		if err := config.DecodeNode(p[1], key, &rule); err != nil {
			return nil, err
		}
		rule.Category = category
		rules = append(rules, rule)
	}

	strategy := DefaultStrategy()
	if file.Strategy.Kind != 0 {
		if err := config.CheckKeys(&file.Strategy, "strategy", strategyFields...); err != nil {
			return nil, err
		}
		if err := config.DecodeNode(&file.Strategy, "strategy", &strategy); err != nil {
			return nil, err
		}
	}

	folders := file.FallbackFolders
	if len(folders) == 0 {
		folders = DefaultFallbackFolders
	}

	return New(rules, strategy, folders)
}

// Load reads and parses the rule file at path.
func Load(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from configuration
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: rule file %s", common.ErrMissingConfig, path)
		}
		return nil, fmt.Errorf("failed to read rule file: %w", err)
	}

	set, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("rule file %s: %w", path, err)
	}

	slog.Debug("Loaded classification rules", "path", path, "rules", set.Len())
	return set, nil
}

// LoadOrDefault behaves like Load but falls back to the built-in rules when
// the file does not exist. Invalid files are still fatal.
func LoadOrDefault(path string) (*RuleSet, error) {
	set, err := Load(path)
	if errors.Is(err, common.ErrMissingConfig) {
		slog.Warn("Rule file not found, using built-in rules", "path", path)
		return Default(), nil
	}
	return set, err
}
