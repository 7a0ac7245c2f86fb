// Package ruleset holds the immutable classification rules and the strategy
// tunables that score documents against them.
package ruleset

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Squareczm/DocumentationTool/internal/common"
	"github.com/Squareczm/DocumentationTool/internal/model"
)

// Strategy carries the classification and new-folder tunables.
type Strategy struct {
	FallbackCategory         string  `yaml:"fallback_category"`
	SemanticThreshold        float64 `yaml:"semantic_threshold"`
	KeywordMatchWeight       float64 `yaml:"keyword_match_weight"`
	MinKeywordScore          float64 `yaml:"min_keyword_score"`
	SemanticSimilarityWeight float64 `yaml:"semantic_similarity_weight"`
	PriorityWeight           float64 `yaml:"priority_weight"`
	FileTypeWeight           float64 `yaml:"file_type_weight"`
	HighConfidenceThreshold  float64 `yaml:"high_confidence_threshold"`
	MinFolderCount           int     `yaml:"min_folder_count"`
	AllowNewFolders          bool    `yaml:"allow_new_folders"`
}

// DefaultStrategy returns the tunables used when the rule file omits them.
func DefaultStrategy() Strategy {
	return Strategy{
		FallbackCategory:         "未分类文档",
		SemanticThreshold:        0.3,
		KeywordMatchWeight:       1.0,
		MinKeywordScore:          1.0,
		SemanticSimilarityWeight: 0.6,
		PriorityWeight:           0.3,
		FileTypeWeight:           0.1,
		HighConfidenceThreshold:  0.8,
		MinFolderCount:           5,
		AllowNewFolders:          true,
	}
}

// DefaultFallbackFolders are the safety-valve destinations.
var DefaultFallbackFolders = []string{"文档", "资料", "其他", "未分类", "通用", "documents", "files", "misc"}

func (s Strategy) validate() error {
	weights := []struct {
		key string
		val float64
	}{
		{"keyword_match_weight", s.KeywordMatchWeight},
		{"min_keyword_score", s.MinKeywordScore},
		{"semantic_similarity_weight", s.SemanticSimilarityWeight},
		{"priority_weight", s.PriorityWeight},
		{"file_type_weight", s.FileTypeWeight},
	}
	for _, w := range weights {
		if w.val < 0 {
			return common.NewConfigError("strategy."+w.key, "must not be negative, got %v", w.val)
		}
	}
	if s.KeywordMatchWeight == 0 {
		return common.NewConfigError("strategy.keyword_match_weight", "must be greater than zero")
	}
	if s.SemanticThreshold < 0 || s.SemanticThreshold > 1 {
		return common.NewConfigError("strategy.semantic_threshold", "must be within [0,1], got %v", s.SemanticThreshold)
	}
	if s.HighConfidenceThreshold < 0 || s.HighConfidenceThreshold > 1 {
		return common.NewConfigError("strategy.high_confidence_threshold", "must be within [0,1], got %v", s.HighConfidenceThreshold)
	}
	if s.MinFolderCount < 0 {
		return common.NewConfigError("strategy.min_folder_count", "must not be negative, got %d", s.MinFolderCount)
	}
	if strings.TrimSpace(s.FallbackCategory) == "" {
		return common.NewConfigError("strategy.fallback_category", "required")
	}
	return nil
}

// RuleSet is the immutable collection of classification rules for a run.
// It is safe for concurrent use.
type RuleSet struct {
	byCategory      map[string]int
	rules           []model.ClassificationRule
	fallbackFolders []string
	strategy        Strategy
}

// New validates rules and builds a RuleSet. Rules are kept ordered by
// priority then category name.
func New(rules []model.ClassificationRule, strategy Strategy, fallbackFolders []string) (*RuleSet, error) {
	if err := strategy.validate(); err != nil {
		return nil, err
	}

	folders := make([]string, 0, len(fallbackFolders))
	for i, f := range fallbackFolders {
		f = strings.TrimSpace(f)
		if f == "" {
			return nil, common.NewConfigError(fmt.Sprintf("fallback_folders[%d]", i), "must not be empty")
		}
		folders = append(folders, f)
	}
	if len(folders) == 0 {
		return nil, common.NewConfigError("fallback_folders", "at least one fallback folder is required")
	}

	set := &RuleSet{
		byCategory:      make(map[string]int, len(rules)),
		rules:           make([]model.ClassificationRule, 0, len(rules)),
		fallbackFolders: folders,
		strategy:        strategy,
	}

	seen := make(map[string]bool, len(rules))
	for _, r := range rules {
		rule, err := normalizeRule(r)
		if err != nil {
			return nil, err
		}
		if seen[rule.Category] {
			return nil, common.NewConfigError("classification_rules."+rule.Category, "duplicate category")
		}
		seen[rule.Category] = true
		set.rules = append(set.rules, rule)
	}

	sort.SliceStable(set.rules, func(i, j int) bool {
		if set.rules[i].Priority != set.rules[j].Priority {
			return set.rules[i].Priority < set.rules[j].Priority
		}
		return set.rules[i].Category < set.rules[j].Category
	})
	for i, r := range set.rules {
		set.byCategory[r.Category] = i
	}

	return set, nil
}

func normalizeRule(r model.ClassificationRule) (model.ClassificationRule, error) {
	category := strings.TrimSpace(r.Category)
	if category == "" {
		return r, common.NewConfigError("classification_rules", "category name must not be empty")
	}
	key := "classification_rules." + category

	keywords := dedupe(r.Keywords)
	if len(keywords) == 0 {
		return r, common.NewConfigError(key+".keywords", "required")
	}
	if r.Priority <= 0 {
		return r, common.NewConfigError(key+".priority", "must be a positive integer, got %d", r.Priority)
	}

	fileTypes := make([]string, 0, len(r.FileTypes))
	for _, ft := range dedupe(r.FileTypes) {
		fileTypes = append(fileTypes, NormalizeExtension(ft))
	}

	return model.ClassificationRule{
		Category:       category,
		Description:    r.Description,
		Keywords:       keywords,
		TargetPatterns: dedupe(r.TargetPatterns),
		FileTypes:      fileTypes,
		Priority:       r.Priority,
	}, nil
}

// NormalizeExtension lowercases ext and ensures a leading dot.
func NormalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// dedupe trims entries and removes blanks and repeats, keeping first-seen order.
func dedupe(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// Rules returns the rules ordered by priority. Callers must not modify them.
func (s *RuleSet) Rules() []model.ClassificationRule {
	return s.rules
}

// Rule looks up the rule for category.
func (s *RuleSet) Rule(category string) (model.ClassificationRule, bool) {
	i, ok := s.byCategory[category]
	if !ok {
		return model.ClassificationRule{}, false
	}
	return s.rules[i], true
}

// Len returns the number of rules.
func (s *RuleSet) Len() int {
	return len(s.rules)
}

// Strategy returns the classification tunables.
func (s *RuleSet) Strategy() Strategy {
	return s.strategy
}

// FallbackFolders returns the configured fallback destinations in order.
func (s *RuleSet) FallbackFolders() []string {
	out := make([]string, len(s.fallbackFolders))
	copy(out, s.fallbackFolders)
	return out
}

// FallbackCategory returns the category assigned when no rule matches.
func (s *RuleSet) FallbackCategory() string {
	return s.strategy.FallbackCategory
}
