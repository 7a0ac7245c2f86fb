// Package classification assigns a category to a document by scoring it
// against a rule set in three tiers: exact keyword matches, a weighted
// semantic composite, and a fallback that always succeeds.
package classification

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/Squareczm/DocumentationTool/internal/model"
	"github.com/Squareczm/DocumentationTool/internal/pattern"
	"github.com/Squareczm/DocumentationTool/internal/ruleset"
)

// Classifier scores documents against an immutable rule set. It performs no
// I/O and is safe for concurrent use.
type Classifier struct {
	rules   *ruleset.RuleSet
	scanner pattern.Scanner
}

// Option customizes a Classifier.
type Option func(*Classifier)

// WithScanner replaces the keyword scanner.
func WithScanner(s pattern.Scanner) Option {
	return func(c *Classifier) {
		c.scanner = s
	}
}

// New creates a classifier over rules with a memoizing keyword scanner.
func New(rules *ruleset.RuleSet, opts ...Option) *Classifier {
	c := &Classifier{
		rules:   rules,
		scanner: pattern.NewMatcher(rules.Rules(), pattern.DefaultMemoSize),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify is a convenience wrapper that classifies doc without a memo.
func Classify(doc model.Document, rules *ruleset.RuleSet) model.ClassificationResult {
	return New(rules, WithScanner(pattern.NewMatcher(rules.Rules(), 0))).Classify(doc)
}

// Rules returns the rule set the classifier scores against.
func (c *Classifier) Rules() *ruleset.RuleSet {
	return c.rules
}

// Classify returns the category, confidence and tier for doc.
func (c *Classifier) Classify(doc model.Document) model.ClassificationResult {
	if strings.TrimSpace(doc.Content) == "" {
		return c.fallback(nil)
	}

	hits := c.scanner.Scan(doc.Content)

	if result, ok := c.exactTier(hits); ok {
		return result
	}
	if result, ok := c.semanticTier(doc, hits); ok {
		return result
	}

	return c.fallback(c.semanticScores(doc, hits))
}

func (c *Classifier) exactTier(hits pattern.Hits) (model.ClassificationResult, bool) {
	st := c.rules.Strategy()
	breakdown := make(map[string]float64, c.rules.Len())
	var accepted model.RuleScores

	for _, rule := range c.rules.Rules() {
		score := float64(hits[rule.Category]) * st.KeywordMatchWeight
		breakdown[rule.Category] = score
		if score > st.MinKeywordScore {
			accepted = append(accepted, model.RuleScore{Category: rule.Category, Score: score, Priority: rule.Priority})
		}
	}

	accepted.Sort()
	top, ok := accepted.Top()
	if !ok {
		return model.ClassificationResult{}, false
	}

	rule, _ := c.rules.Rule(top.Category)
	return model.ClassificationResult{
		Category:   top.Category,
		Confidence: clip(float64(hits[top.Category]) / float64(len(rule.Keywords))),
		Tier:       model.TierExact,
		Breakdown:  breakdown,
	}, true
}

func (c *Classifier) semanticTier(doc model.Document, hits pattern.Hits) (model.ClassificationResult, bool) {
	st := c.rules.Strategy()
	breakdown := c.semanticScores(doc, hits)
	var accepted model.RuleScores

	for _, rule := range c.rules.Rules() {
		score := breakdown[rule.Category]
		if hits[rule.Category] > 0 && score >= st.SemanticThreshold {
			accepted = append(accepted, model.RuleScore{Category: rule.Category, Score: score, Priority: rule.Priority})
		}
	}

	accepted.Sort()
	top, ok := accepted.Top()
	if !ok {
		return model.ClassificationResult{}, false
	}

	return model.ClassificationResult{
		Category:   top.Category,
		Confidence: clip(top.Score),
		Tier:       model.TierSemantic,
		Breakdown:  breakdown,
	}, true
}

// semanticScores computes the weighted composite of keyword density, rule
// priority and file type for every rule.
func (c *Classifier) semanticScores(doc model.Document, hits pattern.Hits) map[string]float64 {
	st := c.rules.Strategy()
	length := utf8.RuneCountInString(doc.Content)
	ext := ruleset.NormalizeExtension(doc.Extension)

	scores := make(map[string]float64, c.rules.Len())
	for _, rule := range c.rules.Rules() {
		var density float64
		if length > 0 {
			density = float64(hits[rule.Category]) / float64(length)
		}
		score := density*st.SemanticSimilarityWeight + st.PriorityWeight/float64(rule.Priority)
		if hasFileType(rule, ext) {
			score += st.FileTypeWeight
		}
		scores[rule.Category] = score
	}
	return scores
}

func (c *Classifier) fallback(breakdown map[string]float64) model.ClassificationResult {
	return model.ClassificationResult{
		Category:   c.rules.FallbackCategory(),
		Confidence: 0,
		Tier:       model.TierFallback,
		Breakdown:  breakdown,
	}
}

// AdoptHint promotes a fallback result to the labeler's suggested category
// when the hint names a known category with enough confidence. Any other
// result is returned unchanged.
func (c *Classifier) AdoptHint(result model.ClassificationResult, hint *model.LabelerHint) model.ClassificationResult {
	if hint == nil || result.Tier != model.TierFallback {
		return result
	}
	if _, ok := c.rules.Rule(hint.Category); !ok {
		return result
	}
	if hint.Confidence < c.rules.Strategy().HighConfidenceThreshold {
		return result
	}

	result.Category = hint.Category
	result.Confidence = clip(hint.Confidence)
	result.Tier = model.TierSemantic
	result.Hinted = true
	return result
}

func hasFileType(rule model.ClassificationRule, ext string) bool {
	if ext == "" {
		return false
	}
	for _, ft := range rule.FileTypes {
		if ft == ext {
			return true
		}
	}
	return false
}

func clip(v float64) float64 {
	switch {
	case v < 0 || math.IsNaN(v):
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
