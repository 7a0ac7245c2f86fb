package classification

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/Squareczm/DocumentationTool/internal/model"
	"github.com/Squareczm/DocumentationTool/internal/ruleset"
)

type testingT interface {
	require.TestingT
	Helper()
}

func mustRuleSet(t testingT, rules []model.ClassificationRule, mutate func(*ruleset.Strategy)) *ruleset.RuleSet {
	t.Helper()
	st := ruleset.DefaultStrategy()
	if mutate != nil {
		mutate(&st)
	}
	set, err := ruleset.New(rules, st, []string{"其他", "文档"})
	require.NoError(t, err)
	return set
}

func financeRules() []model.ClassificationRule {
	return []model.ClassificationRule{
		{Category: "个人财务", Keywords: []string{"理财", "投资"}, TargetPatterns: []string{"个人财务"}, Priority: 1},
		{Category: "会议沟通", Keywords: []string{"会议", "纪要"}, TargetPatterns: []string{"会议"}, Priority: 3, FileTypes: []string{".md"}},
		{Category: "技术开发", Keywords: []string{"技术", "开发", "系统"}, TargetPatterns: []string{"技术"}, Priority: 2},
	}
}

func TestClassify_ExactTier(t *testing.T) {
	c := New(mustRuleSet(t, financeRules(), nil))

	result := c.Classify(model.Document{Content: "本季度的理财规划和投资组合回顾", Extension: ".docx"})

	assert.Equal(t, "个人财务", result.Category)
	assert.Equal(t, model.TierExact, result.Tier)
	assert.InDelta(t, 1.0, result.Confidence, 1e-9)
	assert.InDelta(t, 2.0, result.Breakdown["个人财务"], 1e-9)
	assert.InDelta(t, 0.0, result.Breakdown["会议沟通"], 1e-9)
}

func TestClassify_EmptyContentFallsBack(t *testing.T) {
	c := New(mustRuleSet(t, financeRules(), nil))

	for _, content := range []string{"", "   \n\t "} {
		result := c.Classify(model.Document{Content: content, Extension: ".md"})
		assert.Equal(t, "未分类文档", result.Category)
		assert.Equal(t, model.TierFallback, result.Tier)
		assert.Zero(t, result.Confidence)
	}
}

func TestClassify_SemanticTier(t *testing.T) {
	c := New(mustRuleSet(t, financeRules(), nil))

	// one keyword is below the exact threshold; density 1/2 carries it
	result := c.Classify(model.Document{Content: "会议", Extension: ".md"})

	assert.Equal(t, "会议沟通", result.Category)
	assert.Equal(t, model.TierSemantic, result.Tier)
	// 0.5*0.6 + 0.3/3 + 0.1
	assert.InDelta(t, 0.5, result.Confidence, 1e-9)
}

func TestClassify_SemanticNeedsKeywordEvidence(t *testing.T) {
	set := mustRuleSet(t, financeRules(), func(s *ruleset.Strategy) {
		s.SemanticThreshold = 0.1
	})
	c := New(set)

	// priority alone would clear the threshold, but nothing matched
	result := c.Classify(model.Document{Content: "今天天气很好", Extension: ".md"})
	assert.Equal(t, model.TierFallback, result.Tier)
	assert.NotEmpty(t, result.Breakdown)
}

func TestClassify_LongContentFallsBack(t *testing.T) {
	c := New(mustRuleSet(t, financeRules(), nil))

	content := "会议" + strings.Repeat("。", 500)
	result := c.Classify(model.Document{Content: content, Extension: ".pdf"})
	assert.Equal(t, model.TierFallback, result.Tier)
	assert.Equal(t, "未分类文档", result.Category)
}

func TestClassify_TieBreaks(t *testing.T) {
	tests := []struct {
		name  string
		rules []model.ClassificationRule
		want  string
	}{
		{
			name: "lower priority number wins",
			rules: []model.ClassificationRule{
				{Category: "年度总结", Keywords: []string{"报告", "总结"}, Priority: 2},
				{Category: "项目总结", Keywords: []string{"报告", "总结"}, Priority: 1},
			},
			want: "项目总结",
		},
		{
			name: "equal priority falls back to category name",
			rules: []model.ClassificationRule{
				{Category: "beta", Keywords: []string{"报告", "总结"}, Priority: 1},
				{Category: "alpha", Keywords: []string{"报告", "总结"}, Priority: 1},
			},
			want: "alpha",
		},
		{
			name: "higher score beats priority",
			rules: []model.ClassificationRule{
				{Category: "low", Keywords: []string{"报告", "总结"}, Priority: 1},
				{Category: "high", Keywords: []string{"报告", "总结", "季度"}, Priority: 9},
			},
			want: "high",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := mustRuleSet(t, tt.rules, nil)
			doc := model.Document{Content: "季度报告与总结"}
			for i := 0; i < 5; i++ {
				assert.Equal(t, tt.want, Classify(doc, set).Category)
			}
		})
	}
}

func TestAdoptHint(t *testing.T) {
	c := New(mustRuleSet(t, financeRules(), nil))
	fallback := c.Classify(model.Document{Content: ""})

	tests := []struct {
		hint     *model.LabelerHint
		result   model.ClassificationResult
		name     string
		wantCat  string
		wantTier model.Tier
	}{
		{name: "nil hint", result: fallback, wantCat: "未分类文档", wantTier: model.TierFallback},
		{name: "confident known hint", result: fallback, hint: &model.LabelerHint{Category: "技术开发", Confidence: 0.9}, wantCat: "技术开发", wantTier: model.TierSemantic},
		{name: "weak hint", result: fallback, hint: &model.LabelerHint{Category: "技术开发", Confidence: 0.5}, wantCat: "未分类文档", wantTier: model.TierFallback},
		{name: "unknown category", result: fallback, hint: &model.LabelerHint{Category: "旅行", Confidence: 0.99}, wantCat: "未分类文档", wantTier: model.TierFallback},
		{
			name:     "rule result wins over hint",
			result:   model.ClassificationResult{Category: "个人财务", Tier: model.TierExact, Confidence: 1},
			hint:     &model.LabelerHint{Category: "技术开发", Confidence: 0.99},
			wantCat:  "个人财务",
			wantTier: model.TierExact,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.AdoptHint(tt.result, tt.hint)
			assert.Equal(t, tt.wantCat, got.Category)
			assert.Equal(t, tt.wantTier, got.Tier)
			assert.Equal(t, tt.wantTier == model.TierSemantic, got.Hinted)
		})
	}
}

var vocabulary = []string{"理财", "投资", "会议", "纪要", "技术", "开发", "系统", "报告", " ", "Go", "dev", "。"}

func TestClassify_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		rules := financeRules()
		words := rapid.SliceOfN(rapid.SampledFrom(vocabulary), 0, 40).Draw(t, "words")
		ext := rapid.SampledFrom([]string{"", ".md", ".pdf", ".docx"}).Draw(t, "ext")
		doc := model.Document{Content: strings.Join(words, ""), Extension: ext}

		set := mustRuleSet(t, rules, nil)
		result := Classify(doc, set)

		if result.Category == "" {
			t.Fatalf("empty category for %q", doc.Content)
		}
		if result.Confidence < 0 || result.Confidence > 1 {
			t.Fatalf("confidence %v out of range", result.Confidence)
		}
		if result.Tier == model.TierFallback && result.Confidence != 0 {
			t.Fatalf("fallback with confidence %v", result.Confidence)
		}

		// rule declaration order never changes the outcome
		shuffled := rapid.Permutation(rules).Draw(t, "shuffled")
		again := Classify(doc, mustRuleSet(t, shuffled, nil))
		if again.Category != result.Category || again.Tier != result.Tier || again.Confidence != result.Confidence {
			t.Fatalf("non-deterministic result: %+v vs %+v", result, again)
		}
	})
}
