package folder

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/Squareczm/DocumentationTool/internal/model"
	"github.com/Squareczm/DocumentationTool/internal/ruleset"
	"github.com/Squareczm/DocumentationTool/internal/templates"
)

const testTemplates = `
base_templates:
  hierarchical: {kind: HIERARCHICAL, structure: ["{year}"], max_depth: 3}
  deep: {kind: DEEP, structure: ["{year}", "{month}"], max_depth: 5}
organization_strategies:
  by_project: {kind: BY_PROJECT, patterns: ["{project_name}"], variables: [project_name, year]}
  by_time: {kind: BY_TIME, patterns: ["{month}"], variables: [year, month]}
category_templates:
  项目管理:
    base_template: deep
    organization: by_project
    structure: ["{project_name}"]
  会议沟通:
    base_template: hierarchical
    organization: by_time
  技术开发:
    base_template: deep
    structure: ["{status}"]
validation:
  max_depth: 6
  max_folders_per_level: 3
`

type staticView struct {
	folders map[string]bool
	count   int
}

func newView(folders ...string) staticView {
	v := staticView{folders: map[string]bool{}}
	for _, f := range folders {
		v.folders[f] = true
	}
	return v
}

func (v staticView) Exists(folder string) bool { return v.folders[folder] }

func (v staticView) Children(parent string) int {
	n := 0
	for f := range v.folders {
		if parentOf(f) == parent {
			n++
		}
	}
	return n
}

func (v staticView) CountMatching(_ []string) int { return v.count }

func (v staticView) Match(patterns []string) (string, bool) {
	ix := NewIndex("", 0)
	for f := range v.folders {
		ix.Add(strings.Split(f, "/"))
	}
	return ix.Match(patterns)
}

type testingT interface {
	require.TestingT
	Helper()
}

func newResolver(t testingT, maxDepth int, mutate func(*ruleset.Strategy)) *Resolver {
	t.Helper()
	st := ruleset.DefaultStrategy()
	st.HighConfidenceThreshold = 0.8
	st.MinFolderCount = 1
	if mutate != nil {
		mutate(&st)
	}
	rules, err := ruleset.New([]model.ClassificationRule{
		{Category: "个人财务", Keywords: []string{"理财", "投资"}, TargetPatterns: []string{"个人财务"}, Priority: 1},
		{Category: "项目管理", Keywords: []string{"项目"}, TargetPatterns: []string{"项目"}, Priority: 2},
		{Category: "会议沟通", Keywords: []string{"会议"}, TargetPatterns: []string{"会议"}, Priority: 3},
		{Category: "技术开发", Keywords: []string{"技术"}, TargetPatterns: []string{"技术"}, Priority: 4},
	}, st, []string{"其他", "文档"})
	require.NoError(t, err)

	tmpl, err := templates.Parse([]byte(testTemplates))
	require.NoError(t, err)
	return NewResolver(rules, tmpl, maxDepth)
}

var (
	oct2025 = time.Date(2025, time.October, 3, 0, 0, 0, 0, time.UTC)
	exact   = model.ClassificationResult{Tier: model.TierExact, Confidence: 0.9}
)

func TestResolve_FallbackTierGoesToFallbackFolder(t *testing.T) {
	r := newResolver(t, 3, nil)
	result := model.ClassificationResult{Category: "未分类文档", Tier: model.TierFallback}

	got := r.Resolve("未分类文档", BuildMetadata(oct2025, "", "", nil), newView(), result)
	assert.Equal(t, []string{"其他"}, got.Segments)
	assert.True(t, got.Created)

	got = r.Resolve("未分类文档", nil, newView("文档"), result)
	assert.Equal(t, []string{"文档"}, got.Segments, "an existing fallback folder is preferred")
	assert.False(t, got.Created)
}

func TestResolve_ConfidentNewCategoryCreatesFolder(t *testing.T) {
	r := newResolver(t, 3, func(s *ruleset.Strategy) { s.AllowNewFolders = true })
	view := newView()
	view.count = 0

	got := r.Resolve("个人财务", BuildMetadata(oct2025, "", "", nil), view, exact)
	assert.Equal(t, []string{"个人财务", "2025"}, got.Segments)
	assert.True(t, got.Created)
	assert.False(t, got.Redirected)
}

func TestResolve_DepthTruncationKeepsCategory(t *testing.T) {
	r := newResolver(t, 3, nil)
	meta := BuildMetadata(oct2025, "", "", map[string]string{"project_name": "Apollo"})

	// deep base + project strategy yields 项目/2025/Apollo before the limit
	got := r.Resolve("项目管理", meta, newView(), exact)
	require.Len(t, got.Segments, 3)
	assert.Equal(t, "项目", got.Segments[0])

	r = newResolver(t, 3, nil)
	got = r.Resolve("技术开发", BuildMetadata(oct2025, "", "", map[string]string{"status": "draft"}), newView(), exact)
	assert.Equal(t, []string{"技术", "2025", "10"}, got.Segments, "4 segments cut to 3")

	r = newResolver(t, 1, nil)
	got = r.Resolve("技术开发", BuildMetadata(oct2025, "", "", nil), newView(), exact)
	assert.Equal(t, []string{"技术"}, got.Segments)
}

func TestResolve_VariableSubstitution(t *testing.T) {
	r := newResolver(t, 0, nil)

	tests := []struct {
		name     string
		category string
		meta     Metadata
		want     []string
	}{
		{
			name:     "missing placeholder drops the segment",
			category: "技术开发",
			meta:     BuildMetadata(oct2025, "", "", nil),
			want:     []string{"技术", "2025", "10"},
		},
		{
			name:     "strategy limits the variables",
			category: "会议沟通",
			meta:     Metadata{"year": "2025", "month": "10", "status": "final"},
			want:     []string{"会议", "2025", "10"},
		},
		{
			name:     "no date at all",
			category: "会议沟通",
			meta:     Metadata{},
			want:     []string{"会议"},
		},
		{
			name:     "values are sanitized",
			category: "项目管理",
			meta:     Metadata{"year": "2025", "project_name": "A/B:测试"},
			want:     []string{"项目", "2025", "A_B_测试"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Resolve(tt.category, tt.meta, newView(), exact)
			assert.Equal(t, tt.want, got.Segments)
		})
	}
}

func TestResolve_NewFolderPolicy(t *testing.T) {
	meta := BuildMetadata(oct2025, "", "", nil)

	tests := []struct {
		name       string
		mutate     func(*ruleset.Strategy)
		view       staticView
		result     model.ClassificationResult
		want       []string
		created    bool
		redirected bool
	}{
		{
			name:    "existing path needs no creation",
			view:    newView("个人财务", "个人财务/2025"),
			result:  model.ClassificationResult{Tier: model.TierExact, Confidence: 0.1},
			want:    []string{"个人财务", "2025"},
			created: false,
		},
		{
			name:       "new folders disabled",
			mutate:     func(s *ruleset.Strategy) { s.AllowNewFolders = false },
			view:       newView(),
			result:     exact,
			want:       []string{"其他"},
			created:    true,
			redirected: true,
		},
		{
			name: "low confidence reuses the existing category folder",
			view: func() staticView {
				v := newView("个人财务", "文档")
				v.count = 1
				return v
			}(),
			result: model.ClassificationResult{Tier: model.TierSemantic, Confidence: 0.4},
			want:   []string{"个人财务"},
		},
		{
			name: "low confidence reuses a folder matching a target pattern",
			view: func() staticView {
				v := newView("个人财务档案", "个人财务档案/2024", "文档")
				v.count = 1
				return v
			}(),
			result: model.ClassificationResult{Tier: model.TierExact, Confidence: 0.4},
			want:   []string{"个人财务档案"},
		},
		{
			name: "low confidence without any category folder",
			view: func() staticView {
				v := newView("文档")
				v.count = 1
				return v
			}(),
			result:     model.ClassificationResult{Tier: model.TierSemantic, Confidence: 0.4},
			want:       []string{"文档"},
			redirected: true,
		},
		{
			name:    "low confidence below min folder count",
			view:    newView(),
			result:  model.ClassificationResult{Tier: model.TierSemantic, Confidence: 0.4},
			want:    []string{"个人财务", "2025"},
			created: true,
		},
		{
			name:       "level is full",
			view:       newView("a", "b", "c"),
			result:     exact,
			want:       []string{"其他"},
			created:    true,
			redirected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newResolver(t, 3, tt.mutate)
			got := r.Resolve("个人财务", meta, tt.view, tt.result)
			assert.Equal(t, tt.want, got.Segments)
			assert.Equal(t, tt.created, got.Created)
			assert.Equal(t, tt.redirected, got.Redirected)
		})
	}
}

func TestResolve_OverlappingPatternsUseEachPartOnce(t *testing.T) {
	st := ruleset.DefaultStrategy()
	rules, err := ruleset.New([]model.ClassificationRule{
		{Category: "会议沟通", Keywords: []string{"会议"}, TargetPatterns: []string{"会议"}, Priority: 1},
	}, st, []string{"其他"})
	require.NoError(t, err)

	tmpl, err := templates.Parse([]byte(`
base_templates:
  hierarchical: {kind: HIERARCHICAL, structure: ["{category}/{year}"], max_depth: 5}
category_templates:
  会议沟通:
    base_template: hierarchical
    structure: ["{year}/{month}", "{month}/{day}"]
`))
	require.NoError(t, err)
	r := NewResolver(rules, tmpl, 0)

	got := r.Resolve("会议沟通", BuildMetadata(oct2025, "", "", nil), newView(), exact)
	assert.Equal(t, []string{"会议", "2025", "10", "03"}, got.Segments)

	// equal values from different placeholders are both kept
	oct10 := time.Date(2025, time.October, 10, 0, 0, 0, 0, time.UTC)
	got = r.Resolve("会议沟通", BuildMetadata(oct10, "", "", nil), newView(), exact)
	assert.Equal(t, []string{"会议", "2025", "10", "10"}, got.Segments)
}

func TestResolve_Idempotent(t *testing.T) {
	r := newResolver(t, 3, nil)
	ix := NewIndex(t.TempDir(), 0)
	meta := BuildMetadata(oct2025, "", "", map[string]string{"project_name": "Apollo"})

	first := r.Resolve("项目管理", meta, ix, exact)
	second := r.Resolve("项目管理", meta, ix, exact)
	assert.Equal(t, first, second)

	assert.NotEmpty(t, ix.Add(first.Segments))
	assert.Empty(t, ix.Add(second.Segments))

	third := r.Resolve("项目管理", meta, ix, exact)
	assert.Equal(t, first.Segments, third.Segments)
	assert.False(t, third.Created)
}

func TestBuildMetadata(t *testing.T) {
	meta := BuildMetadata(oct2025, "总结", ".md", map[string]string{"project_name": " Apollo ", "status": ""})
	assert.Equal(t, Metadata{
		"year": "2025", "month": "10", "day": "03", "quarter": "Q4",
		"subject": "总结", "ext": "md", "project_name": "Apollo",
	}, meta)
	assert.Empty(t, BuildMetadata(time.Time{}, "", "", nil))
}

func TestResolve_DepthProperty(t *testing.T) {
	categories := []string{"个人财务", "项目管理", "会议沟通", "技术开发", "未知"}
	rapid.Check(t, func(t *rapid.T) {
		maxDepth := rapid.IntRange(0, 6).Draw(t, "max_depth")
		r := newResolver(t, maxDepth, nil)
		category := rapid.SampledFrom(categories).Draw(t, "category")
		meta := Metadata{}
		for _, key := range []string{"year", "month", "project_name", "status"} {
			if rapid.Bool().Draw(t, "has_"+key) {
				meta[key] = rapid.StringMatching(`[a-z0-9]{1,8}`).Draw(t, key)
			}
		}
		result := model.ClassificationResult{
			Tier:       rapid.SampledFrom([]model.Tier{model.TierExact, model.TierSemantic, model.TierFallback}).Draw(t, "tier"),
			Confidence: rapid.Float64Range(0, 1).Draw(t, "confidence"),
		}

		got := r.Resolve(category, meta, newView(), result)
		tmpl := r.templates.Effective(category)
		if len(got.Segments) == 0 || len(got.Segments) > r.MaxDepth(tmpl) {
			t.Fatalf("segments %v exceed depth %d", got.Segments, r.MaxDepth(tmpl))
		}
	})
}
