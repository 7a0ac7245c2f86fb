package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Squareczm/DocumentationTool/internal/model"
	"github.com/Squareczm/DocumentationTool/internal/service"
)

var plain = NewStyler(false)

func TestTable_AlignsWideCharacters(t *testing.T) {
	out := plain.Table([]string{"Category", "Score"}, [][]string{
		{"个人财务", "1.000"},
		{"tech", "0.5"},
	})

	lines := strings.Split(out, "\n")
	assert.Equal(t, []string{
		"Category  Score",
		"个人财务  1.000",
		"tech      0.5",
	}, lines)
}

func TestSummary(t *testing.T) {
	summary := model.BatchSummary{
		RunID:    "run-1",
		Total:    3,
		Placed:   1,
		Failed:   1,
		Skipped:  1,
		ByTier:   map[model.Tier]int{model.TierExact: 1},
		Duration: 1500 * time.Millisecond,
	}
	outcomes := []model.Outcome{
		{Source: "a.md", Status: model.OutcomePlaced, Path: model.ResolvedPath{Segments: []string{"会议", "2025"}}, Filename: "周会_20250101_v1.0.md"},
		{Source: "b.md", Status: model.OutcomeFailed, Err: errors.New("permission denied")},
		{Source: "c.exe", Status: model.OutcomeSkipped, Err: errors.New("unsupported")},
	}

	quiet := plain.Summary(summary, outcomes, false)
	assert.Contains(t, quiet, "Documents:       3")
	assert.Contains(t, quiet, "Tiers:           EXACT 1, SEMANTIC 0, FALLBACK 0")
	assert.Contains(t, quiet, "Time taken:      1.5s")
	assert.Contains(t, quiet, "✗ b.md: permission denied")
	assert.NotContains(t, quiet, "a.md")

	loud := plain.Summary(summary, outcomes, true)
	assert.Contains(t, loud, "✓ a.md → 会议/2025/周会_20250101_v1.0.md")
	assert.Contains(t, loud, "– c.exe: unsupported")
}

func TestRules_OrderedByPriority(t *testing.T) {
	out := plain.Rules([]model.ClassificationRule{
		{Category: "b", Priority: 2, Keywords: []string{"x"}},
		{Category: "a", Priority: 1, Keywords: []string{"y", "z"}, TargetPatterns: []string{"A"}},
	})

	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "1"))
	assert.Contains(t, lines[1], "y, z")
	assert.Contains(t, lines[1], "A")
	assert.True(t, strings.HasPrefix(lines[2], "2"))
}

func TestChecks(t *testing.T) {
	out := plain.Checks([]Check{
		{Name: "config", OK: true},
		{Name: "labeler", OK: true, Warn: true, Detail: "disabled"},
		{Name: "kb root", Detail: "not writable"},
	})
	assert.Equal(t, "✓ config\n⚠ labeler: disabled\n✗ kb root: not writable", out)
}

func TestPlacements(t *testing.T) {
	out := plain.Placements([]service.PlacementRecord{
		{Source: "a.md", Status: model.OutcomePlaced, Folder: "会议", Filename: "x.md", PlacedAt: time.Now()},
		{Source: "b.md", Status: model.OutcomeFailed, Error: "boom", PlacedAt: time.Now()},
	})
	assert.Contains(t, out, "会议/x.md")
	assert.Contains(t, out, "boom")
}

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, 2, false)
	p.Observe(model.Outcome{Status: model.OutcomePlaced})
	p.Observe(model.Outcome{Status: model.OutcomeFailed})
	p.Finish()

	assert.Equal(t, 1, p.Failed())
	assert.Contains(t, buf.String(), "2/2")
}
