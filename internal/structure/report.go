// Package structure renders structure.md, a human-readable summary of the
// knowledge base layout and the rules that shape it.
package structure

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/Squareczm/DocumentationTool/internal/model"
	"github.com/Squareczm/DocumentationTool/internal/ruleset"
)

// FileName is the report written to the knowledge base root.
const FileName = "structure.md"

// DefaultTreeDepth limits how deep the folder tree is listed.
const DefaultTreeDepth = 3

const topRules = 10

//go:embed structure.md.tmpl
var reportTemplate string

var tmpl = template.Must(template.New(FileName).Funcs(template.FuncMap{
	"indent": func(depth int) string { return strings.Repeat("  ", depth) },
	"join":   strings.Join,
}).Parse(reportTemplate))

// Node is one folder in the tree.
type Node struct {
	Name        string
	Path        string
	Description string
	Children    []*Node
	Files       int
	Depth       int
}

// Stats summarizes the knowledge base.
type Stats struct {
	FolderCount int
	FileCount   int
	MaxDepth    int
}

// RuleSummary is one line of the rule table.
type RuleSummary struct {
	Category    string
	Description string
	Keywords    []string
	Priority    int
}

// Report is the data behind structure.md.
type Report struct {
	GeneratedAt time.Time
	Root        string
	Tree        []*Node
	Rules       []RuleSummary
	Stats       Stats
	RuleCount   int
}

// Build scans root and combines it with rules. Folders below treeDepth are
// counted in the stats but not listed.
func Build(root string, rules *ruleset.RuleSet, treeDepth int, now time.Time) (*Report, error) {
	if treeDepth <= 0 {
		treeDepth = DefaultTreeDepth
	}
	r := &Report{GeneratedAt: now, Root: root, RuleCount: rules.Len()}

	nodes := map[string]*Node{}
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root && errors.Is(err, fs.ErrNotExist) {
				return filepath.SkipAll
			}
			return err
		}
		if p == root {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		parent := parentOf(rel)

		if !d.IsDir() {
			if rel == FileName {
				return nil
			}
			r.Stats.FileCount++
			for dir := parent; dir != ""; dir = parentOf(dir) {
				if n, ok := nodes[dir]; ok {
					n.Files++
				}
			}
			return nil
		}

		depth := strings.Count(rel, "/") + 1
		r.Stats.FolderCount++
		if depth > r.Stats.MaxDepth {
			r.Stats.MaxDepth = depth
		}
		if depth > treeDepth {
			return nil
		}

		n := &Node{Name: d.Name(), Path: rel, Depth: depth - 1}
		if depth == 1 {
			n.Description = describe(d.Name(), rules)
			r.Tree = append(r.Tree, n)
		} else if p, ok := nodes[parent]; ok {
			p.Children = append(p.Children, n)
		}
		nodes[rel] = n
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan knowledge base: %w", err)
	}

	r.Rules = summarize(rules.Rules())
	return r, nil
}

// Render writes the report as markdown.
func (r *Report) Render() ([]byte, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, r); err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", FileName, err)
	}
	return buf.Bytes(), nil
}

// Write builds and writes structure.md into root, returning its path.
func Write(root string, rules *ruleset.RuleSet, treeDepth int, now time.Time) (string, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return "", fmt.Errorf("failed to create knowledge base root: %w", err)
	}
	report, err := Build(root, rules, treeDepth, now)
	if err != nil {
		return "", err
	}
	data, err := report.Render()
	if err != nil {
		return "", err
	}

	target := filepath.Join(root, FileName)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", FileName, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("failed to write %s: %w", FileName, err)
	}
	return target, nil
}

// describe finds the rule whose folder produced name.
func describe(name string, rules *ruleset.RuleSet) string {
	for _, rule := range rules.Rules() {
		if rule.Category == name || rule.FolderName() == name {
			return rule.Description
		}
	}
	for _, rule := range rules.Rules() {
		for _, p := range rule.TargetPatterns {
			if p != "" && strings.Contains(name, p) {
				return rule.Description
			}
		}
	}
	return ""
}

func summarize(rules []model.ClassificationRule) []RuleSummary {
	sorted := append([]model.ClassificationRule(nil), rules...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Priority != sorted[j].Priority {
			return sorted[i].Priority < sorted[j].Priority
		}
		return sorted[i].Category < sorted[j].Category
	})
	if len(sorted) > topRules {
		sorted = sorted[:topRules]
	}

	out := make([]RuleSummary, 0, len(sorted))
	for _, rule := range sorted {
		keywords := rule.Keywords
		if len(keywords) > 5 {
			keywords = append(append([]string(nil), keywords[:5]...), "...")
		}
		out = append(out, RuleSummary{
			Category:    rule.Category,
			Description: rule.Description,
			Keywords:    keywords,
			Priority:    rule.Priority,
		})
	}
	return out
}

func parentOf(rel string) string {
	if i := strings.LastIndexByte(rel, '/'); i >= 0 {
		return rel[:i]
	}
	return ""
}
