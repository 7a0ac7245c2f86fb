// Package folder turns a category and document metadata into a concrete,
// depth-bounded folder inside the knowledge base, and keeps the index of
// folders that already exist.
package folder

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Squareczm/DocumentationTool/internal/model"
	"github.com/Squareczm/DocumentationTool/internal/ruleset"
	"github.com/Squareczm/DocumentationTool/internal/templates"
)

// Metadata holds the values available for template placeholders.
type Metadata map[string]string

var placeholder = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// BuildMetadata derives the standard placeholder values from the document
// date and subject. Entries in extra (project_name, status, ...) are copied
// unless empty.
func BuildMetadata(date time.Time, subject, ext string, extra map[string]string) Metadata {
	meta := Metadata{}
	if !date.IsZero() {
		meta["year"] = fmt.Sprintf("%04d", date.Year())
		meta["month"] = fmt.Sprintf("%02d", int(date.Month()))
		meta["day"] = fmt.Sprintf("%02d", date.Day())
		meta["quarter"] = fmt.Sprintf("Q%d", (int(date.Month())-1)/3+1)
	}
	if subject != "" {
		meta["subject"] = subject
	}
	if ext = strings.TrimPrefix(ext, "."); ext != "" {
		meta["ext"] = ext
	}
	for k, v := range extra {
		if strings.TrimSpace(v) != "" {
			meta[k] = strings.TrimSpace(v)
		}
	}
	return meta
}

// Resolver applies templates and the new-folder policy. It never mutates the
// index; callers record accepted creations with Index.Add.
type Resolver struct {
	rules          *ruleset.RuleSet
	templates      *templates.Set
	maxFolderDepth int
}

// NewResolver creates a resolver. maxFolderDepth is the global depth limit;
// zero leaves depth to the templates.
func NewResolver(rules *ruleset.RuleSet, tmpl *templates.Set, maxFolderDepth int) *Resolver {
	return &Resolver{rules: rules, templates: tmpl, maxFolderDepth: maxFolderDepth}
}

// Resolve picks the folder for a classified document. The same inputs against
// an unchanged view always give the same path.
func (r *Resolver) Resolve(category string, meta Metadata, view View, result model.ClassificationResult) model.ResolvedPath {
	rule, ok := r.rules.Rule(category)
	if !ok || result.Tier == model.TierFallback {
		return r.fallback(view, false)
	}

	naming := r.templates.Naming()
	categorySegment := naming.SanitizeSegment(rule.FolderName())
	if categorySegment == "" {
		return r.fallback(view, false)
	}

	tmpl := r.templates.Effective(category)
	vars := r.variables(meta, tmpl.Strategy, categorySegment)

	// Merged layers may repeat a placeholder across patterns, as in
	// {category}/{year} followed by {year}/{month}; each part is used once.
	segments := []string{categorySegment}
	seen := map[string]bool{"{category}": true}
	for _, pattern := range tmpl.Structure {
		for _, part := range strings.Split(pattern, "/") {
			part = strings.TrimSpace(part)
			if part == "" || seen[part] {
				continue
			}
			seen[part] = true
			value, ok := substitute(part, vars)
			if !ok {
				continue
			}
			value = naming.SanitizeSegment(value)
			if value == "" {
				continue
			}
			if len(segments) == 1 && value == categorySegment {
				continue
			}
			segments = append(segments, value)
		}
	}

	limit := r.MaxDepth(tmpl)
	if len(segments) > limit {
		segments = segments[:limit]
	}

	if !hasMissing(segments, view) {
		return model.ResolvedPath{Segments: segments}
	}
	if !r.mayCreate(rule, segments, view, result) {
		if existing, ok := r.reuse(rule, segments, view, limit); ok {
			return existing
		}
		return r.fallback(view, true)
	}
	return model.ResolvedPath{Segments: segments, Created: true}
}

// MaxDepth returns the effective depth limit for tmpl: the smallest positive
// value among the template, the global setting and the validation limit, and
// never less than one.
func (r *Resolver) MaxDepth(tmpl model.FolderTemplate) int {
	limit := 0
	for _, v := range []int{tmpl.MaxDepth, r.maxFolderDepth, r.templates.Validation().MaxDepth} {
		if v > 0 && (limit == 0 || v < limit) {
			limit = v
		}
	}
	if limit < 1 {
		limit = 1
	}
	return limit
}

func (r *Resolver) variables(meta Metadata, strategy *model.OrganizationStrategy, categorySegment string) Metadata {
	vars := Metadata{}
	if strategy == nil || len(strategy.Variables) == 0 {
		for k, v := range meta {
			vars[k] = v
		}
	} else {
		for _, name := range strategy.Variables {
			if v, ok := meta[name]; ok {
				vars[name] = v
			}
		}
	}
	vars["category"] = categorySegment
	return vars
}

func (r *Resolver) mayCreate(rule model.ClassificationRule, segments []string, view View, result model.ClassificationResult) bool {
	st := r.rules.Strategy()
	if !st.AllowNewFolders {
		return false
	}

	patterns := append([]string{rule.Category}, rule.TargetPatterns...)
	if result.Confidence < st.HighConfidenceThreshold && view.CountMatching(patterns) >= st.MinFolderCount {
		return false
	}

	if limit := r.templates.Validation().MaxFoldersPerLevel; limit > 0 {
		for i := range segments {
			if view.Exists(model.JoinSegments(segments[:i+1])) {
				continue
			}
			if view.Children(model.JoinSegments(segments[:i])) >= limit {
				return false
			}
		}
	}
	return true
}

// reuse finds an existing folder for a document that may not create new
// ones: the deepest existing prefix of its own path, else the first folder
// matching one of the category's target patterns.
func (r *Resolver) reuse(rule model.ClassificationRule, segments []string, view View, limit int) (model.ResolvedPath, bool) {
	for i := len(segments) - 1; i >= 1; i-- {
		if view.Exists(model.JoinSegments(segments[:i])) {
			return model.ResolvedPath{Segments: append([]string(nil), segments[:i]...)}, true
		}
	}

	patterns := append([]string(nil), rule.TargetPatterns...)
	patterns = append(patterns, rule.Category)
	folder, ok := view.Match(patterns)
	if !ok {
		return model.ResolvedPath{}, false
	}
	found := strings.Split(folder, "/")
	if len(found) > limit {
		found = found[:limit]
	}
	return model.ResolvedPath{Segments: found}, true
}

// fallback places the document in the first fallback folder that exists, or
// creates the first configured one.
func (r *Resolver) fallback(view View, redirected bool) model.ResolvedPath {
	naming := r.templates.Naming()
	var first string
	for _, name := range r.rules.FallbackFolders() {
		seg := naming.SanitizeSegment(name)
		if seg == "" {
			continue
		}
		if first == "" {
			first = seg
		}
		if view.Exists(seg) {
			return model.ResolvedPath{Segments: []string{seg}, Redirected: redirected}
		}
	}
	if first == "" {
		first = "misc"
	}
	return model.ResolvedPath{Segments: []string{first}, Created: true, Redirected: redirected}
}

func hasMissing(segments []string, view View) bool {
	for i := range segments {
		if !view.Exists(model.JoinSegments(segments[:i+1])) {
			return true
		}
	}
	return false
}

// substitute fills every placeholder in pattern. It reports false when any
// placeholder has no value, in which case the segment is dropped.
func substitute(pattern string, vars Metadata) (string, bool) {
	ok := true
	out := placeholder.ReplaceAllStringFunc(pattern, func(m string) string {
		name := m[1 : len(m)-1]
		v, found := vars[name]
		if !found || v == "" {
			ok = false
			return ""
		}
		return v
	})
	return strings.TrimSpace(out), ok
}
