package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/Squareczm/DocumentationTool/internal/model"
	"github.com/Squareczm/DocumentationTool/internal/service"
)

// Check is one line of the environment check.
type Check struct {
	Name   string
	Detail string
	OK     bool
	// Warn marks a check that passed with a caveat.
	Warn bool
}

// Summary renders the end-of-run box. With verbose every outcome is listed,
// otherwise only failures.
func (s Styler) Summary(summary model.BatchSummary, outcomes []model.Outcome, verbose bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run:             %s\n", summary.RunID)
	fmt.Fprintf(&b, "Documents:       %d\n", summary.Total)
	fmt.Fprintf(&b, "Placed:          %s\n", s.render(SuccessStyle, fmt.Sprint(summary.Placed)))
	fmt.Fprintf(&b, "Skipped:         %s\n", s.render(WarningStyle, fmt.Sprint(summary.Skipped)))
	fmt.Fprintf(&b, "Failed:          %s\n", s.render(ErrorStyle, fmt.Sprint(summary.Failed)))
	fmt.Fprintf(&b, "Folders created: %d\n", summary.FoldersCreated)
	if len(summary.ByTier) > 0 {
		tiers := []model.Tier{model.TierExact, model.TierSemantic, model.TierFallback}
		parts := make([]string, 0, len(tiers))
		for _, t := range tiers {
			parts = append(parts, fmt.Sprintf("%s %d", t, summary.ByTier[t]))
		}
		fmt.Fprintf(&b, "Tiers:           %s\n", strings.Join(parts, ", "))
	}
	fmt.Fprintf(&b, "Time taken:      %s", summary.Duration.Round(time.Millisecond))

	var lines []string
	for _, o := range outcomes {
		if verbose || o.Status == model.OutcomeFailed {
			lines = append(lines, s.Outcome(o))
		}
	}
	if len(lines) > 0 {
		b.WriteString("\n\n")
		b.WriteString(strings.Join(lines, "\n"))
	}
	return s.Box("Filing complete", b.String())
}

// Outcome renders one processed document on a single line.
func (s Styler) Outcome(o model.Outcome) string {
	switch o.Status {
	case model.OutcomePlaced:
		return s.Success(fmt.Sprintf("%s → %s/%s", o.Source, o.Path.Key(), o.Filename))
	case model.OutcomeSkipped:
		return s.Subtle(fmt.Sprintf("%s %s: %v", SkipIcon, o.Source, o.Err))
	default:
		return s.Error(fmt.Sprintf("%s: %v", o.Source, o.Err))
	}
}

// Classification renders a dry classification of one document.
func (s Styler) Classification(doc model.Document, result model.ClassificationResult, hint *model.LabelerHint) string {
	var b strings.Builder
	fmt.Fprintf(&b, "File:       %s\n", doc.Path)
	if doc.Title != "" {
		fmt.Fprintf(&b, "Title:      %s\n", doc.Title)
	}
	fmt.Fprintf(&b, "Category:   %s\n", s.Title(result.Category))
	fmt.Fprintf(&b, "Tier:       %s\n", result.Tier)
	fmt.Fprintf(&b, "Confidence: %.2f", result.Confidence)
	if result.Hinted {
		b.WriteString(" (labeler)")
	}
	if hint != nil {
		fmt.Fprintf(&b, "\nSubject:    %s", hint.Subject)
		if hint.Reasoning != "" {
			fmt.Fprintf(&b, "\nReasoning:  %s", hint.Reasoning)
		}
	}

	if len(result.Breakdown) > 0 {
		names := make([]string, 0, len(result.Breakdown))
		for name := range result.Breakdown {
			names = append(names, name)
		}
		sort.Slice(names, func(i, j int) bool {
			si, sj := result.Breakdown[names[i]], result.Breakdown[names[j]]
			if si != sj {
				return si > sj
			}
			return names[i] < names[j]
		})
		rows := make([][]string, 0, len(names))
		for _, name := range names {
			rows = append(rows, []string{name, fmt.Sprintf("%.3f", result.Breakdown[name])})
		}
		b.WriteString("\n\n")
		b.WriteString(s.Table([]string{"Category", "Score"}, rows))
	}
	return s.Box("Classification", b.String())
}

// Rules renders the rule table ordered by priority.
func (s Styler) Rules(rules []model.ClassificationRule) string {
	sorted := append([]model.ClassificationRule(nil), rules...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Priority != sorted[j].Priority {
			return sorted[i].Priority < sorted[j].Priority
		}
		return sorted[i].Category < sorted[j].Category
	})

	rows := make([][]string, 0, len(sorted))
	for _, r := range sorted {
		rows = append(rows, []string{
			fmt.Sprint(r.Priority),
			r.Category,
			r.FolderName(),
			strings.Join(r.Keywords, ", "),
			strings.Join(r.FileTypes, " "),
		})
	}
	return s.Table([]string{"Priority", "Category", "Folder", "Keywords", "Types"}, rows)
}

// Ledger renders version records.
func (s Styler) Ledger(records []model.VersionRecord) string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.RecordedAt.Local().Format("2006-01-02 15:04"),
			r.Key.Folder,
			r.Version.String(),
			r.Filename,
		})
	}
	return s.Table([]string{"Recorded", "Folder", "Version", "Filename"}, rows)
}

// Placements renders recent placement history.
func (s Styler) Placements(records []service.PlacementRecord) string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		dest := r.Folder
		if r.Filename != "" {
			dest += "/" + r.Filename
		}
		if r.Error != "" {
			dest = r.Error
		}
		rows = append(rows, []string{
			r.PlacedAt.Local().Format("2006-01-02 15:04"),
			string(r.Status),
			r.Source,
			dest,
		})
	}
	return s.Table([]string{"When", "Status", "Source", "Destination"}, rows)
}

// Checks renders the environment check list.
func (s Styler) Checks(checks []Check) string {
	lines := make([]string, 0, len(checks))
	for _, c := range checks {
		text := c.Name
		if c.Detail != "" {
			text += ": " + c.Detail
		}
		switch {
		case !c.OK:
			lines = append(lines, s.Error(text))
		case c.Warn:
			lines = append(lines, s.Warning(text))
		default:
			lines = append(lines, s.Success(text))
		}
	}
	return strings.Join(lines, "\n")
}

// Table lays out rows in aligned columns. Widths are measured in terminal
// cells so CJK text lines up.
func (s Styler) Table(header []string, rows [][]string) string {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			if w := lipgloss.Width(row[i]); w > widths[i] {
				widths[i] = w
			}
		}
	}

	line := func(cells []string, style lipgloss.Style) string {
		parts := make([]string, len(widths))
		for i := range widths {
			var cell string
			if i < len(cells) {
				cell = cells[i]
			}
			pad := cell + strings.Repeat(" ", widths[i]-lipgloss.Width(cell))
			if i < len(widths)-1 {
				pad += "  "
			}
			parts[i] = s.render(style, pad)
		}
		return strings.TrimRight(strings.Join(parts, ""), " ")
	}

	out := []string{line(header, HeaderStyle.UnsetPaddingRight())}
	for _, row := range rows {
		out = append(out, line(row, CellStyle.UnsetPaddingRight()))
	}
	return strings.Join(out, "\n")
}
