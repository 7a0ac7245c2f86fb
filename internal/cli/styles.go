// Package cli renders filer output for the terminal using lipgloss.
package cli

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	// AccentColor is the main theme color.
	AccentColor = lipgloss.Color("#5B8DEF")
	// SuccessColor marks placed documents.
	SuccessColor = lipgloss.Color("#4ECDC4")
	// WarningColor marks skipped documents and fallbacks.
	WarningColor = lipgloss.Color("#FFE66D")
	// ErrorColor marks failures.
	ErrorColor = lipgloss.Color("#FF6B6B")
	// SubtleColor is used for secondary text.
	SubtleColor = lipgloss.Color("#666666")

	// TitleStyle is used for section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(AccentColor)

	// SuccessStyle formats success messages.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor)

	// WarningStyle formats warning messages.
	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor)

	// ErrorStyle formats error messages.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor)

	// SubtleStyle formats less prominent text.
	SubtleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor)

	// BoxStyle is used for bordered summaries.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#333")).
			Padding(0, 2)

	// HeaderStyle is used for table headers.
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			PaddingRight(2)

	// CellStyle pads table cells.
	CellStyle = lipgloss.NewStyle().
			PaddingRight(2)
)

// Icons.
const (
	SuccessIcon = "✓"
	ErrorIcon   = "✗"
	WarningIcon = "⚠"
	SkipIcon    = "–"
	FolderIcon  = "📁"
)

// Styler applies styles, or leaves text plain when color is off.
type Styler struct {
	color bool
}

// NewStyler creates a Styler.
func NewStyler(color bool) Styler {
	return Styler{color: color}
}

func (s Styler) render(style lipgloss.Style, text string) string {
	if !s.color {
		return text
	}
	return style.Render(text)
}

// Title formats a heading.
func (s Styler) Title(text string) string { return s.render(TitleStyle, text) }

// Success formats a success message with icon.
func (s Styler) Success(text string) string { return s.render(SuccessStyle, SuccessIcon+" "+text) }

// Warning formats a warning message with icon.
func (s Styler) Warning(text string) string { return s.render(WarningStyle, WarningIcon+" "+text) }

// Error formats an error message with icon.
func (s Styler) Error(text string) string { return s.render(ErrorStyle, ErrorIcon+" "+text) }

// Subtle formats secondary text.
func (s Styler) Subtle(text string) string { return s.render(SubtleStyle, text) }

// Box renders content under a title in a bordered box.
func (s Styler) Box(title, content string) string {
	body := lipgloss.JoinVertical(lipgloss.Left, s.Title(title), "", content)
	if !s.color {
		return body
	}
	return BoxStyle.Render(body)
}
