package naming

import (
	"strings"
	"time"

	"github.com/Squareczm/DocumentationTool/internal/common"
	"github.com/Squareczm/DocumentationTool/internal/model"
)

// SelectDate returns the first candidate date present in priority order. When
// none is present it falls back to now.
func SelectDate(dates model.CandidateDates, priority []model.DateSource, now time.Time) (time.Time, model.DateSource) {
	if len(priority) == 0 {
		priority = model.DefaultDatePriority
	}
	for _, source := range priority {
		if d := dates.Get(source); d != nil && !d.IsZero() {
			return *d, source
		}
	}
	return now, model.DateCurrent
}

// ParsePriority converts configured source names into date sources.
func ParsePriority(names []string) ([]model.DateSource, error) {
	out := make([]model.DateSource, 0, len(names))
	seen := make(map[model.DateSource]bool, len(names))
	for _, n := range names {
		src := model.DateSource(strings.TrimSpace(n))
		switch src {
		case model.DateContent, model.DateCreation, model.DateModification, model.DateCurrent:
		default:
			return nil, common.NewConfigError("date_extraction.priority", "unknown date source %q", n)
		}
		if !seen[src] {
			seen[src] = true
			out = append(out, src)
		}
	}
	return out, nil
}

var strftime = strings.NewReplacer(
	"%Y", "2006",
	"%m", "01",
	"%d", "02",
	"%H", "15",
	"%M", "04",
	"%S", "05",
	"%y", "06",
)

// Layout converts a strftime style date format such as %Y%m%d into a Go
// layout. Formats without a % directive are returned unchanged.
func Layout(format string) string {
	if !strings.Contains(format, "%") {
		return format
	}
	return strftime.Replace(format)
}
