package extract

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// FoundDate is a date recognised in document text.
type FoundDate struct {
	Date       time.Time
	Raw        string
	Confidence float64
}

type datePattern struct {
	re         *regexp.Regexp
	order      [3]int // indexes of year, month, day among the submatches
	confidence float64
}

var datePatterns = []datePattern{
	{re: regexp.MustCompile(`(\d{4})[/-](\d{1,2})[/-](\d{1,2})`), order: [3]int{1, 2, 3}, confidence: 0.9},
	{re: regexp.MustCompile(`(\d{4})年(\d{1,2})月(\d{1,2})日`), order: [3]int{1, 2, 3}, confidence: 0.9},
	{re: regexp.MustCompile(`(\d{1,2})[/-](\d{1,2})[/-](\d{4})`), order: [3]int{3, 1, 2}, confidence: 0.7},
	{re: regexp.MustCompile(`(\d{1,2})\.(\d{1,2})\.(\d{4})`), order: [3]int{3, 2, 1}, confidence: 0.7},
	{re: regexp.MustCompile(`(?:^|\D)((\d{4})(\d{2})(\d{2}))(?:\D|$)`), order: [3]int{2, 3, 4}, confidence: 0.8},
}

// dateKeywords raise confidence for dates on the same line.
var dateKeywords = []string{
	"日期", "时间", "创建时间", "修改时间", "撰写时间",
	"会议时间", "报告时间", "记录时间", "发布时间",
}

const keywordBoost = 0.3

// ContentDate finds the most credible date in content. Lines mentioning a
// date keyword score higher; earlier matches win ties.
func ContentDate(content string) (FoundDate, bool) {
	var (
		best  FoundDate
		found bool
	)
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		boost := 0.0
		for _, kw := range dateKeywords {
			if strings.Contains(line, kw) {
				boost = keywordBoost
				break
			}
		}
		for _, d := range datesIn(line) {
			d.Confidence += boost
			if !found || d.Confidence > best.Confidence {
				best = d
				found = true
			}
		}
	}
	if best.Confidence > 1 {
		best.Confidence = 1
	}
	return best, found
}

func datesIn(text string) []FoundDate {
	var out []FoundDate
	for _, p := range datePatterns {
		for _, m := range p.re.FindAllStringSubmatch(text, -1) {
			y, _ := strconv.Atoi(m[p.order[0]])
			mo, _ := strconv.Atoi(m[p.order[1]])
			d, _ := strconv.Atoi(m[p.order[2]])
			t, ok := validDate(y, mo, d)
			if !ok {
				continue
			}
			raw := m[0]
			if len(m) > 4 {
				raw = m[1]
			}
			out = append(out, FoundDate{Date: t, Raw: raw, Confidence: p.confidence})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Confidence > out[j].Confidence
	})
	return out
}

func validDate(y, m, d int) (time.Time, bool) {
	if y < 1900 || y > 2200 || m < 1 || m > 12 || d < 1 || d > 31 {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.Local)
	if t.Day() != d || int(t.Month()) != m {
		return time.Time{}, false
	}
	return t, true
}
