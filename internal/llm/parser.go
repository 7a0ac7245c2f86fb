package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/Squareczm/DocumentationTool/internal/common"
	"github.com/Squareczm/DocumentationTool/internal/model"
)

var (
	fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")
	bareObject = regexp.MustCompile(`(?s)\{[^{}]*"subject"[^{}]*\}`)
)

// hintJSON mirrors the reply format requested by buildPrompt. Confidence is
// decoded loosely because models return it as a number or a string.
type hintJSON struct {
	Subject    string          `json:"subject"`
	Folder     string          `json:"suggested_folder"`
	Project    string          `json:"project_name"`
	Date       string          `json:"date"`
	Reasoning  string          `json:"reasoning"`
	Confidence json.RawMessage `json:"confidence"`
}

// parseHint extracts a LabelerHint from a model reply. It accepts a bare
// JSON object, a fenced one, or an object embedded in prose, and falls back
// to "subject: ..." lines.
func parseHint(content string) (model.LabelerHint, error) {
	content = strings.TrimSpace(content)

	candidates := []string{cleanMarkdownWrapper(content)}
	if m := fencedJSON.FindStringSubmatch(content); m != nil {
		candidates = append(candidates, m[1])
	}
	if m := bareObject.FindString(content); m != "" {
		candidates = append(candidates, m)
	}

	for _, c := range candidates {
		var raw hintJSON
		if err := json.Unmarshal([]byte(c), &raw); err != nil {
			continue
		}
		hint := model.LabelerHint{
			Subject:    strings.TrimSpace(raw.Subject),
			Category:   strings.TrimSpace(raw.Folder),
			Project:    strings.TrimSpace(raw.Project),
			Date:       strings.TrimSpace(raw.Date),
			Reasoning:  strings.TrimSpace(raw.Reasoning),
			Confidence: parseConfidence(raw.Confidence),
		}
		if hint.Subject != "" {
			return hint, nil
		}
	}

	if hint, ok := parseLines(content); ok {
		return hint, nil
	}
	return model.LabelerHint{}, fmt.Errorf("%w: no subject in reply", common.ErrInvalidResponse)
}

// cleanMarkdownWrapper strips a surrounding ```json fence and any text
// outside the outermost braces.
func cleanMarkdownWrapper(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		return content[start : end+1]
	}
	return content
}

func parseConfidence(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0.5
	}
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	pct := strings.HasSuffix(s, "%")
	s = strings.TrimSuffix(s, "%")
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0.5
	}
	if pct || v > 1 {
		v /= 100
	}
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

func parseLines(content string) (model.LabelerHint, bool) {
	var hint model.LabelerHint
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		idx := strings.IndexAny(line, ":：")
		if idx < 0 {
			continue
		}
		key := strings.ToLower(line[:idx])
		_, sepLen := utf8.DecodeRuneInString(line[idx:])
		value := strings.Trim(strings.TrimSpace(line[idx+sepLen:]), `"'“”‘’,`)
		switch {
		case strings.Contains(key, "subject") || strings.Contains(key, "主体"):
			hint.Subject = value
		case strings.Contains(key, "folder") || strings.Contains(key, "分类") || strings.Contains(key, "文件夹"):
			hint.Category = value
		}
	}
	if hint.Subject == "" {
		return model.LabelerHint{}, false
	}
	hint.Confidence = 0.5
	return hint, true
}
