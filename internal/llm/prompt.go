package llm

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Squareczm/DocumentationTool/internal/model"
)

const systemPrompt = "You label documents for a personal knowledge base. " +
	"Respond with ONLY a valid JSON object, without markdown fences or commentary."

// buildPrompt renders the labeling request for doc. categories are the known
// rule categories the model should prefer.
func buildPrompt(doc model.Document, categories []string, maxChars int) string {
	var b strings.Builder

	b.WriteString("请分析以下文档内容，提取核心主体并建议合适的分类。\n\n")
	fmt.Fprintf(&b, "文件名: %s\n", doc.Name)
	fmt.Fprintf(&b, "文件类型: %s\n", doc.Extension)
	if doc.Title != "" {
		fmt.Fprintf(&b, "标题: %s\n", doc.Title)
	}

	if len(doc.Metadata) > 0 {
		b.WriteString("\n元数据信息:\n")
		keys := make([]string, 0, len(doc.Metadata))
		for k := range doc.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "- %s: %s\n", k, doc.Metadata[k])
		}
	}

	if len(categories) > 0 {
		b.WriteString("\n已有分类:\n")
		for _, c := range categories {
			fmt.Fprintf(&b, "- %s\n", c)
		}
	}

	b.WriteString("\n文档内容:\n")
	b.WriteString(clipRunes(doc.Content, maxChars))
	b.WriteString("\n\n")

	b.WriteString(`请严格按照JSON格式返回结果:
{
    "subject": "文档的核心主体，简洁明了，适合作为文件名",
    "suggested_folder": "最合适的已有分类名称，没有合适的分类时留空",
    "project_name": "文档所属项目名称，没有则留空",
    "date": "文档内容中的日期，格式YYYY-MM-DD，没有则留空",
    "confidence": 0.85,
    "reasoning": "提取主体和建议分类的理由"
}
`)
	return b.String()
}

func clipRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
