package extract

import (
	"bytes"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"golang.org/x/net/html"
)

var excessiveLines = regexp.MustCompile(`\n{3,}`)

// htmlConverter renders HTML documents as markdown text.
type htmlConverter struct {
	converter *md.Converter
}

func newHTMLConverter() *htmlConverter {
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())
	converter.Remove("script", "style", "noscript", "nav", "footer")
	return &htmlConverter{converter: converter}
}

func (c *htmlConverter) read(data []byte) (string, map[string]string, error) {
	text, enc := decodeText(data)
	meta := map[string]string{"encoding": enc}

	doc, err := html.Parse(strings.NewReader(text))
	if err == nil {
		collectHTMLMeta(doc, meta)
	}

	markdown, err := c.converter.ConvertString(text)
	if err != nil {
		return "", nil, err
	}
	markdown = excessiveLines.ReplaceAllString(strings.TrimSpace(markdown), "\n\n")
	return markdown, meta, nil
}

// collectHTMLMeta records <title> and the author, description and keywords meta tags.
func collectHTMLMeta(n *html.Node, meta map[string]string) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "title":
			if _, ok := meta["title"]; !ok && n.FirstChild != nil {
				var b bytes.Buffer
				for c := n.FirstChild; c != nil; c = c.NextSibling {
					if c.Type == html.TextNode {
						b.WriteString(c.Data)
					}
				}
				if t := strings.TrimSpace(b.String()); t != "" {
					meta["title"] = t
				}
			}
		case "meta":
			var name, content string
			for _, a := range n.Attr {
				switch strings.ToLower(a.Key) {
				case "name":
					name = strings.ToLower(a.Val)
				case "content":
					content = strings.TrimSpace(a.Val)
				}
			}
			switch name {
			case "author", "description", "keywords":
				if content != "" {
					meta[name] = content
				}
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectHTMLMeta(c, meta)
	}
}
