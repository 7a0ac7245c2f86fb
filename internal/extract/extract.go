// Package extract reads inbox files into documents: text content, metadata
// and candidate dates.
package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Squareczm/DocumentationTool/internal/common"
	"github.com/Squareczm/DocumentationTool/internal/model"
)

// Provider turns a file path into a Document.
type Provider interface {
	Extract(ctx context.Context, path string) (model.Document, error)
}

// DefaultMaxContentChars caps the extracted text kept per document.
const DefaultMaxContentChars = 100_000

type reader func(data []byte) (content string, meta map[string]string, err error)

// FileProvider extracts documents from the local filesystem.
type FileProvider struct {
	readers         map[string]reader
	now             func() time.Time
	maxContentChars int
}

// Option configures a FileProvider.
type Option func(*FileProvider)

// WithMaxContentChars caps the extracted content length in runes.
func WithMaxContentChars(n int) Option {
	return func(p *FileProvider) {
		if n > 0 {
			p.maxContentChars = n
		}
	}
}

// WithClock overrides the clock used for the current-date candidate.
func WithClock(now func() time.Time) Option {
	return func(p *FileProvider) {
		p.now = now
	}
}

// NewFileProvider creates a provider for every supported extension.
func NewFileProvider(opts ...Option) *FileProvider {
	html := newHTMLConverter()
	p := &FileProvider{
		readers: map[string]reader{
			".txt":  readText,
			".md":   readMarkdown,
			".html": html.read,
			".htm":  html.read,
			".docx": readDocx,
			".xlsx": readXlsx,
			".pdf":  readPDF,
		},
		now:             time.Now,
		maxContentChars: DefaultMaxContentChars,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SupportedExtensions lists the extensions the provider can read, sorted.
func (p *FileProvider) SupportedExtensions() []string {
	out := make([]string, 0, len(p.readers))
	for ext := range p.readers {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// Supports reports whether ext (with or without the dot) can be read.
func (p *FileProvider) Supports(ext string) bool {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	_, ok := p.readers[ext]
	return ok
}

// Extract reads path. Unsupported extensions return common.ErrUnsupportedFormat.
func (p *FileProvider) Extract(ctx context.Context, path string) (model.Document, error) {
	if err := ctx.Err(); err != nil {
		return model.Document{}, err
	}

	name := filepath.Base(path)
	ext := strings.ToLower(filepath.Ext(name))
	read, ok := p.readers[ext]
	if !ok {
		return model.Document{}, fmt.Errorf("%w: %s", common.ErrUnsupportedFormat, ext)
	}

	info, err := os.Stat(path)
	if err != nil {
		return model.Document{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return model.Document{}, fmt.Errorf("%w: %s is a directory", common.ErrUnsupportedFormat, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return model.Document{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	content, meta, err := read(data)
	if err != nil {
		return model.Document{}, fmt.Errorf("failed to extract %s: %w", name, err)
	}
	if meta == nil {
		meta = make(map[string]string)
	}

	doc := model.Document{
		Path:      path,
		Name:      name,
		Extension: ext,
		Size:      info.Size(),
		Content:   clip(content, p.maxContentChars),
		Metadata:  meta,
		Title:     strings.TrimSpace(meta["title"]),
	}

	now := p.now()
	modified := info.ModTime()
	doc.Dates = model.CandidateDates{
		Modification: &modified,
		Current:      &now,
	}
	if t, ok := parseMetaTime(meta["created"]); ok {
		doc.Dates.Creation = &t
	}
	if found, ok := ContentDate(doc.Content); ok {
		d := found.Date
		doc.Dates.Content = &d
		doc.Metadata["content_date_confidence"] = fmt.Sprintf("%.2f", found.Confidence)
	}
	return doc, nil
}

func clip(s string, n int) string {
	if n <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

var metaTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseMetaTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range metaTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
