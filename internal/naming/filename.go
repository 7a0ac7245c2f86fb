package naming

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

var subjectReplacer = strings.NewReplacer(
	"<", "《",
	">", "》",
	":", "：",
	`"`, "＂",
	"|", "｜",
	"?", "？",
	"*", "＊",
	`\`, "_",
	"/", "_",
)

// SanitizeSubject makes subject safe for use in a filename. Characters that
// are invalid on common filesystems are replaced by full-width look-alikes,
// whitespace is collapsed, and an empty result becomes "untitled".
func SanitizeSubject(subject string) string {
	subject = subjectReplacer.Replace(subject)
	subject = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, subject)
	subject = strings.Join(strings.Fields(subject), " ")
	subject = strings.Trim(subject, " .")
	if subject == "" {
		return "untitled"
	}
	return subject
}

// NormalizeSubject returns the form of subject used in identity keys.
func NormalizeSubject(subject string) string {
	return strings.ToLower(SanitizeSubject(subject))
}

// MaxNameBytes is the longest file name, in bytes, that common filesystems
// accept.
const MaxNameBytes = 255

// Assemble builds {subject}_{date}_{version}{ext}. When the name is longer
// than maxLen runes or MaxNameBytes bytes, characters are removed from the
// middle of the subject; the date, version and extension are never
// shortened. maxLen of zero disables the rune limit only.
func Assemble(subject, date, version, ext string, maxLen int) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	suffix := "_" + date + "_" + version + ext
	if maxLen > 0 && utf8.RuneCountInString(subject+suffix) > maxLen {
		avail := maxLen - utf8.RuneCountInString(suffix)
		if avail < 1 {
			avail = 1
		}
		subject = truncateMiddle(subject, avail)
	}

	// Multi-byte subjects can fit the rune limit and still be too long on disk.
	for n := utf8.RuneCountInString(subject); n > 1 && len(subject)+len(suffix) > MaxNameBytes; n-- {
		subject = truncateMiddle(subject, n-1)
	}
	return subject + suffix
}

func truncateMiddle(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	head := (n + 1) / 2
	tail := n - head
	return string(runes[:head]) + string(runes[len(runes)-tail:])
}

// Parsed is a filename split back into its tokens.
type Parsed struct {
	Time    time.Time
	Subject string
	Date    string
	Version string
	Ext     string
}

// ParseFilename reverses Assemble. When layout is non-empty the date token
// must parse with it.
func ParseFilename(name, layout string) (Parsed, error) {
	name = filepath.Base(name)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	if ext != "" && versionPattern.MatchString(stem[strings.LastIndexByte(stem, '_')+1:]+ext) {
		// the "extension" is part of a version token such as v1.0
		stem, ext = name, ""
	}

	i := strings.LastIndexByte(stem, '_')
	if i <= 0 {
		return Parsed{}, fmt.Errorf("%s: missing version token", name)
	}
	version := stem[i+1:]
	if _, err := ParseVersion(version); err != nil {
		return Parsed{}, fmt.Errorf("%s: %w", name, err)
	}

	rest := stem[:i]
	j := strings.LastIndexByte(rest, '_')
	if j <= 0 {
		return Parsed{}, fmt.Errorf("%s: missing date token", name)
	}

	p := Parsed{Subject: rest[:j], Date: rest[j+1:], Version: version, Ext: ext}
	if layout != "" {
		t, err := time.Parse(layout, p.Date)
		if err != nil {
			return Parsed{}, fmt.Errorf("%s: invalid date token: %w", name, err)
		}
		p.Time = t
	}
	return p, nil
}
