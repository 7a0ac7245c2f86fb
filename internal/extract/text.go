package extract

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// decodeText returns data as UTF-8 and the name of the encoding it was read
// as. UTF-8 is tried first, then UTF-16 by BOM, then GB18030 (a superset of
// GBK and GB2312).
func decodeText(data []byte) (string, string) {
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		return string(data[len(bomUTF8):]), "utf-8"
	case bytes.HasPrefix(data, bomUTF16LE):
		if s, ok := decodeWith(unicode.UTF16(unicode.LittleEndian, unicode.UseBOM), data); ok {
			return s, "utf-16"
		}
	case bytes.HasPrefix(data, bomUTF16BE):
		if s, ok := decodeWith(unicode.UTF16(unicode.BigEndian, unicode.UseBOM), data); ok {
			return s, "utf-16"
		}
	}
	if utf8.Valid(data) {
		return string(data), "utf-8"
	}
	if s, ok := decodeWith(simplifiedchinese.GB18030, data); ok {
		return s, "gb18030"
	}
	return strings.ToValidUTF8(string(data), "�"), "latin1"
}

func decodeWith(enc encoding.Encoding, data []byte) (string, bool) {
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil || !utf8.Valid(out) {
		return "", false
	}
	return string(out), true
}

func readText(data []byte) (string, map[string]string, error) {
	content, enc := decodeText(data)
	return content, map[string]string{"encoding": enc}, nil
}

// readMarkdown reads text and takes the first level-one heading as the title.
func readMarkdown(data []byte) (string, map[string]string, error) {
	content, meta, err := readText(data)
	if err != nil {
		return "", nil, err
	}
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			meta["title"] = strings.TrimSpace(strings.TrimPrefix(line, "# "))
			break
		}
	}
	return content, meta, nil
}
