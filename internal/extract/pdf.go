package extract

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	pdfInfoString = regexp.MustCompile(`/(Title|Author|Subject|Keywords|CreationDate|ModDate)\s*\(((?:\\.|[^\\)])*)\)`)
	pdfDate       = regexp.MustCompile(`^D:(\d{4})(\d{2})?(\d{2})?(\d{2})?(\d{2})?(\d{2})?`)
)

// readPDF reads the document information dictionary only; page text is not
// extracted, so PDFs classify on their metadata and file name.
func readPDF(data []byte) (string, map[string]string, error) {
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return "", nil, fmt.Errorf("missing PDF header")
	}

	meta := make(map[string]string)
	for _, m := range pdfInfoString.FindAllSubmatch(data, -1) {
		key := strings.ToLower(string(m[1]))
		value := unescapePDF(string(m[2]))
		switch key {
		case "creationdate":
			if t, ok := parsePDFDate(value); ok {
				meta["created"] = t.Format(time.RFC3339)
			}
		case "moddate":
			if t, ok := parsePDFDate(value); ok {
				meta["modified"] = t.Format(time.RFC3339)
			}
		case "author", "title", "subject", "keywords":
			if _, seen := meta[key]; !seen && value != "" {
				meta[key] = value
			}
		}
	}

	var content []string
	for _, k := range []string{"title", "subject", "keywords"} {
		if v := meta[k]; v != "" {
			content = append(content, v)
		}
	}
	return strings.Join(content, "\n"), meta, nil
}

var pdfEscapes = strings.NewReplacer(`\(`, "(", `\)`, ")", `\\`, `\`, `\n`, "\n", `\r`, "", `\t`, "\t")

func unescapePDF(s string) string {
	return strings.TrimSpace(pdfEscapes.Replace(s))
}

func parsePDFDate(s string) (time.Time, bool) {
	m := pdfDate.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	parts := []string{m[1], "01", "01", "00", "00", "00"}
	for i := 2; i <= 6; i++ {
		if m[i] != "" {
			parts[i-1] = m[i]
		}
	}
	t, err := time.Parse("20060102150405", strings.Join(parts, ""))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
