package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
)

func openZip(data []byte) (*zip.Reader, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("not an office document: %w", err)
	}
	return zr, nil
}

func zipEntry(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer func() { _ = rc.Close() }()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("%s: %w", name, errMissingEntry)
}

var errMissingEntry = errors.New("missing archive entry")

// coreProperties reads docProps/core.xml. A missing part yields no metadata.
func coreProperties(zr *zip.Reader) map[string]string {
	meta := make(map[string]string)
	data, err := zipEntry(zr, "docProps/core.xml")
	if err != nil {
		return meta
	}

	keys := map[string]string{
		"title":    "title",
		"creator":  "author",
		"subject":  "subject",
		"keywords": "keywords",
		"created":  "created",
		"modified": "modified",
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	var current string
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			current = keys[t.Name.Local]
		case xml.CharData:
			if current != "" {
				if v := strings.TrimSpace(string(t)); v != "" {
					meta[current] = v
				}
			}
		case xml.EndElement:
			current = ""
		}
	}
	return meta
}

// readDocx extracts paragraph text and table rows from word/document.xml.
func readDocx(data []byte) (string, map[string]string, error) {
	zr, err := openZip(data)
	if err != nil {
		return "", nil, err
	}
	body, err := zipEntry(zr, "word/document.xml")
	if err != nil {
		return "", nil, err
	}

	var (
		lines     []string
		para      strings.Builder
		cell      []string
		row       []string
		inText    bool
		cellDepth int
	)
	dec := xml.NewDecoder(bytes.NewReader(body))
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", nil, fmt.Errorf("word/document.xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				para.WriteByte('\t')
			case "tc":
				cellDepth++
				cell = cell[:0]
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				text := strings.TrimSpace(para.String())
				para.Reset()
				if text == "" {
					continue
				}
				if cellDepth > 0 {
					cell = append(cell, text)
				} else {
					lines = append(lines, text)
				}
			case "tc":
				cellDepth--
				if text := strings.Join(cell, " "); text != "" {
					row = append(row, text)
				}
			case "tr":
				if len(row) > 0 {
					lines = append(lines, strings.Join(row, " | "))
				}
				row = row[:0]
			}
		}
	}
	return strings.Join(lines, "\n"), coreProperties(zr), nil
}

type xlsxWorkbook struct {
	Sheets []struct {
		Name string `xml:"name,attr"`
		RID  string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
	} `xml:"sheets>sheet"`
}

type xlsxRels struct {
	Relationships []struct {
		ID     string `xml:"Id,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

type xlsxRichText struct {
	T string `xml:"t"`
	R []struct {
		T string `xml:"t"`
	} `xml:"r"`
}

func (r xlsxRichText) text() string {
	if len(r.R) == 0 {
		return r.T
	}
	var b strings.Builder
	for _, run := range r.R {
		b.WriteString(run.T)
	}
	return b.String()
}

type xlsxSharedStrings struct {
	Items []xlsxRichText `xml:"si"`
}

type xlsxSheet struct {
	Rows []struct {
		Cells []struct {
			Type   string       `xml:"t,attr"`
			Value  string       `xml:"v"`
			Inline xlsxRichText `xml:"is"`
		} `xml:"c"`
	} `xml:"sheetData>row"`
}

// readXlsx renders each worksheet as "工作表: name" followed by its non-empty rows.
func readXlsx(data []byte) (string, map[string]string, error) {
	zr, err := openZip(data)
	if err != nil {
		return "", nil, err
	}

	var wb xlsxWorkbook
	if err := unmarshalEntry(zr, "xl/workbook.xml", &wb); err != nil {
		return "", nil, err
	}
	var rels xlsxRels
	if err := unmarshalEntry(zr, "xl/_rels/workbook.xml.rels", &rels); err != nil {
		return "", nil, err
	}
	targets := make(map[string]string, len(rels.Relationships))
	for _, r := range rels.Relationships {
		target := strings.TrimPrefix(r.Target, "/")
		if !strings.HasPrefix(target, "xl/") {
			target = path.Join("xl", target)
		}
		targets[r.ID] = target
	}

	var shared xlsxSharedStrings
	if err := unmarshalEntry(zr, "xl/sharedStrings.xml", &shared); err != nil && !errors.Is(err, errMissingEntry) {
		return "", nil, err
	}

	var lines []string
	for _, s := range wb.Sheets {
		target, ok := targets[s.RID]
		if !ok {
			continue
		}
		var sheet xlsxSheet
		if err := unmarshalEntry(zr, target, &sheet); err != nil {
			return "", nil, err
		}
		lines = append(lines, "工作表: "+s.Name)
		for _, row := range sheet.Rows {
			values := make([]string, 0, len(row.Cells))
			nonEmpty := false
			for _, c := range row.Cells {
				v := c.Value
				switch c.Type {
				case "s":
					if idx, err := strconv.Atoi(v); err == nil && idx >= 0 && idx < len(shared.Items) {
						v = shared.Items[idx].text()
					}
				case "inlineStr":
					v = c.Inline.text()
				}
				v = strings.TrimSpace(v)
				if v != "" {
					nonEmpty = true
				}
				values = append(values, v)
			}
			if nonEmpty {
				lines = append(lines, strings.Join(values, " | "))
			}
		}
	}
	return strings.Join(lines, "\n"), coreProperties(zr), nil
}

func unmarshalEntry(zr *zip.Reader, name string, out any) error {
	data, err := zipEntry(zr, name)
	if err != nil {
		return err
	}
	if err := xml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
