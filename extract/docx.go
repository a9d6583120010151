package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// DOCXExtractor linearizes a word-processing report. Paragraphs become lines;
// tables become lines too, with every column padded to its widest cell so
// numbers stay under their size labels.
type DOCXExtractor struct{}

func (e *DOCXExtractor) SupportedFormats() []string { return []string{"docx"} }

func (e *DOCXExtractor) Extract(ctx context.Context, path string) (*Extraction, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening DOCX: %w", err)
	}
	defer r.Close()

	var docFile *zip.File
	for _, f := range r.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return nil, fmt.Errorf("word/document.xml not found in DOCX")
	}

	rc, err := docFile.Open()
	if err != nil {
		return nil, fmt.Errorf("opening document.xml: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}

	lines, err := docxLines(data)
	if err != nil {
		return nil, fmt.Errorf("parsing DOCX XML: %w", err)
	}

	return &Extraction{
		Mode:   ModeLines,
		Text:   strings.Join(lines, "\n"),
		Method: "native",
		Pages:  1,
		Metadata: map[string]string{
			"line_count": fmt.Sprintf("%d", len(lines)),
		},
	}, nil
}

// docxLines walks document.xml in order, so tables stay between the
// paragraphs that surround them.
func docxLines(data []byte) ([]string, error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))

	var (
		lines  []string
		para   strings.Builder
		tables []*docxTable
		inRun  bool
		inText bool
	)
	current := func() *docxTable {
		if len(tables) == 0 {
			return nil
		}
		return tables[len(tables)-1]
	}

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				para.Reset()
			case "r":
				inRun = true
			case "t":
				inText = inRun
			case "tab":
				// Tab stop definitions in paragraph properties use the same
				// element name; only tabs inside a run are text.
				if inRun {
					para.WriteByte('\t')
				}
			case "br", "cr":
				if inRun {
					para.WriteByte('\n')
				}
			case "tbl":
				tables = append(tables, &docxTable{})
			case "tr":
				if tb := current(); tb != nil {
					tb.startRow()
				}
			}

		case xml.CharData:
			if inText {
				para.Write(t)
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "r":
				inRun = false
			case "p":
				text := para.String()
				para.Reset()
				if tb := current(); tb != nil {
					tb.addText(text)
				} else {
					lines = append(lines, strings.Split(text, "\n")...)
				}
			case "tc":
				if tb := current(); tb != nil {
					tb.endCell()
				}
			case "tbl":
				tb := current()
				if tb == nil {
					break
				}
				tables = tables[:len(tables)-1]
				rendered := tb.render()
				if parent := current(); parent != nil {
					parent.addText(strings.Join(rendered, " "))
				} else {
					lines = append(lines, rendered...)
				}
			}
		}
	}

	return lines, nil
}

type docxTable struct {
	rows [][]string
	cell []string // paragraphs of the cell being read
}

func (tb *docxTable) startRow() {
	tb.rows = append(tb.rows, nil)
}

func (tb *docxTable) addText(s string) {
	if s = strings.Join(strings.Fields(s), " "); s != "" {
		tb.cell = append(tb.cell, s)
	}
}

func (tb *docxTable) endCell() {
	if len(tb.rows) == 0 {
		tb.startRow()
	}
	last := len(tb.rows) - 1
	tb.rows[last] = append(tb.rows[last], strings.Join(tb.cell, " "))
	tb.cell = nil
}

// render lays the table out as text with columns aligned.
func (tb *docxTable) render() []string {
	var widths []int
	for _, row := range tb.rows {
		for c, cell := range row {
			if c >= len(widths) {
				widths = append(widths, 0)
			}
			if n := utf8.RuneCountInString(cell); n > widths[c] {
				widths[c] = n
			}
		}
	}

	lines := make([]string, 0, len(tb.rows))
	for _, row := range tb.rows {
		var b strings.Builder
		for c, cell := range row {
			b.WriteString(cell)
			if c < len(row)-1 {
				b.WriteString(strings.Repeat(" ", widths[c]-utf8.RuneCountInString(cell)+2))
			}
		}
		lines = append(lines, strings.TrimRight(b.String(), " "))
	}
	return lines
}
