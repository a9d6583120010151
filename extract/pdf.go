package extract

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

const (
	// rowTolerance is how far apart two baselines can be and still form
	// one row.
	rowTolerance = 2.0
	// Gaps are measured in multiples of the font size: a small gap is a
	// space between words, a wide one separates cells.
	wordGapFactor = 0.2
	cellGapFactor = 1.5
	defaultFont   = 10.0
)

// PDFExtractor rebuilds table rows from a page document. Text runs sharing a
// baseline form a row; horizontal gaps split the row into cells.
type PDFExtractor struct{}

func (e *PDFExtractor) SupportedFormats() []string { return []string{"pdf"} }

func (e *PDFExtractor) Extract(ctx context.Context, path string) (ext *Extraction, err error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer f.Close()

	// The content stream decoder panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			ext, err = nil, fmt.Errorf("reading PDF content: %v", r)
		}
	}()

	totalPages := reader.NumPage()
	var rows [][]string
	pages := 0

	// Pages are read one after the other so rows keep document order.
	for i := 1; i <= totalPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		pageRows := rowsFromTexts(page.Content().Text)
		if len(pageRows) == 0 {
			continue
		}
		if len(rows) > 0 {
			rows = append(rows, nil)
		}
		rows = append(rows, pageRows...)
		pages++
	}

	return &Extraction{
		Mode:   ModeRows,
		Rows:   rows,
		Method: "native",
		Pages:  pages,
		Metadata: map[string]string{
			"page_count": fmt.Sprintf("%d", totalPages),
			"row_count":  fmt.Sprintf("%d", len(rows)),
		},
	}, nil
}

type textRow struct {
	y     float64
	texts []pdf.Text
}

// rowsFromTexts groups positioned text runs into rows of cells, top of the
// page first.
func rowsFromTexts(texts []pdf.Text) [][]string {
	var rows []textRow
	for _, t := range texts {
		if strings.TrimSpace(t.S) == "" {
			continue
		}
		placed := false
		for i := range rows {
			if math.Abs(rows[i].y-t.Y) < rowTolerance {
				rows[i].texts = append(rows[i].texts, t)
				placed = true
				break
			}
		}
		if !placed {
			rows = append(rows, textRow{y: t.Y, texts: []pdf.Text{t}})
		}
	}

	// PDF y grows upwards.
	slices.SortStableFunc(rows, func(a, b textRow) int { return cmp.Compare(b.y, a.y) })

	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, cellsFromTexts(r.texts))
	}
	return out
}

func cellsFromTexts(texts []pdf.Text) []string {
	slices.SortStableFunc(texts, func(a, b pdf.Text) int { return cmp.Compare(a.X, b.X) })

	var cells []string
	var cur strings.Builder
	prevEnd := 0.0
	for i, t := range texts {
		size := t.FontSize
		if size <= 0 {
			size = defaultFont
		}
		if i > 0 {
			gap := t.X - prevEnd
			switch {
			case gap > size*cellGapFactor:
				cells = append(cells, strings.TrimSpace(cur.String()))
				cur.Reset()
			case gap > size*wordGapFactor:
				cur.WriteByte(' ')
			}
		}
		cur.WriteString(t.S)

		w := t.W
		if w <= 0 {
			w = size * 0.5 * float64(utf8.RuneCountInString(t.S))
		}
		prevEnd = t.X + w
	}
	if cur.Len() > 0 {
		cells = append(cells, strings.TrimSpace(cur.String()))
	}
	return cells
}
