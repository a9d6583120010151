package extract

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// CSVExtractor reads comma or semicolon separated exports as a cell grid.
type CSVExtractor struct{}

func (e *CSVExtractor) SupportedFormats() []string { return []string{"csv"} }

func (e *CSVExtractor) Extract(ctx context.Context, path string) (*Extraction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	text, charset, err := decodeText(data)
	if err != nil {
		return nil, fmt.Errorf("decoding CSV: %w", err)
	}

	delim := sniffDelimiter(text)
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing CSV: %w", err)
	}

	return &Extraction{
		Mode:   ModeRows,
		Rows:   rows,
		Method: "native",
		Pages:  1,
		Metadata: map[string]string{
			"charset":   charset,
			"delimiter": string(delim),
			"row_count": fmt.Sprintf("%d", len(rows)),
		},
	}, nil
}

// sniffDelimiter picks ';' when the first line has more semicolons than
// commas. Brazilian locale exports use ';'.
func sniffDelimiter(text string) rune {
	first, _, _ := strings.Cut(text, "\n")
	if strings.Count(first, ";") > strings.Count(first, ",") {
		return ';'
	}
	if strings.Count(first, "\t") > strings.Count(first, ",") {
		return '\t'
	}
	return ','
}
