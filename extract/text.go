package extract

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// TextExtractor handles plain text (.txt) reports.
type TextExtractor struct{}

func (e *TextExtractor) SupportedFormats() []string { return []string{"txt"} }

func (e *TextExtractor) Extract(ctx context.Context, path string) (*Extraction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading text file: %w", err)
	}
	text, charset, err := decodeText(data)
	if err != nil {
		return nil, fmt.Errorf("decoding text file: %w", err)
	}
	return &Extraction{
		Mode:     ModeLines,
		Text:     text,
		Method:   "native",
		Pages:    1,
		Metadata: map[string]string{"charset": charset},
	}, nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decodeText returns data as UTF-8. Reports exported by older ERP systems are
// often Windows-1252; anything that is not valid UTF-8 is read as such.
func decodeText(data []byte) (string, string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data), "utf-8", nil
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return "", "", err
	}
	return string(out), "windows-1252", nil
}
