// Package extract turns report files into the two shapes the report parser
// understands: linearized text (word-processing documents, plain text) and
// cell grids (spreadsheets, CSV, page documents).
package extract

import (
	"context"
	"errors"
)

// Mode tells which report entry point an extraction is meant for.
type Mode string

const (
	ModeLines Mode = "lines" // Text is set; parse with report.Parse
	ModeRows  Mode = "rows"  // Rows is set; parse with report.ParseRows
)

// ErrLibraryUnavailable is returned by extractors for formats this build has
// no decoder for.
var ErrLibraryUnavailable = errors.New("extract: no extraction library available for format")

// Extraction is what an extractor produces from a report file.
type Extraction struct {
	Mode     Mode
	Text     string     // ModeLines
	Rows     [][]string // ModeRows
	Method   string     // "native"
	Pages    int        // pages or sheets read, in order
	Metadata map[string]string
}

// Extractor can read a specific file format.
type Extractor interface {
	Extract(ctx context.Context, path string) (*Extraction, error)
	SupportedFormats() []string
}
