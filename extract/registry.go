package extract

import (
	"fmt"
	"mime"
	"path/filepath"
	"strings"
)

// mimeFormats maps MIME types to registry formats.
var mimeFormats = map[string]string{
	"text/plain":      "txt",
	"text/csv":        "csv",
	"text/html":       "html",
	"application/csv": "csv",
	"application/pdf": "pdf",

	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": "docx",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       "xlsx",

	"application/vnd.ms-excel.sheet.macroenabled.12": "xlsm",

	"application/msword":       "doc",
	"application/vnd.ms-excel": "xls",
}

type Registry struct {
	extractors map[string]Extractor
}

func NewRegistry() *Registry {
	r := &Registry{extractors: make(map[string]Extractor)}
	// Register built-in extractors
	for _, e := range []Extractor{
		&TextExtractor{},
		&CSVExtractor{},
		&DOCXExtractor{},
		&XLSXExtractor{},
		&PDFExtractor{},
		&HTMLExtractor{},
		&LegacyExtractor{},
	} {
		for _, f := range e.SupportedFormats() {
			r.extractors[f] = e
		}
	}
	return r
}

func (r *Registry) Get(format string) (Extractor, error) {
	e, ok := r.extractors[format]
	if !ok {
		return nil, fmt.Errorf("no extractor for format: %s", format)
	}
	return e, nil
}

func (r *Registry) Register(format string, e Extractor) {
	r.extractors[format] = e
}

// FormatFor resolves a file's format from its name extension, falling back
// to the MIME type when the extension is missing or unknown. Browsers label
// uploads loosely (a .csv often arrives as application/vnd.ms-excel), so a
// registered extension wins.
func (r *Registry) FormatFor(name, mimeType string) (string, bool) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if _, ok := r.extractors[ext]; ok && ext != "" {
		return ext, true
	}
	if mimeType == "" {
		return "", false
	}
	mt, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return "", false
	}
	f, ok := mimeFormats[strings.ToLower(mt)]
	if !ok {
		return "", false
	}
	if _, registered := r.extractors[f]; !registered {
		return "", false
	}
	return f, true
}
