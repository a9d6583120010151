package extract

import (
	"context"
	"fmt"
)

// LegacyExtractor claims the legacy binary Office formats so they fail with
// a clear error instead of being reported as unknown.
type LegacyExtractor struct{}

func (e *LegacyExtractor) SupportedFormats() []string { return []string{"doc", "xls"} }

func (e *LegacyExtractor) Extract(ctx context.Context, path string) (*Extraction, error) {
	return nil, fmt.Errorf("%w: legacy binary format, convert to docx/xlsx", ErrLibraryUnavailable)
}
