package stockreport

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{ErrNoVariationsFound, CodeNoVariationsFound},
		{fmt.Errorf("%w: report.pdf", ErrNoVariationsFound), CodeNoVariationsFound},
		{fmt.Errorf("%w: x.odt", ErrUnsupportedFileType), CodeUnsupportedFileType},
		{fmt.Errorf("%w: broken zip", ErrExtractionFailed), CodeExtractionFailed},
		{fmt.Errorf("%w: doc", ErrExtractionLibraryUnavailable), CodeExtractionLibraryUnavailable},
		{fmt.Errorf("%w: empty path", ErrInvalidInput), CodeInvalidInput},
		{fmt.Errorf("%w: abc", ErrRunNotFound), CodeNotFound},
		{ErrHistoryDisabled, CodeHistoryDisabled},
		{context.Canceled, CodeCancelled},
		{fmt.Errorf("extracting: %w", context.DeadlineExceeded), CodeCancelled},
		{errors.New("disk on fire"), CodeInternal},
	}

	for _, tt := range tests {
		if got := Code(tt.err); got != tt.want {
			t.Errorf("Code(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
