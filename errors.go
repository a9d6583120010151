package stockreport

import (
	"context"
	"errors"
)

var (
	// ErrNoVariationsFound is returned when a report parsed cleanly but
	// yielded no variation at all.
	ErrNoVariationsFound = errors.New("stockreport: no variations found")

	// ErrUnsupportedFileType is returned for unrecognized extensions or MIME
	// types, before any extraction is attempted.
	ErrUnsupportedFileType = errors.New("stockreport: unsupported file type")

	// ErrExtractionFailed is returned when an extractor could not read the file.
	ErrExtractionFailed = errors.New("stockreport: extraction failed")

	// ErrExtractionLibraryUnavailable is returned when the format is known
	// but no extractor library is available for it.
	ErrExtractionLibraryUnavailable = errors.New("stockreport: extraction library unavailable")

	// ErrInvalidInput is returned for missing, unreadable or oversized files.
	ErrInvalidInput = errors.New("stockreport: invalid input")

	// ErrInvalidConfig is returned for invalid configuration values.
	ErrInvalidConfig = errors.New("stockreport: invalid configuration")

	// ErrRunNotFound is returned when a parse run ID does not exist.
	ErrRunNotFound = errors.New("stockreport: run not found")

	// ErrHistoryDisabled is returned by history operations when the engine
	// was created without a store.
	ErrHistoryDisabled = errors.New("stockreport: history disabled")
)

// Error codes reported to callers that cannot inspect Go errors.
const (
	CodeNoVariationsFound            = "NO_VARIATIONS_FOUND"
	CodeUnsupportedFileType          = "UNSUPPORTED_FILE_TYPE"
	CodeExtractionFailed             = "EXTRACTION_FAILED"
	CodeExtractionLibraryUnavailable = "EXTRACTION_LIBRARY_UNAVAILABLE"
	CodeInvalidInput                 = "INVALID_INPUT"
	CodeNotFound                     = "NOT_FOUND"
	CodeHistoryDisabled              = "HISTORY_DISABLED"
	CodeCancelled                    = "CANCELLED"
	CodeInternal                     = "INTERNAL"
)

// Code classifies an error into one of the Code* constants. It relies on
// sentinel errors only.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoVariationsFound):
		return CodeNoVariationsFound
	case errors.Is(err, ErrUnsupportedFileType):
		return CodeUnsupportedFileType
	case errors.Is(err, ErrExtractionLibraryUnavailable):
		return CodeExtractionLibraryUnavailable
	case errors.Is(err, ErrExtractionFailed):
		return CodeExtractionFailed
	case errors.Is(err, ErrInvalidInput):
		return CodeInvalidInput
	case errors.Is(err, ErrRunNotFound):
		return CodeNotFound
	case errors.Is(err, ErrHistoryDisabled):
		return CodeHistoryDisabled
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return CodeCancelled
	default:
		return CodeInternal
	}
}
