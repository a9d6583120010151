package extract

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"
)

type XLSXExtractor struct{}

func (e *XLSXExtractor) SupportedFormats() []string { return []string{"xlsx", "xlsm"} }

func (e *XLSXExtractor) Extract(ctx context.Context, path string) (*Extraction, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening XLSX: %w", err)
	}
	defer f.Close()

	var rows [][]string
	sheets := 0

	for _, sheet := range f.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		sheetRows, err := f.GetRows(sheet)
		if err != nil {
			slog.Debug("xlsx: skipping unreadable sheet", "sheet", sheet, "error", err)
			continue
		}
		if len(sheetRows) == 0 {
			continue
		}

		// A blank row keeps one sheet's blocks from running into the next.
		if len(rows) > 0 {
			rows = append(rows, nil)
		}
		rows = append(rows, sheetRows...)
		sheets++
	}

	return &Extraction{
		Mode:   ModeRows,
		Rows:   rows,
		Method: "native",
		Pages:  sheets,
		Metadata: map[string]string{
			"sheet_count": fmt.Sprintf("%d", sheets),
			"row_count":   fmt.Sprintf("%d", len(rows)),
		},
	}, nil
}
