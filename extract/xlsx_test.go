package extract

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestXLSXExtractorReadsSheetsInOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "estoque.xlsx")

	f := excelize.NewFile()
	if err := f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Qtde", "P", "M"}); err != nil {
		t.Fatal(err)
	}
	if err := f.SetSheetRow("Sheet1", "A2", &[]interface{}{"123.AC", 1, 2}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.NewSheet("Outra"); err != nil {
		t.Fatal(err)
	}
	if err := f.SetSheetRow("Outra", "A1", &[]interface{}{"456.BR", "x"}); err != nil {
		t.Fatal(err)
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	f.Close()

	ext, err := (&XLSXExtractor{}).Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	want := [][]string{
		{"Qtde", "P", "M"},
		{"123.AC", "1", "2"},
		nil,
		{"456.BR", "x"},
	}
	if !reflect.DeepEqual(ext.Rows, want) {
		t.Errorf("rows = %q, want %q", ext.Rows, want)
	}
	if ext.Pages != 2 {
		t.Errorf("Pages = %d, want 2", ext.Pages)
	}
}

func TestXLSXExtractorCancelled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "estoque.xlsx")
	f := excelize.NewFile()
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	f.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (&XLSXExtractor{}).Extract(ctx, path); err == nil {
		t.Fatal("expected context error")
	}
}
