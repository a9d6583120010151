package extract

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"golang.org/x/net/html"
)

func parseHTML(t *testing.T, s string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		t.Fatalf("parsing HTML: %v", err)
	}
	return doc
}

func TestHTMLRows(t *testing.T) {
	doc := parseHTML(t, `<html><head><title>Estoque</title><style>td{}</style></head>
<body>
<h2>Produto 123.AC</h2>
<table>
  <tr><th>Qtde</th><th>P</th><th>M</th><th>G</th></tr>
  <tr><td>A PRODUZIR:</td><td> 1 </td><td>2</td><td>3</td></tr>
</table>
<p>Emitido em<br>01/02/2025</p>
<script>var x = "123.ZZ";</script>
</body></html>`)

	got := htmlRows(doc)
	want := [][]string{
		{"Produto 123.AC"},
		{"Qtde", "P", "M", "G"},
		{"A PRODUZIR:", "1", "2", "3"},
		{"Emitido em"},
		{"01/02/2025"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("rows =\n%q\nwant\n%q", got, want)
	}
}

func TestHTMLRowColspan(t *testing.T) {
	doc := parseHTML(t, `<table><tr><td colspan="2">123.AC</td><td>Qtde</td><td>P</td></tr></table>`)
	got := htmlRows(doc)
	want := [][]string{{"123.AC", "", "Qtde", "P"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("rows = %q, want %q", got, want)
	}
}

func TestHTMLRowsSkipsEmptyRows(t *testing.T) {
	doc := parseHTML(t, `<table><tr></tr><tr><td>x</td></tr></table>`)
	got := htmlRows(doc)
	if len(got) != 1 || got[0][0] != "x" {
		t.Errorf("rows = %q", got)
	}
}

func TestColspanBounds(t *testing.T) {
	doc := parseHTML(t, `<table><tr><td colspan="100000">a</td></tr></table>`)
	got := htmlRows(doc)
	if len(got) != 1 || len(got[0]) != maxColspan {
		t.Errorf("cells = %d, want %d", len(got[0]), maxColspan)
	}
}

func TestHTMLExtractor(t *testing.T) {
	// Windows-1252 "Referência" with a 0xEA byte.
	page := []byte("<table><tr><td>Refer\xeancia</td><td>Qtde</td><td>P</td></tr></table>")
	path := filepath.Join(t.TempDir(), "export.html")
	if err := os.WriteFile(path, page, 0644); err != nil {
		t.Fatal(err)
	}

	ext, err := (&HTMLExtractor{}).Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if ext.Mode != ModeRows {
		t.Errorf("mode = %s", ext.Mode)
	}
	if ext.Metadata["charset"] != "windows-1252" {
		t.Errorf("charset = %q", ext.Metadata["charset"])
	}
	want := [][]string{{"Referência", "Qtde", "P"}}
	if !reflect.DeepEqual(ext.Rows, want) {
		t.Errorf("rows = %q, want %q", ext.Rows, want)
	}
}
