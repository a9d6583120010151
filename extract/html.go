package extract

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// maxColspan bounds the empty cells a single colspan can add.
const maxColspan = 64

// HTMLExtractor reads report exports saved as web pages. Every table row
// becomes a grid row; text blocks outside tables become one-cell rows, so
// references printed as headings above a table stay in document order.
type HTMLExtractor struct{}

func (e *HTMLExtractor) SupportedFormats() []string { return []string{"html", "htm"} }

func (e *HTMLExtractor) Extract(ctx context.Context, path string) (*Extraction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading HTML: %w", err)
	}
	text, charset, err := decodeText(data)
	if err != nil {
		return nil, fmt.Errorf("decoding HTML: %w", err)
	}
	doc, err := html.Parse(strings.NewReader(text))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	rows := htmlRows(doc)
	return &Extraction{
		Mode:   ModeRows,
		Rows:   rows,
		Method: "native",
		Pages:  1,
		Metadata: map[string]string{
			"charset":   charset,
			"row_count": strconv.Itoa(len(rows)),
		},
	}, nil
}

// htmlRows walks the document in order.
func htmlRows(doc *html.Node) [][]string {
	var rows [][]string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if t := collapseSpace(n.Data); t != "" {
				rows = append(rows, []string{t})
			}
			return
		case html.ElementNode:
			switch n.DataAtom {
			case atom.Head, atom.Script, atom.Style, atom.Noscript, atom.Template:
				return
			case atom.Tr:
				if row := htmlRow(n); len(row) > 0 {
					rows = append(rows, row)
				}
				return
			case atom.P, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
				atom.Li, atom.Pre, atom.Caption:
				for _, line := range strings.Split(nodeText(n), "\n") {
					if t := collapseSpace(line); t != "" {
						rows = append(rows, []string{t})
					}
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return rows
}

// htmlRow returns the cell texts of a table row, padding spanned columns.
func htmlRow(tr *html.Node) []string {
	var row []string
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || (c.DataAtom != atom.Td && c.DataAtom != atom.Th) {
			continue
		}
		row = append(row, collapseSpace(nodeText(c)))
		for i := 1; i < colspan(c); i++ {
			row = append(row, "")
		}
	}
	return row
}

// nodeText concatenates the text under n. Line breaks and block boundaries
// become newlines.
func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			b.WriteString(n.Data)
			return
		case n.Type == html.ElementNode && n.DataAtom == atom.Br:
			b.WriteByte('\n')
			return
		case n.Type == html.ElementNode && (n.DataAtom == atom.Script || n.DataAtom == atom.Style):
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && (n.DataAtom == atom.Div || n.DataAtom == atom.P) {
			b.WriteByte('\n')
		}
	}
	walk(n)
	return b.String()
}

func colspan(n *html.Node) int {
	for _, a := range n.Attr {
		if a.Key == "colspan" {
			if v, err := strconv.Atoi(strings.TrimSpace(a.Val)); err == nil && v > 1 {
				return min(v, maxColspan)
			}
		}
	}
	return 1
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
