package report

import "strings"

const (
	gradeLookAhead    = 4
	gradeLookBehind   = 2
	quantityLookAhead = 4
)

// ParseRows reads a report given as a grid of cells (spreadsheet rows or
// rows rebuilt from a page document) and returns one snapshot per product
// code. Like Parse it never fails.
func ParseRows(rows [][]string, opts ...Option) []ProductSnapshot {
	o := buildOptions(opts)
	c := newCollector()
	var header Grade
	for i, row := range rows {
		ref, cell, ok := rowReference(row)
		if !ok {
			if g, marked := gradeFromWords(rowWords(row)); marked && len(g) > 0 {
				header = g
			}
			continue
		}
		b := &gridBlock{rows: rows, row: i, cell: cell, ref: ref, header: header, gradeRow: -1}
		if v, ok := buildVariation(ref, b, b); ok {
			c.put(v)
		}
	}
	return Aggregate(c.variations(), o.productOrder)
}

// gridBlock is one reference row and its neighbourhood. ResolveGrade records
// where the grade came from so ExtractQuantities does not read size labels
// as quantities.
type gridBlock struct {
	rows     [][]string
	row      int
	cell     int
	ref      string
	header   Grade // last free-standing Qtde row above
	gradeRow int
}

func (b *gridBlock) ResolveGrade() Grade {
	if g := refRowGrade(b.tail()); len(g) > 0 {
		b.gradeRow = b.row
		return g
	}

	for i := b.row + 1; i < len(b.rows) && i <= b.row+gradeLookAhead; i++ {
		row := b.rows[i]
		if _, _, ok := rowReference(row); ok || rowHasProduction(row) {
			break
		}
		if g, _ := gradeFromWords(rowWords(row)); len(g) > 0 {
			b.gradeRow = i
			return g
		}
	}

	for i := b.row - 1; i >= 0 && i >= b.row-gradeLookBehind; i-- {
		row := b.rows[i]
		var g Grade
		if ref, cell, ok := rowReference(row); ok {
			g = refRowGrade(tailWords(row, cell, ref))
		} else {
			g, _ = gradeFromWords(rowWords(row))
		}
		if len(g) > 0 {
			b.gradeRow = i
			return g
		}
	}

	return b.header
}

func (b *gridBlock) ExtractQuantities(g Grade) ([]int, bool) {
	values, ok := b.productionValues()
	if !ok && b.gradeRow != b.row {
		values = wordNumbers(b.tail())
		ok = len(values) > 0
	}
	if !ok {
		return nil, false
	}
	if len(g) == 0 {
		return values, true
	}
	return fitToGrade(values, len(g)), true
}

// productionValues looks for an "A PRODUZIR" row starting at the reference
// row. Rows in between are skipped; another reference ends the search.
func (b *gridBlock) productionValues() ([]int, bool) {
	for i := b.row; i < len(b.rows) && i <= b.row+quantityLookAhead; i++ {
		row := b.rows[i]
		from := 0
		if i == b.row {
			from = b.cell
		} else if _, _, ok := rowReference(row); ok {
			break
		}
		for j := from; j < len(row); j++ {
			rest, ok := afterProductionMarker(row[j])
			if !ok {
				// Away from the reference row the marker must lead the row.
				if i != b.row && strings.TrimSpace(row[j]) != "" {
					break
				}
				continue
			}
			values := numbersIn(rest)
			for _, cell := range row[j+1:] {
				values = append(values, numbersIn(cell)...)
			}
			if len(values) > 0 {
				return values, true
			}
			break
		}
	}
	return nil, false
}

// tail returns the words after the reference on its own row.
func (b *gridBlock) tail() []string {
	return tailWords(b.rows[b.row], b.cell, b.ref)
}

// rowReference finds the first cell of a row holding a reference.
func rowReference(row []string) (string, int, bool) {
	for i, cell := range row {
		if ref, ok := gridReference(cell); ok {
			return ref, i, true
		}
	}
	return "", 0, false
}

func rowHasProduction(row []string) bool {
	for _, cell := range row {
		if isProductionLine(cell) {
			return true
		}
	}
	return false
}

func rowWords(row []string) []string {
	var ws []string
	for _, cell := range row {
		ws = append(ws, words(cell)...)
	}
	return ws
}

// tailWords returns the words following ref in row, starting inside the
// reference cell itself.
func tailWords(row []string, cell int, ref string) []string {
	var ws []string
	inCell := words(row[cell])
	for i, w := range inCell {
		if strings.Trim(w, trimPunctuation) == ref {
			ws = append(ws, inCell[i+1:]...)
			break
		}
	}
	for _, c := range row[cell+1:] {
		ws = append(ws, words(c)...)
	}
	return ws
}

// gradeFromWords reads size labels from a row's words. When a Qtde or Grade
// marker is present only the words after it count, and marked reports
// whether one was found. Every remaining word must look like a size and
// appear once. An all-numeric candidate without a marker needs a zero-padded
// label ("06") to be told apart from a row of quantities.
func gradeFromWords(ws []string) (g Grade, marked bool) {
	for i, w := range ws {
		if isHeaderMarker(w) || isGradeMarker(w) {
			ws = ws[i+1:]
			marked = true
			break
		}
	}
	if len(ws) == 0 {
		return nil, marked
	}

	numeric, padded := true, false
	for _, w := range ws {
		if !isSizeLabel(w) {
			return nil, marked
		}
		if isDigits(w) {
			padded = padded || (len(w) == 2 && w[0] == '0')
		} else {
			numeric = false
		}
	}
	if numeric && !marked && !padded {
		return nil, marked
	}

	g = NormalizeGrade(ws)
	if len(g) != len(ws) {
		return nil, marked
	}
	return g, marked
}

// refRowGrade reads a grade from the words after a reference. Numerals there
// are quantities unless a Qtde or Grade marker introduces them, padded or not.
func refRowGrade(ws []string) Grade {
	g, marked := gradeFromWords(ws)
	if marked {
		return g
	}
	for _, label := range g {
		if !isDigits(label) {
			return g
		}
	}
	return nil
}

func wordNumbers(ws []string) []int {
	var out []int
	for _, w := range ws {
		if n, ok := parseSigned(strings.Trim(w, trimPunctuation)); ok {
			out = append(out, n)
		}
	}
	return out
}
