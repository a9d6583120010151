package report

import (
	"strings"
	"unicode"
)

// Tokenize splits a line on whitespace and records each word's rune offsets.
func Tokenize(line string) []Token {
	var tokens []Token
	start := -1
	var b strings.Builder
	pos := 0
	flush := func(end int) {
		if start < 0 {
			return
		}
		tokens = append(tokens, Token{
			Text:   b.String(),
			Start:  start,
			End:    end,
			Center: float64(start) + float64(end-start)/2,
		})
		b.Reset()
		start = -1
	}
	for _, r := range line {
		if unicode.IsSpace(r) {
			flush(pos)
		} else {
			if start < 0 {
				start = pos
			}
			b.WriteRune(r)
		}
		pos++
	}
	flush(pos)
	return tokens
}

// words applies the tokenizer's splitting rule to a single cell.
func words(cell string) []string {
	return strings.Fields(cell)
}
