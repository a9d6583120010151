package report

import (
	"math"
	"strings"
)

// positionalBlock is a data line read against the header layout above it.
// Column positions decide which size each number belongs to.
type positionalBlock struct {
	layout *HeaderLayout
	tokens []Token
}

func (b positionalBlock) ResolveGrade() Grade {
	return b.layout.Labels()
}

func (b positionalBlock) ExtractQuantities(g Grade) ([]int, bool) {
	nums, values := b.numbers()
	if len(nums) == 0 {
		return nil, false
	}
	if len(g) == 0 {
		// Total-only line: the first number is the whole quantity.
		return values[:1], true
	}

	sizes := b.layout.Sizes
	if discardGrandTotal(b.layout.Marker, sizes, nums) {
		nums, values = nums[1:], values[1:]
	}

	out := make([]int, len(sizes))
	for i, label := range alignGreedy(centers(nums), centers(sizes)) {
		if label >= 0 {
			out[label] = values[i]
		}
	}
	return out, true
}

// numbers returns the signed-integer tokens after the production marker. A
// value glued to the marker ("PRODUZIR:-5") is split off and kept.
func (b positionalBlock) numbers() ([]Token, []int) {
	tokens := b.tokens
	for i, t := range b.tokens {
		if !strings.HasPrefix(strings.ToUpper(t.Text), "PRODUZIR") {
			continue
		}
		tokens = b.tokens[i+1:]
		if rest, ok := gluedValue(t); ok {
			tokens = append([]Token{rest}, tokens...)
		}
		break
	}
	var toks []Token
	var vals []int
	for _, t := range tokens {
		if n, ok := parseSigned(t.Text); ok {
			toks = append(toks, t)
			vals = append(vals, n)
		}
	}
	return toks, vals
}

// gluedValue returns what follows "PRODUZIR" and its colon inside the marker
// token, positioned where it sits on the line.
func gluedValue(marker Token) (Token, bool) {
	head := len("PRODUZIR")
	for head < len(marker.Text) && marker.Text[head] == ':' {
		head++
	}
	rest := marker.Text[head:]
	if rest == "" {
		return Token{}, false
	}
	start := marker.Start + head
	return Token{
		Text:   rest,
		Start:  start,
		End:    marker.End,
		Center: float64(start) + float64(marker.End-start)/2,
	}, true
}

// discardGrandTotal decides whether the first number is a grand total that
// belongs to no size: either there are more numbers than sizes, or it sits
// closer to the Qtde marker column than to the first size column. A lone
// number is always kept.
func discardGrandTotal(marker Token, sizes, nums []Token) bool {
	if len(nums) <= 1 || len(sizes) == 0 {
		return false
	}
	if len(nums) > len(sizes) {
		return true
	}
	first := nums[0].Center
	return math.Abs(first-marker.Center) < math.Abs(first-sizes[0].Center)
}

// alignGreedy assigns each number position to a label position, left to
// right. Each number takes the nearest label after the previously matched
// one, leftmost on ties. Once no label is left the remaining numbers stay
// unassigned (-1). The result maps number index to label index.
func alignGreedy(nums, labels []float64) []int {
	out := make([]int, len(nums))
	last := -1
	for i, c := range nums {
		best, bestD := -1, math.Inf(1)
		for j := last + 1; j < len(labels); j++ {
			if d := math.Abs(c - labels[j]); d < bestD {
				best, bestD = j, d
			}
		}
		out[i] = best
		if best >= 0 {
			last = best
		}
	}
	return out
}

func centers(ts []Token) []float64 {
	cs := make([]float64, len(ts))
	for i, t := range ts {
		cs[i] = t.Center
	}
	return cs
}
