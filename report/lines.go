package report

import "strings"

type lineStage int

const (
	seekingHeader lineStage = iota
	awaitingRef
	haveRef
)

// lineState is everything line mode carries from one line to the next. It is
// a plain value; step never mutates its input.
type lineState struct {
	stage  lineStage
	layout *HeaderLayout
	ref    string
}

// Parse reads a report given as text lines and returns one snapshot per
// product code. It never fails: lines without a usable reference, header or
// numbers are skipped.
func Parse(text string, opts ...Option) []ProductSnapshot {
	o := buildOptions(opts)
	c := newCollector()
	var st lineState
	for _, line := range splitLines(text) {
		var v *VariationSnapshot
		st, v = step(st, line)
		if v != nil {
			c.put(*v)
		}
	}
	return Aggregate(c.variations(), o.productOrder)
}

// step is the line-mode transition function.
func step(st lineState, line string) (lineState, *VariationSnapshot) {
	tokens := Tokenize(line)
	if len(tokens) == 0 {
		return st, nil
	}

	if layout, ref, ok := parseHeader(tokens); ok {
		next := lineState{stage: awaitingRef, layout: layout}
		if ref != "" {
			next.stage = haveRef
			next.ref = ref
		}
		return next, nil
	}

	if isDivider(line) {
		return lineState{}, nil
	}

	switch st.stage {
	case awaitingRef:
		if isLineReference(tokens[0].Text) {
			st.stage = haveRef
			st.ref = tokens[0].Text
		}
	case haveRef:
		if !isProductionLine(line) {
			break
		}
		b := positionalBlock{layout: st.layout, tokens: tokens}
		if v, ok := buildVariation(st.ref, b, b); ok {
			return st, &v
		}
	}
	return st, nil
}

// parseHeader recognizes a Qtde header line. Every token after the marker is
// a size label. A reference-shaped first token before the marker is returned
// as the block's reference.
func parseHeader(tokens []Token) (*HeaderLayout, string, bool) {
	idx := -1
	for i, t := range tokens {
		if isHeaderMarker(t.Text) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, "", false
	}

	layout := &HeaderLayout{Marker: tokens[idx]}
	seen := make(map[string]bool)
	for _, t := range tokens[idx+1:] {
		label := NormalizeLabel(t.Text)
		if label == "" || seen[label] {
			continue
		}
		seen[label] = true
		t.Text = label
		layout.Sizes = append(layout.Sizes, t)
	}

	ref := ""
	if idx > 0 && isLineReference(tokens[0].Text) {
		ref = tokens[0].Text
	}
	return layout, ref, true
}

func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
