// Package report reconstructs per-product, per-size production quantities
// from factory stock reports. It accepts either linearized text (Parse) or a
// grid of cells (ParseRows) and always produces the same snapshot schema.
//
// Everything in this package is synchronous and free of shared state;
// concurrent calls are safe.
package report

// Token is a whitespace-delimited word with its horizontal position on the
// line. Offsets count runes, not bytes.
type Token struct {
	Text   string
	Start  int
	End    int
	Center float64
}

// HeaderLayout is a "Qtde" header row: the marker token and the size labels
// that follow it on the same line.
type HeaderLayout struct {
	Marker Token
	Sizes  []Token
}

// Labels returns the layout's size labels as a Grade.
func (h *HeaderLayout) Labels() Grade {
	g := make(Grade, len(h.Sizes))
	for i, t := range h.Sizes {
		g[i] = t.Text
	}
	return g
}

// Grade is an ordered list of size labels.
type Grade []string

// Equal reports whether both grades hold the same labels in the same order.
func (g Grade) Equal(o Grade) bool {
	if len(g) != len(o) {
		return false
	}
	for i := range g {
		if g[i] != o[i] {
			return false
		}
	}
	return true
}

// VariationSnapshot is what one variation (a product reference) needs to
// produce, per size. Positive quantities are shortages, negative are surplus.
type VariationSnapshot struct {
	Ref      string         `json:"ref"`
	Grade    Grade          `json:"grade"`
	Tamanhos map[string]int `json:"tamanhos"`
	Total    int            `json:"total"`
}

// ProductSnapshot groups the variations sharing a product code.
type ProductSnapshot struct {
	ProductCode string              `json:"productCode"`
	Grade       Grade               `json:"grade"`
	Variations  []VariationSnapshot `json:"variations"`
	Warnings    []string            `json:"warnings"`
}

// Option configures a Parse or ParseRows call.
type Option func(*options)

type options struct {
	productOrder []string
}

// WithProductOrder sorts the returned products by the given codes. Codes not
// listed keep their discovery order after the listed ones.
func WithProductOrder(codes ...string) Option {
	return func(o *options) { o.productOrder = append([]string(nil), codes...) }
}

func buildOptions(opts []Option) options {
	var o options
	for _, fn := range opts {
		fn(&o)
	}
	return o
}
