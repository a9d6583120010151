package report

import (
	"fmt"
	"slices"
	"strings"
)

// collector accumulates variations in first-seen order. Putting a ref that
// is already present replaces the earlier variation in its original slot.
type collector struct {
	index map[string]int
	items []VariationSnapshot
}

func newCollector() *collector {
	return &collector{index: make(map[string]int)}
}

func (c *collector) put(v VariationSnapshot) {
	if i, ok := c.index[v.Ref]; ok {
		c.items[i] = v
		return
	}
	c.index[v.Ref] = len(c.items)
	c.items = append(c.items, v)
}

func (c *collector) variations() []VariationSnapshot {
	return c.items
}

// ProductCode returns the product part of a reference: everything before the
// first '.', or the whole reference when there is none.
func ProductCode(ref string) string {
	if i := strings.IndexByte(ref, '.'); i >= 0 {
		return ref[:i]
	}
	return ref
}

// Aggregate groups variations by product code, in first-seen order. The
// product grade is the grade of its first variation; any later variation
// with a different grade keeps its own and adds one warning to the product.
// A non-empty order moves the listed codes to the front, in list order.
func Aggregate(vs []VariationSnapshot, order []string) []ProductSnapshot {
	var products []ProductSnapshot
	byCode := make(map[string]int)

	for _, v := range vs {
		code := ProductCode(v.Ref)
		i, ok := byCode[code]
		if !ok {
			i = len(products)
			byCode[code] = i
			products = append(products, ProductSnapshot{
				ProductCode: code,
				Grade:       append(Grade(nil), v.Grade...),
				Variations:  []VariationSnapshot{},
				Warnings:    []string{},
			})
		}
		p := &products[i]
		if len(p.Variations) > 0 && !v.Grade.Equal(p.Grade) {
			p.Warnings = append(p.Warnings, gradeWarning(v.Ref, v.Grade, p.Grade))
		}
		p.Variations = append(p.Variations, v)
	}

	for i := range products {
		if len(products[i].Grade) == 0 {
			products[i].Grade = InferGrade(products[i].Variations)
		}
	}

	if len(order) > 0 {
		sortByPriority(products, order)
	}
	if products == nil {
		products = []ProductSnapshot{}
	}
	return products
}

func gradeWarning(ref string, got, want Grade) string {
	return fmt.Sprintf("%s: grade [%s] differs from product grade [%s]",
		ref, strings.Join(got, " "), strings.Join(want, " "))
}

func sortByPriority(products []ProductSnapshot, order []string) {
	rank := make(map[string]int, len(order))
	for i, code := range order {
		code = strings.TrimSpace(code)
		if _, dup := rank[code]; !dup {
			rank[code] = i
		}
	}
	unlisted := len(order)
	key := func(p ProductSnapshot) int {
		if r, ok := rank[p.ProductCode]; ok {
			return r
		}
		return unlisted
	}
	slices.SortStableFunc(products, func(a, b ProductSnapshot) int {
		return key(a) - key(b)
	})
}
