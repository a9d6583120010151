package report

import (
	"maps"
	"slices"
	"strings"
)

// UniqueSize is the single label used when a block carries one quantity and
// no size breakdown.
const UniqueSize = "UN"

// NormalizeLabel canonicalizes a size label: uppercase, and one-digit
// numerals padded to two digits ("6" -> "06"). Longer numerals are kept.
func NormalizeLabel(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) == 1 && isDigits(s) {
		return "0" + s
	}
	return s
}

// NormalizeGrade normalizes every label, drops empty ones and removes
// duplicates keeping the first occurrence.
func NormalizeGrade(labels []string) Grade {
	seen := make(map[string]bool, len(labels))
	g := make(Grade, 0, len(labels))
	for _, l := range labels {
		n := NormalizeLabel(l)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		g = append(g, n)
	}
	return g
}

// InferGrade derives a grade from variations that were parsed without a
// declared one. Labels come from each variation's grade, falling back to the
// keys of its quantities (sorted, since map order is undefined).
func InferGrade(vs []VariationSnapshot) Grade {
	var labels []string
	for _, v := range vs {
		if len(v.Grade) > 0 {
			labels = append(labels, v.Grade...)
			continue
		}
		labels = append(labels, sortedKeys(v.Tamanhos)...)
	}
	return NormalizeGrade(labels)
}

// alphaSizes are the non-numeric labels accepted as sizes in grid rows.
var alphaSizes = map[string]bool{
	"RN": true, "PP": true, "P": true, "M": true, "G": true, "GG": true,
	"XG": true, "XGG": true, "EG": true, "EGG": true, "EXG": true,
	"G1": true, "G2": true, "G3": true, "G4": true, "G5": true,
	"XP": true, "XS": true, "S": true, "L": true, "XL": true, "XXL": true,
	"2XL": true, "3XL": true, "U": true, "UN": true, "UNICO": true, "ÚNICO": true,
}

// isSizeLabel reports whether a word looks like a size label.
func isSizeLabel(w string) bool {
	u := strings.ToUpper(w)
	if alphaSizes[u] {
		return true
	}
	return len(u) <= 2 && isDigits(u)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func sortedKeys(m map[string]int) []string {
	return slices.Sorted(maps.Keys(m))
}
