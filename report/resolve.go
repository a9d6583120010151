package report

// GradeResolver finds the grade in force for one data occurrence. An empty
// result means no size breakdown was found.
type GradeResolver interface {
	ResolveGrade() Grade
}

// QuantityExtractor reads the quantities of one data occurrence. With a
// non-empty grade the result is aligned to it, one value per label. With an
// empty grade the raw values are returned. ok is false when the occurrence
// carries no numbers at all.
type QuantityExtractor interface {
	ExtractQuantities(g Grade) (values []int, ok bool)
}

// buildVariation turns one occurrence into a VariationSnapshot. Both front
// ends go through here so the unique-size fallback and the total are computed
// the same way.
func buildVariation(ref string, gr GradeResolver, qe QuantityExtractor) (VariationSnapshot, bool) {
	grade := gr.ResolveGrade()
	values, ok := qe.ExtractQuantities(grade)
	if !ok {
		return VariationSnapshot{}, false
	}
	if len(grade) == 0 {
		if len(values) != 1 {
			return VariationSnapshot{}, false
		}
		grade = Grade{UniqueSize}
	}

	v := VariationSnapshot{
		Ref:      ref,
		Grade:    append(Grade(nil), grade...),
		Tamanhos: make(map[string]int, len(grade)),
	}
	for i, label := range grade {
		q := 0
		if i < len(values) {
			q = values[i]
		}
		v.Tamanhos[label] = q
		v.Total += q
	}
	return v, true
}

// fitToGrade applies the count policy shared by both front ends: one value
// more than the grade means the first is a grand total; anything else is
// padded with zeros or truncated.
func fitToGrade(values []int, n int) []int {
	if len(values) == n+1 {
		values = values[1:]
	}
	out := make([]int, n)
	copy(out, values)
	return out
}
