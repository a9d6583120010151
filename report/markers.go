package report

import (
	"regexp"
	"strconv"
	"strings"
)

// Report markers. These are literal conventions of the source reports and are
// not localized.
var (
	headerMarkerRe  = regexp.MustCompile(`(?i)^qtde[:.]?$`)
	gradeMarkerRe   = regexp.MustCompile(`(?i)^grade[:.]?$`)
	produzirRe      = regexp.MustCompile(`(?i)^\s*A\s+PRODUZIR\b\s*:?`)
	legacyProduzRe  = regexp.MustCompile(`(?i)^\s*PRODUZIR\s*:`)
	lineRefRe       = regexp.MustCompile(`^[A-Za-z0-9.]+$`)
	gridRefRe       = regexp.MustCompile(`^(\d{3,})\.([A-Za-z][A-Za-z0-9]{0,3}|[1-9]\d{0,3})$`)
	signedIntRe     = regexp.MustCompile(`^[+-]?\d+$`)
	trimPunctuation = ",;:"
)

// ignoredWords are report boilerplate that can sit where a reference is
// expected.
var ignoredWords = map[string]bool{
	"TOTAL": true, "TOTAIS": true, "SUBTOTAL": true, "GERAL": true,
	"PAGINA": true, "PÁGINA": true, "PAG": true, "FOLHA": true,
	"FILTRO": true, "FILTROS": true, "EMPRESA": true, "RELATORIO": true,
	"RELATÓRIO": true, "DATA": true, "HORA": true, "EMISSAO": true,
	"EMISSÃO": true, "USUARIO": true, "USUÁRIO": true, "PERIODO": true,
	"PERÍODO": true, "GRADE": true, "QTDE": true, "PRODUTO": true,
	"PRODUTOS": true, "REFERENCIA": true, "REFERÊNCIA": true, "REF": true,
	"COR": true, "CORES": true, "DESCRICAO": true, "DESCRIÇÃO": true,
	"ESTOQUE": true, "SALDO": true, "PRODUZIR": true, "RESUMO": true,
}

// totalSuffixes are reference suffixes that denote totals, e.g. "123.TOT".
var totalSuffixes = map[string]bool{
	"TOT": true, "TT": true, "SUB": true, "GER": true, "TOTA": true,
}

// sectionDividers end the current block; a pending reference wait is
// cancelled so the next boilerplate line is not taken as a reference.
var sectionDividers = []string{
	"TOTAL GERAL",
	"TOTAL DO GRUPO",
	"TOTAL DA EMPRESA",
	"TOTAL DO RELATORIO",
	"TOTAL DO RELATÓRIO",
	"RESUMO",
	"FILTROS",
}

func isHeaderMarker(w string) bool { return headerMarkerRe.MatchString(w) }

func isGradeMarker(w string) bool { return gradeMarkerRe.MatchString(w) }

// isProductionLine reports whether a line starts with the "A PRODUZIR" marker.
// Lines that only mention it, such as "TOTAL A PRODUZIR", are not data.
func isProductionLine(s string) bool {
	return produzirRe.MatchString(s) || legacyProduzRe.MatchString(s)
}

// afterProductionMarker returns the text following the production marker.
func afterProductionMarker(s string) (string, bool) {
	if loc := produzirRe.FindStringIndex(s); loc != nil {
		return s[loc[1]:], true
	}
	if loc := legacyProduzRe.FindStringIndex(s); loc != nil {
		return s[loc[1]:], true
	}
	return "", false
}

func isIgnored(w string) bool {
	return ignoredWords[strings.ToUpper(strings.TrimRight(w, ":."))]
}

// isLineReference reports whether a token can be a variation reference in
// line mode.
func isLineReference(w string) bool {
	if len(w) <= 2 || !lineRefRe.MatchString(w) || strings.Trim(w, ".") == "" {
		return false
	}
	return !isIgnored(w)
}

// gridReference returns the reference found in a cell, if any.
func gridReference(cell string) (string, bool) {
	for _, w := range words(cell) {
		w = strings.Trim(w, trimPunctuation)
		m := gridRefRe.FindStringSubmatch(w)
		if m == nil {
			continue
		}
		if totalSuffixes[strings.ToUpper(m[2])] {
			continue
		}
		return w, true
	}
	return "", false
}

func isDivider(line string) bool {
	u := strings.ToUpper(line)
	for _, d := range sectionDividers {
		if strings.Contains(u, d) {
			return true
		}
	}
	return false
}

// parseSigned parses a signed-integer-shaped word.
func parseSigned(w string) (int, bool) {
	if !signedIntRe.MatchString(w) {
		return 0, false
	}
	n, err := strconv.Atoi(w)
	if err != nil {
		return 0, false
	}
	return n, true
}

// numbersIn collects the signed integers among a cell's words.
func numbersIn(cell string) []int {
	var out []int
	for _, w := range words(cell) {
		if n, ok := parseSigned(strings.Trim(w, trimPunctuation)); ok {
			out = append(out, n)
		}
	}
	return out
}
