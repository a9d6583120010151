package report

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tokens := Tokenize("  123.AC  Qtde 04")

	want := []Token{
		{Text: "123.AC", Start: 2, End: 8, Center: 5},
		{Text: "Qtde", Start: 10, End: 14, Center: 12},
		{Text: "04", Start: 15, End: 17, Center: 16},
	}
	if !reflect.DeepEqual(tokens, want) {
		t.Fatalf("Tokenize = %+v, want %+v", tokens, want)
	}
}

func TestTokenizeRuneOffsets(t *testing.T) {
	// "Ú" is two bytes; offsets must count it once.
	tokens := Tokenize("ÚNICO 5")
	if len(tokens) != 2 {
		t.Fatalf("got %d tokens, want 2", len(tokens))
	}
	if tokens[1].Start != 6 {
		t.Errorf("second token Start = %d, want 6", tokens[1].Start)
	}
}

func TestTokenizeEmpty(t *testing.T) {
	for _, in := range []string{"", "   ", "\t\t"} {
		if got := Tokenize(in); len(got) != 0 {
			t.Errorf("Tokenize(%q) = %v, want no tokens", in, got)
		}
	}
}

func TestTokenizeTabs(t *testing.T) {
	tokens := Tokenize("a\tbb\t\tc")
	if len(tokens) != 3 {
		t.Fatalf("got %d tokens, want 3", len(tokens))
	}
	if tokens[2].Start != 6 || tokens[2].Text != "c" {
		t.Errorf("third token = %+v", tokens[2])
	}
}

func TestWords(t *testing.T) {
	got := words("  A PRODUZIR:   -5 ")
	want := []string{"A", "PRODUZIR:", "-5"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("words = %q, want %q", got, want)
	}
}
