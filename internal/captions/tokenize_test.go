package captions

import "testing"

func TestTokenizeSplitsAndNormalizes(t *testing.T) {
	tokens := Tokenize("  Hello, world!  It's   GO-time. ")
	if len(tokens) != 4 {
		t.Fatalf("expected 4 tokens, got %d", len(tokens))
	}

	wantDisplay := []string{"Hello,", "world!", "It's", "GO-time."}
	wantNormalized := []string{"hello", "world", "its", "gotime"}
	for i, token := range tokens {
		if token.Display != wantDisplay[i] {
			t.Errorf("token %d display = %q, want %q", i, token.Display, wantDisplay[i])
		}
		if token.Normalized != wantNormalized[i] {
			t.Errorf("token %d normalized = %q, want %q", i, token.Normalized, wantNormalized[i])
		}
		if token.Index != i {
			t.Errorf("token %d index = %d", i, token.Index)
		}
	}
}

func TestTokenizeEmptyInput(t *testing.T) {
	for _, input := range []string{"", "   ", "\n\t  \n"} {
		if tokens := Tokenize(input); len(tokens) != 0 {
			t.Errorf("Tokenize(%q) = %d tokens, want 0", input, len(tokens))
		}
	}
}

func TestTokenizeUnicode(t *testing.T) {
	tokens := Tokenize("Café über—alles")
	if len(tokens) != 2 {
		t.Fatalf("expected 2 tokens, got %d", len(tokens))
	}
	if tokens[0].Normalized != "café" {
		t.Errorf("normalized = %q, want %q", tokens[0].Normalized, "café")
	}
	if tokens[1].Normalized != "überalles" {
		t.Errorf("normalized = %q, want %q", tokens[1].Normalized, "überalles")
	}
}
