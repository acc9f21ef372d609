package tokens_test

import (
	"strings"
	"testing"

	"github.com/dalemusser/stratagate/internal/app/system/tokens"
)

func TestGenerate_LengthAndAlphabet(t *testing.T) {
	for i := 0; i < 1000; i++ {
		tok := tokens.Generate()
		if len(tok) != tokens.Length {
			t.Fatalf("length: got %d, want %d", len(tok), tokens.Length)
		}
		for _, c := range tok {
			if !strings.ContainsRune(tokens.Alphabet, c) {
				t.Fatalf("token %q contains %q outside the alphabet", tok, c)
			}
		}
	}
}

func TestGenerate_NoCollisions(t *testing.T) {
	const n = 10000
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		tok := tokens.Generate()
		if _, dup := seen[tok]; dup {
			t.Fatalf("collision after %d tokens: %q", i, tok)
		}
		seen[tok] = struct{}{}
	}
}

func TestGenerate_UsesWholeAlphabet(t *testing.T) {
	counts := make(map[rune]int)
	for i := 0; i < 2000; i++ {
		for _, c := range tokens.Generate() {
			counts[c]++
		}
	}
	if len(counts) != len(tokens.Alphabet) {
		t.Errorf("distinct characters: got %d, want %d", len(counts), len(tokens.Alphabet))
	}
}

func TestGenerateN(t *testing.T) {
	tok, err := tokens.GenerateN(64)
	if err != nil {
		t.Fatalf("GenerateN failed: %v", err)
	}
	if len(tok) != 64 {
		t.Errorf("length: got %d, want 64", len(tok))
	}

	tok, err = tokens.GenerateN(0)
	if err != nil || tok != "" {
		t.Errorf("GenerateN(0): got %q, %v; want empty", tok, err)
	}
}
