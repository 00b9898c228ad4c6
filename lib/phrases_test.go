package lib

import (
	"math/rand"
	"os"
	"path"
	"strings"
	"testing"
)

func loadPhrases(t *testing.T, seed int64) *Phrases {
	t.Helper()

	data, err := os.ReadFile(path.Join("..", "data", "phrases.en.json"))
	if err != nil {
		t.Fatal(err)
	}

	p, err := NewPhrases(data, rand.New(rand.NewSource(seed)))
	if err != nil {
		t.Fatal(err)
	}

	return p
}

func TestPhrases_AllCompileAndExec(t *testing.T) {
	p := loadPhrases(t, 1)

	vals := PhraseValues{Round: 2, Winner: "winner-user", Loser: "loser-user", Item: "Tsunami", Power: 4}
	for i := 0; i < p.PhraseCount(); i++ {
		got := p.Phrase(vals)
		if strings.Contains(got, "<no value>") {
			t.Fatalf("phrase left a field empty: %q", got)
		}

		if !strings.Contains(got, "winner-user") && !strings.Contains(got, "Tsunami") {
			t.Fatalf("phrase mentions neither winner nor item: %q", got)
		}
	}
}

func TestPhrases_AllThenReset(t *testing.T) {
	p := loadPhrases(t, 7)
	count := p.PhraseCount()
	if count == 0 {
		t.Fatal("there should be more than 0 phrases")
	}

	vals := PhraseValues{Round: 1, Winner: "w", Loser: "l", Item: "i", Power: 1}
	seen := make(map[string]int, count)
	for i := 0; i < count; i++ {
		seen[p.Phrase(vals)]++
	}

	for phrase, n := range seen {
		if n > 1 {
			t.Fatalf("phrase %q repeated %v times before the bag was empty", phrase, n)
		}
	}

	// The bag refills once empty.
	if got := p.Phrase(vals); got == "" {
		t.Fatal("expected a phrase after the bag was refilled")
	}
}

func TestPhrases_SameSeedSameOrder(t *testing.T) {
	a, b := loadPhrases(t, 99), loadPhrases(t, 99)
	vals := PhraseValues{Round: 3, Winner: "w", Loser: "l", Item: "i", Power: 5}

	for i := 0; i < 2*a.PhraseCount(); i++ {
		if x, y := a.Phrase(vals), b.Phrase(vals); x != y {
			t.Fatalf("phrase %v differs: %q vs %q", i, x, y)
		}
	}
}

func TestNewPhrases_Errors(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	tests := map[string]string{
		"bad json":     `{`,
		"empty":        `[]`,
		"bad template": `["{{.Winner"]`,
	}

	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := NewPhrases([]byte(data), rng); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestPhrases_BadFieldFallsBack(t *testing.T) {
	p, err := NewPhrases([]byte(`["{{.Winner.Missing}}"]`), rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatal(err)
	}

	got := p.Phrase(PhraseValues{Round: 1, Winner: "Ana", Item: "Gale"})
	if got != "Ana takes round 1 with Gale." {
		t.Fatalf("fallback = %q", got)
	}
}
