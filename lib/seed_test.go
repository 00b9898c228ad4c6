package lib

import "testing"

func TestNewRand(t *testing.T) {
	a, seed, err := NewRand(42)
	if err != nil {
		t.Fatal(err)
	}

	if seed != 42 {
		t.Fatalf("seed = %v, want 42", seed)
	}

	b, _, _ := NewRand(42)
	for i := 0; i < 10; i++ {
		if x, y := a.Int63(), b.Int63(); x != y {
			t.Fatalf("draw %v differs: %v vs %v", i, x, y)
		}
	}
}

func TestNewRandFreshSeed(t *testing.T) {
	_, first, err := NewRand(0)
	if err != nil {
		t.Fatal(err)
	}

	_, second, err := NewRand(0)
	if err != nil {
		t.Fatal(err)
	}

	if first == 0 && second == 0 {
		t.Fatal("expected a non-zero crypto seed")
	}
}
