package brain

import (
	"math/rand"
	"testing"
)

func TestRegistryFindsAllDocumentedVariants(t *testing.T) {
	r := NewRegistry()
	cases := []struct {
		organism OrganismType
		kind     BrainKind
		variant  string
	}{
		{OrganismTree, BrainKindNeural, "NeuralNet"},
		{OrganismTree, BrainKindRuleBased, "RuleBased"},
		{OrganismDuck, BrainKindRandom, "Random"},
		{OrganismDuck, BrainKindScripted, "WallBouncing"},
		{OrganismDuck, BrainKindPlayer, "Player"},
		{OrganismDuck, BrainKindNeural, "DuckBrain2"},
	}
	for _, c := range cases {
		entry, ok := r.Find(c.organism, c.kind, c.variant)
		if !ok {
			t.Fatalf("missing registry entry for %v/%v/%v", c.organism, c.kind, c.variant)
		}
		rng := rand.New(rand.NewSource(1))
		if _, err := entry.Spawn(rng, nil); err != nil {
			t.Fatalf("spawn failed for %v/%v/%v: %v", c.organism, c.kind, c.variant, err)
		}
	}
}

func TestRegistryCreateDefault(t *testing.T) {
	r := NewRegistry()
	rng := rand.New(rand.NewSource(1))
	if _, err := r.CreateDefault(OrganismTree, rng); err != nil {
		t.Fatal(err)
	}
	if _, err := r.CreateDefault(OrganismDuck, rng); err != nil {
		t.Fatal(err)
	}
}
