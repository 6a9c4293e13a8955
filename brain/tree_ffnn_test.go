package brain

import (
	"math/rand"
	"testing"

	"github.com/aortez/dirtsim/grid"
	"github.com/aortez/dirtsim/organism"
)

func TestTreeGenomeRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	b := NewTreeBrain(rng)
	genome := b.ToGenome()
	if len(genome) != TreeGenomeLength {
		t.Fatalf("genome length = %d, want %d", len(genome), TreeGenomeLength)
	}
	loaded, err := FromGenome(genome)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Wih[0][0] != b.Wih[0][0] || loaded.Bo[TreeOutputSize-1] != b.Bo[TreeOutputSize-1] {
		t.Fatal("round-tripped brain does not match original")
	}
}

func TestFromGenomeRejectsWrongLength(t *testing.T) {
	if _, err := FromGenome(make([]float32, 3)); err == nil {
		t.Fatal("expected error for short genome")
	}
}

func TestTreeDecideIsDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	b := NewTreeBrain(rng)
	g := grid.New(20, 20)
	state := organism.TreeState{Stage: organism.StageSapling, TotalEnergy: 90, TotalWater: 30}
	sensory := Gather(g, grid.Coord{X: 10, Y: 10}, state, 5)

	first := b.Decide(sensory)
	second := b.Decide(sensory)
	if first != second {
		t.Fatalf("Decide is not deterministic: %+v != %+v", first, second)
	}
}

func TestMutateLeavesLengthUnchanged(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	b := NewTreeBrain(rng)
	genome := b.ToGenome()
	mutated := Mutate(genome, rng, 0.1, 0.15, 0.02)
	if len(mutated) != len(genome) {
		t.Fatalf("mutated length = %d, want %d", len(mutated), len(genome))
	}
}
