package world

import (
	"math/rand"
	"testing"

	"github.com/aortez/dirtsim/brain"
	"github.com/aortez/dirtsim/grid"
	"github.com/aortez/dirtsim/material"
)

func TestTickAdvancesClock(t *testing.T) {
	w := New(9, 9, rand.New(rand.NewSource(1)))
	w.Tick(0.1)
	if w.TickCount != 1 {
		t.Fatalf("TickCount = %d, want 1", w.TickCount)
	}
	if w.ElapsedSeconds != 0.1 {
		t.Fatalf("ElapsedSeconds = %v, want 0.1", w.ElapsedSeconds)
	}
}

func TestSpawnTreeAttachesBrainAndOwnsAnchor(t *testing.T) {
	w := New(9, 9, rand.New(rand.NewSource(1)))
	id, err := w.SpawnTree(4, 4, "RuleBased", nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := w.BrainOf(id); !ok {
		t.Fatalf("expected brain attached to %v", id)
	}
	c, err := w.Grid.At(4, 4)
	if err != nil {
		t.Fatal(err)
	}
	if c.Material != material.Seed {
		t.Fatalf("anchor material = %v, want Seed", c.Material)
	}
	if err := w.CheckInvariants(); err != nil {
		t.Fatal(err)
	}
}

func TestTreeGrowsEnergyFromLeavesUnderLight(t *testing.T) {
	w := New(9, 9, rand.New(rand.NewSource(1)))
	id, err := w.SpawnTree(4, 4, "RuleBased", nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Grid.ReplaceMaterial(4, 3, material.Leaf, 1.0); err != nil {
		t.Fatal(err)
	}
	if err := w.Organisms.AddCellToOrganism(id, grid.Coord{X: 4, Y: 3}); err != nil {
		t.Fatal(err)
	}
	state := w.Organisms.TreeStateOf(id)
	before := state.TotalEnergy
	for i := 0; i < 20; i++ {
		w.Tick(0.1)
	}
	state = w.Organisms.TreeStateOf(id)
	if state.TotalEnergy <= before {
		t.Fatalf("TotalEnergy = %v, want growth above %v", state.TotalEnergy, before)
	}
}

func TestSpawnDuckAndTickMovesOrganism(t *testing.T) {
	w := New(12, 10, rand.New(rand.NewSource(2)))
	for x := 0; x < w.Grid.Width; x++ {
		_ = w.Grid.ReplaceMaterial(x, 9, material.Dirt, 1.0)
	}
	id, err := w.SpawnDuck(2, 8, "Player", nil)
	if err != nil {
		t.Fatal(err)
	}
	decider, ok := w.BrainOf(id)
	if !ok {
		t.Fatalf("expected brain attached to %v", id)
	}
	player, ok := decider.(*brain.PlayerDuckBrain)
	if !ok {
		t.Fatalf("brain type = %T, want *brain.PlayerDuckBrain", decider)
	}
	player.SetInput(brain.ExternalInput{Move: 1})

	startMeta, ok := w.Organisms.Get(id)
	if !ok {
		t.Fatal("duck should exist right after spawn")
	}
	startX := startMeta.Anchor.X

	for i := 0; i < 120; i++ {
		w.Tick(0.05)
	}
	if err := w.CheckInvariants(); err != nil {
		t.Fatal(err)
	}
	endMeta, ok := w.Organisms.Get(id)
	if !ok {
		t.Fatalf("duck %v should still exist after 120 ticks", id)
	}
	if endMeta.Anchor.X <= startX {
		t.Fatalf("anchor X = %d, want > %d: a fixed move=1 input should walk the duck right (spec.md §8 duck locomotion)", endMeta.Anchor.X, startX)
	}
}

func TestRemoveOrganismClearsBrain(t *testing.T) {
	w := New(9, 9, rand.New(rand.NewSource(1)))
	id, err := w.SpawnTree(4, 4, "RuleBased", nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.RemoveOrganism(id); err != nil {
		t.Fatal(err)
	}
	if _, ok := w.BrainOf(id); ok {
		t.Fatalf("brain for %v should be gone", id)
	}
}

func TestResizeResetsWorld(t *testing.T) {
	w := New(5, 5, rand.New(rand.NewSource(1)))
	if _, err := w.SpawnTree(2, 2, "RuleBased", nil); err != nil {
		t.Fatal(err)
	}
	w.Resize(9, 9)
	if w.Grid.Width != 9 || w.Grid.Height != 9 {
		t.Fatalf("grid size = %dx%d, want 9x9", w.Grid.Width, w.Grid.Height)
	}
	if w.Organisms.Count() != 0 {
		t.Fatalf("organism count = %d, want 0 after resize", w.Organisms.Count())
	}
}
