package brain

import (
	"testing"

	"github.com/aortez/dirtsim/grid"
	"github.com/aortez/dirtsim/material"
	"github.com/aortez/dirtsim/organism"
)

func TestTreeSensoryLengthMatchesFlatten(t *testing.T) {
	g := grid.New(20, 20)
	state := organism.TreeState{Stage: organism.StageSapling, TotalEnergy: 80, TotalWater: 40}
	sensory := Gather(g, grid.Coord{X: 10, Y: 10}, state, 5)
	flat := sensory.Flatten()
	if len(flat) != TreeSensoryLength {
		t.Fatalf("flatten length = %d, want %d", len(flat), TreeSensoryLength)
	}
}

func TestTreeSensoryOutOfBoundsReadsAsWall(t *testing.T) {
	g := grid.New(5, 5)
	state := organism.TreeState{}
	sensory := Gather(g, grid.Coord{X: 0, Y: 0}, state, 0)
	center := TreeWindowSize / 2
	corner := sensory.Window[center-1][center-1]
	if corner[material.Wall] != 1 {
		t.Fatalf("expected out-of-bounds neighbor to read as wall, got %v", corner)
	}
}
