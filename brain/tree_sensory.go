// Package brain implements the tree and duck brains: sensory windowing, the
// canonical tree feed-forward network and command decoder, and the duck
// brain registry (Random, WallBouncing, Player, DuckBrain2).
package brain

import (
	"github.com/aortez/dirtsim/grid"
	"github.com/aortez/dirtsim/material"
	"github.com/aortez/dirtsim/organism"
)

// TreeWindowSize is the side length of a tree's sensory window.
const TreeWindowSize = 15

// TreeSensoryLength is the exact flattened length of a tree's sensory
// vector: 15*15*10 material-histogram entries plus 14 scalar/one-hot state
// entries.
const TreeSensoryLength = TreeWindowSize*TreeWindowSize*10 + 14

// TreeSensory is the structured observation a tree brain consumes each
// tick, mirroring the SensoryInputs struct (neural/inputs.go)
// generalized from angular sector histograms to a 2-D material-fill grid.
type TreeSensory struct {
	// Window[y][x] holds the fill ratio contributed by the material present
	// at that window cell, keyed by material.Kind ordinal; all but one
	// entry per cell is zero.
	Window [TreeWindowSize][TreeWindowSize][10]float32

	Scale       float32
	WorldOffset grid.Coord

	TotalEnergy float64
	TotalWater  float64
	AgeSeconds  float64
	Stage       organism.Stage

	// InProgressAction is a 7-wide one-hot of the currently-scheduled
	// command kind (organism.CommandKind ordinal), all zero when idle.
	InProgressAction [7]float32
	ActionProgress   float32 // in [0,1]
}

// Gather builds a tree's sensory window centered on anchor from g. Cells
// outside the grid read as Wall (same boundary convention as the grid
// neighborhood cache).
func Gather(g *grid.Grid, anchor grid.Coord, state organism.TreeState, ageSeconds float64) TreeSensory {
	var s TreeSensory
	half := TreeWindowSize / 2
	s.Scale = 1.0
	s.WorldOffset = grid.Coord{X: anchor.X - half, Y: anchor.Y - half}

	for wy := 0; wy < TreeWindowSize; wy++ {
		for wx := 0; wx < TreeWindowSize; wx++ {
			gx, gy := s.WorldOffset.X+wx, s.WorldOffset.Y+wy
			var kind material.Kind
			var fill float32
			if c, err := g.At(gx, gy); err == nil {
				kind, fill = c.Material, c.FillRatio
			} else {
				kind, fill = material.Wall, 1.0
			}
			s.Window[wy][wx][kind] = fill
		}
	}

	s.TotalEnergy = state.TotalEnergy
	s.TotalWater = state.TotalWater
	s.AgeSeconds = ageSeconds
	s.Stage = state.Stage

	if state.InProgress {
		s.InProgressAction[state.Action.Kind] = 1
		if state.ActionDuration > 0 {
			s.ActionProgress = float32(state.ActionElapsed / state.ActionDuration)
		}
	}
	return s
}

// Flatten produces the exact TreeSensoryLength-long input vector consumed
// by the tree FFNN, in the fixed layout documented on TreeSensory.
func (s TreeSensory) Flatten() [TreeSensoryLength]float32 {
	var out [TreeSensoryLength]float32
	i := 0
	for y := 0; y < TreeWindowSize; y++ {
		for x := 0; x < TreeWindowSize; x++ {
			for m := 0; m < 10; m++ {
				out[i] = s.Window[y][x][m]
				i++
			}
		}
	}
	out[i] = float32(s.TotalEnergy / 200)
	i++
	out[i] = float32(s.TotalWater / 100)
	i++
	out[i] = float32(s.AgeSeconds / 100)
	i++
	out[i] = float32(s.Stage) / 4
	i++
	out[i] = s.Scale / 10
	i++
	out[i] = 0 // reserved
	i++
	for k := 0; k < 7; k++ {
		out[i] = s.InProgressAction[k]
		i++
	}
	out[i] = s.ActionProgress
	return out
}
