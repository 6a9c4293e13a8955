package brain

import (
	"github.com/aortez/dirtsim/grid"
	"github.com/aortez/dirtsim/material"
)

// DuckWindowSize is the side length of a duck's local sensory window.
const DuckWindowSize = 5

// DuckSensoryLength is the flattened length of a duck's sensory vector:
// a DuckWindowSize^2 material-occupancy window (1 = solid, 0 = open) plus
// velocity, facing, and ground-state scalars.
const DuckSensoryLength = DuckWindowSize*DuckWindowSize + 4

// DuckSensory is the observation a duck brain consumes each tick.
type DuckSensory struct {
	Occupancy [DuckWindowSize][DuckWindowSize]float32
	VelX      float32
	VelY      float32
	Facing    float32
	OnGround  float32
}

// GatherDuck builds a duck's local occupancy window centered on its body
// cell.
func GatherDuck(g *grid.Grid, anchor grid.Coord, velX, velY, facing float32, onGround bool) DuckSensory {
	var s DuckSensory
	half := DuckWindowSize / 2
	for wy := 0; wy < DuckWindowSize; wy++ {
		for wx := 0; wx < DuckWindowSize; wx++ {
			gx, gy := anchor.X-half+wx, anchor.Y-half+wy
			if c, err := g.At(gx, gy); err == nil {
				if material.Props(c.Material).IsSolid {
					s.Occupancy[wy][wx] = 1
				}
			} else {
				s.Occupancy[wy][wx] = 1
			}
		}
	}
	s.VelX, s.VelY, s.Facing = velX, velY, facing
	if onGround {
		s.OnGround = 1
	}
	return s
}

// Flatten produces the flattened sensory vector for neural duck brains.
func (s DuckSensory) Flatten() []float32 {
	out := make([]float32, 0, DuckSensoryLength)
	for y := 0; y < DuckWindowSize; y++ {
		out = append(out, s.Occupancy[y][:]...)
	}
	out = append(out, s.VelX, s.VelY, s.Facing, s.OnGround)
	return out
}
