package grid

import "github.com/aortez/dirtsim/material"

// Coord is a grid coordinate used as a map key by organism and bone code.
type Coord struct {
	X, Y int
}

// Cell is one element of the world grid. Ownership back-references are
// deliberately not stored here; canonical ownership lives in
// organism.Manager's cell-to-organism map.
type Cell struct {
	Material material.Kind
	FillRatio float32

	ComX, ComY float32
	VelX, VelY float32

	Pressure               float32
	PressureGradX, PressureGradY float32

	PendingForceX, PendingForceY float32

	// RenderAs overrides the displayed material for scenario effects; it is
	// material.Invalid when unset.
	RenderAs material.Kind
}

// NewAirCell returns the zero-value cell: Air with fill 0, satisfying
// invariant (a) material=Air <=> fill_ratio=0.
func NewAirCell() Cell {
	return Cell{Material: material.Air, RenderAs: material.Invalid}
}

// Empty reports whether the cell holds no material (Air with fill 0).
func (c Cell) Empty() bool {
	return c.Material == material.Air && c.FillRatio == 0
}

// Ground reports whether this cell counts as solid footing for organism
// ground detection and friction: solid material with fill at least half.
func (c Cell) Ground() bool {
	return material.Props(c.Material).IsSolid && c.FillRatio >= 0.5
}

// ClampCOM clamps the sub-cell center of mass back into [-0.5, 0.5]^2,
// enforcing invariant (c).
func (c *Cell) ClampCOM() {
	c.ComX = clamp(c.ComX, -0.5, 0.5)
	c.ComY = clamp(c.ComY, -0.5, 0.5)
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
