// Package grid implements the cell grid substrate: a row-major array of
// cells, an 8x8-block-packed empty-cell bitmap, and a packed 3x3 material
// neighborhood cache, mirroring the plain-array terrain/navgrid
// design rather than an ECS representation (bulk, uniform, many-in-number
// data does not belong in the entity-component world).
package grid

import (
	"errors"
	"fmt"

	"github.com/aortez/dirtsim/material"
)

// ErrInvalidCoordinates is returned by bounds-checked accessors when (x,y)
// falls outside the grid.
var ErrInvalidCoordinates = errors.New("invalid coordinates")

// Grid is the 2-D cell substrate shared by the physics stepper, organism
// layer, and light calculator.
type Grid struct {
	Width, Height int

	cells             []Cell
	empty             *Bitmap
	neighborhoodCache []uint64
	dirty             []bool

	// debugForces is a side-channel accumulator of forces applied this
	// step; never consulted by gameplay code, only by introspection tools.
	debugForces []float32
}

// New allocates a width x height grid, all cells Air.
func New(width, height int) *Grid {
	g := &Grid{
		Width: width, Height: height,
		cells:             make([]Cell, width*height),
		empty:             NewBitmap(width, height),
		neighborhoodCache: make([]uint64, width*height),
		dirty:             make([]bool, width*height),
		debugForces:       make([]float32, width*height*2),
	}
	for i := range g.cells {
		g.cells[i] = NewAirCell()
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			g.empty.Set(x, y)
		}
	}
	g.rebuildAllNeighborhoods()
	return g
}

func (g *Grid) index(x, y int) int { return y*g.Width + x }

// InBounds reports whether (x,y) addresses a real cell.
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.Width && y < g.Height
}

// At returns a copy of the cell at (x,y).
func (g *Grid) At(x, y int) (Cell, error) {
	if !g.InBounds(x, y) {
		return Cell{}, fmt.Errorf("at(%d,%d): %w", x, y, ErrInvalidCoordinates)
	}
	return g.cells[g.index(x, y)], nil
}

// AtRef returns a pointer to the live cell at (x,y) for in-place mutation by
// the physics stepper. Callers must call MarkDirty after mutating occupancy
// or material.
func (g *Grid) AtRef(x, y int) (*Cell, error) {
	if !g.InBounds(x, y) {
		return nil, fmt.Errorf("atRef(%d,%d): %w", x, y, ErrInvalidCoordinates)
	}
	return &g.cells[g.index(x, y)], nil
}

// Resize reallocates the grid to a new size, discarding all prior cell
// state (scenario setup calls this before installing its layout).
func (g *Grid) Resize(width, height int) {
	*g = *New(width, height)
}

// ClearCell resets (x,y) to Air and keeps the bitmap/cache coherent.
func (g *Grid) ClearCell(x, y int) error {
	return g.ReplaceMaterial(x, y, material.Air, 0)
}

// ReplaceMaterial overwrites the material and fill ratio of a cell,
// clearing its velocity/COM/pressure state, and keeps the empty-bitmap and
// neighborhood cache coherent in the same call (the mutation-coherence
// requirement of the bitmap contract).
func (g *Grid) ReplaceMaterial(x, y int, kind material.Kind, fill float32) error {
	c, err := g.AtRef(x, y)
	if err != nil {
		return err
	}
	*c = Cell{Material: kind, FillRatio: fill, RenderAs: material.Invalid}
	g.syncOccupancy(x, y)
	g.MarkDirty(x, y)
	return nil
}

// AddMaterial adds delta_fill of kind into the cell, clamping to [0,1] and
// promoting Air to kind when fill becomes positive.
func (g *Grid) AddMaterial(x, y int, kind material.Kind, deltaFill float32) error {
	c, err := g.AtRef(x, y)
	if err != nil {
		return err
	}
	if c.Material == material.Air || c.FillRatio <= 0 {
		c.Material = kind
		c.FillRatio = 0
	}
	if c.Material != kind {
		return fmt.Errorf("add_material(%d,%d): material mismatch %v != %v", x, y, c.Material, kind)
	}
	c.FillRatio = clamp(c.FillRatio+deltaFill, 0, 1)
	if c.FillRatio == 0 {
		c.Material = material.Air
	}
	g.syncOccupancy(x, y)
	g.MarkDirty(x, y)
	return nil
}

func (g *Grid) syncOccupancy(x, y int) {
	c := g.cells[g.index(x, y)]
	if c.Empty() {
		g.empty.Set(x, y)
	} else {
		g.empty.Clear(x, y)
	}
}

// MarkDirty flags (x,y)'s neighborhood cache (and that of its 8 neighbors)
// for lazy rebuild, and immediately rebuilds them — "lazy" here means
// rebuilt only for touched cells, satisfying §4.1's coherence requirement
// without a separate deferred pass.
func (g *Grid) MarkDirty(x, y int) {
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			nx, ny := x+dx, y+dy
			if g.InBounds(nx, ny) {
				g.rebuildNeighborhood(nx, ny)
			}
		}
	}
}

func (g *Grid) rebuildAllNeighborhoods() {
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			g.rebuildNeighborhood(x, y)
		}
	}
}

// rebuildNeighborhood packs the 3x3 material kinds around (x,y) into a
// 64-bit value, 4 bits per cell, out-of-bounds neighbors reading as Wall
// (solid boundary assumption, matching scenario edge behavior).
func (g *Grid) rebuildNeighborhood(x, y int) {
	var packed uint64
	i := 0
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			nx, ny := x+dx, y+dy
			var kind material.Kind
			if g.InBounds(nx, ny) {
				kind = g.cells[g.index(nx, ny)].Material
			} else {
				kind = material.Wall
			}
			packed |= uint64(kind&0xF) << uint(i*4)
			i++
		}
	}
	g.neighborhoodCache[g.index(x, y)] = packed
}

// Neighborhood3x3 returns the packed 3x3 material neighborhood around
// (x,y); index i in [0,9) addresses (x+i%3-1, y+i/3-1).
func (g *Grid) Neighborhood3x3(x, y int) (uint64, error) {
	if !g.InBounds(x, y) {
		return 0, fmt.Errorf("neighborhood_3x3(%d,%d): %w", x, y, ErrInvalidCoordinates)
	}
	return g.neighborhoodCache[g.index(x, y)], nil
}

// NeighborKind decodes material kind i (0..8, row-major around center) from
// a packed neighborhood value returned by Neighborhood3x3.
func NeighborKind(packed uint64, i int) material.Kind {
	return material.Kind((packed >> uint(i*4)) & 0xF)
}

// EmptyBitmap returns the grid's occupancy bitmap.
func (g *Grid) EmptyBitmap() *Bitmap { return g.empty }

// AddDebugForce accumulates a side-channel force record at (x,y); never
// read by gameplay code.
func (g *Grid) AddDebugForce(x, y int, fx, fy float32) {
	if !g.InBounds(x, y) {
		return
	}
	i := g.index(x, y) * 2
	g.debugForces[i] += fx
	g.debugForces[i+1] += fy
}

// DebugForce returns the accumulated side-channel force at (x,y).
func (g *Grid) DebugForce(x, y int) (fx, fy float32) {
	if !g.InBounds(x, y) {
		return 0, 0
	}
	i := g.index(x, y) * 2
	return g.debugForces[i], g.debugForces[i+1]
}

// ClearDebugForces resets the side-channel accumulator; called at the start
// of each physics step alongside pending-force clearing.
func (g *Grid) ClearDebugForces() {
	for i := range g.debugForces {
		g.debugForces[i] = 0
	}
}

// ForEachCell calls fn for every cell in row-major order.
func (g *Grid) ForEachCell(fn func(x, y int, c *Cell)) {
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			fn(x, y, &g.cells[g.index(x, y)])
		}
	}
}
