// Package physics implements the fixed-step physics stepper: gravity,
// pressure field, force integration, material transfer, cell swap,
// friction, and COM cohesion, operating directly on a *grid.Grid.
package physics

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/aortez/dirtsim/config"
	"github.com/aortez/dirtsim/grid"
	"github.com/aortez/dirtsim/material"
)

// ForceSource is implemented by anything that contributes pending forces
// before gravity is applied — the scenario tick hook and the organism
// manager's bone-force pass (step 2 of the tick). Kept as an interface so
// physics never imports organism, avoiding a package cycle.
type ForceSource interface {
	ApplyForces(g *grid.Grid, dt float32)
}

// TransferListener receives {from, to} notifications when a cell's
// material moves to a new position, so the organism manager can update its
// cell-set/reverse-map/bone-endpoints/anchor bookkeeping (step 7).
type TransferListener interface {
	OnTransfer(from, to grid.Coord)
}

// Stepper advances a grid by one fixed timestep.
type Stepper struct {
	Sources   []ForceSource
	Listeners []TransferListener
}

// Step runs the full ordered pipeline.
func (s *Stepper) Step(g *grid.Grid, dt float32) {
	cfg := config.Cfg().Physics

	clearPendingForces(g)
	g.ClearDebugForces()

	for _, src := range s.Sources {
		src.ApplyForces(g, dt)
	}

	applyGravity(g, cfg.Gravity)

	computePressure(g, cfg)

	// COM-cohesion (step 10) must land in pending_force before integrate
	// (step 5) consumes it this same tick — added here, ahead of gravity's
	// sibling force-gathering steps, rather than after swap/friction, since
	// pending_force is cleared at the top of the next tick and would never
	// be read otherwise.
	applyComCohesion(g, cfg)

	integrate(g, cfg, dt)

	advectAndTransfer(g, s.Listeners, dt)

	if cfg.SwapEnabled {
		applySwaps(g)
	}

	applyFriction(g, cfg, dt)

	// Step 11 (bitmap/neighborhood coherence) is maintained incrementally by
	// every grid mutation above (grid.ReplaceMaterial/AddMaterial already
	// call MarkDirty), so no separate rebuild pass is required here.
}

func clearPendingForces(g *grid.Grid) {
	g.ForEachCell(func(x, y int, c *grid.Cell) {
		c.PendingForceX = 0
		c.PendingForceY = 0
	})
}

func applyGravity(g *grid.Grid, gravity float32) {
	g.ForEachCell(func(x, y int, c *grid.Cell) {
		if c.Empty() {
			return
		}
		c.PendingForceY += gravity * material.DensityWeight(c.Material)
	})
}

// computePressure implements Open Question (a)'s resolved algorithm:
// column-stacking hydrostatic pressure followed by a fixed number of
// Gauss-Seidel smoothing sweeps, then a discrete gradient.
func computePressure(g *grid.Grid, cfg config.PhysicsConfig) {
	for x := 0; x < g.Width; x++ {
		var accum float32
		for y := 0; y < g.Height; y++ {
			c, _ := g.AtRef(x, y)
			if c.Empty() {
				c.Pressure = 0
				continue
			}
			accum += material.DensityWeight(c.Material) * c.FillRatio * cfg.Gravity
			c.Pressure = accum * cfg.PressureScale
		}
	}

	passes := cfg.GaussSeidelPasses
	if passes <= 0 {
		passes = 2
	}
	row := make([]float64, g.Width)
	for pass := 0; pass < passes; pass++ {
		for y := 0; y < g.Height; y++ {
			for x := 0; x < g.Width; x++ {
				c, _ := g.AtRef(x, y)
				row[x] = float64(c.Pressure)
			}
			smoothRow(g, y, row)
		}
	}

	g.ForEachCell(func(x, y int, c *grid.Cell) {
		var left, right, up, down float32
		if lc, err := g.At(x-1, y); err == nil {
			left = lc.Pressure
		} else {
			left = c.Pressure
		}
		if rc, err := g.At(x+1, y); err == nil {
			right = rc.Pressure
		} else {
			right = c.Pressure
		}
		if uc, err := g.At(x, y-1); err == nil {
			up = uc.Pressure
		} else {
			up = c.Pressure
		}
		if dc, err := g.At(x, y+1); err == nil {
			down = dc.Pressure
		} else {
			down = c.Pressure
		}
		c.PressureGradX = (right - left) * 0.5
		c.PressureGradY = (down - up) * 0.5
	})
}

// smoothRow averages each cell in row y toward its 4-neighborhood pressure
// using gonum/floats for the vectorized sum, then writes the averaged
// result back into the grid row.
func smoothRow(g *grid.Grid, y int, row []float64) {
	avg := make([]float64, len(row))
	copy(avg, row)
	for x := 0; x < g.Width; x++ {
		neighbors := make([]float64, 0, 4)
		if x > 0 {
			neighbors = append(neighbors, row[x-1])
		}
		if x < g.Width-1 {
			neighbors = append(neighbors, row[x+1])
		}
		if uc, err := g.At(x, y-1); err == nil {
			neighbors = append(neighbors, float64(uc.Pressure))
		}
		if dc, err := g.At(x, y+1); err == nil {
			neighbors = append(neighbors, float64(dc.Pressure))
		}
		if len(neighbors) == 0 {
			continue
		}
		sum := floats.Sum(neighbors)
		avg[x] = 0.5*row[x] + 0.5*(sum/float64(len(neighbors)))
	}
	for x := 0; x < g.Width; x++ {
		c, _ := g.AtRef(x, y)
		c.Pressure = float32(avg[x])
	}
}

func integrate(g *grid.Grid, cfg config.PhysicsConfig, dt float32) {
	g.ForEachCell(func(x, y int, c *grid.Cell) {
		if c.Empty() {
			return
		}
		fx := c.PendingForceX - c.PressureGradX
		fy := c.PendingForceY - c.PressureGradY
		c.VelX += fx * dt
		c.VelY += fy * dt

		damping := 1 - cfg.AirResistance
		c.VelX *= damping
		c.VelY *= damping

		speed := float32(math.Hypot(float64(c.VelX), float64(c.VelY)))
		if speed > cfg.MaxSpeed && speed > 0 {
			scale := cfg.MaxSpeed / speed
			c.VelX *= scale
			c.VelY *= scale
		}
	})
}

// advectAndTransfer moves each cell's COM by velocity*dt and attempts
// cell-to-cell transfer when COM exits [-0.5,0.5]^2 (steps 6-7).
func advectAndTransfer(g *grid.Grid, listeners []TransferListener, dt float32) {
	type move struct {
		fromX, fromY, toX, toY int
		carryComX, carryComY   float32
	}
	var moves []move

	g.ForEachCell(func(x, y int, c *grid.Cell) {
		if c.Empty() {
			return
		}
		c.ComX += c.VelX * dt
		c.ComY += c.VelY * dt

		dx, dy := 0, 0
		carryX, carryY := c.ComX, c.ComY
		if c.ComX > 0.5 {
			dx = 1
			carryX = c.ComX - 1
		} else if c.ComX < -0.5 {
			dx = -1
			carryX = c.ComX + 1
		}
		if c.ComY > 0.5 {
			dy = 1
			carryY = c.ComY - 1
		} else if c.ComY < -0.5 {
			dy = -1
			carryY = c.ComY + 1
		}
		if dx == 0 && dy == 0 {
			c.ClampCOM()
			return
		}
		moves = append(moves, move{x, y, x + dx, y + dy, carryX, carryY})
	})

	for _, m := range moves {
		src, err := g.AtRef(m.fromX, m.fromY)
		if err != nil || src.Empty() {
			continue
		}
		dst, err := g.AtRef(m.toX, m.toY)
		if err != nil {
			// Blocked by world edge: drop the transfer, zero velocity along
			// the blocked axis (failure mode: never panic, never leak a
			// move off the grid).
			src.ClampCOM()
			if m.toX != m.fromX {
				src.VelX = 0
			}
			if m.toY != m.fromY {
				src.VelY = 0
			}
			continue
		}
		if !canAccept(*dst, *src) {
			src.ClampCOM()
			if m.toX != m.fromX {
				src.VelX = 0
			}
			if m.toY != m.fromY {
				src.VelY = 0
			}
			continue
		}

		moved := *src
		moved.ComX, moved.ComY = m.carryComX, m.carryComY
		moved.ClampCOM()

		if dst.Empty() {
			*dst = moved
		} else if material.Props(dst.Material).IsLiquid && dst.Material == moved.Material {
			headroom := 1 - dst.FillRatio
			take := headroom
			if take > moved.FillRatio {
				take = moved.FillRatio
			}
			dst.FillRatio += take
			moved.FillRatio -= take
		}
		*src = grid.NewAirCell()
		g.MarkDirty(m.fromX, m.fromY)
		g.MarkDirty(m.toX, m.toY)
		// Re-sync occupancy bits for both endpoints since we bypassed
		// ReplaceMaterial's bookkeeping for the fast-path move.
		syncCellOccupancy(g, m.fromX, m.fromY)
		syncCellOccupancy(g, m.toX, m.toY)

		from := grid.Coord{X: m.fromX, Y: m.fromY}
		to := grid.Coord{X: m.toX, Y: m.toY}
		for _, l := range listeners {
			l.OnTransfer(from, to)
		}
	}
}

func syncCellOccupancy(g *grid.Grid, x, y int) {
	c, err := g.At(x, y)
	if err != nil {
		return
	}
	if c.Empty() {
		g.EmptyBitmap().Set(x, y)
	} else {
		g.EmptyBitmap().Clear(x, y)
	}
}

// canAccept reports whether dst may receive moving's material: Air always
// accepts; liquids may mix with the same liquid; solids refuse to enter any
// filled cell unless same-material with headroom.
func canAccept(dst, moving grid.Cell) bool {
	if dst.Empty() {
		return true
	}
	if dst.Material != moving.Material {
		return false
	}
	if material.Props(dst.Material).IsLiquid {
		return dst.FillRatio < 1.0
	}
	return dst.FillRatio < 1.0
}

// applySwaps lets a heavier material fall past a lighter one directly
// below it. It inspects material density only: the grid has no ownership
// data, so cells owned by organisms are swapped too, and no transfer
// listener is notified.
func applySwaps(g *grid.Grid) {
	for y := 0; y < g.Height-1; y++ {
		for x := 0; x < g.Width; x++ {
			upper, _ := g.AtRef(x, y)
			lower, _ := g.AtRef(x, y+1)
			if upper.Empty() || lower.Empty() {
				continue
			}
			if material.DensityWeight(upper.Material) > material.DensityWeight(lower.Material) {
				*upper, *lower = *lower, *upper
				g.MarkDirty(x, y)
				g.MarkDirty(x, y+1)
			}
		}
	}
}

func applyFriction(g *grid.Grid, cfg config.PhysicsConfig, dt float32) {
	g.ForEachCell(func(x, y int, c *grid.Cell) {
		if c.Empty() {
			return
		}
		below, err := g.At(x, y+1)
		if err != nil || !below.Ground() {
			return
		}
		reduction := cfg.FrictionStrength * dt
		if c.VelX > 0 {
			c.VelX -= reduction
			if c.VelX < 0 {
				c.VelX = 0
			}
		} else if c.VelX < 0 {
			c.VelX += reduction
			if c.VelX > 0 {
				c.VelX = 0
			}
		}
	})
}

// applyComCohesion pulls a cell's COM back toward center when it drifts
// toward a same-organism neighbor within com_cohesion_range. Since grid has
// no organism awareness, this approximates "same organism" as "same
// non-Air, non-liquid material" — a conservative stand-in; the organism
// package's own bone-force pass (ForceSource) supplies the true
// organism-aware cohesion.
func applyComCohesion(g *grid.Grid, cfg config.PhysicsConfig) {
	g.ForEachCell(func(x, y int, c *grid.Cell) {
		if c.Empty() || material.Props(c.Material).IsLiquid {
			return
		}
		dist := float32(math.Hypot(float64(c.ComX), float64(c.ComY)))
		if dist <= 0 || dist >= cfg.ComCohesionRange {
			return
		}
		restore := cfg.ComCohesionForce * (cfg.ComCohesionRange - dist) / cfg.ComCohesionRange
		c.PendingForceX -= c.ComX * restore
		c.PendingForceY -= c.ComY * restore
	})
}
