package server

import (
	"math"

	"github.com/aortez/dirtsim/grid"
	"github.com/aortez/dirtsim/material"
)

// fingerSession tracks one active drag touch: FingerDown opens it,
// FingerMove updates its position and records the movement delta since the
// previous position, FingerUp closes it. Grounded on the original_source
// server's finger-drag handling referenced from SimRunning.cpp's per-frame
// input application, rendered here as a physics.ForceSource so it
// participates in the ordinary force-gathering phase instead of a bespoke
// post-tick patch.
type fingerSession struct {
	worldX, worldY float32
	radius         float32
	moveX, moveY   float32 // movement delta recorded by the last FingerMove
}

// fingerForceSource distributes each active finger's last recorded
// movement, scaled by FORCE_SCALE and a quadratic radial falloff, across
// the cells within its radius — spec.md §6's FingerMove semantics:
// direction from the movement delta, magnitude from movement speed,
// quadratic falloff `(1-d/r)^2`, skipping empty and wall cells.
type fingerForceSource struct {
	s *Server
}

// FingerMoveForceScale is FORCE_SCALE from spec.md §6.
const FingerMoveForceScale = 5.0

func (f fingerForceSource) ApplyForces(g *grid.Grid, dt float32) {
	if len(f.s.fingers) == 0 {
		return
	}
	for _, fs := range f.s.fingers {
		speed := float32(math.Hypot(float64(fs.moveX), float64(fs.moveY)))
		if speed < 1e-6 {
			continue
		}
		dirX, dirY := fs.moveX/speed, fs.moveY/speed
		magnitude := speed * FingerMoveForceScale

		cx, cy := int(fs.worldX), int(fs.worldY)
		r := int(math.Ceil(float64(fs.radius)))
		for y := cy - r; y <= cy+r; y++ {
			for x := cx - r; x <= cx+r; x++ {
				if !g.InBounds(x, y) {
					continue
				}
				dx := fs.worldX - float32(x)
				dy := fs.worldY - float32(y)
				dist := float32(math.Hypot(float64(dx), float64(dy)))
				if dist > fs.radius {
					continue
				}
				c, err := g.AtRef(x, y)
				if err != nil || c.Empty() || c.Material == material.Wall {
					continue
				}
				falloff := 1 - dist/fs.radius
				falloff *= falloff
				c.PendingForceX += dirX * magnitude * falloff
				c.PendingForceY += dirY * magnitude * falloff
			}
		}
	}
}
