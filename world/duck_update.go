package world

import (
	"image/color"

	"github.com/aortez/dirtsim/brain"
	"github.com/aortez/dirtsim/config"
	"github.com/aortez/dirtsim/grid"
	"github.com/aortez/dirtsim/light"
	"github.com/aortez/dirtsim/organism"
)

// Handheld light fixture constants, grounded on
// LightHandHeld.cpp default spot parameters.
const (
	handheldIntensity   = 1.5
	handheldRadius      = 8.0
	handheldAttenuation = 0.2
	handheldArcWidth     = 1.2
	handheldFocus       = 2.0
)

// applyDuckForces runs the force-gathering half of every duck's tick:
// ground detection, sensory gathering, brain decision, and walk/jump force
// application. Invoked as a physics.ForceSource from inside Physics.Step,
// before gravity/integrate, so the forces it writes are consumed the same
// tick (spec.md §4.3 step 2) rather than cleared before ever being read.
func (w *World) applyDuckForces(g *grid.Grid, dt float32) {
	var duckIDs []organism.ID
	w.Organisms.ForEachOrganism(false, func(id organism.ID, meta *organism.Meta) {
		if meta.Kind == organism.KindDuck {
			duckIDs = append(duckIDs, id)
		}
	})
	for _, id := range duckIDs {
		w.applyDuckForce(id, g, dt)
	}
}

func (w *World) applyDuckForce(id organism.ID, g *grid.Grid, dt float32) {
	meta, ok := w.Organisms.Get(id)
	if !ok {
		return
	}
	state := w.Organisms.DuckStateOf(id)
	decider, ok := w.brains[id].(brain.DuckDecider)
	if !ok {
		return
	}

	c, err := g.AtRef(meta.Anchor.X, meta.Anchor.Y)
	if err != nil {
		return
	}
	below, err := g.At(meta.Anchor.X, meta.Anchor.Y+1)
	state.OnGround = err == nil && below.Ground()
	if state.JumpCooldown > 0 {
		state.JumpCooldown -= dt
	}

	sensory := brain.GatherDuck(g, meta.Anchor, c.VelX, c.VelY, state.Facing, state.OnGround)
	input := decider.Think(sensory, dt)

	if input.Move != 0 {
		state.Facing = signOf(input.Move)
	}
	moveForce := organism.DuckWalkForce * input.Move
	if !state.OnGround {
		moveForce *= state.AirSteerMultiplier(input.Move)
	}
	c.PendingForceX += moveForce

	if input.Jump {
		gravitySign := signOf(config.Cfg().Physics.Gravity)
		if outcome, fx, fy := state.TryJump(gravitySign); outcome == organism.JumpApplied {
			c.PendingForceX += fx
			c.PendingForceY += fy
		}
	}

	w.duckMoveForce[id] = moveForce
}

// updateDuck runs the post-physics half of a duck's tick: sparkle particle
// update (sized from this tick's cached walk-force magnitude) and
// handheld-light pitch dynamics. Grounded on Duck.h/DuckBrain.h update loop.
func (w *World) updateDuck(id organism.ID, dt float32) {
	meta, ok := w.Organisms.Get(id)
	if !ok {
		return
	}
	state := w.Organisms.DuckStateOf(id)
	if _, ok := w.brains[id].(brain.DuckDecider); !ok {
		return
	}

	moveForce := w.duckMoveForce[id]
	state.UpdateSparkles(absf(moveForce), dt, w.RNG.Float32, func(x, y float32) bool {
		cc, err := w.Grid.At(int(x), int(y))
		return err != nil || cc.Ground()
	})

	w.updateHandheldLight(meta, state, dt)
}

func (w *World) updateHandheldLight(meta organism.Meta, state *organism.DuckState, dt float32) {
	if !state.Light.Present {
		return
	}
	state.Light.Update(state.Facing*2, dt)
	if !state.Light.On {
		return
	}
	w.Lights = append(w.Lights, light.Light{
		Kind:        light.KindSpot,
		X:           float32(meta.Anchor.X) + 0.5,
		Y:           float32(meta.Anchor.Y) + 0.5,
		Color:       color.RGBA{255, 244, 214, 255},
		Intensity:   handheldIntensity,
		Radius:      handheldRadius,
		Attenuation: handheldAttenuation,
		Direction:   state.Light.Pitch,
		ArcWidth:    handheldArcWidth,
		Focus:       handheldFocus,
	})
}
