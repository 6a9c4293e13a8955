package world

import (
	"github.com/aortez/dirtsim/brain"
	"github.com/aortez/dirtsim/grid"
	"github.com/aortez/dirtsim/material"
	"github.com/aortez/dirtsim/organism"
)

// updateTree runs one tick of a tree's command processor: advance an
// in-progress action to completion, absorb resources from owned Leaf/Root
// cells, consult the brain for a new command when idle, and advance the
// growth stage. Grounded on Tree.h update() loop and
// the systems/photosynthesis.go light-driven energy gain.
func (w *World) updateTree(id organism.ID, dt float32) {
	meta, ok := w.Organisms.Get(id)
	if !ok {
		return
	}
	state := w.Organisms.TreeStateOf(id)
	cells, ok := w.Organisms.CellsOf(id)
	if !ok {
		return
	}

	waterGained := w.absorbResources(cells, state, dt)

	if state.InProgress {
		state.ActionElapsed += float64(dt)
		if state.ActionElapsed >= state.ActionDuration {
			w.completeTreeAction(id, meta, state)
		}
	} else if decider, ok := w.brains[id].(brain.TreeDecider); ok {
		w.decideTreeAction(id, meta, state, cells, decider)
	}

	state.UpdateDryout(waterGained, float64(dt))
	state.AdvanceStage(meta.AgeSeconds, w.thresholds)
}

// absorbResources credits energy for owned Leaf cells scaled by the light
// at one representative owned cell (see anchorXY), and water for owned Root cells adjacent to
// Water, returning the water delta this tick (consumed by UpdateDryout).
func (w *World) absorbResources(cells map[grid.Coord]struct{}, state *organism.TreeState, dt float32) float64 {
	leafCount := 0
	var waterGained float64
	for pos := range cells {
		c, err := w.Grid.At(pos.X, pos.Y)
		if err != nil {
			continue
		}
		switch c.Material {
		case material.Leaf:
			leafCount++
		case material.Root:
			for _, d := range [4]grid.Coord{{X: 1}, {X: -1}, {Y: 1}, {Y: -1}} {
				n, err := w.Grid.At(pos.X+d.X, pos.Y+d.Y)
				if err == nil && n.Material == material.Water {
					waterGained += rootWaterPerSecond * float64(dt)
					break
				}
			}
		}
	}
	light := w.Light.At(anchorXY(cells))
	state.TotalEnergy += float64(leafCount) * leafEnergyPerSecond * float64(light.Brightness()) * float64(dt)
	state.TotalWater += waterGained
	return waterGained
}

// anchorXY picks a representative cell (the lexicographically first) from
// an organism's owned set for light sampling; trees are small enough early
// in growth that any owned cell approximates ambient exposure.
func anchorXY(cells map[grid.Coord]struct{}) (int, int) {
	first, found := grid.Coord{}, false
	for pos := range cells {
		if !found || pos.X < first.X || (pos.X == first.X && pos.Y < first.Y) {
			first, found = pos, true
		}
	}
	return first.X, first.Y
}

func (w *World) decideTreeAction(id organism.ID, meta organism.Meta, state *organism.TreeState, cells map[grid.Coord]struct{}, decider brain.TreeDecider) {
	sensory := brain.Gather(w.Grid, meta.Anchor, *state, meta.AgeSeconds)
	cmd := decider.Decide(sensory)
	if cmd.Kind == organism.CmdWait || cmd.Kind == organism.CmdCancel {
		return
	}
	if err := organism.ValidateCommand(cmd, cells, w.Grid, state.TotalEnergy); err != nil {
		return
	}
	state.TotalEnergy -= cmd.Kind.EnergyCost()
	state.InProgress = true
	state.Action = cmd
	state.ActionElapsed = 0
	state.ActionDuration = cmd.Kind.DefaultExecutionSeconds()
}

func (w *World) completeTreeAction(id organism.ID, meta organism.Meta, state *organism.TreeState) {
	cmd := state.Action
	state.InProgress = false
	state.Action = organism.Command{}

	switch cmd.Kind {
	case organism.CmdReinforceCell, organism.CmdWait, organism.CmdCancel:
		return
	}

	matKind := organism.CommandMaterial(cmd.Kind)
	if err := w.Grid.ReplaceMaterial(cmd.Target.X, cmd.Target.Y, matKind, 1.0); err != nil {
		return
	}
	if err := w.Organisms.AddCellToOrganism(id, cmd.Target); err != nil {
		return
	}
	for _, neighbor := range adjacentOwnedCells(w.Organisms, id, cmd.Target) {
		_ = w.Organisms.AddBone(id, neighbor, cmd.Target, treeBoneStiffness, organism.HingeNone, 0)
	}
}

// adjacentOwnedCells returns every one of target's four grid neighbors
// already owned by id, so completeTreeAction can bone the new cell to all
// of them (spec.md §4.4a: "bones connecting the new cell to every existing
// adjacent organism cell"), not just the first one found.
func adjacentOwnedCells(mgr *organism.Manager, id organism.ID, target grid.Coord) []grid.Coord {
	cells, ok := mgr.CellsOf(id)
	if !ok {
		return nil
	}
	var neighbors []grid.Coord
	for _, d := range [4]grid.Coord{{X: 1}, {X: -1}, {Y: 1}, {Y: -1}} {
		n := grid.Coord{X: target.X + d.X, Y: target.Y + d.Y}
		if _, owns := cells[n]; owns {
			neighbors = append(neighbors, n)
		}
	}
	return neighbors
}
