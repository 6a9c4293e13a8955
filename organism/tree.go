package organism

import (
	"github.com/aortez/dirtsim/grid"
	"github.com/aortez/dirtsim/material"
)

// Stage is a tree's growth lifecycle stage.
type Stage uint8

const (
	StageSeed Stage = iota
	StageGermination
	StageSapling
	StageMature
	StageDecline
)

// CommandKind is the closed, ordinal-stable set of tree growth commands.
// The ordinal order matches the tree brain's output head layout exactly
// (brain package, command logits 0..6) — do not reorder.
type CommandKind uint8

const (
	CmdWait CommandKind = iota
	CmdCancel
	CmdGrowWood
	CmdGrowLeaf
	CmdGrowRoot
	CmdReinforceCell
	CmdProduceSeed
)

// DefaultExecutionSeconds returns the canonical execution time for an
// action command, grounded on the original source's per-command defaults.
func (k CommandKind) DefaultExecutionSeconds() float64 {
	switch k {
	case CmdGrowWood:
		return 3.0
	case CmdGrowLeaf:
		return 0.5
	case CmdGrowRoot:
		return 2.0
	case CmdReinforceCell:
		return 0.5
	case CmdProduceSeed:
		return 2.0
	default:
		return 0
	}
}

// EnergyCost returns the canonical energy cost for an action command.
func (k CommandKind) EnergyCost() float64 {
	switch k {
	case CmdGrowWood:
		return 4.0
	case CmdGrowLeaf:
		return 1.0
	case CmdGrowRoot:
		return 3.0
	case CmdReinforceCell:
		return 1.0
	case CmdProduceSeed:
		return 8.0
	default:
		return 0
	}
}

// Command is a decoded brain decision: a kind plus an optional target
// position (growth/reinforce/seed commands target a cell; Wait/Cancel do
// not).
type Command struct {
	Kind   CommandKind
	Target grid.Coord
}

// TreeStageThresholds resolves Open Question (b): scenario-tunable
// thresholds for stage advancement, grounded on // TreeGermination test.
type TreeStageThresholds struct {
	GerminationAgeSeconds float64
	SaplingAgeSeconds     float64
	MatureEnergy          float64
	MatureAgeSeconds      float64
	DeclineDryoutSeconds  float64
}

// DefaultTreeStageThresholds are the tunable default stage transition
// thresholds.
func DefaultTreeStageThresholds() TreeStageThresholds {
	return TreeStageThresholds{
		GerminationAgeSeconds: 2,
		SaplingAgeSeconds:     10,
		MatureEnergy:          150,
		MatureAgeSeconds:      120,
		DeclineDryoutSeconds:  60,
	}
}

// TreeState is the ark component holding per-tree growth bookkeeping: the
// in-progress action, accumulated resources, and stage.
type TreeState struct {
	Stage Stage

	TotalEnergy float64
	TotalWater  float64
	DrySeconds  float64

	InProgress     bool
	Action         Command
	ActionElapsed  float64
	ActionDuration float64
}

// AdvanceStage recomputes Stage from the tree's accumulated age/resources
// against th. Stages only ever advance forward; Decline is terminal.
func (s *TreeState) AdvanceStage(ageSeconds float64, th TreeStageThresholds) {
	switch s.Stage {
	case StageSeed:
		if ageSeconds >= th.GerminationAgeSeconds {
			s.Stage = StageGermination
		}
	case StageGermination:
		if ageSeconds >= th.SaplingAgeSeconds {
			s.Stage = StageSapling
		}
	case StageSapling:
		if s.TotalEnergy >= th.MatureEnergy || ageSeconds >= th.MatureAgeSeconds {
			s.Stage = StageMature
		}
	case StageMature:
		if s.DrySeconds >= th.DeclineDryoutSeconds {
			s.Stage = StageDecline
		}
	}
}

// UpdateDryout advances the mature-stage dryout accumulator: resets to 0
// whenever TotalWater increases this tick, otherwise accrues dt.
func (s *TreeState) UpdateDryout(waterDeltaThisTick float64, dt float64) {
	if waterDeltaThisTick > 0 {
		s.DrySeconds = 0
	} else {
		s.DrySeconds += dt
	}
}

// ValidateCommand checks the command processor preconditions: target
// adjacency to an existing organism cell, sufficient energy, target cell
// is Air and in-bounds. Wait/Cancel always validate.
func ValidateCommand(cmd Command, owned map[grid.Coord]struct{}, g *grid.Grid, energyAvailable float64) error {
	if cmd.Kind == CmdWait || cmd.Kind == CmdCancel {
		return nil
	}
	if cmd.Kind.EnergyCost() > energyAvailable {
		return errInsufficientEnergy
	}
	c, err := g.At(cmd.Target.X, cmd.Target.Y)
	if err != nil {
		return err
	}
	if cmd.Kind == CmdReinforceCell {
		if _, owns := owned[cmd.Target]; !owns {
			return errNotAdjacentOrOwned
		}
		return nil
	}
	if !c.Empty() {
		return errTargetNotAir
	}
	adjacent := false
	for _, d := range [4]grid.Coord{{X: 1}, {X: -1}, {Y: 1}, {Y: -1}} {
		if _, ok := owned[grid.Coord{X: cmd.Target.X + d.X, Y: cmd.Target.Y + d.Y}]; ok {
			adjacent = true
			break
		}
	}
	if !adjacent {
		return errNotAdjacentOrOwned
	}
	return nil
}

// CommandMaterial returns the material a completed growth command writes
// to its target cell.
func CommandMaterial(k CommandKind) material.Kind {
	switch k {
	case CmdGrowWood:
		return material.Wood
	case CmdGrowLeaf:
		return material.Leaf
	case CmdGrowRoot:
		return material.Root
	case CmdProduceSeed:
		return material.Seed
	default:
		return material.Air
	}
}
