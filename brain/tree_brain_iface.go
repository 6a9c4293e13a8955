package brain

import (
	"math/rand"

	"github.com/aortez/dirtsim/grid"
	"github.com/aortez/dirtsim/material"
	"github.com/aortez/dirtsim/organism"
)

// TreeDecider is the capability every tree brain exposes: decide(sensory)
// -> command. Neural variants
// additionally expose GetGenome/SetGenome.
type TreeDecider interface {
	Decide(sensory TreeSensory) organism.Command
}

// GenomeCarrier is implemented by brains whose decision weights can be
// read and replaced as a flat weight vector — the neural tree brain.
// DuckBrain2 (a NEAT genome) does not implement it.
type GenomeCarrier interface {
	GetGenome() []float32
	SetGenome(weights []float32) error
}

// GetGenome implements GenomeCarrier for the canonical neural tree brain.
func (b *TreeBrain) GetGenome() []float32 { return b.ToGenome() }

// SetGenome implements GenomeCarrier for the canonical neural tree brain.
func (b *TreeBrain) SetGenome(weights []float32) error {
	loaded, err := FromGenome(weights)
	if err != nil {
		return err
	}
	*b = *loaded
	return nil
}

// RuleBasedTreeBrain is a deterministic, genome-free tree brain: grow root
// while thirsty and able, otherwise alternate wood/leaf growth while
// energy allows, otherwise wait. Grounded on // TrainingBrainRegistry registering a non-neural "RuleBased" tree brain
// alongside the NeuralNet one.
type RuleBasedTreeBrain struct {
	toggle bool
}

// Decide implements TreeDecider with a simple resource-driven heuristic.
func (r *RuleBasedTreeBrain) Decide(sensory TreeSensory) organism.Command {
	if sensory.InProgressAction != ([7]float32{}) {
		return organism.Command{Kind: organism.CmdWait}
	}
	center := TreeWindowSize / 2
	if sensory.TotalWater < 20 {
		if target, ok := firstAirNeighbor(sensory, center, center); ok {
			return organism.Command{Kind: organism.CmdGrowRoot, Target: target}
		}
	}
	r.toggle = !r.toggle
	kind := organism.CmdGrowWood
	if r.toggle {
		kind = organism.CmdGrowLeaf
	}
	if target, ok := firstAirNeighbor(sensory, center, center); ok {
		return organism.Command{Kind: kind, Target: target}
	}
	return organism.Command{Kind: organism.CmdWait}
}

func firstAirNeighbor(s TreeSensory, cx, cy int) (grid.Coord, bool) {
	for _, d := range [4][2]int{{0, 1}, {1, 0}, {-1, 0}, {0, -1}} {
		wx, wy := cx+d[0], cy+d[1]
		if wx < 0 || wy < 0 || wx >= TreeWindowSize || wy >= TreeWindowSize {
			continue
		}
		isAir := true
		for m := 0; m < 10; m++ {
			if m != int(material.Air) && s.Window[wy][wx][m] > 0 {
				isAir = false
				break
			}
		}
		if isAir {
			return grid.Coord{X: s.WorldOffset.X + wx, Y: s.WorldOffset.Y + wy}, true
		}
	}
	return grid.Coord{}, false
}

// NewTreeBrainForVariant constructs the tree brain for a registry variant
// name; "NeuralNet" requires a genome, "RuleBased" does not.
func NewTreeBrainForVariant(variant string, rng *rand.Rand) TreeDecider {
	switch variant {
	case "RuleBased":
		return &RuleBasedTreeBrain{}
	default:
		return NewTreeBrain(rng)
	}
}
