package scenario

import (
	"github.com/aortez/dirtsim/material"
	"github.com/aortez/dirtsim/world"
)

// TreeGerminationConfig configures the seed placement and starting brain
// variant.
type TreeGerminationConfig struct {
	BrainVariant string
	Genome       []float32
}

// TreeGermination is the concrete seed-germination scenario: a 9x9 world
// with Dirt filling the bottom three rows and a single anchored Seed at
// (4,4), used both as a demo and as the evolution training scenario.
type TreeGermination struct {
	cfg  TreeGerminationConfig
	seed world.ForceHook
}

// NewTreeGermination constructs a TreeGermination scenario with defaults.
func NewTreeGermination() Scenario {
	return &TreeGermination{cfg: TreeGerminationConfig{BrainVariant: "NeuralNet"}}
}

func (s *TreeGermination) Metadata() Metadata {
	return Metadata{
		Name:           "TreeGermination",
		Description:    "9x9 dirt bed with a single anchored seed",
		RequiredWidth:  9,
		RequiredHeight: 9,
		Category:       CategoryTraining,
	}
}

func (s *TreeGermination) GetConfig() interface{} { return s.cfg }

func (s *TreeGermination) SetConfig(cfg interface{}, w *world.World) error {
	if c, ok := cfg.(TreeGerminationConfig); ok {
		s.cfg = c
	}
	return nil
}

func (s *TreeGermination) Setup(w *world.World) {
	for y := 6; y <= 8; y++ {
		for x := 0; x < w.Grid.Width; x++ {
			_ = w.Grid.ReplaceMaterial(x, y, material.Dirt, 1.0)
		}
	}
	_, _ = w.SpawnTree(4, 4, s.cfg.BrainVariant, s.cfg.Genome)
}

func (s *TreeGermination) Reset(w *world.World) {
	s.Setup(w)
}

func (s *TreeGermination) Tick(w *world.World, dt float32) {}
