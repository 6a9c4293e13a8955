package scenario

import (
	"github.com/aortez/dirtsim/material"
	"github.com/aortez/dirtsim/world"
)

// DuckPlaygroundConfig names the duck brain variant to spawn, defaulting
// to the player-controllable brain for manual interaction.
type DuckPlaygroundConfig struct {
	BrainVariant string
}

// DuckPlayground is a flat-floored demo world for exercising duck
// locomotion, jumping, and the handheld light — grounded on the
// default playable level in game/factory.go.
type DuckPlayground struct {
	cfg DuckPlaygroundConfig
}

func NewDuckPlayground() Scenario {
	return &DuckPlayground{cfg: DuckPlaygroundConfig{BrainVariant: "Player"}}
}

func (s *DuckPlayground) Metadata() Metadata {
	return Metadata{
		Name:           "DuckPlayground",
		Description:    "flat dirt floor for duck locomotion and lighting demos",
		RequiredWidth:  30,
		RequiredHeight: 20,
		Category:       CategoryDemo,
	}
}

func (s *DuckPlayground) GetConfig() interface{} { return s.cfg }

func (s *DuckPlayground) SetConfig(cfg interface{}, w *world.World) error {
	if c, ok := cfg.(DuckPlaygroundConfig); ok {
		s.cfg = c
	}
	return nil
}

func (s *DuckPlayground) Setup(w *world.World) {
	floorY := w.Grid.Height - 3
	for y := floorY; y < w.Grid.Height; y++ {
		for x := 0; x < w.Grid.Width; x++ {
			_ = w.Grid.ReplaceMaterial(x, y, material.Dirt, 1.0)
		}
	}
	_, _ = w.SpawnDuck(w.Grid.Width/2, floorY-1, s.cfg.BrainVariant, nil)
}

func (s *DuckPlayground) Reset(w *world.World) { s.Setup(w) }

func (s *DuckPlayground) Tick(w *world.World, dt float32) {}
