package scenario

import (
	"github.com/aortez/dirtsim/material"
	"github.com/aortez/dirtsim/world"
)

// SunlitWaterColumnConfig carries the optional occluding wall row used by
// the darkening half of the scenario's test.
type SunlitWaterColumnConfig struct {
	WallRowY int // 0 means no wall
}

// SunlitWaterColumn is a 10x10 world filled entirely with Water, lit by
// directional sunlight alone, used to exercise the light transport
// pipeline's transmittance and occlusion behavior.
type SunlitWaterColumn struct {
	cfg SunlitWaterColumnConfig
}

func NewSunlitWaterColumn() Scenario { return &SunlitWaterColumn{} }

func (s *SunlitWaterColumn) Metadata() Metadata {
	return Metadata{
		Name:           "SunlitWaterColumn",
		Description:    "10x10 world filled with Water under pure directional sunlight",
		RequiredWidth:  10,
		RequiredHeight: 10,
		Category:       CategoryDemo,
	}
}

func (s *SunlitWaterColumn) GetConfig() interface{} { return s.cfg }

func (s *SunlitWaterColumn) SetConfig(cfg interface{}, w *world.World) error {
	if c, ok := cfg.(SunlitWaterColumnConfig); ok {
		s.cfg = c
		s.Setup(w)
	}
	return nil
}

func (s *SunlitWaterColumn) Setup(w *world.World) {
	for y := 0; y < w.Grid.Height; y++ {
		for x := 0; x < w.Grid.Width; x++ {
			_ = w.Grid.ReplaceMaterial(x, y, material.Water, 1.0)
		}
	}
	if s.cfg.WallRowY > 0 {
		for x := 0; x < w.Grid.Width; x++ {
			_ = w.Grid.ReplaceMaterial(x, s.cfg.WallRowY, material.Wall, 1.0)
		}
	}
}

func (s *SunlitWaterColumn) Reset(w *world.World) { s.Setup(w) }

func (s *SunlitWaterColumn) Tick(w *world.World, dt float32) {}
