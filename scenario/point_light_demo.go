package scenario

import (
	"image/color"

	"github.com/aortez/dirtsim/light"
	"github.com/aortez/dirtsim/material"
	"github.com/aortez/dirtsim/world"
)

// PointLightDemoConfig carries the optional occluding wall cell used by the
// shadow half of the scenario's test.
type PointLightDemoConfig struct {
	WallX, WallY int // zero value (0,0) means no wall
}

// PointLightDemo is a 15x15 world of Air with a single PointLight fixture,
// used to exercise DDA occlusion and radial attenuation.
type PointLightDemo struct {
	cfg PointLightDemoConfig
}

func NewPointLightDemo() Scenario { return &PointLightDemo{} }

func (s *PointLightDemo) Metadata() Metadata {
	return Metadata{
		Name:           "PointLightDemo",
		Description:    "15x15 world of Air lit by a single occludable point light",
		RequiredWidth:  15,
		RequiredHeight: 15,
		Category:       CategoryDemo,
	}
}

func (s *PointLightDemo) GetConfig() interface{} { return s.cfg }

func (s *PointLightDemo) SetConfig(cfg interface{}, w *world.World) error {
	if c, ok := cfg.(PointLightDemoConfig); ok {
		s.cfg = c
		s.Setup(w)
	}
	return nil
}

func (s *PointLightDemo) Setup(w *world.World) {
	for y := 0; y < w.Grid.Height; y++ {
		for x := 0; x < w.Grid.Width; x++ {
			_ = w.Grid.ReplaceMaterial(x, y, material.Air, 0)
		}
	}
	if s.cfg.WallX > 0 || s.cfg.WallY > 0 {
		_ = w.Grid.ReplaceMaterial(s.cfg.WallX, s.cfg.WallY, material.Wall, 1.0)
	}
	w.StaticLights = []light.Light{{
		Kind:        light.KindPoint,
		X:           5.5,
		Y:           5.5,
		Color:       color.RGBA{255, 255, 255, 255},
		Intensity:   2.0,
		Radius:      10.0,
		Attenuation: 0.1,
	}}
}

func (s *PointLightDemo) Reset(w *world.World) { s.Setup(w) }

func (s *PointLightDemo) Tick(w *world.World, dt float32) {}
