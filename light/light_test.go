package light

import (
	"image/color"
	"testing"

	"github.com/aortez/dirtsim/config"
	"github.com/aortez/dirtsim/grid"
	"github.com/aortez/dirtsim/material"
)

func baseLightConfig() config.LightConfig {
	return config.LightConfig{
		AmbientColor:     [3]float32{1, 1, 1},
		AmbientIntensity: 1,
		SkyAccessEnabled: true,
		MultiDirectional: true,
		SkyAccessFalloff: 1,
	}
}

// Regression: on an all-Air world every sky_factor = 1, so the
// multi-directional sky-access scan must give uniform ambient.
func TestAmbientAllAirUniform(t *testing.T) {
	g := grid.New(6, 6)
	lg := New(6, 6)
	cfg := baseLightConfig()

	var calc Calculator
	calc.Calculate(g, lg, cfg, nil)

	for y := 0; y < 6; y++ {
		for x := 0; x < 6; x++ {
			c := lg.At(x, y)
			if c.R < 0.99 || c.G < 0.99 || c.B < 0.99 {
				t.Fatalf("(%d,%d) = %+v, want ~white ambient on all-Air world", x, y, c)
			}
		}
	}
}

// Opaque wall on row y=1, otherwise all-Air: interior (x,2) cells get
// sky_factor=0, edge columns at y>=2 get 0.25.
func TestAmbientWallOcclusionPattern(t *testing.T) {
	const w, h = 7, 7
	g := grid.New(w, h)
	for x := 0; x < w; x++ {
		if err := g.ReplaceMaterial(x, 1, material.Wall, 1.0); err != nil {
			t.Fatal(err)
		}
	}
	lg := New(w, h)
	cfg := baseLightConfig()
	cfg.AmbientBoost = 0

	var calc Calculator
	calc.Calculate(g, lg, cfg, nil)

	for x := 1; x < w-1; x++ {
		c := lg.At(x, 2)
		if c.Brightness() > 1e-4 {
			t.Fatalf("interior (%d,2) = %+v, want ~0 behind solid wall", x, c)
		}
	}
	left := lg.At(0, 3)
	if left.R < 0.24 || left.R > 0.26 {
		t.Fatalf("left edge (0,3).R = %v, want ~0.25", left.R)
	}
	right := lg.At(w-1, 3)
	if right.R < 0.24 || right.R > 0.26 {
		t.Fatalf("right edge (%d,3).R = %v, want ~0.25", w-1, right.R)
	}
}

// Sunlit water column: uniform Water fill lit by directional sun alone.
func TestSunlitWaterColumn(t *testing.T) {
	const size = 10
	g := grid.New(size, size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if err := g.ReplaceMaterial(x, y, material.Water, 1.0); err != nil {
				t.Fatal(err)
			}
		}
	}
	lg := New(size, size)
	cfg := config.LightConfig{
		SunColor: [3]float32{1, 1, 1}, SunIntensity: 1, SunEnabled: true,
	}

	var calc Calculator
	calc.Calculate(g, lg, cfg, nil)

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if lg.At(x, y).Brightness() <= 0.2 {
				t.Fatalf("(%d,%d) brightness = %v, want > 0.2", x, y, lg.At(x, y).Brightness())
			}
		}
	}

	for x := 0; x < size; x++ {
		if err := g.ReplaceMaterial(x, 3, material.Wall, 1.0); err != nil {
			t.Fatal(err)
		}
	}
	calc.Calculate(g, lg, cfg, nil)
	for y := 4; y < size; y++ {
		for x := 0; x < size; x++ {
			if lg.At(x, y).Brightness() >= 0.1 {
				t.Fatalf("(%d,%d) brightness = %v, want < 0.1 below wall", x, y, lg.At(x, y).Brightness())
			}
		}
	}
}

// Point-light occlusion: a single PointLight fixture against a wall.
func TestPointLightOcclusion(t *testing.T) {
	const size = 15
	g := grid.New(size, size)
	lg := New(size, size)
	cfg := config.LightConfig{}

	lights := []Light{{
		Kind: KindPoint, X: 5.5, Y: 5.5,
		Color: color.RGBA{255, 255, 255, 255}, Intensity: 2,
		Radius: 10, Attenuation: 0.1,
	}}

	var calc Calculator
	calc.Calculate(g, lg, cfg, lights)

	dx, dy := float32(7.5-5.5), float32(5.5-5.5)
	distSq := dx*dx + dy*dy
	want := 2.0 / (1 + distSq*0.1)
	got := lg.At(7, 5).R
	if diff := got - want; diff > 0.05 || diff < -0.05 {
		t.Fatalf("(7,5).R = %v, want ~%v", got, want)
	}

	if err := g.ReplaceMaterial(6, 6, material.Wall, 1.0); err != nil {
		t.Fatal(err)
	}
	calc.Calculate(g, lg, cfg, lights)
	for y := 7; y <= 8; y++ {
		for x := 7; x <= 8; x++ {
			if lg.At(x, y).Brightness() != 0 {
				t.Fatalf("(%d,%d) = %+v, want exactly zero behind wall", x, y, lg.At(x, y))
			}
		}
	}
}
