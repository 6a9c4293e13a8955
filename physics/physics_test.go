package physics

import (
	"testing"

	"github.com/aortez/dirtsim/config"
	"github.com/aortez/dirtsim/grid"
	"github.com/aortez/dirtsim/material"
)

func freshConfig() {
	config.Set(&config.Config{
		Physics: config.PhysicsConfig{
			Gravity: 9.8, Timescale: 1, PressureScale: 1, FrictionStrength: 2.5,
			ComCohesionRange: 0.35, ComCohesionForce: 1.2, AirResistance: 0.02,
			MaxSpeed: 40, SwapEnabled: true, GaussSeidelPasses: 2,
		},
	})
}

func TestComStaysInBoundsAfterStep(t *testing.T) {
	freshConfig()
	g := grid.New(5, 5)
	_ = g.ReplaceMaterial(2, 2, material.Dirt, 1.0)
	s := &Stepper{}
	for i := 0; i < 50; i++ {
		s.Step(g, 1.0/60.0)
	}
	g.ForEachCell(func(x, y int, c *grid.Cell) {
		if c.ComX < -0.5 || c.ComX > 0.5 || c.ComY < -0.5 || c.ComY > 0.5 {
			t.Fatalf("cell (%d,%d) com out of bounds: (%v,%v)", x, y, c.ComX, c.ComY)
		}
		if c.FillRatio < 0 || c.FillRatio > 1 {
			t.Fatalf("cell (%d,%d) fill out of range: %v", x, y, c.FillRatio)
		}
	})
}

func TestSeedFallsAndSettles(t *testing.T) {
	freshConfig()
	g := grid.New(3, 9)
	for x := 0; x < 3; x++ {
		_ = g.ReplaceMaterial(x, 6, material.Dirt, 1.0)
		_ = g.ReplaceMaterial(x, 7, material.Dirt, 1.0)
		_ = g.ReplaceMaterial(x, 8, material.Dirt, 1.0)
	}
	_ = g.ReplaceMaterial(1, 0, material.Seed, 1.0)

	s := &Stepper{}
	lastY := 0
	for tick := 0; tick < 400; tick++ {
		s.Step(g, 1.0/60.0)
		found := false
		for y := 0; y < 9; y++ {
			c, _ := g.At(1, y)
			if c.Material == material.Seed {
				if y < lastY {
					t.Fatalf("seed moved upward from row %d to %d at tick %d", lastY, y, tick)
				}
				lastY = y
				found = true
				break
			}
		}
		_ = found
	}
	if lastY == 0 {
		t.Fatal("seed never fell")
	}
}

func TestTransferRefusedIntoSolid(t *testing.T) {
	freshConfig()
	g := grid.New(3, 3)
	_ = g.ReplaceMaterial(1, 0, material.Dirt, 1.0)
	_ = g.ReplaceMaterial(1, 1, material.Wall, 1.0)
	c, _ := g.AtRef(1, 0)
	c.ComY = 0.9
	c.VelY = 10

	s := &Stepper{}
	s.Step(g, 1.0/60.0)

	upper, _ := g.At(1, 0)
	if upper.Material != material.Dirt {
		t.Fatalf("dirt should not have transferred into a Wall cell, got %v", upper.Material)
	}
}
