package scenario

import (
	"math/rand"
	"testing"

	"github.com/aortez/dirtsim/material"
	"github.com/aortez/dirtsim/world"
)

func TestRegistryNamesSorted(t *testing.T) {
	r := NewRegistry()
	names := r.Names()
	want := []string{"DuckPlayground", "PointLightDemo", "SunlitWaterColumn", "TreeGermination"}
	if len(names) != len(want) {
		t.Fatalf("Names() = %v, want %v", names, want)
	}
	for i, n := range want {
		if names[i] != n {
			t.Fatalf("Names()[%d] = %q, want %q", i, names[i], n)
		}
	}
}

func TestBuildUnknownScenario(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Build("NoSuchScenario"); err == nil {
		t.Fatal("expected error for unknown scenario")
	}
}

func TestSwitchResizesToMetadata(t *testing.T) {
	r := NewRegistry()
	w := world.New(3, 3, rand.New(rand.NewSource(1)))
	if _, err := Switch(r, "TreeGermination", w); err != nil {
		t.Fatal(err)
	}
	if w.Grid.Width != 9 || w.Grid.Height != 9 {
		t.Fatalf("grid size = %dx%d, want 9x9", w.Grid.Width, w.Grid.Height)
	}
}

func TestTreeGerminationSetupPlantsSeedOnDirt(t *testing.T) {
	r := NewRegistry()
	w := world.New(9, 9, rand.New(rand.NewSource(1)))
	s, err := Switch(r, "TreeGermination", w)
	if err != nil {
		t.Fatal(err)
	}
	c, err := w.Grid.At(4, 4)
	if err != nil {
		t.Fatal(err)
	}
	if c.Material != material.Seed {
		t.Fatalf("anchor material = %v, want Seed", c.Material)
	}
	below, err := w.Grid.At(4, 6)
	if err != nil {
		t.Fatal(err)
	}
	if below.Material != material.Dirt {
		t.Fatalf("row 6 material = %v, want Dirt", below.Material)
	}
	s.Reset(w)
	c, err = w.Grid.At(4, 4)
	if err != nil {
		t.Fatal(err)
	}
	if c.Material != material.Seed {
		t.Fatalf("after reset anchor material = %v, want Seed", c.Material)
	}
}

func TestSunlitWaterColumnFillsWater(t *testing.T) {
	r := NewRegistry()
	w := world.New(3, 3, rand.New(rand.NewSource(1)))
	if _, err := Switch(r, "SunlitWaterColumn", w); err != nil {
		t.Fatal(err)
	}
	for y := 0; y < w.Grid.Height; y++ {
		for x := 0; x < w.Grid.Width; x++ {
			c, err := w.Grid.At(x, y)
			if err != nil {
				t.Fatal(err)
			}
			if c.Material != material.Water {
				t.Fatalf("(%d,%d) material = %v, want Water", x, y, c.Material)
			}
		}
	}
}

func TestPointLightDemoInstallsFixture(t *testing.T) {
	r := NewRegistry()
	w := world.New(15, 15, rand.New(rand.NewSource(1)))
	if _, err := Switch(r, "PointLightDemo", w); err != nil {
		t.Fatal(err)
	}
	if len(w.StaticLights) != 1 {
		t.Fatalf("StaticLights = %d, want 1", len(w.StaticLights))
	}
	if w.StaticLights[0].Radius != 10.0 {
		t.Fatalf("Radius = %v, want 10.0", w.StaticLights[0].Radius)
	}
}
