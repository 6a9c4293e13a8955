package grid

import (
	"errors"
	"testing"

	"github.com/aortez/dirtsim/material"
)

func TestNewGridAllAir(t *testing.T) {
	g := New(4, 4)
	c, err := g.At(2, 2)
	if err != nil {
		t.Fatal(err)
	}
	if c.Material != material.Air || c.FillRatio != 0 {
		t.Fatalf("new cell = %+v, want Air/0", c)
	}
	if !g.EmptyBitmap().IsSet(2, 2) {
		t.Fatal("new cell should be marked empty in bitmap")
	}
}

func TestOutOfBoundsReturnsInvalidCoordinates(t *testing.T) {
	g := New(4, 4)
	if _, err := g.At(-1, 0); !errors.Is(err, ErrInvalidCoordinates) {
		t.Fatalf("At(-1,0) err = %v, want ErrInvalidCoordinates", err)
	}
	if _, err := g.At(4, 0); !errors.Is(err, ErrInvalidCoordinates) {
		t.Fatalf("At(4,0) err = %v, want ErrInvalidCoordinates", err)
	}
}

func TestCellSetGetRoundTrip(t *testing.T) {
	g := New(4, 4)
	if err := g.ReplaceMaterial(1, 1, material.Dirt, 1.0); err != nil {
		t.Fatal(err)
	}
	c, err := g.At(1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if c.Material != material.Dirt || c.FillRatio != 1.0 {
		t.Fatalf("got %+v, want Dirt/1.0", c)
	}
	if g.EmptyBitmap().IsSet(1, 1) {
		t.Fatal("bitmap should clear the bit for a non-empty cell")
	}
}

func TestNeighborhoodCacheTracksMutation(t *testing.T) {
	g := New(5, 5)
	if err := g.ReplaceMaterial(2, 1, material.Wood, 1.0); err != nil {
		t.Fatal(err)
	}
	packed, err := g.Neighborhood3x3(2, 2)
	if err != nil {
		t.Fatal(err)
	}
	// (2,1) is directly above (2,2): index 1 in row-major 3x3 (dx=0,dy=-1).
	if got := NeighborKind(packed, 1); got != material.Wood {
		t.Fatalf("neighbor above = %v, want Wood", got)
	}
}

func TestOutOfBoundsNeighborReadsAsWall(t *testing.T) {
	g := New(3, 3)
	packed, err := g.Neighborhood3x3(0, 0)
	if err != nil {
		t.Fatal(err)
	}
	// index 0 is (-1,-1) relative to (0,0): out of bounds.
	if got := NeighborKind(packed, 0); got != material.Wall {
		t.Fatalf("out-of-bounds neighbor = %v, want Wall", got)
	}
}

func TestResetRestoresInitialState(t *testing.T) {
	g := New(3, 3)
	_ = g.ReplaceMaterial(1, 1, material.Dirt, 1.0)
	g.Resize(3, 3)
	c, _ := g.At(1, 1)
	if c.Material != material.Air {
		t.Fatalf("after resize, cell = %+v, want Air", c)
	}
}
