package organism

import (
	"errors"
	"testing"

	"github.com/aortez/dirtsim/grid"
	"github.com/aortez/dirtsim/material"
)

func TestCreateTreeOwnsAnchorCell(t *testing.T) {
	g := grid.New(5, 5)
	m := NewManager(g, 50)

	id, err := m.CreateTree(2, 2)
	if err != nil {
		t.Fatal(err)
	}
	c, _ := g.At(2, 2)
	if c.Material != material.Seed {
		t.Fatalf("anchor material = %v, want Seed", c.Material)
	}
	if owner, ok := m.OwnerOf(grid.Coord{X: 2, Y: 2}); !ok || owner != id {
		t.Fatalf("owner = %v,%v, want %v,true", owner, ok, id)
	}
	if err := m.CheckInvariants(); err != nil {
		t.Fatal(err)
	}
}

func TestSpawnOccupiedRejected(t *testing.T) {
	g := grid.New(5, 5)
	m := NewManager(g, 50)
	if _, err := m.CreateTree(2, 2); err != nil {
		t.Fatal(err)
	}
	if _, err := m.CreateDuck(2, 2); !errors.Is(err, ErrSpawnOccupied) {
		t.Fatalf("err = %v, want ErrSpawnOccupied", err)
	}
}

func TestRemoveFromWorldClearsCells(t *testing.T) {
	g := grid.New(5, 5)
	m := NewManager(g, 50)
	id, _ := m.CreateDuck(1, 1)
	if err := m.RemoveFromWorld(id); err != nil {
		t.Fatal(err)
	}
	c, _ := g.At(1, 1)
	if c.Material != material.Air {
		t.Fatalf("cell after removal = %v, want Air", c.Material)
	}
	if _, ok := m.OwnerOf(grid.Coord{X: 1, Y: 1}); ok {
		t.Fatal("reverse map should be purged after removal")
	}
	if err := m.CheckInvariants(); err != nil {
		t.Fatal(err)
	}
}

func TestOnTransferUpdatesAnchorAndBones(t *testing.T) {
	g := grid.New(5, 5)
	m := NewManager(g, 50)
	id, _ := m.CreateTree(2, 2)
	if err := m.AddCellToOrganism(id, grid.Coord{X: 2, Y: 3}); err != nil {
		t.Fatal(err)
	}
	if err := m.AddBone(id, grid.Coord{X: 2, Y: 2}, grid.Coord{X: 2, Y: 3}, 10, HingeNone, 0); err != nil {
		t.Fatal(err)
	}

	m.OnTransfer(grid.Coord{X: 2, Y: 2}, grid.Coord{X: 2, Y: 1})

	meta, ok := m.Get(id)
	if !ok {
		t.Fatal("organism should still exist")
	}
	if meta.Anchor != (grid.Coord{X: 2, Y: 1}) {
		t.Fatalf("anchor = %v, want (2,1)", meta.Anchor)
	}
	if owner, ok := m.OwnerOf(grid.Coord{X: 2, Y: 1}); !ok || owner != id {
		t.Fatalf("new anchor not in reverse map: %v,%v", owner, ok)
	}
	if _, ok := m.OwnerOf(grid.Coord{X: 2, Y: 2}); ok {
		t.Fatal("old anchor should be removed from reverse map")
	}
	if err := m.CheckInvariants(); err != nil {
		t.Fatal(err)
	}
}

func TestApplyBoneForcesIsEqualAndOpposite(t *testing.T) {
	g := grid.New(5, 5)
	m := NewManager(g, 50)
	id, _ := m.CreateTree(2, 2)
	_ = m.AddCellToOrganism(id, grid.Coord{X: 2, Y: 3})
	_ = g.ReplaceMaterial(2, 3, material.Wood, 1.0)
	if err := m.AddBone(id, grid.Coord{X: 2, Y: 2}, grid.Coord{X: 2, Y: 3}, 5, HingeNone, 0); err != nil {
		t.Fatal(err)
	}

	cb, _ := g.AtRef(2, 3)
	cb.ComY = 0.4 // stretch the bone beyond rest distance

	m.ApplyForces(g, 1.0/60.0)

	ca, _ := g.At(2, 2)
	cbAfter, _ := g.At(2, 3)
	sumX := ca.PendingForceX + cbAfter.PendingForceX
	sumY := ca.PendingForceY + cbAfter.PendingForceY
	if sumX < -1e-3 || sumX > 1e-3 || sumY < -1e-3 || sumY > 1e-3 {
		t.Fatalf("bone forces not equal and opposite: sum=(%v,%v)", sumX, sumY)
	}
}

func TestForEachOrganismDeterministicOrder(t *testing.T) {
	g := grid.New(10, 10)
	m := NewManager(g, 50)
	var ids []ID
	for i := 0; i < 5; i++ {
		id, err := m.CreateDuck(i, 0)
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, id)
	}
	var seen []ID
	m.ForEachOrganism(true, func(id ID, meta *Meta) {
		seen = append(seen, id)
	})
	for i := 1; i < len(seen); i++ {
		if seen[i] <= seen[i-1] {
			t.Fatalf("ForEachOrganism(deterministic=true) not ascending: %v", seen)
		}
	}
}
