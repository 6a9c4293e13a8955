// Package organism implements the cell<->organism layer: long-lived
// entities owning one or more grid cells, tracked in a bidirectional
// cell<->organism map, connected by structural bones. Organisms are ark ECS
// entities (following this package's use of github.com/mlange-42/ark/ecs
// for mobile, heterogeneous game objects) while the cell grid itself stays
// a plain array (grid package), matching the split between ECS
// entities and plain-array terrain/navgrid data.
package organism

import (
	"errors"

	"github.com/mlange-42/ark/ecs"

	"github.com/aortez/dirtsim/grid"
)

// ErrSpawnOccupied is returned when create_tree/create_duck targets a cell
// that is not Air or is already owned by another organism.
var ErrSpawnOccupied = errors.New("spawn target occupied")

// ErrUnknownOrganism is returned by operations referencing an ID with no
// live organism.
var ErrUnknownOrganism = errors.New("unknown organism")

// ID is a stable 32-bit organism handle; 0 is reserved as invalid.
type ID uint32

// Kind is the closed set of organism kinds. Goose is reserved
// but has no concrete brain/body wired in this implementation.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindTree
	KindDuck
	KindGoose
)

// HingeEnd names which bone endpoint (if any) acts as a pivot.
type HingeEnd uint8

const (
	HingeNone HingeEnd = iota
	HingeA
	HingeB
)

// Bone is a Hookean spring between two cells of the same organism.
type Bone struct {
	A, B              grid.Coord
	RestDistance      float32
	Stiffness         float32
	Hinge             HingeEnd
	RotationalDamping float32
}

// Cells is the ark component holding the set of grid coordinates an
// organism owns.
type Cells struct {
	Set map[grid.Coord]struct{}
}

// Bones is the ark component holding a organism's ordered bone list.
type Bones struct {
	List []Bone
}

// Meta is the ark component holding identity/lifecycle fields that do not
// warrant their own component (kind, anchor, facing, age).
type Meta struct {
	ID         ID
	Kind       Kind
	Anchor     grid.Coord
	FacingX    float32
	FacingY    float32
	AgeSeconds float64
	Active     bool
}

// entityFor returns the ark entity backing organism id, or false.
func (m *Manager) entityFor(id ID) (ecs.Entity, bool) {
	e, ok := m.byID[id]
	return e, ok
}
