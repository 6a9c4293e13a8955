package organism

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/mlange-42/ark/ecs"

	"github.com/aortez/dirtsim/grid"
	"github.com/aortez/dirtsim/material"
)

// Manager owns the ark ECS world backing every live organism and the
// bidirectional cell<->organism map. All cell-ownership mutation goes
// through it exclusively.
type Manager struct {
	mu sync.Mutex

	world   *ecs.World
	mapper  *ecs.Map3[Cells, Bones, Meta]
	cells   *ecs.Map1[Cells]
	bones   *ecs.Map1[Bones]
	meta    *ecs.Map1[Meta]

	byID     map[ID]ecs.Entity
	byCoord  map[grid.Coord]ID
	nextID   ID
	grid     *grid.Grid
	boneSafety float32

	treeState *ecs.Map1[TreeState]
	duckState *ecs.Map1[DuckState]
}

// NewManager creates an organism manager bound to g. boneSafety caps the
// per-bone spring+damping force magnitude (§4.4 apply_bone_forces).
func NewManager(g *grid.Grid, boneSafety float32) *Manager {
	world := ecs.NewWorld()
	return &Manager{
		world:      world,
		mapper:     ecs.NewMap3[Cells, Bones, Meta](world),
		cells:      ecs.NewMap1[Cells](world),
		bones:      ecs.NewMap1[Bones](world),
		meta:       ecs.NewMap1[Meta](world),
		treeState:  ecs.NewMap1[TreeState](world),
		duckState:  ecs.NewMap1[DuckState](world),
		byID:       make(map[ID]ecs.Entity),
		byCoord:    make(map[grid.Coord]ID),
		nextID:     1,
		grid:       g,
		boneSafety: boneSafety,
	}
}

// World exposes the backing ark world for packages (brain, scenario) that
// need to query organism components directly via their own filters.
func (m *Manager) World() *ecs.World { return m.world }

// MetaMap exposes the Meta component map for read access by other packages
// (e.g. brain command processors reading AgeSeconds/Kind).
func (m *Manager) MetaMap() *ecs.Map1[Meta] { return m.meta }

// CellsMap exposes the Cells component map for read access.
func (m *Manager) CellsMap() *ecs.Map1[Cells] { return m.cells }

// BonesMap exposes the Bones component map for read/write access by tree
// growth logic (new bones on cell growth).
func (m *Manager) BonesMap() *ecs.Map1[Bones] { return m.bones }

func (m *Manager) spawn(kind Kind, x, y int, anchorMaterial material.Kind) (ID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pos := grid.Coord{X: x, Y: y}
	c, err := m.grid.At(x, y)
	if err != nil {
		return 0, err
	}
	if !c.Empty() {
		return 0, fmt.Errorf("spawn(%d,%d): %w", x, y, ErrSpawnOccupied)
	}
	if _, owned := m.byCoord[pos]; owned {
		return 0, fmt.Errorf("spawn(%d,%d): %w", x, y, ErrSpawnOccupied)
	}

	if err := m.grid.ReplaceMaterial(x, y, anchorMaterial, 1.0); err != nil {
		return 0, err
	}

	id := m.nextID
	m.nextID++

	cells := Cells{Set: map[grid.Coord]struct{}{pos: {}}}
	bones := Bones{}
	meta := Meta{ID: id, Kind: kind, Anchor: pos, FacingX: 1, Active: true}
	entity := m.mapper.NewEntity(&cells, &bones, &meta)

	m.byID[id] = entity
	m.byCoord[pos] = id
	return id, nil
}

// CreateTree spawns a tree organism with its Seed anchor cell at (x,y) and
// attaches its TreeState component (starts at StageSeed).
func (m *Manager) CreateTree(x, y int) (ID, error) {
	id, err := m.spawn(KindTree, x, y, material.Seed)
	if err != nil {
		return 0, err
	}
	m.mu.Lock()
	m.treeState.Add(m.byID[id], &TreeState{Stage: StageSeed})
	m.mu.Unlock()
	return id, nil
}

// CreateDuck spawns a duck organism with its Wood body cell at (x,y) and
// attaches its DuckState component (facing right by default).
func (m *Manager) CreateDuck(x, y int) (ID, error) {
	id, err := m.spawn(KindDuck, x, y, material.Wood)
	if err != nil {
		return 0, err
	}
	m.mu.Lock()
	m.duckState.Add(m.byID[id], &DuckState{Facing: 1})
	m.mu.Unlock()
	return id, nil
}

// TreeStateOf returns a pointer to id's TreeState component for in-place
// mutation by the brain command processor. Panics if id is not a tree.
func (m *Manager) TreeStateOf(id ID) *TreeState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.treeState.Get(m.byID[id])
}

// DuckStateOf returns a pointer to id's DuckState component for in-place
// mutation. Panics if id is not a duck.
func (m *Manager) DuckStateOf(id ID) *DuckState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duckState.Get(m.byID[id])
}

// RemoveFromWorld clears every owned cell to Air and destroys the
// organism, purging the reverse map.
func (m *Manager) RemoveFromWorld(id ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.byID[id]
	if !ok {
		return fmt.Errorf("remove(%d): %w", id, ErrUnknownOrganism)
	}
	cells := m.cells.Get(e)
	for pos := range cells.Set {
		_ = m.grid.ClearCell(pos.X, pos.Y)
		delete(m.byCoord, pos)
	}
	m.mapper.Remove(e)
	delete(m.byID, id)
	return nil
}

// AddCellToOrganism inserts pos into id's cell set and the reverse map.
func (m *Manager) AddCellToOrganism(id ID, pos grid.Coord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.byID[id]
	if !ok {
		return fmt.Errorf("add_cell(%d): %w", id, ErrUnknownOrganism)
	}
	m.cells.Get(e).Set[pos] = struct{}{}
	m.byCoord[pos] = id
	return nil
}

// RemoveCells removes positions from id's cell set and the reverse map.
func (m *Manager) RemoveCells(id ID, positions []grid.Coord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.byID[id]
	if !ok {
		return fmt.Errorf("remove_cells(%d): %w", id, ErrUnknownOrganism)
	}
	cells := m.cells.Get(e)
	for _, pos := range positions {
		delete(cells.Set, pos)
		delete(m.byCoord, pos)
	}
	return nil
}

// TransferEvent is a {from,to,organism_id} move reported by the physics
// stepper when a cell's material relocates.
type TransferEvent struct {
	From, To grid.Coord
	ID       ID
}

// OnTransfer implements physics.TransferListener: it looks up which
// organism (if any) owned `from` and applies the full transactional update
// (cell set, reverse map, anchor, bone endpoints) in a single critical
// section.
func (m *Manager) OnTransfer(from, to grid.Coord) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, owned := m.byCoord[from]
	if !owned {
		return
	}
	e := m.byID[id]
	cells := m.cells.Get(e)
	delete(cells.Set, from)
	cells.Set[to] = struct{}{}
	delete(m.byCoord, from)
	m.byCoord[to] = id

	meta := m.meta.Get(e)
	if meta.Anchor == from {
		meta.Anchor = to
	}

	bones := m.bones.Get(e)
	for i := range bones.List {
		if bones.List[i].A == from {
			bones.List[i].A = to
		}
		if bones.List[i].B == from {
			bones.List[i].B = to
		}
	}
}

// OwnerOf returns the organism owning pos, if any.
func (m *Manager) OwnerOf(pos grid.Coord) (ID, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byCoord[pos]
	return id, ok
}

// AddBone appends a bone connecting two cells of organism id, taking
// rest_distance from the cells' Euclidean center distance and stiffness,
// hinge and rotational damping from the caller.
func (m *Manager) AddBone(id ID, a, b grid.Coord, stiffness float32, hinge HingeEnd, rotDamp float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.byID[id]
	if !ok {
		return fmt.Errorf("add_bone(%d): %w", id, ErrUnknownOrganism)
	}
	rest := float32(math.Hypot(float64(b.X-a.X), float64(b.Y-a.Y)))
	bones := m.bones.Get(e)
	bones.List = append(bones.List, Bone{
		A: a, B: b, RestDistance: rest, Stiffness: stiffness,
		Hinge: hinge, RotationalDamping: rotDamp,
	})
	return nil
}

// ApplyForces implements physics.ForceSource: it runs the bone-force pass
// for every live organism, adding equal
// and opposite spring+damping forces to each bone's endpoint cells.
func (m *Manager) ApplyForces(g *grid.Grid, dt float32) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range m.byID {
		bones := m.bones.Get(e)
		for _, bone := range bones.List {
			m.applyBone(g, bone)
		}
	}
}

func worldPos(c grid.Cell, coord grid.Coord) (float32, float32) {
	return float32(coord.X) + 0.5 + c.ComX*0.5, float32(coord.Y) + 0.5 + c.ComY*0.5
}

func (m *Manager) applyBone(g *grid.Grid, bone Bone) {
	ca, err := g.AtRef(bone.A.X, bone.A.Y)
	if err != nil {
		return
	}
	cb, err := g.AtRef(bone.B.X, bone.B.Y)
	if err != nil {
		return
	}
	ax, ay := worldPos(*ca, bone.A)
	bx, by := worldPos(*cb, bone.B)
	dx, dy := bx-ax, by-ay
	dist := float32(math.Hypot(float64(dx), float64(dy)))
	if dist < 1e-6 {
		return
	}
	dirX, dirY := dx/dist, dy/dist
	errMag := dist - bone.RestDistance
	springMag := bone.Stiffness * errMag

	relVelX, relVelY := cb.VelX-ca.VelX, cb.VelY-ca.VelY
	along := relVelX*dirX + relVelY*dirY
	dampingMag := bone.Stiffness * along

	total := springMag + dampingMag
	if total > m.boneSafety {
		total = m.boneSafety
	} else if total < -m.boneSafety {
		total = -m.boneSafety
	}

	fx, fy := total*dirX, total*dirY

	switch bone.Hinge {
	case HingeNone:
		ca.PendingForceX += fx
		ca.PendingForceY += fy
		cb.PendingForceX -= fx
		cb.PendingForceY -= fy
	case HingeA:
		// A is the pivot: only B receives rotational damping, tangent to
		// the bone.
		tx, ty := -dirY, dirX
		tangentVel := cb.VelX*tx + cb.VelY*ty
		damp := bone.RotationalDamping * tangentVel
		cb.PendingForceX -= damp * tx
		cb.PendingForceY -= damp * ty
	case HingeB:
		tx, ty := -dirY, dirX
		tangentVel := ca.VelX*tx + ca.VelY*ty
		damp := bone.RotationalDamping * tangentVel
		ca.PendingForceX -= damp * tx
		ca.PendingForceY -= damp * ty
	}

	g.AddDebugForce(bone.A.X, bone.A.Y, fx, fy)
	g.AddDebugForce(bone.B.X, bone.B.Y, -fx, -fy)
}

// ForEachOrganism iterates every live organism. When deterministic is true
// (required by the evolution loop.4), iteration order is by
// ascending ID; otherwise order is unspecified (ark map iteration order).
func (m *Manager) ForEachOrganism(deterministic bool, fn func(id ID, meta *Meta)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !deterministic {
		for id, e := range m.byID {
			fn(id, m.meta.Get(e))
		}
		return
	}

	ids := make([]ID, 0, len(m.byID))
	for id := range m.byID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		fn(id, m.meta.Get(m.byID[id]))
	}
}

// Count returns the number of live organisms.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

// Get returns a copy of organism id's metadata.
func (m *Manager) Get(id ID) (Meta, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.byID[id]
	if !ok {
		return Meta{}, false
	}
	return *m.meta.Get(e), true
}

// CellsOf returns a copy of the coordinate set owned by id.
func (m *Manager) CellsOf(id ID) (map[grid.Coord]struct{}, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.byID[id]
	if !ok {
		return nil, false
	}
	cp := make(map[grid.Coord]struct{}, len(m.cells.Get(e).Set))
	for k := range m.cells.Get(e).Set {
		cp[k] = struct{}{}
	}
	return cp, true
}

// CheckInvariants verifies the bidirectional cell<->organism map
// invariant: every cell in every organism's set must map back to that
// organism, and vice versa. Returns an error describing the first
// violation found; callers treat this as a fatal assertion.
func (m *Manager) CheckInvariants() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, e := range m.byID {
		for pos := range m.cells.Get(e).Set {
			if owner, ok := m.byCoord[pos]; !ok || owner != id {
				return fmt.Errorf("organism invariant violated: cell %v claimed by organism %d but reverse map says %v (ok=%v)", pos, id, owner, ok)
			}
		}
	}
	for pos, id := range m.byCoord {
		e, ok := m.byID[id]
		if !ok {
			return fmt.Errorf("organism invariant violated: reverse map cell %v points to unknown organism %d", pos, id)
		}
		if _, in := m.cells.Get(e).Set[pos]; !in {
			return fmt.Errorf("organism invariant violated: reverse map cell %v -> organism %d, but organism does not own it", pos, id)
		}
	}
	return nil
}
