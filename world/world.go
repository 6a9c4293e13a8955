// Package world composes the grid, organism manager, physics stepper, and
// light calculator into the single instance a tick thread drives: the
// World is owned by its state, and no other state may hold a reference.
// Modeled on game.Game (main.go), which likewise owns one *ecs.World plus
// its systems and steps them in a fixed order each frame.
package world

import (
	"fmt"
	"math/rand"

	"github.com/aortez/dirtsim/brain"
	"github.com/aortez/dirtsim/config"
	"github.com/aortez/dirtsim/grid"
	"github.com/aortez/dirtsim/light"
	"github.com/aortez/dirtsim/organism"
	"github.com/aortez/dirtsim/physics"
)

// FixedDT is the ~16.67ms fixed physics timestep every tick thread (the
// SimRunning world and every evolution evaluation world) advances by.
const FixedDT float32 = 1.0 / 60.0

// Photosynthesis/water-absorption rates, grounded on the
// systems/photosynthesis.go baseGain=0.3/tick-in-full-light formula,
// generalized to scale with the number of owned Leaf cells (light is still
// sampled once per organism).
const (
	leafEnergyPerSecond = 0.3
	rootWaterPerSecond  = 0.5
	treeBoneStiffness   = 8.0
)

// ForceHook lets the active scenario contribute forces during the
// force-gathering phase of the physics tick, so scenario force additions
// land in the same step as bone and brain forces before transfer runs.
type ForceHook func(w *World, dt float32)

// World is the composed simulation instance. Evolution constructs one per
// individual evaluation; server owns exactly one for SimRunning.
type World struct {
	Grid      *grid.Grid
	Organisms *organism.Manager
	Physics   *physics.Stepper
	Light     *light.Grid
	LightCalc light.Calculator
	Registry  *brain.Registry
	RNG       *rand.Rand

	// StaticLights are scenario-installed fixtures (PointLight/SpotLight/
	// RotatingLight); Lights is StaticLights plus per-tick dynamic sources
	// (duck handheld lights), rebuilt every tick.
	StaticLights []light.Light
	Lights       []light.Light

	ElapsedSeconds float64
	TickCount      uint64

	thresholds    organism.TreeStageThresholds
	brains        map[organism.ID]interface{}
	scenarioForce ForceHook

	// duckMoveForce caches each duck's walk-force magnitude from this tick's
	// force-gathering phase (duckForceSource, run inside Physics.Step) for
	// the post-physics sparkle-intensity pass in updateDuck.
	duckMoveForce map[organism.ID]float32
}

// New allocates a world of the given size with an empty organism manager,
// wiring the organism manager into the physics stepper as both a force
// source (bone forces) and transfer listener (cell<->organism bookkeeping).
func New(width, height int, rng *rand.Rand) *World {
	w := &World{
		Registry:   brain.NewRegistry(),
		RNG:        rng,
		brains:     make(map[organism.ID]interface{}),
		thresholds: organism.DefaultTreeStageThresholds(),
	}
	w.Resize(width, height)
	return w
}

type scenarioForceSource struct{ w *World }

func (s scenarioForceSource) ApplyForces(g *grid.Grid, dt float32) {
	if s.w.scenarioForce != nil {
		s.w.scenarioForce(s.w, dt)
	}
}

// SetScenarioForceHook installs the active scenario's per-tick force
// contribution.
func (w *World) SetScenarioForceHook(fn ForceHook) { w.scenarioForce = fn }

// duckForceSource runs duck ground-detection and brain decisions inside the
// physics stepper's force-gathering phase (step 2 of spec.md §4.3), so the
// walk force and jump impulse land in pending_force before integrate (step
// 5) consumes it this same tick, instead of the next tick's clear erasing
// them first.
type duckForceSource struct{ w *World }

func (s duckForceSource) ApplyForces(g *grid.Grid, dt float32) {
	s.w.applyDuckForces(g, dt)
}

// AddForceSource registers an additional physics.ForceSource (e.g. the
// server package's finger-drag force distributor) in the stepper's
// force-gathering phase, alongside the organism bone-force pass and the
// scenario hook. Resize rebuilds Physics and drops any sources added this
// way, matching the teardown-on-resize lifecycle.
func (w *World) AddForceSource(src physics.ForceSource) {
	w.Physics.Sources = append(w.Physics.Sources, src)
}

// SetTreeStageThresholds overrides the default stage-advancement
// thresholds; scenarios may tune these per their own setup.
func (w *World) SetTreeStageThresholds(th organism.TreeStageThresholds) { w.thresholds = th }

// Resize tears down the grid and organism state and reallocates at the new
// dimensions, matching the teardown-resize-setup sequence a scenario switch
// performs.
func (w *World) Resize(width, height int) {
	w.Grid = grid.New(width, height)
	w.Organisms = organism.NewManager(w.Grid, 50.0)
	w.Light = light.New(width, height)
	w.StaticLights = nil
	w.Lights = nil
	w.brains = make(map[organism.ID]interface{})
	w.duckMoveForce = make(map[organism.ID]float32)
	w.scenarioForce = nil
	w.Physics = &physics.Stepper{
		Sources:   []physics.ForceSource{w.Organisms, scenarioForceSource{w}, duckForceSource{w}},
		Listeners: []physics.TransferListener{w.Organisms},
	}
}

// BrainOf returns the decider attached to organism id, if any.
func (w *World) BrainOf(id organism.ID) (interface{}, bool) {
	b, ok := w.brains[id]
	return b, ok
}

// SpawnTree creates a tree at (x,y) and attaches a decider for the named
// brain variant (falling back to the registry default when variant is
// empty), optionally seeded from genome.
func (w *World) SpawnTree(x, y int, variant string, genome []float32) (organism.ID, error) {
	id, err := w.Organisms.CreateTree(x, y)
	if err != nil {
		return 0, err
	}
	decider, err := w.spawnBrain(brain.OrganismTree, variant, genome)
	if err != nil {
		_ = w.Organisms.RemoveFromWorld(id)
		return 0, err
	}
	w.brains[id] = decider
	return id, nil
}

// SpawnDuck creates a duck at (x,y) and attaches a decider for the named
// brain variant. genome is passed to the variant's Spawn, but no registered
// duck variant uses it: DuckBrain2 always builds a fresh random NEAT genome
// (see brain.Registry).
func (w *World) SpawnDuck(x, y int, variant string, genome []float32) (organism.ID, error) {
	id, err := w.Organisms.CreateDuck(x, y)
	if err != nil {
		return 0, err
	}
	decider, err := w.spawnBrain(brain.OrganismDuck, variant, genome)
	if err != nil {
		_ = w.Organisms.RemoveFromWorld(id)
		return 0, err
	}
	w.brains[id] = decider
	return id, nil
}

func (w *World) spawnBrain(ot brain.OrganismType, variant string, genome []float32) (interface{}, error) {
	if variant == "" {
		return w.Registry.CreateDefault(ot, w.RNG)
	}
	entry, ok := w.Registry.FindByVariant(ot, variant)
	if !ok {
		return nil, fmt.Errorf("world: no registered brain variant %q for %s", variant, ot)
	}
	return entry.Spawn(w.RNG, genome)
}

// RemoveOrganism removes id from both the organism manager and the brain
// table.
func (w *World) RemoveOrganism(id organism.ID) error {
	delete(w.brains, id)
	return w.Organisms.RemoveFromWorld(id)
}

// CheckInvariants delegates to the organism manager's cell<->organism
// invariant check.
func (w *World) CheckInvariants() error {
	return w.Organisms.CheckInvariants()
}

// Tick advances the world by one fixed timestep: physics (which runs the
// scenario force hook, organism bone forces, and duck brain decisions
// before transfer), tree command processing and duck post-physics effects
// (sparkles, handheld light), then the light pass.
func (w *World) Tick(dt float32) {
	w.Physics.Step(w.Grid, dt)

	w.Lights = append(w.Lights[:0], w.StaticLights...)
	w.updateOrganisms(dt)

	w.LightCalc.Calculate(w.Grid, w.Light, config.Cfg().Light, w.Lights)

	w.ElapsedSeconds += float64(dt)
	w.TickCount++
}

func (w *World) updateOrganisms(dt float32) {
	var treeIDs, duckIDs []organism.ID
	w.Organisms.ForEachOrganism(true, func(id organism.ID, meta *organism.Meta) {
		meta.AgeSeconds += float64(dt)
		switch meta.Kind {
		case organism.KindTree:
			treeIDs = append(treeIDs, id)
		case organism.KindDuck:
			duckIDs = append(duckIDs, id)
		}
	})
	for _, id := range treeIDs {
		w.updateTree(id, dt)
	}
	for _, id := range duckIDs {
		w.updateDuck(id, dt)
	}
}

func signOf(v float32) float32 {
	if v < 0 {
		return -1
	}
	return 1
}

func absf(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
