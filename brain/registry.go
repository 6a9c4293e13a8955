package brain

import (
	"fmt"
	"math/rand"

	"github.com/aortez/dirtsim/organism"
)

// OrganismType and BrainKind key the population registry. Tree brains are
// all BrainKindNeural (fixed-topology) except the RuleBased variant; duck
// brains span several kinds.
type OrganismType string

// BrainKind groups registry entries by the capability they expose.
type BrainKind string

const (
	OrganismTree OrganismType = "Tree"
	OrganismDuck OrganismType = "Duck"

	BrainKindNeural    BrainKind = "Neural"
	BrainKindRuleBased BrainKind = "RuleBased"
	BrainKindRandom    BrainKind = "Random"
	BrainKindScripted  BrainKind = "Scripted"
	BrainKindPlayer    BrainKind = "Player"
)

// RegistryEntry is what the closed (organism_type, brain_kind, brain_variant)
// -> factory map yields. Spawn builds a fresh decider,
// optionally seeded from a genome when RequiresGenome is true.
type RegistryEntry struct {
	OrganismType   OrganismType
	BrainKind      BrainKind
	BrainVariant   string
	RequiresGenome bool
	AllowsMutation bool
	Spawn          func(rng *rand.Rand, genome []float32) (interface{}, error)
}

// key identifies one registered brain by its three-part name.
type key struct {
	organism OrganismType
	kind     BrainKind
	variant  string
}

// Registry is the closed name -> factory map named TrainingBrainRegistry,
// modeled after a registerBrain()/find()/createDefault() factory map.
type Registry struct {
	entries map[key]RegistryEntry
}

// NewRegistry builds the registry with every brain variant pre-registered:
// tree NeuralNet + RuleBased, duck Random + WallBouncing + Player +
// DuckBrain2.
func NewRegistry() *Registry {
	r := &Registry{entries: make(map[key]RegistryEntry)}

	r.register(RegistryEntry{
		OrganismType: OrganismTree, BrainKind: BrainKindNeural, BrainVariant: "NeuralNet",
		RequiresGenome: true, AllowsMutation: true,
		Spawn: func(rng *rand.Rand, genome []float32) (interface{}, error) {
			if genome == nil {
				return NewTreeBrain(rng), nil
			}
			return FromGenome(genome)
		},
	})
	r.register(RegistryEntry{
		OrganismType: OrganismTree, BrainKind: BrainKindRuleBased, BrainVariant: "RuleBased",
		RequiresGenome: false, AllowsMutation: false,
		Spawn: func(rng *rand.Rand, genome []float32) (interface{}, error) {
			return &RuleBasedTreeBrain{}, nil
		},
	})

	r.register(RegistryEntry{
		OrganismType: OrganismDuck, BrainKind: BrainKindRandom, BrainVariant: "Random",
		RequiresGenome: false, AllowsMutation: false,
		Spawn: func(rng *rand.Rand, genome []float32) (interface{}, error) {
			return NewRandomDuckBrain(rng), nil
		},
	})
	r.register(RegistryEntry{
		OrganismType: OrganismDuck, BrainKind: BrainKindScripted, BrainVariant: "WallBouncing",
		RequiresGenome: false, AllowsMutation: false,
		Spawn: func(rng *rand.Rand, genome []float32) (interface{}, error) {
			return NewWallBouncingBrain(), nil
		},
	})
	r.register(RegistryEntry{
		OrganismType: OrganismDuck, BrainKind: BrainKindPlayer, BrainVariant: "Player",
		RequiresGenome: false, AllowsMutation: false,
		Spawn: func(rng *rand.Rand, genome []float32) (interface{}, error) {
			return &PlayerDuckBrain{}, nil
		},
	})
	r.register(RegistryEntry{
		OrganismType: OrganismDuck, BrainKind: BrainKindNeural, BrainVariant: "DuckBrain2",
		RequiresGenome: false, AllowsMutation: true,
		Spawn: func(rng *rand.Rand, genome []float32) (interface{}, error) {
			g := NewDuckBrain2Genome(rng.Int(), rng)
			return NewDuckBrain2(g)
		},
	})

	return r
}

func (r *Registry) register(e RegistryEntry) {
	r.entries[key{e.OrganismType, e.BrainKind, e.BrainVariant}] = e
}

// Find looks up a registered brain by its three-part name.
func (r *Registry) Find(organismType OrganismType, kind BrainKind, variant string) (RegistryEntry, bool) {
	e, ok := r.entries[key{organismType, kind, variant}]
	return e, ok
}

// FindByVariant looks up a registered brain by organism type and variant
// name alone, for callers (scenario setup, evolution population seeding)
// that carry only a variant string and don't care which BrainKind serves it.
func (r *Registry) FindByVariant(organismType OrganismType, variant string) (RegistryEntry, bool) {
	for k, e := range r.entries {
		if k.organism == organismType && k.variant == variant {
			return e, true
		}
	}
	return RegistryEntry{}, false
}

// CreateDefault returns the canonical default brain for an organism type:
// the neural net for trees, the NEAT DuckBrain2 for ducks.
func (r *Registry) CreateDefault(organismType OrganismType, rng *rand.Rand) (interface{}, error) {
	switch organismType {
	case OrganismTree:
		e, _ := r.Find(OrganismTree, BrainKindNeural, "NeuralNet")
		return e.Spawn(rng, nil)
	case OrganismDuck:
		e, _ := r.Find(OrganismDuck, BrainKindNeural, "DuckBrain2")
		return e.Spawn(rng, nil)
	default:
		return nil, fmt.Errorf("brain: no default for organism type %q", organismType)
	}
}

// List returns every registered entry, useful for population construction
// across a mixed-brain training run.
func (r *Registry) List() []RegistryEntry {
	out := make([]RegistryEntry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	return out
}

// compile-time interface checks: the registry only spawns values that
// satisfy the organism package's decision capability for their kind.
var (
	_ TreeDecider = (*TreeBrain)(nil)
	_ TreeDecider = (*RuleBasedTreeBrain)(nil)
	_ DuckDecider = (*RandomDuckBrain)(nil)
	_ DuckDecider = (*WallBouncingBrain)(nil)
	_ DuckDecider = (*PlayerDuckBrain)(nil)
	_ DuckDecider = (*DuckBrain2)(nil)
	_ GenomeCarrier = (*TreeBrain)(nil)

	_ = organism.CmdWait
)
