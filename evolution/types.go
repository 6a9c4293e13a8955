// Package evolution implements the generational genetic algorithm: private
// per-individual evaluation worlds, a closed per-organism-kind fitness
// table, tournament selection, Gaussian mutation, elitist replacement, and
// the unsaved-training-result save/discard flow. Grounded on
// original_source/apps/src/core/organisms/evolution (FitnessResult.h,
// Mutation.cpp, GenomeMetadata.h, TrainingSpec.h — the authoritative
// algorithm and metadata shapes) and cmd/optimize/main.go's CLI-flags +
// CSV-progress-log + best-result-save idiom for the reporting shape.
package evolution

import (
	"github.com/aortez/dirtsim/brain"
	"github.com/aortez/dirtsim/genome"
)

// PopulationSpec describes one brain kind/variant's share of a training
// population: how many individuals to seed from genomes already in the
// repository, how many to seed fresh/random, carried over from
// TrainingSpec.h's PopulationSpec.
type PopulationSpec struct {
	BrainKind    brain.BrainKind
	BrainVariant string
	Count        int
	SeedGenomes  []genome.ID
	RandomCount  int
}

// TrainingSpec is a training run's full specification: which scenario to
// evaluate in, which organism type is under evolution, and the population
// composition, carried over from TrainingSpec.h.
type TrainingSpec struct {
	ScenarioName string
	OrganismType brain.OrganismType
	Population   []PopulationSpec
}

// Individual is one population member: a brain identity plus (for
// genome-carrying brains) its weight vector, and the fitness/raw metrics
// from its most recent evaluation.
type Individual struct {
	BrainKind      brain.BrainKind
	BrainVariant   string
	RequiresGenome bool
	AllowsMutation bool
	Genome         []float32

	Fitness   float64
	Lifespan  float64
	MaxEnergy float64
	Distance  float64
}

// clone returns a copy of ind with its own genome backing array, so
// mutation and elitist-replacement bookkeeping never alias a parent's
// weights.
func (ind Individual) clone() Individual {
	out := ind
	if ind.Genome != nil {
		out.Genome = append([]float32(nil), ind.Genome...)
	}
	return out
}

// hasGenome reports whether this individual carries weights worth storing
// in the genome repository.
func (ind Individual) hasGenome() bool {
	return ind.Genome != nil
}

// FitnessResult holds the raw per-individual metrics gathered during one
// evaluation, mirroring FitnessResult.h's lifespan/maxEnergy pair,
// generalized with a Distance field for the duck/goose fitness variant
// (spec.md §4.9: "Distance-based variants for ducks/geese are permitted
// but MUST be defined in the same closed table keyed by organism kind").
type FitnessResult struct {
	Lifespan  float64
	MaxEnergy float64
	Distance  float64
}

// ProgressEvent is the server-pushed EvolutionProgress payload, broadcast
// once per individual evaluation (spec.md §4.9 bullet 5).
type ProgressEvent struct {
	Generation           int
	CurrentEval          int
	BestFitnessThisGen   float64
	BestFitnessAllTime   float64
	AverageFitness       float64
	TotalTrainingSeconds float64
	CurrentSimTime       float64
	CumulativeSimTime    float64
	SpeedupFactor        float64
	EtaSeconds           float64
	BestGenomeID         genome.ID
	HasBestGenome        bool
}

// ProgressFunc receives one ProgressEvent per individual evaluation; nil is
// a valid no-op callback.
type ProgressFunc func(ProgressEvent)
