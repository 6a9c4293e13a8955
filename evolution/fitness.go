package evolution

import (
	"github.com/aortez/dirtsim/brain"
	"github.com/aortez/dirtsim/config"
)

// ComputeFitness evaluates r under the closed, organism-kind-keyed fitness
// table (spec.md §4.9): trees score on survival-scaled-by-peak-energy,
// exactly FitnessResult::computeFitness from the original source; ducks and
// geese score on survival-scaled-by-distance-traveled, the permitted
// distance-based variant, using the same multiplicative shape and the same
// EnergyReference config knob repurposed as the distance reference (there
// is no separate config surface for it — spec.md names only
// energy_reference in EvolutionConfig).
func ComputeFitness(organismType brain.OrganismType, r FitnessResult, cfg config.EvolutionConfig) float64 {
	maxTime := cfg.MaxSimulationTimeSeconds
	if maxTime <= 0 {
		return 0
	}
	lifespanScore := r.Lifespan / maxTime
	switch organismType {
	case brain.OrganismDuck:
		return lifespanScore * (1 + r.Distance/cfg.EnergyReference)
	default: // Tree, and any future organism type, default to the energy-based formula.
		return lifespanScore * (1 + r.MaxEnergy/cfg.EnergyReference)
	}
}
