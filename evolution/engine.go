package evolution

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/aortez/dirtsim/brain"
	"github.com/aortez/dirtsim/config"
	"github.com/aortez/dirtsim/genome"
	"github.com/aortez/dirtsim/grid"
	"github.com/aortez/dirtsim/organism"
	"github.com/aortez/dirtsim/scenario"
	"github.com/aortez/dirtsim/telemetry"
	"github.com/aortez/dirtsim/world"
	"github.com/google/uuid"
)

// Engine owns the closed set of registered scenarios and brains an
// evolution run draws from, plus the repository new bests are pinned into.
// One Engine instance is reused across an EvolutionStart..EvolutionStop
// lifecycle; it holds no per-run state itself.
type Engine struct {
	Registry  *brain.Registry
	Scenarios *scenario.Registry
	Repo      *genome.Repository
	Output    *telemetry.OutputManager
}

// NewEngine builds an engine around a fresh brain/scenario registry pair
// and the given genome repository.
func NewEngine(repo *genome.Repository) *Engine {
	return &Engine{
		Registry:  brain.NewRegistry(),
		Scenarios: scenario.NewRegistry(),
		Repo:      repo,
	}
}

// seedIndividual builds one Individual for a registered brain variant,
// either from an explicit genome or (for genome-carrying brains) a freshly
// spawned random one, read back via brain.GenomeCarrier.
func (e *Engine) seedIndividual(organismType brain.OrganismType, entry brain.RegistryEntry, rng *rand.Rand, weights []float32) (Individual, error) {
	ind := Individual{
		BrainKind:      entry.BrainKind,
		BrainVariant:   entry.BrainVariant,
		RequiresGenome: entry.RequiresGenome,
		AllowsMutation: entry.AllowsMutation,
		Genome:         weights,
	}
	if weights != nil || !entry.AllowsMutation {
		return ind, nil
	}
	decider, err := entry.Spawn(rng, nil)
	if err != nil {
		return Individual{}, fmt.Errorf("evolution: seed %s/%s: %w", entry.OrganismType, entry.BrainVariant, err)
	}
	if carrier, ok := decider.(brain.GenomeCarrier); ok {
		ind.Genome = carrier.GetGenome()
	}
	return ind, nil
}

// seedPopulation builds a TrainingSpec's population: each PopulationSpec's
// seed genomes first, then fresh random individuals up to RandomCount, then
// the remainder of Count padded by cycling clones of what's already built.
func (e *Engine) seedPopulation(spec TrainingSpec, rng *rand.Rand) ([]Individual, error) {
	var pop []Individual
	for _, ps := range spec.Population {
		entry, ok := e.Registry.Find(spec.OrganismType, ps.BrainKind, ps.BrainVariant)
		if !ok {
			return nil, fmt.Errorf("evolution: no registered brain %s/%s/%s", spec.OrganismType, ps.BrainKind, ps.BrainVariant)
		}
		var built []Individual
		for _, id := range ps.SeedGenomes {
			g, err := e.Repo.Get(id)
			if err != nil {
				return nil, fmt.Errorf("evolution: seed genome %s: %w", id, err)
			}
			ind, err := e.seedIndividual(spec.OrganismType, entry, rng, append([]float32(nil), g.Weights...))
			if err != nil {
				return nil, err
			}
			built = append(built, ind)
		}
		for i := 0; i < ps.RandomCount; i++ {
			ind, err := e.seedIndividual(spec.OrganismType, entry, rng, nil)
			if err != nil {
				return nil, err
			}
			built = append(built, ind)
		}
		if len(built) == 0 {
			ind, err := e.seedIndividual(spec.OrganismType, entry, rng, nil)
			if err != nil {
				return nil, err
			}
			built = append(built, ind)
		}
		seeded := len(built)
		for len(built) < ps.Count {
			built = append(built, built[len(built)%seeded].clone())
		}
		pop = append(pop, built[:ps.Count]...)
	}
	return pop, nil
}

// cellIsSafe reports whether (x,y) is Air and unowned.
func cellIsSafe(w *world.World, x, y int) bool {
	c, err := w.Grid.At(x, y)
	if err != nil || !c.Empty() {
		return false
	}
	_, owned := w.Organisms.OwnerOf(grid.Coord{X: x, Y: y})
	return !owned
}

// findSafeCell resolves Open-Question-adjacent spawn placement: center if
// Air & unowned, else the nearest Air & unowned cell in an expanding scan,
// rows above the center checked before rows below at each radius (spec.md
// §4.9). Panics (the spec's "hard abort" for a fatal invariant violation)
// if the whole grid is occupied — a scenario authored to leave no room for
// an evaluated organism is a setup bug, not a recoverable runtime error.
func findSafeCell(w *world.World) (int, int) {
	width, height := w.Grid.Width, w.Grid.Height
	cx, cy := width/2, height/2
	if cellIsSafe(w, cx, cy) {
		return cx, cy
	}
	maxRadius := width
	if height > maxRadius {
		maxRadius = height
	}
	for radius := 0; radius <= maxRadius; radius++ {
		if y := cy - radius; y >= 0 {
			for x := 0; x < width; x++ {
				if cellIsSafe(w, x, y) {
					return x, y
				}
			}
		}
		if y := cy + radius; y < height {
			for x := 0; x < width; x++ {
				if cellIsSafe(w, x, y) {
					return x, y
				}
			}
		}
	}
	panic("evolution: no safe spawn cell found in evaluation world")
}

// Evaluate runs one individual in a private, freshly-constructed world
// sized from the scenario's metadata, spawning it at a safe cell and
// advancing ticks at the fixed SimRunning timestep until it dies or
// MaxSimulationTimeSeconds elapses.
func (e *Engine) Evaluate(ind Individual, spec TrainingSpec, evoCfg config.EvolutionConfig, rng *rand.Rand) (FitnessResult, error) {
	w := world.New(1, 1, rng)
	if _, err := scenario.Switch(e.Scenarios, spec.ScenarioName, w); err != nil {
		return FitnessResult{}, err
	}

	x, y := findSafeCell(w)

	var id organism.ID
	var err error
	switch spec.OrganismType {
	case brain.OrganismTree:
		id, err = w.SpawnTree(x, y, ind.BrainVariant, ind.Genome)
	case brain.OrganismDuck:
		id, err = w.SpawnDuck(x, y, ind.BrainVariant, ind.Genome)
	default:
		return FitnessResult{}, fmt.Errorf("evolution: unsupported organism type %q", spec.OrganismType)
	}
	if err != nil {
		return FitnessResult{}, err
	}

	start, _ := w.Organisms.Get(id)
	originX, originY := start.Anchor.X, start.Anchor.Y

	var result FitnessResult
	maxTicks := int(evoCfg.MaxSimulationTimeSeconds / float64(world.FixedDT))
	for tick := 0; tick < maxTicks; tick++ {
		w.Tick(world.FixedDT)
		meta, alive := w.Organisms.Get(id)
		if !alive {
			break
		}
		result.Lifespan = meta.AgeSeconds
		switch spec.OrganismType {
		case brain.OrganismTree:
			if state := w.Organisms.TreeStateOf(id); state != nil && state.TotalEnergy > result.MaxEnergy {
				result.MaxEnergy = state.TotalEnergy
			}
		default:
			d := math.Hypot(float64(meta.Anchor.X-originX), float64(meta.Anchor.Y-originY))
			if d > result.Distance {
				result.Distance = d
			}
		}
	}
	return result, nil
}

// tournamentSelect picks a parent by k uniform samples, argmax by fitness —
// reused directly from telemetry.HallOfFame.Sample's tournament-by-fitness
// shape, generalized from a fixed k=3 hall sample to a configurable
// TournamentSize over the whole population.
func tournamentSelect(pop []Individual, tournamentSize int, rng *rand.Rand) Individual {
	best := pop[rng.Intn(len(pop))]
	for i := 1; i < tournamentSize; i++ {
		candidate := pop[rng.Intn(len(pop))]
		if candidate.Fitness > best.Fitness {
			best = candidate
		}
	}
	return best
}

// Run drives the full generational loop (spec.md §4.9): evaluate every
// individual, track best-this-gen/best-all-time (pinning new bests in the
// repository), produce population_size offspring by tournament selection
// plus mutation, elitist-truncate parents∪offspring back to
// population_size, broadcast progress once per individual evaluation, and
// package the final generation's genome-carrying individuals into an
// UnsavedTrainingResult.
func (e *Engine) Run(spec TrainingSpec, evoCfg config.EvolutionConfig, mutCfg config.MutationConfig, rng *rand.Rand, onProgress ProgressFunc) (*UnsavedTrainingResult, error) {
	population, err := e.seedPopulation(spec, rng)
	if err != nil {
		return nil, err
	}

	trainingSessionID := uuid.New()
	startTime := time.Now()
	cumulativeSimSeconds := 0.0
	bestAllTime := math.Inf(-1)
	var bestGenome []float32
	var bestGenomeID genome.ID
	hasBestGenome := false

	totalEvals := evoCfg.PopulationSize * evoCfg.MaxGenerations
	evalsDone := 0

	for gen := 0; gen < evoCfg.MaxGenerations; gen++ {
		fitnesses := make([]float64, len(population))
		bestThisGen := math.Inf(-1)

		for i := range population {
			result, err := e.Evaluate(population[i], spec, evoCfg, rng)
			if err != nil {
				return nil, err
			}
			population[i].Lifespan = result.Lifespan
			population[i].MaxEnergy = result.MaxEnergy
			population[i].Distance = result.Distance
			population[i].Fitness = ComputeFitness(spec.OrganismType, result, evoCfg)
			fitnesses[i] = population[i].Fitness
			cumulativeSimSeconds += result.Lifespan
			evalsDone++

			if population[i].Fitness > bestThisGen {
				bestThisGen = population[i].Fitness
			}
			if population[i].Fitness > bestAllTime && population[i].hasGenome() {
				bestAllTime = population[i].Fitness
				bestGenome = append([]float32(nil), population[i].Genome...)
				bestGenomeID = e.Repo.Store(bestGenome, genome.Metadata{
					Name:              fmt.Sprintf("best_%s_gen%d", trainingSessionID.String()[:8], gen),
					Fitness:           population[i].Fitness,
					Generation:        gen,
					CreatedTimestamp:  time.Now().Unix(),
					ScenarioID:        spec.ScenarioName,
					OrganismType:      string(spec.OrganismType),
					BrainKind:         string(population[i].BrainKind),
					BrainVariant:      population[i].BrainVariant,
					TrainingSessionID: trainingSessionID.String(),
				})
				_ = e.Repo.MarkAsBest(bestGenomeID)
				hasBestGenome = true
			}

			elapsed := time.Since(startTime).Seconds()
			var speedup, eta float64
			if elapsed > 0 {
				speedup = cumulativeSimSeconds / elapsed
			}
			if evalsDone > 0 && totalEvals > evalsDone {
				perEval := elapsed / float64(evalsDone)
				eta = perEval * float64(totalEvals-evalsDone)
			}
			if onProgress != nil {
				onProgress(ProgressEvent{
					Generation:           gen,
					CurrentEval:          i + 1,
					BestFitnessThisGen:   bestThisGen,
					BestFitnessAllTime:   bestAllTime,
					AverageFitness:       stat.Mean(fitnesses[:i+1], nil),
					TotalTrainingSeconds: elapsed,
					CurrentSimTime:       result.Lifespan,
					CumulativeSimTime:    cumulativeSimSeconds,
					SpeedupFactor:        speedup,
					EtaSeconds:           eta,
					BestGenomeID:         bestGenomeID,
					HasBestGenome:        hasBestGenome,
				})
			}
		}

		if e.Output != nil {
			_ = e.Output.WriteGeneration(telemetry.GenerationRecord{
				Generation:           gen,
				BestFitnessThisGen:   bestThisGen,
				BestFitnessAllTime:   bestAllTime,
				AverageFitness:       stat.Mean(fitnesses, nil),
				TotalTrainingSeconds: time.Since(startTime).Seconds(),
				CumulativeSimSeconds: cumulativeSimSeconds,
				SpeedupFactor:        cumulativeSimSeconds / math.Max(time.Since(startTime).Seconds(), 1e-9),
				BestGenomeID:         bestGenomeID.String(),
			})
		}

		if gen == evoCfg.MaxGenerations-1 {
			break
		}

		offspring := make([]Individual, evoCfg.PopulationSize)
		for i := range offspring {
			parent := tournamentSelect(population, evoCfg.TournamentSize, rng)
			if parent.AllowsMutation && parent.hasGenome() {
				child := parent.clone()
				child.Genome = Mutate(parent.Genome, mutCfg, rng)
				offspring[i] = child
			} else {
				offspring[i] = parent.clone()
			}
		}

		combined := make([]Individual, 0, len(population)+len(offspring))
		combined = append(combined, population...)
		combined = append(combined, offspring...)
		sort.Slice(combined, func(i, j int) bool { return combined[i].Fitness > combined[j].Fitness })
		if len(combined) > evoCfg.PopulationSize {
			combined = combined[:evoCfg.PopulationSize]
		}
		population = combined
	}

	return buildTrainingResult(trainingSessionID, spec, population), nil
}
