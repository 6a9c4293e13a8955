// Package main provides a standalone CLI for running one generational
// evolution session outside the server — useful for offline genome
// training and benchmarking the genome repository, grounded on
// cmd/optimize/main.go's CLI-flags + CSV-progress-log + best-result-save
// idiom.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"path/filepath"
	"time"

	"github.com/aortez/dirtsim/brain"
	"github.com/aortez/dirtsim/config"
	"github.com/aortez/dirtsim/evolution"
	"github.com/aortez/dirtsim/genome"
	"github.com/aortez/dirtsim/telemetry"
)

func main() {
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	scenarioName := flag.String("scenario", "TreeGermination", "Scenario to train in")
	organismType := flag.String("organism", "Tree", "Organism type under evolution (Tree|Duck)")
	brainKind := flag.String("brain-kind", "Neural", "Brain kind to seed the population with")
	brainVariant := flag.String("brain-variant", "NeuralNet", "Registered brain variant")
	populationSize := flag.Int("population", 0, "Population size (0 = config default)")
	maxGenerations := flag.Int("generations", 0, "Max generations (0 = config default)")
	outputDir := flag.String("output", "", "Output directory for progress.csv (empty = no CSV)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	benchGenomes := flag.Int("bench-genomes", 0, "Instead of training, benchmark N stores, N gets and one list against the genome repository and exit")
	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		log.Fatalf("evolve: load config: %v", err)
	}
	cfg := config.Cfg()

	repo := genome.NewRepository()

	if *benchGenomes > 0 {
		runGenomeBenchmark(repo, *benchGenomes)
		return
	}

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(rngSeed))

	evoCfg := cfg.Evolution
	if *populationSize > 0 {
		evoCfg.PopulationSize = *populationSize
	}
	if *maxGenerations > 0 {
		evoCfg.MaxGenerations = *maxGenerations
	}

	spec := evolution.TrainingSpec{
		ScenarioName: *scenarioName,
		OrganismType: brain.OrganismType(*organismType),
		Population: []evolution.PopulationSpec{
			{BrainKind: brain.BrainKind(*brainKind), BrainVariant: *brainVariant, Count: evoCfg.PopulationSize, RandomCount: evoCfg.PopulationSize},
		},
	}

	engine := evolution.NewEngine(repo)
	if *outputDir != "" {
		out, err := telemetry.NewOutputManager(*outputDir)
		if err != nil {
			log.Fatalf("evolve: open output dir: %v", err)
		}
		defer out.Close()
		engine.Output = out
	}

	start := time.Now()
	result, err := engine.Run(spec, evoCfg, cfg.Mutation, rng, func(ev evolution.ProgressEvent) {
		if ev.CurrentEval == 1 || ev.Generation == evoCfg.MaxGenerations-1 {
			fmt.Printf("gen %d/%d eval %d best=%.4f avg=%.4f elapsed=%s\n",
				ev.Generation+1, evoCfg.MaxGenerations, ev.CurrentEval, ev.BestFitnessAllTime, ev.AverageFitness, time.Since(start).Round(time.Second))
		}
	})
	if err != nil {
		log.Fatalf("evolve: run: %v", err)
	}

	fmt.Printf("training complete: %d candidates ready\n", len(result.Candidates))
	for _, c := range result.Candidates {
		fmt.Printf("  rank %d: %s fitness=%.4f\n", c.Rank, c.Metadata.Name, c.Metadata.Fitness)
	}

	if len(result.Candidates) > 0 {
		ids := make([]genome.ID, 0, 3)
		for i, c := range result.Candidates {
			if i >= 3 {
				break
			}
			ids = append(ids, c.ID)
		}
		saved := result.Save(repo, ids)
		fmt.Printf("saved %d top candidates to the in-process repository\n", len(saved))
	}

	if *outputDir != "" {
		if err := cfg.WriteYAML(filepath.Join(*outputDir, "config_used.yaml")); err != nil {
			log.Printf("evolve: write config snapshot: %v", err)
		}
	}
}

// runGenomeBenchmark times n stores, n gets and one list against a fresh
// repository, the -bench-genomes diagnostic mentioned alongside the CSV
// progress log: a quick sanity check that repository operations stay cheap
// as entry count grows, without spinning up a training run.
func runGenomeBenchmark(repo *genome.Repository, n int) {
	rng := rand.New(rand.NewSource(1))
	weights := make([]float32, 256)
	for i := range weights {
		weights[i] = rng.Float32()
	}

	start := time.Now()
	ids := make([]genome.ID, n)
	for i := 0; i < n; i++ {
		ids[i] = repo.Store(append([]float32(nil), weights...), genome.Metadata{Name: fmt.Sprintf("bench_%d", i)})
	}
	storeElapsed := time.Since(start)

	start = time.Now()
	for _, id := range ids {
		if _, err := repo.Get(id); err != nil {
			log.Fatalf("evolve: bench-genomes: unexpected miss for %s: %v", id, err)
		}
	}
	getElapsed := time.Since(start)

	start = time.Now()
	entries := repo.List()
	listElapsed := time.Since(start)

	fmt.Printf("bench-genomes n=%d store=%s (%s/op) get=%s (%s/op) list=%s entries=%d\n",
		n, storeElapsed, storeElapsed/time.Duration(n), getElapsed, getElapsed/time.Duration(n), listElapsed, len(entries))
}
