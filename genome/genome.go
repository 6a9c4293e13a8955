// Package genome implements the content-addressed genome store: weight
// vectors keyed by UUID, plus descriptive metadata, a single lock guarding
// every operation, and a "best" pin.
// Grounded on the telemetry/halloffame.go (sorted-insert-by-
// fitness, JSON round-trip) generalized from a per-archetype ring buffer
// to an unbounded content-addressed map.
package genome

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// ErrMissingGenome is returned when an operation references an id with no
// stored genome.
var ErrMissingGenome = errors.New("missing genome")

// ID is a genome's content-addressed handle.
type ID = uuid.UUID

// Metadata is a genome's descriptive attribute set.
type Metadata struct {
	Name               string
	Fitness            float64
	RobustFitness      float64
	RobustEvalCount    int
	RobustSamples      []float64
	Generation         int
	CreatedTimestamp   int64
	ScenarioID         string
	Notes              string
	OrganismType       string
	BrainKind          string
	BrainVariant       string
	TrainingSessionID  string
}

// Genome is a weight vector plus its metadata.
type Genome struct {
	Weights  []float32
	Metadata Metadata
}

// Entry pairs an ID with its genome, returned by List.
type Entry struct {
	ID     ID
	Genome Genome
}

// Repository is the in-memory content-addressed genome store. All
// operations take repo.mu for their duration: a single lock held for the
// duration of each call.
type Repository struct {
	mu      sync.Mutex
	entries map[ID]Genome
	order   []ID // insertion order, newest last
	best    ID
	hasBest bool
}

// NewRepository creates an empty genome repository.
func NewRepository() *Repository {
	return &Repository{entries: make(map[ID]Genome)}
}

// Store saves a genome under a fresh UUID and returns it.
func (r *Repository) Store(weights []float32, meta Metadata) ID {
	id := uuid.New()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[id] = Genome{Weights: append([]float32(nil), weights...), Metadata: meta}
	r.order = append(r.order, id)
	return id
}

// Set stores (or overwrites) a genome under an explicit id, reporting
// whether an existing entry was replaced — the GenomeSet{success,
// overwritten} response shape.
func (r *Repository) Set(id ID, weights []float32, meta Metadata) (overwritten bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, overwritten = r.entries[id]
	r.entries[id] = Genome{Weights: append([]float32(nil), weights...), Metadata: meta}
	if !overwritten {
		r.order = append(r.order, id)
	}
	return overwritten
}

// Get retrieves a genome by id.
func (r *Repository) Get(id ID) (Genome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.entries[id]
	if !ok {
		return Genome{}, fmt.Errorf("genome %s: %w", id, ErrMissingGenome)
	}
	return g, nil
}

// List returns every stored genome, newest first.
func (r *Repository) List() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, 0, len(r.order))
	for i := len(r.order) - 1; i >= 0; i-- {
		id := r.order[i]
		out = append(out, Entry{ID: id, Genome: r.entries[id]})
	}
	return out
}

// Delete removes a genome, clearing the best pin if it referenced id.
func (r *Repository) Delete(id ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[id]; !ok {
		return fmt.Errorf("genome %s: %w", id, ErrMissingGenome)
	}
	delete(r.entries, id)
	for i, o := range r.order {
		if o == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	if r.hasBest && r.best == id {
		r.hasBest = false
	}
	return nil
}

// MarkAsBest pins id as the best-known genome.
func (r *Repository) MarkAsBest(id ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[id]; !ok {
		return fmt.Errorf("genome %s: %w", id, ErrMissingGenome)
	}
	r.best, r.hasBest = id, true
	return nil
}

// GetBest returns the pinned best genome, if one has been marked.
func (r *Repository) GetBest() (ID, Genome, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.hasBest {
		return ID{}, Genome{}, false
	}
	return r.best, r.entries[r.best], true
}

// UpdateMetadata replaces the metadata of an existing genome in place
// (append-or-replace semantics, e.g. robust-fitness re-sampling).
func (r *Repository) UpdateMetadata(id ID, meta Metadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.entries[id]
	if !ok {
		return fmt.Errorf("genome %s: %w", id, ErrMissingGenome)
	}
	g.Metadata = meta
	r.entries[id] = g
	return nil
}

// Count returns the number of stored genomes.
func (r *Repository) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// SortedByFitnessDescending returns every stored genome ordered by fitness,
// highest first, used by training-result packaging.
func (r *Repository) SortedByFitnessDescending() []Entry {
	entries := r.List()
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Genome.Metadata.Fitness > entries[j].Genome.Metadata.Fitness
	})
	return entries
}
