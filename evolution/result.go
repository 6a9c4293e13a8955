package evolution

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/aortez/dirtsim/genome"
)

// Candidate is one training-result entry offered to the client for
// save/discard: a provisional genome id (reused as the final genome.ID if
// saved), its rank within the result (1-based, fitness descending), and the
// weights/metadata that would be committed.
type Candidate struct {
	ID       genome.ID
	Rank     int
	Genome   []float32
	Metadata genome.Metadata
}

// UnsavedTrainingResult is the TrainingResultAvailable payload: every
// genome-carrying individual from the final generation, sorted by fitness
// descending, awaiting a client Save or Discard (spec.md §4.9 bullet 6,
// §4.8 Evolution -> UnsavedTrainingResult substate).
type UnsavedTrainingResult struct {
	TrainingSessionID uuid.UUID
	ScenarioID        string
	Candidates        []Candidate
}

// buildTrainingResult packages a generation's genome-carrying individuals
// into auto-named candidates. Individuals without a genome (rule-based,
// scripted, or player brains) contribute no candidate — there is nothing
// to store.
func buildTrainingResult(sessionID uuid.UUID, spec TrainingSpec, population []Individual) *UnsavedTrainingResult {
	withGenomes := make([]Individual, 0, len(population))
	for _, ind := range population {
		if ind.hasGenome() {
			withGenomes = append(withGenomes, ind)
		}
	}
	sort.Slice(withGenomes, func(i, j int) bool { return withGenomes[i].Fitness > withGenomes[j].Fitness })

	short := sessionID.String()[:8]
	candidates := make([]Candidate, len(withGenomes))
	for i, ind := range withGenomes {
		rank := i + 1
		candidates[i] = Candidate{
			ID:     uuid.New(),
			Rank:   rank,
			Genome: ind.Genome,
			Metadata: genome.Metadata{
				Name:              fmt.Sprintf("training_%s_rank_%d", short, rank),
				Fitness:           ind.Fitness,
				CreatedTimestamp:  time.Now().Unix(),
				ScenarioID:        spec.ScenarioName,
				OrganismType:      string(spec.OrganismType),
				BrainKind:         string(ind.BrainKind),
				BrainVariant:      ind.BrainVariant,
				TrainingSessionID: sessionID.String(),
			},
		}
	}
	return &UnsavedTrainingResult{TrainingSessionID: sessionID, ScenarioID: spec.ScenarioName, Candidates: candidates}
}

// Save commits exactly the candidates named by ids into repo, returning the
// ids actually saved (ids with no matching candidate are silently ignored,
// matching the "commit exactly those" semantics of spec.md §4.9 bullet 6).
func (r *UnsavedTrainingResult) Save(repo *genome.Repository, ids []genome.ID) []genome.ID {
	wanted := make(map[genome.ID]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	var saved []genome.ID
	for _, c := range r.Candidates {
		if wanted[c.ID] {
			repo.Set(c.ID, c.Genome, c.Metadata)
			saved = append(saved, c.ID)
		}
	}
	return saved
}

// Discard drops every candidate without persisting anything; provided for
// symmetry with Save and to document the TrainingResultDiscard contract.
func (r *UnsavedTrainingResult) Discard() {
	r.Candidates = nil
}
