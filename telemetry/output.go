package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
)

// GenerationRecord is the gocsv-tagged flattening of one evolution
// generation's progress broadcast, one row per generation in
// progress.csv — grounded on the teacher's OutputManager.WriteTelemetry
// per-record CSV append idiom.
type GenerationRecord struct {
	Generation           int     `csv:"generation"`
	BestFitnessThisGen    float64 `csv:"best_fitness_this_gen"`
	BestFitnessAllTime    float64 `csv:"best_fitness_all_time"`
	AverageFitness        float64 `csv:"average_fitness"`
	TotalTrainingSeconds  float64 `csv:"total_training_seconds"`
	CumulativeSimSeconds  float64 `csv:"cumulative_sim_seconds"`
	SpeedupFactor         float64 `csv:"speedup_factor"`
	BestGenomeID          string  `csv:"best_genome_id"`
}

// OutputManager owns the experiment output directory: a per-generation
// progress CSV and the config snapshot, mirroring the teacher's
// NewOutputManager/WriteTelemetry/Close lifecycle (dir creation, lazy
// header-on-first-write, explicit Close). A nil *OutputManager is valid and
// makes every method a no-op, so callers can pass one through unconditionally
// when CSV output is disabled.
type OutputManager struct {
	dir                 string
	progressFile        *os.File
	progressHeaderWritten bool
}

// NewOutputManager creates the output directory and opens progress.csv.
// Returns a nil *OutputManager (not an error) when dir is empty.
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.Create(filepath.Join(dir, "progress.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating progress.csv: %w", err)
	}
	return &OutputManager{dir: dir, progressFile: f}, nil
}

// WriteGeneration appends one generation's progress record to progress.csv.
func (om *OutputManager) WriteGeneration(rec GenerationRecord) error {
	if om == nil {
		return nil
	}
	records := []GenerationRecord{rec}
	if !om.progressHeaderWritten {
		if err := gocsv.Marshal(records, om.progressFile); err != nil {
			return fmt.Errorf("writing generation progress: %w", err)
		}
		om.progressHeaderWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, om.progressFile); err != nil {
		return fmt.Errorf("writing generation progress: %w", err)
	}
	return nil
}

// Dir returns the output directory path, or "" for a nil manager.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes the progress file.
func (om *OutputManager) Close() error {
	if om == nil || om.progressFile == nil {
		return nil
	}
	return om.progressFile.Close()
}
