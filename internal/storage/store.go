package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/linkage/internal/analysis"
	"github.com/san-kum/linkage/internal/export"
	"github.com/san-kum/linkage/internal/mechanism"
	"github.com/san-kum/linkage/internal/rootfind"
	"github.com/san-kum/linkage/internal/sim"
)

const (
	metadataFile = "metadata.json"
	samplesFile  = "reactions.csv"
)

type Store struct {
	baseDir string
	now     func() time.Time
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, now: time.Now}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string              `json:"id"`
	Preset    string              `json:"preset"`
	Timestamp time.Time           `json:"timestamp"`
	Params    mechanism.Params    `json:"params"`
	Grid      sim.Grid            `json:"grid"`
	Solver    rootfind.Params     `json:"solver"`
	Samples   int                 `json:"samples"`
	Crossings []analysis.Crossing `json:"crossings"`
	Metrics   map[string]float64  `json:"metrics"`
}

// Run is everything Save persists about one sampled run.
type Run struct {
	Preset    string
	Params    mechanism.Params
	Solver    rootfind.Params
	Result    *sim.Result
	Crossings []analysis.Crossing
}

// Save writes metadata.json and reactions.csv into a new run directory and
// returns the run id.
func (s *Store) Save(run Run) (string, error) {
	if run.Result == nil {
		return "", fmt.Errorf("nothing to save: nil result")
	}

	preset := run.Preset
	if preset == "" {
		preset = "custom"
	}
	runID := fmt.Sprintf("%s_%s", preset, uuid.NewString()[:8])
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Preset:    preset,
		Timestamp: s.now(),
		Params:    run.Params,
		Grid:      run.Result.Grid,
		Solver:    run.Solver,
		Samples:   len(run.Result.Samples),
		Crossings: run.Crossings,
		Metrics:   run.Result.Metrics,
	}
	if meta.Crossings == nil {
		meta.Crossings = []analysis.Crossing{}
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, samplesFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := export.WriteCSV(csvFile, run.Result.Samples); err != nil {
		return "", err
	}
	return runID, nil
}

// List returns every readable run, oldest first. Directories without valid
// metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		if runs[i].Timestamp.Equal(runs[j].Timestamp) {
			return runs[i].ID < runs[j].ID
		}
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

func (s *Store) LoadSamples(runID string) ([]sim.Sample, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, samplesFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	samples, err := export.ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return samples, nil
}

// LoadResult rebuilds a sim.Result from a saved run.
func (s *Store) LoadResult(runID string) (*RunMetadata, *sim.Result, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	samples, err := s.LoadSamples(runID)
	if err != nil {
		return nil, nil, err
	}

	times := make([]float64, len(samples))
	for i, smp := range samples {
		times[i] = smp.T
	}
	return meta, &sim.Result{
		Grid:       meta.Grid,
		Times:      times,
		Samples:    samples,
		Metrics:    meta.Metrics,
		StepsTaken: len(samples),
	}, nil
}
