package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/reactorsim/internal/config"
	"github.com/san-kum/reactorsim/internal/ignition"
	"github.com/san-kum/reactorsim/internal/sim"
	"github.com/san-kum/reactorsim/internal/trajectory"
)

var ErrRunNotFound = errors.New("storage: run not found")

const (
	metadataFile   = "metadata.json"
	trajectoryFile = "trajectory.csv"
)

var csvHeader = []string{"time", "temperature", "pressure", "volume", "tracked"}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID               string             `json:"id"`
	Mode             string             `json:"mode"`
	Mechanism        string             `json:"mechanism"`
	Integrator       string             `json:"integrator"`
	TrackedSpecies   string             `json:"tracked_species"`
	Timestamp        time.Time          `json:"timestamp"`
	Phase            sim.Phase          `json:"phase"`
	Failure          string             `json:"failure,omitempty"`
	Steps            int                `json:"steps"`
	Rejected         int                `json:"rejected"`
	Evaluations      int                `json:"evaluations"`
	Samples          int                `json:"samples"`
	WallClockSeconds float64            `json:"wall_clock_seconds"`
	Metrics          map[string]float64 `json:"metrics"`
	Ignition         *ignition.Result   `json:"ignition,omitempty"`
	Config           *config.Config     `json:"config"`
}

// Save writes one run directory and returns its id. Failed runs are stored
// too, with the trajectory recorded up to the failure.
func (s *Store) Save(cfg *config.Config, out *sim.Outcome) (string, error) {
	runID := fmt.Sprintf("%s_%s", out.Mode, uuid.NewString()[:8])
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:               runID,
		Mode:             out.Mode,
		Mechanism:        cfg.Mechanism,
		Integrator:       cfg.Integrator,
		TrackedSpecies:   cfg.TrackedSpecies,
		Timestamp:        time.Now(),
		Phase:            out.Phase,
		Steps:            out.Steps,
		Rejected:         out.Stats.Rejected,
		Evaluations:      out.Stats.Evaluations,
		Samples:          len(out.Samples),
		WallClockSeconds: out.WallClock.Seconds(),
		Metrics:          out.Metrics,
		Ignition:         out.Ignition,
		Config:           cfg,
	}
	if out.Failure != nil {
		meta.Failure = out.Failure.Error()
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}

	f, err := os.Create(filepath.Join(runDir, trajectoryFile))
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := WriteCSV(f, out.Samples); err != nil {
		return "", err
	}
	return runID, f.Close()
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	return f.Close()
}

// List returns the stored runs, oldest first. Directories without readable
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

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) runPath(runID, name string) (string, error) {
	if runID == "" || filepath.Base(runID) != runID || runID == ".." {
		return "", fmt.Errorf("%w: %q", ErrRunNotFound, runID)
	}
	return filepath.Join(s.baseDir, runID, name), nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	path, err := s.runPath(runID, metadataFile)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("%s: %w", runID, err)
	}
	return &meta, nil
}

func (s *Store) LoadTrajectory(runID string) ([]trajectory.Sample, error) {
	path, err := s.runPath(runID, trajectoryFile)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	defer f.Close()

	return ReadCSV(f)
}

// WriteCSV writes samples with full float precision.
func WriteCSV(w io.Writer, samples []trajectory.Sample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, smp := range samples {
		row := []string{
			formatFloat(smp.Time),
			formatFloat(smp.Temperature),
			formatFloat(smp.Pressure),
			formatFloat(smp.Volume),
			formatFloat(smp.Tracked),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func ReadCSV(r io.Reader) ([]trajectory.Sample, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(csvHeader)

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []trajectory.Sample{}, nil
	}

	samples := make([]trajectory.Sample, 0, len(records)-1)
	for i, record := range records[1:] {
		var vals [5]float64
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d, column %s: %w", i+2, csvHeader[j], err)
			}
			vals[j] = v
		}
		samples = append(samples, trajectory.Sample{
			Time:        vals[0],
			Temperature: vals[1],
			Pressure:    vals[2],
			Volume:      vals[3],
			Tracked:     vals[4],
		})
	}
	return samples, nil
}
