package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/reactorsim/internal/trajectory"
)

type ExportData struct {
	Run        RunMetadata         `json:"run"`
	Trajectory []trajectory.Sample `json:"trajectory"`
}

// ExportJSON writes a stored run, metadata and trajectory, as one document.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	samples, err := s.LoadTrajectory(runID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ExportData{Run: *meta, Trajectory: samples})
}

// ExportCSV copies the stored trajectory.
func (s *Store) ExportCSV(w io.Writer, runID string) error {
	samples, err := s.LoadTrajectory(runID)
	if err != nil {
		return err
	}
	return WriteCSV(w, samples)
}
