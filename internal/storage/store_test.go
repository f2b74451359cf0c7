package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/san-kum/reactorsim/internal/config"
	"github.com/san-kum/reactorsim/internal/dynamo"
	"github.com/san-kum/reactorsim/internal/ignition"
	"github.com/san-kum/reactorsim/internal/sim"
	"github.com/san-kum/reactorsim/internal/trajectory"
)

func testOutcome() *sim.Outcome {
	return &sim.Outcome{
		Mode:  config.ModeIgnition,
		Phase: sim.Completed,
		Samples: []trajectory.Sample{
			{Time: 0, Temperature: 1000, Pressure: 2.0265e6, Volume: 1, Tracked: 0},
			{Time: 1.25e-7, Temperature: 1000.0001, Pressure: 2.0265e6, Volume: 1, Tracked: 3.1e-12},
			{Time: 2e-4, Temperature: 2400, Pressure: 5e6, Volume: 1, Tracked: 0.01},
		},
		Metrics:   map[string]float64{"peak_pressure": 5e6},
		Stats:     dynamo.Stats{Accepted: 2, Rejected: 1, Evaluations: 30},
		Steps:     2,
		WallClock: 1500 * time.Millisecond,
		Ignition:  &ignition.Result{Delay: 2e-4, PeakIndex: 2, PeakValue: 0.01},
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	cfg := config.DefaultConfig()
	out := testOutcome()

	runID, err := st.Save(cfg, out)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if !strings.HasPrefix(runID, "ignition_") || len(runID) != len("ignition_")+8 {
		t.Errorf("unexpected run id %q", runID)
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Mechanism != "h2-air" || meta.Phase != sim.Completed {
		t.Errorf("meta = %+v", meta)
	}
	if meta.Metrics["peak_pressure"] != 5e6 {
		t.Errorf("expected peak pressure 5e6, got %v", meta.Metrics["peak_pressure"])
	}
	if meta.Ignition == nil || meta.Ignition.Delay != 2e-4 {
		t.Errorf("ignition = %+v", meta.Ignition)
	}
	if meta.WallClockSeconds != 1.5 || meta.Rejected != 1 {
		t.Errorf("wall clock %v, rejected %d", meta.WallClockSeconds, meta.Rejected)
	}
	if meta.Config == nil || meta.Config.EquivalenceRatio != cfg.EquivalenceRatio {
		t.Errorf("config not stored: %+v", meta.Config)
	}

	samples, err := st.LoadTrajectory(runID)
	if err != nil {
		t.Fatalf("load trajectory failed: %v", err)
	}
	if len(samples) != len(out.Samples) {
		t.Fatalf("expected %d samples, got %d", len(out.Samples), len(samples))
	}
	for i := range samples {
		if samples[i] != out.Samples[i] {
			t.Errorf("sample %d = %+v, want %+v", i, samples[i], out.Samples[i])
		}
	}
}

func TestStoreSave_Failure(t *testing.T) {
	st := New(t.TempDir())
	out := testOutcome()
	out.Phase = sim.Diverged
	out.Ignition = nil
	out.Failure = &sim.Failure{Phase: sim.Diverged, Time: 1e-4, Err: dynamo.ErrIntegrationDivergence}

	runID, err := st.Save(config.DefaultConfig(), out)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Phase != sim.Diverged || !strings.Contains(meta.Failure, "diverged") {
		t.Errorf("phase %v, failure %q", meta.Phase, meta.Failure)
	}
}

func TestStoreList(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	first, _ := st.Save(config.DefaultConfig(), testOutcome())
	second, _ := st.Save(config.DefaultConfig(), testOutcome())
	if err := os.MkdirAll(filepath.Join(tmpDir, "junk"), 0755); err != nil {
		t.Fatal(err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != first || runs[1].ID != second {
		t.Errorf("order = %s, %s", runs[0].ID, runs[1].ID)
	}
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	runID, err := st.Save(config.DefaultConfig(), testOutcome())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runDir := filepath.Join(tmpDir, runID)
	for _, name := range []string{"metadata.json", "trajectory.csv"} {
		if _, err := os.Stat(filepath.Join(runDir, name)); os.IsNotExist(err) {
			t.Errorf("%s not created", name)
		}
	}

	data, err := os.ReadFile(filepath.Join(runDir, "trajectory.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "time,temperature,pressure,volume,tracked\n") {
		t.Errorf("unexpected header in %q", data)
	}
}

func TestStoreLoad_NotFound(t *testing.T) {
	st := New(t.TempDir())

	for _, id := range []string{"engine_deadbeef", "../etc", ""} {
		if _, err := st.Load(id); !errors.Is(err, ErrRunNotFound) {
			t.Errorf("Load(%q) err = %v", id, err)
		}
		if _, err := st.LoadTrajectory(id); !errors.Is(err, ErrRunNotFound) {
			t.Errorf("LoadTrajectory(%q) err = %v", id, err)
		}
	}
}

func TestExportJSON(t *testing.T) {
	st := New(t.TempDir())
	runID, err := st.Save(config.DefaultConfig(), testOutcome())
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := st.ExportJSON(&buf, runID); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	var data ExportData
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if data.Run.ID != runID || len(data.Trajectory) != 3 {
		t.Errorf("export = %+v", data)
	}
	if !strings.Contains(buf.String(), `"phase": "completed"`) {
		t.Error("phase not written as text")
	}
}

func TestReadCSV_Malformed(t *testing.T) {
	in := "time,temperature,pressure,volume,tracked\n0,300,1e5,1,abc\n"
	if _, err := ReadCSV(strings.NewReader(in)); err == nil {
		t.Error("expected parse error")
	}
}
