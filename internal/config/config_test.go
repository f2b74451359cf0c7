package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/reactorsim/internal/kinetics"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, ModeIgnition, cfg.Mode)
	assert.Equal(t, "h2-air", cfg.Mechanism)
	assert.Equal(t, "OH", cfg.TrackedSpecies)
	assert.Equal(t, 1000, cfg.Engine.SamplesPerCycle)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown mode", func(c *Config) { c.Mode = "batch" }},
		{"unknown integrator", func(c *Config) { c.Integrator = "euler" }},
		{"zero temperature", func(c *Config) { c.Temperature = 0 }},
		{"negative pressure", func(c *Config) { c.Pressure = -1 }},
		{"no mixture", func(c *Config) { c.Fuel = nil; c.Composition = nil }},
		{"fuel without oxidizer", func(c *Config) { c.Oxidizer = nil }},
		{"zero stride", func(c *Config) { c.SamplingStride = 0 }},
		{"bad basis", func(c *Config) { c.TrackedBasis = "volume" }},
		{"peak drop of one", func(c *Config) { c.PeakDrop = 1 }},
		{"compression below one", func(c *Config) { c.Engine.CompressionRatio = 0.5 }},
		{"zero rpm", func(c *Config) { c.Engine.RPM = 0 }},
		{"zero rtol", func(c *Config) { c.Solver.RelTol = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")

	cfg := GetPreset("engine/motored")
	require.NotNil(t, cfg)
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Mode, loaded.Mode)
	assert.Equal(t, cfg.Temperature, loaded.Temperature)
	assert.Equal(t, cfg.Composition, loaded.Composition)
	assert.Equal(t, cfg.Engine, loaded.Engine)
}

func TestLoad_Defaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	data := []byte("mode: engine\ntemperature: 700\ncomposition: \"O2:1, N2:3.76\"\nmechanism: air\ntracked_species: O2\n")
	require.NoError(t, os.WriteFile(path, data, 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 700.0, cfg.Temperature)
	assert.Equal(t, DefaultPressure, cfg.Pressure)
	assert.Equal(t, kinetics.Composition{"O2": 1, "N2": 3.76}, cfg.Composition)
	assert.Equal(t, DefaultSamplesPerCycle, cfg.Engine.SamplesPerCycle)
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mode: batch\n"), 0644))

	_, err := Load(path)
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("ignition/lean-h2")
	require.NotNil(t, cfg)
	assert.Equal(t, 1000.0, cfg.Temperature)
	assert.InDelta(t, 20*kinetics.OneAtm, cfg.Pressure, 1e-9)
	assert.Equal(t, 0.6, cfg.EquivalenceRatio)
	assert.Equal(t, 10, cfg.SamplingStride)

	// presets must not share state
	cfg.Fuel["H2"] = 5
	assert.Equal(t, 1.0, GetPreset("ignition/lean-h2").Fuel["H2"])
}

func TestGetPreset_NotFound(t *testing.T) {
	assert.Nil(t, GetPreset("ignition/nonexistent"))
}

func TestPresetsValid(t *testing.T) {
	names := ListPresets()
	require.NotEmpty(t, names)
	assert.IsIncreasing(t, names)

	for _, name := range names {
		cfg := GetPreset(name)
		assert.NoError(t, cfg.Validate(), name)

		m, err := kinetics.Resolve(cfg.Mechanism)
		require.NoError(t, err, name)
		y, err := cfg.MassFractions(m)
		require.NoError(t, err, name)
		assert.Len(t, y, len(m.Species), name)
	}
}

func TestSolverOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Solver.MaxStep = 1e-3
	opts := cfg.SolverOptions()

	assert.Equal(t, cfg.Solver.RelTol, opts.RelTol)
	assert.Equal(t, []float64{cfg.Solver.AbsTol}, opts.AbsTol)
	assert.Equal(t, 1e-3, opts.MaxStep)
	assert.NoError(t, opts.Validate())
}

func TestEngineGeometry(t *testing.T) {
	cfg := DefaultConfig()
	e := cfg.EngineGeometry()

	assert.NoError(t, e.Validate())
	assert.InDelta(t, 0.02, e.CycleDuration(), 1e-12)
	assert.InDelta(t, 0.008, e.VMax(), 1e-12)
}

func TestClone(t *testing.T) {
	cfg := GetPreset("engine/motored")
	c := cfg.Clone()
	c.Composition["CH4"] = 3
	assert.Equal(t, 1.0, cfg.Composition["CH4"])
}
