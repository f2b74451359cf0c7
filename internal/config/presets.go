package config

import (
	"sort"

	"github.com/san-kum/reactorsim/internal/kinetics"
)

// Presets are complete configurations keyed by "<mode>/<name>".
var Presets = map[string]func(*Config){
	"engine/motored": func(c *Config) {
		c.Mode = ModeEngine
		c.Mechanism = "air"
		c.Temperature = 670
		c.Pressure = kinetics.OneAtm
		c.Composition = kinetics.Composition{"CH4": 1, "O2": 2, "N2": 7.52}
		c.TrackedSpecies = "CH4"
		c.SamplingStride = 1
	},
	"engine/h2-knock": func(c *Config) {
		c.Mode = ModeEngine
		c.Temperature = 800
		c.Pressure = kinetics.OneAtm
		c.EquivalenceRatio = 1.0
		c.Engine.CompressionRatio = 12
		c.SamplingStride = 1
	},
	"ignition/lean-h2": func(c *Config) {
		c.Mode = ModeIgnition
		c.Temperature = 1000
		c.Pressure = 20 * kinetics.OneAtm
		c.EquivalenceRatio = 0.6
		c.SamplingStride = 10
		c.MaxSearchHorizon = 100
	},
	"ignition/stoich-h2-1atm": func(c *Config) {
		c.Mode = ModeIgnition
		c.Temperature = 1200
		c.Pressure = kinetics.OneAtm
		c.EquivalenceRatio = 1.0
		c.SamplingStride = 1
		c.MaxSearchHorizon = 1
	},
}

// GetPreset returns a fresh configuration, or nil for an unknown name.
func GetPreset(name string) *Config {
	apply, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	apply(cfg)
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
