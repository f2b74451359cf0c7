package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/reactorsim/internal/integrators"
	"github.com/san-kum/reactorsim/internal/kinetics"
	"github.com/san-kum/reactorsim/internal/volume"
)

const (
	ModeEngine   = "engine"
	ModeIgnition = "ignition"
)

const (
	DefaultMechanism        = "h2-air"
	DefaultIntegrator       = "rosenbrock"
	DefaultTemperature      = 1000.0
	DefaultPressure         = 20 * kinetics.OneAtm
	DefaultEquivalenceRatio = 0.6
	DefaultTrackedSpecies   = "OH"
	DefaultSamplingStride   = 10
	DefaultMaxSearchHorizon = 100.0
	DefaultVolume           = 1.0
	DefaultPeakDrop         = 0.5
	DefaultPeakConfirm      = 5

	DefaultCompressionRatio = 8.0
	DefaultVMin             = 0.001
	DefaultRPM              = 3000.0
	DefaultArea             = 0.01
	DefaultSamplesPerCycle  = 1000

	DefaultRelTol     = 1e-6
	DefaultAbsTol     = 1e-12
	DefaultMaxRetries = 20
	DefaultMinStep    = 1e-15
)

type Config struct {
	Mode       string `yaml:"mode" json:"mode" validate:"oneof=engine ignition"`
	Mechanism  string `yaml:"mechanism" json:"mechanism" validate:"required"`
	Integrator string `yaml:"integrator" json:"integrator" validate:"oneof=rosenbrock rk45"`

	Temperature float64 `yaml:"temperature" json:"temperature" validate:"gt=0"`
	Pressure    float64 `yaml:"pressure" json:"pressure" validate:"gt=0"`

	// Composition is a mole-basis mixture. When empty the mixture is built
	// from Fuel and Oxidizer at EquivalenceRatio.
	Composition      kinetics.Composition `yaml:"composition,omitempty" json:"composition,omitempty" validate:"required_without=Fuel"`
	Fuel             kinetics.Composition `yaml:"fuel,omitempty" json:"fuel,omitempty" validate:"required_without=Composition"`
	Oxidizer         kinetics.Composition `yaml:"oxidizer,omitempty" json:"oxidizer,omitempty" validate:"required_with=Fuel"`
	EquivalenceRatio float64              `yaml:"equivalence_ratio" json:"equivalence_ratio" validate:"gte=0"`

	TrackedSpecies string `yaml:"tracked_species" json:"tracked_species" validate:"required"`
	TrackedBasis   string `yaml:"tracked_basis" json:"tracked_basis" validate:"oneof=mass mole"`
	// SamplingStride applies to autoignition runs; engine runs record every
	// accepted step.
	SamplingStride   int     `yaml:"sampling_stride" json:"sampling_stride" validate:"gte=1"`
	MaxSearchHorizon float64 `yaml:"max_search_horizon" json:"max_search_horizon" validate:"gt=0"`
	Volume           float64 `yaml:"volume" json:"volume" validate:"gt=0"`
	// PeakDrop of zero disables the early stop after the tracked peak.
	PeakDrop    float64 `yaml:"peak_drop" json:"peak_drop" validate:"gte=0,lt=1"`
	PeakConfirm int     `yaml:"peak_confirm" json:"peak_confirm" validate:"gte=1"`

	Engine EngineConfig `yaml:"engine" json:"engine"`
	Solver SolverConfig `yaml:"solver" json:"solver"`
	Limits LimitsConfig `yaml:"limits" json:"limits"`
}

type EngineConfig struct {
	CompressionRatio float64 `yaml:"compression_ratio" json:"compression_ratio" validate:"gte=1"`
	VMin             float64 `yaml:"v_min" json:"v_min" validate:"gt=0"`
	RPM              float64 `yaml:"rpm" json:"rpm" validate:"gt=0"`
	Area             float64 `yaml:"area" json:"area" validate:"gt=0"`
	Cycles           int     `yaml:"cycles" json:"cycles" validate:"gte=1"`
	SamplesPerCycle  int     `yaml:"samples_per_cycle" json:"samples_per_cycle" validate:"gte=1"`
}

type SolverConfig struct {
	RelTol     float64 `yaml:"rtol" json:"rtol" validate:"gt=0"`
	AbsTol     float64 `yaml:"atol" json:"atol" validate:"gt=0"`
	MaxRetries int     `yaml:"max_retries" json:"max_retries" validate:"gte=1"`
	MinStep    float64 `yaml:"min_step" json:"min_step" validate:"gte=0"`
	MaxStep    float64 `yaml:"max_step" json:"max_step" validate:"gte=0"`
}

type LimitsConfig struct {
	MaxTemperature float64 `yaml:"max_temperature" json:"max_temperature" validate:"gte=0"`
	MaxPressure    float64 `yaml:"max_pressure" json:"max_pressure" validate:"gte=0"`
}

var validate = validator.New()

func DefaultConfig() *Config {
	return &Config{
		Mode:             ModeIgnition,
		Mechanism:        DefaultMechanism,
		Integrator:       DefaultIntegrator,
		Temperature:      DefaultTemperature,
		Pressure:         DefaultPressure,
		Fuel:             kinetics.Composition{"H2": 1},
		Oxidizer:         kinetics.Composition{"O2": 1, "N2": 3.76},
		EquivalenceRatio: DefaultEquivalenceRatio,
		TrackedSpecies:   DefaultTrackedSpecies,
		TrackedBasis:     "mass",
		SamplingStride:   DefaultSamplingStride,
		MaxSearchHorizon: DefaultMaxSearchHorizon,
		Volume:           DefaultVolume,
		PeakDrop:         DefaultPeakDrop,
		PeakConfirm:      DefaultPeakConfirm,
		Engine: EngineConfig{
			CompressionRatio: DefaultCompressionRatio,
			VMin:             DefaultVMin,
			RPM:              DefaultRPM,
			Area:             DefaultArea,
			Cycles:           1,
			SamplesPerCycle:  DefaultSamplesPerCycle,
		},
		Solver: SolverConfig{
			RelTol:     DefaultRelTol,
			AbsTol:     DefaultAbsTol,
			MaxRetries: DefaultMaxRetries,
			MinStep:    DefaultMinStep,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	return validate.Struct(c)
}

// Clone deep-copies the compositions.
func (c *Config) Clone() *Config {
	out := *c
	out.Composition = cloneComposition(c.Composition)
	out.Fuel = cloneComposition(c.Fuel)
	out.Oxidizer = cloneComposition(c.Oxidizer)
	return &out
}

func cloneComposition(c kinetics.Composition) kinetics.Composition {
	if c == nil {
		return nil
	}
	out := make(kinetics.Composition, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

func (c *Config) EngineGeometry() volume.Engine {
	return volume.Engine{
		CompressionRatio: c.Engine.CompressionRatio,
		VMin:             c.Engine.VMin,
		RPM:              c.Engine.RPM,
		Area:             c.Engine.Area,
	}
}

func (c *Config) SolverOptions() integrators.Options {
	opts := integrators.DefaultOptions()
	opts.RelTol = c.Solver.RelTol
	opts.AbsTol = []float64{c.Solver.AbsTol}
	opts.MaxRetries = c.Solver.MaxRetries
	opts.MinStep = c.Solver.MinStep
	opts.MaxStep = c.Solver.MaxStep
	return opts
}

// MassFractions resolves the configured mixture against a mechanism.
func (c *Config) MassFractions(m *kinetics.Mechanism) ([]float64, error) {
	var x []float64
	var err error
	if len(c.Composition) > 0 {
		x, err = m.Fractions(c.Composition)
	} else {
		x, err = m.MixtureForEquivalenceRatio(c.EquivalenceRatio, c.Fuel, c.Oxidizer)
	}
	if err != nil {
		return nil, err
	}
	return m.MassFromMole(x), nil
}

// MixtureLabel describes the mixture for listings.
func (c *Config) MixtureLabel() string {
	if len(c.Composition) > 0 {
		return c.Composition.String()
	}
	return fmt.Sprintf("phi=%g fuel=[%s] oxidizer=[%s]", c.EquivalenceRatio, c.Fuel, c.Oxidizer)
}
