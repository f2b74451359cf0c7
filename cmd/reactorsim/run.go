package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/san-kum/reactorsim/internal/config"
	"github.com/san-kum/reactorsim/internal/experiment"
	"github.com/san-kum/reactorsim/internal/kinetics"
	"github.com/san-kum/reactorsim/internal/metrics"
	"github.com/san-kum/reactorsim/internal/sim"
	"github.com/san-kum/reactorsim/internal/storage"
	"github.com/san-kum/reactorsim/internal/viz"
)

func addRunFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "YAML configuration file")
	f.StringVar(&preset, "preset", "", "preset configuration (see presets)")
	f.StringVar(&mechanism, "mechanism", config.DefaultMechanism, "built-in mechanism name or mechanism file")
	f.StringVar(&integrator, "integrator", config.DefaultIntegrator, "integrator (rosenbrock, rk45)")
	f.Float64Var(&temperature, "temperature", config.DefaultTemperature, "initial temperature in K")
	f.Float64Var(&pressure, "pressure", config.DefaultPressure, "initial pressure in Pa")
	f.StringVar(&composition, "composition", "", "mole composition, e.g. H2:2,O2:1,N2:3.76")
	f.StringVar(&fuel, "fuel", "", "fuel composition used with --phi")
	f.StringVar(&oxidizer, "oxidizer", "", "oxidizer composition used with --phi")
	f.Float64Var(&phi, "phi", config.DefaultEquivalenceRatio, "equivalence ratio")
	f.StringVar(&tracked, "tracked", config.DefaultTrackedSpecies, "tracked species")
	f.StringVar(&basis, "basis", "mass", "tracked fraction basis (mass, mole)")
	f.IntVar(&stride, "stride", config.DefaultSamplingStride, "record every n-th accepted step")
	f.Float64Var(&rtol, "rtol", config.DefaultRelTol, "relative tolerance")
	f.Float64Var(&atol, "atol", config.DefaultAbsTol, "absolute tolerance")
	f.Float64Var(&maxStep, "max-step", 0, "largest step in s (0 for unbounded)")
}

func addEngineFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Float64Var(&compressionRatio, "cr", config.DefaultCompressionRatio, "compression ratio")
	f.Float64Var(&rpm, "rpm", config.DefaultRPM, "engine speed")
	f.IntVar(&cycles, "cycles", 1, "number of cycles")
	f.IntVar(&samplesPerCycle, "samples-per-cycle", config.DefaultSamplesPerCycle, "horizon grid points per cycle")
}

func addIgnitionFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&horizon, "horizon", config.DefaultMaxSearchHorizon, "maximum search horizon in s")
}

// buildConfig starts from --config, --preset or the mode's default preset
// and applies the flags the user set explicitly.
func buildConfig(cmd *cobra.Command, mode string) (*config.Config, error) {
	var cfg *config.Config
	switch {
	case configFile != "":
		c, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = c
	case preset != "":
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset %q (available: %v)", preset, config.ListPresets())
		}
	case mode == config.ModeEngine:
		cfg = config.GetPreset("engine/motored")
	default:
		cfg = config.GetPreset("ignition/lean-h2")
	}
	cfg.Mode = mode

	f := cmd.Flags()
	if f.Changed("mechanism") {
		cfg.Mechanism = mechanism
	}
	if f.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if f.Changed("temperature") {
		cfg.Temperature = temperature
	}
	if f.Changed("pressure") {
		cfg.Pressure = pressure
	}
	if f.Changed("composition") {
		c, err := kinetics.ParseComposition(composition)
		if err != nil {
			return nil, err
		}
		cfg.Composition = c
	}
	if f.Changed("fuel") || f.Changed("oxidizer") || f.Changed("phi") {
		cfg.Composition = nil
		if cfg.Fuel == nil {
			cfg.Fuel = kinetics.Composition{"H2": 1}
		}
		if cfg.Oxidizer == nil {
			cfg.Oxidizer = kinetics.Composition{"O2": 1, "N2": 3.76}
		}
	}
	if f.Changed("fuel") {
		c, err := kinetics.ParseComposition(fuel)
		if err != nil {
			return nil, fmt.Errorf("fuel: %w", err)
		}
		cfg.Fuel = c
	}
	if f.Changed("oxidizer") {
		c, err := kinetics.ParseComposition(oxidizer)
		if err != nil {
			return nil, fmt.Errorf("oxidizer: %w", err)
		}
		cfg.Oxidizer = c
	}
	if f.Changed("phi") {
		cfg.EquivalenceRatio = phi
	}
	if f.Changed("tracked") {
		cfg.TrackedSpecies = tracked
	}
	if f.Changed("basis") {
		cfg.TrackedBasis = basis
	}
	if f.Changed("stride") {
		cfg.SamplingStride = stride
	}
	if f.Changed("rtol") {
		cfg.Solver.RelTol = rtol
	}
	if f.Changed("atol") {
		cfg.Solver.AbsTol = atol
	}
	if f.Changed("max-step") {
		cfg.Solver.MaxStep = maxStep
	}
	if f.Lookup("horizon") != nil && f.Changed("horizon") {
		cfg.MaxSearchHorizon = horizon
	}
	if f.Lookup("cr") != nil {
		if f.Changed("cr") {
			cfg.Engine.CompressionRatio = compressionRatio
		}
		if f.Changed("rpm") {
			cfg.Engine.RPM = rpm
		}
		if f.Changed("cycles") {
			cfg.Engine.Cycles = cycles
		}
		if f.Changed("samples-per-cycle") {
			cfg.Engine.SamplesPerCycle = samplesPerCycle
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runEngine(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, config.ModeEngine)
	if err != nil {
		return err
	}
	out, runErr := runSingle(cmd.Context(), cfg)
	if out == nil {
		return runErr
	}

	runID, err := saveRun(cfg, out)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "run\t%s\n", runID)
	fmt.Fprintf(w, "phase\t%s\n", out.Phase)
	fmt.Fprintf(w, "final T\t%.2f K\n", out.Final.Temperature)
	fmt.Fprintf(w, "final p\t%.4g Pa\n", out.Final.Pressure)
	for _, name := range metricNames(out.Metrics) {
		fmt.Fprintf(w, "%s\t%.6g\n", name, out.Metrics[name])
	}
	fmt.Fprintf(w, "steps\t%d (%d rejected, %d evaluations)\n", out.Steps, out.Stats.Rejected, out.Stats.Evaluations)
	fmt.Fprintf(w, "wall clock\t%.2fs\n", out.WallClock.Seconds())
	w.Flush()
	return runErr
}

func runIgnition(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, config.ModeIgnition)
	if err != nil {
		return err
	}
	out, runErr := runSingle(cmd.Context(), cfg)
	if out == nil {
		return runErr
	}

	runID, err := saveRun(cfg, out)
	if err != nil {
		return err
	}
	fmt.Printf("Run: %s\n", runID)
	if out.Ignition != nil && runErr == nil {
		fmt.Printf("Computed Ignition Delay: %.3e seconds for T=%gK. Took %3.2fs to compute\n",
			out.Ignition.Delay, cfg.Temperature, out.Ignition.WallClockSeconds())
	}
	return runErr
}

func runSingle(ctx context.Context, cfg *config.Config) (*sim.Outcome, error) {
	logger, err := newLogger()
	if err != nil {
		return nil, err
	}
	sink, err := newMetricsSink()
	if err != nil {
		return nil, err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	exp := experiment.New(cfg)
	opts := append([]sim.Option{sim.WithLogger(logger)}, sink.options()...)
	if err := exp.Setup(metrics.Defaults(), opts...); err != nil {
		return nil, err
	}
	out, runErr := exp.Run(ctx)
	if out != nil {
		if err := sink.flush(out); err != nil {
			return out, err
		}
	}
	return out, runErr
}

func saveRun(cfg *config.Config, out *sim.Outcome) (string, error) {
	store := storage.New(dataDir)
	if err := store.Init(); err != nil {
		return "", err
	}
	return store.Save(cfg, out)
}

func runSweep(cmd *cobra.Command, args []string) error {
	base, err := buildConfig(cmd, config.ModeIgnition)
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	sink, err := newMetricsSink()
	if err != nil {
		return err
	}

	points := experiment.DefaultSweepPoints()
	if len(sweepTemps) > 0 {
		points = points[:0]
		for _, t := range sweepTemps {
			points = append(points, experiment.SweepPoint{Temperature: t})
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	rows, err := experiment.Sweep(ctx, base, points, workers, logger, sink.options()...)
	if err != nil {
		return err
	}
	if err := sink.flush(); err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "T (K)\t1000/T\tDELAY (s)\tWALL (s)\tPHASE")
	for _, r := range rows {
		delay := fmt.Sprintf("%.3e", r.Delay)
		if r.Error != "" {
			delay = "-"
		}
		fmt.Fprintf(w, "%g\t%.4f\t%s\t%.2f\t%s\n", r.Temperature, 1000*r.InverseT, delay, r.WallClockSeconds, r.Phase)
	}
	w.Flush()
	for _, r := range rows {
		if r.Error != "" {
			fmt.Fprintf(os.Stderr, "T=%gK: %s\n", r.Temperature, r.Error)
		}
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, config.ModeEngine)
	if err != nil {
		return err
	}
	s, err := sim.New(cfg)
	if err != nil {
		return err
	}
	for _, m := range metrics.Defaults() {
		s.AddMetric(m)
	}
	sess, err := s.Start()
	if err != nil {
		return err
	}

	title := fmt.Sprintf("%s  CR %g  %g rpm  %s", cfg.Mechanism, cfg.Engine.CompressionRatio, cfg.Engine.RPM, cfg.MixtureLabel())
	p := tea.NewProgram(viz.NewModel(sess, title), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return err
	}

	out, runErr := final.(viz.Model).Outcome()
	if out == nil {
		return runErr
	}
	runID, err := saveRun(cfg, out)
	if err != nil {
		return err
	}
	fmt.Printf("saved run %s (%s)\n", runID, out.Phase)
	return runErr
}
